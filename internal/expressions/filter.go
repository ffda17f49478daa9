package expressions

import (
	"context"
	"errors"
	"fmt"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

// Filter returns the rows for which expression evaluates to true. Rows are
// passed to the engine as-is; rows carrying an "id" key get it attached to
// any error. A non-boolean result is a query error.
func Filter(ctx context.Context, engine Engine, expression string, rows []map[string]any) ([]map[string]any, error) {
	if expression == "" {
		return rows, nil
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, _ := row["id"].(string)

		v, err := engine.Evaluate(ctx, expression, row)
		if err != nil {
			var te *schema.TraceError
			if errors.As(err, &te) && te.NodeID == "" {
				return nil, te.WithNode(id)
			}
			return nil, err
		}
		keep, ok := v.(bool)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeQuery,
				"%s filter %q returned %s, want bool", engine.Name(), expression, typeName(v)).
				WithNode(id).
				WithDetails(map[string]any{"expression": expression})
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
