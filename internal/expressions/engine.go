package expressions

import (
	"context"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

// Engine evaluates an expression against one data object, typically an
// exported timeline row or a node payload.
// Three implementations: Expr (default filters), CEL (typed predicates),
// GoJQ (payload projections).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Engine names accepted by NewEngine.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJQ   = "jq"
)

// NewEngine returns the engine registered under name. An empty name
// selects expr.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", EngineExpr:
		return NewExprEngine(), nil
	case EngineCEL:
		return NewCELEngine()
	case EngineJQ:
		return NewGoJQEngine(), nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "unknown expression engine %q", name).
			WithDetails(map[string]any{"engines": []string{EngineExpr, EngineCEL, EngineJQ}})
	}
}
