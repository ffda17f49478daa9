package validation

import (
	"fmt"

	"github.com/hellodavidux/runtrace/internal/timeline"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

// validateSemantic checks what the schema cannot express: unique node and
// run IDs, interval ordering, the display horizon and a single input node.
func validateSemantic(f *schema.Fixture) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	seen := make(map[string]int, len(f.Nodes))
	var inputs []string
	for i, n := range f.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)

		if first, dup := seen[n.ID]; dup {
			result.AddError(path+".id", n.ID, schema.ErrCodeDuplicateID,
				fmt.Sprintf("duplicate node id %q, first used by nodes[%d]", n.ID, first))
		} else {
			seen[n.ID] = i
		}

		if n.EndSec <= n.StartSec {
			result.AddError(path, n.ID, schema.ErrCodeInvalidInterval,
				fmt.Sprintf("end_sec %.2f must be greater than start_sec %.2f", n.EndSec, n.StartSec))
		}
		if n.EndSec > timeline.DisplayHorizonSec {
			result.AddWarning(path+".end_sec", n.ID, schema.ErrCodeValidation,
				fmt.Sprintf("ends at %.2fs, past the %.0fs display horizon; the timeline will stretch",
					n.EndSec, timeline.DisplayHorizonSec))
		}

		if timeline.Classify(n) == timeline.RoleInput {
			inputs = append(inputs, n.ID)
		}
	}

	if len(inputs) > 1 {
		result.AddError("nodes", inputs[1], schema.ErrCodeValidation,
			fmt.Sprintf("%d input nodes %v; only one may be identified as in-0", len(inputs), inputs))
	}

	runs := make(map[string]bool, len(f.Runs))
	for i, r := range f.Runs {
		if runs[r.RunID] {
			result.AddError(fmt.Sprintf("runs[%d].run_id", i), "", schema.ErrCodeDuplicateID,
				fmt.Sprintf("duplicate run id %q", r.RunID))
		}
		runs[r.RunID] = true
	}

	return result
}
