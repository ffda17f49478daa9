package validation

import "github.com/hellodavidux/runtrace/pkg/schema"

// Validator checks fixtures before they are shown.
// Structural checks use JSON Schema Draft 2020-12 over the raw document.
type Validator interface {
	ValidateDocument(doc any) *schema.ValidationResult
	Validate(f *schema.Fixture) *schema.ValidationResult
}
