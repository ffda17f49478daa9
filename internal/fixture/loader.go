// Package fixture loads workflow run fixtures from YAML or JSON files.
package fixture

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hellodavidux/runtrace/internal/validation"
	"github.com/hellodavidux/runtrace/pkg/schema"
)

//go:embed canonical.yaml
var canonicalYAML []byte

// Format is a fixture encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the encoding from a file extension; anything but .json
// is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// CanonicalSource returns the embedded default fixture.
func CanonicalSource() []byte {
	return canonicalYAML
}

// Loader reads and validates fixtures.
type Loader struct {
	validator validation.Validator
	logger    *slog.Logger
}

// NewLoader creates a Loader. A nil logger uses slog.Default.
func NewLoader(v validation.Validator, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{validator: v, logger: logger}
}

// Load reads the fixture at path, or the embedded canonical fixture when
// path is empty. The validation result is returned alongside the fixture;
// an invalid fixture is also reported as the error.
func (l *Loader) Load(path string) (*schema.Fixture, *schema.ValidationResult, error) {
	if path == "" {
		return l.Parse(canonicalYAML, FormatYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, schema.NewErrorf(schema.ErrCodeIO, "read fixture %s", path).WithCause(err)
	}
	f, res, err := l.Parse(data, FormatOf(path))
	if err != nil {
		return nil, res, err
	}
	l.logger.Debug("fixture loaded",
		slog.String("path", path),
		slog.Int("nodes", len(f.Nodes)),
		slog.Int("runs", len(f.Runs)))
	return f, res, nil
}

// Parse decodes and validates fixture bytes.
func (l *Loader) Parse(data []byte, format Format) (*schema.Fixture, *schema.ValidationResult, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, nil, err
	}

	res := l.validator.ValidateDocument(doc)
	for _, w := range res.Warnings {
		l.logger.Warn("fixture warning", slog.String("path", w.Path), slog.String("node_id", w.NodeID), slog.String("message", w.Message))
	}
	if err := res.ToError(); err != nil {
		return nil, res, err
	}

	f, err := decodeFixture(data, format)
	if err != nil {
		return nil, res, err
	}
	return f, res, nil
}

// Canonical parses the embedded fixture without validation.
func Canonical() (*schema.Fixture, error) {
	return decodeFixture(canonicalYAML, FormatYAML)
}

func decodeDocument(data []byte, format Format) (any, error) {
	var doc any
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "unknown fixture format %q", format)
	}
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "parse %s fixture: %v", format, err).WithCause(err)
	}
	return doc, nil
}

func decodeFixture(data []byte, format Format) (*schema.Fixture, error) {
	var f schema.Fixture
	var err error
	if format == FormatJSON {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "decode %s fixture", format).WithCause(err)
	}
	return &f, nil
}
