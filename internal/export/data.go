package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/hellodavidux/runtrace/pkg/schema"
)

// DataJSON formats a payload as two-space indented JSON.
func DataJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", schema.NewError(schema.ErrCodeExport, "encode payload").WithCause(err)
	}
	return string(data), nil
}

// DataCSV flattens a decoded JSON payload into CSV. A list of objects
// becomes a header taken from the first object plus one line per element,
// an object becomes Key,Value pairs, and a scalar is returned as its string
// form. Nested values are JSON-encoded into their cell.
func DataCSV(v any) (string, error) {
	switch data := v.(type) {
	case nil:
		return "null", nil
	case []any:
		return listCSV(data)
	case map[string]any:
		return objectCSV(data)
	default:
		return cell(v), nil
	}
}

func listCSV(items []any) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		lines := [][]string{{"value"}}
		for _, item := range items {
			lines = append(lines, []string{cell(item)})
		}
		return writeCSV(lines)
	}

	header := sortedKeys(first)
	lines := [][]string{header}
	for _, item := range items {
		obj, _ := item.(map[string]any)
		line := make([]string, len(header))
		for i, key := range header {
			line[i] = cell(obj[key])
		}
		lines = append(lines, line)
	}
	return writeCSV(lines)
}

func objectCSV(obj map[string]any) (string, error) {
	lines := [][]string{{"Key", "Value"}}
	for _, key := range sortedKeys(obj) {
		lines = append(lines, []string{key, cell(obj[key])})
	}
	return writeCSV(lines)
}

func writeCSV(lines [][]string) (string, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(lines); err != nil {
		return "", schema.NewError(schema.ErrCodeExport, "write csv").WithCause(err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
