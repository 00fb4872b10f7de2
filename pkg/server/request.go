package server

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/codexrender/pkg/pipeline"
	"github.com/matzehuels/codexrender/pkg/render/template"
)

// Issue is one field-level problem with a request body.
type Issue struct {
	Code    string   `json:"code"`
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// parseRenderRequest decodes a POST /render body over defaults. It reports
// every problem it finds rather than stopping at the first.
func parseRenderRequest(body []byte, defaults pipeline.Config) (pipeline.Config, []Issue) {
	cfg := defaults
	cfg.EntryID = ""

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return cfg, []Issue{{Code: "invalid_type", Path: []string{}, Message: "Expected object"}}
	}

	var issues []Issue
	invalidType := func(field, want string, raw json.RawMessage) {
		issues = append(issues, Issue{
			Code:    "invalid_type",
			Path:    []string{field},
			Message: fmt.Sprintf("Expected %s, received %s", want, jsonKind(raw)),
		})
	}

	if raw, ok := fields["entryId"]; !ok || isNull(raw) {
		issues = append(issues, Issue{Code: "invalid_type", Path: []string{"entryId"}, Message: "Required"})
	} else if err := json.Unmarshal(raw, &cfg.EntryID); err != nil {
		invalidType("entryId", "string", raw)
	}

	if raw, ok := fields["template"]; ok && !isNull(raw) {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			invalidType("template", "string", raw)
		} else if !template.Valid(name) {
			issues = append(issues, Issue{
				Code:    "invalid_enum_value",
				Path:    []string{"template"},
				Message: fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", quoteNames(template.Names()), name),
			})
		} else {
			cfg.Template = name
		}
	}

	for _, dim := range []struct {
		field string
		dst   *int
	}{
		{"width", &cfg.Width},
		{"height", &cfg.Height},
	} {
		raw, ok := fields[dim.field]
		if !ok || isNull(raw) {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			invalidType(dim.field, "number", raw)
			continue
		}
		if v != math.Trunc(v) {
			issues = append(issues, Issue{Code: "invalid_type", Path: []string{dim.field}, Message: "Expected integer, received float"})
			continue
		}
		if v <= 0 || v > pipeline.MaxDimension {
			issues = append(issues, Issue{
				Code:    "out_of_range",
				Path:    []string{dim.field},
				Message: fmt.Sprintf("Number must be between 1 and %d", pipeline.MaxDimension),
			})
			continue
		}
		*dim.dst = int(v)
	}

	if raw, ok := fields["watermark"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &cfg.Watermark); err != nil {
			invalidType("watermark", "boolean", raw)
		}
	}

	return cfg, issues
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// jsonKind names the JSON type of raw the way validation messages do.
func jsonKind(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return "undefined"
	}
	switch s[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func quoteNames(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, " | ")
}
