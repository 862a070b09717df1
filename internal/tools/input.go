package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"ledgerkit/internal/core"
	"ledgerkit/internal/report"
)

const (
	defaultRangeMonths = 3
	maxSummaryMonths   = 60
	maxHistoryMonths   = 120
)

// Schema is the JSON schema advertised for a tool's arguments.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Default     any       `json:"default,omitempty"`
	Minimum     *int      `json:"minimum,omitempty"`
	Maximum     *int      `json:"maximum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

func object(props map[string]Property, required ...string) Schema {
	if props == nil {
		props = map[string]Property{}
	}
	return Schema{Type: "object", Properties: props, Required: required}
}

func stringProp(desc string) Property  { return Property{Type: "string", Description: desc} }
func numberProp(desc string) Property  { return Property{Type: "number", Description: desc} }
func boolProp(desc string) Property    { return Property{Type: "boolean", Description: desc} }
func integerProp(desc string) Property { return Property{Type: "integer", Description: desc} }

func monthsProp(desc string, def, hi int) Property {
	lo := 1
	return Property{Type: "integer", Description: desc, Default: def, Minimum: &lo, Maximum: &hi}
}

func arrayProp(desc string) Property {
	return Property{Type: "array", Description: desc, Items: &Property{Type: "object"}}
}

func invalidf(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, a...))
}

func decode(args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return invalidf("arguments must be a JSON object: %v", err)
	}
	return nil
}

func requireString(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidf("%s is required", field)
	}
	return nil
}

func checkDate(field, value string) error {
	if _, err := core.ParseDate(value); err != nil {
		return invalidf("%s: %v", field, err)
	}
	return nil
}

// dateRange fills in missing bounds: end defaults to today and start to
// three months before today.
func (r *Registry) dateRange(start, end string) (report.Period, error) {
	today := r.today()
	if start == "" {
		start = today.AddMonths(-defaultRangeMonths).String()
	}
	if end == "" {
		end = today.String()
	}
	if err := checkDate("startDate", start); err != nil {
		return report.Period{}, err
	}
	if err := checkDate("endDate", end); err != nil {
		return report.Period{}, err
	}
	if start > end {
		return report.Period{}, invalidf("startDate %s is after endDate %s", start, end)
	}
	return report.Period{Start: start, End: end}, nil
}

func monthsArg(value *int, def, hi int) (int, error) {
	if value == nil {
		return def, nil
	}
	if *value < 1 || *value > hi {
		return 0, invalidf("months must be between 1 and %d", hi)
	}
	return *value, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
