package insights

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const filterSchemaName = "insights_filters.json"

// filterSchema checks shapes and category tokens. Unknown date ranges are
// accepted and scale by 1.
const filterSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "date_range": {"type": "string", "maxLength": 32},
    "categories": {
      "type": "array",
      "maxItems": 16,
      "items": {"enum": ["all", "sales", "marketing", "operations", "support"]}
    }
  }
}`

// FilterValidator validates filter payloads submitted by transports.
type FilterValidator struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// NewFilterValidator builds a validator backed by jsonschema v5.
func NewFilterValidator() *FilterValidator {
	return &FilterValidator{}
}

// Validate checks a decoded JSON payload.
func (v *FilterValidator) Validate(payload map[string]any) error {
	schema, err := v.compiled()
	if err != nil {
		return err
	}
	if payload == nil {
		payload = map[string]any{}
	}
	lowerCategories(payload)
	normalized, err := normalizePayload(payload)
	if err != nil {
		return err
	}
	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}
	return nil
}

// Decode validates raw JSON and converts it into a FilterSelection. Missing
// fields fall back to the defaults.
func (v *FilterValidator) Decode(raw []byte) (FilterSelection, error) {
	var payload map[string]any
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return FilterSelection{}, fmt.Errorf("%w: %v", ErrInvalidFilters, err)
		}
	}
	if err := v.Validate(payload); err != nil {
		return FilterSelection{}, err
	}
	selection := DefaultSelection()
	if r, ok := payload["date_range"].(string); ok && r != "" {
		selection.DateRange = DateRange(r)
	}
	if list, ok := payload["categories"].([]any); ok {
		tokens := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				tokens = append(tokens, s)
			}
		}
		if len(tokens) == 0 {
			tokens = []string{AllCategories}
		}
		selection.Categories = tokens
	}
	return selection, nil
}

func (v *FilterValidator) compiled() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(filterSchemaName, strings.NewReader(filterSchema)); err != nil {
			v.err = fmt.Errorf("insights: load filter schema: %w", err)
			return
		}
		v.schema, v.err = compiler.Compile(filterSchemaName)
		if v.err != nil {
			v.err = fmt.Errorf("insights: compile filter schema: %w", v.err)
		}
	})
	return v.schema, v.err
}

// lowerCategories folds category tokens in place so "Sales" matches "sales".
func lowerCategories(payload map[string]any) {
	switch list := payload["categories"].(type) {
	case []any:
		for i, item := range list {
			if s, ok := item.(string); ok {
				list[i] = strings.ToLower(strings.TrimSpace(s))
			}
		}
	case []string:
		for i, s := range list {
			list[i] = strings.ToLower(strings.TrimSpace(s))
		}
	}
}

// normalizePayload round-trips through JSON so Go-typed values validate the
// same way decoded ones do.
func normalizePayload(payload map[string]any) (any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}
	return out, nil
}
