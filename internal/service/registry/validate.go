package registry

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Param types are the primitive shapes a schema field may declare.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Param is one declarative parameter schema node. Objects recurse via
// Properties, arrays via Items. Unknown extra fields are always
// permitted for forward compatibility.
type Param struct {
	Type         string
	Description  string
	Required     bool
	Enum         []string
	Properties   map[string]Param
	Items        *Param
	Conditionals []Conditional
}

// Conditional makes fields required only when a sibling field holds a
// specific value (e.g. body_content.section when mode = "section").
type Conditional struct {
	WhenField string
	Equals    string
	Require   []string
}

// ValidationResult reports schema validation. Pure data, no I/O.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateArguments checks a proposed call against the named tool's
// schema: existence, object-ness, required fields, per-field types,
// enum membership and nested object/array shapes.
func (r *Registry) ValidateArguments(name string, args map[string]any) ValidationResult {
	tool, ok := r.tools[name]
	if !ok {
		return ValidationResult{Errors: []string{fmt.Sprintf("unknown tool: %s", name)}}
	}
	if args == nil {
		args = map[string]any{}
	}

	var errs []string
	validateObject("", tool.Params, nil, args, &errs)

	if len(errs) > 0 {
		return ValidationResult{Errors: errs}
	}
	return ValidationResult{Valid: true}
}

func validateObject(prefix string, props map[string]Param, conds []Conditional, obj map[string]any, errs *[]string) {
	required := make(map[string]bool)
	for field, p := range props {
		if p.Required {
			required[field] = true
		}
	}
	for _, c := range conds {
		v, ok := obj[c.WhenField].(string)
		if ok && v == c.Equals {
			for _, f := range c.Require {
				required[f] = true
			}
		}
	}

	// Deterministic error order.
	fields := make([]string, 0, len(props))
	for f := range props {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		p := props[field]
		qualified := field
		if prefix != "" {
			qualified = prefix + "." + field
		}

		val, present := obj[field]
		if !present || val == nil {
			if required[field] {
				*errs = append(*errs, fmt.Sprintf("missing required field: %s", qualified))
			}
			continue
		}
		validateValue(qualified, p, val, errs)
	}
}

func validateValue(path string, p Param, val any, errs *[]string) {
	switch p.Type {
	case TypeString:
		s, ok := val.(string)
		if !ok {
			*errs = append(*errs, fmt.Sprintf("field %s must be a string", path))
			return
		}
		if len(p.Enum) > 0 && !inEnum(s, p.Enum) {
			*errs = append(*errs, fmt.Sprintf("field %s must be one of %v", path, p.Enum))
		}
	case TypeNumber:
		if !isNumber(val) {
			*errs = append(*errs, fmt.Sprintf("field %s must be a number", path))
		}
	case TypeBoolean:
		if _, ok := val.(bool); !ok {
			*errs = append(*errs, fmt.Sprintf("field %s must be a boolean", path))
		}
	case TypeObject:
		obj, ok := val.(map[string]any)
		if !ok {
			*errs = append(*errs, fmt.Sprintf("field %s must be an object", path))
			return
		}
		if len(p.Properties) > 0 {
			validateObject(path, p.Properties, p.Conditionals, obj, errs)
		}
	case TypeArray:
		arr, ok := val.([]any)
		if !ok {
			*errs = append(*errs, fmt.Sprintf("field %s must be an array", path))
			return
		}
		if p.Items != nil {
			for i, item := range arr {
				validateValue(fmt.Sprintf("%s[%d]", path, i), *p.Items, item, errs)
			}
		}
	default:
		*errs = append(*errs, fmt.Sprintf("field %s has unknown schema type %q", path, p.Type))
	}
}

func inEnum(s string, enum []string) bool {
	for _, e := range enum {
		if s == e {
			return true
		}
	}
	return false
}

func isNumber(val any) bool {
	switch v := val.(type) {
	case float64, float32, int, int32, int64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}
