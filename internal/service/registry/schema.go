package registry

import "sort"

// Schema renders the tool's parameters as a JSON-Schema object, the
// shape both the agent prompt and the MCP surface expect.
func (t Tool) Schema() map[string]any {
	return schemaObject(t.Params)
}

func schemaObject(props map[string]Param) map[string]any {
	properties := make(map[string]any, len(props))
	var required []string

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := props[name]
		properties[name] = schemaParam(p)
		if p.Required {
			required = append(required, name)
		}
	}

	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func schemaParam(p Param) map[string]any {
	out := map[string]any{"type": p.Type}
	if p.Description != "" {
		out["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		enum := make([]any, len(p.Enum))
		for i, e := range p.Enum {
			enum[i] = e
		}
		out["enum"] = enum
	}
	if p.Type == TypeObject && len(p.Properties) > 0 {
		nested := schemaObject(p.Properties)
		out["properties"] = nested["properties"]
		if req, ok := nested["required"]; ok {
			out["required"] = req
		}
	}
	if p.Type == TypeArray && p.Items != nil {
		out["items"] = schemaParam(*p.Items)
	}
	return out
}
