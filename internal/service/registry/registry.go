// Package registry declares the fixed catalog of agent-callable actions
// and validates proposed calls against their schemas before any handler
// sees the arguments. Every action name and argument schema here is a
// public contract for prompts already instructed to call it.
package registry

import "github.com/sandevgo/quill/internal/core"

// Tool is one callable action with its declarative parameter schema.
type Tool struct {
	Name        string
	Description string
	Params      map[string]Param
}

// MutatingTools are the actions that write to the entry store. Only
// these are subject to the guardrail check on the chat channel.
var MutatingTools = map[string]bool{
	"classify_and_capture": true,
	"update_entry":         true,
	"move_entry":           true,
	"delete_entry":         true,
	"merge_entries":        true,
}

type Registry struct {
	tools map[string]Tool
	order []string
}

// New builds the registry with the full fixed catalog.
func New() *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range catalog() {
		r.tools[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns the catalog in declaration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// IsMutating reports whether the named action writes to storage.
func (r *Registry) IsMutating(name string) bool {
	return MutatingTools[name]
}

func statusEnum() []string {
	out := append([]string{}, core.ActiveTaskStatuses...)
	out = append(out, "someday", core.TaskStatusDone)
	return out
}

func categoryEnum() []string {
	out := make([]string, 0, len(core.ClassifiableCategories)+1)
	for _, c := range core.ClassifiableCategories {
		out = append(out, string(c))
	}
	return append(out, string(core.CategoryInbox))
}

func catalog() []Tool {
	categories := categoryEnum()

	return []Tool{
		{
			Name:        "classify_and_capture",
			Description: "Classify free text and file it into the knowledge base.",
			Params: map[string]Param{
				"text": {Type: TypeString, Required: true, Description: "Raw text to classify and capture."},
				"hints": {Type: TypeObject, Properties: map[string]Param{
					"category": {Type: TypeString, Enum: categories},
					"name":     {Type: TypeString},
				}},
			},
		},
		{
			Name:        "list_entries",
			Description: "List entries, optionally filtered by category and status.",
			Params: map[string]Param{
				"category": {Type: TypeString, Enum: categories},
				"status":   {Type: TypeString},
				"limit":    {Type: TypeNumber},
			},
		},
		{
			Name:        "get_entry",
			Description: "Read a single entry by path.",
			Params: map[string]Param{
				"path": {Type: TypeString, Required: true},
			},
		},
		{
			Name:        "generate_digest",
			Description: "Summarize recent knowledge-base activity.",
			Params: map[string]Param{
				"period": {Type: TypeString, Enum: []string{"daily", "weekly"}},
			},
		},
		{
			Name:        "update_entry",
			Description: "Update fields or body content of an existing entry.",
			Params: map[string]Param{
				"path":     {Type: TypeString, Required: true},
				"name":     {Type: TypeString, Description: "New display name."},
				"status":   {Type: TypeString, Enum: statusEnum()},
				"due_date": {Type: TypeString, Description: "Due date, YYYY-MM-DD."},
				"priority": {Type: TypeNumber},
				"related": {
					Type:        TypeArray,
					Items:       &Param{Type: TypeString},
					Description: "Paths of related entries.",
				},
				"fields": {Type: TypeObject},
				"body_content": {
					Type: TypeObject,
					Properties: map[string]Param{
						"mode":    {Type: TypeString, Required: true, Enum: []string{"append", "replace", "section"}},
						"content": {Type: TypeString, Required: true},
						"section": {Type: TypeString},
					},
					Conditionals: []Conditional{
						{WhenField: "mode", Equals: "section", Require: []string{"section"}},
					},
				},
			},
		},
		{
			Name:        "move_entry",
			Description: "Move an entry to another category.",
			Params: map[string]Param{
				"path":            {Type: TypeString, Required: true},
				"target_category": {Type: TypeString, Required: true, Enum: categories},
			},
		},
		{
			Name:        "search_entries",
			Description: "Search entries by free-text query.",
			Params: map[string]Param{
				"query":    {Type: TypeString, Required: true},
				"category": {Type: TypeString, Enum: categories},
				"limit":    {Type: TypeNumber},
			},
		},
		{
			Name:        "delete_entry",
			Description: "Delete an entry by path.",
			Params: map[string]Param{
				"path": {Type: TypeString, Required: true},
			},
		},
		{
			Name:        "find_duplicates",
			Description: "Find likely duplicate entries.",
			Params: map[string]Param{
				"category": {Type: TypeString, Enum: categories},
			},
		},
		{
			Name:        "merge_entries",
			Description: "Merge source entries into a target entry.",
			Params: map[string]Param{
				"target_path": {Type: TypeString, Required: true},
				"source_paths": {
					Type: TypeArray, Required: true,
					Items: &Param{Type: TypeString},
				},
			},
		},
	}
}
