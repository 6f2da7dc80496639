package registry

import (
	"strings"
	"testing"
)

func TestCatalogFixed(t *testing.T) {
	r := New()

	want := []string{
		"classify_and_capture", "list_entries", "get_entry", "generate_digest",
		"update_entry", "move_entry", "search_entries", "delete_entry",
		"find_duplicates", "merge_entries",
	}

	all := r.All()
	if len(all) != len(want) {
		t.Fatalf("catalog size = %d, want %d", len(all), len(want))
	}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("catalog[%d] = %s, want %s", i, all[i].Name, name)
		}
		if _, ok := r.Get(name); !ok {
			t.Errorf("Get(%s) not found", name)
		}
	}
}

// The update_entry schema is rendered into the agent prompt and the MCP
// tool listing, so every field the update handler consumes must be
// declared here or callers never learn it exists.
func TestUpdateEntryDeclaresAllUpdatableFields(t *testing.T) {
	tool, ok := New().Get("update_entry")
	if !ok {
		t.Fatal("update_entry missing from catalog")
	}

	for _, field := range []string{"path", "name", "status", "due_date", "priority", "related", "fields", "body_content"} {
		if _, ok := tool.Params[field]; !ok {
			t.Errorf("update_entry schema does not declare %q", field)
		}
	}
	if len(tool.Params["status"].Enum) == 0 {
		t.Error("status should carry its enum")
	}
}

func TestIsMutating(t *testing.T) {
	r := New()

	mutating := []string{"classify_and_capture", "update_entry", "move_entry", "delete_entry", "merge_entries"}
	readonly := []string{"list_entries", "get_entry", "generate_digest", "search_entries", "find_duplicates"}

	for _, name := range mutating {
		if !r.IsMutating(name) {
			t.Errorf("IsMutating(%s) = false, want true", name)
		}
	}
	for _, name := range readonly {
		if r.IsMutating(name) {
			t.Errorf("IsMutating(%s) = true, want false", name)
		}
	}
}

// Every registered action validated against an empty object must report
// exactly its declared required fields as missing.
func TestValidateEmptyArgsReportsRequired(t *testing.T) {
	r := New()

	wantMissing := map[string][]string{
		"classify_and_capture": {"text"},
		"list_entries":         nil,
		"get_entry":            {"path"},
		"generate_digest":      nil,
		"update_entry":         {"path"},
		"move_entry":           {"path", "target_category"},
		"search_entries":       {"query"},
		"delete_entry":         {"path"},
		"find_duplicates":      nil,
		"merge_entries":        {"source_paths", "target_path"},
	}

	for _, tool := range r.All() {
		missing := wantMissing[tool.Name]
		res := r.ValidateArguments(tool.Name, map[string]any{})

		if len(missing) == 0 {
			if !res.Valid {
				t.Errorf("%s: empty args invalid: %v", tool.Name, res.Errors)
			}
			continue
		}

		if res.Valid {
			t.Errorf("%s: empty args valid, want missing %v", tool.Name, missing)
			continue
		}
		if len(res.Errors) != len(missing) {
			t.Errorf("%s: errors = %v, want %d missing-field errors", tool.Name, res.Errors, len(missing))
			continue
		}
		for i, field := range missing {
			if !strings.Contains(res.Errors[i], field) {
				t.Errorf("%s: error %q does not mention %s", tool.Name, res.Errors[i], field)
			}
		}
	}
}

func TestValidateArguments(t *testing.T) {
	r := New()

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		valid   bool
		errHint string
	}{
		{
			name: "unknown_tool",
			tool: "forget_everything",
			args: map[string]any{}, valid: false, errHint: "unknown tool",
		},
		{
			name:  "capture_ok",
			tool:  "classify_and_capture",
			args:  map[string]any{"text": "met Anna from Acme"},
			valid: true,
		},
		{
			name:    "capture_text_wrong_type",
			tool:    "classify_and_capture",
			args:    map[string]any{"text": 42},
			valid:   false,
			errHint: "must be a string",
		},
		{
			name:  "capture_hints_nested",
			tool:  "classify_and_capture",
			args:  map[string]any{"text": "x", "hints": map[string]any{"category": "people", "name": "Anna"}},
			valid: true,
		},
		{
			name:    "capture_hints_bad_enum",
			tool:    "classify_and_capture",
			args:    map[string]any{"text": "x", "hints": map[string]any{"category": "misc"}},
			valid:   false,
			errHint: "hints.category",
		},
		{
			name:  "unknown_extra_fields_permitted",
			tool:  "get_entry",
			args:  map[string]any{"path": "task/fix-boiler", "verbose": true},
			valid: true,
		},
		{
			name: "update_scalar_fields",
			tool: "update_entry",
			args: map[string]any{
				"path": "task/x", "name": "Fix the boiler", "status": "waiting",
				"due_date": "2026-09-05", "priority": float64(2), "related": []any{"people/bob"},
			},
			valid: true,
		},
		{
			name:    "update_status_bad_enum",
			tool:    "update_entry",
			args:    map[string]any{"path": "task/x", "status": "finished"},
			valid:   false,
			errHint: "status",
		},
		{
			name:  "update_body_append",
			tool:  "update_entry",
			args:  map[string]any{"path": "task/x", "body_content": map[string]any{"mode": "append", "content": "note"}},
			valid: true,
		},
		{
			name:    "update_body_bad_mode",
			tool:    "update_entry",
			args:    map[string]any{"path": "task/x", "body_content": map[string]any{"mode": "prepend", "content": "note"}},
			valid:   false,
			errHint: "body_content.mode",
		},
		{
			name:    "update_body_section_requires_section",
			tool:    "update_entry",
			args:    map[string]any{"path": "task/x", "body_content": map[string]any{"mode": "section", "content": "note"}},
			valid:   false,
			errHint: "body_content.section",
		},
		{
			name: "update_body_section_ok",
			tool: "update_entry",
			args: map[string]any{"path": "task/x", "body_content": map[string]any{
				"mode": "section", "content": "note", "section": "Log",
			}},
			valid: true,
		},
		{
			name:    "move_bad_target",
			tool:    "move_entry",
			args:    map[string]any{"path": "task/x", "target_category": "junk"},
			valid:   false,
			errHint: "target_category",
		},
		{
			name:  "merge_ok",
			tool:  "merge_entries",
			args:  map[string]any{"target_path": "people/anna", "source_paths": []any{"people/anna-2"}},
			valid: true,
		},
		{
			name:    "merge_source_item_type",
			tool:    "merge_entries",
			args:    map[string]any{"target_path": "people/anna", "source_paths": []any{"people/anna-2", 7}},
			valid:   false,
			errHint: "source_paths[1]",
		},
		{
			name:  "limit_accepts_float_and_int",
			tool:  "search_entries",
			args:  map[string]any{"query": "boiler", "limit": float64(5)},
			valid: true,
		},
		{
			name:    "limit_rejects_string",
			tool:    "list_entries",
			args:    map[string]any{"limit": "5"},
			valid:   false,
			errHint: "must be a number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.ValidateArguments(tt.tool, tt.args)
			if res.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v (errors: %v)", res.Valid, tt.valid, res.Errors)
			}
			if tt.errHint != "" {
				found := false
				for _, e := range res.Errors {
					if strings.Contains(e, tt.errHint) {
						found = true
					}
				}
				if !found {
					t.Errorf("errors %v do not mention %q", res.Errors, tt.errHint)
				}
			}
		})
	}
}
