package executor

import (
	"context"
	"fmt"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/heuristics"
	"github.com/sandevgo/quill/pkg/log"
)

// updateEntry mutates a single entry. The destructive edge is the status
// field: an LLM-drafted status change the user never asked for silently
// completes or reopens work, so status changes pass an intent check
// before reaching storage.
func (e *Executor) updateEntry(ctx context.Context, args map[string]any, opts Options) (map[string]any, error) {
	path := argString(args, "path")
	upd, err := buildUpdate(args)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if upd.Status != nil && opts.Channel == core.ChannelChat && opts.Context != nil {
		w := e.guardStatusChange(ctx, path, args, &upd, opts)
		warnings = append(warnings, w...)
	}

	entry, err := e.deps.Store.Update(ctx, path, upd, opts.Channel)
	if core.IsKind(err, core.KindNotFound) {
		resolved, warning, rerr := e.resolveUpdateTarget(ctx, path, upd, opts)
		if rerr != nil {
			return nil, rerr
		}
		warnings = append(warnings, warning)
		entry, err = e.deps.Store.Update(ctx, resolved, upd, opts.Channel)
	}
	if err != nil {
		return nil, err
	}

	receipt, err := e.verifyUpdate(ctx, path, entry.Path, upd)
	if err != nil {
		return nil, err
	}

	return mutationData(entry, receipt, warnings), nil
}

// resolveUpdateTarget picks the resolution strategy: reopen requests
// search completed tasks, everything else goes through the generic
// search-based resolver.
func (e *Executor) resolveUpdateTarget(ctx context.Context, path string, upd core.EntryUpdate, opts Options) (string, string, error) {
	if upd.Status != nil && opts.Context != nil {
		if isReopenRequest(path, *upd.Status, opts.Context.LatestUserMessage()) {
			return e.resolveReopenTarget(ctx, path, opts)
		}
	}
	return e.resolveTarget(ctx, path, "", opts)
}

// guardStatusChange confirms a drafted status change against what the
// user actually said, via intent analysis with a text-heuristic
// fallback. It edits upd in place and returns user-facing warnings.
func (e *Executor) guardStatusChange(ctx context.Context, path string, args map[string]any, upd *core.EntryUpdate, opts Options) []string {
	requested := *upd.Status
	userMsg := opts.Context.LatestUserMessage()

	confirmed, confirmedStatus := e.statusIntent(ctx, path, args, userMsg)
	if confirmed {
		if confirmedStatus != "" && confirmedStatus != requested {
			upd.Status = &confirmedStatus
			return []string{fmt.Sprintf("Status changed to '%s' instead of '%s' to match your request.", confirmedStatus, requested)}
		}
		return nil
	}

	// No evidence the user asked for a status change: drop it, keep the
	// rest of the update.
	upd.Status = nil
	return []string{fmt.Sprintf("Ignored status change to '%s': your message did not ask for a status change.", requested)}
}

// statusIntent reports whether the user asked for a status change and,
// if the analysis could tell, which status. Intent analysis is
// authoritative when available; heuristics cover its failures.
func (e *Executor) statusIntent(ctx context.Context, path string, args map[string]any, userMsg string) (bool, string) {
	if e.deps.Intent != nil {
		intent, err := e.deps.Intent.AnalyzeUpdate(ctx, path, args, userMsg)
		if err == nil && intent != nil {
			return intent.StatusRequested, intent.Status
		}
		log.FromCtx(ctx).Debug().Err(err).Msg("intent analysis unavailable, falling back to text heuristics")
	}
	if status, ok := heuristics.RequestedStatus(userMsg); ok {
		return true, status
	}
	return false, ""
}

func (e *Executor) moveEntry(ctx context.Context, args map[string]any, opts Options) (map[string]any, error) {
	path := argString(args, "path")
	target := core.Category(argString(args, "target_category"))

	if core.PathCategory(path) == target {
		return nil, core.NewValidation(fmt.Sprintf("entry %s is already in category %s", path, target))
	}

	var warnings []string
	entry, err := e.deps.Store.Move(ctx, path, target, opts.Channel)
	if core.IsKind(err, core.KindNotFound) {
		// Exclude the destination category so resolution cannot land on
		// an entry that is already where the user wants this one to go.
		resolved, warning, rerr := e.resolveTarget(ctx, path, target, opts)
		if rerr != nil {
			return nil, rerr
		}
		warnings = append(warnings, warning)
		entry, err = e.deps.Store.Move(ctx, resolved, target, opts.Channel)
	}
	if err != nil {
		return nil, err
	}

	receipt, err := e.verifyMove(path, entry, target)
	if err != nil {
		return nil, err
	}

	return mutationData(entry, receipt, warnings), nil
}

func (e *Executor) deleteEntry(ctx context.Context, args map[string]any, opts Options) (map[string]any, error) {
	path := argString(args, "path")

	var warnings []string
	resolved := path
	err := e.deps.Store.Delete(ctx, path, opts.Channel)
	if core.IsKind(err, core.KindNotFound) {
		var warning string
		var rerr error
		resolved, warning, rerr = e.resolveTarget(ctx, path, "", opts)
		if rerr != nil {
			return nil, rerr
		}
		warnings = append(warnings, warning)
		err = e.deps.Store.Delete(ctx, resolved, opts.Channel)
	}
	if err != nil {
		return nil, err
	}

	receipt, err := e.verifyDelete(ctx, path, resolved)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"path":    resolved,
		"deleted": true,
		"receipt": receipt,
	}
	if len(warnings) > 0 {
		data["warnings"] = warnings
	}
	return data, nil
}

func (e *Executor) mergeEntries(ctx context.Context, args map[string]any, opts Options) (map[string]any, error) {
	targetPath := argString(args, "target_path")
	raw, _ := args["source_paths"].([]any)
	sources := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			sources = append(sources, s)
		}
	}
	if len(sources) == 0 {
		return nil, core.NewValidation("source_paths must contain at least one path")
	}
	for _, src := range sources {
		if src == targetPath {
			return nil, core.NewValidation("target_path cannot appear in source_paths")
		}
	}

	entry, err := e.deps.Store.Merge(ctx, targetPath, sources, opts.Channel)
	if err != nil {
		return nil, err
	}

	// Merge absorbs sources into the target; verify each source is gone
	// and the target survived.
	var checks []core.VerificationCheck
	checks = append(checks, core.VerificationCheck{
		Name:   "target_exists",
		Passed: entry != nil && entry.Path == targetPath,
	})
	for _, src := range sources {
		_, rerr := e.deps.Store.Read(ctx, src)
		check := core.VerificationCheck{Name: "source_removed:" + src}
		switch {
		case core.IsKind(rerr, core.KindNotFound):
			check.Passed = true
		case rerr != nil:
			check.Passed = true
			check.Note = "existence probe inconclusive: " + rerr.Error()
		default:
			check.Passed = false
		}
		checks = append(checks, check)
	}
	receipt := e.newReceipt(core.OpUpdate, targetPath, targetPath, checks)
	if !receipt.Verification.Verified {
		return nil, verificationError(receipt.Verification)
	}

	return mutationData(entry, receipt, nil), nil
}

// buildUpdate maps tool-call arguments onto the typed update. Absent
// keys stay nil so storage leaves those fields untouched.
func buildUpdate(args map[string]any) (core.EntryUpdate, error) {
	var upd core.EntryUpdate

	if v, ok := args["name"].(string); ok && v != "" {
		upd.Name = &v
	}
	if v, ok := args["status"].(string); ok && v != "" {
		upd.Status = &v
	}
	if v, ok := args["due_date"].(string); ok && v != "" {
		upd.DueDate = &v
	}
	if _, ok := args["priority"]; ok {
		p := argInt(args, "priority")
		upd.Priority = &p
	}
	if v, ok := args["fields"].(map[string]any); ok && len(v) > 0 {
		upd.Fields = v
	}
	if v, ok := args["related"].([]any); ok {
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				upd.Related = append(upd.Related, s)
			}
		}
	}
	if v, ok := args["body_content"].(map[string]any); ok {
		mode := core.BodyUpdateMode(argString(v, "mode"))
		bu := core.BodyUpdate{
			Mode:    mode,
			Content: argString(v, "content"),
			Section: argString(v, "section"),
		}
		if mode == core.BodySection && bu.Section == "" {
			return upd, core.NewValidation("body_content.section is required when mode is 'section'")
		}
		upd.Body = &bu
	}

	if upd.Name == nil && upd.Status == nil && upd.DueDate == nil &&
		upd.Priority == nil && upd.Fields == nil && upd.Related == nil && upd.Body == nil {
		return upd, core.NewValidation("update_entry requires at least one field to change")
	}
	return upd, nil
}

func mutationData(entry *core.Entry, receipt core.MutationReceipt, warnings []string) map[string]any {
	data := map[string]any{
		"entry":   entry,
		"path":    entry.Path,
		"receipt": receipt,
	}
	if len(warnings) > 0 {
		data["warnings"] = warnings
	}
	return data
}
