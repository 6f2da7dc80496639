package executor

import (
	"context"
	"sort"
	"strings"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/heuristics"
)

const defaultListLimit = 50

func (e *Executor) listEntries(ctx context.Context, args map[string]any) (map[string]any, error) {
	filter := core.ListFilter{
		Category: core.Category(argString(args, "category")),
		Status:   argString(args, "status"),
		Limit:    argInt(args, "limit"),
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}

	entries, err := e.deps.Store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"entries": entries,
		"count":   len(entries),
	}, nil
}

func (e *Executor) getEntry(ctx context.Context, args map[string]any) (map[string]any, error) {
	entry, err := e.deps.Store.Read(ctx, argString(args, "path"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"entry": entry}, nil
}

func (e *Executor) searchEntries(ctx context.Context, args map[string]any) (map[string]any, error) {
	opts := core.SearchOptions{
		Category: core.Category(argString(args, "category")),
		Limit:    argInt(args, "limit"),
	}
	res, err := e.deps.Search.Search(ctx, argString(args, "query"), opts)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"entries": res.Entries,
		"total":   res.Total,
	}, nil
}

func (e *Executor) generateDigest(ctx context.Context, args map[string]any) (map[string]any, error) {
	period := argString(args, "period")
	if period == "" {
		period = "daily"
	}
	digest, err := e.deps.Digest.Build(ctx, period)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"period": period,
		"digest": digest,
	}, nil
}

// findDuplicates groups entries whose names collapse to the same token
// set, which catches retitled duplicates ("Call Bob" vs "call bob!")
// without an LLM round trip.
func (e *Executor) findDuplicates(ctx context.Context, args map[string]any) (map[string]any, error) {
	filter := core.ListFilter{Category: core.Category(argString(args, "category"))}
	entries, err := e.deps.Store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	groups := map[string][]core.Entry{}
	for _, entry := range entries {
		tokens := heuristics.Tokenize(entry.Name)
		if len(tokens) == 0 {
			continue
		}
		sort.Strings(tokens)
		key := string(entry.Category) + "|" + strings.Join(tokens, " ")
		groups[key] = append(groups[key], entry)
	}

	keys := make([]string, 0, len(groups))
	for k, g := range groups {
		if len(g) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	duplicates := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		group := groups[k]
		paths := make([]string, 0, len(group))
		for _, entry := range group {
			paths = append(paths, entry.Path)
		}
		duplicates = append(duplicates, map[string]any{
			"name":  group[0].Name,
			"paths": paths,
		})
	}

	return map[string]any{
		"duplicates": duplicates,
		"count":      len(duplicates),
	}, nil
}
