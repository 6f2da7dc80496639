// Package linker maintains cross-links from entries to the people and
// projects they mention.
package linker

import (
	"context"
	"fmt"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/heuristics"
	"github.com/sandevgo/quill/pkg/log"
)

type Service struct {
	store  core.EntryStore
	search core.Searcher
}

func New(store core.EntryStore, search core.Searcher) *Service {
	return &Service{store: store, search: search}
}

func (s *Service) LinkPeople(ctx context.Context, entry *core.Entry, names []string, channel core.Channel) error {
	return s.link(ctx, entry, names, core.CategoryPeople, channel)
}

func (s *Service) LinkProjects(ctx context.Context, entry *core.Entry, names []string, channel core.Channel) error {
	return s.link(ctx, entry, names, core.CategoryProjects, channel)
}

// link resolves each mentioned name to an existing entry in the
// category and records the path on the entry's relations. Names with no
// matching entry are skipped; linking never creates entries.
func (s *Service) link(ctx context.Context, entry *core.Entry, names []string, category core.Category, channel core.Channel) error {
	if len(names) == 0 {
		return nil
	}
	logger := log.FromCtx(ctx)

	have := map[string]struct{}{entry.Path: {}}
	for _, p := range entry.Related {
		have[p] = struct{}{}
	}

	related := entry.Related
	for _, name := range names {
		path, ok, err := s.resolveName(ctx, name, category)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", name, err)
		}
		if !ok {
			logger.Debug().Str("name", name).Str("category", string(category)).Msg("mention has no matching entry, skipping link")
			continue
		}
		if _, dup := have[path]; dup {
			continue
		}
		have[path] = struct{}{}
		related = append(related, path)
	}

	if len(related) == len(entry.Related) {
		return nil
	}

	updated, err := s.store.Update(ctx, entry.Path, core.EntryUpdate{Related: related}, channel)
	if err != nil {
		return fmt.Errorf("failed to record relations: %w", err)
	}
	entry.Related = updated.Related
	return nil
}

func (s *Service) resolveName(ctx context.Context, name string, category core.Category) (string, bool, error) {
	res, err := s.search.Search(ctx, name, core.SearchOptions{Category: category, Limit: 3})
	if err != nil {
		return "", false, err
	}
	nameTokens := heuristics.Tokenize(name)
	for _, hit := range res.Entries {
		hitTokens := heuristics.Tokenize(hit.Name)
		if heuristics.SameTokenSet(nameTokens, hitTokens) {
			return hit.Path, true, nil
		}
		// First-name mention of a known person still links.
		if category == core.CategoryPeople && heuristics.Overlap(nameTokens, hitTokens) == len(nameTokens) {
			return hit.Path, true, nil
		}
	}
	return "", false, nil
}
