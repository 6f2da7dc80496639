package executor

import (
	"context"
	"fmt"
	"sort"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/heuristics"
	"github.com/sandevgo/quill/pkg/log"
)

// resolveLimit bounds search fan-out per candidate query.
const resolveLimit = 5

// userWindow is how many trailing user messages candidates are mined from.
const userWindow = 3

type scoredHit struct {
	hit   core.SearchHit
	score int
}

// resolveTarget finds the entry a stale, mistyped or conversationally
// implied path was meant to identify. Chat channel with user messages
// only; everything else propagates not-found.
func (e *Executor) resolveTarget(ctx context.Context, requestedPath string, exclude core.Category, opts Options) (string, string, error) {
	if opts.Channel != core.ChannelChat || opts.Context == nil {
		return "", "", core.NewNotFound(requestedPath)
	}

	userMsgs := opts.Context.UserMessages()
	if len(userMsgs) == 0 {
		return "", "", core.NewNotFound(requestedPath)
	}
	if len(userMsgs) > userWindow {
		userMsgs = userMsgs[len(userMsgs)-userWindow:]
	}

	queries := candidateQueries(userMsgs, requestedPath)
	if len(queries) == 0 {
		return "", "", core.NewNotFound(requestedPath)
	}

	reqTokens := heuristics.Tokenize(requestedPath)
	var userTokens []string
	for _, m := range userMsgs {
		userTokens = append(userTokens, heuristics.Tokenize(m)...)
	}

	// Merge per-candidate results by path, keeping the best score per
	// path. Queries run sequentially for deterministic merge order.
	best := map[string]scoredHit{}
	for _, q := range queries {
		res, err := e.deps.Search.Search(ctx, q, core.SearchOptions{Limit: resolveLimit})
		if err != nil {
			log.FromCtx(ctx).Debug().Err(err).Str("query", q).Msg("resolution search failed")
			continue
		}
		qTokens := heuristics.Tokenize(q)
		for _, hit := range res.Entries {
			// Skip the category the user is moving *to*; that would
			// match the destination instead of the thing being moved.
			if exclude != "" && hit.Category == exclude {
				continue
			}
			score := scoreHit(hit, qTokens, reqTokens, userTokens)
			if score <= 0 {
				continue
			}
			if prev, ok := best[hit.Path]; !ok || score > prev.score {
				best[hit.Path] = scoredHit{hit: hit, score: score}
			}
		}
	}

	if len(best) == 0 {
		return "", "", core.NewNotFound(requestedPath)
	}

	ranked := rankHits(best)

	if len(ranked) > 1 && ranked[0].score == ranked[1].score {
		return "", "", ambiguousError(ranked)
	}

	winner := ranked[0].hit
	warning := fmt.Sprintf("Requested path was not found. Used matching entry '%s' (%s).", winner.Name, winner.Path)
	return winner.Path, warning, nil
}

// candidateQueries mines the query set: quoted phrases verbatim,
// command-phrasing targets, and a slug-derived fallback from the
// requested path itself.
func candidateQueries(userMsgs []string, requestedPath string) []string {
	var queries []string
	seen := map[string]struct{}{}
	add := func(q string) {
		if q == "" {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	for _, msg := range userMsgs {
		for _, q := range heuristics.QuotedPhrases(msg) {
			add(q)
		}
		for _, q := range heuristics.CommandTargets(msg) {
			add(q)
		}
	}
	add(heuristics.SlugPhrase(requestedPath))

	return queries
}

// scoreHit implements the token-overlap heuristic: name/query overlap
// weighs triple, path and broader-message overlap single, plus a bonus
// for an exact full-token match.
func scoreHit(hit core.SearchHit, qTokens, reqPathTokens, userTokens []string) int {
	nameTokens := heuristics.Tokenize(hit.Name)
	pathTokens := heuristics.Tokenize(hit.Path)

	score := 3*heuristics.Overlap(nameTokens, qTokens) +
		heuristics.Overlap(pathTokens, reqPathTokens) +
		heuristics.Overlap(nameTokens, userTokens)
	if heuristics.SameTokenSet(nameTokens, qTokens) {
		score += 3
	}
	return score
}

func rankHits(best map[string]scoredHit) []scoredHit {
	ranked := make([]scoredHit, 0, len(best))
	for _, s := range best {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].hit.Path < ranked[j].hit.Path
	})
	return ranked
}

// ambiguousError lists up to 3 named options instead of guessing.
func ambiguousError(ranked []scoredHit) error {
	limit := 3
	if len(ranked) < limit {
		limit = len(ranked)
	}
	options := make([]string, 0, limit)
	for _, s := range ranked[:limit] {
		options = append(options, fmt.Sprintf("'%s' (%s)", s.hit.Name, s.hit.Path))
	}
	return core.NewAmbiguous(options)
}

// resolveReopenTarget handles "reopen a completed task": when an update
// targets a missing task path, the requested transition is active-like,
// and the wording suggests reopening, search completed tasks with the
// same scoring and retry against a unique match.
func (e *Executor) resolveReopenTarget(ctx context.Context, requestedPath string, opts Options) (string, string, error) {
	done, err := e.deps.Store.List(ctx, core.ListFilter{
		Category: core.CategoryTask,
		Status:   core.TaskStatusDone,
	})
	if err != nil || len(done) == 0 {
		return "", "", core.NewNotFound(requestedPath)
	}

	userMsgs := opts.Context.UserMessages()
	if len(userMsgs) > userWindow {
		userMsgs = userMsgs[len(userMsgs)-userWindow:]
	}
	queries := candidateQueries(userMsgs, requestedPath)
	reqTokens := heuristics.Tokenize(requestedPath)
	var userTokens []string
	for _, m := range userMsgs {
		userTokens = append(userTokens, heuristics.Tokenize(m)...)
	}

	best := map[string]scoredHit{}
	for _, entry := range done {
		hit := core.SearchHit{Path: entry.Path, Name: entry.Name, Category: entry.Category}
		for _, q := range queries {
			score := scoreHit(hit, heuristics.Tokenize(q), reqTokens, userTokens)
			if score <= 0 {
				continue
			}
			if prev, ok := best[hit.Path]; !ok || score > prev.score {
				best[hit.Path] = scoredHit{hit: hit, score: score}
			}
		}
	}

	if len(best) == 0 {
		return "", "", core.NewNotFound(requestedPath)
	}

	ranked := rankHits(best)
	if len(ranked) > 1 && ranked[0].score == ranked[1].score {
		return "", "", ambiguousError(ranked)
	}

	winner := ranked[0].hit
	warning := fmt.Sprintf("Requested path was not found. Reopening completed task '%s' (%s).", winner.Name, winner.Path)
	return winner.Path, warning, nil
}

// isReopenRequest: the requested transition moves a task back to an
// active-like state and the user's wording suggests reopening.
func isReopenRequest(requestedPath, requestedStatus, userMessage string) bool {
	category := core.PathCategory(requestedPath)
	if category != core.CategoryTask && category != "admin" {
		return false
	}
	active := false
	for _, s := range core.ActiveTaskStatuses {
		if requestedStatus == s {
			active = true
			break
		}
	}
	return active && heuristics.SuggestsReopen(userMessage)
}
