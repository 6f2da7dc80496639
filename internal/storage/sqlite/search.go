package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/heuristics"
)

const defaultSearchLimit = 10

type SearchRepo struct {
	db *sql.DB
}

func NewSearchRepo(db *sql.DB) *SearchRepo {
	return &SearchRepo{db: db}
}

// Search runs a token LIKE match in SQL and ranks the candidates in Go:
// name hits weigh double, slug and body hits single.
func (r *SearchRepo) Search(ctx context.Context, query string, opts core.SearchOptions) (core.SearchResult, error) {
	tokens := heuristics.Tokenize(query)
	if len(tokens) == 0 {
		return core.SearchResult{}, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var conds []string
	var args []any
	if opts.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, opts.Category)
	}
	var tokenConds []string
	for _, tok := range tokens {
		like := "%" + tok + "%"
		tokenConds = append(tokenConds, "(name LIKE ? OR slug LIKE ? OR body LIKE ?)")
		args = append(args, like, like, like)
	}
	conds = append(conds, "("+strings.Join(tokenConds, " OR ")+")")

	rows, err := r.db.QueryContext(ctx,
		`SELECT path, name, slug, category, body FROM entries WHERE `+strings.Join(conds, " AND "),
		args...,
	)
	if err != nil {
		return core.SearchResult{}, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var hits []core.SearchHit
	for rows.Next() {
		var path, name, slug, category, body string
		if err := rows.Scan(&path, &name, &slug, &category, &body); err != nil {
			return core.SearchResult{}, err
		}
		score := rankEntry(tokens, name, slug, body)
		if score <= 0 {
			continue
		}
		hits = append(hits, core.SearchHit{
			Path:     path,
			Name:     name,
			Category: core.Category(category),
			Score:    score,
		})
	}
	if err := rows.Err(); err != nil {
		return core.SearchResult{}, err
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Path < hits[j].Path
	})

	total := len(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return core.SearchResult{Entries: hits, Total: total}, nil
}

func rankEntry(tokens []string, name, slug, body string) float64 {
	lname := strings.ToLower(name)
	lbody := strings.ToLower(body)
	var score float64
	for _, tok := range tokens {
		if strings.Contains(lname, tok) {
			score += 2
		}
		if strings.Contains(slug, tok) {
			score++
		}
		if strings.Contains(lbody, tok) {
			score++
		}
	}
	return score
}
