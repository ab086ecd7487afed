// Package fuzzy ranks project records against a query string.
//
// Matching is subsequence-based: every query character must appear in
// order, case-insensitively, in the target. Scoring uses fzf-style tiers
// (exact, prefix, contains) above plain subsequence scoring with
// consecutive-run and word-boundary bonuses. Ranking is deterministic and
// stable for equal scores.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"

	"github.com/vanderheijden86/projector/pkg/registry"
)

// Score returns how well query matches target (0 = no match).
func Score(target, query string) int {
	target = strings.ToLower(target)
	query = strings.ToLower(query)

	// Exact match gets highest score
	if target == query {
		return 1000
	}

	// Prefix match gets high score
	if strings.HasPrefix(target, query) {
		return 500 + len(query)
	}

	// Contains match
	if strings.Contains(target, query) {
		return 200 + len(query)
	}

	// Fuzzy subsequence match
	ti, qi := 0, 0
	score := 0
	consecutive := 0
	lastMatchIdx := -1

	for ti < len(target) && qi < len(query) {
		if target[ti] == query[qi] {
			qi++
			matchScore := 10

			// Bonus for consecutive matches
			if lastMatchIdx == ti-1 {
				consecutive++
				matchScore += consecutive * 5
			} else {
				consecutive = 0
			}

			// Bonus for word boundary match
			if ti == 0 || !unicode.IsLetter(rune(target[ti-1])) {
				matchScore += 15
			}

			score += matchScore
			lastMatchIdx = ti
		}
		ti++
	}

	// Only count as match if all query chars were found
	if qi == len(query) {
		return score
	}
	return 0
}

// Match scores a record against a query, taking the better of the label
// and path scores. An empty query matches everything with score 0.
func Match(query string, rec registry.ProjectRecord) (int, bool) {
	if query == "" {
		return 0, true
	}
	labelScore := Score(rec.Label, query)
	pathScore := Score(rec.Path, query)
	best := labelScore
	if pathScore > best {
		best = pathScore
	}
	return best, best > 0
}

// Rank returns the filtered, ordered view for a query.
//
// Empty query: all records, (pinned desc, last opened desc, path asc).
// Non-empty: matching records only, (pinned desc, score desc, last opened
// desc, path asc). Non-matching records are excluded.
func Rank(query string, records []registry.ProjectRecord) []registry.ProjectRecord {
	query = strings.TrimSpace(query)

	type scored struct {
		rec   registry.ProjectRecord
		score int
	}
	matches := make([]scored, 0, len(records))
	for _, rec := range records {
		score, ok := Match(query, rec)
		if !ok {
			continue
		}
		matches = append(matches, scored{rec, score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.rec.Pinned != b.rec.Pinned {
			return a.rec.Pinned
		}
		if a.score != b.score {
			return a.score > b.score
		}
		if a.rec.LastOpened != b.rec.LastOpened {
			return a.rec.LastOpened > b.rec.LastOpened
		}
		return a.rec.Path < b.rec.Path
	})

	out := make([]registry.ProjectRecord, len(matches))
	for i, m := range matches {
		out[i] = m.rec
	}
	return out
}
