package candidates

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"craftbrowser.ai/internal/craft/item"
	"craftbrowser.ai/internal/craft/recipe"
)

// Match is one search hit.
type Match struct {
	Recipe *recipe.Recipe
	Score  float64
}

// Search ranks recipes whose output id or display name resembles query.
// Exact hits score 1.0, prefix/substring hits 0.9, and small edit distances
// fall off from 0.72. Ties keep list order.
func Search(list []*recipe.Recipe, items *item.Registry, query string) []Match {
	q := normalize(query)
	if q == "" {
		return nil
	}
	var out []Match
	for _, r := range list {
		best := 0.0
		for _, name := range []string{r.Output.Item, items.DisplayName(r.Output.Item)} {
			if s := score(q, normalize(name)); s > best {
				best = s
			}
		}
		if best > 0 {
			out = append(out, Match{Recipe: r, Score: best})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func score(q, cand string) float64 {
	switch {
	case cand == "":
		return 0
	case q == cand:
		return 1.0
	case len(q) >= 2 && (strings.HasPrefix(cand, q) || strings.Contains(cand, q)):
		return 0.9
	}
	dist := levenshtein.ComputeDistance(q, cand)
	if dist > distanceLimit(len(cand)) {
		return 0
	}
	return 0.72 - 0.08*float64(dist)
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", " ")
}
