// Package recipes narrows and orders recipe lists that were already fetched.
package recipes

import (
	"slices"
	"strings"

	"github.com/layer-3/recipebook/core"
)

type SortOrder string

const (
	SortNone   SortOrder = ""
	SortAZ     SortOrder = "az"
	SortLatest SortOrder = "latest"
)

// Filter selects recipes. Zero fields do not filter.
type Filter struct {
	Search     string // case-insensitive substring of the title
	Difficulty core.Difficulty
	CookTime   core.CookTime
	Owner      string
	Sort       SortOrder
}

// Apply returns the recipes matching f in the requested order. list is not
// modified.
func Apply(list []core.Recipe, f Filter) []core.Recipe {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]core.Recipe, 0, len(list))
	for _, r := range list {
		if search != "" && !strings.Contains(strings.ToLower(r.Title), search) {
			continue
		}
		if f.Difficulty != "" && r.Difficulty != f.Difficulty {
			continue
		}
		if f.Owner != "" && r.Owner != f.Owner {
			continue
		}
		if !f.CookTime.Matches(r.CookTime) {
			continue
		}
		out = append(out, r)
	}

	switch f.Sort {
	case SortAZ:
		slices.SortStableFunc(out, func(a, b core.Recipe) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case SortLatest:
		slices.SortStableFunc(out, func(a, b core.Recipe) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}

	return out
}

// LikedRecipeIDs returns the recipe IDs referenced by likes, in order
func LikedRecipeIDs(likes []core.Like) []int {
	ids := make([]int, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.Recipe)
	}
	return ids
}

// ByIDs keeps the recipes whose ID is in ids
func ByIDs(list []core.Recipe, ids []int) []core.Recipe {
	out := make([]core.Recipe, 0, len(ids))
	for _, r := range list {
		if slices.Contains(ids, r.ID) {
			out = append(out, r)
		}
	}
	return out
}
