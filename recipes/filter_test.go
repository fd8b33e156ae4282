package recipes

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/layer-3/recipebook/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtures() []core.Recipe {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []core.Recipe{
		{ID: 1, Owner: "alice", Title: "Pancakes", CookTime: 20, Difficulty: core.DifficultyEasy, CreatedAt: base},
		{ID: 2, Owner: "bob", Title: "beef Wellington", CookTime: 120, Difficulty: core.DifficultyHard, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 3, Owner: "alice", Title: "Apple pie", CookTime: 60, Difficulty: core.DifficultyMedium, CreatedAt: base.Add(time.Hour)},
		{ID: 4, Owner: "alice", Title: "Pasta", CookTime: 30, Difficulty: core.DifficultyEasy, CreatedAt: base.Add(3 * time.Hour)},
	}
}

func ids(list []core.Recipe) []int {
	out := make([]int, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{name: "no filter", filter: Filter{}, want: []int{1, 2, 3, 4}},
		{name: "search is case-insensitive", filter: Filter{Search: "PA"}, want: []int{1, 4}},
		{name: "difficulty", filter: Filter{Difficulty: core.DifficultyEasy}, want: []int{1, 4}},
		{name: "quick includes 30", filter: Filter{CookTime: core.CookTimeQuick}, want: []int{1, 4}},
		{name: "long includes 60", filter: Filter{CookTime: core.CookTimeLong}, want: []int{2, 3}},
		{name: "owner", filter: Filter{Owner: "bob"}, want: []int{2}},
		{name: "az", filter: Filter{Sort: SortAZ}, want: []int{3, 2, 1, 4}},
		{name: "latest", filter: Filter{Sort: SortLatest}, want: []int{4, 2, 3, 1}},
		{name: "combined", filter: Filter{Owner: "alice", CookTime: core.CookTimeQuick, Sort: SortLatest}, want: []int{4, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Apply(fixtures(), tc.filter)))
		})
	}
}

func TestApply_DifficultyFromAPI(t *testing.T) {
	var list []core.Recipe
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":1,"title":"Pancakes","difficulty":"Easy","cook_time":15},
		{"id":2,"title":"Souffle","difficulty":"Hard","cook_time":45}
	]`), &list))

	assert.Equal(t, []int{1}, ids(Apply(list, Filter{Difficulty: core.DifficultyEasy})))
	assert.Equal(t, []int{2}, ids(Apply(list, Filter{Difficulty: core.DifficultyHard})))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	list := fixtures()
	_ = Apply(list, Filter{Sort: SortAZ})
	assert.Equal(t, []int{1, 2, 3, 4}, ids(list))
}

func TestLikedRecipes(t *testing.T) {
	likes := []core.Like{{ID: 9, Recipe: 3}, {ID: 10, Recipe: 1}}
	liked := LikedRecipeIDs(likes)
	assert.Equal(t, []int{3, 1}, liked)
	assert.Equal(t, []int{1, 3}, ids(ByIDs(fixtures(), liked)))
}
