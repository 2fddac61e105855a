package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ranksOf(ranked []Ranked) []int {
	ranks := make([]int, 0, len(ranked))
	for _, r := range ranked {
		if r.Rank == nil {
			ranks = append(ranks, 0)
		} else {
			ranks = append(ranks, *r.Rank)
		}
	}
	return ranks
}

func idsOf(ranked []Ranked) []int {
	ids := make([]int, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.Id)
	}
	return ids
}

func TestRankLeavesGapsAfterTies(t *testing.T) {
	entries := []Entry{
		{Id: 1, Value: 10},
		{Id: 2, Value: 10},
		{Id: 3, Value: 8},
		{Id: 4, Value: 5},
	}
	ranked := Rank(entries, Desc)
	assert.Equal(t, []int{1, 1, 3, 4}, ranksOf(ranked))
}

func TestRankThreeWayTie(t *testing.T) {
	entries := []Entry{
		{Id: 1, Value: 7},
		{Id: 2, Value: 7},
		{Id: 3, Value: 7},
		{Id: 4, Value: 6},
	}
	ranked := Rank(entries, Desc)
	assert.Equal(t, []int{1, 1, 1, 4}, ranksOf(ranked))
}

func TestRankAscendingOrder(t *testing.T) {
	entries := []Entry{
		{Id: 1, Value: 2.5},
		{Id: 2, Value: 1.0},
		{Id: 3, Value: 1.5},
	}
	ranked := Rank(entries, Asc)
	assert.Equal(t, []int{2, 3, 1}, idsOf(ranked))
	assert.Equal(t, []int{1, 2, 3}, ranksOf(ranked))
}

func TestRankExcludesUnscoredEntries(t *testing.T) {
	entries := []Entry{
		{Id: 1, Value: 0},
		{Id: 2, Value: 4},
		{Id: 3, Value: -1},
		{Id: 4, Value: 9},
	}
	ranked := Rank(entries, Desc)
	assert.Equal(t, []int{4, 2, 1, 3}, idsOf(ranked))
	assert.Equal(t, []int{1, 2, 0, 0}, ranksOf(ranked))
	assert.Nil(t, ranked[2].Rank)
	assert.Nil(t, ranked[3].Rank)
}

func TestRankAllUnscored(t *testing.T) {
	entries := []Entry{
		{Id: 1, Value: 0},
		{Id: 2, Value: 0},
	}
	ranked := Rank(entries, Desc)
	assert.Equal(t, []int{0, 0}, ranksOf(ranked))
}

func TestRankIsStableForTies(t *testing.T) {
	// tied entries keep input order, so display order decides presentation
	entries := []Entry{
		{Id: 30, Value: 5},
		{Id: 10, Value: 5},
		{Id: 20, Value: 5},
	}
	for range 20 {
		ranked := Rank(entries, Desc)
		assert.Equal(t, []int{30, 10, 20}, idsOf(ranked))
	}
}

func TestRankMap(t *testing.T) {
	entries := []Entry{
		{Id: 1, Value: 3},
		{Id: 2, Value: 5},
		{Id: 3, Value: 0},
	}
	ranks := RankMap(entries, Desc)
	assert.Equal(t, 2, *ranks[1])
	assert.Equal(t, 1, *ranks[2])
	assert.Nil(t, ranks[3])
}
