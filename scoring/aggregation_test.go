package scoring

import (
	"testing"

	"tally/repository"

	"github.com/stretchr/testify/assert"
)

func talentCategory() (*repository.Category, []*repository.Participant, []*repository.Criterion) {
	category := &repository.Category{Id: 1, EventId: 1, Name: "Talent", TabularType: repository.SCORING}
	participants := []*repository.Participant{
		{Id: 1, EventId: 1, Name: "participant1", DisplayOrder: 1},
		{Id: 2, EventId: 1, Name: "participant2", DisplayOrder: 2},
	}
	criteria := []*repository.Criterion{
		{Id: 10, CategoryId: 1, Name: "Execution", Percentage: 60, MaxScore: 60},
		{Id: 11, CategoryId: 1, Name: "Stage Presence", Percentage: 40, MaxScore: 40},
	}
	return category, participants, criteria
}

func TestBuildScoreboardTotalsAndRanks(t *testing.T) {
	category, participants, criteria := talentCategory()
	sheet := &Sheet{
		JudgeId: 1,
		Points: map[int]map[int]float64{
			1: {10: 50, 11: 25},
			2: {10: 40, 11: 35},
		},
	}
	scoreboard := BuildScoreboard(category, participants, criteria, sheet)

	assert.Len(t, scoreboard.Rows, 2)
	assert.Equal(t, 75.0, scoreboard.Rows[0].Total)
	assert.Equal(t, 75.0, scoreboard.Rows[1].Total)
	// tied totals share first place
	assert.Equal(t, 1, *scoreboard.Rows[0].Rank)
	assert.Equal(t, 1, *scoreboard.Rows[1].Rank)
	// per-criterion cells are ranked independently of the total
	assert.Equal(t, 1, *scoreboard.Rows[0].Criteria[10].Rank)
	assert.Equal(t, 2, *scoreboard.Rows[1].Criteria[10].Rank)
	assert.Equal(t, 2, *scoreboard.Rows[0].Criteria[11].Rank)
	assert.Equal(t, 1, *scoreboard.Rows[1].Criteria[11].Rank)
}

func TestBuildScoreboardUnscoredParticipant(t *testing.T) {
	category, participants, criteria := talentCategory()
	sheet := &Sheet{
		JudgeId: 1,
		Points:  map[int]map[int]float64{1: {10: 30}},
	}
	scoreboard := BuildScoreboard(category, participants, criteria, sheet)

	assert.Equal(t, 1, *scoreboard.Rows[0].Rank)
	assert.Equal(t, 0.0, scoreboard.Rows[1].Total)
	assert.Nil(t, scoreboard.Rows[1].Rank)
}

func TestBuildComparisonMeanRanks(t *testing.T) {
	category, participants, _ := talentCategory()
	sheets := []*Sheet{
		{JudgeId: 1, Points: map[int]map[int]float64{
			1: {10: 50, 11: 25},
			2: {10: 40, 11: 35},
		}},
		{JudgeId: 2, Points: map[int]map[int]float64{
			1: {10: 50, 11: 30},
			2: {10: 35, 11: 25},
		}},
	}
	comparison := BuildComparison(category, participants, sheets)

	assert.Equal(t, []int{1, 2}, comparison.JudgeIds)
	p1, p2 := comparison.Rows[0], comparison.Rows[1]
	// judge 1 ties both at rank 1, judge 2 splits them
	assert.Equal(t, 1, *p1.JudgeRanks[1])
	assert.Equal(t, 1, *p2.JudgeRanks[1])
	assert.Equal(t, 1, *p1.JudgeRanks[2])
	assert.Equal(t, 2, *p2.JudgeRanks[2])
	assert.Equal(t, 1.0, *p1.MeanRank)
	assert.Equal(t, 1.5, *p2.MeanRank)
	assert.Equal(t, 1, *p1.Rank)
	assert.Equal(t, 2, *p2.Rank)
}

func TestBuildComparisonSkipsAbsentJudges(t *testing.T) {
	category, participants, _ := talentCategory()
	sheets := []*Sheet{
		{JudgeId: 1, Points: map[int]map[int]float64{
			1: {10: 50},
			2: {10: 40},
		}},
		// judge 2 only scored participant 1
		{JudgeId: 2, Points: map[int]map[int]float64{
			1: {10: 45},
		}},
	}
	comparison := BuildComparison(category, participants, sheets)

	p1, p2 := comparison.Rows[0], comparison.Rows[1]
	assert.Equal(t, 2, p1.JudgeCount)
	assert.Equal(t, 1, p2.JudgeCount)
	assert.Nil(t, p2.JudgeRanks[2])
	// the mean divides by the judges that scored, not by all judges
	assert.Equal(t, 1.0, *p1.MeanRank)
	assert.Equal(t, 2.0, *p2.MeanRank)
}

func TestBuildComparisonEmptySheetsAreDropped(t *testing.T) {
	category, participants, _ := talentCategory()
	sheets := []*Sheet{
		{JudgeId: 1, Points: map[int]map[int]float64{1: {10: 50}}},
		{JudgeId: 2, Points: map[int]map[int]float64{}, Ranks: map[int]int{}},
	}
	comparison := BuildComparison(category, participants, sheets)
	assert.Equal(t, []int{1}, comparison.JudgeIds)
}

func TestBuildComparisonRankingCategory(t *testing.T) {
	category := &repository.Category{Id: 2, EventId: 1, Name: "Q&A", TabularType: repository.RANKING}
	participants := []*repository.Participant{{Id: 1}, {Id: 2}, {Id: 3}}
	sheets := []*Sheet{
		{JudgeId: 1, Ranks: map[int]int{1: 1, 2: 2, 3: 3}},
		{JudgeId: 2, Ranks: map[int]int{1: 2, 2: 1, 3: 3}},
	}
	comparison := BuildComparison(category, participants, sheets)

	// submitted ranks are used as given, not recomputed
	assert.Equal(t, 1.5, *comparison.Rows[0].MeanRank)
	assert.Equal(t, 1.5, *comparison.Rows[1].MeanRank)
	assert.Equal(t, 3.0, *comparison.Rows[2].MeanRank)
	assert.Equal(t, 1, *comparison.Rows[0].Rank)
	assert.Equal(t, 1, *comparison.Rows[1].Rank)
	assert.Equal(t, 3, *comparison.Rows[2].Rank)
}

func TestBuildCategoryResultScoring(t *testing.T) {
	category, participants, _ := talentCategory()
	sheets := []*Sheet{
		{JudgeId: 1, Points: map[int]map[int]float64{1: {10: 80}, 2: {10: 60}}},
		{JudgeId: 2, Points: map[int]map[int]float64{1: {10: 70}}},
	}
	result := BuildCategoryResult(category, participants, sheets)

	assert.Equal(t, 75.0, result.Averages[1])
	assert.Equal(t, 60.0, result.Averages[2])
	assert.Equal(t, 1, *result.Ranks[1])
	assert.Equal(t, 2, *result.Ranks[2])
}

func TestBuildCategoryResultRankingUsesAscendingOrder(t *testing.T) {
	category := &repository.Category{Id: 2, TabularType: repository.RANKING}
	participants := []*repository.Participant{{Id: 1}, {Id: 2}}
	sheets := []*Sheet{
		{JudgeId: 1, Ranks: map[int]int{1: 1, 2: 2}},
		{JudgeId: 2, Ranks: map[int]int{1: 2, 2: 1}},
		{JudgeId: 3, Ranks: map[int]int{1: 1, 2: 2}},
	}
	result := BuildCategoryResult(category, participants, sheets)

	// lower mean rank wins for ranking categories
	assert.InDelta(t, 4.0/3.0, result.Averages[1], 1e-9)
	assert.InDelta(t, 5.0/3.0, result.Averages[2], 1e-9)
	assert.Equal(t, 1, *result.Ranks[1])
	assert.Equal(t, 2, *result.Ranks[2])
}

func TestBuildFinalResult(t *testing.T) {
	participants := []*repository.Participant{{Id: 1}, {Id: 2}, {Id: 3}}
	categories := []*repository.Category{
		{Id: 1, EventId: 1, TabularType: repository.SCORING},
		{Id: 2, EventId: 1, TabularType: repository.RANKING},
	}
	sheetsByCategory := map[int][]*Sheet{
		1: {
			{JudgeId: 1, Points: map[int]map[int]float64{1: {10: 90}, 2: {10: 80}, 3: {10: 70}}},
		},
		2: {
			{JudgeId: 1, Ranks: map[int]int{1: 2, 2: 1, 3: 3}},
		},
	}
	result := BuildFinalResult(1, participants, categories, sheetsByCategory)

	p1, p2, p3 := result.Rows[0], result.Rows[1], result.Rows[2]
	assert.Equal(t, 1.5, *p1.MeanRank) // category ranks 1 and 2
	assert.Equal(t, 1.5, *p2.MeanRank) // category ranks 2 and 1
	assert.Equal(t, 3.0, *p3.MeanRank)
	assert.Equal(t, 1, *p1.Rank)
	assert.Equal(t, 1, *p2.Rank)
	assert.Equal(t, 3, *p3.Rank)
}

func TestBuildFinalResultSkipsCategoriesWithoutRanks(t *testing.T) {
	participants := []*repository.Participant{{Id: 1}, {Id: 2}}
	categories := []*repository.Category{
		{Id: 1, TabularType: repository.SCORING},
		{Id: 2, TabularType: repository.SCORING},
	}
	sheetsByCategory := map[int][]*Sheet{
		1: {{JudgeId: 1, Points: map[int]map[int]float64{1: {10: 90}, 2: {10: 80}}}},
		// participant 2 has no submissions in category 2
		2: {{JudgeId: 1, Points: map[int]map[int]float64{1: {10: 50}}}},
	}
	result := BuildFinalResult(1, participants, categories, sheetsByCategory)

	assert.Equal(t, 2, result.Rows[0].CategoryCount)
	assert.Equal(t, 1, result.Rows[1].CategoryCount)
	assert.Equal(t, 1.0, *result.Rows[0].MeanRank)
	assert.Equal(t, 2.0, *result.Rows[1].MeanRank)
}

func TestResolveSheetsDropsUnsubmittedRows(t *testing.T) {
	category := &repository.Category{Id: 1, TabularType: repository.SCORING}
	scores := []*repository.Score{
		{JudgeId: 1, ParticipantId: 1, CriterionId: 10, CategoryId: 1, Points: 50, Submitted: true},
		{JudgeId: 1, ParticipantId: 2, CriterionId: 10, CategoryId: 1, Points: 40, Submitted: false},
		{JudgeId: 2, ParticipantId: 1, CriterionId: 10, CategoryId: 1, Points: 45, Submitted: true},
	}
	sheets := ResolveSheets(category, scores, nil)

	assert.Len(t, sheets, 2)
	assert.Equal(t, 1, sheets[0].JudgeId)
	assert.Equal(t, 2, sheets[1].JudgeId)
	assert.Equal(t, 50.0, sheets[0].Points[1][10])
	_, draftKept := sheets[0].Points[2]
	assert.False(t, draftKept)
}

func TestResolveSheetsRankingCategory(t *testing.T) {
	category := &repository.Category{Id: 2, TabularType: repository.RANKING}
	rankings := []*repository.Ranking{
		{JudgeId: 1, CategoryId: 2, ParticipantId: 1, Rank: 1, Submitted: true},
		{JudgeId: 1, CategoryId: 2, ParticipantId: 2, Rank: 2, Submitted: false},
	}
	sheets := ResolveSheets(category, nil, rankings)

	assert.Len(t, sheets, 1)
	assert.Equal(t, map[int]int{1: 1}, sheets[0].Ranks)
}
