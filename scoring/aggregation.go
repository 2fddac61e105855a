package scoring

import (
	"tally/repository"
)

// Sheet is one judge's resolved submitted state for a single category.
// The two schema variants (per-criterion points for scoring categories,
// one holistic rank for ranking categories) are resolved into this shape
// once at the boundary; the pipeline below never re-checks row shapes.
type Sheet struct {
	JudgeId int
	// Points maps participant id -> criterion id -> submitted points.
	Points map[int]map[int]float64
	// Ranks maps participant id -> submitted rank.
	Ranks map[int]int
}

// Total is the judge's raw point sum for a participant. Criterion
// percentage weights are informational and do not scale the sum.
func (s *Sheet) Total(participantId int) float64 {
	total := 0.0
	for _, points := range s.Points[participantId] {
		total += points
	}
	return total
}

func (s *Sheet) IsEmpty() bool {
	return len(s.Points) == 0 && len(s.Ranks) == 0
}

type CriterionScore struct {
	Points float64
	Rank   *int
}

type ScoreboardRow struct {
	ParticipantId int
	Total         float64
	Rank          *int
	// Criteria holds the independent per-criterion leaderboard cells.
	Criteria map[int]CriterionScore
}

// Scoreboard is the judge-by-criteria view: one judge, one category.
type Scoreboard struct {
	CategoryId int
	JudgeId    int
	Rows       []ScoreboardRow
}

// BuildScoreboard sums the judge's per-criterion scores into totals and
// ranks participants by total, plus a separate rank per criterion.
func BuildScoreboard(category *repository.Category, participants []*repository.Participant, criteria []*repository.Criterion, sheet *Sheet) *Scoreboard {
	totals := make([]Entry, 0, len(participants))
	for _, participant := range participants {
		totals = append(totals, Entry{Id: participant.Id, Value: sheet.Total(participant.Id)})
	}
	totalRanks := RankMap(totals, Desc)

	criterionRanks := make(map[int]map[int]*int, len(criteria))
	for _, criterion := range criteria {
		entries := make([]Entry, 0, len(participants))
		for _, participant := range participants {
			entries = append(entries, Entry{Id: participant.Id, Value: sheet.Points[participant.Id][criterion.Id]})
		}
		criterionRanks[criterion.Id] = RankMap(entries, Desc)
	}

	rows := make([]ScoreboardRow, 0, len(participants))
	for _, participant := range participants {
		row := ScoreboardRow{
			ParticipantId: participant.Id,
			Total:         sheet.Total(participant.Id),
			Rank:          totalRanks[participant.Id],
			Criteria:      make(map[int]CriterionScore, len(criteria)),
		}
		for _, criterion := range criteria {
			row.Criteria[criterion.Id] = CriterionScore{
				Points: sheet.Points[participant.Id][criterion.Id],
				Rank:   criterionRanks[criterion.Id][participant.Id],
			}
		}
		rows = append(rows, row)
	}
	return &Scoreboard{CategoryId: category.Id, JudgeId: sheet.JudgeId, Rows: rows}
}

type ComparisonRow struct {
	ParticipantId int
	// JudgeRanks holds the participant's rank within each judge's column.
	JudgeRanks map[int]*int
	SumRanks   int
	JudgeCount int
	// MeanRank is SumRanks / JudgeCount; nil when no judge scored the
	// participant. Lower is better.
	MeanRank *float64
	Rank     *int
}

// Comparison is the cross-judge view for one category.
type Comparison struct {
	CategoryId int
	JudgeIds   []int
	Rows       []ComparisonRow
}

// judgeRanks turns one judge's sheet into a per-participant rank column.
// Scoring categories rank by the judge's point totals so that scale
// differences between judges never get averaged directly; ranking
// categories use the submitted ranks as given.
func judgeRanks(category *repository.Category, participants []*repository.Participant, sheet *Sheet) map[int]*int {
	if category.TabularType == repository.RANKING {
		ranks := make(map[int]*int, len(participants))
		for _, participant := range participants {
			if rank, ok := sheet.Ranks[participant.Id]; ok && rank > 0 {
				r := rank
				ranks[participant.Id] = &r
			} else {
				ranks[participant.Id] = nil
			}
		}
		return ranks
	}
	totals := make([]Entry, 0, len(participants))
	for _, participant := range participants {
		totals = append(totals, Entry{Id: participant.Id, Value: sheet.Total(participant.Id)})
	}
	return RankMap(totals, Desc)
}

// BuildComparison aggregates all judges of a category into mean ranks.
// A judge that never scored a participant contributes no term for them:
// the mean divides by the judges that actually scored, never zero-fills.
func BuildComparison(category *repository.Category, participants []*repository.Participant, sheets []*Sheet) *Comparison {
	judgeIds := make([]int, 0, len(sheets))
	rankColumns := make(map[int]map[int]*int, len(sheets))
	for _, sheet := range sheets {
		if sheet.IsEmpty() {
			continue
		}
		judgeIds = append(judgeIds, sheet.JudgeId)
		rankColumns[sheet.JudgeId] = judgeRanks(category, participants, sheet)
	}

	rows := make([]ComparisonRow, 0, len(participants))
	meanEntries := make([]Entry, 0, len(participants))
	for _, participant := range participants {
		row := ComparisonRow{
			ParticipantId: participant.Id,
			JudgeRanks:    make(map[int]*int, len(judgeIds)),
		}
		for _, judgeId := range judgeIds {
			rank := rankColumns[judgeId][participant.Id]
			row.JudgeRanks[judgeId] = rank
			if rank != nil {
				row.SumRanks += *rank
				row.JudgeCount++
			}
		}
		if row.JudgeCount > 0 {
			mean := float64(row.SumRanks) / float64(row.JudgeCount)
			row.MeanRank = &mean
			meanEntries = append(meanEntries, Entry{Id: participant.Id, Value: mean})
		} else {
			meanEntries = append(meanEntries, Entry{Id: participant.Id, Value: 0})
		}
		rows = append(rows, row)
	}

	meanRanks := RankMap(meanEntries, Asc)
	for i := range rows {
		rows[i].Rank = meanRanks[rows[i].ParticipantId]
	}
	return &Comparison{CategoryId: category.Id, JudgeIds: judgeIds, Rows: rows}
}

// CategoryResult is the per-category intermediate of the final view.
type CategoryResult struct {
	CategoryId int
	// Averages maps participant id -> mean total across judges that scored
	// them (scoring categories) or mean submitted rank (ranking
	// categories).
	Averages map[int]float64
	Ranks    map[int]*int
}

func BuildCategoryResult(category *repository.Category, participants []*repository.Participant, sheets []*Sheet) *CategoryResult {
	averages := make(map[int]float64, len(participants))
	entries := make([]Entry, 0, len(participants))
	order := Desc
	if category.TabularType == repository.RANKING {
		order = Asc
	}
	for _, participant := range participants {
		sum := 0.0
		count := 0
		for _, sheet := range sheets {
			if category.TabularType == repository.RANKING {
				if rank, ok := sheet.Ranks[participant.Id]; ok && rank > 0 {
					sum += float64(rank)
					count++
				}
			} else if total := sheet.Total(participant.Id); total > 0 {
				sum += total
				count++
			}
		}
		average := 0.0
		if count > 0 {
			average = sum / float64(count)
		}
		averages[participant.Id] = average
		entries = append(entries, Entry{Id: participant.Id, Value: average})
	}
	return &CategoryResult{
		CategoryId: category.Id,
		Averages:   averages,
		Ranks:      RankMap(entries, order),
	}
}

type FinalRow struct {
	ParticipantId int
	CategoryRanks map[int]*int
	SumRanks      int
	CategoryCount int
	MeanRank      *float64
	Rank          *int
}

// FinalResult is the cross-category view: the event's overall standings.
type FinalResult struct {
	EventId int
	Rows    []FinalRow
}

// BuildFinalResult composes per-category results into the final ranking.
// Categories that produced no rank for a participant are skipped in the
// mean, mirroring the cross-judge rule.
func BuildFinalResult(eventId int, participants []*repository.Participant, categories []*repository.Category, sheetsByCategory map[int][]*Sheet) *FinalResult {
	categoryResults := make([]*CategoryResult, 0, len(categories))
	for _, category := range categories {
		categoryResults = append(categoryResults, BuildCategoryResult(category, participants, sheetsByCategory[category.Id]))
	}

	rows := make([]FinalRow, 0, len(participants))
	meanEntries := make([]Entry, 0, len(participants))
	for _, participant := range participants {
		row := FinalRow{
			ParticipantId: participant.Id,
			CategoryRanks: make(map[int]*int, len(categories)),
		}
		for _, result := range categoryResults {
			rank := result.Ranks[participant.Id]
			row.CategoryRanks[result.CategoryId] = rank
			if rank != nil {
				row.SumRanks += *rank
				row.CategoryCount++
			}
		}
		if row.CategoryCount > 0 {
			mean := float64(row.SumRanks) / float64(row.CategoryCount)
			row.MeanRank = &mean
			meanEntries = append(meanEntries, Entry{Id: participant.Id, Value: mean})
		} else {
			meanEntries = append(meanEntries, Entry{Id: participant.Id, Value: 0})
		}
		rows = append(rows, row)
	}

	meanRanks := RankMap(meanEntries, Asc)
	for i := range rows {
		rows[i].Rank = meanRanks[rows[i].ParticipantId]
	}
	return &FinalResult{EventId: eventId, Rows: rows}
}
