package scoring

import (
	"context"
	"sort"
	"tally/repository"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var resultComputationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "result_computation_duration_s",
	Help: "Duration of result view computation",
	Buckets: []float64{
		0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5,
	},
}, []string{"view"})

// ResultService recomputes the three result views from the persisted
// submitted rows on every call. Nothing is cached between calls: a stale
// notification can only ever cost a recomputation, never a wrong result.
type ResultService struct {
	categoryRepository    *repository.CategoryRepository
	criterionRepository   *repository.CriterionRepository
	participantRepository *repository.ParticipantRepository
	scoreRepository       *repository.ScoreRepository
}

func NewResultService(db *gorm.DB) *ResultService {
	return &ResultService{
		categoryRepository:    repository.NewCategoryRepository(db),
		criterionRepository:   repository.NewCriterionRepository(db),
		participantRepository: repository.NewParticipantRepository(db),
		scoreRepository:       repository.NewScoreRepository(db),
	}
}

// ResolveSheets groups raw rows into per-judge sheets, dropping anything
// without the submitted marker. This is the single place where the two
// row shapes are resolved by category type.
func ResolveSheets(category *repository.Category, scores []*repository.Score, rankings []*repository.Ranking) []*Sheet {
	byJudge := make(map[int]*Sheet)
	sheetFor := func(judgeId int) *Sheet {
		if sheet, ok := byJudge[judgeId]; ok {
			return sheet
		}
		sheet := &Sheet{
			JudgeId: judgeId,
			Points:  make(map[int]map[int]float64),
			Ranks:   make(map[int]int),
		}
		byJudge[judgeId] = sheet
		return sheet
	}
	if category.TabularType == repository.RANKING {
		for _, ranking := range rankings {
			if !ranking.Submitted {
				continue
			}
			sheetFor(ranking.JudgeId).Ranks[ranking.ParticipantId] = ranking.Rank
		}
	} else {
		for _, score := range scores {
			if !score.Submitted {
				continue
			}
			sheet := sheetFor(score.JudgeId)
			if sheet.Points[score.ParticipantId] == nil {
				sheet.Points[score.ParticipantId] = make(map[int]float64)
			}
			sheet.Points[score.ParticipantId][score.CriterionId] = score.Points
		}
	}

	sheets := make([]*Sheet, 0, len(byJudge))
	for _, sheet := range byJudge {
		sheets = append(sheets, sheet)
	}
	sort.Slice(sheets, func(i, j int) bool { return sheets[i].JudgeId < sheets[j].JudgeId })
	return sheets
}

func (s *ResultService) GetScoreboard(ctx context.Context, categoryId int, judgeId int) (*Scoreboard, error) {
	timer := prometheus.NewTimer(resultComputationDuration.WithLabelValues("scoreboard"))
	defer timer.ObserveDuration()

	category, err := s.categoryRepository.GetCategoryById(ctx, categoryId)
	if err != nil {
		return nil, err
	}
	criteria, err := s.criterionRepository.GetCriteriaForCategory(ctx, categoryId)
	if err != nil {
		return nil, err
	}
	participants, err := s.participantRepository.GetParticipantsForEvent(ctx, category.EventId)
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreRepository.GetScores(ctx, categoryId, judgeId)
	if err != nil {
		return nil, err
	}
	sheets := ResolveSheets(category, scores, nil)
	sheet := &Sheet{JudgeId: judgeId, Points: map[int]map[int]float64{}, Ranks: map[int]int{}}
	if len(sheets) > 0 {
		sheet = sheets[0]
	}
	return BuildScoreboard(category, participants, criteria, sheet), nil
}

func (s *ResultService) GetComparison(ctx context.Context, categoryId int) (*Comparison, error) {
	timer := prometheus.NewTimer(resultComputationDuration.WithLabelValues("comparison"))
	defer timer.ObserveDuration()

	category, err := s.categoryRepository.GetCategoryById(ctx, categoryId)
	if err != nil {
		return nil, err
	}
	participants, err := s.participantRepository.GetParticipantsForEvent(ctx, category.EventId)
	if err != nil {
		return nil, err
	}
	sheets, err := s.sheetsForCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return BuildComparison(category, participants, sheets), nil
}

func (s *ResultService) GetFinalResult(ctx context.Context, eventId int) (*FinalResult, error) {
	timer := prometheus.NewTimer(resultComputationDuration.WithLabelValues("final"))
	defer timer.ObserveDuration()
	t := time.Now()

	categories, err := s.categoryRepository.GetCategoriesForEvent(ctx, eventId)
	if err != nil {
		return nil, err
	}
	participants, err := s.participantRepository.GetParticipantsForEvent(ctx, eventId)
	if err != nil {
		return nil, err
	}
	sheetsByCategory := make(map[int][]*Sheet, len(categories))
	for _, category := range categories {
		sheets, err := s.sheetsForCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		sheetsByCategory[category.Id] = sheets
	}
	result := BuildFinalResult(eventId, participants, categories, sheetsByCategory)
	log.Debugf("computed final results for event %d in %d ms", eventId, time.Since(t).Milliseconds())
	return result, nil
}

func (s *ResultService) sheetsForCategory(ctx context.Context, category *repository.Category) ([]*Sheet, error) {
	if category.TabularType == repository.RANKING {
		rankings, err := s.scoreRepository.GetRankingsForCategory(ctx, category.Id)
		if err != nil {
			return nil, err
		}
		return ResolveSheets(category, nil, rankings), nil
	}
	scores, err := s.scoreRepository.GetScoresForCategory(ctx, category.Id)
	if err != nil {
		return nil, err
	}
	return ResolveSheets(category, scores, nil), nil
}
