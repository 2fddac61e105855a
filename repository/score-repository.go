package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Score is one judge's point value for one participant on one criterion.
// The composite key is the upsert conflict target: writing the same
// (judge, participant, criterion) again replaces the prior value.
type Score struct {
	JudgeId       int       `gorm:"primaryKey;autoIncrement:false"`
	ParticipantId int       `gorm:"primaryKey;autoIncrement:false"`
	CriterionId   int       `gorm:"primaryKey;autoIncrement:false"`
	CategoryId    int       `gorm:"not null;index"`
	Points        float64   `gorm:"not null"`
	Submitted     bool      `gorm:"not null;default:false"`
	UpdatedAt     time.Time `gorm:"not null"`

	Judge       *Judge       `gorm:"foreignKey:JudgeId;constraint:OnDelete:CASCADE"`
	Participant *Participant `gorm:"foreignKey:ParticipantId;constraint:OnDelete:CASCADE"`
	Criterion   *Criterion   `gorm:"foreignKey:CriterionId;constraint:OnDelete:CASCADE"`
}

// Ranking is one judge's holistic rank for one participant in a ranking
// category. Same natural-key upsert semantics as Score.
type Ranking struct {
	JudgeId       int       `gorm:"primaryKey;autoIncrement:false"`
	CategoryId    int       `gorm:"primaryKey;autoIncrement:false"`
	ParticipantId int       `gorm:"primaryKey;autoIncrement:false"`
	Rank          int       `gorm:"not null"`
	Submitted     bool      `gorm:"not null;default:false"`
	UpdatedAt     time.Time `gorm:"not null"`

	Judge       *Judge       `gorm:"foreignKey:JudgeId;constraint:OnDelete:CASCADE"`
	Category    *Category    `gorm:"foreignKey:CategoryId;constraint:OnDelete:CASCADE"`
	Participant *Participant `gorm:"foreignKey:ParticipantId;constraint:OnDelete:CASCADE"`
}

type ScoreRepository struct {
	DB *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{DB: db}
}

func (r *ScoreRepository) UpsertScores(ctx context.Context, scores []*Score) error {
	if len(scores) == 0 {
		return nil
	}
	now := time.Now()
	for _, score := range scores {
		score.UpdatedAt = now
	}
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "judge_id"}, {Name: "participant_id"}, {Name: "criterion_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"points", "submitted", "updated_at"}),
	}).Create(scores)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert scores: %v", result.Error)
	}
	return nil
}

func (r *ScoreRepository) UpsertRanking(ctx context.Context, ranking *Ranking) error {
	ranking.UpdatedAt = time.Now()
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "judge_id"}, {Name: "category_id"}, {Name: "participant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rank", "submitted", "updated_at"}),
	}).Create(ranking)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert ranking: %v", result.Error)
	}
	return nil
}

func (r *ScoreRepository) GetScores(ctx context.Context, categoryId int, judgeId int) ([]*Score, error) {
	var scores []*Score
	result := r.DB.WithContext(ctx).Where("category_id = ? AND judge_id = ?", categoryId, judgeId).Find(&scores)
	if result.Error != nil {
		return nil, result.Error
	}
	return scores, nil
}

func (r *ScoreRepository) GetScoresForCategory(ctx context.Context, categoryId int) ([]*Score, error) {
	var scores []*Score
	result := r.DB.WithContext(ctx).Where("category_id = ?", categoryId).Find(&scores)
	if result.Error != nil {
		return nil, result.Error
	}
	return scores, nil
}

func (r *ScoreRepository) GetRankings(ctx context.Context, categoryId int, judgeId int) ([]*Ranking, error) {
	var rankings []*Ranking
	result := r.DB.WithContext(ctx).Where("category_id = ? AND judge_id = ?", categoryId, judgeId).Find(&rankings)
	if result.Error != nil {
		return nil, result.Error
	}
	return rankings, nil
}

func (r *ScoreRepository) GetRankingsForCategory(ctx context.Context, categoryId int) ([]*Ranking, error) {
	var rankings []*Ranking
	result := r.DB.WithContext(ctx).Where("category_id = ?", categoryId).Find(&rankings)
	if result.Error != nil {
		return nil, result.Error
	}
	return rankings, nil
}

// SetScoresSubmitted flips the submission marker for every score row of one
// judge/participant pair in a category. Values are kept.
func (r *ScoreRepository) SetScoresSubmitted(ctx context.Context, categoryId, judgeId, participantId int, submitted bool) error {
	result := r.DB.WithContext(ctx).Model(&Score{}).
		Where("category_id = ? AND judge_id = ? AND participant_id = ?", categoryId, judgeId, participantId).
		Updates(map[string]interface{}{"submitted": submitted, "updated_at": time.Now()})
	return result.Error
}

func (r *ScoreRepository) SetRankingSubmitted(ctx context.Context, categoryId, judgeId, participantId int, submitted bool) error {
	result := r.DB.WithContext(ctx).Model(&Ranking{}).
		Where("category_id = ? AND judge_id = ? AND participant_id = ?", categoryId, judgeId, participantId).
		Updates(map[string]interface{}{"submitted": submitted, "updated_at": time.Now()})
	return result.Error
}
