package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Judge struct {
	Id      int    `gorm:"primaryKey"`
	EventId int    `gorm:"not null;index"`
	Name    string `gorm:"not null"`
	// Code is the judge's access capability: whoever holds it may judge the
	// categories assigned to this judge. Issued once on creation.
	Code string `gorm:"not null;uniqueIndex"`

	Categories []*Category `gorm:"many2many:judge_assignments;constraint:OnDelete:CASCADE"`
}

type JudgeRepository struct {
	DB *gorm.DB
}

func NewJudgeRepository(db *gorm.DB) *JudgeRepository {
	return &JudgeRepository{DB: db}
}

func (r *JudgeRepository) GetJudgeById(ctx context.Context, judgeId int, preloads ...string) (*Judge, error) {
	var judge *Judge
	query := r.DB.WithContext(ctx)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&judge, judgeId)
	if result.Error != nil {
		return nil, result.Error
	}
	return judge, nil
}

func (r *JudgeRepository) GetJudgesForEvent(ctx context.Context, eventId int, preloads ...string) ([]*Judge, error) {
	var judges []*Judge
	query := r.DB.WithContext(ctx)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.Where("event_id = ?", eventId).Order("id").Find(&judges)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find judges for event %d: %v", eventId, result.Error)
	}
	return judges, nil
}

func (r *JudgeRepository) Save(ctx context.Context, judge *Judge) (*Judge, error) {
	result := r.DB.WithContext(ctx).Save(judge)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save judge: %v", result.Error)
	}
	return judge, nil
}

func (r *JudgeRepository) Delete(ctx context.Context, judgeId int) error {
	result := r.DB.WithContext(ctx).Delete(&Judge{Id: judgeId})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *JudgeRepository) AssignCategory(ctx context.Context, judge *Judge, category *Category) error {
	return r.DB.WithContext(ctx).Model(judge).Association("Categories").Append(category)
}

func (r *JudgeRepository) UnassignCategory(ctx context.Context, judge *Judge, category *Category) error {
	return r.DB.WithContext(ctx).Model(judge).Association("Categories").Delete(category)
}

func (r *JudgeRepository) IsAssigned(ctx context.Context, judgeId int, categoryId int) (bool, error) {
	var count int64
	result := r.DB.WithContext(ctx).Table("tally.judge_assignments").
		Where("judge_id = ? AND category_id = ?", judgeId, categoryId).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}
