package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Criterion struct {
	Id         int    `gorm:"primaryKey"`
	CategoryId int    `gorm:"not null;index"`
	Name       string `gorm:"not null"`
	// Percentage is the criterion's weight within a scoring category.
	// Weights of one category should sum to 100; the API reports but does
	// not block violations.
	Percentage   int     `gorm:"not null;default:0"`
	MinScore     float64 `gorm:"not null;default:0"`
	MaxScore     float64 `gorm:"not null;default:0"`
	DisplayOrder int     `gorm:"not null;default:0"`
}

// the pluralizer would produce "criterions"
func (Criterion) TableName() string {
	return "tally.criteria"
}

type CriterionRepository struct {
	DB *gorm.DB
}

func NewCriterionRepository(db *gorm.DB) *CriterionRepository {
	return &CriterionRepository{DB: db}
}

func (r *CriterionRepository) GetCriterionById(ctx context.Context, criterionId int) (*Criterion, error) {
	var criterion *Criterion
	result := r.DB.WithContext(ctx).First(&criterion, criterionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return criterion, nil
}

func (r *CriterionRepository) GetCriteriaForCategory(ctx context.Context, categoryId int) ([]*Criterion, error) {
	var criteria []*Criterion
	result := r.DB.WithContext(ctx).Where("category_id = ?", categoryId).Order("display_order, id").Find(&criteria)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find criteria for category %d: %v", categoryId, result.Error)
	}
	return criteria, nil
}

func (r *CriterionRepository) Save(ctx context.Context, criterion *Criterion) (*Criterion, error) {
	result := r.DB.WithContext(ctx).Save(criterion)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save criterion: %v", result.Error)
	}
	return criterion, nil
}

func (r *CriterionRepository) Delete(ctx context.Context, criterionId int) error {
	result := r.DB.WithContext(ctx).Delete(&Criterion{Id: criterionId})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
