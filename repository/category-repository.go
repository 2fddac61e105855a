package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type TabularType string

const (
	SCORING TabularType = "scoring"
	RANKING TabularType = "ranking"
)

type Category struct {
	Id          int         `gorm:"primaryKey"`
	EventId     int         `gorm:"not null;index"`
	Name        string      `gorm:"not null"`
	TabularType TabularType `gorm:"not null;default:scoring"`
	// Percentage is this category's share of the event total. Informational,
	// not a score multiplier.
	Percentage   int `gorm:"not null;default:0"`
	DisplayOrder int `gorm:"not null;default:0"`

	Criteria []*Criterion `gorm:"foreignKey:CategoryId;constraint:OnDelete:CASCADE"`
	Judges   []*Judge     `gorm:"many2many:judge_assignments;constraint:OnDelete:CASCADE"`
}

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func (r *CategoryRepository) GetCategoryById(ctx context.Context, categoryId int, preloads ...string) (*Category, error) {
	var category *Category
	query := r.DB.WithContext(ctx)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&category, categoryId)
	if result.Error != nil {
		return nil, result.Error
	}
	return category, nil
}

func (r *CategoryRepository) GetCategoriesForEvent(ctx context.Context, eventId int, preloads ...string) ([]*Category, error) {
	var categories []*Category
	query := r.DB.WithContext(ctx)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.Where("event_id = ?", eventId).Order("display_order, id").Find(&categories)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find categories for event %d: %v", eventId, result.Error)
	}
	return categories, nil
}

func (r *CategoryRepository) Save(ctx context.Context, category *Category) (*Category, error) {
	result := r.DB.WithContext(ctx).Save(category)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save category: %v", result.Error)
	}
	return category, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, categoryId int) error {
	result := r.DB.WithContext(ctx).Delete(&Category{Id: categoryId})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
