package service

import (
	"context"
	"tally/app_error"
	"tally/repository"

	"gorm.io/gorm"
)

var ErrCategoryTypeFrozen = app_error.New(409, "category type cannot change once scores exist")

type CategoryService struct {
	categoryRepository  *repository.CategoryRepository
	criterionRepository *repository.CriterionRepository
	scoreRepository     *repository.ScoreRepository
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{
		categoryRepository:  repository.NewCategoryRepository(db),
		criterionRepository: repository.NewCriterionRepository(db),
		scoreRepository:     repository.NewScoreRepository(db),
	}
}

func (s *CategoryService) GetCategoriesForEvent(ctx context.Context, eventId int) ([]*repository.Category, error) {
	return s.categoryRepository.GetCategoriesForEvent(ctx, eventId, "Criteria")
}

func (s *CategoryService) GetCategoryById(ctx context.Context, categoryId int, preloads ...string) (*repository.Category, error) {
	return s.categoryRepository.GetCategoryById(ctx, categoryId, preloads...)
}

func (s *CategoryService) CreateCategory(ctx context.Context, category *repository.Category) (*repository.Category, error) {
	return s.categoryRepository.Save(ctx, category)
}

// UpdateCategory freezes the tabular type once any score or ranking row
// exists for the category: changing it would silently reinterpret the
// submitted rows.
func (s *CategoryService) UpdateCategory(ctx context.Context, categoryId int, update *repository.Category) (*repository.Category, error) {
	category, err := s.categoryRepository.GetCategoryById(ctx, categoryId)
	if err != nil {
		return nil, err
	}
	if update.TabularType != "" && update.TabularType != category.TabularType {
		hasRows, err := s.hasSubmissionRows(ctx, category)
		if err != nil {
			return nil, err
		}
		if hasRows {
			return nil, ErrCategoryTypeFrozen
		}
		category.TabularType = update.TabularType
	}
	if update.Name != "" {
		category.Name = update.Name
	}
	if update.Percentage != 0 {
		category.Percentage = update.Percentage
	}
	if update.DisplayOrder != 0 {
		category.DisplayOrder = update.DisplayOrder
	}
	return s.categoryRepository.Save(ctx, category)
}

func (s *CategoryService) DeleteCategory(ctx context.Context, categoryId int) error {
	return s.categoryRepository.Delete(ctx, categoryId)
}

func (s *CategoryService) hasSubmissionRows(ctx context.Context, category *repository.Category) (bool, error) {
	scores, err := s.scoreRepository.GetScoresForCategory(ctx, category.Id)
	if err != nil {
		return false, err
	}
	if len(scores) > 0 {
		return true, nil
	}
	rankings, err := s.scoreRepository.GetRankingsForCategory(ctx, category.Id)
	if err != nil {
		return false, err
	}
	return len(rankings) > 0, nil
}

func (s *CategoryService) GetCriteriaForCategory(ctx context.Context, categoryId int) ([]*repository.Criterion, error) {
	return s.criterionRepository.GetCriteriaForCategory(ctx, categoryId)
}

func (s *CategoryService) CreateCriterion(ctx context.Context, criterion *repository.Criterion) (*repository.Criterion, error) {
	return s.criterionRepository.Save(ctx, criterion)
}

func (s *CategoryService) UpdateCriterion(ctx context.Context, criterionId int, update *repository.Criterion) (*repository.Criterion, error) {
	criterion, err := s.criterionRepository.GetCriterionById(ctx, criterionId)
	if err != nil {
		return nil, err
	}
	if update.Name != "" {
		criterion.Name = update.Name
	}
	if update.Percentage != 0 {
		criterion.Percentage = update.Percentage
	}
	if update.MinScore != 0 {
		criterion.MinScore = update.MinScore
	}
	if update.MaxScore != 0 {
		criterion.MaxScore = update.MaxScore
	}
	if update.DisplayOrder != 0 {
		criterion.DisplayOrder = update.DisplayOrder
	}
	return s.criterionRepository.Save(ctx, criterion)
}

func (s *CategoryService) DeleteCriterion(ctx context.Context, criterionId int) error {
	return s.criterionRepository.Delete(ctx, criterionId)
}

// WeightSum reports the criterion percentage total of a scoring category.
// A sum other than 100 is surfaced to admins but never blocks scoring.
func (s *CategoryService) WeightSum(ctx context.Context, categoryId int) (int, error) {
	criteria, err := s.criterionRepository.GetCriteriaForCategory(ctx, categoryId)
	if err != nil {
		return 0, err
	}
	sum := 0
	for _, criterion := range criteria {
		sum += criterion.Percentage
	}
	return sum, nil
}
