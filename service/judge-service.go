package service

import (
	"context"
	"tally/app_error"
	"tally/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrForeignCategory = app_error.New(400, "judge and category belong to different events")

type JudgeService struct {
	judgeRepository    *repository.JudgeRepository
	categoryRepository *repository.CategoryRepository
}

func NewJudgeService(db *gorm.DB) *JudgeService {
	return &JudgeService{
		judgeRepository:    repository.NewJudgeRepository(db),
		categoryRepository: repository.NewCategoryRepository(db),
	}
}

func (s *JudgeService) GetJudgesForEvent(ctx context.Context, eventId int) ([]*repository.Judge, error) {
	return s.judgeRepository.GetJudgesForEvent(ctx, eventId, "Categories")
}

func (s *JudgeService) GetJudgeById(ctx context.Context, judgeId int, preloads ...string) (*repository.Judge, error) {
	return s.judgeRepository.GetJudgeById(ctx, judgeId, preloads...)
}

// CreateJudge issues the judge's access code. The code is the only
// judging capability for the event's assigned categories; there is no
// password.
func (s *JudgeService) CreateJudge(ctx context.Context, judge *repository.Judge) (*repository.Judge, error) {
	judge.Code = uuid.NewString()
	return s.judgeRepository.Save(ctx, judge)
}

func (s *JudgeService) UpdateJudge(ctx context.Context, judgeId int, update *repository.Judge) (*repository.Judge, error) {
	judge, err := s.judgeRepository.GetJudgeById(ctx, judgeId)
	if err != nil {
		return nil, err
	}
	if update.Name != "" {
		judge.Name = update.Name
	}
	return s.judgeRepository.Save(ctx, judge)
}

func (s *JudgeService) DeleteJudge(ctx context.Context, judgeId int) error {
	return s.judgeRepository.Delete(ctx, judgeId)
}

func (s *JudgeService) AssignCategory(ctx context.Context, judgeId int, categoryId int) error {
	judge, err := s.judgeRepository.GetJudgeById(ctx, judgeId)
	if err != nil {
		return err
	}
	category, err := s.categoryRepository.GetCategoryById(ctx, categoryId)
	if err != nil {
		return err
	}
	if category.EventId != judge.EventId {
		return ErrForeignCategory
	}
	return s.judgeRepository.AssignCategory(ctx, judge, category)
}

func (s *JudgeService) UnassignCategory(ctx context.Context, judgeId int, categoryId int) error {
	judge, err := s.judgeRepository.GetJudgeById(ctx, judgeId)
	if err != nil {
		return err
	}
	category, err := s.categoryRepository.GetCategoryById(ctx, categoryId)
	if err != nil {
		return err
	}
	return s.judgeRepository.UnassignCategory(ctx, judge, category)
}

func (s *JudgeService) IsAssigned(ctx context.Context, judgeId int, categoryId int) (bool, error) {
	return s.judgeRepository.IsAssigned(ctx, judgeId, categoryId)
}
