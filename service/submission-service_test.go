package service

import (
	"context"
	"errors"
	"testing"

	"tally/repository"

	"github.com/stretchr/testify/assert"
)

type fakePersistence struct {
	category *repository.Category
	scores   []*repository.Score
	rankings []*repository.Ranking

	failWrites  bool
	upsertCalls int
}

var errStorage = errors.New("storage unavailable")

func (f *fakePersistence) GetCategoryWithCriteria(ctx context.Context, categoryId int) (*repository.Category, error) {
	return f.category, nil
}

func (f *fakePersistence) GetScores(ctx context.Context, categoryId, judgeId int) ([]*repository.Score, error) {
	return f.scores, nil
}

func (f *fakePersistence) GetRankings(ctx context.Context, categoryId, judgeId int) ([]*repository.Ranking, error) {
	return f.rankings, nil
}

func (f *fakePersistence) UpsertScores(ctx context.Context, scores []*repository.Score) error {
	if f.failWrites {
		return errStorage
	}
	f.upsertCalls++
	f.scores = scores
	return nil
}

func (f *fakePersistence) UpsertRanking(ctx context.Context, ranking *repository.Ranking) error {
	if f.failWrites {
		return errStorage
	}
	f.upsertCalls++
	f.rankings = []*repository.Ranking{ranking}
	return nil
}

func (f *fakePersistence) SetScoresSubmitted(ctx context.Context, categoryId, judgeId, participantId int, submitted bool) error {
	if f.failWrites {
		return errStorage
	}
	for _, score := range f.scores {
		if score.ParticipantId == participantId {
			score.Submitted = submitted
		}
	}
	return nil
}

func (f *fakePersistence) SetRankingSubmitted(ctx context.Context, categoryId, judgeId, participantId int, submitted bool) error {
	if f.failWrites {
		return errStorage
	}
	for _, ranking := range f.rankings {
		if ranking.ParticipantId == participantId {
			ranking.Submitted = submitted
		}
	}
	return nil
}

func scoringFake() *fakePersistence {
	return &fakePersistence{
		category: &repository.Category{
			Id:          1,
			EventId:     1,
			TabularType: repository.SCORING,
			Criteria: []*repository.Criterion{
				{Id: 10, CategoryId: 1, MinScore: 0, MaxScore: 60},
				{Id: 11, CategoryId: 1, MinScore: 0, MaxScore: 40},
			},
		},
	}
}

func rankingFake() *fakePersistence {
	return &fakePersistence{
		category: &repository.Category{Id: 2, EventId: 1, TabularType: repository.RANKING},
	}
}

func newTestSubmissionService(persistence SubmissionPersistence) *SubmissionService {
	return NewSubmissionServiceWith(persistence, NewNotificationService())
}

func TestSetScoreAndReadBack(t *testing.T) {
	ctx := context.Background()
	s := newTestSubmissionService(scoringFake())

	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 42))
	points, err := s.GetScore(ctx, 1, 1, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 42.0, points)
}

func TestSetScoreUnknownCriterion(t *testing.T) {
	ctx := context.Background()
	s := newTestSubmissionService(scoringFake())
	assert.ErrorIs(t, s.SetScore(ctx, 1, 1, 1, 99, 10), ErrUnknownCriterion)
}

func TestSetScoreOutOfBounds(t *testing.T) {
	ctx := context.Background()
	s := newTestSubmissionService(scoringFake())
	assert.ErrorIs(t, s.SetScore(ctx, 1, 1, 1, 10, 61), ErrScoreOutOfBounds)
	assert.ErrorIs(t, s.SetScore(ctx, 1, 1, 1, 10, -1), ErrScoreOutOfBounds)
}

func TestSetScoreOnRankingCategory(t *testing.T) {
	ctx := context.Background()
	s := newTestSubmissionService(rankingFake())
	assert.ErrorIs(t, s.SetScore(ctx, 2, 1, 1, 10, 10), ErrWrongCategory)
}

func TestLockedScoreWriteIsSilentlyIgnored(t *testing.T) {
	ctx := context.Background()
	s := newTestSubmissionService(scoringFake())

	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 42))
	assert.NoError(t, s.Lock(ctx, 1, 1, 1))

	// no error, no effect
	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 7))
	points, err := s.GetScore(ctx, 1, 1, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 42.0, points)
}

func TestLockPersistsAllCriteriaRows(t *testing.T) {
	ctx := context.Background()
	fake := scoringFake()
	s := newTestSubmissionService(fake)

	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 42))
	assert.NoError(t, s.Lock(ctx, 1, 1, 1))

	// one row per criterion, unset criteria persisted as zero
	assert.Len(t, fake.scores, 2)
	for _, score := range fake.scores {
		assert.True(t, score.Submitted)
	}
}

func TestLockIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fake := scoringFake()
	s := newTestSubmissionService(fake)

	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 42))
	assert.NoError(t, s.Lock(ctx, 1, 1, 1))
	assert.NoError(t, s.Lock(ctx, 1, 1, 1))
	assert.Equal(t, 2, fake.upsertCalls)

	locked, err := s.IsLocked(ctx, 1, 1, 1)
	assert.NoError(t, err)
	assert.True(t, locked)
}

func TestLockFailurePreservesState(t *testing.T) {
	ctx := context.Background()
	fake := scoringFake()
	s := newTestSubmissionService(fake)

	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 42))
	fake.failWrites = true
	assert.ErrorIs(t, s.Lock(ctx, 1, 1, 1), errStorage)

	// still unlocked and editable
	locked, err := s.IsLocked(ctx, 1, 1, 1)
	assert.NoError(t, err)
	assert.False(t, locked)
	fake.failWrites = false
	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 50))
	points, _ := s.GetScore(ctx, 1, 1, 1, 10)
	assert.Equal(t, 50.0, points)
}

func TestUnlockAllowsEditingAgain(t *testing.T) {
	ctx := context.Background()
	s := newTestSubmissionService(scoringFake())

	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 42))
	assert.NoError(t, s.Lock(ctx, 1, 1, 1))
	assert.NoError(t, s.Unlock(ctx, 1, 1, 1))

	// values survive the unlock
	points, err := s.GetScore(ctx, 1, 1, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 42.0, points)

	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 55))
	points, _ = s.GetScore(ctx, 1, 1, 1, 10)
	assert.Equal(t, 55.0, points)
}

func TestRankingLockRequiresRank(t *testing.T) {
	ctx := context.Background()
	fake := rankingFake()
	s := newTestSubmissionService(fake)

	assert.ErrorIs(t, s.Lock(ctx, 2, 1, 1), ErrNoRankAssigned)
	// the rejection happens before any write
	assert.Equal(t, 0, fake.upsertCalls)

	assert.NoError(t, s.SetRanking(ctx, 2, 1, 1, 3))
	assert.NoError(t, s.Lock(ctx, 2, 1, 1))
	assert.Equal(t, 1, fake.upsertCalls)
}

func TestSetRankingValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestSubmissionService(rankingFake())
	assert.ErrorIs(t, s.SetRanking(ctx, 2, 1, 1, 0), ErrInvalidRank)
	assert.ErrorIs(t, s.SetRanking(ctx, 2, 1, 1, -2), ErrInvalidRank)
	assert.NoError(t, s.SetRanking(ctx, 2, 1, 1, 1))
}

func TestSetRankingOnScoringCategory(t *testing.T) {
	ctx := context.Background()
	s := newTestSubmissionService(scoringFake())
	assert.ErrorIs(t, s.SetRanking(ctx, 1, 1, 1, 1), ErrWrongCategory)
}

func TestSessionHydratesFromPersistedRows(t *testing.T) {
	ctx := context.Background()
	fake := scoringFake()
	fake.scores = []*repository.Score{
		{JudgeId: 1, ParticipantId: 1, CriterionId: 10, CategoryId: 1, Points: 33, Submitted: true},
		{JudgeId: 1, ParticipantId: 2, CriterionId: 10, CategoryId: 1, Points: 20, Submitted: false},
	}
	s := newTestSubmissionService(fake)

	points, err := s.GetScore(ctx, 1, 1, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 33.0, points)

	locked, err := s.IsLocked(ctx, 1, 1, 1)
	assert.NoError(t, err)
	assert.True(t, locked)
	locked, err = s.IsLocked(ctx, 1, 1, 2)
	assert.NoError(t, err)
	assert.False(t, locked)
}

func TestSheetSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := newTestSubmissionService(scoringFake())

	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 42))
	sheet, err := s.Sheet(ctx, 1, 1)
	assert.NoError(t, err)

	sheet.Scores[1][10] = 99
	points, _ := s.GetScore(ctx, 1, 1, 1, 10)
	assert.Equal(t, 42.0, points)
}

func TestSessionsAreIsolatedPerJudge(t *testing.T) {
	ctx := context.Background()
	s := newTestSubmissionService(scoringFake())

	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 40))
	assert.NoError(t, s.SetScore(ctx, 1, 2, 1, 10, 20))

	points, _ := s.GetScore(ctx, 1, 1, 1, 10)
	assert.Equal(t, 40.0, points)
	points, _ = s.GetScore(ctx, 1, 2, 1, 10)
	assert.Equal(t, 20.0, points)
}

func TestLockNotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	notifier := NewNotificationService()
	s := NewSubmissionServiceWith(scoringFake(), notifier)

	changes := 0
	unsubscribe := notifier.Subscribe(1, func() { changes++ })
	defer unsubscribe()

	assert.NoError(t, s.SetScore(ctx, 1, 1, 1, 10, 42))
	assert.Equal(t, 0, changes)
	assert.NoError(t, s.Lock(ctx, 1, 1, 1))
	assert.Equal(t, 1, changes)
	assert.NoError(t, s.Unlock(ctx, 1, 1, 1))
	assert.Equal(t, 2, changes)
}
