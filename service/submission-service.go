package service

import (
	"context"
	"sync"
	"tally/app_error"
	"tally/metrics"
	"tally/repository"

	"gorm.io/gorm"
)

var (
	// ErrNoRankAssigned rejects a ranking lock before any I/O happens.
	ErrNoRankAssigned   = app_error.New(409, "no rank assigned for participant")
	ErrUnknownCriterion = app_error.New(400, "criterion does not belong to this category")
	ErrScoreOutOfBounds = app_error.New(400, "points outside the criterion bounds")
	ErrInvalidRank      = app_error.New(400, "rank must be a positive integer")
	ErrWrongCategory    = app_error.New(400, "operation does not match the category type")
)

// SubmissionPersistence is the slice of the persistence collaborator the
// submission store depends on: read rows, write rows. Implemented by the
// gorm repositories in production and by fakes in tests.
type SubmissionPersistence interface {
	GetCategoryWithCriteria(ctx context.Context, categoryId int) (*repository.Category, error)
	GetScores(ctx context.Context, categoryId, judgeId int) ([]*repository.Score, error)
	GetRankings(ctx context.Context, categoryId, judgeId int) ([]*repository.Ranking, error)
	UpsertScores(ctx context.Context, scores []*repository.Score) error
	UpsertRanking(ctx context.Context, ranking *repository.Ranking) error
	SetScoresSubmitted(ctx context.Context, categoryId, judgeId, participantId int, submitted bool) error
	SetRankingSubmitted(ctx context.Context, categoryId, judgeId, participantId int, submitted bool) error
}

type gormSubmissionPersistence struct {
	scores     *repository.ScoreRepository
	categories *repository.CategoryRepository
}

func (g gormSubmissionPersistence) GetCategoryWithCriteria(ctx context.Context, categoryId int) (*repository.Category, error) {
	return g.categories.GetCategoryById(ctx, categoryId, "Criteria")
}

func (g gormSubmissionPersistence) GetScores(ctx context.Context, categoryId, judgeId int) ([]*repository.Score, error) {
	return g.scores.GetScores(ctx, categoryId, judgeId)
}

func (g gormSubmissionPersistence) GetRankings(ctx context.Context, categoryId, judgeId int) ([]*repository.Ranking, error) {
	return g.scores.GetRankings(ctx, categoryId, judgeId)
}

func (g gormSubmissionPersistence) UpsertScores(ctx context.Context, scores []*repository.Score) error {
	return g.scores.UpsertScores(ctx, scores)
}

func (g gormSubmissionPersistence) UpsertRanking(ctx context.Context, ranking *repository.Ranking) error {
	return g.scores.UpsertRanking(ctx, ranking)
}

func (g gormSubmissionPersistence) SetScoresSubmitted(ctx context.Context, categoryId, judgeId, participantId int, submitted bool) error {
	return g.scores.SetScoresSubmitted(ctx, categoryId, judgeId, participantId, submitted)
}

func (g gormSubmissionPersistence) SetRankingSubmitted(ctx context.Context, categoryId, judgeId, participantId int, submitted bool) error {
	return g.scores.SetRankingSubmitted(ctx, categoryId, judgeId, participantId, submitted)
}

type sessionKey struct {
	CategoryId int
	JudgeId    int
}

// judgeSession holds one judge's draft state for one category. Drafts
// live in memory; rows are persisted with the submitted marker on lock.
// Locked means "the last successful persist carried the marker": a failed
// persist never advances the flag.
type judgeSession struct {
	categoryId int
	judgeId    int
	eventId    int
	ranking    bool
	criteria   map[int]*repository.Criterion

	mu     sync.Mutex
	scores map[int]map[int]float64
	ranks  map[int]int
	locked map[int]bool
}

// SheetSnapshot is a copy of a session's current state.
type SheetSnapshot struct {
	CategoryId int
	JudgeId    int
	Ranking    bool
	Scores     map[int]map[int]float64
	Ranks      map[int]int
	Locked     map[int]bool
}

// SubmissionService owns the judge sessions. Sessions are scoped to a
// (category, judge) pair so that one process can serve many judges
// without state bleeding between them.
type SubmissionService struct {
	mu          sync.Mutex
	sessions    map[sessionKey]*judgeSession
	persistence SubmissionPersistence
	notifier    *NotificationService
}

func NewSubmissionService(db *gorm.DB, notifier *NotificationService) *SubmissionService {
	return NewSubmissionServiceWith(gormSubmissionPersistence{
		scores:     repository.NewScoreRepository(db),
		categories: repository.NewCategoryRepository(db),
	}, notifier)
}

func NewSubmissionServiceWith(persistence SubmissionPersistence, notifier *NotificationService) *SubmissionService {
	return &SubmissionService{
		sessions:    make(map[sessionKey]*judgeSession),
		persistence: persistence,
		notifier:    notifier,
	}
}

// session returns the hydrated session for a (category, judge) pair,
// loading persisted rows on first use. A row with the submitted marker
// means the tuple is locked; drafts that were never locked only exist in
// the session.
func (s *SubmissionService) session(ctx context.Context, categoryId, judgeId int) (*judgeSession, error) {
	key := sessionKey{CategoryId: categoryId, JudgeId: judgeId}
	s.mu.Lock()
	if session, ok := s.sessions[key]; ok {
		s.mu.Unlock()
		return session, nil
	}
	s.mu.Unlock()

	category, err := s.persistence.GetCategoryWithCriteria(ctx, categoryId)
	if err != nil {
		return nil, err
	}
	session := &judgeSession{
		categoryId: categoryId,
		judgeId:    judgeId,
		eventId:    category.EventId,
		ranking:    category.TabularType == repository.RANKING,
		criteria:   make(map[int]*repository.Criterion, len(category.Criteria)),
		scores:     make(map[int]map[int]float64),
		ranks:      make(map[int]int),
		locked:     make(map[int]bool),
	}
	for _, criterion := range category.Criteria {
		session.criteria[criterion.Id] = criterion
	}

	if session.ranking {
		rankings, err := s.persistence.GetRankings(ctx, categoryId, judgeId)
		if err != nil {
			return nil, err
		}
		for _, ranking := range rankings {
			session.ranks[ranking.ParticipantId] = ranking.Rank
			if ranking.Submitted {
				session.locked[ranking.ParticipantId] = true
			}
		}
	} else {
		scores, err := s.persistence.GetScores(ctx, categoryId, judgeId)
		if err != nil {
			return nil, err
		}
		for _, score := range scores {
			if session.scores[score.ParticipantId] == nil {
				session.scores[score.ParticipantId] = make(map[int]float64)
			}
			session.scores[score.ParticipantId][score.CriterionId] = score.Points
			if score.Submitted {
				session.locked[score.ParticipantId] = true
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[key]; ok {
		return existing, nil
	}
	s.sessions[key] = session
	return session, nil
}

// SetScore records a draft point value. Writes against a locked
// participant are silently ignored: the caller's UI shows locked fields
// as read-only, so there is nothing to report.
func (s *SubmissionService) SetScore(ctx context.Context, categoryId, judgeId, participantId, criterionId int, points float64) error {
	session, err := s.session(ctx, categoryId, judgeId)
	if err != nil {
		return err
	}
	if session.ranking {
		return ErrWrongCategory
	}
	criterion, ok := session.criteria[criterionId]
	if !ok {
		return ErrUnknownCriterion
	}
	if points < criterion.MinScore || (criterion.MaxScore > 0 && points > criterion.MaxScore) {
		return ErrScoreOutOfBounds
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.locked[participantId] {
		metrics.RejectedLockedWrites.Inc()
		return nil
	}
	if session.scores[participantId] == nil {
		session.scores[participantId] = make(map[int]float64)
	}
	session.scores[participantId][criterionId] = points
	return nil
}

// SetRanking records a draft holistic rank, with the same lock guard as
// SetScore. Duplicate ranks across participants are accepted; whether a
// judge's ranks must form a permutation is a product decision that is
// left open (see DESIGN notes).
func (s *SubmissionService) SetRanking(ctx context.Context, categoryId, judgeId, participantId, rank int) error {
	session, err := s.session(ctx, categoryId, judgeId)
	if err != nil {
		return err
	}
	if !session.ranking {
		return ErrWrongCategory
	}
	if rank < 1 {
		return ErrInvalidRank
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.locked[participantId] {
		metrics.RejectedLockedWrites.Inc()
		return nil
	}
	session.ranks[participantId] = rank
	return nil
}

// Lock persists the judge's current values for a participant with the
// submitted marker and makes the tuple immutable. Re-locking an already
// locked tuple re-runs the same upsert against the same natural key, so
// the operation is idempotent. On persistence failure nothing changes.
func (s *SubmissionService) Lock(ctx context.Context, categoryId, judgeId, participantId int) error {
	session, err := s.session(ctx, categoryId, judgeId)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.ranking {
		rank, ok := session.ranks[participantId]
		if !ok || rank == 0 {
			return ErrNoRankAssigned
		}
		err = s.persistence.UpsertRanking(ctx, &repository.Ranking{
			JudgeId:       judgeId,
			CategoryId:    categoryId,
			ParticipantId: participantId,
			Rank:          rank,
			Submitted:     true,
		})
		if err != nil {
			return err
		}
		metrics.SubmissionsLocked.WithLabelValues(string(repository.RANKING)).Inc()
	} else {
		rows := make([]*repository.Score, 0, len(session.criteria))
		for criterionId := range session.criteria {
			rows = append(rows, &repository.Score{
				JudgeId:       judgeId,
				ParticipantId: participantId,
				CriterionId:   criterionId,
				CategoryId:    categoryId,
				Points:        session.scores[participantId][criterionId],
				Submitted:     true,
			})
		}
		if err := s.persistence.UpsertScores(ctx, rows); err != nil {
			return err
		}
		metrics.SubmissionsLocked.WithLabelValues(string(repository.SCORING)).Inc()
	}

	session.locked[participantId] = true
	s.notifier.Publish(ScoreChange{
		EventId:       session.eventId,
		CategoryId:    categoryId,
		JudgeId:       judgeId,
		ParticipantId: participantId,
		Ranking:       session.ranking,
	})
	return nil
}

// Unlock clears the submitted marker and makes the tuple editable again.
// The persisted values stay in place, only the immutability flag changes.
func (s *SubmissionService) Unlock(ctx context.Context, categoryId, judgeId, participantId int) error {
	session, err := s.session(ctx, categoryId, judgeId)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.ranking {
		err = s.persistence.SetRankingSubmitted(ctx, categoryId, judgeId, participantId, false)
	} else {
		err = s.persistence.SetScoresSubmitted(ctx, categoryId, judgeId, participantId, false)
	}
	if err != nil {
		return err
	}

	session.locked[participantId] = false
	metrics.SubmissionsUnlocked.Inc()
	s.notifier.Publish(ScoreChange{
		EventId:       session.eventId,
		CategoryId:    categoryId,
		JudgeId:       judgeId,
		ParticipantId: participantId,
		Ranking:       session.ranking,
	})
	return nil
}

// GetScore returns the draft value for a participant/criterion, 0 when
// nothing has been entered yet.
func (s *SubmissionService) GetScore(ctx context.Context, categoryId, judgeId, participantId, criterionId int) (float64, error) {
	session, err := s.session(ctx, categoryId, judgeId)
	if err != nil {
		return 0, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.scores[participantId][criterionId], nil
}

// GetRank returns the draft rank for a participant, 0 when unset.
func (s *SubmissionService) GetRank(ctx context.Context, categoryId, judgeId, participantId int) (int, error) {
	session, err := s.session(ctx, categoryId, judgeId)
	if err != nil {
		return 0, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.ranks[participantId], nil
}

func (s *SubmissionService) IsLocked(ctx context.Context, categoryId, judgeId, participantId int) (bool, error) {
	session, err := s.session(ctx, categoryId, judgeId)
	if err != nil {
		return false, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.locked[participantId], nil
}

// Sheet returns a copy of the judge's full session state for a category.
func (s *SubmissionService) Sheet(ctx context.Context, categoryId, judgeId int) (*SheetSnapshot, error) {
	session, err := s.session(ctx, categoryId, judgeId)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	snapshot := &SheetSnapshot{
		CategoryId: categoryId,
		JudgeId:    judgeId,
		Ranking:    session.ranking,
		Scores:     make(map[int]map[int]float64, len(session.scores)),
		Ranks:      make(map[int]int, len(session.ranks)),
		Locked:     make(map[int]bool, len(session.locked)),
	}
	for participantId, byCriterion := range session.scores {
		snapshot.Scores[participantId] = make(map[int]float64, len(byCriterion))
		for criterionId, points := range byCriterion {
			snapshot.Scores[participantId][criterionId] = points
		}
	}
	for participantId, rank := range session.ranks {
		snapshot.Ranks[participantId] = rank
	}
	for participantId, locked := range session.locked {
		snapshot.Locked[participantId] = locked
	}
	return snapshot, nil
}
