package repository

import (
	"context"
	"fmt"
	"log"
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
)

var db *gorm.DB

var enumQueries = []string{
	`CREATE TYPE tally.participant_type AS ENUM ('individual', 'group')`,
	`CREATE TYPE tally.event_status AS ENUM ('upcoming', 'ongoing', 'completed')`,
	`CREATE TYPE tally.tabular_type AS ENUM ('scoring', 'ranking')`,
}

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Printf("skipping repository tests, could not construct docker pool: %s", err)
		return
	}

	// uses pool to try to connect to Docker
	err = pool.Client.Ping()
	if err != nil {
		log.Printf("skipping repository tests, docker is not available: %s", err)
		return
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.Run("postgres", "17.2-alpine", []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=postgres", "DATABASE_NAME=postgres"})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}
	resource.Expire(600) // Tell docker to hard kill the container in 10 minutes
	sqlInfo := fmt.Sprintf(
		"host=localhost port=%s user=postgres password=postgres dbname=postgres sslmode=disable search_path=tally",
		resource.GetPort("5432/tcp"))

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	if err := pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(sqlInfo), &gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				TablePrefix:   "tally.",
				SingularTable: false,
			},
			Logger: logger.Default.LogMode(logger.Silent),
		})

		if err != nil {
			return err
		}
		db.Exec(`CREATE SCHEMA IF NOT EXISTS tally`)
		for _, query := range enumQueries {
			x := db.Exec(query)
			if x.Error != nil {
				if strings.Contains(x.Error.Error(), "already exists") {
					continue
				}
			}
		}
		return db.AutoMigrate(
			&Event{},
			&Category{},
			&Criterion{},
			&Participant{},
			&Judge{},
			&Score{},
			&Ranking{},
		)

	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	defer func() {
		if err := pool.Purge(resource); err != nil {
			log.Fatalf("Could not purge resource: %s", err)
		}
	}()
	m.Run()
}

func TearDown() {
	db.Exec("DELETE FROM tally.scores")
	db.Exec("DELETE FROM tally.rankings")
	db.Exec("DELETE FROM tally.judge_assignments")
	db.Exec("DELETE FROM tally.criteria")
	db.Exec("DELETE FROM tally.categories")
	db.Exec("DELETE FROM tally.judges")
	db.Exec("DELETE FROM tally.participants")
	db.Exec("DELETE FROM tally.events")
}

func SetUp() *Event {
	event := &Event{
		Name:            "event1",
		ParticipantType: Individual,
		Status:          Ongoing,
		Categories: []*Category{
			{
				Name:        "Talent",
				TabularType: SCORING,
				Percentage:  50,
				Criteria: []*Criterion{
					{Name: "Execution", Percentage: 60, MaxScore: 60},
					{Name: "Stage Presence", Percentage: 40, MaxScore: 40},
				},
			},
			{
				Name:        "Q&A",
				TabularType: RANKING,
				Percentage:  50,
			},
		},
		Participants: []*Participant{
			{Name: "participant1", DisplayOrder: 1},
			{Name: "participant2", DisplayOrder: 2},
		},
		Judges: []*Judge{
			{Name: "judge1", Code: "code-1"},
			{Name: "judge2", Code: "code-2"},
		},
	}
	err := db.Create(event).Error
	if err != nil {
		log.Fatalf("Error creating event: %v", err)
	}
	return event
}

func TestUpsertScoresIsIdempotentOnNaturalKey(t *testing.T) {
	event := SetUp()
	defer TearDown()
	ctx := context.Background()
	r := NewScoreRepository(db)

	category := event.Categories[0]
	criterion := category.Criteria[0]
	judge := event.Judges[0]
	participant := event.Participants[0]

	first := []*Score{{
		JudgeId:       judge.Id,
		ParticipantId: participant.Id,
		CriterionId:   criterion.Id,
		CategoryId:    category.Id,
		Points:        40,
	}}
	assert.NoError(t, r.UpsertScores(ctx, first))

	// same natural key, new value: replaces instead of duplicating
	second := []*Score{{
		JudgeId:       judge.Id,
		ParticipantId: participant.Id,
		CriterionId:   criterion.Id,
		CategoryId:    category.Id,
		Points:        55,
		Submitted:     true,
	}}
	assert.NoError(t, r.UpsertScores(ctx, second))

	scores, err := r.GetScores(ctx, category.Id, judge.Id)
	assert.NoError(t, err)
	assert.Len(t, scores, 1)
	assert.Equal(t, 55.0, scores[0].Points)
	assert.True(t, scores[0].Submitted)
}

func TestUpsertRankingAndSubmittedFlag(t *testing.T) {
	event := SetUp()
	defer TearDown()
	ctx := context.Background()
	r := NewScoreRepository(db)

	category := event.Categories[1]
	judge := event.Judges[0]
	participant := event.Participants[0]

	assert.NoError(t, r.UpsertRanking(ctx, &Ranking{
		JudgeId:       judge.Id,
		CategoryId:    category.Id,
		ParticipantId: participant.Id,
		Rank:          2,
		Submitted:     true,
	}))

	assert.NoError(t, r.SetRankingSubmitted(ctx, category.Id, judge.Id, participant.Id, false))

	rankings, err := r.GetRankings(ctx, category.Id, judge.Id)
	assert.NoError(t, err)
	assert.Len(t, rankings, 1)
	// the value survives, only the marker is cleared
	assert.Equal(t, 2, rankings[0].Rank)
	assert.False(t, rankings[0].Submitted)
}

func TestScoresAreScopedByJudge(t *testing.T) {
	event := SetUp()
	defer TearDown()
	ctx := context.Background()
	r := NewScoreRepository(db)

	category := event.Categories[0]
	criterion := category.Criteria[0]
	participant := event.Participants[0]

	for i, judge := range event.Judges {
		assert.NoError(t, r.UpsertScores(ctx, []*Score{{
			JudgeId:       judge.Id,
			ParticipantId: participant.Id,
			CriterionId:   criterion.Id,
			CategoryId:    category.Id,
			Points:        float64(10 * (i + 1)),
		}}))
	}

	scores, err := r.GetScores(ctx, category.Id, event.Judges[0].Id)
	assert.NoError(t, err)
	assert.Len(t, scores, 1)
	assert.Equal(t, 10.0, scores[0].Points)

	all, err := r.GetScoresForCategory(ctx, category.Id)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeletingEventCascadesToScores(t *testing.T) {
	event := SetUp()
	defer TearDown()
	ctx := context.Background()
	scoreRepository := NewScoreRepository(db)
	eventRepository := NewEventRepository(db)

	category := event.Categories[0]
	assert.NoError(t, scoreRepository.UpsertScores(ctx, []*Score{{
		JudgeId:       event.Judges[0].Id,
		ParticipantId: event.Participants[0].Id,
		CriterionId:   category.Criteria[0].Id,
		CategoryId:    category.Id,
		Points:        30,
	}}))

	assert.NoError(t, eventRepository.Delete(ctx, event.Id))

	scores, err := scoreRepository.GetScoresForCategory(ctx, category.Id)
	assert.NoError(t, err)
	assert.Empty(t, scores)
}
