package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type ParticipantType string

const (
	Individual ParticipantType = "individual"
	Group      ParticipantType = "group"
)

type EventStatus string

const (
	Upcoming  EventStatus = "upcoming"
	Ongoing   EventStatus = "ongoing"
	Completed EventStatus = "completed"
)

type Event struct {
	Id              int             `gorm:"primaryKey"`
	Name            string          `gorm:"not null"`
	ParticipantType ParticipantType `gorm:"not null;default:individual"`
	Status          EventStatus     `gorm:"not null;default:upcoming"`

	Categories   []*Category    `gorm:"foreignKey:EventId;constraint:OnDelete:CASCADE"`
	Participants []*Participant `gorm:"foreignKey:EventId;constraint:OnDelete:CASCADE"`
	Judges       []*Judge       `gorm:"foreignKey:EventId;constraint:OnDelete:CASCADE"`
}

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) GetEventById(ctx context.Context, eventId int, preloads ...string) (*Event, error) {
	var event *Event
	query := r.DB.WithContext(ctx)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&event, eventId)
	if result.Error != nil {
		return nil, result.Error
	}
	return event, nil
}

func (r *EventRepository) Save(ctx context.Context, event *Event) (*Event, error) {
	result := r.DB.WithContext(ctx).Save(event)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save event: %v", result.Error)
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, eventId int) error {
	result := r.DB.WithContext(ctx).Delete(&Event{Id: eventId})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *EventRepository) FindAll(ctx context.Context, preloads ...string) ([]*Event, error) {
	var events []*Event
	query := r.DB.WithContext(ctx)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.Order("id").Find(&events)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find events: %v", result.Error)
	}
	return events, nil
}
