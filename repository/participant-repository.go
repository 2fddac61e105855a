package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Participant struct {
	Id         int     `gorm:"primaryKey"`
	EventId    int     `gorm:"not null;index"`
	Name       string  `gorm:"not null"`
	Department string  `gorm:"not null;default:''"`
	Gender     *string `gorm:"null"` // individual events only
	// DisplayOrder drives judge-facing ordering and tie-break stability.
	DisplayOrder int `gorm:"not null;default:0"`
}

type ParticipantRepository struct {
	DB *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

func (r *ParticipantRepository) GetParticipantById(ctx context.Context, participantId int) (*Participant, error) {
	var participant *Participant
	result := r.DB.WithContext(ctx).First(&participant, participantId)
	if result.Error != nil {
		return nil, result.Error
	}
	return participant, nil
}

func (r *ParticipantRepository) GetParticipantsForEvent(ctx context.Context, eventId int) ([]*Participant, error) {
	var participants []*Participant
	result := r.DB.WithContext(ctx).Where("event_id = ?", eventId).Order("display_order, id").Find(&participants)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find participants for event %d: %v", eventId, result.Error)
	}
	return participants, nil
}

func (r *ParticipantRepository) Save(ctx context.Context, participant *Participant) (*Participant, error) {
	result := r.DB.WithContext(ctx).Save(participant)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save participant: %v", result.Error)
	}
	return participant, nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, participantId int) error {
	result := r.DB.WithContext(ctx).Delete(&Participant{Id: participantId})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
