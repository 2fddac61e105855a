package service

import (
	"context"
	"tally/repository"

	"gorm.io/gorm"
)

type ParticipantService struct {
	participantRepository *repository.ParticipantRepository
	eventRepository       *repository.EventRepository
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{
		participantRepository: repository.NewParticipantRepository(db),
		eventRepository:       repository.NewEventRepository(db),
	}
}

func (s *ParticipantService) GetParticipantsForEvent(ctx context.Context, eventId int) ([]*repository.Participant, error) {
	return s.participantRepository.GetParticipantsForEvent(ctx, eventId)
}

func (s *ParticipantService) CreateParticipant(ctx context.Context, participant *repository.Participant) (*repository.Participant, error) {
	event, err := s.eventRepository.GetEventById(ctx, participant.EventId)
	if err != nil {
		return nil, err
	}
	// gender only applies to individual contestants
	if event.ParticipantType == repository.Group {
		participant.Gender = nil
	}
	return s.participantRepository.Save(ctx, participant)
}

func (s *ParticipantService) UpdateParticipant(ctx context.Context, participantId int, update *repository.Participant) (*repository.Participant, error) {
	participant, err := s.participantRepository.GetParticipantById(ctx, participantId)
	if err != nil {
		return nil, err
	}
	if update.Name != "" {
		participant.Name = update.Name
	}
	if update.Department != "" {
		participant.Department = update.Department
	}
	if update.Gender != nil {
		participant.Gender = update.Gender
	}
	if update.DisplayOrder != 0 {
		participant.DisplayOrder = update.DisplayOrder
	}
	return s.participantRepository.Save(ctx, participant)
}

func (s *ParticipantService) DeleteParticipant(ctx context.Context, participantId int) error {
	return s.participantRepository.Delete(ctx, participantId)
}
