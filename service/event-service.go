package service

import (
	"context"

	"tally/client"
	"tally/repository"
	"tally/scoring"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type EventService struct {
	eventRepository       *repository.EventRepository
	participantRepository *repository.ParticipantRepository
	resultService         *scoring.ResultService
	announcer             *client.DiscordAnnouncer
}

func NewEventService(db *gorm.DB) *EventService {
	announcer, err := client.NewDiscordAnnouncer()
	if err != nil {
		log.Warnf("discord announcements disabled: %v", err)
	}
	return &EventService{
		eventRepository:       repository.NewEventRepository(db),
		participantRepository: repository.NewParticipantRepository(db),
		resultService:         scoring.NewResultService(db),
		announcer:             announcer,
	}
}

func (e *EventService) GetAllEvents(ctx context.Context) ([]*repository.Event, error) {
	return e.eventRepository.FindAll(ctx)
}

func (e *EventService) GetEventById(ctx context.Context, eventId int, preloads ...string) (*repository.Event, error) {
	return e.eventRepository.GetEventById(ctx, eventId, preloads...)
}

func (e *EventService) CreateEvent(ctx context.Context, event *repository.Event) (*repository.Event, error) {
	return e.eventRepository.Save(ctx, event)
}

func (e *EventService) UpdateEvent(ctx context.Context, eventId int, updateEvent *repository.Event) (*repository.Event, error) {
	event, err := e.eventRepository.GetEventById(ctx, eventId)
	if err != nil {
		return nil, err
	}
	completed := updateEvent.Status == repository.Completed && event.Status != repository.Completed
	if updateEvent.Name != "" {
		event.Name = updateEvent.Name
	}
	if updateEvent.ParticipantType != "" {
		event.ParticipantType = updateEvent.ParticipantType
	}
	if updateEvent.Status != "" {
		event.Status = updateEvent.Status
	}
	event, err = e.eventRepository.Save(ctx, event)
	if err != nil {
		return nil, err
	}
	if completed {
		go e.announceFinalResult(event)
	}
	return event, nil
}

func (e *EventService) DeleteEvent(ctx context.Context, eventId int) error {
	return e.eventRepository.Delete(ctx, eventId)
}

func (e *EventService) announceFinalResult(event *repository.Event) {
	if e.announcer == nil {
		return
	}
	ctx := context.Background()
	participants, err := e.participantRepository.GetParticipantsForEvent(ctx, event.Id)
	if err != nil {
		log.Warnf("final results for event %d not announced: %v", event.Id, err)
		return
	}
	result, err := e.resultService.GetFinalResult(ctx, event.Id)
	if err != nil {
		log.Warnf("final results for event %d not announced: %v", event.Id, err)
		return
	}
	if err := e.announcer.AnnounceFinalResult(event, participants, result); err != nil {
		log.Warnf("final results for event %d not announced: %v", event.Id, err)
	}
}
