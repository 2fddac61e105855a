package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"
	"tally/config"
	"tally/metrics"
	"tally/utils"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// ScoreChange is the row-level change message emitted whenever a judge's
// submission for a participant is locked or unlocked.
type ScoreChange struct {
	EventId       int  `json:"event_id"`
	CategoryId    int  `json:"category_id"`
	JudgeId       int  `json:"judge_id"`
	ParticipantId int  `json:"participant_id"`
	Ranking       bool `json:"ranking"`
}

type subscriber struct {
	id       int
	onChange func()
}

// NotificationService fans change notifications out to in-process
// subscribers. Local writes are dispatched directly; writes from other
// backend replicas arrive through a kafka topic per event. No ordering or
// debouncing is guaranteed: consumers recompute idempotent views, so a
// duplicate callback is only wasted work.
type NotificationService struct {
	mu         sync.Mutex
	nextId     int
	byCategory map[int][]subscriber
	byEvent    map[int][]subscriber
	writers    map[int]*kafka.Writer
	consumers  map[int]bool
	consumerId string
}

func NewNotificationService() *NotificationService {
	return &NotificationService{
		byCategory: make(map[int][]subscriber),
		byEvent:    make(map[int][]subscriber),
		writers:    make(map[int]*kafka.Writer),
		consumers:  make(map[int]bool),
		consumerId: uuid.NewString(),
	}
}

// Subscribe registers onChange for every change in a category. The
// returned function removes the subscription.
func (n *NotificationService) Subscribe(categoryId int, onChange func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextId++
	id := n.nextId
	n.byCategory[categoryId] = append(n.byCategory[categoryId], subscriber{id: id, onChange: onChange})
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.byCategory[categoryId] = removeSubscriber(n.byCategory[categoryId], id)
	}
}

// SubscribeEvent registers onChange for changes in any of the event's
// categories and starts the kafka consumer for the event if needed.
func (n *NotificationService) SubscribeEvent(eventId int, onChange func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextId++
	id := n.nextId
	n.byEvent[eventId] = append(n.byEvent[eventId], subscriber{id: id, onChange: onChange})
	n.startConsumerLocked(eventId)
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.byEvent[eventId] = removeSubscriber(n.byEvent[eventId], id)
	}
}

// StartEventFeed lazily starts the kafka consumer for an event so that
// category-level subscribers also see changes made by other replicas.
func (n *NotificationService) StartEventFeed(eventId int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.startConsumerLocked(eventId)
}

func removeSubscriber(subscribers []subscriber, id int) []subscriber {
	kept := make([]subscriber, 0, len(subscribers))
	for _, s := range subscribers {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	return kept
}

// Publish dispatches a change to local subscribers and best-effort
// forwards it to kafka for other replicas. The forward runs detached
// from the judge's request: a broker outage never fails or delays the
// judge's operation.
func (n *NotificationService) Publish(change ScoreChange) {
	metrics.ScoreChangesPublished.Inc()
	n.dispatch(change)
	go n.forward(change)
}

func (n *NotificationService) forward(change ScoreChange) {
	writer, err := n.writer(change.EventId)
	if err != nil {
		log.Warnf("score change not forwarded to kafka: %v", err)
		return
	}
	payload, err := json.Marshal(change)
	if err != nil {
		log.Errorf("failed to serialize score change: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		log.Warnf("score change not forwarded to kafka: %v", err)
	}
}

func (n *NotificationService) dispatch(change ScoreChange) {
	n.mu.Lock()
	callbacks := make([]func(), 0)
	for _, s := range n.byCategory[change.CategoryId] {
		callbacks = append(callbacks, s.onChange)
	}
	for _, s := range n.byEvent[change.EventId] {
		callbacks = append(callbacks, s.onChange)
	}
	n.mu.Unlock()
	// callbacks run outside the lock so a subscriber may unsubscribe
	for _, onChange := range callbacks {
		onChange()
	}
}

func (n *NotificationService) writer(eventId int) (*kafka.Writer, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if writer, ok := n.writers[eventId]; ok {
		return writer, nil
	}
	writer, err := config.GetWriter(eventId)
	if err != nil {
		return nil, err
	}
	n.writers[eventId] = writer
	return writer, nil
}

func (n *NotificationService) startConsumerLocked(eventId int) {
	if n.consumers[eventId] {
		return
	}
	n.consumers[eventId] = true
	go n.consume(eventId)
}

func (n *NotificationService) consume(eventId int) {
	reader, err := config.GetReader(eventId, n.consumerId)
	if err != nil {
		log.Warnf("change feed for event %d unavailable, local notifications only: %v", eventId, err)
		n.mu.Lock()
		n.consumers[eventId] = false
		n.mu.Unlock()
		return
	}
	defer utils.Closer(reader)()
	for {
		message, err := reader.ReadMessage(context.Background())
		if err != nil {
			log.Warnf("change feed for event %d closed: %v", eventId, err)
			n.mu.Lock()
			n.consumers[eventId] = false
			n.mu.Unlock()
			return
		}
		var change ScoreChange
		if err := json.Unmarshal(message.Value, &change); err != nil {
			log.Errorf("dropping malformed score change: %v", err)
			continue
		}
		metrics.ScoreChangesReceived.Inc()
		n.dispatch(change)
	}
}
