package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Caia-Tech/pdfocr/pkg/logging"
	"github.com/google/uuid"
)

const deliveryTimeout = 5 * time.Second

// EventHandler is a function that handles run events
type EventHandler func(ctx context.Context, event *RunEvent) error

// Subscription represents an event subscription. Events reach a subscription's
// handler one at a time, in the order the bus dispatched them.
type Subscription struct {
	ID         string
	EventTypes []EventType
	Handler    EventHandler
	channel    chan *RunEvent
	ctx        context.Context
	cancel     context.CancelFunc
}

// EventBus manages pub/sub for run events
type EventBus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	eventBuffer   chan *RunEvent
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	statsMu       sync.Mutex
	stats         EventBusStats
}

// EventBusStats tracks event bus statistics
type EventBusStats struct {
	EventsPublished   int64 `json:"events_published"`
	EventsDelivered   int64 `json:"events_delivered"`
	EventsFailed      int64 `json:"events_failed"`
	EventsDropped     int64 `json:"events_dropped"`
	ActiveSubscribers int64 `json:"active_subscribers"`
	EventsInBuffer    int64 `json:"events_in_buffer"`
}

// NewEventBus creates a new event bus
func NewEventBus(bufferSize, workers int) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	eb := &EventBus{
		subscriptions: make(map[string]*Subscription),
		eventBuffer:   make(chan *RunEvent, bufferSize),
		ctx:           ctx,
		cancel:        cancel,
	}

	for i := 0; i < workers; i++ {
		eb.wg.Add(1)
		go eb.worker(i)
	}

	logger := logging.GetLogger("eventbus")
	logger.Info().
		Int("buffer_size", bufferSize).
		Int("workers", workers).
		Msg("Event bus started")

	return eb
}

// Publish queues an event for delivery. It never blocks: a full buffer drops the event.
func (eb *EventBus) Publish(event *RunEvent) error {
	if eb.ctx.Err() != nil {
		return fmt.Errorf("event bus is shutting down")
	}

	select {
	case eb.eventBuffer <- event:
		eb.statsMu.Lock()
		eb.stats.EventsPublished++
		eb.statsMu.Unlock()
		return nil
	default:
		eb.statsMu.Lock()
		eb.stats.EventsDropped++
		eb.statsMu.Unlock()
		logger := logging.GetLogger("eventbus")
		logger.Warn().
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("Event dropped due to full buffer")
		return fmt.Errorf("event buffer is full")
	}
}

// Subscribe creates a new subscription for specific event types. An empty
// type list subscribes to every event.
func (eb *EventBus) Subscribe(eventTypes []EventType, handler EventHandler, bufferSize int) (*Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("event handler cannot be nil")
	}
	if eb.ctx.Err() != nil {
		return nil, fmt.Errorf("event bus is shutting down")
	}

	ctx, cancel := context.WithCancel(eb.ctx)
	sub := &Subscription{
		ID:         "sub_" + uuid.New().String(),
		EventTypes: eventTypes,
		Handler:    handler,
		channel:    make(chan *RunEvent, bufferSize),
		ctx:        ctx,
		cancel:     cancel,
	}

	eb.mu.Lock()
	eb.subscriptions[sub.ID] = sub
	eb.mu.Unlock()

	eb.statsMu.Lock()
	eb.stats.ActiveSubscribers++
	eb.statsMu.Unlock()

	eb.wg.Add(1)
	go eb.consume(sub)

	logger := logging.GetLogger("eventbus")
	logger.Debug().
		Str("subscription_id", sub.ID).
		Interface("event_types", eventTypes).
		Msg("New subscription created")

	return sub, nil
}

// Unsubscribe removes a subscription
func (eb *EventBus) Unsubscribe(subscriptionID string) error {
	eb.mu.Lock()
	sub, exists := eb.subscriptions[subscriptionID]
	if exists {
		delete(eb.subscriptions, subscriptionID)
	}
	eb.mu.Unlock()

	if !exists {
		return fmt.Errorf("subscription not found: %s", subscriptionID)
	}
	sub.cancel()

	eb.statsMu.Lock()
	eb.stats.ActiveSubscribers--
	eb.statsMu.Unlock()
	return nil
}

// Close shuts down the event bus and waits for workers and subscribers to stop
func (eb *EventBus) Close() {
	eb.cancel()
	eb.wg.Wait()
	logger := logging.GetLogger("eventbus")
	logger.Info().Msg("Event bus shut down")
}

// GetStats returns current event bus statistics
func (eb *EventBus) GetStats() EventBusStats {
	eb.statsMu.Lock()
	defer eb.statsMu.Unlock()

	stats := eb.stats
	stats.EventsInBuffer = int64(len(eb.eventBuffer))
	return stats
}

func (eb *EventBus) worker(workerID int) {
	defer eb.wg.Done()
	logger := logging.GetLogger("eventbus")

	for {
		select {
		case event := <-eb.eventBuffer:
			eb.deliverEvent(event)
		case <-eb.ctx.Done():
			logger.Debug().Int("worker_id", workerID).Msg("Event bus worker stopping")
			return
		}
	}
}

func (eb *EventBus) deliverEvent(event *RunEvent) {
	eb.mu.RLock()
	matching := make([]*Subscription, 0, len(eb.subscriptions))
	for _, sub := range eb.subscriptions {
		if sub.matches(event) {
			matching = append(matching, sub)
		}
	}
	eb.mu.RUnlock()

	logger := logging.GetLogger("eventbus")
	for _, sub := range matching {
		timer := time.NewTimer(deliveryTimeout)
		select {
		case sub.channel <- event:
		case <-sub.ctx.Done():
		case <-timer.C:
			eb.recordFailure()
			logger.Warn().
				Str("subscription_id", sub.ID).
				Str("event_id", event.ID).
				Msg("Event delivery timeout")
		}
		timer.Stop()
	}
}

func (eb *EventBus) consume(sub *Subscription) {
	defer eb.wg.Done()
	logger := logging.GetLogger("eventbus")

	for {
		select {
		case event := <-sub.channel:
			if err := sub.Handler(sub.ctx, event); err != nil {
				eb.recordFailure()
				logger.Error().
					Err(err).
					Str("subscription_id", sub.ID).
					Str("event_id", event.ID).
					Msg("Event handler failed")
				continue
			}
			eb.statsMu.Lock()
			eb.stats.EventsDelivered++
			eb.statsMu.Unlock()
		case <-sub.ctx.Done():
			return
		}
	}
}

func (eb *EventBus) recordFailure() {
	eb.statsMu.Lock()
	eb.stats.EventsFailed++
	eb.statsMu.Unlock()
}

func (sub *Subscription) matches(event *RunEvent) bool {
	if len(sub.EventTypes) == 0 {
		return true
	}
	for _, eventType := range sub.EventTypes {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
