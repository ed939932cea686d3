package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeUserIncarcerated  EventType = "user_incarcerated"
	EventTypeUserReleased      EventType = "user_released"
	EventTypeChallengeResolved EventType = "challenge_resolved"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent fires after any balance-affecting mutation completes.
type BalanceChangeEvent struct {
	GuildID int64
	UserID  int64
	Pockets int64
	Savings int64
	Total   int64
	Reason  string
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserIncarceratedEvent fires when a user is sent to prison.
type UserIncarceratedEvent struct {
	GuildID   int64
	UserID    int64
	Tier      string
	ReleaseAt int64
}

func (e UserIncarceratedEvent) Type() EventType {
	return EventTypeUserIncarcerated
}

// UserReleasedEvent fires when a user leaves prison, by escape or by
// serving out the sentence.
type UserReleasedEvent struct {
	GuildID int64
	UserID  int64
	Escaped bool
}

func (e UserReleasedEvent) Type() EventType {
	return EventTypeUserReleased
}

// ChallengeResolvedEvent fires when a balance challenge series ends.
type ChallengeResolvedEvent struct {
	GuildID int64
	UserID  int64
	Won     bool
}

func (e ChallengeResolvedEvent) Type() EventType {
	return EventTypeChallengeResolved
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Publish dispatches an event to all registered handlers. Handlers run
// asynchronously so publishers are never blocked, and a panicking handler
// cannot take the process down.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
