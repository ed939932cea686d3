package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_DeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	received := make(chan BalanceChangeEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		defer wg.Done()
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			received <- balanceEvent
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	bus.Publish(context.Background(), BalanceChangeEvent{
		GuildID: 789,
		UserID:  123456,
		Pockets: 40,
		Savings: 500,
		Total:   540,
		Reason:  "pockets_update",
	})

	wg.Wait()

	event := <-received
	assert.Equal(t, int64(789), event.GuildID)
	assert.Equal(t, int64(123456), event.UserID)
	assert.Equal(t, int64(540), event.Total)
	assert.Equal(t, "pockets_update", event.Reason)
}

func TestBus_OnlyMatchingEventTypeDelivered(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var releases int

	done := make(chan struct{})
	bus.Subscribe(EventTypeUserReleased, func(ctx context.Context, event Event) {
		mu.Lock()
		releases++
		mu.Unlock()
		close(done)
	})

	bus.Publish(context.Background(), UserIncarceratedEvent{GuildID: 1, UserID: 2, Tier: "Old Guards"})
	bus.Publish(context.Background(), UserReleasedEvent{GuildID: 1, UserID: 2, Escaped: true})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for release event")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, releases)
}

func TestBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeChallengeResolved, func(ctx context.Context, event Event) {
		panic("handler failure")
	})
	bus.Subscribe(EventTypeChallengeResolved, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Publish(context.Background(), ChallengeResolvedEvent{GuildID: 5, UserID: 6, Won: true})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Second handler never ran")
	}
}
