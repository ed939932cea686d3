package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sennabot/events"
	"sennabot/models"
)

// MockGuildStore is a mock implementation of GuildStore
type MockGuildStore struct {
	mock.Mock
}

func (m *MockGuildStore) Load(ctx context.Context, guildID int64) (models.GuildRecord, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.GuildRecord), args.Error(1)
}

func (m *MockGuildStore) Update(ctx context.Context, guildID int64, fn func(record models.GuildRecord) error) error {
	args := m.Called(ctx, guildID, fn)
	return args.Error(0)
}

func (m *MockGuildStore) Guilds(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockGuildStore) InvalidateCache(guildID int64) {
	m.Called(guildID)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.Event) {
	m.Called(ctx, event)
}
