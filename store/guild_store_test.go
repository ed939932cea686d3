package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sennabot/models"
)

const testGuildID int64 = 42
const testUserID int64 = 7

// countingBackend is an in-memory backend that counts reads and writes.
type countingBackend struct {
	mu      sync.Mutex
	records map[int64]models.GuildRecord
	reads   atomic.Int32
	writes  atomic.Int32

	writeErr error
}

func newCountingBackend() *countingBackend {
	return &countingBackend{records: make(map[int64]models.GuildRecord)}
}

func (b *countingBackend) Read(ctx context.Context, guildID int64) (models.GuildRecord, error) {
	b.reads.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	record, ok := b.records[guildID]
	if !ok {
		return models.NewGuildRecord(), nil
	}
	return record.Clone(), nil
}

func (b *countingBackend) Write(ctx context.Context, guildID int64, record models.GuildRecord) error {
	b.writes.Add(1)
	if b.writeErr != nil {
		return b.writeErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[guildID] = record.Clone()
	return nil
}

func (b *countingBackend) Guilds(ctx context.Context) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int64, 0, len(b.records))
	for id := range b.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestStore_Update_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := New(newCountingBackend(), Options{})

	err := st.Update(ctx, testGuildID, func(record models.GuildRecord) error {
		record.GetOrCreate(testUserID).Pockets = 123
		return nil
	})
	require.NoError(t, err)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int64(123), record[testUserID].Pockets)

	// Reloading through the backend agrees with the cache.
	st.InvalidateCache(testGuildID)
	record, err = st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int64(123), record[testUserID].Pockets)
}

func TestStore_CacheServesWithinTTL(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	st := New(backend, Options{})

	_, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	_, err = st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), backend.reads.Load())

	st.InvalidateCache(testGuildID)
	_, err = st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), backend.reads.Load())
}

func TestStore_CacheExpires(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	st := New(backend, Options{CacheTTL: 20 * time.Millisecond})

	_, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, err = st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), backend.reads.Load())
}

func TestStore_Load_ReturnsIsolatedCopy(t *testing.T) {
	ctx := context.Background()
	st := New(newCountingBackend(), Options{})

	err := st.Update(ctx, testGuildID, func(record models.GuildRecord) error {
		record.GetOrCreate(testUserID).Pockets = 10
		return nil
	})
	require.NoError(t, err)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	record[testUserID].Pockets = 9999

	fresh, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), fresh[testUserID].Pockets)
}

func TestStore_Update_FnErrorAbortsSave(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	st := New(backend, Options{})

	boom := errors.New("validation failed")
	err := st.Update(ctx, testGuildID, func(record models.GuildRecord) error {
		record.GetOrCreate(testUserID).Pockets = 777
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, backend.writes.Load())

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Empty(t, record)
}

func TestStore_Update_WriteFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	st := New(backend, Options{})

	err := st.Update(ctx, testGuildID, func(record models.GuildRecord) error {
		record.GetOrCreate(testUserID).Pockets = 10
		return nil
	})
	require.NoError(t, err)

	backend.writeErr = errors.New("disk full")
	err = st.Update(ctx, testGuildID, func(record models.GuildRecord) error {
		record.GetOrCreate(testUserID).Pockets = 9999
		return nil
	})
	assert.Error(t, err)

	// The failed write must not poison the cached state.
	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), record[testUserID].Pockets)
}

func TestStore_ConcurrentUpdates_NoLostIncrements(t *testing.T) {
	ctx := context.Background()
	st := New(newCountingBackend(), Options{LockWait: 5 * time.Second})

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.Update(ctx, testGuildID, func(record models.GuildRecord) error {
				record.GetOrCreate(testUserID).Pockets++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), record[testUserID].Pockets)
}

func TestStore_Contention(t *testing.T) {
	ctx := context.Background()
	st := New(newCountingBackend(), Options{LockWait: 30 * time.Millisecond})

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := st.Update(ctx, testGuildID, func(record models.GuildRecord) error {
			close(held)
			time.Sleep(150 * time.Millisecond)
			return nil
		})
		assert.NoError(t, err)
	}()

	<-held
	_, err := st.Load(ctx, testGuildID)
	assert.ErrorIs(t, err, ErrContention)
	<-done
}

func TestStore_Acquire_ContextCanceled(t *testing.T) {
	st := New(newCountingBackend(), Options{LockWait: time.Second})

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := st.Update(context.Background(), testGuildID, func(record models.GuildRecord) error {
			close(held)
			time.Sleep(100 * time.Millisecond)
			return nil
		})
		assert.NoError(t, err)
	}()

	<-held
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := st.Load(ctx, testGuildID)
	assert.ErrorIs(t, err, context.Canceled)
	<-done
}
