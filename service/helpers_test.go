package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sennabot/store"
)

// newTestStore backs tests with a real store over a throwaway data
// directory so locking, caching and persistence behave as in production.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	backend, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return store.New(backend, store.Options{})
}
