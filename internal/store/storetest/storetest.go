// Package storetest holds behaviour tests shared by every store.Store.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachrag/internal/domain"
	"coachrag/internal/store"
)

// Run exercises s against the store.Store contract. newStore must return an
// empty store; Run closes it.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("CreateAndGet", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()

		a, err := s.Create(ctx, "u1", "we argue about chores")
		require.NoError(t, err)
		assert.NotEmpty(t, a.ID)
		assert.Nil(t, a.Summary)
		assert.False(t, a.CreatedAt.IsZero())

		got, err := s.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "we argue about chores", got.RawText)
		assert.Nil(t, got.Summary)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := open(t, newStore)
		_, err := s.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("SummaryIsWriteOnce", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()
		a, err := s.Create(ctx, "u1", "raw")
		require.NoError(t, err)

		require.NoError(t, s.SetSummary(ctx, a.ID, "first"))
		assert.ErrorIs(t, s.SetSummary(ctx, a.ID, "second"), store.ErrSummaryExists)

		got, err := s.Get(ctx, a.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Summary)
		assert.Equal(t, "first", *got.Summary)

		assert.ErrorIs(t, s.SetSummary(ctx, "nope", "x"), store.ErrNotFound)
	})

	t.Run("ListsKeepOrderAndFilter", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()
		var ids []string
		for _, raw := range []string{"a", "b", "c", "d"} {
			a, err := s.Create(ctx, "u1", raw)
			require.NoError(t, err)
			ids = append(ids, a.ID)
		}
		_, err := s.Create(ctx, "u2", "other user")
		require.NoError(t, err)
		require.NoError(t, s.SetSummary(ctx, ids[1], "sb"))
		require.NoError(t, s.SetSummary(ctx, ids[3], "Error: 401"))

		all, err := s.List(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, ids, answerIDs(all))

		done, err := s.ListWithSummary(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{ids[1], ids[3]}, answerIDs(done))

		pending, err := s.ListPending(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{ids[0], ids[2]}, answerIDs(pending))

		none, err := s.List(ctx, "u3")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("ConcurrentCreate", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Create(ctx, "u1", "raw")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		all, err := s.List(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, all, 8)
	})
}

func open(t *testing.T, newStore func(t *testing.T) store.Store) store.Store {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func answerIDs(as []domain.Answer) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.ID
	}
	return out
}
