package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachrag/internal/store"
	"coachrag/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := NewStore(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), s.Path())
	a, err := s.Create(ctx, "u1", "we rarely talk")
	require.NoError(t, err)
	require.NoError(t, s.SetSummary(ctx, a.ID, "communication is rare"))
	require.NoError(t, s.Close())

	// Reopening must not re-run applied migrations.
	s, err = NewStore(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "communication is rare", *got.Summary)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))

	var version int
	require.NoError(t, s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}
