package storebuilder

import (
	"context"
	"testing"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/store"
	memorystorage "github.com/ryanparsons7/calendly-notion/internal/store/memory"
	sqlstorage "github.com/ryanparsons7/calendly-notion/internal/store/sql"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := New(ctx, Config{Type: TypeMemory})
		require.NoError(t, err)
		require.IsType(t, &memorystorage.Storage{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := New(ctx, Config{
			Type:     TypeSQL,
			Database: sqlstorage.Config{Driver: sqlstorage.DriverSQLite, Path: ":memory:"},
		})
		require.NoError(t, err)
		defer s.Close(ctx)

		start := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
		r := store.Record{ExternalKey: "ev1", Title: "Alice", StartTime: start, EndTime: start.Add(time.Hour)}
		require.NoError(t, s.Create(ctx, "db-1", &r))
		_, ok, err := s.FindByKey(ctx, "db-1", "ev1")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := New(ctx, Config{Type: "mongo"})
		require.ErrorIs(t, err, ErrUnknownType)
	})
}
