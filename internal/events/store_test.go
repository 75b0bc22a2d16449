package events

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func mustEvent(t *testing.T, title string, month, day int, offset time.Duration) Event {
	t.Helper()
	e, err := NewEvent(Input{Title: title, Date: lunar.LunarDate{Month: month, Day: day}}, nil, testNow.Add(offset))
	require.NoError(t, err)
	return e
}

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	late := mustEvent(t, "Mid-autumn dinner", 8, 15, 0)
	early := mustEvent(t, "Reunion", 1, 1, time.Minute)
	sameDay := mustEvent(t, "Lanterns", 8, 15, time.Hour)
	for _, e := range []Event{late, early, sameDay} {
		require.NoError(t, s.Add(ctx, e))
	}
	assert.ErrorIs(t, s.Add(ctx, late), ErrExists)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)
	assert.Equal(t, sameDay.ID, list[2].ID)

	on, err := s.ListOn(ctx, lunar.LunarDate{Month: 8, Day: 15})
	require.NoError(t, err)
	require.Len(t, on, 2)
	assert.Equal(t, late.ID, on[0].ID)

	got, err := s.Get(ctx, early.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reunion", got.Title)
	assert.Equal(t, Personal, got.Type)
	assert.True(t, early.CreatedAt.Equal(got.CreatedAt))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, early.ID))
	assert.ErrorIs(t, s.Delete(ctx, early.ID), ErrNotFound)

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFileStore(t *testing.T) {
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "events.json"), discard)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "events.db"), discard)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	ctx := context.Background()

	s, err := OpenSQLiteStore(path, discard)
	require.NoError(t, err)
	e := mustEvent(t, "Qixi", 7, 7, 0)
	require.NoError(t, s.Add(ctx, e))
	require.NoError(t, s.Close())

	// migrations must not run twice
	s, err = OpenSQLiteStore(path, discard)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, lunar.LunarDate{Month: 7, Day: 7}, got.Date)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(DriverFile, filepath.Join(dir, "events.json"), discard)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(DriverSQLite, filepath.Join(dir, "events.db"), discard)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("postgres", "", discard)
	assert.ErrorContains(t, err, "unknown store driver")
}
