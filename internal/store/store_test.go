package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/internal/quality"
	"github.com/fusionn-scout/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "scout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSeries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.AddSeries(ctx, "Show B"))
	require.NoError(t, s.AddSeries(ctx, "Show A"))
	require.NoError(t, s.AddSeries(ctx, "show a"), "adding twice is a no-op")
	assert.Error(t, s.AddSeries(ctx, "  "))

	names, err := s.TrackedSeries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Show A", "Show B"}, names)

	require.NoError(t, s.RemoveSeries(ctx, "Show B"))
	assert.ErrorIs(t, s.RemoveSeries(ctx, "Show B"), ErrNotFound)

	names, err = s.TrackedSeries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Show A"}, names)
}

func TestLatestDownload(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	progress, err := s.LatestDownload(ctx, "Show A")
	require.NoError(t, err)
	assert.Nil(t, progress, "nothing downloaded")

	require.NoError(t, s.RecordDownload(ctx, "Show A", 1, 3))
	require.NoError(t, s.RecordDownload(ctx, "Show A", 2, 1))
	require.NoError(t, s.RecordDownload(ctx, "Show A", 1, 10))
	require.NoError(t, s.RecordDownload(ctx, "Show A", 2, 1), "recording twice is a no-op")
	require.NoError(t, s.RecordDownload(ctx, "Show B", 5, 5))
	assert.Error(t, s.RecordDownload(ctx, "Show A", 0, 1))
	assert.Error(t, s.RecordDownload(ctx, "Show A", 1, 0))

	progress, err = s.LatestDownload(ctx, "Show A")
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, media.SeriesProgress{SeriesName: "Show A", Season: 2, Episode: 1}, *progress)
}

func TestQueue(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id1, err := s.QueueAdd(ctx, media.QueueItem{
		Title:          "Some Movie",
		IMDBID:         "tt1234567",
		DesiredQuality: quality.MustParse("720p"),
	})
	require.NoError(t, err)

	id2, err := s.QueueAdd(ctx, media.QueueItem{Title: "Other Movie", TMDBID: "603"})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	_, err = s.QueueAdd(ctx, media.QueueItem{})
	assert.Error(t, err)

	items, err := s.QueueGet(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, id1, items[0].ID)
	assert.Equal(t, "tt1234567", items[0].IMDBID)
	assert.Equal(t, "720p", items[0].DesiredQuality.String())
	assert.True(t, items[0].DesiredQuality.Allows(quality.FromTitle("Some.Movie.2020.1080p.BluRay.x264")))

	assert.Equal(t, "603", items[1].TMDBID)
	assert.True(t, items[1].DesiredQuality.IsAny())

	require.NoError(t, s.QueueRemove(ctx, id1))
	assert.ErrorIs(t, s.QueueRemove(ctx, id1), ErrNotFound)

	items, err = s.QueueGet(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Other Movie", items[0].Title)
}

func TestQueueInvalidStoredQuality(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO movie_queue (title, imdb_id, quality) VALUES ('Broken', 'tt1', '9000p')`)
	require.NoError(t, err)

	items, err := s.QueueGet(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].DesiredQuality.Allows(quality.Tiers[len(quality.Tiers)-1]))
	assert.Equal(t, "9000p", items[0].DesiredQuality.String())
}

func TestQueueReleaseDate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	released := time.Date(2026, 12, 19, 0, 0, 0, 0, time.UTC)
	_, err := s.QueueAdd(ctx, media.QueueItem{Title: "Future Movie", Year: 2026, ReleaseDate: released})
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO movie_queue (title, release_date) VALUES ('Garbled', 'next week')`)
	require.NoError(t, err)

	items, err := s.QueueGet(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 2026, items[0].Year)
	assert.True(t, released.Equal(items[0].ReleaseDate))

	assert.Zero(t, items[1].Year)
	assert.True(t, items[1].ReleaseDate.IsZero())
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scout.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.AddSeries(context.Background(), "Show A"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	names, err := s.TrackedSeries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Show A"}, names)
}
