package tvmaze

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionn-scout/internal/config"
	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

const showJSON = `{
  "id": 82,
  "name": "Game of Thrones",
  "status": "Ended",
  "externals": {"tvrage": 24493, "thetvdb": 121361, "imdb": "tt0944947"},
  "_embedded": {
    "episodes": [
      {"id": 1, "season": 1, "number": 1, "airdate": "2026-09-01"},
      {"id": 2, "season": 1, "number": 2, "airdate": "2026-09-08"},
      {"id": 3, "season": 1, "number": null, "airdate": "2026-09-10", "type": "insignificant_special"},
      {"id": 4, "season": 2, "number": 1, "airdate": "2026-10-19"},
      {"id": 5, "season": 2, "number": 2, "airdate": "2026-10-26"},
      {"id": 6, "season": 2, "number": 3, "airdate": ""}
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	return NewClient(config.TVMazeConfig{BaseURL: server.URL, TimeoutSeconds: 5}, clock)
}

func TestLookupSeries(t *testing.T) {
	var gotPath, gotQuery, gotEmbed string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotEmbed = r.URL.Query().Get("embed")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(showJSON))
	})

	info, err := client.LookupSeries(context.Background(), "Game of Thrones")
	require.NoError(t, err)

	assert.Equal(t, "/singlesearch/shows", gotPath)
	assert.Equal(t, "Game of Thrones", gotQuery)
	assert.Equal(t, "episodes", gotEmbed)

	assert.Equal(t, "24493", info.ID)
	assert.Equal(t, "82", info.TVMazeID)
	assert.Equal(t, "Game of Thrones", info.Name)
	assert.Equal(t, 2, info.EpisodeCount(1), "specials without a number are ignored")
	assert.Equal(t, 3, info.EpisodeCount(2))
	assert.Equal(t, []int{1, 2}, info.SeasonNumbers())

	assert.Equal(t, 2, info.LatestEpisode.Season)
	assert.Equal(t, 1, info.LatestEpisode.Number, "an episode airing today counts as aired")

	ep, ok := info.Episode(2, 3)
	require.True(t, ok)
	assert.False(t, ep.HasAirDate())

	ep, ok = info.Episode(1, 2)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC), ep.AirDate)
}

func TestLookupSeriesWithoutTVRage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "name": "New Show", "externals": {"tvrage": null}, "_embedded": {"episodes": []}}`))
	})

	info, err := client.LookupSeries(context.Background(), "new show")
	require.NoError(t, err)
	assert.Empty(t, info.ID)
	assert.Equal(t, "7", info.TVMazeID)
	assert.Empty(t, info.Seasons)

	target := media.EpisodeTarget(*info, 1, 1)
	assert.Equal(t, "7", target.TVMazeID)
}

func TestLookupSeriesNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.LookupSeries(context.Background(), "does not exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, media.ErrSeriesNotFound)
}

func TestLookupSeriesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.LookupSeries(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, media.ErrSeriesNotFound)
	assert.Contains(t, err.Error(), "status=400")
}

func TestLookupSeriesCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(showJSON))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.LookupSeries(ctx, "x")
	assert.Error(t, err)
}
