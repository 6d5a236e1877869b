package sonarr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

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

func TestLatestWithFile(t *testing.T) {
	tests := []struct {
		name     string
		episodes []Episode
		want     *media.SeriesProgress
	}{
		{
			name:     "no episodes",
			episodes: nil,
			want:     nil,
		},
		{
			name: "nothing downloaded",
			episodes: []Episode{
				{SeasonNumber: 1, EpisodeNumber: 1},
				{SeasonNumber: 1, EpisodeNumber: 2},
			},
			want: nil,
		},
		{
			name: "highest season wins",
			episodes: []Episode{
				{SeasonNumber: 1, EpisodeNumber: 10, HasFile: true},
				{SeasonNumber: 2, EpisodeNumber: 3, HasFile: true},
				{SeasonNumber: 2, EpisodeNumber: 4},
			},
			want: &media.SeriesProgress{SeriesName: "Show A", Season: 2, Episode: 3},
		},
		{
			name: "specials ignored",
			episodes: []Episode{
				{SeasonNumber: 0, EpisodeNumber: 5, HasFile: true},
				{SeasonNumber: 1, EpisodeNumber: 2, HasFile: true},
			},
			want: &media.SeriesProgress{SeriesName: "Show A", Season: 1, Episode: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LatestWithFile("Show A", tt.episodes))
		})
	}
}

func TestProgressSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/series", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		_ = json.NewEncoder(w).Encode([]Series{
			{ID: 1, Title: "Show A", Monitored: true},
			{ID: 2, Title: "Show B", Monitored: false},
		})
	})
	mux.HandleFunc("/api/v3/episode", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("seriesId"))
		_ = json.NewEncoder(w).Encode([]Episode{
			{SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 1, HasFile: true},
			{SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 2, HasFile: true},
			{SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 3},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(config.SonarrConfig{BaseURL: server.URL + "/", APIKey: "key"})
	ctx := context.Background()

	names, err := client.TrackedSeries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Show A"}, names)

	progress, err := client.LatestDownload(ctx, "show a")
	require.NoError(t, err)
	assert.Equal(t, &media.SeriesProgress{SeriesName: "show a", Season: 1, Episode: 2}, progress)

	_, err = client.LatestDownload(ctx, "Show B")
	assert.ErrorIs(t, err, media.ErrSeriesNotFound)
}
