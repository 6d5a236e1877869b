package overseerr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionn-scout/internal/config"
	"github.com/fusionn-scout/internal/quality"
	"github.com/fusionn-scout/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

func TestQueueGet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/request", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "approved", r.URL.Query().Get("filter"))
		_ = json.NewEncoder(w).Encode(RequestPage{
			PageInfo: PageInfo{Pages: 1, Page: 1, Results: 5},
			Results: []Request{
				{ID: 1, Status: RequestStatusApproved, Type: MediaTypeMovie, Media: &MediaInfo{TMDBID: 42, Status: MediaStatusProcessing}},
				{ID: 2, Status: RequestStatusApproved, Type: MediaTypeMovie, Media: &MediaInfo{TMDBID: 43, IMDBID: "tt7654321", Status: MediaStatusAvailable}},
				{ID: 3, Status: RequestStatusApproved, Type: MediaTypeTV, Media: &MediaInfo{TMDBID: 44, Status: MediaStatusPending}},
				{ID: 4, Status: RequestStatusApproved, Type: MediaTypeMovie, Media: &MediaInfo{TMDBID: 42, Status: MediaStatusProcessing}},
				{ID: 5, Status: RequestStatusApproved, Type: MediaTypeMovie, Media: &MediaInfo{TMDBID: 45, IMDBID: "tt0000045", Status: MediaStatusPending}},
			},
		})
	})
	mux.HandleFunc("/api/v1/movie/42", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(MovieDetails{ID: 42, Title: "Movie A", ReleaseDate: "2026-12-19", ExternalIDs: ExternalIDs{IMDBID: "tt1234567"}})
	})
	mux.HandleFunc("/api/v1/movie/45", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	desired := quality.MustParse("720p")
	client := NewClient(config.OverseerrConfig{BaseURL: server.URL, APIKey: "key"}, desired)

	items, err := client.QueueGet(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "Movie A", items[0].Title)
	assert.Equal(t, "tt1234567", items[0].IMDBID)
	assert.Equal(t, "42", items[0].TMDBID)
	assert.Same(t, desired, items[0].DesiredQuality)
	assert.Equal(t, 2026, items[0].Year)
	assert.Equal(t, time.Date(2026, 12, 19, 0, 0, 0, 0, time.UTC), items[0].ReleaseDate)

	// Details failed: the item is kept with the ids from the request.
	assert.Equal(t, "", items[1].Title)
	assert.Equal(t, "tt0000045", items[1].IMDBID)
	assert.True(t, items[1].ReleaseDate.IsZero())
}

func TestQueueGetPaginates(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/request" {
			_ = json.NewEncoder(w).Encode(MovieDetails{Title: "x"})
			return
		}
		calls++
		results := make([]Request, 0, pageSize)
		n := pageSize
		if r.URL.Query().Get("skip") != "0" {
			n = 1
		}
		for i := range n {
			results = append(results, Request{
				ID: calls*1000 + i, Status: RequestStatusApproved, Type: MediaTypeMovie,
				Media: &MediaInfo{TMDBID: calls*1000 + i, Status: MediaStatusPending},
			})
		}
		_ = json.NewEncoder(w).Encode(RequestPage{PageInfo: PageInfo{Pages: 2, Page: calls}, Results: results})
	}))
	defer server.Close()

	client := NewClient(config.OverseerrConfig{BaseURL: server.URL}, quality.Any())
	items, err := client.QueueGet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, items, pageSize+1)
}

func TestQueueGetAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(config.OverseerrConfig{BaseURL: server.URL}, nil)
	_, err := client.QueueGet(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=403")
}
