package radarr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fusionn-scout/internal/config"
	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/internal/quality"
	"github.com/fusionn-scout/pkg/logger"
)

// Client serves the movie queue from Radarr's wanted list.
type Client struct {
	client  *resty.Client
	quality *quality.Requirement
}

// NewClient creates a Radarr client. Queue items get desired as their quality.
func NewClient(cfg config.RadarrConfig, desired *quality.Requirement) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/api/v3").
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Api-Key", cfg.APIKey).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Client{client: client, quality: desired}
}

// GetAllMovies returns all movies in Radarr
func (c *Client) GetAllMovies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&movies).
		Get("/movie")

	if err != nil {
		return nil, fmt.Errorf("getting movies: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("API error: status=%d", resp.StatusCode())
	}

	return movies, nil
}

// QueueGet returns monitored, available movies that have no file yet.
func (c *Client) QueueGet(ctx context.Context) ([]media.QueueItem, error) {
	movies, err := c.GetAllMovies(ctx)
	if err != nil {
		return nil, err
	}

	var items []media.QueueItem
	for _, m := range movies {
		if !Wanted(m) {
			continue
		}
		item := media.QueueItem{
			ID:             int64(m.ID),
			Title:          m.Title,
			IMDBID:         m.ImdbID,
			Year:           m.Year,
			ReleaseDate:    m.ReleaseDate(),
			DesiredQuality: c.quality,
		}
		if m.TmdbID > 0 {
			item.TMDBID = strconv.Itoa(m.TmdbID)
		}
		items = append(items, item)
	}

	logger.Debugf("[radarr] %d wanted of %d movies", len(items), len(movies))
	return items, nil
}

// Wanted reports whether a movie should be searched for.
func Wanted(m Movie) bool {
	return m.Monitored && !m.HasFile && m.IsAvailable
}
