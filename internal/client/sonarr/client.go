package sonarr

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fusionn-scout/internal/config"
	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/pkg/logger"
)

// Client reads series progress from Sonarr: monitored series are tracked and
// the highest episode with a file is the latest download.
type Client struct {
	client *resty.Client

	mu     sync.Mutex
	series map[string]int // lowercase title -> series id
}

func NewClient(cfg config.SonarrConfig) *Client {
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

	return &Client{client: client}
}

// GetAllSeries returns all series in Sonarr
func (c *Client) GetAllSeries(ctx context.Context) ([]Series, error) {
	var series []Series
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&series).
		Get("/series")

	if err != nil {
		return nil, fmt.Errorf("getting series: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("API error: status=%d", resp.StatusCode())
	}

	return series, nil
}

// GetEpisodes returns all episodes for a series
func (c *Client) GetEpisodes(ctx context.Context, seriesID int) ([]Episode, error) {
	var episodes []Episode
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("seriesId", fmt.Sprintf("%d", seriesID)).
		SetResult(&episodes).
		Get("/episode")

	if err != nil {
		return nil, fmt.Errorf("getting episodes: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("API error: status=%d", resp.StatusCode())
	}

	return episodes, nil
}

// TrackedSeries returns the titles of monitored series.
func (c *Client) TrackedSeries(ctx context.Context) ([]string, error) {
	all, err := c.GetAllSeries(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int, len(all))
	var names []string
	for _, s := range all {
		if !s.Monitored {
			continue
		}
		ids[strings.ToLower(s.Title)] = s.ID
		names = append(names, s.Title)
	}

	c.mu.Lock()
	c.series = ids
	c.mu.Unlock()

	logger.Debugf("[sonarr] %d monitored of %d series", len(names), len(all))
	return names, nil
}

// LatestDownload returns the highest episode of name that has a file, or nil
// when none has. Specials are ignored.
func (c *Client) LatestDownload(ctx context.Context, name string) (*media.SeriesProgress, error) {
	id, err := c.seriesID(ctx, name)
	if err != nil {
		return nil, err
	}

	episodes, err := c.GetEpisodes(ctx, id)
	if err != nil {
		return nil, err
	}

	return LatestWithFile(name, episodes), nil
}

func (c *Client) seriesID(ctx context.Context, name string) (int, error) {
	key := strings.ToLower(name)

	c.mu.Lock()
	id, ok := c.series[key]
	cached := c.series != nil
	c.mu.Unlock()

	if ok {
		return id, nil
	}
	if !cached {
		if _, err := c.TrackedSeries(ctx); err != nil {
			return 0, err
		}
		c.mu.Lock()
		id, ok = c.series[key]
		c.mu.Unlock()
		if ok {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, media.ErrSeriesNotFound)
}

// LatestWithFile picks the highest (season, episode) that has a file.
func LatestWithFile(name string, episodes []Episode) *media.SeriesProgress {
	var latest *media.SeriesProgress
	for _, ep := range episodes {
		if !ep.HasFile || ep.SeasonNumber <= 0 || ep.EpisodeNumber <= 0 {
			continue
		}
		if latest == nil ||
			ep.SeasonNumber > latest.Season ||
			(ep.SeasonNumber == latest.Season && ep.EpisodeNumber > latest.Episode) {
			latest = &media.SeriesProgress{SeriesName: name, Season: ep.SeasonNumber, Episode: ep.EpisodeNumber}
		}
	}
	return latest
}
