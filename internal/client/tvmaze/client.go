package tvmaze

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/fusionn-scout/internal/config"
	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/internal/version"
	"github.com/fusionn-scout/pkg/logger"
)

type Client struct {
	client  *resty.Client
	limiter *rate.Limiter
	clock   clockwork.Clock
}

// NewClient creates a TVMaze client. A nil clock uses the real clock.
func NewClient(cfg config.TVMazeConfig, clock clockwork.Clock) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "fusionn-scout/"+version.Version).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &Client{
		client:  client,
		limiter: newLimiter(cfg.Requests, cfg.WindowSeconds),
		clock:   clock,
	}
}

func newLimiter(requests, windowSeconds int) *rate.Limiter {
	if requests <= 0 || windowSeconds <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	window := time.Duration(windowSeconds) * time.Second
	return rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
}

// SearchShow returns the single best match for name, or media.ErrSeriesNotFound.
func (c *Client) SearchShow(ctx context.Context, name string) (*Show, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var show Show
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("q", name).
		SetQueryParam("embed", "episodes").
		SetResult(&show).
		Get("/singlesearch/shows")

	if err != nil {
		return nil, fmt.Errorf("searching show: %w", err)
	}

	if resp.IsError() {
		if resp.StatusCode() == http.StatusNotFound {
			return nil, fmt.Errorf("%q: %w", name, media.ErrSeriesNotFound)
		}
		return nil, fmt.Errorf("API error: status=%d", resp.StatusCode())
	}

	return &show, nil
}

// LookupSeries returns a metadata snapshot for name.
func (c *Client) LookupSeries(ctx context.Context, name string) (*media.SeriesInfo, error) {
	show, err := c.SearchShow(ctx, name)
	if err != nil {
		return nil, err
	}

	info := toSeriesInfo(show, c.clock.Now())
	logger.Debugf("[tvmaze] %s → %s (id=%s, %d seasons, latest aired %s)",
		name, info.Name, info.ID, len(info.Seasons), info.LatestEpisode)
	return info, nil
}

func toSeriesInfo(show *Show, now time.Time) *media.SeriesInfo {
	info := &media.SeriesInfo{
		TVMazeID: strconv.Itoa(show.ID),
		Name:     show.Name,
		Seasons:  make(map[int]map[int]media.EpisodeRef),
	}
	if show.Externals.TVRage != nil && *show.Externals.TVRage > 0 {
		info.ID = strconv.Itoa(*show.Externals.TVRage)
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	for _, ep := range show.Embedded.Episodes {
		// Specials have no number and season 0 is never searched.
		if ep.Number == nil || ep.Season <= 0 {
			continue
		}

		ref := media.EpisodeRef{Season: ep.Season, Number: *ep.Number}
		if ep.Airdate != "" {
			if airDate, err := time.Parse(time.DateOnly, ep.Airdate); err == nil {
				ref.AirDate = airDate
			}
		}

		if info.Seasons[ref.Season] == nil {
			info.Seasons[ref.Season] = make(map[int]media.EpisodeRef)
		}
		info.Seasons[ref.Season][ref.Number] = ref

		if ref.HasAirDate() && !ref.AirDate.After(today) && later(ref, info.LatestEpisode) {
			info.LatestEpisode = ref
		}
	}

	return info
}

func later(a, b media.EpisodeRef) bool {
	if a.Season != b.Season {
		return a.Season > b.Season
	}
	return a.Number > b.Number
}
