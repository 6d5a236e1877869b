package overseerr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"

	"github.com/fusionn-scout/internal/config"
	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/internal/quality"
	"github.com/fusionn-scout/pkg/logger"
)

const pageSize = 50

// Client serves the movie queue from approved Overseerr requests.
type Client struct {
	client  *resty.Client
	quality *quality.Requirement
}

// NewClient creates an Overseerr client. Queue items get desired as their quality.
func NewClient(cfg config.OverseerrConfig, desired *quality.Requirement) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/api/v1").
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Api-Key", cfg.APIKey).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Client{
		client:  client,
		quality: desired,
	}
}

// GetRequests returns one page of approved requests starting at skip.
func (c *Client) GetRequests(ctx context.Context, skip int) (*RequestPage, error) {
	var page RequestPage
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"take":   strconv.Itoa(pageSize),
			"skip":   strconv.Itoa(skip),
			"filter": "approved",
			"sort":   "added",
		}).
		SetResult(&page).
		Get("/request")

	if err != nil {
		return nil, fmt.Errorf("getting requests: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("API error: status=%d", resp.StatusCode())
	}

	return &page, nil
}

// GetMovie gets movie details by TMDB ID
func (c *Client) GetMovie(ctx context.Context, tmdbID int) (*MovieDetails, error) {
	var details MovieDetails
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&details).
		Get(fmt.Sprintf("/movie/%d", tmdbID))

	if err != nil {
		return nil, fmt.Errorf("getting movie details: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("API error: status=%d", resp.StatusCode())
	}

	return &details, nil
}

// QueueGet returns approved movie requests that are not available yet.
func (c *Client) QueueGet(ctx context.Context) ([]media.QueueItem, error) {
	var requests []Request
	for skip := 0; ; skip += pageSize {
		page, err := c.GetRequests(ctx, skip)
		if err != nil {
			return nil, err
		}
		requests = append(requests, page.Results...)
		if len(page.Results) < pageSize || page.PageInfo.Page >= page.PageInfo.Pages {
			break
		}
	}

	wanted := lo.UniqBy(lo.Filter(requests, func(r Request, _ int) bool {
		return Wanted(r)
	}), func(r Request) int {
		return r.Media.TMDBID
	})

	items := make([]media.QueueItem, 0, len(wanted))
	for _, r := range wanted {
		item := media.QueueItem{
			ID:             int64(r.ID),
			IMDBID:         r.Media.IMDBID,
			TMDBID:         strconv.Itoa(r.Media.TMDBID),
			DesiredQuality: c.quality,
		}

		details, err := c.GetMovie(ctx, r.Media.TMDBID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warnf("[overseerr] request %d (tmdb=%d): %v", r.ID, r.Media.TMDBID, err)
		} else {
			item.Title = details.Title
			if item.IMDBID == "" {
				item.IMDBID = details.ExternalIDs.IMDBID
			}
			if released, err := time.Parse(time.DateOnly, details.ReleaseDate); err == nil {
				item.ReleaseDate = released
				item.Year = released.Year()
			}
		}

		items = append(items, item)
	}

	logger.Debugf("[overseerr] %d wanted of %d approved requests", len(items), len(requests))
	return items, nil
}

// Wanted reports whether an approved request still needs a release.
func Wanted(r Request) bool {
	return r.Type == MediaTypeMovie &&
		r.Status == RequestStatusApproved &&
		r.Media != nil &&
		r.Media.TMDBID > 0 &&
		r.Media.Status < MediaStatusAvailable
}
