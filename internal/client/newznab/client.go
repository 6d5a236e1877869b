package newznab

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"

	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/internal/quality"
	"github.com/fusionn-scout/internal/ratelimit"
	"github.com/fusionn-scout/internal/version"
	"github.com/fusionn-scout/pkg/logger"
)

// Client searches one newznab indexer. All calls on a Client are serialized
// and spaced by Config.MinInterval.
type Client struct {
	cfg    Config
	client *resty.Client
	spacer *ratelimit.Spacer
}

// NewClient creates an indexer client. A nil clock uses the real clock.
func NewClient(cfg Config, clock clockwork.Clock) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// No retries: a failed search is reported and skipped for this run.
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml").
		SetHeader("User-Agent", "fusionn-scout/"+version.Version).
		SetRetryCount(0)

	return &Client{
		cfg:    cfg,
		client: client,
		spacer: ratelimit.NewSpacer(cfg.MinInterval, clock),
	}
}

// Name returns the configured indexer name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Category returns the configured search category.
func (c *Client) Category() Category {
	return c.cfg.Category
}

// BuildRequest builds a request for target against this indexer.
func (c *Client) BuildRequest(target media.SearchTarget) (*Request, error) {
	return BuildRequest(target, c.cfg)
}

// Search builds and executes a request for target.
func (c *Client) Search(ctx context.Context, target media.SearchTarget) ([]Candidate, error) {
	if !c.cfg.Category.Searchable() {
		return c.Execute(ctx, nil)
	}
	req, err := c.BuildRequest(target)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, req)
}

// Execute issues req and parses the returned feed. An empty feed is not an
// error. Music and book indexers are accepted by configuration but have no
// search implementation yet; Execute returns no candidates for them.
func (c *Client) Execute(ctx context.Context, req *Request) ([]Candidate, error) {
	if !c.cfg.Category.Searchable() {
		logger.Warnf("[newznab] %s: category %s is not supported yet, skipping", c.cfg.Name, c.cfg.Category)
		return nil, nil
	}
	if req == nil {
		return nil, fmt.Errorf("indexer %s: nil request", c.cfg.Name)
	}

	var candidates []Candidate
	err := c.spacer.Do(ctx, func(ctx context.Context) error {
		var err error
		candidates, err = c.fetch(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (c *Client) fetch(ctx context.Context, req *Request) ([]Candidate, error) {
	start := time.Now()
	logger.Debugf("[newznab] %s: GET %s", c.cfg.Name, redact(req.URL))

	resp, err := c.client.R().
		SetContext(ctx).
		Get(req.URL)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexerUnavailable, c.cfg.Name, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: API error: status=%d", ErrIndexerUnavailable, c.cfg.Name, resp.StatusCode())
	}

	parsed, err := parseFeed(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIndexerUnavailable, c.cfg.Name, err)
	}

	if parsed.errCode != "" || parsed.errDescription != "" {
		return nil, fmt.Errorf("%w: %s: API error: code=%s %s",
			ErrIndexerUnavailable, c.cfg.Name, parsed.errCode, parsed.errDescription)
	}

	candidates := make([]Candidate, 0, len(parsed.entries))
	for _, entry := range parsed.entries {
		candidates = append(candidates, c.toCandidate(entry))
	}

	logger.Debugf("[newznab] %s: %q → %d results (%v)",
		c.cfg.Name, req.Target.Title, len(candidates), time.Since(start).Round(time.Millisecond))

	return candidates, nil
}

func (c *Client) toCandidate(entry rawEntry) Candidate {
	title := unescape(entry.fields.Get(FieldTitle))

	link := entry.fields.Get(FieldLink)
	if link == "" {
		link = entry.fields.Get(FieldEnclosureURL)
	}

	var attrs map[string]string
	if len(entry.attrs) > 0 {
		attrs = entry.attrs
	}

	return Candidate{
		Title:   title,
		URL:     unescape(link),
		Indexer: c.cfg.Name,
		Fields:  entry.fields,
		Attrs:   attrs,
		Quality: quality.Deferred(func() quality.Quality {
			return quality.FromTitle(title)
		}),
	}
}
