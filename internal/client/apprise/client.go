package apprise

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"

	"github.com/fusionn-scout/internal/config"
)

// NotifyType is the Apprise message type.
type NotifyType string

const (
	NotifyInfo    NotifyType = "info"
	NotifySuccess NotifyType = "success"
	NotifyWarning NotifyType = "warning"
)

// RunNotice summarizes one discovery run.
type RunNotice struct {
	RunID      string
	Candidates int
	Details    []DiscoveryDetail
}

// Type is success when the run produced candidates, warning when it only
// produced errors, info otherwise.
func (n RunNotice) Type() NotifyType {
	switch {
	case n.Candidates > 0:
		return NotifySuccess
	case lo.SomeBy(n.Details, func(d DiscoveryDetail) bool { return d.Action == "error" }):
		return NotifyWarning
	default:
		return NotifyInfo
	}
}

func (n RunNotice) Title() string {
	return fmt.Sprintf("🔎 Discovery: %d candidates", n.Candidates)
}

// notifyRequest is the JSON body of POST /notify/{key}.
type notifyRequest struct {
	Title  string     `json:"title"`
	Body   string     `json:"body"`
	Type   NotifyType `json:"type"`
	Format string     `json:"format"`
	Tag    string     `json:"tag"`
}

// Response represents an Apprise API response
type Response struct {
	Error string `json:"error,omitempty"`
}

// Client posts discovery run summaries to an Apprise API server.
type Client struct {
	client    *resty.Client
	formatter *SlackFormatter
	key       string
	tag       string
	enabled   bool
}

// NewClient creates a new Apprise client
func NewClient(cfg config.AppriseConfig) *Client {
	key := cfg.Key
	if key == "" {
		key = "apprise"
	}
	tag := cfg.Tag
	if tag == "" {
		tag = "all"
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	return &Client{
		client:    client,
		formatter: &SlackFormatter{},
		key:       key,
		tag:       tag,
		enabled:   cfg.Enabled,
	}
}

// NotifyRun sends the summary of a run. The run id is appended to the body so
// a message can be matched with GET /api/v1/discovery/stats and the logs.
func (c *Client) NotifyRun(ctx context.Context, notice RunNotice) error {
	if !c.enabled {
		return nil
	}

	body := c.formatter.FormatDiscoveryResults(notice.Details)
	if notice.RunID != "" {
		body += fmt.Sprintf("\n\n_run %s_", notice.RunID)
	}

	var apiResp Response
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(notifyRequest{
			Title:  notice.Title(),
			Body:   body,
			Type:   notice.Type(),
			Format: "markdown",
			Tag:    c.tag,
		}).
		SetResult(&apiResp).
		Post(fmt.Sprintf("/notify/%s", c.key))

	if err != nil {
		return fmt.Errorf("sending run %s: %w", notice.RunID, err)
	}

	if resp.IsError() {
		return fmt.Errorf("apprise returned status %d: %s", resp.StatusCode(), resp.String())
	}

	// Apprise can answer 200 with an error in the body
	if apiResp.Error != "" {
		return fmt.Errorf("apprise error: %s", apiResp.Error)
	}

	return nil
}

// IsEnabled returns whether notifications are enabled
func (c *Client) IsEnabled() bool {
	return c.enabled
}
