package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fusionn-scout/internal/client/newznab"
	"github.com/fusionn-scout/internal/quality"
)

const (
	SourceStore  = "store"
	SourceSonarr = "sonarr"
	SourceRadarr = "radarr"

	SourceOverseerr = "overseerr"

	defaultWaitSeconds = 30
)

// Validated holds the typed values derived from a Config.
type Validated struct {
	Indexers []newznab.Config
	// SeriesQuality is nil when episodes are not filtered by quality.
	SeriesQuality  *quality.Requirement
	DefaultQuality *quality.Requirement
}

// Validate checks the config and derives typed indexer configs and quality
// requirements. It never touches the network.
func (c *Config) Validate() (*Validated, error) {
	out := &Validated{}

	names := make(map[string]bool, len(c.Indexers))
	for i, raw := range c.Indexers {
		idx, err := raw.toNewznab(i)
		if err != nil {
			return nil, err
		}
		if names[idx.Name] {
			return nil, fmt.Errorf("indexers[%d]: duplicate name %q", i, idx.Name)
		}
		names[idx.Name] = true
		out.Indexers = append(out.Indexers, idx)
	}

	if expr := strings.TrimSpace(c.Discovery.SeriesQuality); expr != "" {
		req, err := quality.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("discovery.series_quality: %w", err)
		}
		out.SeriesQuality = req
	}

	req, err := quality.Parse(c.Queue.DefaultQuality)
	if err != nil {
		return nil, fmt.Errorf("queue.default_quality: %w", err)
	}
	out.DefaultQuality = req

	if c.Discovery.MetadataWorkers < 0 {
		return nil, errors.New("discovery.metadata_workers must not be negative")
	}

	switch c.Progress.Source {
	case "", SourceStore:
	case SourceSonarr:
		if c.Sonarr.BaseURL == "" {
			return nil, errors.New("progress.source is sonarr but sonarr.base_url is empty")
		}
	default:
		return nil, fmt.Errorf("progress.source: unknown source %q", c.Progress.Source)
	}

	switch c.Queue.Source {
	case "", SourceStore:
	case SourceRadarr:
		if c.Radarr.BaseURL == "" {
			return nil, errors.New("queue.source is radarr but radarr.base_url is empty")
		}
	case SourceOverseerr:
		if c.Overseerr.BaseURL == "" {
			return nil, errors.New("queue.source is overseerr but overseerr.base_url is empty")
		}
	default:
		return nil, fmt.Errorf("queue.source: unknown source %q", c.Queue.Source)
	}

	if c.Apprise.Enabled && c.Apprise.BaseURL == "" {
		return nil, errors.New("apprise is enabled but apprise.base_url is empty")
	}

	return out, nil
}

func (ic IndexerConfig) toNewznab(i int) (newznab.Config, error) {
	category, err := newznab.ParseCategory(ic.Category)
	if err != nil {
		return newznab.Config{}, fmt.Errorf("indexers[%d]: %w", i, err)
	}

	cfg := newznab.Config{
		Name:     strings.TrimSpace(ic.Name),
		Category: category,
		Timeout:  time.Duration(ic.TimeoutSeconds) * time.Second,
	}

	switch {
	case ic.URL != "":
		if _, err := url.Parse(ic.URL); err != nil {
			return newznab.Config{}, fmt.Errorf("indexers[%d]: invalid url: %w", i, err)
		}
		cfg.BaseURL = ic.URL
	case ic.Website != "":
		if ic.APIKey == "" {
			return newznab.Config{}, fmt.Errorf("indexers[%d]: website requires apikey", i)
		}
		cfg.BaseURL = newznab.APIURL(ic.Website)
		cfg.APIKey = ic.APIKey
	default:
		return newznab.Config{}, fmt.Errorf("indexers[%d]: either url or website and apikey are required", i)
	}

	if cfg.Name == "" {
		cfg.Name = hostOf(cfg.BaseURL)
	}

	wait := defaultWaitSeconds
	if ic.WaitSeconds != nil {
		wait = *ic.WaitSeconds
	}
	if wait < 0 {
		return newznab.Config{}, fmt.Errorf("indexers[%d]: wait_seconds must not be negative", i)
	}
	cfg.MinInterval = time.Duration(wait) * time.Second

	return cfg, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
