package newznab

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fusionn-scout/internal/media"
)

const apiPath = "/api"

// APIURL derives the api endpoint from an indexer website.
func APIURL(website string) string {
	return strings.TrimRight(website, "/") + apiPath
}

// BuildRequest turns a search target into a request against cfg. Parameters
// are appended to BaseURL as-is so user-supplied urls keep their own query.
func BuildRequest(target media.SearchTarget, cfg Config) (*Request, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("indexer %s: no base url", cfg.Name)
	}

	params := url.Values{}
	switch target.Kind {
	case media.TargetMovie:
		imdbID := strings.TrimPrefix(strings.TrimSpace(target.IMDBID), "tt")
		if imdbID == "" {
			return nil, fmt.Errorf("movie target %q has no imdb id", target.Title)
		}
		params.Set("t", "movie")
		params.Set("imdbid", imdbID)

	case media.TargetEpisode:
		params.Set("t", "tvsearch")
		switch {
		case target.SeriesRefID != "":
			params.Set("rid", target.SeriesRefID)
		case target.TVMazeID != "":
			params.Set("tvmazeid", target.TVMazeID)
		default:
			return nil, fmt.Errorf("episode target %q has no series id", target.Title)
		}
		params.Set("season", strconv.Itoa(target.Season))
		params.Set("ep", strconv.Itoa(target.Number))

	default:
		return nil, fmt.Errorf("unsupported target kind %q", target.Kind)
	}

	if cfg.APIKey != "" {
		params.Set("apikey", cfg.APIKey)
	}
	params.Set("extended", "1")

	sep := "?"
	if strings.Contains(cfg.BaseURL, "?") {
		sep = "&"
		if strings.HasSuffix(cfg.BaseURL, "?") || strings.HasSuffix(cfg.BaseURL, "&") {
			sep = ""
		}
	}

	return &Request{
		URL:    cfg.BaseURL + sep + params.Encode(),
		Target: target,
	}, nil
}

// redact hides api keys before a url is logged.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, key := range []string{"apikey", "r"} {
		if q.Has(key) {
			q.Set(key, "***")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
