package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/internal/quality"
	"github.com/fusionn-scout/pkg/logger"
)

func (s *Service) processMovies(ctx context.Context, run *Run, indexers []Searcher) {
	if s.queue == nil {
		logger.Warn("[discovery] Movie indexers configured but no queue source")
		return
	}

	items, err := s.queue.QueueGet(ctx)
	if err != nil {
		logger.Errorf("[discovery] Failed to get movie queue: %v", err)
		result := ProcessResult{Kind: "movie", Item: "queue"}
		setError(&result, fmt.Errorf("getting queue: %w", err))
		run.Results = append(run.Results, result)
		return
	}

	logger.Infof("[discovery] Searching %d queued movies on %d indexers", len(items), len(indexers))

	for _, item := range items {
		if ctx.Err() != nil {
			return
		}

		name := movieName(item)

		// Items without an imdb id cannot be searched.
		if strings.TrimSpace(item.IMDBID) == "" {
			logger.Debugf("[discovery] %s: no imdb id, skipping", name)
			run.Results = append(run.Results, ProcessResult{
				Kind:   "movie",
				Item:   name,
				Action: ActionSkipped,
				Reason: "no imdb id",
			})
			continue
		}

		if s.opts.OnlyAired && !item.Released(s.opts.Clock.Now()) {
			logger.Debugf("[discovery] %s: not released until %s, skipping", name, item.ReleaseDate.Format(time.DateOnly))
			run.Results = append(run.Results, ProcessResult{
				Kind:   "movie",
				Item:   name,
				Action: ActionSkipped,
				Reason: "not released until " + item.ReleaseDate.Format(time.DateOnly),
			})
			continue
		}

		if s.opts.MovieYear && item.Year > 0 && !strings.HasSuffix(name, strconv.Itoa(item.Year)) {
			name = fmt.Sprintf("%s %d", name, item.Year)
		}

		req := item.DesiredQuality
		if req == nil {
			req = quality.Any()
		}

		target := media.MovieTarget(name, item.IMDBID)
		for _, idx := range indexers {
			if ctx.Err() != nil {
				return
			}
			s.search(ctx, run, idx, "movie", name, target, req)
		}
	}
}

// movieName is the title used in logs and results. Titles that are urls are
// replaced by the item's ids.
func movieName(item media.QueueItem) string {
	title := strings.TrimSpace(item.Title)
	if title != "" && !isURL(title) {
		return title
	}
	switch {
	case item.IMDBID != "":
		return item.IMDBID
	case item.TMDBID != "":
		return "tmdb:" + item.TMDBID
	default:
		return fmt.Sprintf("queue #%d", item.ID)
	}
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func formatAccepted(accepted, total int, req *quality.Requirement) string {
	return fmt.Sprintf("%d of %d match %s", accepted, total, req)
}
