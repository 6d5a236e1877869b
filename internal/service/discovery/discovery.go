// Package discovery runs the search pipeline: tracked series and queued movies
// are turned into search targets, searched on every configured indexer and
// filtered by quality.
package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"

	"github.com/fusionn-scout/internal/client/apprise"
	"github.com/fusionn-scout/internal/client/newznab"
	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/internal/progression"
	"github.com/fusionn-scout/internal/quality"
	"github.com/fusionn-scout/pkg/logger"
)

// MetadataSource looks up series structure and air dates.
type MetadataSource interface {
	LookupSeries(ctx context.Context, name string) (*media.SeriesInfo, error)
}

// ProgressSource lists tracked series and their latest downloaded episode.
type ProgressSource interface {
	TrackedSeries(ctx context.Context) ([]string, error)
	LatestDownload(ctx context.Context, name string) (*media.SeriesProgress, error)
}

// QueueSource lists wanted movies.
type QueueSource interface {
	QueueGet(ctx context.Context) ([]media.QueueItem, error)
}

// Searcher is one indexer.
type Searcher interface {
	Name() string
	Category() newznab.Category
	Search(ctx context.Context, target media.SearchTarget) ([]newznab.Candidate, error)
}

// Notifier receives the run summary.
type Notifier interface {
	NotifyRun(ctx context.Context, notice apprise.RunNotice) error
	IsEnabled() bool
}

// Actions recorded in ProcessResult.
const (
	ActionFound    = "found"
	ActionNotFound = "not_found"
	ActionSkipped  = "skipped"
	ActionError    = "error"
)

// Error kinds recorded in ProcessResult.
const (
	ErrorKindSeriesNotFound     = "series_not_found"
	ErrorKindUnknownEpisode     = "unknown_episode"
	ErrorKindIndexerUnavailable = "indexer_unavailable"
	ErrorKindCancelled          = "cancelled"
	ErrorKindOther              = "error"
)

// ProcessResult holds the outcome for one series or movie on one indexer.
type ProcessResult struct {
	Kind       string `json:"kind"` // "series" or "movie"
	Item       string `json:"item"`
	Target     string `json:"target,omitempty"`
	Indexer    string `json:"indexer,omitempty"`
	Action     string `json:"action"` // "found", "not_found", "skipped", "error"
	Reason     string `json:"reason,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	Candidates int    `json:"candidates"`
}

// Run is the outcome of one discovery run.
type Run struct {
	ID         string              `json:"id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Cancelled  bool                `json:"cancelled,omitempty"`
	Results    []ProcessResult     `json:"results"`
	Candidates []newznab.Candidate `json:"candidates"`
}

// Options tune a Service.
type Options struct {
	// OnlyAired gates episodes on their air date and movies on their release date.
	OnlyAired bool
	// MovieYear appends the release year to movie titles.
	MovieYear       bool
	MetadataWorkers int
	// SeriesQuality filters episode candidates; nil keeps every candidate.
	SeriesQuality *quality.Requirement
	Clock         clockwork.Clock
}

type Service struct {
	metadata MetadataSource
	progress ProgressSource
	queue    QueueSource
	indexers []Searcher
	notifier Notifier
	tracker  *progression.Tracker
	opts     Options

	runMu sync.Mutex // one run at a time

	mu      sync.RWMutex
	lastRun *Run
}

// NewService wires a discovery service. Any of metadata, progress, queue and
// notifier may be nil; the pipelines that need them are then skipped.
func NewService(metadata MetadataSource, progress ProgressSource, queue QueueSource, indexers []Searcher, notifier Notifier, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.MetadataWorkers <= 0 {
		opts.MetadataWorkers = 1
	}
	return &Service{
		metadata: metadata,
		progress: progress,
		queue:    queue,
		indexers: indexers,
		notifier: notifier,
		tracker:  progression.NewTracker(opts.OnlyAired, opts.Clock),
		opts:     opts,
	}
}

// ProcessDiscovery runs one discovery pass. Per-item failures are recorded in
// the results and never stop the run; only ctx cancellation does, in which
// case the partial run is returned with ctx's error.
func (s *Service) ProcessDiscovery(ctx context.Context) (*Run, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: s.opts.Clock.Now(),
	}

	logger.Info("[discovery] ========================================")
	logger.Infof("[discovery] Starting discovery run %s", run.ID)
	logger.Info("[discovery] ========================================")

	byCategory := lo.GroupBy(s.indexers, func(idx Searcher) newznab.Category { return idx.Category() })
	if len(s.indexers) == 0 {
		logger.Warn("[discovery] No indexers configured")
	}

	for _, category := range []newznab.Category{newznab.CategoryMusic, newznab.CategoryBook} {
		for _, idx := range byCategory[category] {
			s.processUnsupported(ctx, run, idx)
		}
	}

	if movieIndexers := byCategory[newznab.CategoryMovie]; len(movieIndexers) > 0 && ctx.Err() == nil {
		s.processMovies(ctx, run, movieIndexers)
	}

	if seriesIndexers := byCategory[newznab.CategoryTVSearch]; len(seriesIndexers) > 0 && ctx.Err() == nil {
		s.processSeries(ctx, run, seriesIndexers)
	}

	run.FinishedAt = s.opts.Clock.Now()
	run.Cancelled = ctx.Err() != nil

	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()

	s.printSummary(run)

	if run.Cancelled {
		return run, ctx.Err()
	}

	s.sendNotification(ctx, run)
	return run, nil
}

// processUnsupported exercises the no-op search branch of music and book indexers.
func (s *Service) processUnsupported(ctx context.Context, run *Run, idx Searcher) {
	candidates, err := idx.Search(ctx, media.SearchTarget{})
	result := ProcessResult{
		Kind:       string(idx.Category()),
		Item:       idx.Name(),
		Indexer:    idx.Name(),
		Action:     ActionSkipped,
		Reason:     "category " + string(idx.Category()) + " not supported",
		Candidates: len(candidates),
	}
	if err != nil {
		setError(&result, err)
	}
	run.Results = append(run.Results, result)
}

func (s *Service) search(ctx context.Context, run *Run, idx Searcher, kind, item string, target media.SearchTarget, req *quality.Requirement) {
	result := ProcessResult{
		Kind:    kind,
		Item:    item,
		Target:  target.Title,
		Indexer: idx.Name(),
	}

	candidates, err := idx.Search(ctx, target)
	if err != nil {
		setError(&result, err)
		run.Results = append(run.Results, result)
		return
	}

	accepted := candidates
	if req != nil {
		accepted = lo.Filter(candidates, func(c newznab.Candidate, _ int) bool {
			return req.Allows(c.Quality.Get())
		})
	}

	result.Candidates = len(accepted)
	if len(accepted) > 0 {
		result.Action = ActionFound
	} else {
		result.Action = ActionNotFound
	}
	if req != nil && len(candidates) > 0 {
		result.Reason = formatAccepted(len(accepted), len(candidates), req)
	}

	run.Results = append(run.Results, result)
	run.Candidates = append(run.Candidates, accepted...)
}

func setError(result *ProcessResult, err error) {
	result.Action = ActionError
	result.ErrorKind = classify(err)
	result.Error = err.Error()
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindCancelled
	case errors.Is(err, media.ErrSeriesNotFound):
		return ErrorKindSeriesNotFound
	case errors.Is(err, progression.ErrUnknownEpisode):
		return ErrorKindUnknownEpisode
	case errors.Is(err, newznab.ErrIndexerUnavailable):
		return ErrorKindIndexerUnavailable
	default:
		return ErrorKindOther
	}
}

// GetLastRun returns the most recent run, or nil before the first one.
func (s *Service) GetLastRun() *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Stats returns processing statistics
type Stats struct {
	RunID      string          `json:"run_id,omitempty"`
	LastRun    time.Time       `json:"last_run"`
	Duration   string          `json:"duration,omitempty"`
	Found      int             `json:"found"`
	NotFound   int             `json:"not_found"`
	Skipped    int             `json:"skipped"`
	Errors     int             `json:"errors"`
	Candidates int             `json:"candidates"`
	Results    []ProcessResult `json:"results,omitempty"`
}

func (s *Service) GetStats() Stats {
	run := s.GetLastRun()
	if run == nil {
		return Stats{}
	}

	stats := Stats{
		RunID:      run.ID,
		LastRun:    run.StartedAt,
		Duration:   run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
		Candidates: len(run.Candidates),
		Results:    run.Results,
	}

	for _, r := range run.Results {
		switch r.Action {
		case ActionFound:
			stats.Found++
		case ActionNotFound:
			stats.NotFound++
		case ActionSkipped:
			stats.Skipped++
		case ActionError:
			stats.Errors++
		}
	}

	return stats
}
