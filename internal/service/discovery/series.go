package discovery

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/pkg/logger"
)

type lookup struct {
	info *media.SeriesInfo
	err  error
}

func (s *Service) processSeries(ctx context.Context, run *Run, indexers []Searcher) {
	if s.progress == nil || s.metadata == nil {
		logger.Warn("[discovery] TV indexers configured but no progress or metadata source")
		return
	}

	names, err := s.progress.TrackedSeries(ctx)
	if err != nil {
		logger.Errorf("[discovery] Failed to get tracked series: %v", err)
		result := ProcessResult{Kind: "series", Item: "tracked series"}
		setError(&result, fmt.Errorf("getting tracked series: %w", err))
		run.Results = append(run.Results, result)
		return
	}

	if len(names) == 0 {
		logger.Info("[discovery] No tracked series")
		return
	}

	logger.Infof("[discovery] Checking %d tracked series on %d indexers", len(names), len(indexers))

	lookups := s.lookupAll(ctx, names)

	for i, name := range names {
		if ctx.Err() != nil {
			return
		}
		s.processOneSeries(ctx, run, indexers, name, lookups[i])
	}
}

// lookupAll fetches metadata for every series in parallel, bounded by the
// worker count. Results are returned in the order of names.
func (s *Service) lookupAll(ctx context.Context, names []string) []lookup {
	lookups := make([]lookup, len(names))

	var g errgroup.Group
	g.SetLimit(s.opts.MetadataWorkers)
	for i, name := range names {
		g.Go(func() error {
			if ctx.Err() != nil {
				lookups[i].err = ctx.Err()
				return nil
			}
			info, err := s.metadata.LookupSeries(ctx, name)
			lookups[i] = lookup{info: info, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return lookups
}

func (s *Service) processOneSeries(ctx context.Context, run *Run, indexers []Searcher, name string, lk lookup) {
	result := ProcessResult{Kind: "series", Item: name}

	if lk.err != nil {
		logger.Warnf("[discovery] %s: metadata lookup failed: %v", name, lk.err)
		setError(&result, fmt.Errorf("looking up series: %w", lk.err))
		run.Results = append(run.Results, result)
		return
	}

	progress, err := s.progress.LatestDownload(ctx, name)
	if err != nil {
		setError(&result, fmt.Errorf("getting latest download: %w", err))
		run.Results = append(run.Results, result)
		return
	}

	target, err := s.tracker.Next(progress, *lk.info)
	if err != nil {
		logger.Infof("[discovery] %s: %v", name, err)
		setError(&result, err)
		run.Results = append(run.Results, result)
		return
	}

	if target == nil {
		result.Action = ActionSkipped
		result.Reason = "no episode due"
		run.Results = append(run.Results, result)
		return
	}

	for _, idx := range indexers {
		if ctx.Err() != nil {
			return
		}
		s.search(ctx, run, idx, "series", name, *target, s.opts.SeriesQuality)
	}
}
