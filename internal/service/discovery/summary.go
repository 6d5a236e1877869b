package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/fusionn-scout/internal/client/apprise"
	"github.com/fusionn-scout/pkg/logger"
)

func describe(r ProcessResult) string {
	name := r.Item
	if r.Target != "" && r.Target != r.Item {
		name = r.Target
	}
	if r.Indexer != "" && r.Indexer != r.Item {
		name = fmt.Sprintf("%s [%s]", name, r.Indexer)
	}
	return name
}

// printSummary prints a grouped summary of results
func (s *Service) printSummary(run *Run) {
	var found, skipped, errs []string
	notFound := 0

	for _, r := range run.Results {
		switch r.Action {
		case ActionFound:
			found = append(found, fmt.Sprintf("  • %s (%d candidates)", describe(r), r.Candidates))
		case ActionNotFound:
			notFound++
		case ActionSkipped:
			skipped = append(skipped, fmt.Sprintf("  • %s (%s)", describe(r), r.Reason))
		case ActionError:
			errs = append(errs, fmt.Sprintf("  • %s (%s: %s)", describe(r), r.ErrorKind, r.Error))
		}
	}

	logger.Info("[discovery] ========================================")
	logger.Info("[discovery] SUMMARY")
	logger.Info("[discovery] ========================================")

	if len(found) > 0 {
		logger.Infof("[discovery] FOUND (%d):", len(found))
		logger.Info(strings.Join(found, "\n"))
	}

	if notFound > 0 {
		logger.Infof("[discovery] NOTHING FOUND: %d searches", notFound)
	}

	if len(skipped) > 0 {
		logger.Infof("[discovery] SKIPPED (%d):", len(skipped))
		logger.Info(strings.Join(skipped, "\n"))
	}

	if len(errs) > 0 {
		logger.Errorf("[discovery] ERRORS (%d):", len(errs))
		logger.Error(strings.Join(errs, "\n"))
	}

	if run.Cancelled {
		logger.Warn("[discovery] Run cancelled before completion")
	}

	logger.Info("[discovery] ----------------------------------------")
	logger.Infof("[discovery] %d candidates, completed in %v",
		len(run.Candidates), run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	logger.Info("[discovery] ========================================")
}

// sendNotification posts the summary when something was found or failed.
func (s *Service) sendNotification(ctx context.Context, run *Run) {
	if s.notifier == nil || !s.notifier.IsEnabled() {
		return
	}

	details := lo.FilterMap(run.Results, func(r ProcessResult, _ int) (apprise.DiscoveryDetail, bool) {
		detail := apprise.DiscoveryDetail{
			Item:       r.Item,
			Kind:       r.Kind,
			Indexer:    r.Indexer,
			Action:     r.Action,
			Reason:     r.Reason,
			Candidates: r.Candidates,
		}
		if r.Target != "" {
			detail.Item = r.Target
		}
		if r.Action == ActionError {
			detail.Reason = r.ErrorKind
		}
		return detail, r.Action == ActionFound || r.Action == ActionError
	})
	if len(details) == 0 {
		return
	}

	logger.Info("🔔 Sending notification...")
	notice := apprise.RunNotice{RunID: run.ID, Candidates: len(run.Candidates), Details: details}
	if err := s.notifier.NotifyRun(ctx, notice); err != nil {
		logger.Warnf("🔔 Failed to send notification: %v", err)
	}
}
