// Package progression works out which episode of a tracked series should be
// searched for next.
package progression

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/pkg/logger"
)

// ErrUnknownEpisode is returned when the metadata has no entry for the next episode,
// typically because the following season has not been announced yet.
var ErrUnknownEpisode = errors.New("unknown episode")

// Tracker computes the next wanted episode. It holds no state between calls.
type Tracker struct {
	// OnlyAired suppresses targets that have not aired yet.
	OnlyAired bool
	Clock     clockwork.Clock
}

// NewTracker creates a tracker. A nil clock uses the real clock.
func NewTracker(onlyAired bool, clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{OnlyAired: onlyAired, Clock: clock}
}

// Next returns the episode to search for, or nil when nothing is wanted this run.
// A nil progress means nothing has been downloaded yet.
func (t *Tracker) Next(progress *media.SeriesProgress, info media.SeriesInfo) (*media.SearchTarget, error) {
	last := media.NothingDownloaded(info.Name)
	if progress != nil {
		last = *progress
	}

	if t.OnlyAired && info.LatestEpisode.Season == last.Season && info.LatestEpisode.Number == last.Episode {
		logger.Infof("[progression] %s: latest aired episode %s already downloaded, please be patient",
			info.Name, info.LatestEpisode)
		return nil, nil
	}

	season := last.Season
	wanted := last.Episode + 1

	// Only one rollover per run; a series several seasons behind catches up over several runs.
	if wanted > info.EpisodeCount(season) {
		season++
		wanted = 1
	}

	ep, ok := info.Episode(season, wanted)
	if !ok {
		return nil, fmt.Errorf("%s S%02dE%02d: %w", info.Name, season, wanted, ErrUnknownEpisode)
	}

	if t.OnlyAired && !t.aired(ep) {
		if ep.HasAirDate() {
			logger.Debugf("[progression] %s: %s airs %s, not searching yet",
				info.Name, ep, ep.AirDate.Format(time.DateOnly))
		} else {
			logger.Debugf("[progression] %s: %s has no air date, not searching yet", info.Name, ep)
		}
		return nil, nil
	}

	target := media.EpisodeTarget(info, season, wanted)
	return &target, nil
}

// aired reports whether ep aired on or before today. Unknown air dates have not aired.
func (t *Tracker) aired(ep media.EpisodeRef) bool {
	if !ep.HasAirDate() {
		return false
	}
	return !dateOf(ep.AirDate).After(dateOf(t.now()))
}

func (t *Tracker) now() time.Time {
	if t.Clock == nil {
		return time.Now()
	}
	return t.Clock.Now()
}

func dateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
