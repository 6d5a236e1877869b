// Package media holds the domain records shared by the discovery pipeline:
// series progress, metadata snapshots, queued movies and search targets.
package media

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fusionn-scout/internal/quality"
)

// ErrSeriesNotFound is returned by metadata sources that have no match for a name.
var ErrSeriesNotFound = errors.New("series not found")

// SeriesProgress is the last confirmed-downloaded episode of a series.
type SeriesProgress struct {
	SeriesName string `json:"series_name" db:"series_name"`
	Season     int    `json:"season" db:"season"`
	Episode    int    `json:"episode" db:"episode"`
}

// NothingDownloaded is the sentinel progress for a series with no history.
func NothingDownloaded(name string) SeriesProgress {
	return SeriesProgress{SeriesName: name, Season: 1, Episode: 0}
}

// EpisodeRef identifies one episode and when it aired. A zero AirDate means unknown.
type EpisodeRef struct {
	Season  int       `json:"season"`
	Number  int       `json:"number"`
	AirDate time.Time `json:"air_date,omitempty"`
}

// HasAirDate reports whether the air date is known.
func (e EpisodeRef) HasAirDate() bool {
	return !e.AirDate.IsZero()
}

func (e EpisodeRef) String() string {
	return fmt.Sprintf("S%02dE%02d", e.Season, e.Number)
}

// SeriesInfo is an immutable metadata snapshot produced per lookup.
type SeriesInfo struct {
	// ID is the TVRage id understood by newznab indexers as "rid".
	ID string `json:"id"`
	// TVMazeID is used when no TVRage id is known.
	TVMazeID      string                     `json:"tvmaze_id,omitempty"`
	Name          string                     `json:"name"`
	LatestEpisode EpisodeRef                 `json:"latest_episode"`
	Seasons       map[int]map[int]EpisodeRef `json:"seasons"`
}

// EpisodeCount returns the number of known episodes in a season.
func (s SeriesInfo) EpisodeCount(season int) int {
	return len(s.Seasons[season])
}

// Episode looks up a single episode.
func (s SeriesInfo) Episode(season, number int) (EpisodeRef, bool) {
	episodes, ok := s.Seasons[season]
	if !ok {
		return EpisodeRef{}, false
	}
	ep, ok := episodes[number]
	return ep, ok
}

// SeasonNumbers returns the known season numbers in ascending order.
func (s SeriesInfo) SeasonNumbers() []int {
	numbers := make([]int, 0, len(s.Seasons))
	for n := range s.Seasons {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// QueueItem is a movie the user wants, with its minimum acceptable quality.
// Year and ReleaseDate are zero when unknown.
type QueueItem struct {
	ID             int64                `json:"id"`
	Title          string               `json:"title"`
	IMDBID         string               `json:"imdb_id,omitempty"`
	TMDBID         string               `json:"tmdb_id,omitempty"`
	Year           int                  `json:"year,omitempty"`
	ReleaseDate    time.Time            `json:"release_date,omitzero"`
	DesiredQuality *quality.Requirement `json:"desired_quality"`
}

// Released reports whether the movie is out on day's date. An unknown
// release date counts as released.
func (q QueueItem) Released(day time.Time) bool {
	if q.ReleaseDate.IsZero() {
		return true
	}
	return !dateOnly(q.ReleaseDate).After(dateOnly(day))
}

func dateOnly(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TargetKind distinguishes movie and episode search targets.
type TargetKind string

const (
	TargetMovie   TargetKind = "movie"
	TargetEpisode TargetKind = "episode"
)

// SearchTarget is what the indexer client is asked to find. Movie targets
// carry IMDBID; episode targets carry the series reference and numbers.
type SearchTarget struct {
	Kind  TargetKind `json:"kind"`
	Title string     `json:"title"`

	IMDBID string `json:"imdb_id,omitempty"`

	SeriesRefID string `json:"series_ref_id,omitempty"`
	TVMazeID    string `json:"tvmaze_id,omitempty"`
	Season      int    `json:"season,omitempty"`
	Number      int    `json:"number,omitempty"`
}

// MovieTarget builds a movie search target.
func MovieTarget(title, imdbID string) SearchTarget {
	return SearchTarget{Kind: TargetMovie, Title: title, IMDBID: imdbID}
}

// EpisodeTarget builds an episode search target for a series snapshot.
func EpisodeTarget(info SeriesInfo, season, number int) SearchTarget {
	return SearchTarget{
		Kind:        TargetEpisode,
		Title:       fmt.Sprintf("%s S%02dE%02d", info.Name, season, number),
		SeriesRefID: info.ID,
		TVMazeID:    info.TVMazeID,
		Season:      season,
		Number:      number,
	}
}
