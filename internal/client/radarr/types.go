package radarr

import "time"

// Movie represents a movie in Radarr
type Movie struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Status          string    `json:"status"` // "released", "announced", "inCinemas"
	Year            int       `json:"year"`
	TmdbID          int       `json:"tmdbId"`
	ImdbID          string    `json:"imdbId"`
	Monitored       bool      `json:"monitored"`
	HasFile         bool      `json:"hasFile"`
	IsAvailable     bool      `json:"isAvailable"`
	InCinemas       time.Time `json:"inCinemas"`
	DigitalRelease  time.Time `json:"digitalRelease"`
	PhysicalRelease time.Time `json:"physicalRelease"`
}

// ReleaseDate is the first home release of the movie, falling back to the
// cinema date. It is zero when Radarr knows neither.
func (m Movie) ReleaseDate() time.Time {
	var first time.Time
	for _, d := range []time.Time{m.DigitalRelease, m.PhysicalRelease} {
		if !d.IsZero() && (first.IsZero() || d.Before(first)) {
			first = d
		}
	}
	if first.IsZero() {
		return m.InCinemas
	}
	return first
}
