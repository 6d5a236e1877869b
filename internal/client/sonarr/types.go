package sonarr

import "time"

// Series represents a TV series in Sonarr
type Series struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"` // "continuing", "ended", "upcoming"
	Year      int    `json:"year"`
	TvdbID    int    `json:"tvdbId"`
	TvMazeID  int    `json:"tvMazeId"`
	TvRageID  int    `json:"tvRageId"`
	ImdbID    string `json:"imdbId"`
	Monitored bool   `json:"monitored"`
}

// Episode represents an episode in Sonarr
type Episode struct {
	ID            int       `json:"id"`
	SeriesID      int       `json:"seriesId"`
	SeasonNumber  int       `json:"seasonNumber"`
	EpisodeNumber int       `json:"episodeNumber"`
	Title         string    `json:"title"`
	AirDateUtc    time.Time `json:"airDateUtc"`
	HasFile       bool      `json:"hasFile"`
	Monitored     bool      `json:"monitored"`
}
