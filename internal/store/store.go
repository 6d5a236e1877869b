// Package store persists tracked series, download history and the movie queue
// in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/internal/quality"
	"github.com/fusionn-scout/pkg/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrNotFound is returned when a series or queue item does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db   *sqlx.DB
	path string
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(s.db.DB, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// AddSeries starts tracking a series. Adding a tracked series is a no-op.
func (s *Store) AddSeries(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("series name is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracked_series (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("adding series: %w", err)
	}
	return nil
}

// RemoveSeries stops tracking a series. Its download history is kept.
func (s *Store) RemoveSeries(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracked_series WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("removing series: %w", err)
	}
	return expectRow(res, "series", name)
}

// TrackedSeries returns tracked series names ordered by name.
func (s *Store) TrackedSeries(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM tracked_series ORDER BY name`); err != nil {
		return nil, fmt.Errorf("listing series: %w", err)
	}
	return names, nil
}

// RecordDownload marks an episode as downloaded.
func (s *Store) RecordDownload(ctx context.Context, name string, season, episode int) error {
	if season < 1 || episode < 1 {
		return fmt.Errorf("invalid episode S%02dE%02d", season, episode)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (series_name, season, episode) VALUES (?, ?, ?)
		 ON CONFLICT (series_name, season, episode) DO NOTHING`,
		name, season, episode)
	if err != nil {
		return fmt.Errorf("recording download: %w", err)
	}
	return nil
}

// LatestDownload returns the highest downloaded episode of a series, or nil
// when nothing was downloaded.
func (s *Store) LatestDownload(ctx context.Context, name string) (*media.SeriesProgress, error) {
	var progress media.SeriesProgress
	err := s.db.GetContext(ctx, &progress,
		`SELECT series_name, season, episode FROM downloads
		 WHERE series_name = ?
		 ORDER BY season DESC, episode DESC
		 LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest download: %w", err)
	}
	return &progress, nil
}

// queueRow.ReleaseDate is YYYY-MM-DD, or empty when unknown.
type queueRow struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	IMDBID      string `db:"imdb_id"`
	TMDBID      string `db:"tmdb_id"`
	Quality     string `db:"quality"`
	Year        int    `db:"year"`
	ReleaseDate string `db:"release_date"`
}

// QueueAdd appends a movie to the queue and returns its id.
func (s *Store) QueueAdd(ctx context.Context, item media.QueueItem) (int64, error) {
	if strings.TrimSpace(item.Title) == "" && item.IMDBID == "" && item.TMDBID == "" {
		return 0, errors.New("queue item needs a title or an id")
	}

	row := queueRow{
		Title:   item.Title,
		IMDBID:  item.IMDBID,
		TMDBID:  item.TMDBID,
		Quality: item.DesiredQuality.String(),
		Year:    item.Year,
	}
	if !item.ReleaseDate.IsZero() {
		row.ReleaseDate = item.ReleaseDate.Format(time.DateOnly)
	}

	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO movie_queue (title, imdb_id, tmdb_id, quality, year, release_date)
		 VALUES (:title, :imdb_id, :tmdb_id, :quality, :year, :release_date)`,
		row)
	if err != nil {
		return 0, fmt.Errorf("adding queue item: %w", err)
	}
	return res.LastInsertId()
}

// QueueRemove deletes a queued movie.
func (s *Store) QueueRemove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM movie_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing queue item: %w", err)
	}
	return expectRow(res, "queue item", fmt.Sprint(id))
}

// QueueGet returns the current queue in insertion order. Items whose stored
// quality no longer parses are returned with a requirement that allows nothing;
// an unreadable release date is dropped.
func (s *Store) QueueGet(ctx context.Context) ([]media.QueueItem, error) {
	var rows []queueRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, title, imdb_id, tmdb_id, quality, year, release_date
		 FROM movie_queue ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing queue: %w", err)
	}

	items := make([]media.QueueItem, 0, len(rows))
	for _, row := range rows {
		req, err := quality.Parse(row.Quality)
		if err != nil {
			logger.Warnf("[store] queue item %d (%s): %v", row.ID, row.Title, err)
			req = quality.None(row.Quality)
		}
		var released time.Time
		if row.ReleaseDate != "" {
			released, err = time.Parse(time.DateOnly, row.ReleaseDate)
			if err != nil {
				logger.Warnf("[store] queue item %d (%s): bad release date %q", row.ID, row.Title, row.ReleaseDate)
				released = time.Time{}
			}
		}
		items = append(items, media.QueueItem{
			ID:             row.ID,
			Title:          row.Title,
			IMDBID:         row.IMDBID,
			TMDBID:         row.TMDBID,
			Year:           row.Year,
			ReleaseDate:    released,
			DesiredQuality: req,
		})
	}
	return items, nil
}

func expectRow(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
	}
	return nil
}
