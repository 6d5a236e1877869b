package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/fusionn-scout/internal/media"
	"github.com/fusionn-scout/internal/quality"
	"github.com/fusionn-scout/internal/scheduler"
	"github.com/fusionn-scout/internal/service/discovery"
	"github.com/fusionn-scout/internal/store"
)

// SeriesStore manages tracked series and their download history.
type SeriesStore interface {
	AddSeries(ctx context.Context, name string) error
	RemoveSeries(ctx context.Context, name string) error
	TrackedSeries(ctx context.Context) ([]string, error)
	RecordDownload(ctx context.Context, name string, season, episode int) error
	LatestDownload(ctx context.Context, name string) (*media.SeriesProgress, error)
}

// QueueStore manages the movie queue.
type QueueStore interface {
	QueueAdd(ctx context.Context, item media.QueueItem) (int64, error)
	QueueRemove(ctx context.Context, id int64) error
	QueueGet(ctx context.Context) ([]media.QueueItem, error)
}

type Handler struct {
	discovery *discovery.Service
	scheduler *scheduler.Scheduler
	series    SeriesStore
	queue     QueueStore
}

// New creates the API handler. series and queue are nil when those lists are
// managed elsewhere; their endpoints then answer 409.
func New(discoveryService *discovery.Service, sched *scheduler.Scheduler, series SeriesStore, queue QueueStore) *Handler {
	return &Handler{
		discovery: discoveryService,
		scheduler: sched,
		series:    series,
		queue:     queue,
	}
}

// RegisterRoutes sets up the HTTP routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Health
		api.GET("/health", h.Health)

		// Discovery endpoints
		api.GET("/discovery/stats", h.DiscoveryStats)
		api.POST("/discovery/run", h.TriggerDiscovery)

		// Tracked series
		api.GET("/series", h.ListSeries)
		api.POST("/series", h.AddSeries)
		api.DELETE("/series/:name", h.RemoveSeries)
		api.POST("/series/:name/downloads", h.RecordDownload)

		// Movie queue
		api.GET("/queue", h.ListQueue)
		api.POST("/queue", h.AddQueueItem)
		api.DELETE("/queue/:id", h.RemoveQueueItem)
	}
}

// Health returns service health status
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"scheduler":     h.scheduler != nil && h.scheduler.IsRunning(),
		"series_source": sourceName(h.series != nil),
		"queue_source":  sourceName(h.queue != nil),
	})
}

func sourceName(local bool) string {
	if local {
		return "store"
	}
	return "external"
}

// DiscoveryStats returns statistics of the last discovery run
func (h *Handler) DiscoveryStats(c *gin.Context) {
	stats := h.discovery.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
	})
}

// TriggerDiscovery runs discovery and returns its results
func (h *Handler) TriggerDiscovery(c *gin.Context) {
	run, err := h.discovery.ProcessDiscovery(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
			"run":   run,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "discovery complete",
		"run_id":     run.ID,
		"results":    run.Results,
		"candidates": run.Candidates,
	})
}

type seriesResponse struct {
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

// ListSeries returns tracked series with their latest downloaded episode
func (h *Handler) ListSeries(c *gin.Context) {
	if !h.seriesManaged(c) {
		return
	}

	ctx := c.Request.Context()
	names, err := h.series.TrackedSeries(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]seriesResponse, 0, len(names))
	for _, name := range names {
		progress, err := h.series.LatestDownload(ctx, name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		p := media.NothingDownloaded(name)
		if progress != nil {
			p = *progress
		}
		out = append(out, seriesResponse{Name: name, Season: p.Season, Episode: p.Episode})
	}

	c.JSON(http.StatusOK, gin.H{"series": out})
}

type addSeriesRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddSeries starts tracking a series
func (h *Handler) AddSeries(c *gin.Context) {
	if !h.seriesManaged(c) {
		return
	}

	var req addSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.series.AddSeries(c.Request.Context(), req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"name": strings.TrimSpace(req.Name)})
}

// RemoveSeries stops tracking a series
func (h *Handler) RemoveSeries(c *gin.Context) {
	if !h.seriesManaged(c) {
		return
	}

	if err := h.series.RemoveSeries(c.Request.Context(), c.Param("name")); err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": c.Param("name")})
}

type downloadRequest struct {
	Season  int `json:"season" binding:"required,min=1"`
	Episode int `json:"episode" binding:"required,min=1"`
}

// RecordDownload marks an episode of a series as downloaded
func (h *Handler) RecordDownload(c *gin.Context) {
	if !h.seriesManaged(c) {
		return
	}

	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := c.Param("name")
	if err := h.series.RecordDownload(c.Request.Context(), name, req.Season, req.Episode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, seriesResponse{Name: name, Season: req.Season, Episode: req.Episode})
}

// ListQueue returns the movie queue
func (h *Handler) ListQueue(c *gin.Context) {
	if !h.queueManaged(c) {
		return
	}

	items, err := h.queue.QueueGet(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"queue": lo.Ternary(items == nil, []media.QueueItem{}, items),
	})
}

type addQueueRequest struct {
	Title       string `json:"title"`
	IMDBID      string `json:"imdb_id"`
	TMDBID      string `json:"tmdb_id"`
	Quality     string `json:"quality"`
	Year        int    `json:"year" binding:"min=0"`
	ReleaseDate string `json:"release_date"` // YYYY-MM-DD
}

// AddQueueItem queues a movie
func (h *Handler) AddQueueItem(c *gin.Context) {
	if !h.queueManaged(c) {
		return
	}

	var req addQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	desired, err := quality.Parse(req.Quality)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := media.QueueItem{
		Title:          strings.TrimSpace(req.Title),
		IMDBID:         strings.TrimSpace(req.IMDBID),
		TMDBID:         strings.TrimSpace(req.TMDBID),
		Year:           req.Year,
		DesiredQuality: desired,
	}
	if req.ReleaseDate != "" {
		item.ReleaseDate, err = time.Parse(time.DateOnly, req.ReleaseDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "release_date must be YYYY-MM-DD"})
			return
		}
		if item.Year == 0 {
			item.Year = item.ReleaseDate.Year()
		}
	}

	id, err := h.queue.QueueAdd(c.Request.Context(), item)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item.ID = id

	c.JSON(http.StatusCreated, item)
}

// RemoveQueueItem removes a movie from the queue
func (h *Handler) RemoveQueueItem(c *gin.Context) {
	if !h.queueManaged(c) {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.queue.QueueRemove(c.Request.Context(), id); err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": id})
}

func (h *Handler) seriesManaged(c *gin.Context) bool {
	if h.series == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "tracked series come from progress.source, not the store"})
		return false
	}
	return true
}

func (h *Handler) queueManaged(c *gin.Context) bool {
	if h.queue == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "movie queue comes from queue.source, not the store"})
		return false
	}
	return true
}

func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
