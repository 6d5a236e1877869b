package main

import (
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"

	"github.com/fusionn-scout/internal/client/apprise"
	"github.com/fusionn-scout/internal/client/newznab"
	"github.com/fusionn-scout/internal/client/overseerr"
	"github.com/fusionn-scout/internal/client/radarr"
	"github.com/fusionn-scout/internal/client/sonarr"
	"github.com/fusionn-scout/internal/client/tvmaze"
	"github.com/fusionn-scout/internal/config"
	"github.com/fusionn-scout/internal/handler"
	"github.com/fusionn-scout/internal/service/discovery"
	"github.com/fusionn-scout/internal/store"
	"github.com/fusionn-scout/pkg/logger"
)

type app struct {
	store     *store.Store
	discovery *discovery.Service

	// Nil when the list lives in Sonarr, Radarr or Overseerr.
	series handler.SeriesStore
	queue  handler.QueueStore
}

func isDev() bool {
	return os.Getenv("ENV") != "production"
}

func initLogger(cfg *config.Config) {
	logger.InitWithOptions(isDev(), cfg.Logging.Level, logger.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
}

// newApp wires sources, indexers and the notifier into a discovery service.
func newApp(cfg *config.Config) (*app, error) {
	validated, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	logger.Infof("🗄️  Opening database: %s", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	a := &app{store: st}
	clock := clockwork.NewRealClock()

	metadata := tvmaze.NewClient(cfg.TVMaze, clock)
	logger.Infof("📺 Metadata: TVMaze (%s)", cfg.TVMaze.BaseURL)

	var progress discovery.ProgressSource
	if cfg.Progress.Source == config.SourceSonarr {
		logger.Info("🔗 Series progress: Sonarr")
		progress = sonarr.NewClient(cfg.Sonarr)
	} else {
		logger.Info("📋 Series progress: local store")
		progress = st
		a.series = st
	}

	var queue discovery.QueueSource
	switch cfg.Queue.Source {
	case config.SourceRadarr:
		logger.Infof("🔗 Movie queue: Radarr (quality=%s)", validated.DefaultQuality)
		queue = radarr.NewClient(cfg.Radarr, validated.DefaultQuality)
	case config.SourceOverseerr:
		logger.Infof("🔗 Movie queue: Overseerr requests (quality=%s)", validated.DefaultQuality)
		queue = overseerr.NewClient(cfg.Overseerr, validated.DefaultQuality)
	default:
		logger.Info("📋 Movie queue: local store")
		queue = st
		a.queue = st
	}

	indexers := lo.Map(validated.Indexers, func(c newznab.Config, _ int) discovery.Searcher {
		logger.Infof("🔍 Indexer: %s (%s, wait=%v)", c.Name, c.Category, c.MinInterval)
		return newznab.NewClient(c, clock)
	})

	var notifier discovery.Notifier
	if cfg.Apprise.Enabled {
		notifier = apprise.NewClient(cfg.Apprise)
		tag := cfg.Apprise.Tag
		if tag == "" {
			tag = "all"
		}
		logger.Infof("🔔 Notifications: enabled (key=%s, tag=%s)", cfg.Apprise.Key, tag)
	} else {
		logger.Info("🔔 Notifications: disabled")
	}

	a.discovery = discovery.NewService(metadata, progress, queue, indexers, notifier, discovery.Options{
		OnlyAired:       cfg.Discovery.OnlyAired,
		MovieYear:       cfg.Discovery.MovieYear,
		MetadataWorkers: cfg.Discovery.MetadataWorkers,
		SeriesQuality:   validated.SeriesQuality,
		Clock:           clock,
	})

	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warnf("⚠️  Closing database: %v", err)
	}
}
