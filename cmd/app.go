package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/user/mindhub/internal/config"
	"github.com/user/mindhub/internal/db"
	"github.com/user/mindhub/internal/indexer"
	"github.com/user/mindhub/internal/logging"
	"github.com/user/mindhub/internal/remote"
	"github.com/user/mindhub/internal/search"
	"github.com/user/mindhub/internal/syncer"
)

// app holds what every command opens: config, logger, cache and, when
// configured, the remote client.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *db.Store
	remote  *remote.Client
	logFile *os.File
}

// newApp loads config and opens the cache. When toFile is set logs go to
// mindhub.log in the data directory instead of stderr.
func newApp(toFile bool) (*app, error) {
	cfg, err := config.Load(dataDirFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg}

	var out io.Writer = os.Stderr
	if toFile {
		f, err := os.OpenFile(filepath.Join(cfg.DataDir, "mindhub.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		out = f
	}

	level := cfg.Log.Level
	if debugFlag {
		level = "debug"
	}
	a.log = logging.New(level, out)

	a.store, err = db.NewStore(cfg.DataDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		a.log.Debug().Err(err).Msg("remote disabled, running from cache only")
		return a, nil
	}

	a.remote, err = remote.New(remote.Options{
		URL:         cfg.Remote.URL,
		APIKey:      cfg.Remote.APIKey,
		AccessToken: cfg.Remote.AccessToken,
		Timeout:     cfg.Remote.Timeout,
		RateLimit:   cfg.Remote.RateLimit,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// requireRemote fails commands that cannot work from the cache alone.
func (a *app) requireRemote() error {
	if a.remote == nil {
		return a.cfg.Validate()
	}
	return nil
}

func (a *app) logger(component string) zerolog.Logger {
	return logging.For(a.log, component)
}

func (a *app) searchService() *search.Service {
	var r search.Remote = offlineRemote{}
	if a.remote != nil {
		r = a.remote
	}
	return search.NewService(r, a.store, search.Options{
		OwnerID:             a.cfg.Remote.OwnerID,
		PageSize:            a.cfg.Remote.PageSize,
		SimilarityThreshold: a.cfg.Remote.SimilarityThreshold,
	}, a.logger("search"))
}

func (a *app) syncer() *syncer.Syncer {
	return syncer.New(a.remote, a.store, syncer.Options{
		OwnerID:      a.cfg.Remote.OwnerID,
		Interval:     a.cfg.Sync.Interval,
		FetchLimit:   a.cfg.Sync.FetchLimit,
		MaxCacheSize: a.cfg.Sync.MaxCacheSize,
		MaxEvict:     a.cfg.Sync.MaxEvict,
	}, a.logger("sync"))
}

func (a *app) indexer() *indexer.Indexer {
	return indexer.New(a.cfg.Remote.OwnerID, a.remote, a.store,
		indexer.NewSummarizer(a.cfg.LLM), a.logger("indexer"))
}

// offlineRemote stands in for the remote store when none is configured, so
// filtered and cached searches still work.
type offlineRemote struct{}

func (offlineRemote) List(ctx context.Context, ownerID string, offset, limit int) ([]db.Bookmark, error) {
	return nil, config.ErrRemoteNotConfigured
}

func (offlineRemote) Similar(ctx context.Context, ownerID, q string, threshold float64, limit, offset int) ([]db.Bookmark, error) {
	return nil, config.ErrRemoteNotConfigured
}

func (offlineRemote) Substring(ctx context.Context, ownerID, q string, offset, limit int) ([]db.Bookmark, error) {
	return nil, config.ErrRemoteNotConfigured
}
