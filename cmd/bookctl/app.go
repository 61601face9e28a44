package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/listenupapp/bookid-server/internal/config"
	"github.com/listenupapp/bookid-server/internal/logger"
	"github.com/listenupapp/bookid-server/internal/search"
	"github.com/listenupapp/bookid-server/internal/service"
	"github.com/listenupapp/bookid-server/internal/store/sqlite"
	"github.com/listenupapp/bookid-server/internal/validation"
)

// app is an offline instance of the service layer. Events are not emitted
// because no clients are connected to the CLI.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	store *sqlite.Store
	index *search.SearchIndex

	catalog  *service.CatalogService
	editions *service.EditionService
	groups   *service.GroupService
	merges   *service.MergeService
	reports  *service.ReportService
}

// loadConfig resolves configuration the same way the server does.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	args := []string{"--env-file", opts.envFile, "--log-level", opts.logLevel}
	if opts.dataPath != "" {
		args = append(args, "--data-path", opts.dataPath)
	}
	return config.Load(args)
}

// openApp opens the store and search index under the configured data path.
func openApp(opts *globalOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	st, err := sqlite.Open(cfg.Storage.DatabasePath(), log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	index, err := search.NewSearchIndex(search.Options{
		Path:   cfg.Storage.SearchIndexPath(),
		Logger: log.Logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open search index: %w", err)
	}

	deps := service.Deps{
		Store:  st,
		Index:  index,
		Logger: log.Logger,
	}
	v := validation.New()
	merges := service.NewMergeService(deps, v)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		index:    index,
		catalog:  service.NewCatalogService(deps, v),
		editions: service.NewEditionService(deps, v),
		groups:   service.NewGroupService(deps),
		merges:   merges,
		reports:  service.NewReportService(deps, v, nil, merges, index),
	}, nil
}

// Close releases the index and the database.
func (a *app) Close() error {
	return errors.Join(a.index.Close(), a.store.Close())
}
