package commands

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/teranos/deltaconsumer/am"
	"github.com/teranos/deltaconsumer/db"
	"github.com/teranos/deltaconsumer/delta"
	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/ingest"
	"github.com/teranos/deltaconsumer/internal/httpclient"
	"github.com/teranos/deltaconsumer/logger"
	"github.com/teranos/deltaconsumer/pulse"
	"github.com/teranos/deltaconsumer/store"
	"github.com/teranos/deltaconsumer/sym"
	"github.com/teranos/deltaconsumer/version"
)

// pipeline is everything a cycle needs, built from the loaded config.
type pipeline struct {
	cfg     *am.Config
	db      *sql.DB
	coord   *pulse.Coordinator
	history *pulse.IngestionStore
}

func (p *pipeline) Close() error {
	return p.db.Close()
}

// loadConfig loads and validates the configuration.
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "invalid configuration"),
			"run 'deltaconsumer am show --sources' to see where each setting comes from")
	}
	return cfg, nil
}

// openDatabase opens and migrates the consumer's SQLite database.
func openDatabase(cfg *am.Config) (*sql.DB, error) {
	path := cfg.GetDatabasePath()
	database, err := db.OpenWithMigrations(path, logger.ComponentLogger("db"))
	if err != nil {
		return nil, errors.WithHint(err, "check database.path")
	}
	return database, nil
}

// short is a command's one-line help, prefixed with its glyph.
func short(name string) string {
	return sym.CommandToSymbol[name] + " " + sym.CommandDescriptions[name]
}

func userAgent() string {
	return version.Get().UserAgent()
}

// openStore builds the configured graph store backend.
func openStore(cfg *am.Config, database *sql.DB, log *zap.SugaredLogger) (store.Store, error) {
	log = logger.ChildLogger(logger.OrNop(log), logger.FieldBackend, cfg.Store.Backend)
	switch cfg.Store.Backend {
	case am.BackendSQLite:
		return store.NewSQLiteStore(database, cfg.StoreTimeout(), log), nil
	case am.BackendSPARQL:
		client := httpclient.New(httpclient.Options{UserAgent: userAgent()})
		return store.NewSPARQLStore(store.SPARQLConfig{
			Endpoint: cfg.Store.Endpoint,
			Sudo:     cfg.Store.Sudo,
			Timeout:  cfg.StoreTimeout(),
		}, client, log)
	default:
		return nil, errors.Newf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newSyncClient builds the HTTP client for the delta file catalog.
func newSyncClient(cfg *am.Config) *httpclient.Client {
	return httpclient.New(httpclient.Options{
		Timeout:           cfg.SyncTimeout(),
		MaxRedirects:      cfg.Sync.MaxRedirects,
		RequestsPerSecond: cfg.Sync.MaxRequestsPerSecond,
		BlockPrivateIP:    cfg.Sync.BlockPrivateIP,
		UserAgent:         userAgent(),
	})
}

// openPipeline wires the delta client, the ingestion pipeline and the
// coordinator.
func openPipeline(cfg *am.Config) (*pipeline, error) {
	log := logger.Logger

	database, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	graphs, err := openStore(cfg, database, logger.ComponentLogger("store"))
	if err != nil {
		database.Close()
		return nil, err
	}

	syncClient := newSyncClient(cfg)
	deltas := delta.NewClient(delta.Config{
		BaseURL:      cfg.Sync.BaseURL,
		FilesPath:    cfg.Sync.FilesPath,
		DownloadPath: cfg.Sync.DownloadPath,
		TmpDir:       cfg.Ingest.TmpDir,
	}, syncClient, logger.ComponentLogger("delta"))

	rules, err := cfg.RoutingRules()
	if err != nil {
		database.Close()
		return nil, err
	}
	router, err := ingest.NewRouter(graphs, ingest.RouterConfig{
		Staging:            cfg.Graphs.Staging,
		Public:             cfg.Graphs.Public,
		OrganizationPrefix: cfg.Graphs.OrganizationPrefix,
		Rules:              rules,
	}, logger.ComponentLogger("ingest.router"))
	if err != nil {
		database.Close()
		return nil, err
	}
	applier := ingest.NewApplier(graphs, cfg.Graphs.Staging, cfg.Ingest.BatchSize, logger.ComponentLogger("ingest.applier"))
	ingester := ingest.NewIngester(deltas, applier, router, logger.ComponentLogger("ingest"))

	policy, err := pulse.ParseFailurePolicy(cfg.Ingest.OnFailure)
	if err != nil {
		database.Close()
		return nil, err
	}
	history := pulse.NewIngestionStore(database)
	coord := pulse.NewCoordinator(deltas, ingester, pulse.NewSQLiteWatermarkStore(database), pulse.CoordinatorConfig{
		Policy:  policy,
		History: history,
	}, log.Named("pulse"))

	return &pipeline{cfg: cfg, db: database, coord: coord, history: history}, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
