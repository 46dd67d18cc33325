package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MeganHarrison/alleato-core/internal/config"
	"github.com/MeganHarrison/alleato-core/internal/db"
	"github.com/MeganHarrison/alleato-core/internal/filestore"
	"github.com/MeganHarrison/alleato-core/internal/job"
	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/refcache"
	"github.com/MeganHarrison/alleato-core/internal/reference"
	"github.com/MeganHarrison/alleato-core/internal/repo"
	"github.com/MeganHarrison/alleato-core/internal/schedule"
	"github.com/MeganHarrison/alleato-core/internal/search"
	"github.com/MeganHarrison/alleato-core/internal/service"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

type app struct {
	db        *sql.DB
	search    *service.SearchService
	listings  *service.ListingService
	reference *service.ReferenceService
	refresh   []job.Refresher
	cronSpec  string
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg.Database.Migrate {
		if err := db.ApplyMigrations(conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	return conn, nil
}

func buildApp(cfg *config.Config) (*app, error) {
	metric, err := vector.ParseMetric(cfg.Search.Metric)
	if err != nil {
		return nil, err
	}
	conn, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	chunks := repo.NewChunkRepo(conn)
	fmVectors := repo.NewFMVectorRepo(conn)
	engine := search.NewEngine(search.Options{
		Dimension:           cfg.Search.Dimension,
		Metric:              metric,
		DefaultFusionWeight: *cfg.Search.DefaultFusionWeight,
		MaxMatchCount:       cfg.Search.MaxMatchCount,
		PoolLimit:           cfg.Search.PoolLimit,
		LexicalSaturation:   cfg.Search.LexicalSaturation,
	}, repo.NewFTSRepo(conn), chunks, fmVectors)
	timeout := cfg.Search.Timeout()

	refSvc, layers, err := buildReference(cfg, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	searchSvc := service.NewSearchService(engine, map[model.SourceKind]service.Hydrator{
		model.SourceChunk:    chunks,
		model.SourceFMVector: fmVectors,
	}, timeout)
	listings := service.NewListingService(
		repo.NewDocumentRepo(conn),
		repo.NewInsightRepo(conn),
		timeout,
		cfg.Pagination.DefaultPageSize,
		cfg.Pagination.MaxPageSize,
	)
	return &app{
		db:        conn,
		search:    searchSvc,
		listings:  listings,
		reference: refSvc,
		refresh:   layers,
		cronSpec:  cfg.Reference.RefreshCron,
	}, nil
}

// buildReference stacks the reference row source: the database view or a
// file store snapshot, behind the expirable LRU. The returned layers are
// refreshed innermost first.
func buildReference(cfg *config.Config, conn *sql.DB) (*service.ReferenceService, []job.Refresher, error) {
	var base reference.Source
	var layers []job.Refresher
	switch cfg.Reference.Source {
	case config.ReferenceSourceSnapshot:
		store, err := filestore.New(cfg.FileStore)
		if err != nil {
			return nil, nil, fmt.Errorf("init file store: %w", err)
		}
		snap := refcache.NewSnapshotSource(store, cfg.Reference.SnapshotKey)
		base = snap
		layers = append(layers, snap)
	default:
		if conn == nil {
			return nil, nil, fmt.Errorf("reference source db needs a database connection")
		}
		base = repo.NewReferenceRepo(conn)
	}
	src := refcache.WrapLRU(base, cfg.Reference.CacheSize, cfg.Reference.CacheTTL())
	if lru, ok := src.(*refcache.LRUSource); ok {
		layers = append(layers, lru)
	}
	engine := reference.NewEngine(src, cfg.Reference.Epsilon)
	return service.NewReferenceService(engine, cfg.Search.Timeout()), layers, nil
}

// buildReferenceOnly wires just the lookup path for the CLI. The database
// is opened only when the rows live there.
func buildReferenceOnly(cfg *config.Config) (*service.ReferenceService, func(), error) {
	var conn *sql.DB
	closeFn := func() {}
	if cfg.Reference.Source != config.ReferenceSourceSnapshot {
		var err error
		conn, err = openDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn = func() { _ = conn.Close() }
	}
	svc, _, err := buildReference(cfg, conn)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return svc, closeFn, nil
}

// scheduleRefresh registers the reference refresh job and runs it once so a
// snapshot is loaded before the first request.
func (a *app) scheduleRefresh(ctx context.Context, sched schedule.Scheduler) error {
	if len(a.refresh) == 0 || a.cronSpec == "" {
		return nil
	}
	refreshJob := job.NewReferenceRefreshJob(a.refresh...)
	if err := sched.AddJob(refreshJob, a.cronSpec); err != nil {
		return fmt.Errorf("schedule %s: %w", refreshJob.Name(), err)
	}
	if err := sched.RunNow(ctx, refreshJob.Name()); err != nil {
		logutil.GetLogger(ctx).Warn("initial reference refresh failed", zap.Error(err))
	}
	return nil
}
