// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/vitrine/internal/api"
	"github.com/tomtom215/vitrine/internal/catalog"
	"github.com/tomtom215/vitrine/internal/config"
	"github.com/tomtom215/vitrine/internal/cooccurrence"
	"github.com/tomtom215/vitrine/internal/events"
	"github.com/tomtom215/vitrine/internal/interactions"
	"github.com/tomtom215/vitrine/internal/logging"
	"github.com/tomtom215/vitrine/internal/popularity"
	"github.com/tomtom215/vitrine/internal/query"
	"github.com/tomtom215/vitrine/internal/recommend"
	"github.com/tomtom215/vitrine/internal/similarity"
	"github.com/tomtom215/vitrine/internal/supervisor"
	"github.com/tomtom215/vitrine/internal/supervisor/services"
)

const (
	profileCacheCapacity = 100_000

	// slowRequest is the p95 latency target; slower requests are logged.
	slowRequest = 150 * time.Millisecond
)

// app holds every long-lived component of the server.
type app struct {
	cfg *config.Config

	catalogDB *catalog.DuckDBSource
	holder    *catalog.Holder
	store     *interactions.BadgerStore

	index   *similarity.Index
	tracker *popularity.Tracker
	miner   *cooccurrence.Miner

	bus      *events.Bus
	stopNATS func(context.Context)
	consumer *events.Consumer
	profiles *interactions.ProfileCache
	ranker   *recommend.Ranker

	middleware *api.ChiMiddleware
	server     *http.Server
	jobs       []*services.PeriodicService
}

// snapshotVersions reports the version of every derived snapshot for the
// readiness probe.
type snapshotVersions struct {
	holder  *catalog.Holder
	index   *similarity.Index
	tracker *popularity.Tracker
	miner   *cooccurrence.Miner
}

func (s snapshotVersions) Snapshots() map[string]uint64 {
	return map[string]uint64{
		services.JobCatalog:      s.holder.Load().Version(),
		services.JobSimilarity:   s.index.Snapshot().Version(),
		"popularity":             s.tracker.Snapshot().Version(),
		services.JobCoOccurrence: s.miner.Snapshot().Version(),
	}
}

// historyDays is the interaction window read per profile. It never falls
// short of the staleness horizon, otherwise a stale user would look new.
func historyDays(cfg *config.Config) int {
	horizon := time.Duration(cfg.Ranker.StalenessPeriods) * cfg.Ranker.StalenessPeriod
	days := int(horizon/(24*time.Hour)) + 1
	return max(cfg.Ranker.HistoryDays, days, cfg.Store.RetentionDays)
}

// rankerConfig maps the ranker section onto recommend.Config.
func rankerConfig(cfg *config.Config) recommend.Config {
	rc := recommend.DefaultConfig()
	rc.Weights = recommend.Weights{
		Clicked:   cfg.Ranker.ClickedWeight,
		Search:    cfg.Ranker.SearchWeight,
		Diversity: cfg.Ranker.DiversityWeight,
	}
	rc.StalenessHorizon = time.Duration(cfg.Ranker.StalenessPeriods) * cfg.Ranker.StalenessPeriod
	rc.TopCategories = cfg.Ranker.TopCategories
	rc.DefaultLimit = cfg.Ranker.DefaultLimit
	return rc
}

// newApp opens the stores and builds every component. It does not start
// any goroutine; supervise hands the long-running parts to the tree.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	if err := a.open(ctx); err != nil {
		a.close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) open(ctx context.Context) error {
	cfg := a.cfg
	var err error

	a.catalogDB, err = catalog.OpenDuckDB(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	if _, err = a.catalogDB.EnsureImported(ctx); err != nil {
		return fmt.Errorf("import catalog: %w", err)
	}
	a.holder = catalog.NewHolder(nil)
	cat, err := a.holder.Refresh(ctx, a.catalogDB)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logging.Info().Uint64("version", cat.Version()).Int("items", cat.Len()).Msg("Catalog loaded")

	a.store, err = interactions.Open(interactions.Config{
		Path:      cfg.Store.Path,
		InMemory:  cfg.Store.InMemory,
		Retention: time.Duration(cfg.Store.RetentionDays) * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("open interaction store: %w", err)
	}

	a.index = similarity.NewIndex(similarity.Config{
		TopK:        cfg.Similarity.TopK,
		MaxFeatures: cfg.Similarity.MaxFeatures,
	})
	a.tracker = popularity.NewTracker(popularity.Config{
		DecayFactor: cfg.Popularity.DecayFactor,
		Period:      cfg.Popularity.Period,
	}, a.holder)
	a.miner = cooccurrence.NewMiner(cooccurrence.Config{
		MinSupport:      cfg.CoOccurrence.MinSupport,
		MinSupportCount: cfg.CoOccurrence.MinSupportCount,
		MinConfidence:   cfg.CoOccurrence.MinConfidence,
		SessionGap:      cfg.CoOccurrence.SessionGap,
	})

	a.bus, a.stopNATS, err = newEventBus(ctx, cfg)
	if err != nil {
		return fmt.Errorf("event bus: %w", err)
	}

	weighting := interactions.Weighting{Decay: cfg.Ranker.RecencyDecay, Period: cfg.Ranker.StalenessPeriod}
	a.profiles = interactions.NewProfileCache(
		cfg.Store.ProfileCacheTTL,
		profileCacheCapacity,
		interactions.StoreLoader(a.store, historyDays(cfg), weighting, time.Now),
	)

	a.consumer, err = events.NewConsumer(a.bus, a.tracker, a.profiles, events.DefaultConsumerConfig())
	if err != nil {
		return fmt.Errorf("event consumer: %w", err)
	}

	a.ranker, err = recommend.NewRanker(rankerConfig(cfg), recommend.Deps{
		Catalog:    a.holder,
		Store:      a.store,
		Profiles:   a.profiles,
		Similarity: a.index,
		Popularity: a.tracker,
		Rules:      a.miner,
		Expander:   query.NewExpander(cfg.Query.SynonymMap()),
		Publisher:  a.bus,
	})
	if err != nil {
		return fmt.Errorf("ranker: %w", err)
	}

	a.middleware = api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security, cfg.Store))
	handler := api.NewHandler(api.HandlerDeps{
		Recommender: a.ranker,
		Readiness:   snapshotVersions{holder: a.holder, index: a.index, tracker: a.tracker, miner: a.miner},
		Users:       a.middleware.Users(),
		Limits:      api.LimitsFrom(cfg.Ranker),
		Version:     version,
	})
	router := api.NewRouter(handler, a.middleware, api.RouterConfig{
		RequestBudget: cfg.Server.RequestTimeout,
		SlowRequest:   slowRequest,
	})
	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	a.jobs = a.newJobs()
	return nil
}

// newJobs creates one periodic service per rebuild, each behind its own
// circuit breaker. The catalog job comes first so later jobs see fresh items.
func (a *app) newJobs() []*services.PeriodicService {
	cfg := a.cfg
	coWindow, seedWindow := cfg.CoOccurrence.WindowDays, cfg.Popularity.SeedWindowDays

	specs := []struct {
		job      services.Job
		interval time.Duration
	}{
		{services.CatalogRefreshJob(a.holder, a.catalogDB), cfg.Catalog.RefreshInterval},
		{services.SimilarityJob(a.index, a.holder), cfg.Similarity.RebuildInterval},
		{services.PopularitySeedJob(a.tracker, a.store, seedWindow, time.Now), cfg.Popularity.ReseedInterval},
		{services.CoOccurrenceJob(a.miner, a.store, coWindow, time.Now), cfg.CoOccurrence.RebuildInterval},
		{services.PopularityTickJob(a.tracker, time.Now), cfg.Popularity.Period},
		{services.StoreGCJob(a.store), cfg.Store.GCInterval},
	}

	jobs := make([]*services.PeriodicService, 0, len(specs))
	for _, s := range specs {
		jobs = append(jobs, services.NewPeriodicService(s.job, services.PeriodicConfig{
			Interval: s.interval,
			Breaker:  events.NewCircuitBreaker(events.DefaultBreakerConfig("job-" + s.job.Name)),
		}))
	}
	return jobs
}

// buildSnapshots runs the snapshot jobs once so the first requests see
// real data. The catalog was loaded by newApp, and tick and GC have nothing
// to do yet. Failures leave the empty snapshot in place; the periodic
// service retries on its next tick.
func (a *app) buildSnapshots(ctx context.Context) {
	for _, job := range a.jobs {
		switch job.String() {
		case services.JobSimilarity, services.JobPopularitySeed, services.JobCoOccurrence:
			_ = job.RunOnce(ctx)
		}
	}
}

// supervise adds every long-running component to tree.
func (a *app) supervise(tree *supervisor.Tree) {
	tree.AddDataService(a.profiles)
	tree.AddDataService(a.middleware.Users())

	tree.AddJobService(a.consumer)
	for _, job := range a.jobs {
		switch job.String() {
		case services.JobCatalog, services.JobStoreGC:
			tree.AddDataService(job)
		default:
			tree.AddJobService(job)
		}
	}

	tree.AddAPIService(services.NewHTTPService(a.server, a.cfg.Supervisor.ShutdownTimeout))
}

// close releases the bus, the NATS server and both databases. It is safe to
// call on a partially built app.
func (a *app) close(ctx context.Context) {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	if a.stopNATS != nil {
		a.stopNATS(ctx)
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.catalogDB != nil {
		errs = append(errs, a.catalogDB.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logging.Error().Err(err).Msg("Error during shutdown")
	}
}
