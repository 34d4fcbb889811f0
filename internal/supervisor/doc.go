// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

/*
Package supervisor runs Vitrine's long-lived services under a suture v4
tree.

	RootSupervisor ("vitrine")
	├── DataSupervisor ("data-layer")
	│   ├── catalog               reload products from DuckDB
	│   ├── store_gc              BadgerDB value log GC
	│   ├── profile-cache         ttlcache expiry loop
	│   └── user-write-limiter    idle limiter expiry
	├── JobsSupervisor ("jobs-layer")
	│   ├── similarity            TF-IDF neighbor index
	│   ├── cooccurrence          association rules
	│   ├── popularity_seed       replay of the interaction log
	│   ├── popularity_tick       decay + pending counts
	│   └── interactions-consumer
	└── APISupervisor ("api-layer")
	    └── http-server

Services live in the services subpackage. Supervisor events (starts,
failures, backoff) are logged through sutureslog over the zerolog-backed
slog handler from the logging package.

# Usage

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddJobService(services.NewPeriodicService(services.SimilarityJob(index, holder), opts))
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
