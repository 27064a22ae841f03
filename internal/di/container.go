// Package di provides dependency injection configuration for the ClipClash server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/clipclash/clipclash-server/internal/config"
	"github.com/clipclash/clipclash-server/internal/di/providers"
	"github.com/clipclash/clipclash-server/internal/logger"
	"github.com/clipclash/clipclash-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCache)

	// Business services
	do.Provide(injector, providers.ProvideRankingService)
	do.Provide(injector, providers.ProvideRecomputeService)

	// Workers
	do.Provide(injector, providers.ProvideRecomputeWorker)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.CacheHandle](injector)

	_ = do.MustInvoke[*service.RankingService](injector)
	_ = do.MustInvoke[*service.RecomputeService](injector)

	_ = do.MustInvoke[*providers.RecomputeWorker](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
