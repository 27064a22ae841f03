package providers

import (
	"github.com/samber/do/v2"

	"github.com/clipclash/clipclash-server/internal/config"
	"github.com/clipclash/clipclash-server/internal/logger"
	"github.com/clipclash/clipclash-server/internal/service"
)

// ProvideRankingService provides the leaderboard read service.
func ProvideRankingService(i do.Injector) (*service.RankingService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)

	return service.NewRankingService(storeHandle.Store, cacheHandle.Cache, cfg, log.Logger), nil
}

// ProvideRecomputeService provides the score recompute service.
func ProvideRecomputeService(i do.Injector) (*service.RecomputeService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)

	return service.NewRecomputeService(storeHandle.Store, cacheHandle.Cache, cfg, log.Logger), nil
}
