package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/clipclash/clipclash-server/internal/cache"
	"github.com/clipclash/clipclash-server/internal/config"
	"github.com/clipclash/clipclash-server/internal/logger"
	"github.com/clipclash/clipclash-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.BasePath, 0o755); err != nil {
		return nil, err
	}

	dbPath := cfg.Storage.DatabasePath()
	db, err := store.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// CacheHandle wraps the ranking cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the ranking cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.CacheInMemory {
		c, err := cache.OpenInMemory(log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Ranking cache initialized", "mode", "in-memory")
		return &CacheHandle{Cache: c}, nil
	}

	cachePath := cfg.Storage.CachePath()
	c, err := cache.Open(cachePath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Ranking cache initialized", "path", cachePath)

	return &CacheHandle{Cache: c}, nil
}
