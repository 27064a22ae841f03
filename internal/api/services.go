package api

import (
	"github.com/clipclash/clipclash-server/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Ranking   *service.RankingService
	Recompute *service.RecomputeService
}
