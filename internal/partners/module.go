// Package partners wires the partner management module together.
package partners

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"homeserve_backend/internal/events"
	apphttp "homeserve_backend/internal/http"
	"homeserve_backend/internal/partners/cache"
	"homeserve_backend/internal/partners/handler"
	"homeserve_backend/internal/partners/repository"
	"homeserve_backend/internal/partners/service"
	"homeserve_backend/platform/config"
	"homeserve_backend/platform/httpkit"
	"homeserve_backend/platform/logger"
	"homeserve_backend/platform/validator"
)

// Module bundles the partners bounded context.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// New wires the partners module. The Redis client may be nil, which
// disables the eligibility cache.
func New(db *pgxpool.Pool, redisClient *redis.Client, cfg config.CacheConfig, eventBus events.Bus, v *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(db)

	var eligibilityCache service.EligibilityCache
	if redisClient != nil {
		eligibilityCache = cache.New(redisClient, cfg.GetEligibilityCacheTTL())
	}

	svc := service.New(repo, eligibilityCache, eventBus, log)
	h := handler.New(svc, v, log)

	m := &Module{handler: h, service: svc}
	m.subscribe(eventBus, eligibilityCache, log)
	return m
}

// Service exposes the partner service for other modules (allocation).
func (m *Module) Service() *service.Service {
	return m.service
}

// Name implements http.Module.
func (m *Module) Name() string { return "partners" }

// RegisterRoutes mounts partner management routes. All routes require
// authentication; approval toggles additionally require the admin role.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/partners")
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.POST("", httpkit.RequireRole("admin"), m.handler.Create)
	group.PATCH("/:id", httpkit.RequireRole("admin"), m.handler.Update)
}

// subscribe registers the cache invalidation handler so partner changes
// made outside this module (if any) also drop stale eligibility entries.
func (m *Module) subscribe(eventBus events.Bus, eligibilityCache service.EligibilityCache, log *logger.Logger) {
	if eventBus == nil || eligibilityCache == nil {
		return
	}

	eventBus.Subscribe(events.PartnerChanged{}.EventName(), events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			changed, ok := event.(events.PartnerChanged)
			if !ok {
				return nil
			}
			if err := eligibilityCache.InvalidatePincodes(ctx, changed.Pincodes); err != nil {
				log.Warn("eligibility cache invalidation failed", "partnerId", changed.PartnerID, "error", err)
			}
			return nil
		},
	))
}
