// Package leads wires the lead lifecycle module together.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	bookingrepo "homeserve_backend/internal/bookings/repository"
	"homeserve_backend/internal/events"
	apphttp "homeserve_backend/internal/http"
	"homeserve_backend/internal/leads/handler"
	"homeserve_backend/internal/leads/repository"
	"homeserve_backend/internal/leads/service"
	partnerrepo "homeserve_backend/internal/partners/repository"
	userrepo "homeserve_backend/internal/users/repository"
	"homeserve_backend/platform/config"
	"homeserve_backend/platform/httpkit"
	"homeserve_backend/platform/logger"
	"homeserve_backend/platform/validator"
)

// Module bundles the lead lifecycle bounded context.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// New wires the leads module against its collaborator stores.
func New(db *pgxpool.Pool, bookings *bookingrepo.Repository, policy config.LeadPolicyConfig, eventBus events.Bus, v *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(db)
	users := userrepo.New(db)
	partners := partnerrepo.New(db)

	svc := service.New(repo, bookings, users, partners, policy, eventBus, log)
	h := handler.New(svc, v, log)
	ph := handler.NewPublic(svc, v)

	return &Module{handler: h, publicHandler: ph, service: svc}
}

// Service exposes the lead service for the scheduler.
func (m *Module) Service() *service.Service {
	return m.service
}

// Name implements http.Module.
func (m *Module) Name() string { return "leads" }

// RegisterRoutes mounts the lead routes. The enquiry endpoint is public
// with a strict rate limit; everything else sits behind auth, with
// destructive and batch operations restricted to admins.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/enquiries", ctx.EnquiryRateLimiter.RateLimit(), m.publicHandler.SubmitEnquiry)

	group := ctx.Protected.Group("/leads")
	group.GET("", m.handler.List)
	group.GET("/analytics", m.handler.Analytics)
	group.GET("/:id", m.handler.Get)
	group.POST("/:id/bids", m.handler.SubmitBid)

	admin := group.Group("", httpkit.RequireRole("admin"))
	admin.POST("", m.handler.CreateManual)
	admin.POST("/from-booking/:bookingId", m.handler.CreateFromBooking)
	admin.POST("/sync-bookings", m.handler.SyncBookings)
	admin.POST("/:id/bids/:bidId/accept", m.handler.AcceptBid)
	admin.PATCH("/:id/status", m.handler.UpdateStatus)
	admin.DELETE("/:id", m.handler.Delete)
}
