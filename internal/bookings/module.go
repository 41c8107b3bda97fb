// Package bookings wires the bookings bounded context together.
package bookings

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"homeserve_backend/internal/bookings/handler"
	"homeserve_backend/internal/bookings/repository"
	"homeserve_backend/internal/bookings/service"
	"homeserve_backend/internal/events"
	apphttp "homeserve_backend/internal/http"
	"homeserve_backend/platform/logger"
	"homeserve_backend/platform/validator"
)

// Module bundles the bookings bounded context.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// New wires the bookings module and subscribes it to bid acceptance
// events so winning partners get bound back to their booking.
func New(db *pgxpool.Pool, partners service.PartnerFinder, eventBus events.Bus, v *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(db)
	svc := service.New(repo, partners, service.FirstEligible{}, eventBus, log)
	h := handler.New(svc, v, log)

	m := &Module{handler: h, service: svc, repository: repo}

	if eventBus != nil {
		eventBus.Subscribe(events.BidAccepted{}.EventName(), events.HandlerFunc(
			func(ctx context.Context, event events.Event) error {
				accepted, ok := event.(events.BidAccepted)
				if !ok || accepted.BookingID == nil {
					return nil
				}
				return svc.BindAcceptedPartner(ctx, *accepted.BookingID, accepted.PartnerID)
			},
		))
	}

	return m
}

// Repository exposes booking persistence for demand intake.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// Name implements http.Module.
func (m *Module) Name() string { return "bookings" }

// RegisterRoutes mounts booking routes under the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/bookings")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.POST("/:id/confirm", m.handler.Confirm)
}
