package scheduler

import (
	"context"
	"fmt"

	bookingrepo "homeserve_backend/internal/bookings/repository"
	"homeserve_backend/internal/events"
	leadrepo "homeserve_backend/internal/leads/repository"
	leadservice "homeserve_backend/internal/leads/service"
	partnerrepo "homeserve_backend/internal/partners/repository"
	userrepo "homeserve_backend/internal/users/repository"
	"homeserve_backend/platform/config"
	"homeserve_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker processes scheduler tasks against the lead store.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  *leadservice.Service
	log    *logger.Logger
}

// WorkerConfig combines the config surfaces the worker needs.
type WorkerConfig interface {
	config.SchedulerConfig
	config.LeadPolicyConfig
}

// NewWorker builds the asynq server and wires the task handlers.
func NewWorker(cfg WorkerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	leads := leadservice.New(
		leadrepo.New(pool),
		bookingrepo.New(pool),
		userrepo.New(pool),
		partnerrepo.New(pool),
		cfg,
		bus,
		log,
	)

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		leads:  leads,
		log:    log,
	}

	mux.HandleFunc(TaskLeadExpirySweep, w.handleLeadExpirySweep)
	mux.HandleFunc(TaskBookingLeadSync, w.handleBookingLeadSync)

	return w, nil
}

func (w *Worker) handleLeadExpirySweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadExpirySweepPayload(task)
	if err != nil {
		return err
	}

	expired, err := w.leads.ExpireDue(ctx, payload.SweepAt)
	if err != nil {
		return err
	}

	if expired > 0 {
		w.log.Info("expiry sweep closed leads", "count", expired)
	}
	return nil
}

func (w *Worker) handleBookingLeadSync(ctx context.Context, task *asynq.Task) error {
	if _, err := ParseBookingLeadSyncPayload(task); err != nil {
		return err
	}

	result, err := w.leads.SyncBookings(ctx)
	if err != nil {
		return err
	}

	if result.Created > 0 || len(result.Errors) > 0 {
		w.log.Info("booking lead sync finished",
			"created", result.Created,
			"skipped", result.Skipped,
			"errors", len(result.Errors))
	}
	return nil
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
