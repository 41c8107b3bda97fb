package scheduler

import (
	"context"
	"time"

	"homeserve_backend/platform/config"
	"homeserve_backend/platform/logger"
)

// Dispatcher periodically enqueues the recurring lead engine tasks: the
// TTL expiry sweep and the booking-to-lead sync. It only enqueues; the
// worker does the actual work, so multiple API replicas can run safely
// as long as a single dispatcher process is deployed.
type Dispatcher struct {
	client        *Client
	sweepInterval time.Duration
	syncInterval  time.Duration
	log           *logger.Logger
}

// NewDispatcher creates the recurring task dispatcher.
func NewDispatcher(cfg config.SchedulerConfig, log *logger.Logger) (*Dispatcher, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	sweepInterval := cfg.GetExpirySweepInterval()
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	syncInterval := cfg.GetBookingSyncInterval()
	if syncInterval <= 0 {
		syncInterval = 15 * time.Minute
	}

	return &Dispatcher{
		client:        client,
		sweepInterval: sweepInterval,
		syncInterval:  syncInterval,
		log:           log,
	}, nil
}

func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	return d.client.Close()
}

// Run blocks, enqueueing tasks on their intervals until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	sweepTicker := time.NewTicker(d.sweepInterval)
	defer sweepTicker.Stop()
	syncTicker := time.NewTicker(d.syncInterval)
	defer syncTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweepTicker.C:
			if err := d.client.EnqueueExpirySweep(ctx, time.Now()); err != nil {
				d.log.Warn("failed to enqueue expiry sweep", "error", err)
			}
		case <-syncTicker.C:
			if err := d.client.EnqueueBookingSync(ctx); err != nil {
				d.log.Warn("failed to enqueue booking sync", "error", err)
			}
		}
	}
}
