package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"homeserve_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues scheduler tasks.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates an asynq client from the scheduler configuration.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueExpirySweep queues a lead expiry sweep for immediate processing.
func (c *Client) EnqueueExpirySweep(ctx context.Context, sweepAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewLeadExpirySweepTask(LeadExpirySweepPayload{SweepAt: sweepAt})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// EnqueueBookingSync queues a booking-to-lead sync run.
func (c *Client) EnqueueBookingSync(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewBookingLeadSyncTask(BookingLeadSyncPayload{RequestedAt: time.Now()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
