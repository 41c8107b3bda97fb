// Package scheduler runs the background jobs of the lead engine: the
// TTL expiry sweep and the periodic booking-to-lead sync.
package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskLeadExpirySweep = "leads.expiry_sweep"

const TaskBookingLeadSync = "leads.booking_sync"

type LeadExpirySweepPayload struct {
	SweepAt time.Time `json:"sweepAt"`
}

type BookingLeadSyncPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

func NewLeadExpirySweepTask(payload LeadExpirySweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadExpirySweep, data), nil
}

func ParseLeadExpirySweepPayload(task *asynq.Task) (LeadExpirySweepPayload, error) {
	var payload LeadExpirySweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadExpirySweepPayload{}, err
	}
	return payload, nil
}

func NewBookingLeadSyncTask(payload BookingLeadSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBookingLeadSync, data), nil
}

func ParseBookingLeadSyncPayload(task *asynq.Task) (BookingLeadSyncPayload, error) {
	var payload BookingLeadSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BookingLeadSyncPayload{}, err
	}
	return payload, nil
}
