package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hirehub/interview-engine/internal/models"
)

// Dispatcher delivers fire-and-forget notifications about core mutations.
// Delivery is best-effort: a failed dispatch never rolls back the state
// change it announces.
type Dispatcher interface {
	RequestCreated(ctx context.Context, req *models.ScheduleRequest) error
	SlotSelected(ctx context.Context, req *models.ScheduleRequest, room *models.InterviewRoom) error
	RoomCreated(ctx context.Context, room *models.InterviewRoom) error
}

// Event is the payload published for downstream notification consumers
// (email/push workers subscribe to the channel)
type Event struct {
	Type      string    `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	RoomID    string    `json:"room_id,omitempty"`
	RoomCode  string    `json:"room_code,omitempty"`
	JobID     string    `json:"job_id"`
	Applicant string    `json:"applicant_id"`
	Recruiter string    `json:"recruiter_id"`
	At        time.Time `json:"at"`
}

// RedisDispatcher publishes notification events to a redis channel
type RedisDispatcher struct {
	client  *redis.Client
	channel string
}

// NewRedisDispatcher creates a dispatcher publishing to the given channel
func NewRedisDispatcher(client *redis.Client, channel string) *RedisDispatcher {
	return &RedisDispatcher{client: client, channel: channel}
}

func (d *RedisDispatcher) publish(ctx context.Context, event Event) error {
	event.At = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	if err := d.client.Publish(ctx, d.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	return nil
}

// RequestCreated announces a new schedule request
func (d *RedisDispatcher) RequestCreated(ctx context.Context, req *models.ScheduleRequest) error {
	return d.publish(ctx, Event{
		Type:      "schedule_request.created",
		RequestID: req.ID,
		JobID:     req.JobID,
		Applicant: req.ApplicantID,
		Recruiter: req.RecruiterID,
	})
}

// SlotSelected announces that the applicant claimed a slot
func (d *RedisDispatcher) SlotSelected(ctx context.Context, req *models.ScheduleRequest, room *models.InterviewRoom) error {
	return d.publish(ctx, Event{
		Type:      "schedule_request.selected",
		RequestID: req.ID,
		RoomID:    room.ID,
		RoomCode:  room.RoomCode,
		JobID:     req.JobID,
		Applicant: req.ApplicantID,
		Recruiter: req.RecruiterID,
	})
}

// RoomCreated announces a newly committed interview room
func (d *RedisDispatcher) RoomCreated(ctx context.Context, room *models.InterviewRoom) error {
	return d.publish(ctx, Event{
		Type:      "room.created",
		RoomID:    room.ID,
		RoomCode:  room.RoomCode,
		JobID:     room.JobID,
		Applicant: room.ApplicantID,
		Recruiter: room.RecruiterID,
	})
}

// Nop is a Dispatcher that drops every event. Used in tests and when no
// notification backend is configured.
type Nop struct{}

func (Nop) RequestCreated(context.Context, *models.ScheduleRequest) error { return nil }
func (Nop) SlotSelected(context.Context, *models.ScheduleRequest, *models.InterviewRoom) error {
	return nil
}
func (Nop) RoomCreated(context.Context, *models.InterviewRoom) error { return nil }
