package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hirehub/interview-engine/internal/models"
	"github.com/hirehub/interview-engine/internal/notify"
	"github.com/hirehub/interview-engine/internal/storage"
)

type fakeStore struct {
	mu       sync.Mutex
	requests map[string]*models.ScheduleRequest
	rooms    []*models.InterviewRoom
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: make(map[string]*models.ScheduleRequest)}
}

func (s *fakeStore) CreateScheduleRequest(ctx context.Context, req *models.ScheduleRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

func (s *fakeStore) GetScheduleRequestByID(ctx context.Context, id string) (*models.ScheduleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRequest(s.requests[id]), nil
}

func (s *fakeStore) GetScheduleRequestByCode(ctx context.Context, code string) (*models.ScheduleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.RequestCode == code {
			return cloneRequest(req), nil
		}
	}
	return nil, nil
}

// cloneRequest keeps readers isolated from concurrent writers, the way
// rows scanned from a database would be
func cloneRequest(req *models.ScheduleRequest) *models.ScheduleRequest {
	if req == nil {
		return nil
	}
	out := *req
	out.Slots = make([]*models.TimeSlot, len(req.Slots))
	for i, slot := range req.Slots {
		s := *slot
		out.Slots[i] = &s
	}
	return &out
}

func (s *fakeStore) SelectSlot(ctx context.Context, requestID, slotID string, respondedAt time.Time, room *models.InterviewRoom) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok || req.Status != models.RequestPending {
		return false, nil
	}
	// One non-cancelled room per (job, applicant, round), like the
	// partial unique index
	for _, r := range s.rooms {
		if r.JobID == room.JobID && r.ApplicantID == room.ApplicantID && r.Round == room.Round && r.Status != models.RoomCancelled {
			return false, storage.ErrDuplicateOpenRoom
		}
	}
	req.Status = models.RequestSelected
	req.SelectedTimeSlotID = slotID
	req.RespondedAt = &respondedAt
	s.rooms = append(s.rooms, room)
	return true, nil
}

func (s *fakeStore) UpdateRequestStatus(ctx context.Context, id string, from []models.RequestStatus, to models.RequestStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if req.Status == f {
			req.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetCommittedRooms(ctx context.Context, applicantID string) ([]*models.InterviewRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.InterviewRoom
	for _, r := range s.rooms {
		if r.ApplicantID == applicantID && r.Status.IsActive() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) roomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

var (
	recruiter = models.Party{UserID: "rec-1", Role: models.RoleRecruiter}
	applicant = models.Party{UserID: "app-1", Role: models.RoleApplicant}
)

func proposedTimes(base time.Time) []time.Time {
	return []time.Time{base, base.Add(24 * time.Hour), base.Add(48 * time.Hour)}
}

func newTestEngine(store *fakeStore, now time.Time) *Engine {
	e := NewEngine(store, notify.Nop{})
	e.now = func() time.Time { return now }
	return e
}

func createRequest(t *testing.T, e *Engine, base time.Time) *models.ScheduleRequest {
	t.Helper()
	req, err := e.Create(context.Background(), recruiter, models.CreateScheduleRequest{
		JobID:         "job-1",
		ApplicantID:   applicant.UserID,
		ProposedTimes: proposedTimes(base),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return req
}

func TestCreateValidation(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	base := now.Add(24 * time.Hour)
	e := newTestEngine(newFakeStore(), now)
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  models.Party
		in      models.CreateScheduleRequest
		wantErr error
	}{
		{
			name:    "applicant cannot create",
			caller:  applicant,
			in:      models.CreateScheduleRequest{JobID: "j", ApplicantID: "a", ProposedTimes: proposedTimes(base)},
			wantErr: ErrNotRecruiter,
		},
		{
			name:    "missing job",
			caller:  recruiter,
			in:      models.CreateScheduleRequest{ApplicantID: "a", ProposedTimes: proposedTimes(base)},
			wantErr: ErrValidation,
		},
		{
			name:    "missing applicant",
			caller:  recruiter,
			in:      models.CreateScheduleRequest{JobID: "j", ProposedTimes: proposedTimes(base)},
			wantErr: ErrValidation,
		},
		{
			name:    "too few proposed times",
			caller:  recruiter,
			in:      models.CreateScheduleRequest{JobID: "j", ApplicantID: "a", ProposedTimes: []time.Time{base, base.Add(time.Hour)}},
			wantErr: ErrValidation,
		},
		{
			name:   "too many proposed times",
			caller: recruiter,
			in: models.CreateScheduleRequest{JobID: "j", ApplicantID: "a", ProposedTimes: func() []time.Time {
				var ts []time.Time
				for i := 0; i < 11; i++ {
					ts = append(ts, base.Add(time.Duration(i)*time.Hour))
				}
				return ts
			}()},
			wantErr: ErrValidation,
		},
		{
			name:    "all proposed times zero",
			caller:  recruiter,
			in:      models.CreateScheduleRequest{JobID: "j", ApplicantID: "a", ProposedTimes: make([]time.Time, 3)},
			wantErr: ErrValidation,
		},
		{
			name:    "video not supported",
			caller:  recruiter,
			in:      models.CreateScheduleRequest{JobID: "j", ApplicantID: "a", ProposedTimes: proposedTimes(base), InterviewType: models.InterviewVideo},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Create(ctx, tt.caller, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	e := newTestEngine(store, now)

	// One zero entry slips in; it must be dropped, not fail the request
	times := proposedTimes(now.Add(24 * time.Hour))
	times = append(times[:2], time.Time{}, times[2])

	req, err := e.Create(context.Background(), recruiter, models.CreateScheduleRequest{
		JobID:         "job-1",
		ApplicantID:   applicant.UserID,
		ProposedTimes: times,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if req.Status != models.RequestPending {
		t.Errorf("status = %v, want PENDING", req.Status)
	}
	if len(req.Slots) != 3 {
		t.Errorf("slots = %d, want 3 (zero entry dropped)", len(req.Slots))
	}
	if req.DurationMinutes != 60 {
		t.Errorf("duration = %d, want default 60", req.DurationMinutes)
	}
	if want := now.Add(72 * time.Hour); !req.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", req.ExpiresAt, want)
	}
	if req.RequestCode == "" || req.ID == "" {
		t.Error("request must get an id and an opaque code")
	}
	if req.Round != 1 {
		t.Errorf("round = %d, want 1", req.Round)
	}
	for _, slot := range req.Slots {
		if !slot.Available {
			t.Errorf("slot %s should be available with no committed rooms", slot.ID)
		}
	}
}

func TestGetByCodeLazyExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	e := newTestEngine(store, now)
	req := createRequest(t, e, now.Add(24*time.Hour))

	// Move past the expiration window
	e.now = func() time.Time { return now.Add(73 * time.Hour) }

	got, err := e.GetByCode(context.Background(), req.RequestCode)
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if got.Status != models.RequestExpired {
		t.Errorf("status = %v, want EXPIRED after window", got.Status)
	}

	// And the stored record transitioned too
	stored, _ := store.GetScheduleRequestByID(context.Background(), req.ID)
	if stored.Status != models.RequestExpired {
		t.Errorf("stored status = %v, want EXPIRED", stored.Status)
	}
}

func TestGetByCodeNotFound(t *testing.T) {
	e := newTestEngine(newFakeStore(), time.Now())
	if _, err := e.GetByCode(context.Background(), "nope"); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("error = %v, want ErrRequestNotFound", err)
	}
}

func TestSelectSlot(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	e := newTestEngine(store, now)
	req := createRequest(t, e, now.Add(24*time.Hour))
	slot := req.Slots[0]

	room, err := e.SelectSlot(context.Background(), applicant, req.ID, slot.ID)
	if err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}

	if room.Status != models.RoomScheduled {
		t.Errorf("room status = %v, want SCHEDULED", room.Status)
	}
	if !room.ScheduledAt.Equal(slot.StartTime) {
		t.Errorf("scheduled_at = %v, want %v", room.ScheduledAt, slot.StartTime)
	}
	if room.ApplicantID != req.ApplicantID || room.RecruiterID != req.RecruiterID {
		t.Error("room must inherit the request's parties")
	}
	if room.RoomCode == "" {
		t.Error("room must get a join code")
	}

	stored, _ := store.GetScheduleRequestByID(context.Background(), req.ID)
	if stored.Status != models.RequestSelected {
		t.Errorf("request status = %v, want SELECTED", stored.Status)
	}
	if stored.SelectedTimeSlotID != slot.ID {
		t.Errorf("selected slot = %s, want %s", stored.SelectedTimeSlotID, slot.ID)
	}

	// Second select observes the terminal state
	if _, err := e.SelectSlot(context.Background(), applicant, req.ID, slot.ID); !errors.Is(err, ErrRequestAlreadyHandled) {
		t.Errorf("second select error = %v, want ErrRequestAlreadyHandled", err)
	}
}

func TestSelectSlotPermissions(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	e := newTestEngine(newFakeStore(), now)
	req := createRequest(t, e, now.Add(24*time.Hour))

	stranger := models.Party{UserID: "someone-else", Role: models.RoleApplicant}
	if _, err := e.SelectSlot(context.Background(), stranger, req.ID, req.Slots[0].ID); !errors.Is(err, ErrNotApplicant) {
		t.Errorf("error = %v, want ErrNotApplicant", err)
	}

	if _, err := e.SelectSlot(context.Background(), applicant, req.ID, "unknown-slot"); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("error = %v, want ErrSlotNotFound", err)
	}
}

func TestSelectSlotExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	e := newTestEngine(newFakeStore(), now)
	req := createRequest(t, e, now.Add(24*time.Hour))

	e.now = func() time.Time { return now.Add(73 * time.Hour) }
	if _, err := e.SelectSlot(context.Background(), applicant, req.ID, req.Slots[0].ID); !errors.Is(err, ErrRequestExpired) {
		t.Errorf("error = %v, want ErrRequestExpired", err)
	}
}

func TestSelectSlotConflicts(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	e := newTestEngine(store, now)
	req := createRequest(t, e, now.Add(24*time.Hour))

	// The applicant commits to a room overlapping the first slot only
	store.rooms = append(store.rooms, &models.InterviewRoom{
		ID:              "busy-1",
		ApplicantID:     applicant.UserID,
		ScheduledAt:     req.Slots[0].StartTime,
		DurationMinutes: 60,
		Status:          models.RoomScheduled,
	})

	if _, err := e.SelectSlot(context.Background(), applicant, req.ID, req.Slots[0].ID); !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("error = %v, want ErrSlotUnavailable while other slots remain", err)
	}

	// Now every slot conflicts
	for _, slot := range req.Slots[1:] {
		store.rooms = append(store.rooms, &models.InterviewRoom{
			ID:              "busy-" + slot.ID,
			ApplicantID:     applicant.UserID,
			ScheduledAt:     slot.StartTime,
			DurationMinutes: 60,
			Status:          models.RoomScheduled,
		})
	}

	if _, err := e.SelectSlot(context.Background(), applicant, req.ID, req.Slots[0].ID); !errors.Is(err, ErrNoAvailableSlots) {
		t.Errorf("error = %v, want ErrNoAvailableSlots when nothing is free", err)
	}
}

func TestSelectSlotDuplicateRound(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	e := newTestEngine(store, now)
	req := createRequest(t, e, now.Add(24*time.Hour))

	// A finished room for the same round at a non-conflicting time: the
	// availability check passes but the round is already taken
	store.rooms = append(store.rooms, &models.InterviewRoom{
		ID:              "done-1",
		JobID:           req.JobID,
		ApplicantID:     applicant.UserID,
		Round:           req.Round,
		ScheduledAt:     now.Add(-48 * time.Hour),
		DurationMinutes: 60,
		Status:          models.RoomFinished,
	})

	if _, err := e.SelectSlot(context.Background(), applicant, req.ID, req.Slots[0].ID); !errors.Is(err, ErrRoomExists) {
		t.Errorf("error = %v, want ErrRoomExists", err)
	}
}

func TestSelectSlotSingleWinner(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	e := newTestEngine(store, now)
	req := createRequest(t, e, now.Add(24*time.Hour))

	const racers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < racers; i++ {
		wg.Add(1)
		slot := req.Slots[i%len(req.Slots)]
		go func() {
			defer wg.Done()
			if _, err := e.SelectSlot(context.Background(), applicant, req.ID, slot.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("winners = %d, want exactly 1", wins)
	}
	if store.roomCount() != 1 {
		t.Errorf("rooms created = %d, want exactly 1", store.roomCount())
	}
}

func TestCancelRequest(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	e := newTestEngine(store, now)
	req := createRequest(t, e, now.Add(24*time.Hour))
	ctx := context.Background()

	if err := e.Cancel(ctx, applicant, req.ID); !errors.Is(err, ErrNotRecruiter) {
		t.Errorf("applicant cancel error = %v, want ErrNotRecruiter", err)
	}

	if err := e.Cancel(ctx, recruiter, req.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// Idempotent on repeat
	if err := e.Cancel(ctx, recruiter, req.ID); err != nil {
		t.Errorf("repeated cancel should be a no-op, got %v", err)
	}

	// A selected request cannot be cancelled
	req2 := createRequest(t, e, now.Add(24*time.Hour))
	if _, err := e.SelectSlot(ctx, applicant, req2.ID, req2.Slots[0].ID); err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
	if err := e.Cancel(ctx, recruiter, req2.ID); !errors.Is(err, ErrRequestAlreadyHandled) {
		t.Errorf("cancel after select error = %v, want ErrRequestAlreadyHandled", err)
	}
}
