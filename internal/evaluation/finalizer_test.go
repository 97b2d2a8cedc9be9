package evaluation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hirehub/interview-engine/internal/models"
	"github.com/hirehub/interview-engine/internal/notify"
	"github.com/hirehub/interview-engine/internal/room"
)

type fakeRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*models.InterviewRoom
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{rooms: make(map[string]*models.InterviewRoom)}
}

func (s *fakeRoomStore) CreateRoom(ctx context.Context, rm *models.InterviewRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[rm.ID] = rm
	return nil
}

func (s *fakeRoomStore) GetRoomByID(ctx context.Context, id string) (*models.InterviewRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		out := *r
		return &out, nil
	}
	return nil, nil
}

func (s *fakeRoomStore) GetRoomByCode(ctx context.Context, code string) (*models.InterviewRoom, error) {
	return nil, nil
}

func (s *fakeRoomStore) ListRooms(ctx context.Context, filters models.RoomFilters) ([]*models.InterviewRoom, error) {
	return nil, nil
}

func (s *fakeRoomStore) GetCommittedRooms(ctx context.Context, applicantID string) ([]*models.InterviewRoom, error) {
	return nil, nil
}

func (s *fakeRoomStore) UpdateRoomStatus(ctx context.Context, id string, from []models.RoomStatus, to models.RoomStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if r.Status == f {
			r.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeRoomStore) CountOpenRooms(ctx context.Context, jobID, applicantID string, round int) (int, error) {
	return 0, nil
}

type fakeResultStore struct {
	mu      sync.Mutex
	results map[string]*models.InterviewResult
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{results: make(map[string]*models.InterviewResult)}
}

func (s *fakeResultStore) GetResultByRoom(ctx context.Context, roomID string) (*models.InterviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.results[roomID]; ok {
		out := *r
		return &out, nil
	}
	return nil, nil
}

func (s *fakeResultStore) SaveDraftResult(ctx context.Context, res *models.InterviewResult) (bool, error) {
	return s.upsert(res)
}

func (s *fakeResultStore) SubmitResult(ctx context.Context, res *models.InterviewResult) (bool, error) {
	return s.upsert(res)
}

// upsert mirrors the conditional write and the table constraints:
// anything overwrites a draft, nothing overwrites a submitted result,
// a rewritten row keeps its original id and created_at, score is NULL
// (zero) or within bounds, and a submitted row must carry a score
func (s *fakeResultStore) upsert(res *models.InterviewResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Score != 0 && (res.Score < 1 || res.Score > 10) {
		return false, errors.New("check constraint violated: score")
	}
	if !res.IsDraft && res.Score == 0 {
		return false, errors.New("check constraint violated: submitted without score")
	}
	if existing, ok := s.results[res.RoomID]; ok {
		if !existing.IsDraft {
			return false, nil
		}
		res.ID = existing.ID
		res.CreatedAt = existing.CreatedAt
	}
	stored := *res
	s.results[res.RoomID] = &stored
	return true, nil
}

const (
	recruiterID = "rec-1"
	applicantID = "app-1"
)

func newFixture(t *testing.T) (*Finalizer, *models.InterviewRoom) {
	t.Helper()

	roomStore := newFakeRoomStore()
	rooms := room.NewManager(roomStore, notify.Nop{}, 10*time.Minute)

	rm, err := rooms.CreateDirect(context.Background(),
		models.Party{UserID: recruiterID, Role: models.RoleRecruiter},
		models.CreateRoomRequest{
			JobID:           "job-1",
			ApplicantID:     applicantID,
			ScheduledAt:     time.Now().Add(-time.Minute),
			DurationMinutes: 60,
		})
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}

	return NewFinalizer(rooms, newFakeResultStore()), rm
}

func validResult() models.SaveResultRequest {
	return models.SaveResultRequest{
		Score:          8,
		Comment:        "Strong system design instincts",
		PrivateNotes:   "compare with the other finalist",
		Recommendation: models.RecommendHire,
	}
}

func TestDraftThenSubmit(t *testing.T) {
	f, rm := newFixture(t)
	ctx := context.Background()

	draft, err := f.SaveDraft(ctx, rm.ID, recruiterID, models.SaveResultRequest{Comment: "promising so far"})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if !draft.IsDraft {
		t.Error("draft must be marked as draft")
	}

	// Drafts can be rewritten freely
	if _, err := f.SaveDraft(ctx, rm.ID, recruiterID, models.SaveResultRequest{Comment: "second thoughts", Score: 5}); err != nil {
		t.Fatalf("second SaveDraft: %v", err)
	}

	final, err := f.Submit(ctx, rm.ID, recruiterID, validResult())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if final.IsDraft {
		t.Error("submitted result must not be a draft")
	}

	got, err := f.Get(ctx, rm.ID, recruiterID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Recommendation != models.RecommendHire || got.Score != 8 {
		t.Errorf("stored result = %+v, want the submitted values", got)
	}
}

func TestDraftPartialFields(t *testing.T) {
	f, rm := newFixture(t)
	ctx := context.Background()

	// No score, no recommendation: a draft this sparse must still store
	if _, err := f.SaveDraft(ctx, rm.ID, recruiterID, models.SaveResultRequest{Comment: "leaning positive"}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	got, err := f.Get(ctx, rm.ID, recruiterID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Score != 0 || got.Recommendation != "" {
		t.Errorf("stored draft = score %d recommendation %q, want unset", got.Score, got.Recommendation)
	}
	if !got.IsDraft {
		t.Error("partial result must stay a draft")
	}
}

func TestDraftRewriteKeepsIdentity(t *testing.T) {
	f, rm := newFixture(t)
	ctx := context.Background()

	first, err := f.SaveDraft(ctx, rm.ID, recruiterID, models.SaveResultRequest{Comment: "first pass"})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	second, err := f.SaveDraft(ctx, rm.ID, recruiterID, models.SaveResultRequest{Comment: "second pass", Score: 7})
	if err != nil {
		t.Fatalf("second SaveDraft: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("rewritten draft id = %s, want original %s", second.ID, first.ID)
	}

	final, err := f.Submit(ctx, rm.ID, recruiterID, validResult())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if final.ID != first.ID {
		t.Errorf("submitted id = %s, want original %s", final.ID, first.ID)
	}

	got, err := f.Get(ctx, rm.ID, recruiterID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("Get id = %s, want %s", got.ID, first.ID)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed across rewrites: %v vs %v", got.CreatedAt, first.CreatedAt)
	}
}

func TestSubmitOnce(t *testing.T) {
	f, rm := newFixture(t)
	ctx := context.Background()

	if _, err := f.Submit(ctx, rm.ID, recruiterID, validResult()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := f.Submit(ctx, rm.ID, recruiterID, validResult()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second submit error = %v, want ErrAlreadySubmitted", err)
	}

	// Drafting after submission fails the same way
	if _, err := f.SaveDraft(ctx, rm.ID, recruiterID, models.SaveResultRequest{Comment: "x"}); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("draft after submit error = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	f, rm := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   models.SaveResultRequest
	}{
		{"score too low", models.SaveResultRequest{Score: 0, Comment: "c", Recommendation: models.RecommendPass}},
		{"score too high", models.SaveResultRequest{Score: 11, Comment: "c", Recommendation: models.RecommendPass}},
		{"missing comment", models.SaveResultRequest{Score: 5, Recommendation: models.RecommendPass}},
		{"bad recommendation", models.SaveResultRequest{Score: 5, Comment: "c", Recommendation: "WHATEVER"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.Submit(ctx, rm.ID, recruiterID, tt.in); !errors.Is(err, ErrValidation) {
				t.Errorf("Submit() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestResultPermissions(t *testing.T) {
	f, rm := newFixture(t)
	ctx := context.Background()

	if _, err := f.SaveDraft(ctx, rm.ID, applicantID, validResult()); !errors.Is(err, room.ErrNotRecruiter) {
		t.Errorf("applicant draft error = %v, want ErrNotRecruiter", err)
	}
	if _, err := f.Submit(ctx, rm.ID, applicantID, validResult()); !errors.Is(err, room.ErrNotRecruiter) {
		t.Errorf("applicant submit error = %v, want ErrNotRecruiter", err)
	}

	if _, err := f.Get(ctx, rm.ID, recruiterID); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("missing result error = %v, want ErrResultNotFound", err)
	}

	if _, err := f.Submit(ctx, rm.ID, recruiterID, validResult()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// The applicant reads the result without the private notes
	got, err := f.Get(ctx, rm.ID, applicantID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PrivateNotes != "" {
		t.Error("private notes must be hidden from the applicant")
	}

	got, err = f.Get(ctx, rm.ID, recruiterID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PrivateNotes == "" {
		t.Error("private notes must stay visible to the recruiter")
	}

	if _, err := f.Get(ctx, rm.ID, "stranger"); !errors.Is(err, room.ErrNotParticipant) {
		t.Errorf("stranger get error = %v, want ErrNotParticipant", err)
	}
}
