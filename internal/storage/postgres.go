package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirehub/interview-engine/internal/models"
)

// ErrDuplicateOpenRoom is returned when a room insert would violate the
// one-non-cancelled-room-per-(job, applicant, round) invariant.
var ErrDuplicateOpenRoom = errors.New("an open room already exists for this round")

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Schedule requests ---

// CreateScheduleRequest stores a request together with its proposed slots
func (r *PostgresRepository) CreateScheduleRequest(ctx context.Context, req *models.ScheduleRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO schedule_requests (id, job_id, applicant_id, recruiter_id, status, selected_time_slot_id, request_code, duration_minutes, interview_type, interview_mode, round, previous_room_id, created_at, expires_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = tx.Exec(ctx, query,
		req.ID,
		req.JobID,
		req.ApplicantID,
		req.RecruiterID,
		string(req.Status),
		nullString(req.SelectedTimeSlotID),
		req.RequestCode,
		req.DurationMinutes,
		string(req.InterviewType),
		string(req.InterviewMode),
		req.Round,
		nullString(req.PreviousRoomID),
		req.CreatedAt,
		req.ExpiresAt,
		nullTime(req.RespondedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule request: %w", err)
	}

	for _, slot := range req.Slots {
		_, err = tx.Exec(ctx,
			`INSERT INTO time_slots (id, request_id, start_time) VALUES ($1, $2, $3)`,
			slot.ID, req.ID, slot.StartTime,
		)
		if err != nil {
			return fmt.Errorf("failed to create time slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schedule request: %w", err)
	}

	return nil
}

// GetScheduleRequestByID retrieves a request by ID
func (r *PostgresRepository) GetScheduleRequestByID(ctx context.Context, id string) (*models.ScheduleRequest, error) {
	return r.getScheduleRequest(ctx, "id", id)
}

// GetScheduleRequestByCode retrieves a request by its opaque access code
func (r *PostgresRepository) GetScheduleRequestByCode(ctx context.Context, code string) (*models.ScheduleRequest, error) {
	return r.getScheduleRequest(ctx, "request_code", code)
}

func (r *PostgresRepository) getScheduleRequest(ctx context.Context, field, value string) (*models.ScheduleRequest, error) {
	query := fmt.Sprintf(`
		SELECT id, job_id, applicant_id, recruiter_id, status, selected_time_slot_id, request_code, duration_minutes, interview_type, interview_mode, round, previous_room_id, created_at, expires_at, responded_at
		FROM schedule_requests
		WHERE %s = $1
	`, field)

	var req models.ScheduleRequest
	var statusStr, typeStr, modeStr string
	var selectedSlotID, previousRoomID sql.NullString
	var respondedAt sql.NullTime

	err := r.pool.QueryRow(ctx, query, value).Scan(
		&req.ID,
		&req.JobID,
		&req.ApplicantID,
		&req.RecruiterID,
		&statusStr,
		&selectedSlotID,
		&req.RequestCode,
		&req.DurationMinutes,
		&typeStr,
		&modeStr,
		&req.Round,
		&previousRoomID,
		&req.CreatedAt,
		&req.ExpiresAt,
		&respondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get schedule request: %w", err)
	}

	req.Status = models.RequestStatus(statusStr)
	req.InterviewType = models.InterviewType(typeStr)
	req.InterviewMode = models.InterviewMode(modeStr)
	req.SelectedTimeSlotID = selectedSlotID.String
	req.PreviousRoomID = previousRoomID.String
	if respondedAt.Valid {
		req.RespondedAt = &respondedAt.Time
	}

	slots, err := r.getTimeSlots(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Slots = slots

	return &req, nil
}

func (r *PostgresRepository) getTimeSlots(ctx context.Context, requestID string) ([]*models.TimeSlot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, request_id, start_time FROM time_slots WHERE request_id = $1 ORDER BY start_time ASC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get time slots: %w", err)
	}
	defer rows.Close()

	var slots []*models.TimeSlot
	for rows.Next() {
		var slot models.TimeSlot
		if err := rows.Scan(&slot.ID, &slot.RequestID, &slot.StartTime); err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, rows.Err()
}

// SelectSlot claims a slot on a PENDING request and creates the interview
// room in the same transaction. The status column acts as the compare-and-
// swap guard: exactly one concurrent caller observes a row update.
func (r *PostgresRepository) SelectSlot(ctx context.Context, requestID, slotID string, respondedAt time.Time, room *models.InterviewRoom) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE schedule_requests
		SET status = $2, selected_time_slot_id = $3, responded_at = $4
		WHERE id = $1 AND status = $5
	`,
		requestID,
		string(models.RequestSelected),
		slotID,
		respondedAt,
		string(models.RequestPending),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return false, nil
	}

	if err := insertRoom(ctx, tx, room); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit slot selection: %w", err)
	}

	return true, nil
}

// UpdateRequestStatus transitions a request's status iff the current status
// is one of the expected values
func (r *PostgresRepository) UpdateRequestStatus(ctx context.Context, id string, from []models.RequestStatus, to models.RequestStatus) (bool, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	result, err := r.pool.Exec(ctx,
		`UPDATE schedule_requests SET status = $2 WHERE id = $1 AND status = ANY($3)`,
		id, string(to), fromStrs,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update request status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ExpirePendingRequests sweeps all PENDING requests past their window
func (r *PostgresRepository) ExpirePendingRequests(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE schedule_requests SET status = $1 WHERE status = $2 AND expires_at < $3`,
		string(models.RequestExpired), string(models.RequestPending), now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending requests: %w", err)
	}

	return result.RowsAffected(), nil
}

// --- Rooms ---

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRoom(ctx context.Context, db execer, room *models.InterviewRoom) error {
	query := `
		INSERT INTO interview_rooms (id, job_id, applicant_id, recruiter_id, room_code, scheduled_at, duration_minutes, status, interview_type, mode, round, previous_room_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := db.Exec(ctx, query,
		room.ID,
		room.JobID,
		room.ApplicantID,
		room.RecruiterID,
		room.RoomCode,
		room.ScheduledAt,
		room.DurationMinutes,
		string(room.Status),
		string(room.InterviewType),
		string(room.Mode),
		room.Round,
		nullString(room.PreviousRoomID),
		room.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_rooms_one_open_per_round" {
			return ErrDuplicateOpenRoom
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

// CreateRoom creates a new interview room record
func (r *PostgresRepository) CreateRoom(ctx context.Context, room *models.InterviewRoom) error {
	return insertRoom(ctx, r.pool, room)
}

// GetRoomByID retrieves a room by ID
func (r *PostgresRepository) GetRoomByID(ctx context.Context, id string) (*models.InterviewRoom, error) {
	return r.getRoom(ctx, "id", id)
}

// GetRoomByCode retrieves a room by its join code
func (r *PostgresRepository) GetRoomByCode(ctx context.Context, code string) (*models.InterviewRoom, error) {
	return r.getRoom(ctx, "room_code", code)
}

const roomColumns = `id, job_id, applicant_id, recruiter_id, room_code, scheduled_at, duration_minutes, status, interview_type, mode, round, previous_room_id, created_at`

func scanRoom(row pgx.Row) (*models.InterviewRoom, error) {
	var room models.InterviewRoom
	var statusStr, typeStr, modeStr string
	var previousRoomID sql.NullString

	err := row.Scan(
		&room.ID,
		&room.JobID,
		&room.ApplicantID,
		&room.RecruiterID,
		&room.RoomCode,
		&room.ScheduledAt,
		&room.DurationMinutes,
		&statusStr,
		&typeStr,
		&modeStr,
		&room.Round,
		&previousRoomID,
		&room.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	room.Status = models.RoomStatus(statusStr)
	room.InterviewType = models.InterviewType(typeStr)
	room.Mode = models.InterviewMode(modeStr)
	room.PreviousRoomID = previousRoomID.String

	return &room, nil
}

func (r *PostgresRepository) getRoom(ctx context.Context, field, value string) (*models.InterviewRoom, error) {
	query := fmt.Sprintf(`SELECT %s FROM interview_rooms WHERE %s = $1`, roomColumns, field)

	room, err := scanRoom(r.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// ListRooms returns rooms matching filters
func (r *PostgresRepository) ListRooms(ctx context.Context, filters models.RoomFilters) ([]*models.InterviewRoom, error) {
	query := fmt.Sprintf(`SELECT %s FROM interview_rooms WHERE 1=1`, roomColumns)
	args := make([]interface{}, 0)
	argNum := 1

	if filters.RecruiterID != "" {
		query += fmt.Sprintf(" AND recruiter_id = $%d", argNum)
		args = append(args, filters.RecruiterID)
		argNum++
	}

	if filters.ApplicantID != "" {
		query += fmt.Sprintf(" AND applicant_id = $%d", argNum)
		args = append(args, filters.ApplicantID)
		argNum++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filters.Status))
		argNum++
	}

	query += " ORDER BY scheduled_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.InterviewRoom
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// GetCommittedRooms returns the applicant's rooms that count against
// availability. Cancelled rooms never conflict.
func (r *PostgresRepository) GetCommittedRooms(ctx context.Context, applicantID string) ([]*models.InterviewRoom, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM interview_rooms WHERE applicant_id = $1 AND status <> $2 ORDER BY scheduled_at ASC`,
		roomColumns,
	)

	rows, err := r.pool.Query(ctx, query, applicantID, string(models.RoomCancelled))
	if err != nil {
		return nil, fmt.Errorf("failed to get committed rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.InterviewRoom
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// UpdateRoomStatus transitions a room's status iff the current status is
// one of the expected values
func (r *PostgresRepository) UpdateRoomStatus(ctx context.Context, id string, from []models.RoomStatus, to models.RoomStatus) (bool, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	result, err := r.pool.Exec(ctx,
		`UPDATE interview_rooms SET status = $2 WHERE id = $1 AND status = ANY($3)`,
		id, string(to), fromStrs,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update room status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// FinishOverdueRooms sweeps all ONGOING rooms whose window has elapsed
func (r *PostgresRepository) FinishOverdueRooms(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE interview_rooms
		SET status = $1
		WHERE status = $2
		  AND scheduled_at + make_interval(mins => duration_minutes) < $3
	`,
		string(models.RoomFinished), string(models.RoomOngoing), now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to finish overdue rooms: %w", err)
	}

	return result.RowsAffected(), nil
}

// CountOpenRooms counts non-cancelled rooms for a (job, applicant, round)
func (r *PostgresRepository) CountOpenRooms(ctx context.Context, jobID, applicantID string, round int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM interview_rooms
		WHERE job_id = $1 AND applicant_id = $2 AND round = $3 AND status <> $4
	`,
		jobID, applicantID, round, string(models.RoomCancelled),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open rooms: %w", err)
	}

	return count, nil
}

// --- Messages ---

// AppendMessage stores a message and assigns its monotonic sequence
func (r *PostgresRepository) AppendMessage(ctx context.Context, msg *models.InterviewMessage) error {
	query := `
		INSERT INTO interview_messages (id, room_id, sender_id, sender_role, type, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`

	err := r.pool.QueryRow(ctx, query,
		msg.ID,
		msg.RoomID,
		msg.SenderID,
		string(msg.SenderRole),
		string(msg.Type),
		msg.Content,
		msg.CreatedAt,
	).Scan(&msg.Sequence)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	return nil
}

// ListMessages returns a room's transcript in delivery order
func (r *PostgresRepository) ListMessages(ctx context.Context, roomID string) ([]*models.InterviewMessage, error) {
	query := `
		SELECT id, room_id, sender_id, sender_role, type, content, seq, created_at
		FROM interview_messages
		WHERE room_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.InterviewMessage
	for rows.Next() {
		var msg models.InterviewMessage
		var roleStr, typeStr string

		err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.SenderID,
			&roleStr,
			&typeStr,
			&msg.Content,
			&msg.Sequence,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.SenderRole = models.Role(roleStr)
		msg.Type = models.MessageType(typeStr)
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// AppendQuestionMessage stores a QUESTION message together with its
// question record in one transaction. The question's order index is
// computed inside the insert; a concurrent append for the same room can
// still collide on the (room_id, order_index) unique constraint, in
// which case the whole transaction is retried.
func (r *PostgresRepository) AppendQuestionMessage(ctx context.Context, msg *models.InterviewMessage, q *models.InterviewQuestion) error {
	for attempt := 0; attempt < 3; attempt++ {
		err := r.appendQuestionMessage(ctx, msg, q)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return err
	}

	return fmt.Errorf("failed to append question message: order index contention on room %s", q.RoomID)
}

func (r *PostgresRepository) appendQuestionMessage(ctx context.Context, msg *models.InterviewMessage, q *models.InterviewQuestion) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO interview_messages (id, room_id, sender_id, sender_role, type, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`,
		msg.ID,
		msg.RoomID,
		msg.SenderID,
		string(msg.SenderRole),
		string(msg.Type),
		msg.Content,
		msg.CreatedAt,
	).Scan(&msg.Sequence)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO interview_questions (id, room_id, content, status, order_index, asked_at)
		SELECT $1, $2, $3, $4, COALESCE(MAX(order_index), 0) + 1, $5
		FROM interview_questions
		WHERE room_id = $2
		RETURNING order_index
	`,
		q.ID,
		q.RoomID,
		q.Content,
		string(q.Status),
		q.AskedAt,
	).Scan(&q.OrderIndex)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit question message: %w", err)
	}

	return nil
}

// --- Questions ---

const questionColumns = `id, room_id, content, answer, status, evaluation, order_index, asked_at, answered_at`

func scanQuestion(row pgx.Row) (*models.InterviewQuestion, error) {
	var q models.InterviewQuestion
	var statusStr string
	var answer, evaluation sql.NullString
	var answeredAt sql.NullTime

	err := row.Scan(
		&q.ID,
		&q.RoomID,
		&q.Content,
		&answer,
		&statusStr,
		&evaluation,
		&q.OrderIndex,
		&q.AskedAt,
		&answeredAt,
	)
	if err != nil {
		return nil, err
	}

	q.Status = models.QuestionStatus(statusStr)
	q.Answer = answer.String
	q.Evaluation = models.QuestionEvaluation(evaluation.String)
	if answeredAt.Valid {
		q.AnsweredAt = &answeredAt.Time
	}

	return &q, nil
}

// GetQuestion retrieves a question by ID
func (r *PostgresRepository) GetQuestion(ctx context.Context, id string) (*models.InterviewQuestion, error) {
	query := fmt.Sprintf(`SELECT %s FROM interview_questions WHERE id = $1`, questionColumns)

	q, err := scanQuestion(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	return q, nil
}

// ListQuestions returns a room's questions ordered by their index
func (r *PostgresRepository) ListQuestions(ctx context.Context, roomID string) ([]*models.InterviewQuestion, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM interview_questions WHERE room_id = $1 ORDER BY order_index ASC`,
		questionColumns,
	)

	rows, err := r.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.InterviewQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

// AnswerQuestion records an answer iff the question is still PENDING
func (r *PostgresRepository) AnswerQuestion(ctx context.Context, id, answer string, answeredAt time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE interview_questions
		SET answer = $2, status = $3, answered_at = $4
		WHERE id = $1 AND status = $5
	`,
		id, answer, string(models.QuestionAnswered), answeredAt, string(models.QuestionPending),
	)
	if err != nil {
		return false, fmt.Errorf("failed to answer question: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// EvaluateQuestion overwrites the evaluation of a question
func (r *PostgresRepository) EvaluateQuestion(ctx context.Context, id string, outcome models.QuestionEvaluation) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE interview_questions SET evaluation = $2 WHERE id = $1`,
		id, string(outcome),
	)
	if err != nil {
		return fmt.Errorf("failed to evaluate question: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("question not found: %s", id)
	}

	return nil
}

// --- Results ---

// GetResultByRoom retrieves the evaluation result for a room
func (r *PostgresRepository) GetResultByRoom(ctx context.Context, roomID string) (*models.InterviewResult, error) {
	query := `
		SELECT id, room_id, score, comment, private_notes, recommendation, is_draft, created_at, updated_at
		FROM interview_results
		WHERE room_id = $1
	`

	var res models.InterviewResult
	var recommendationStr string
	var score sql.NullInt32
	var privateNotes sql.NullString

	err := r.pool.QueryRow(ctx, query, roomID).Scan(
		&res.ID,
		&res.RoomID,
		&score,
		&res.Comment,
		&privateNotes,
		&recommendationStr,
		&res.IsDraft,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	res.Score = int(score.Int32)
	res.Recommendation = models.Recommendation(recommendationStr)
	res.PrivateNotes = privateNotes.String

	return &res, nil
}

// SaveDraftResult upserts a draft. Returns false when a submitted result
// already exists for the room: the WHERE guard on the conflict update
// refuses to touch a non-draft row.
func (r *PostgresRepository) SaveDraftResult(ctx context.Context, res *models.InterviewResult) (bool, error) {
	return r.upsertResult(ctx, res, true)
}

// SubmitResult finalizes a result. Same guard as SaveDraftResult: once a
// non-draft row exists, no later write ever touches it.
func (r *PostgresRepository) SubmitResult(ctx context.Context, res *models.InterviewResult) (bool, error) {
	return r.upsertResult(ctx, res, false)
}

func (r *PostgresRepository) upsertResult(ctx context.Context, res *models.InterviewResult, draft bool) (bool, error) {
	// The conflict update keeps the original row's id and created_at;
	// they are scanned back so callers return the stored identity
	query := `
		INSERT INTO interview_results (id, room_id, score, comment, private_notes, recommendation, is_draft, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (room_id) DO UPDATE
		SET score = EXCLUDED.score,
		    comment = EXCLUDED.comment,
		    private_notes = EXCLUDED.private_notes,
		    recommendation = EXCLUDED.recommendation,
		    is_draft = EXCLUDED.is_draft,
		    updated_at = EXCLUDED.updated_at
		WHERE interview_results.is_draft
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		res.ID,
		res.RoomID,
		nullInt(res.Score),
		res.Comment,
		nullString(res.PrivateNotes),
		string(res.Recommendation),
		draft,
		res.UpdatedAt,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to save result: %w", err)
	}

	return true, nil
}

// Helper functions for nullable values

func nullInt(n int) sql.NullInt32 {
	if n == 0 {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(n), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
