package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kelaskode/kelaskode-backend/internal/clock"
	"github.com/kelaskode/kelaskode-backend/internal/config"
	"github.com/kelaskode/kelaskode-backend/internal/judge"
	"github.com/kelaskode/kelaskode-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Exam lifecycle errors. Handlers map these to response codes.
var (
	ErrClassroomNotFound = errors.New("classroom not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserInactive      = errors.New("user is not active")
	ErrExamWindowNotOpen = errors.New("exam window is not open yet")
	ErrExamWindowClosed  = errors.New("exam window has closed")
	ErrExamNotRunning    = errors.New("exam is not running for this user")
)

type classroomStore interface {
	GetByID(ctx context.Context, id int) (*model.Classroom, error)
	Exists(ctx context.Context, id int) (bool, error)
}

type enrollmentStore interface {
	GetByClassroomAndNPM(ctx context.Context, classroomID int, npm string) (*model.User, error)
	MarkExamStarted(ctx context.Context, id int, startedAt time.Time) (time.Time, error)
	SaveSubmission(ctx context.Context, id int, code string) error
	SnapshotCode(ctx context.Context, classroomID int, npm, code string) error
	UpdateCodeByNPM(ctx context.Context, npm, code string) (int64, error)
	SetActiveBulk(ctx context.Context, classroomID int, userIDs []int, active bool) (int64, error)
}

type judgeSubmitter interface {
	Submit(ctx context.Context, req *judge.SubmissionRequest) (json.RawMessage, error)
}

// ExamService owns the exam session lifecycle: the login-time entry gate,
// deadline resolution for the countdown stream, completion, and roster
// activation. All time decisions go through the injected clock.
type ExamService struct {
	classrooms classroomStore
	users      enrollmentStore
	judge      judgeSubmitter
	rdb        *redis.Client
	clk        clock.Clock
	log        zerolog.Logger
}

// NewExamService creates a new ExamService. rdb may be nil, in which case
// the start-time cache and the snapshot queue degrade to direct store access.
func NewExamService(
	classrooms classroomStore,
	users enrollmentStore,
	judgeClient judgeSubmitter,
	rdb *redis.Client,
	clk clock.Clock,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		classrooms: classrooms,
		users:      users,
		judge:      judgeClient,
		rdb:        rdb,
		clk:        clk,
		log:        log.With().Str("component", "exam_service").Logger(),
	}
}

// ─── Entry Gate ─────────────────────────────────────────────────────────────

// Enter validates that a user may enter (or re-enter) their classroom at
// login time. For exam classrooms it enforces the admission window and
// records exam_started_at on first entry, exactly once; later logins within
// the window observe the stored timestamp unchanged.
//
// The returned user carries the effective exam_started_at.
func (s *ExamService) Enter(ctx context.Context, classroom *model.Classroom, user *model.User) (*model.User, error) {
	if !user.Active {
		return nil, ErrUserInactive
	}

	// Timing fields are inert for non-exam classrooms.
	if !classroom.IsExam {
		return user, nil
	}

	now := s.clk.Now()
	if !WithinAdmissionWindow(now, classroom.ExamStart, classroom.ExamEnd) {
		if classroom.ExamStart != nil && now.Before(*classroom.ExamStart) {
			return nil, ErrExamWindowNotOpen
		}
		return nil, ErrExamWindowClosed
	}

	if user.ExamStartedAt == nil {
		started, err := s.users.MarkExamStarted(ctx, user.ID, now)
		if err != nil {
			return nil, fmt.Errorf("mark exam started: %w", err)
		}
		entered := *user
		entered.ExamStartedAt = &started
		user = &entered

		s.log.Info().
			Int("classroom_id", classroom.ID).
			Str("npm", user.NPM).
			Time("started_at", started).
			Msg("Exam countdown started")
	}

	s.cacheStartTime(ctx, classroom.ID, user.ID, *user.ExamStartedAt)
	return user, nil
}

// ─── Countdown ──────────────────────────────────────────────────────────────

// ResolveDeadline validates that a countdown stream may open for the given
// classroom and NPM and returns the per-user deadline. The deadline is
// computed once per stream; exam_started_at is immutable after the gate sets
// it, so concurrent streams converge without coordination.
func (s *ExamService) ResolveDeadline(ctx context.Context, classroomID int, npm string) (time.Time, error) {
	classroom, user, err := s.resolveSession(ctx, classroomID, npm)
	if err != nil {
		return time.Time{}, err
	}

	started := s.startTime(ctx, classroom.ID, user)
	return Deadline(started, classroom.TimeLimit), nil
}

// RemainingSeconds returns the seconds left for a user's attempt, floored at
// zero. Backs the state endpoint used on page reloads.
func (s *ExamService) RemainingSeconds(ctx context.Context, classroomID int, npm string) (float64, error) {
	deadline, err := s.ResolveDeadline(ctx, classroomID, npm)
	if err != nil {
		return 0, err
	}
	return Remaining(s.clk.Now(), deadline).Seconds(), nil
}

func (s *ExamService) resolveSession(ctx context.Context, classroomID int, npm string) (*model.Classroom, *model.User, error) {
	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrClassroomNotFound
		}
		return nil, nil, fmt.Errorf("get classroom: %w", err)
	}
	if !classroom.IsExam {
		return nil, nil, ErrExamNotRunning
	}

	user, err := s.users.GetByClassroomAndNPM(ctx, classroomID, npm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if user.ExamStartedAt == nil {
		return nil, nil, ErrExamNotRunning
	}

	return classroom, user, nil
}

// startTime resolves the authoritative exam start. Redis is the fast path;
// the already-loaded row is the fallback and the cache is self-healed on a
// miss (PostgreSQL stays the system of record).
func (s *ExamService) startTime(ctx context.Context, classroomID int, user *model.User) time.Time {
	dbStart := *user.ExamStartedAt

	if s.rdb == nil {
		return dbStart
	}

	key := config.CacheKey.ExamStartKey(classroomID, user.ID)
	val, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		if cached, parseErr := decodeStartTime(val); parseErr == nil {
			return cached
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Start-time cache read failed, using database value")
		return dbStart
	}

	s.cacheStartTime(ctx, classroomID, user.ID, dbStart)
	return dbStart
}

// encodeStartTime and decodeStartTime are the cache wire format for
// exam_started_at. Nanosecond resolution: the deadline is start plus the
// time limit, so truncating the start would pull the deadline earlier than
// the database value.
func encodeStartTime(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func decodeStartTime(val string) (time.Time, error) {
	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos), nil
}

func (s *ExamService) cacheStartTime(ctx context.Context, classroomID, userID int, startedAt time.Time) {
	if s.rdb == nil {
		return
	}
	key := config.CacheKey.ExamStartKey(classroomID, userID)
	if err := s.rdb.Set(ctx, key, encodeStartTime(startedAt), 0).Err(); err != nil {
		// Non-fatal: the database remains the source of truth.
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache exam start time")
	}
}

// ─── Completion ─────────────────────────────────────────────────────────────

// Finish finalizes a user's attempt: deactivates the enrollment and stores
// the final code, then forwards the code to Judge0 and returns its result.
// The local freeze commits before the external call and is never rolled back
// by a judge failure; a repeated finish re-submits without reactivating.
func (s *ExamService) Finish(ctx context.Context, classroomID int, req *model.FinishExamRequest) (json.RawMessage, error) {
	exists, err := s.classrooms.Exists(ctx, classroomID)
	if err != nil {
		return nil, fmt.Errorf("check classroom: %w", err)
	}
	if !exists {
		return nil, ErrClassroomNotFound
	}

	user, err := s.users.GetByClassroomAndNPM(ctx, classroomID, req.NPM)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.users.SaveSubmission(ctx, user.ID, req.Code); err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}

	s.log.Info().
		Int("classroom_id", classroomID).
		Str("npm", req.NPM).
		Int("language_id", req.LanguageID).
		Msg("Exam finished, forwarding submission to judge")

	result, err := s.judge.Submit(ctx, &judge.SubmissionRequest{
		SourceCode: req.Code,
		LanguageID: req.LanguageID,
	})
	if err != nil {
		// The enrollment stays frozen; only the grading outcome is lost.
		return nil, err
	}
	return result, nil
}

// SubmitToJudge forwards an arbitrary submission to Judge0. When the payload
// names an NPM, the submitted code is persisted to that enrollment first.
func (s *ExamService) SubmitToJudge(ctx context.Context, req *model.JudgeSubmissionRequest) (json.RawMessage, error) {
	if npm := req.TrimmedNPM(); npm != "" {
		affected, err := s.users.UpdateCodeByNPM(ctx, npm, req.SourceCode)
		if err != nil {
			return nil, fmt.Errorf("persist code: %w", err)
		}
		if affected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return s.judge.Submit(ctx, req.ToSubmission())
}

// ─── Roster & Autosave ──────────────────────────────────────────────────────

// SetUsersActive bulk-toggles the active flag for a set of users in one
// classroom. Unknown IDs are ignored; a missing classroom is an error.
func (s *ExamService) SetUsersActive(ctx context.Context, classroomID int, userIDs []int, active bool) error {
	exists, err := s.classrooms.Exists(ctx, classroomID)
	if err != nil {
		return fmt.Errorf("check classroom: %w", err)
	}
	if !exists {
		return ErrClassroomNotFound
	}

	affected, err := s.users.SetActiveBulk(ctx, classroomID, userIDs, active)
	if err != nil {
		return fmt.Errorf("set active bulk: %w", err)
	}

	s.log.Info().
		Int("classroom_id", classroomID).
		Int("requested", len(userIDs)).
		Int64("updated", affected).
		Bool("active", active).
		Msg("Roster activation updated")
	return nil
}

// QueueSnapshot enqueues a code snapshot for asynchronous persistence.
// Snapshots from inactive users are refused so a late autosave cannot
// overwrite a final submission.
func (s *ExamService) QueueSnapshot(ctx context.Context, classroomID int, npm, code string) error {
	user, err := s.users.GetByClassroomAndNPM(ctx, classroomID, npm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}
	if !user.Active {
		return ErrUserInactive
	}

	if s.rdb == nil {
		return s.users.SnapshotCode(ctx, classroomID, npm, code)
	}

	payload, err := json.Marshal(snapshotPayload{
		ClassroomID: classroomID,
		NPM:         npm,
		Code:        code,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.rdb.RPush(ctx, config.WorkerKey.PersistCodeQueue, payload).Err()
}

// snapshotPayload is the queue wire format shared with the snapshot worker.
type snapshotPayload struct {
	ClassroomID int    `json:"classroom_id"`
	NPM         string `json:"npm"`
	Code        string `json:"code"`
}
