package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kelaskode/kelaskode-backend/internal/clock"
	"github.com/kelaskode/kelaskode-backend/internal/judge"
	"github.com/kelaskode/kelaskode-backend/internal/model"
	"github.com/rs/zerolog"
)

// ─── Fakes ──────────────────────────────────────────────────────────────────

type fakeClassrooms struct {
	byID map[int]*model.Classroom
}

func (f *fakeClassrooms) GetByID(_ context.Context, id int) (*model.Classroom, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (f *fakeClassrooms) Exists(_ context.Context, id int) (bool, error) {
	_, ok := f.byID[id]
	return ok, nil
}

type fakeUsers struct {
	byID      map[int]*model.User
	markCalls int
}

func (f *fakeUsers) find(classroomID int, npm string) *model.User {
	for _, u := range f.byID {
		if u.ClassroomID == classroomID && u.NPM == npm {
			return u
		}
	}
	return nil
}

func (f *fakeUsers) GetByClassroomAndNPM(_ context.Context, classroomID int, npm string) (*model.User, error) {
	if u := f.find(classroomID, npm); u != nil {
		copied := *u
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) MarkExamStarted(_ context.Context, id int, startedAt time.Time) (time.Time, error) {
	f.markCalls++
	u, ok := f.byID[id]
	if !ok {
		return time.Time{}, pgx.ErrNoRows
	}
	if u.ExamStartedAt != nil {
		return *u.ExamStartedAt, nil
	}
	u.ExamStartedAt = &startedAt
	return startedAt, nil
}

func (f *fakeUsers) SaveSubmission(_ context.Context, id int, code string) error {
	u, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Active = false
	u.Code = code
	return nil
}

func (f *fakeUsers) SnapshotCode(_ context.Context, classroomID int, npm, code string) error {
	if u := f.find(classroomID, npm); u != nil && u.Active {
		u.Code = code
	}
	return nil
}

func (f *fakeUsers) UpdateCodeByNPM(_ context.Context, npm, code string) (int64, error) {
	var affected int64
	for _, u := range f.byID {
		if u.NPM == npm {
			u.Code = code
			affected++
		}
	}
	return affected, nil
}

func (f *fakeUsers) SetActiveBulk(_ context.Context, classroomID int, userIDs []int, active bool) (int64, error) {
	var affected int64
	for _, id := range userIDs {
		if u, ok := f.byID[id]; ok && u.ClassroomID == classroomID {
			u.Active = active
			affected++
		}
	}
	return affected, nil
}

type fakeJudge struct {
	result json.RawMessage
	err    error
	calls  []*judge.SubmissionRequest
}

func (f *fakeJudge) Submit(_ context.Context, req *judge.SubmissionRequest) (json.RawMessage, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// ─── Fixtures ───────────────────────────────────────────────────────────────

func examClassroom() *model.Classroom {
	start := ts("2026-03-10T08:00:00Z")
	end := ts("2026-03-10T10:00:00Z")
	return &model.Classroom{
		ID:        1,
		Name:      "Struktur Data",
		IsExam:    true,
		ExamStart: &start,
		ExamEnd:   &end,
		TimeLimit: 90,
	}
}

func newTestExamService(classroom *model.Classroom, users *fakeUsers, jd *fakeJudge, clk clock.Clock) *ExamService {
	classrooms := &fakeClassrooms{byID: map[int]*model.Classroom{}}
	if classroom != nil {
		classrooms.byID[classroom.ID] = classroom
	}
	if jd == nil {
		jd = &fakeJudge{result: json.RawMessage(`{}`)}
	}
	return NewExamService(classrooms, users, jd, nil, clk, zerolog.Nop())
}

// ─── Entry gate ─────────────────────────────────────────────────────────────

func TestEnterInactiveUserRejected(t *testing.T) {
	users := &fakeUsers{byID: map[int]*model.User{
		10: {ID: 10, ClassroomID: 1, NPM: "2217051001", Active: false},
	}}
	svc := newTestExamService(examClassroom(), users, nil, clock.NewManual(ts("2026-03-10T09:00:00Z")))

	_, err := svc.Enter(context.Background(), examClassroom(), users.byID[10])
	if !errors.Is(err, ErrUserInactive) {
		t.Fatalf("err = %v, want ErrUserInactive", err)
	}
	if users.markCalls != 0 {
		t.Errorf("markCalls = %d, inactive user must not start a countdown", users.markCalls)
	}
}

func TestEnterNonExamClassroomIgnoresTiming(t *testing.T) {
	classroom := examClassroom()
	classroom.IsExam = false
	user := &model.User{ID: 10, ClassroomID: 1, NPM: "2217051001", Active: true}
	users := &fakeUsers{byID: map[int]*model.User{10: user}}
	// Clock far outside the window: must not matter for a non-exam classroom.
	svc := newTestExamService(classroom, users, nil, clock.NewManual(ts("2026-03-11T00:00:00Z")))

	entered, err := svc.Enter(context.Background(), classroom, user)
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if entered.ExamStartedAt != nil {
		t.Error("non-exam entry must not record a start time")
	}
	if users.markCalls != 0 {
		t.Errorf("markCalls = %d, want 0", users.markCalls)
	}
}

func TestEnterOutsideWindow(t *testing.T) {
	classroom := examClassroom()
	user := &model.User{ID: 10, ClassroomID: 1, NPM: "2217051001", Active: true}
	users := &fakeUsers{byID: map[int]*model.User{10: user}}

	svc := newTestExamService(classroom, users, nil, clock.NewManual(ts("2026-03-10T07:00:00Z")))
	if _, err := svc.Enter(context.Background(), classroom, user); !errors.Is(err, ErrExamWindowNotOpen) {
		t.Errorf("before window: err = %v, want ErrExamWindowNotOpen", err)
	}

	svc = newTestExamService(classroom, users, nil, clock.NewManual(ts("2026-03-10T11:00:00Z")))
	if _, err := svc.Enter(context.Background(), classroom, user); !errors.Is(err, ErrExamWindowClosed) {
		t.Errorf("after window: err = %v, want ErrExamWindowClosed", err)
	}
	if users.markCalls != 0 {
		t.Errorf("markCalls = %d, rejected entries must not start a countdown", users.markCalls)
	}
}

func TestEnterStartsCountdownExactlyOnce(t *testing.T) {
	classroom := examClassroom()
	user := &model.User{ID: 10, ClassroomID: 1, NPM: "2217051001", Active: true}
	users := &fakeUsers{byID: map[int]*model.User{10: user}}
	clk := clock.NewManual(ts("2026-03-10T08:30:00Z"))
	svc := newTestExamService(classroom, users, nil, clk)

	first, err := svc.Enter(context.Background(), classroom, user)
	if err != nil {
		t.Fatalf("first Enter: %v", err)
	}
	if first.ExamStartedAt == nil || !first.ExamStartedAt.Equal(ts("2026-03-10T08:30:00Z")) {
		t.Fatalf("first start = %v, want entry time", first.ExamStartedAt)
	}

	// Re-login 20 minutes later, still inside the window: the start time is
	// the original one and the deadline does not move.
	clk.Advance(20 * time.Minute)
	second, err := svc.Enter(context.Background(), classroom, users.byID[10])
	if err != nil {
		t.Fatalf("second Enter: %v", err)
	}
	if !second.ExamStartedAt.Equal(*first.ExamStartedAt) {
		t.Errorf("second start = %v, want unchanged %v", second.ExamStartedAt, first.ExamStartedAt)
	}
}

// ─── Countdown ──────────────────────────────────────────────────────────────

func TestRemainingSecondsCountsDownAndFloorsAtZero(t *testing.T) {
	classroom := examClassroom()
	started := ts("2026-03-10T08:30:00Z")
	user := &model.User{ID: 10, ClassroomID: 1, NPM: "2217051001", Active: true, ExamStartedAt: &started}
	users := &fakeUsers{byID: map[int]*model.User{10: user}}
	clk := clock.NewManual(ts("2026-03-10T08:30:00Z"))
	svc := newTestExamService(classroom, users, nil, clk)

	remaining, err := svc.RemainingSeconds(context.Background(), 1, "2217051001")
	if err != nil {
		t.Fatalf("RemainingSeconds: %v", err)
	}
	if remaining != (90 * time.Minute).Seconds() {
		t.Errorf("remaining at start = %v, want %v", remaining, (90 * time.Minute).Seconds())
	}

	clk.Advance(30 * time.Minute)
	remaining, _ = svc.RemainingSeconds(context.Background(), 1, "2217051001")
	if remaining != (60 * time.Minute).Seconds() {
		t.Errorf("remaining after 30m = %v, want %v", remaining, (60 * time.Minute).Seconds())
	}

	clk.Advance(2 * time.Hour)
	remaining, _ = svc.RemainingSeconds(context.Background(), 1, "2217051001")
	if remaining != 0 {
		t.Errorf("remaining past deadline = %v, want 0", remaining)
	}
}

func TestResolveDeadlineValidation(t *testing.T) {
	classroom := examClassroom()
	started := ts("2026-03-10T08:30:00Z")
	users := &fakeUsers{byID: map[int]*model.User{
		10: {ID: 10, ClassroomID: 1, NPM: "started", Active: true, ExamStartedAt: &started},
		11: {ID: 11, ClassroomID: 1, NPM: "not-started", Active: true},
	}}
	clk := clock.NewManual(ts("2026-03-10T09:00:00Z"))
	svc := newTestExamService(classroom, users, nil, clk)
	ctx := context.Background()

	if _, err := svc.ResolveDeadline(ctx, 99, "started"); !errors.Is(err, ErrClassroomNotFound) {
		t.Errorf("unknown classroom: err = %v, want ErrClassroomNotFound", err)
	}
	if _, err := svc.ResolveDeadline(ctx, 1, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown npm: err = %v, want ErrUserNotFound", err)
	}
	if _, err := svc.ResolveDeadline(ctx, 1, "not-started"); !errors.Is(err, ErrExamNotRunning) {
		t.Errorf("not started: err = %v, want ErrExamNotRunning", err)
	}

	deadline, err := svc.ResolveDeadline(ctx, 1, "started")
	if err != nil {
		t.Fatalf("ResolveDeadline: %v", err)
	}
	if !deadline.Equal(ts("2026-03-10T10:00:00Z")) {
		t.Errorf("deadline = %v, want start + 90m", deadline)
	}
}

func TestStartTimeCacheKeepsSubSecondPrecision(t *testing.T) {
	// A start instant captured mid-second must survive the cache round trip
	// exactly: truncating it to whole seconds would pull the deadline up to
	// 999ms before exam_started_at + time_limit.
	started := ts("2026-03-10T08:30:00Z").Add(600 * time.Millisecond)

	cached, err := decodeStartTime(encodeStartTime(started))
	if err != nil {
		t.Fatalf("decodeStartTime: %v", err)
	}
	if !cached.Equal(started) {
		t.Fatalf("cached start = %v, want %v", cached, started)
	}

	want := started.Add(90 * time.Minute)
	if got := Deadline(cached, 90); !got.Equal(want) {
		t.Errorf("deadline from cached start = %v, want %v", got, want)
	}

	if _, err := decodeStartTime("not-a-timestamp"); err == nil {
		t.Error("decodeStartTime accepted a malformed value")
	}
}

func TestResolveDeadlineNonExamClassroom(t *testing.T) {
	classroom := examClassroom()
	classroom.IsExam = false
	users := &fakeUsers{byID: map[int]*model.User{
		10: {ID: 10, ClassroomID: 1, NPM: "2217051001", Active: true},
	}}
	svc := newTestExamService(classroom, users, nil, clock.NewManual(ts("2026-03-10T09:00:00Z")))

	if _, err := svc.ResolveDeadline(context.Background(), 1, "2217051001"); !errors.Is(err, ErrExamNotRunning) {
		t.Errorf("err = %v, want ErrExamNotRunning", err)
	}
}

// ─── Completion ─────────────────────────────────────────────────────────────

func TestFinishFreezesThenForwards(t *testing.T) {
	classroom := examClassroom()
	started := ts("2026-03-10T08:30:00Z")
	user := &model.User{ID: 10, ClassroomID: 1, NPM: "2217051001", Active: true, ExamStartedAt: &started}
	users := &fakeUsers{byID: map[int]*model.User{10: user}}
	jd := &fakeJudge{result: json.RawMessage(`{"status":{"id":3}}`)}
	svc := newTestExamService(classroom, users, jd, clock.NewManual(ts("2026-03-10T09:00:00Z")))

	result, err := svc.Finish(context.Background(), 1, &model.FinishExamRequest{
		NPM: "2217051001", Code: "final code", LanguageID: 71,
	})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if string(result) != `{"status":{"id":3}}` {
		t.Errorf("result = %s, want judge result passed through", result)
	}
	if user.Active {
		t.Error("user still active after finish")
	}
	if user.Code != "final code" {
		t.Errorf("code = %q, want final code persisted", user.Code)
	}
	if len(jd.calls) != 1 || jd.calls[0].SourceCode != "final code" || jd.calls[0].LanguageID != 71 {
		t.Errorf("judge calls = %+v", jd.calls)
	}
}

func TestFinishJudgeFailureKeepsLocalState(t *testing.T) {
	classroom := examClassroom()
	user := &model.User{ID: 10, ClassroomID: 1, NPM: "2217051001", Active: true}
	users := &fakeUsers{byID: map[int]*model.User{10: user}}
	jd := &fakeJudge{err: &judge.Error{StatusCode: 500, Body: "boom"}}
	svc := newTestExamService(classroom, users, jd, clock.NewManual(ts("2026-03-10T09:00:00Z")))

	_, err := svc.Finish(context.Background(), 1, &model.FinishExamRequest{
		NPM: "2217051001", Code: "final code", LanguageID: 71,
	})

	var judgeErr *judge.Error
	if !errors.As(err, &judgeErr) {
		t.Fatalf("err = %v, want *judge.Error", err)
	}
	if user.Active {
		t.Error("judge failure must not roll back the local freeze")
	}
	if user.Code != "final code" {
		t.Errorf("code = %q, want final code kept despite judge failure", user.Code)
	}
}

func TestFinishIsIdempotentReSubmission(t *testing.T) {
	classroom := examClassroom()
	user := &model.User{ID: 10, ClassroomID: 1, NPM: "2217051001", Active: true}
	users := &fakeUsers{byID: map[int]*model.User{10: user}}
	jd := &fakeJudge{result: json.RawMessage(`{}`)}
	svc := newTestExamService(classroom, users, jd, clock.NewManual(ts("2026-03-10T09:00:00Z")))
	ctx := context.Background()

	if _, err := svc.Finish(ctx, 1, &model.FinishExamRequest{NPM: "2217051001", Code: "v1", LanguageID: 71}); err != nil {
		t.Fatalf("first Finish: %v", err)
	}
	if _, err := svc.Finish(ctx, 1, &model.FinishExamRequest{NPM: "2217051001", Code: "v2", LanguageID: 71}); err != nil {
		t.Fatalf("second Finish: %v", err)
	}

	if user.Active {
		t.Error("re-finish must not reactivate the user")
	}
	if user.Code != "v2" {
		t.Errorf("code = %q, want latest submission", user.Code)
	}
	if len(jd.calls) != 2 {
		t.Errorf("judge calls = %d, want 2 (each finish re-submits)", len(jd.calls))
	}
}

func TestFinishUnknownTargets(t *testing.T) {
	classroom := examClassroom()
	users := &fakeUsers{byID: map[int]*model.User{}}
	svc := newTestExamService(classroom, users, nil, clock.NewManual(ts("2026-03-10T09:00:00Z")))
	ctx := context.Background()

	if _, err := svc.Finish(ctx, 99, &model.FinishExamRequest{NPM: "x", LanguageID: 1}); !errors.Is(err, ErrClassroomNotFound) {
		t.Errorf("unknown classroom: err = %v", err)
	}
	if _, err := svc.Finish(ctx, 1, &model.FinishExamRequest{NPM: "x", LanguageID: 1}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
}

// ─── Roster & autosave ──────────────────────────────────────────────────────

func TestSetUsersActiveBulk(t *testing.T) {
	classroom := examClassroom()
	users := &fakeUsers{byID: map[int]*model.User{
		10: {ID: 10, ClassroomID: 1, NPM: "a", Active: false},
		11: {ID: 11, ClassroomID: 1, NPM: "b", Active: false},
		12: {ID: 12, ClassroomID: 2, NPM: "c", Active: false},
	}}
	svc := newTestExamService(classroom, users, nil, clock.NewManual(ts("2026-03-10T09:00:00Z")))
	ctx := context.Background()

	if err := svc.SetUsersActive(ctx, 99, []int{10}, true); !errors.Is(err, ErrClassroomNotFound) {
		t.Errorf("unknown classroom: err = %v", err)
	}

	// Unknown IDs and cross-classroom IDs are ignored.
	if err := svc.SetUsersActive(ctx, 1, []int{10, 11, 12, 999}, true); err != nil {
		t.Fatalf("SetUsersActive: %v", err)
	}
	if !users.byID[10].Active || !users.byID[11].Active {
		t.Error("users in the classroom were not activated")
	}
	if users.byID[12].Active {
		t.Error("user in another classroom must not be touched")
	}
}

func TestQueueSnapshotGuards(t *testing.T) {
	classroom := examClassroom()
	users := &fakeUsers{byID: map[int]*model.User{
		10: {ID: 10, ClassroomID: 1, NPM: "active-npm", Active: true, Code: "old"},
		11: {ID: 11, ClassroomID: 1, NPM: "done-npm", Active: false, Code: "final"},
	}}
	svc := newTestExamService(classroom, users, nil, clock.NewManual(ts("2026-03-10T09:00:00Z")))
	ctx := context.Background()

	if err := svc.QueueSnapshot(ctx, 1, "active-npm", "draft"); err != nil {
		t.Fatalf("QueueSnapshot: %v", err)
	}
	if users.byID[10].Code != "draft" {
		t.Errorf("code = %q, want snapshot persisted", users.byID[10].Code)
	}

	if err := svc.QueueSnapshot(ctx, 1, "done-npm", "late draft"); !errors.Is(err, ErrUserInactive) {
		t.Errorf("finished user: err = %v, want ErrUserInactive", err)
	}
	if users.byID[11].Code != "final" {
		t.Errorf("code = %q, a late snapshot must not overwrite the final submission", users.byID[11].Code)
	}

	if err := svc.QueueSnapshot(ctx, 1, "nobody", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown npm: err = %v, want ErrUserNotFound", err)
	}
}

func TestSubmitToJudgePersistsCodeByNPM(t *testing.T) {
	classroom := examClassroom()
	user := &model.User{ID: 10, ClassroomID: 1, NPM: "2217051001", Active: true}
	users := &fakeUsers{byID: map[int]*model.User{10: user}}
	jd := &fakeJudge{result: json.RawMessage(`{"token":"t"}`)}
	svc := newTestExamService(classroom, users, jd, clock.NewManual(ts("2026-03-10T09:00:00Z")))
	ctx := context.Background()

	npm := "2217051001"
	result, err := svc.SubmitToJudge(ctx, &model.JudgeSubmissionRequest{
		SourceCode: "code", LanguageID: 71, NPM: &npm,
	})
	if err != nil {
		t.Fatalf("SubmitToJudge: %v", err)
	}
	if string(result) != `{"token":"t"}` {
		t.Errorf("result = %s", result)
	}
	if user.Code != "code" {
		t.Errorf("code = %q, want persisted before forwarding", user.Code)
	}

	unknown := "9999999999"
	if _, err := svc.SubmitToJudge(ctx, &model.JudgeSubmissionRequest{
		SourceCode: "code", LanguageID: 71, NPM: &unknown,
	}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown npm: err = %v, want ErrUserNotFound", err)
	}

	// Without an NPM nothing is persisted, the payload is only forwarded.
	before := len(jd.calls)
	if _, err := svc.SubmitToJudge(ctx, &model.JudgeSubmissionRequest{SourceCode: "anon", LanguageID: 71}); err != nil {
		t.Fatalf("anonymous SubmitToJudge: %v", err)
	}
	if len(jd.calls) != before+1 {
		t.Errorf("judge calls = %d, want %d", len(jd.calls), before+1)
	}
}
