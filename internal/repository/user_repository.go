package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelaskode/kelaskode-backend/internal/model"
)

const userColumns = `id, classroom_id, name, npm, code, active, exam_started_at,
	created_at, updated_at`

// UserRepository handles enrollment data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row interface{ Scan(dest ...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.ClassroomID, &u.Name, &u.NPM, &u.Code, &u.Active,
		&u.ExamStartedAt, &u.CreatedAt, &u.UpdatedAt)
}

// GetByID retrieves an enrollment by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	u := &model.User{}
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns), id)
	if err := scanUser(row, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByClassroomAndNPM retrieves the enrollment of an NPM within a classroom.
func (r *UserRepository) GetByClassroomAndNPM(ctx context.Context, classroomID int, npm string) (*model.User, error) {
	u := &model.User{}
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE classroom_id = $1 AND npm = $2`, userColumns),
		classroomID, npm)
	if err := scanUser(row, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByNPM retrieves the first enrollment for an NPM across all classrooms.
func (r *UserRepository) GetByNPM(ctx context.Context, npm string) (*model.User, error) {
	u := &model.User{}
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE npm = $1 ORDER BY id LIMIT 1`, userColumns), npm)
	if err := scanUser(row, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListByClassroom retrieves all enrollments of a classroom ordered by ID.
func (r *UserRepository) ListByClassroom(ctx context.Context, classroomID int) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE classroom_id = $1 ORDER BY id`, userColumns),
		classroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListByClassroomIDs retrieves enrollments of several classrooms grouped by
// classroom ID. Used to assemble list responses in one round trip.
func (r *UserRepository) ListByClassroomIDs(ctx context.Context, classroomIDs []int) (map[int][]model.User, error) {
	grouped := make(map[int][]model.User, len(classroomIDs))
	if len(classroomIDs) == 0 {
		return grouped, nil
	}

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE classroom_id = ANY($1) ORDER BY id`, userColumns),
		classroomIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		grouped[u.ClassroomID] = append(grouped[u.ClassroomID], u)
	}
	return grouped, rows.Err()
}

// Create inserts a new enrollment.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO users (classroom_id, name, npm, code)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, active, created_at, updated_at`,
		u.ClassroomID, u.Name, u.NPM, u.Code,
	).Scan(&u.ID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
}

// Update persists name, npm and code.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $1, npm = $2, code = $3, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4`,
		u.Name, u.NPM, u.Code, u.ID)
	return err
}

// Delete removes an enrollment by ID. Returns rows affected.
func (r *UserRepository) Delete(ctx context.Context, id int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkExamStarted sets exam_started_at exactly once. The conditional UPDATE
// makes repeated calls idempotent: if the timestamp is already set, the
// stored value is returned unchanged.
func (r *UserRepository) MarkExamStarted(ctx context.Context, id int, startedAt time.Time) (time.Time, error) {
	var ts time.Time
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET exam_started_at = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 AND exam_started_at IS NULL
		 RETURNING exam_started_at`,
		id, startedAt,
	).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		var existing *time.Time
		err = r.pool.QueryRow(ctx,
			`SELECT exam_started_at FROM users WHERE id = $1`, id).Scan(&existing)
		if err != nil {
			return time.Time{}, err
		}
		if existing == nil {
			return time.Time{}, errors.New("exam start timestamp missing after conditional update")
		}
		return *existing, nil
	}
	return ts, err
}

// SaveSubmission freezes the attempt: deactivates the user and stores the
// final code in a single statement. Intentionally unconditional on active so
// a repeated finish re-submits updated code without reactivating.
func (r *UserRepository) SaveSubmission(ctx context.Context, id int, code string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET active = FALSE, code = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $2`,
		code, id)
	return err
}

// UpdateCodeByNPM overwrites the stored code for an NPM's enrollment.
// Returns rows affected.
func (r *UserRepository) UpdateCodeByNPM(ctx context.Context, npm, code string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET code = $1, updated_at = CURRENT_TIMESTAMP WHERE npm = $2`,
		code, npm)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SnapshotCode persists an autosaved snapshot. Active-only guard: a snapshot
// that races a finished submission must not overwrite the final code.
func (r *UserRepository) SnapshotCode(ctx context.Context, classroomID int, npm, code string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET code = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE classroom_id = $2 AND npm = $3 AND active = TRUE`,
		code, classroomID, npm)
	return err
}

// SetActiveBulk toggles the active flag for a set of enrollments within one
// classroom. Unknown IDs are silently ignored (multi-row update semantics).
func (r *UserRepository) SetActiveBulk(ctx context.Context, classroomID int, userIDs []int, active bool) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET active = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE classroom_id = $2 AND id = ANY($3)`,
		active, classroomID, userIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
