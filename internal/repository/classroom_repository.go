package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelaskode/kelaskode-backend/internal/model"
)

const classroomColumns = `id, name, programming_language, language_locked, tasks,
	is_exam, exam_start, exam_end, time_limit, test_code, presetup_code,
	created_at, updated_at`

// ClassroomRepository handles classroom data access.
type ClassroomRepository struct {
	pool *pgxpool.Pool
}

// NewClassroomRepository creates a new ClassroomRepository.
func NewClassroomRepository(pool *pgxpool.Pool) *ClassroomRepository {
	return &ClassroomRepository{pool: pool}
}

func scanClassroom(row interface{ Scan(dest ...any) error }, c *model.Classroom) error {
	return row.Scan(&c.ID, &c.Name, &c.ProgrammingLanguage, &c.LanguageLocked, &c.Tasks,
		&c.IsExam, &c.ExamStart, &c.ExamEnd, &c.TimeLimit, &c.TestCode, &c.PresetupCode,
		&c.CreatedAt, &c.UpdatedAt)
}

// GetByID retrieves a classroom by ID.
func (r *ClassroomRepository) GetByID(ctx context.Context, id int) (*model.Classroom, error) {
	c := &model.Classroom{}
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM classrooms WHERE id = $1`, classroomColumns), id)
	if err := scanClassroom(row, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List retrieves all classrooms ordered by ID.
func (r *ClassroomRepository) List(ctx context.Context) ([]model.Classroom, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM classrooms ORDER BY id`, classroomColumns))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classrooms []model.Classroom
	for rows.Next() {
		var c model.Classroom
		if err := scanClassroom(rows, &c); err != nil {
			return nil, err
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, rows.Err()
}

// Exists reports whether a classroom with the given ID exists.
func (r *ClassroomRepository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// CreateWithUsers inserts a classroom and its initial roster in one
// transaction. Users with a blank NPM are skipped.
func (r *ClassroomRepository) CreateWithUsers(ctx context.Context, c *model.Classroom, users []model.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO classrooms (name, programming_language, language_locked, tasks,
			is_exam, exam_start, exam_end, time_limit, test_code, presetup_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.ProgrammingLanguage, c.LanguageLocked, c.Tasks,
		c.IsExam, c.ExamStart, c.ExamEnd, c.TimeLimit, c.TestCode, c.PresetupCode,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}

	for _, u := range users {
		if u.NPM == "" {
			continue
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO users (classroom_id, name, npm, code) VALUES ($1, $2, $3, $4)`,
			c.ID, u.Name, u.NPM, u.Code)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Update persists all mutable classroom fields. When replaceUsers is non-nil
// the whole roster is replaced inside the same transaction.
func (r *ClassroomRepository) Update(ctx context.Context, c *model.Classroom, replaceUsers []model.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE classrooms
		 SET name = $1, programming_language = $2, language_locked = $3, tasks = $4,
		     is_exam = $5, exam_start = $6, exam_end = $7, time_limit = $8,
		     test_code = $9, presetup_code = $10, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $11`,
		c.Name, c.ProgrammingLanguage, c.LanguageLocked, c.Tasks,
		c.IsExam, c.ExamStart, c.ExamEnd, c.TimeLimit,
		c.TestCode, c.PresetupCode, c.ID)
	if err != nil {
		return err
	}

	if replaceUsers != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE classroom_id = $1`, c.ID); err != nil {
			return err
		}
		for _, u := range replaceUsers {
			if u.NPM == "" {
				continue
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO users (classroom_id, name, npm, code) VALUES ($1, $2, $3, $4)`,
				c.ID, u.Name, u.NPM, u.Code)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// Delete removes a classroom; enrollments cascade. Returns rows affected.
func (r *ClassroomRepository) Delete(ctx context.Context, id int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM classrooms WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
