package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelaskode/kelaskode-backend/internal/model"
)

var ErrDuplicateNPM = errors.New("account with this NPM already exists")

// AccountRepository handles account data access.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id int) (*model.Account, error) {
	a := &model.Account{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, npm, role, created_at, updated_at FROM accounts WHERE id = $1`, id,
	).Scan(&a.ID, &a.NPM, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByNPM retrieves an account by its unique NPM.
func (r *AccountRepository) GetByNPM(ctx context.Context, npm string) (*model.Account, error) {
	a := &model.Account{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, npm, role, created_at, updated_at FROM accounts WHERE npm = $1`, npm,
	).Scan(&a.ID, &a.NPM, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List retrieves all accounts ordered by ID.
func (r *AccountRepository) List(ctx context.Context) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, npm, role, created_at, updated_at FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.NPM, &a.Role, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, a *model.Account) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (npm, role) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		a.NPM, a.Role,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateNPM
		}
		return err
	}
	return nil
}

// UpdateRole changes an account's role. Returns the number of rows affected.
func (r *AccountRepository) UpdateRole(ctx context.Context, id int, role model.AccountRole) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET role = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		role, id,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes an account by ID. Returns the number of rows affected.
func (r *AccountRepository) Delete(ctx context.Context, id int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountAdmins returns the number of accounts with the admin role.
func (r *AccountRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE role = $1`, model.RoleAdmin,
	).Scan(&count)
	return count, err
}
