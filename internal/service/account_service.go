package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kelaskode/kelaskode-backend/internal/model"
	"github.com/kelaskode/kelaskode-backend/internal/repository"
	"github.com/rs/zerolog"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateNPM    = errors.New("account with this NPM already exists")
)

// AccountService handles admin-side account management.
type AccountService struct {
	accounts *repository.AccountRepository
	log      zerolog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts *repository.AccountRepository, log zerolog.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		log:      log.With().Str("component", "account_service").Logger(),
	}
}

// List returns all accounts.
func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}

// Get returns one account by ID.
func (s *AccountService) Get(ctx context.Context, id int) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// Create inserts an account with an explicit role.
func (s *AccountService) Create(ctx context.Context, req *model.CreateAccountRequest) (*model.Account, error) {
	account := &model.Account{
		NPM:  req.NPM,
		Role: req.Role,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateNPM) {
			return nil, ErrDuplicateNPM
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info().Str("npm", account.NPM).Str("role", string(account.Role)).Msg("Account created")
	return account, nil
}

// UpdateRole changes an account's role.
func (s *AccountService) UpdateRole(ctx context.Context, id int, role model.AccountRole) (*model.Account, error) {
	affected, err := s.accounts.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	if affected == 0 {
		return nil, ErrAccountNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes an account.
func (s *AccountService) Delete(ctx context.Context, id int) error {
	affected, err := s.accounts.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	s.log.Info().Int("account_id", id).Msg("Account deleted")
	return nil
}
