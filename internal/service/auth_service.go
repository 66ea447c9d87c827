package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/kelaskode/kelaskode-backend/internal/clock"
	"github.com/kelaskode/kelaskode-backend/internal/model"
	"github.com/rs/zerolog"
)

// Auth errors.
var (
	ErrNPMRequired        = errors.New("npm is required")
	ErrAdminAlreadyExists = errors.New("an admin account already exists")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims is the JWT payload issued at login.
type Claims struct {
	jwt.RegisteredClaims
	NPM  string            `json:"npm"`
	Role model.AccountRole `json:"role"`
}

type accountStore interface {
	GetByNPM(ctx context.Context, npm string) (*model.Account, error)
	Create(ctx context.Context, a *model.Account) error
	CountAdmins(ctx context.Context) (int64, error)
}

type enrollmentLookup interface {
	GetByNPM(ctx context.Context, npm string) (*model.User, error)
}

type classroomLookup interface {
	GetByID(ctx context.Context, id int) (*model.Classroom, error)
}

type entryGate interface {
	Enter(ctx context.Context, classroom *model.Classroom, user *model.User) (*model.User, error)
}

// AuthService handles NPM-based login and JWT issuance. Login is also where
// the exam entry gate runs: a user enrolled in an exam classroom cannot log
// in outside the admission window.
type AuthService struct {
	accounts  accountStore
	users     enrollmentLookup
	classes   classroomLookup
	gate      entryGate
	jwtSecret []byte
	jwtExpiry time.Duration
	clk       clock.Clock
	log       zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	accounts accountStore,
	users enrollmentLookup,
	classes classroomLookup,
	gate entryGate,
	jwtSecret string,
	jwtExpiry time.Duration,
	clk clock.Clock,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		users:     users,
		classes:   classes,
		gate:      gate,
		jwtSecret: []byte(jwtSecret),
		jwtExpiry: jwtExpiry,
		clk:       clk,
		log:       log.With().Str("component", "auth_service").Logger(),
	}
}

// LoginResult is everything the client needs after a successful login.
type LoginResult struct {
	Account   *model.Account            `json:"account"`
	IsNew     bool                      `json:"is_new"`
	Token     string                    `json:"token"`
	Classroom *model.LoginClassroomInfo `json:"classroom,omitempty"`
	User      *model.UserResponse       `json:"user,omitempty"`
}

// Login authenticates by NPM, creating the account on first sight. When
// asAdmin is set the new account gets the admin role, but only while no admin
// exists yet. If the NPM is enrolled in a classroom, the enrollment passes
// through the exam entry gate and the classroom info is attached.
func (s *AuthService) Login(ctx context.Context, npm string, asAdmin bool) (*LoginResult, error) {
	npm = strings.TrimSpace(npm)
	if npm == "" {
		return nil, ErrNPMRequired
	}

	account, isNew, err := s.findOrCreateAccount(ctx, npm, asAdmin)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{Account: account, IsNew: isNew}

	user, err := s.users.GetByNPM(ctx, npm)
	switch {
	case err == nil:
		classroom, err := s.classes.GetByID(ctx, user.ClassroomID)
		if err != nil {
			return nil, fmt.Errorf("get classroom: %w", err)
		}

		entered, err := s.gate.Enter(ctx, classroom, user)
		if err != nil {
			return nil, err
		}

		resp := model.NewUserResponse(*entered)
		result.User = &resp
		result.Classroom = model.NewLoginClassroomInfo(classroom)
	case errors.Is(err, pgx.ErrNoRows):
		// Not enrolled anywhere; a bare account login is still valid.
	default:
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	token, err := s.GenerateToken(account)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	result.Token = token

	s.log.Info().
		Str("npm", npm).
		Str("role", string(account.Role)).
		Bool("is_new", isNew).
		Msg("Login succeeded")
	return result, nil
}

func (s *AuthService) findOrCreateAccount(ctx context.Context, npm string, asAdmin bool) (*model.Account, bool, error) {
	account, err := s.accounts.GetByNPM(ctx, npm)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("get account: %w", err)
	}

	role := model.RoleUser
	if asAdmin {
		admins, err := s.accounts.CountAdmins(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("count admins: %w", err)
		}
		if admins > 0 {
			return nil, false, ErrAdminAlreadyExists
		}
		role = model.RoleAdmin
	}

	account = &model.Account{NPM: npm, Role: role}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, false, fmt.Errorf("create account: %w", err)
	}
	return account, true, nil
}

// AdminExists reports whether any admin account has been created.
func (s *AuthService) AdminExists(ctx context.Context) (bool, error) {
	count, err := s.accounts.CountAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}

// GenerateToken creates a signed JWT for the given account.
func (s *AuthService) GenerateToken(account *model.Account) (string, error) {
	now := s.clk.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.NPM,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
		},
		NPM:  account.NPM,
		Role: account.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses and validates a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.clk.Now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
