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

// ClassroomService handles classroom and roster management.
type ClassroomService struct {
	classrooms *repository.ClassroomRepository
	users      *repository.UserRepository
	log        zerolog.Logger
}

// NewClassroomService creates a new ClassroomService.
func NewClassroomService(
	classrooms *repository.ClassroomRepository,
	users *repository.UserRepository,
	log zerolog.Logger,
) *ClassroomService {
	return &ClassroomService{
		classrooms: classrooms,
		users:      users,
		log:        log.With().Str("component", "classroom_service").Logger(),
	}
}

// List returns all classrooms with their rosters.
func (s *ClassroomService) List(ctx context.Context) ([]model.ClassroomResponse, error) {
	classrooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}

	ids := make([]int, 0, len(classrooms))
	for _, c := range classrooms {
		ids = append(ids, c.ID)
	}
	grouped, err := s.users.ListByClassroomIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	responses := make([]model.ClassroomResponse, 0, len(classrooms))
	for _, c := range classrooms {
		responses = append(responses, model.NewClassroomResponse(c, grouped[c.ID]))
	}
	return responses, nil
}

// Get returns one classroom with its roster.
func (s *ClassroomService) Get(ctx context.Context, id int) (*model.ClassroomResponse, error) {
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassroomNotFound
		}
		return nil, fmt.Errorf("get classroom: %w", err)
	}

	users, err := s.users.ListByClassroom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	resp := model.NewClassroomResponse(*classroom, users)
	return &resp, nil
}

// Create inserts a classroom, optionally with its initial roster.
func (s *ClassroomService) Create(ctx context.Context, req *model.CreateClassroomRequest) (*model.ClassroomResponse, error) {
	classroom := &model.Classroom{
		Name:                req.Name,
		ProgrammingLanguage: req.ProgrammingLanguage,
		LanguageLocked:      req.LanguageLocked,
		Tasks:               model.EncodeTasks(req.Tasks),
		IsExam:              req.IsExam,
		ExamStart:           req.ExamStart,
		ExamEnd:             req.ExamEnd,
		TimeLimit:           req.TimeLimit,
		TestCode:            req.TestCode,
		PresetupCode:        req.PresetupCode,
	}

	if err := s.classrooms.CreateWithUsers(ctx, classroom, rosterFromRequests(req.Users)); err != nil {
		return nil, fmt.Errorf("create classroom: %w", err)
	}

	s.log.Info().
		Int("classroom_id", classroom.ID).
		Str("name", classroom.Name).
		Bool("is_exam", classroom.IsExam).
		Msg("Classroom created")
	return s.Get(ctx, classroom.ID)
}

// Update applies a partial update. Nil fields keep their stored values; a
// non-nil Users replaces the whole roster.
func (s *ClassroomService) Update(ctx context.Context, id int, req *model.UpdateClassroomRequest) (*model.ClassroomResponse, error) {
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassroomNotFound
		}
		return nil, fmt.Errorf("get classroom: %w", err)
	}

	if req.Name != nil {
		classroom.Name = *req.Name
	}
	if req.ProgrammingLanguage != nil {
		classroom.ProgrammingLanguage = *req.ProgrammingLanguage
	}
	if req.LanguageLocked != nil {
		classroom.LanguageLocked = *req.LanguageLocked
	}
	if req.Tasks != nil {
		classroom.Tasks = model.EncodeTasks(*req.Tasks)
	}
	if req.IsExam != nil {
		classroom.IsExam = *req.IsExam
	}
	if req.ExamStart != nil {
		classroom.ExamStart = req.ExamStart
	}
	if req.ExamEnd != nil {
		classroom.ExamEnd = req.ExamEnd
	}
	if req.TimeLimit != nil {
		classroom.TimeLimit = *req.TimeLimit
	}
	if req.TestCode != nil {
		classroom.TestCode = *req.TestCode
	}
	if req.PresetupCode != nil {
		classroom.PresetupCode = *req.PresetupCode
	}

	var replaceUsers []model.User
	if req.Users != nil {
		replaceUsers = rosterFromRequests(*req.Users)
		if replaceUsers == nil {
			replaceUsers = []model.User{}
		}
	}

	if err := s.classrooms.Update(ctx, classroom, replaceUsers); err != nil {
		return nil, fmt.Errorf("update classroom: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a classroom and, by cascade, its roster.
func (s *ClassroomService) Delete(ctx context.Context, id int) error {
	affected, err := s.classrooms.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete classroom: %w", err)
	}
	if affected == 0 {
		return ErrClassroomNotFound
	}
	s.log.Info().Int("classroom_id", id).Msg("Classroom deleted")
	return nil
}

// AddUser enrolls one user into a classroom.
func (s *ClassroomService) AddUser(ctx context.Context, classroomID int, req *model.CreateUserRequest) (*model.UserResponse, error) {
	exists, err := s.classrooms.Exists(ctx, classroomID)
	if err != nil {
		return nil, fmt.Errorf("check classroom: %w", err)
	}
	if !exists {
		return nil, ErrClassroomNotFound
	}

	user := &model.User{
		ClassroomID: classroomID,
		Name:        req.Name,
		NPM:         req.NPM,
		Code:        req.Code,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	resp := model.NewUserResponse(*user)
	return &resp, nil
}

// UpdateUser edits an enrollment. The user must belong to the classroom.
func (s *ClassroomService) UpdateUser(ctx context.Context, classroomID, userID int, req *model.UpdateUserRequest) (*model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.ClassroomID != classroomID {
		return nil, ErrUserNotFound
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.NPM != nil {
		user.NPM = *req.NPM
	}
	if req.Code != nil {
		user.Code = *req.Code
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	resp := model.NewUserResponse(*user)
	return &resp, nil
}

// RemoveUser deletes an enrollment. The user must belong to the classroom.
func (s *ClassroomService) RemoveUser(ctx context.Context, classroomID, userID int) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.ClassroomID != classroomID {
		return ErrUserNotFound
	}

	if _, err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func rosterFromRequests(reqs []model.CreateUserRequest) []model.User {
	if reqs == nil {
		return nil
	}
	users := make([]model.User, 0, len(reqs))
	for _, r := range reqs {
		users = append(users, model.User{Name: r.Name, NPM: r.NPM, Code: r.Code})
	}
	return users
}
