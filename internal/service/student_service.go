package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sguni/academic-api/internal/models"
	appErrors "github.com/sguni/academic-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentProfileDetail, error)
	ExistsByUser(ctx context.Context, userID string) (bool, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentProfileDetail, int, error)
	Create(ctx context.Context, profile *models.StudentProfile) error
	Update(ctx context.Context, profile *models.StudentProfile) error
	Delete(ctx context.Context, id string) error
}

type studentReferenceReader interface {
	FindUser(ctx context.Context, id string) (*models.UserReference, error)
	FindCareer(ctx context.Context, id string) (*models.CareerReference, error)
}

// CreateStudentRequest creates a student profile.
type CreateStudentRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	CareerID     string `json:"career_id" validate:"required"`
	CurrentCicle int    `json:"current_cicle" validate:"omitempty,gte=1"`
}

// UpdateStudentRequest mutates a student profile.
type UpdateStudentRequest struct {
	CareerID     string `json:"career_id"`
	CurrentCicle int    `json:"current_cicle" validate:"omitempty,gte=1"`
}

// StudentService manages student profiles. Every weak reference is resolved
// against the mirror tables before writing, since no cross-database FK can
// do it; a missing reference means the sync has not run yet.
type StudentService struct {
	repo      studentRepository
	refs      studentReferenceReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, refs studentReferenceReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, refs: refs, validator: validate, logger: logger}
}

// List returns student profiles with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentProfileDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student profile.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentProfileDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	return student, nil
}

// Create adds a student profile after resolving its weak references.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.StudentProfileDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	user, err := s.refs.FindUser(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user reference not found; run reference sync first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user reference")
	}
	career, err := s.refs.FindCareer(ctx, req.CareerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "career reference not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve career reference")
	}

	exists, err := s.repo.ExistsByUser(ctx, req.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already has a student profile")
	}

	profile := &models.StudentProfile{
		UserID:       req.UserID,
		CareerID:     req.CareerID,
		CurrentCicle: req.CurrentCicle,
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.logger.Info("student profile created", zap.String("student_id", profile.ID), zap.String("user_id", profile.UserID))
	return &models.StudentProfileDetail{
		StudentProfile: *profile,
		StudentName:    user.Name,
		Email:          user.Email,
		Status:         user.Status,
		CareerName:     career.Name,
	}, nil
}

// Update mutates a student profile.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.StudentProfileDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	profile := current.StudentProfile
	if req.CareerID != "" && req.CareerID != profile.CareerID {
		if _, err := s.refs.FindCareer(ctx, req.CareerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "career reference not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve career reference")
		}
		profile.CareerID = req.CareerID
	}
	if req.CurrentCicle > 0 {
		profile.CurrentCicle = req.CurrentCicle
	}

	if err := s.repo.Update(ctx, &profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload student")
	}
	return detail, nil
}

// Delete removes a student profile.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
