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

type teacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.TeacherProfileDetail, error)
	ExistsByUser(ctx context.Context, userID string) (bool, error)
	List(ctx context.Context, page, size int) ([]models.TeacherProfileDetail, int, error)
	Create(ctx context.Context, profile *models.TeacherProfile) error
	Update(ctx context.Context, profile *models.TeacherProfile) error
	Delete(ctx context.Context, id string) error
	ExistsAssignment(ctx context.Context, teacherProfileID, subjectID string) (bool, error)
	CreateAssignment(ctx context.Context, assignment *models.SubjectAssignment) error
	ListAssignments(ctx context.Context, teacherProfileID string) ([]models.SubjectAssignment, error)
}

type teacherReferenceReader interface {
	FindUser(ctx context.Context, id string) (*models.UserReference, error)
	FindSpeciality(ctx context.Context, id string) (*models.SpecialityReference, error)
	FindCareer(ctx context.Context, id string) (*models.CareerReference, error)
	FindSubject(ctx context.Context, id string) (*models.SubjectReference, error)
}

// CreateTeacherRequest creates a teacher profile.
type CreateTeacherRequest struct {
	UserID         string `json:"user_id" validate:"required"`
	SpecialityID   string `json:"speciality_id" validate:"required"`
	CareerID       string `json:"career_id" validate:"required"`
	EmploymentType string `json:"employment_type" validate:"omitempty,oneof=FULL_TIME PART_TIME"`
}

// UpdateTeacherRequest mutates a teacher profile.
type UpdateTeacherRequest struct {
	SpecialityID   string `json:"speciality_id"`
	CareerID       string `json:"career_id"`
	EmploymentType string `json:"employment_type" validate:"omitempty,oneof=FULL_TIME PART_TIME"`
}

// AssignSubjectRequest links a teacher to a subject.
type AssignSubjectRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
}

// TeacherService manages teacher profiles and their subject assignments.
type TeacherService struct {
	repo      teacherRepository
	refs      teacherReferenceReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(repo teacherRepository, refs teacherReferenceReader, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, refs: refs, validator: validate, logger: logger}
}

// List returns teacher profiles with pagination metadata.
func (s *TeacherService) List(ctx context.Context, page, size int) ([]models.TeacherProfileDetail, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one teacher profile with its subject assignments.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherProfileDetail, []models.SubjectAssignment, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	assignments, err := s.repo.ListAssignments(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return teacher, assignments, nil
}

// Create adds a teacher profile after resolving its weak references.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.TeacherProfileDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	user, err := s.refs.FindUser(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user reference not found; run reference sync first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user reference")
	}
	speciality, err := s.refs.FindSpeciality(ctx, req.SpecialityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "speciality reference not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve speciality reference")
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
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate teacher")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already has a teacher profile")
	}

	profile := &models.TeacherProfile{
		UserID:         req.UserID,
		SpecialityID:   req.SpecialityID,
		CareerID:       req.CareerID,
		EmploymentType: models.EmploymentType(req.EmploymentType),
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.logger.Info("teacher profile created", zap.String("teacher_id", profile.ID), zap.String("user_id", profile.UserID))
	return &models.TeacherProfileDetail{
		TeacherProfile: *profile,
		TeacherName:    user.Name,
		SpecialityName: speciality.Name,
		CareerName:     career.Name,
	}, nil
}

// Update mutates a teacher profile.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.TeacherProfileDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}

	profile := current.TeacherProfile
	if req.SpecialityID != "" && req.SpecialityID != profile.SpecialityID {
		if _, err := s.refs.FindSpeciality(ctx, req.SpecialityID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "speciality reference not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve speciality reference")
		}
		profile.SpecialityID = req.SpecialityID
	}
	if req.CareerID != "" && req.CareerID != profile.CareerID {
		if _, err := s.refs.FindCareer(ctx, req.CareerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "career reference not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve career reference")
		}
		profile.CareerID = req.CareerID
	}
	if req.EmploymentType != "" {
		profile.EmploymentType = models.EmploymentType(req.EmploymentType)
	}

	if err := s.repo.Update(ctx, &profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload teacher")
	}
	return detail, nil
}

// Delete removes a teacher profile.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}

// AssignSubject links a teacher to a subject; the pair is unique.
func (s *TeacherService) AssignSubject(ctx context.Context, teacherProfileID string, req AssignSubjectRequest) (*models.SubjectAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.repo.FindByID(ctx, teacherProfileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	if _, err := s.refs.FindSubject(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject reference not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject reference")
	}

	exists, err := s.repo.ExistsAssignment(ctx, teacherProfileID, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject already assigned to this teacher")
	}

	assignment := &models.SubjectAssignment{TeacherProfileID: teacherProfileID, SubjectID: req.SubjectID}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}
