package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sguni/academic-api/internal/models"
	"github.com/sguni/academic-api/internal/repository"
	appErrors "github.com/sguni/academic-api/pkg/errors"
)

type enrollmentRepository interface {
	Enroll(ctx context.Context, studentProfileID, subjectID string, cycleID *string) (*models.EnrollmentResult, error)
	ListByStudent(ctx context.Context, studentProfileID, cycleID string) ([]models.StudentEnrollmentRow, error)
	UpdateGrade(ctx context.Context, id string, grade float64, status models.EnrollmentStatus) error
}

type cycleReferenceReader interface {
	FindCycle(ctx context.Context, id string) (*models.CycleReference, error)
}

type studentProfileReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentProfileDetail, error)
}

// EnrollRequest is the payload for the enroll operation.
type EnrollRequest struct {
	StudentProfileID string `json:"student_profile_id" validate:"required"`
	SubjectID        string `json:"subject_id" validate:"required"`
	CycleID          string `json:"cycle_id"`
}

// GradeRequest records an enrollment outcome.
type GradeRequest struct {
	Grade  float64 `json:"grade" validate:"gte=0,lte=100"`
	Status string  `json:"status" validate:"required,oneof=approved failed completed"`
}

// EnrollmentService wraps the enrollment transaction with validation and
// error mapping. The transaction itself lives in the repository because it
// must hold a row lock across its steps.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentProfileReader
	cycles    cycleReferenceReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentProfileReader, cycles cycleReferenceReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, cycles: cycles, metrics: metrics, validator: validate, logger: logger}
}

// Enroll registers a student in a subject, consuming one seat atomically.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	var cycleID *string
	if req.CycleID != "" {
		if _, err := s.cycles.FindCycle(ctx, req.CycleID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "cycle not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve cycle")
		}
		cycleID = &req.CycleID
	}

	result, err := s.repo.Enroll(ctx, req.StudentProfileID, req.SubjectID, cycleID)
	if err != nil {
		var capacity *repository.SeatCapacityError
		switch {
		case errors.Is(err, repository.ErrStudentMissing):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		case errors.Is(err, repository.ErrSubjectMissing):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		case errors.As(err, &capacity):
			s.metrics.RecordEnrollment("capacity_exceeded")
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
				fmt.Sprintf("no seats available for subject %s (total spots: %d)", capacity.SubjectName, capacity.TotalSpots))
		case errors.Is(err, repository.ErrDuplicateEnrollment):
			s.metrics.RecordEnrollment("duplicate")
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in this subject")
		default:
			s.logger.Error("enrollment transaction failed",
				zap.String("student_profile_id", req.StudentProfileID),
				zap.String("subject_id", req.SubjectID),
				zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enrollment failed")
		}
	}

	s.metrics.RecordEnrollment("enrolled")
	s.logger.Info("student enrolled",
		zap.String("student_profile_id", req.StudentProfileID),
		zap.String("subject_id", req.SubjectID),
		zap.Int("available_spots", result.AvailableSpots),
		zap.Int("total_spots", result.TotalSpots))
	return result, nil
}

// ListForStudent returns a student's enrollments, optionally for one cycle.
func (s *EnrollmentService) ListForStudent(ctx context.Context, studentProfileID, cycleID string) ([]models.StudentEnrollmentRow, error) {
	if _, err := s.students.FindByID(ctx, studentProfileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	rows, err := s.repo.ListByStudent(ctx, studentProfileID, cycleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return rows, nil
}

// RecordGrade updates an enrollment with its grading outcome.
func (s *EnrollmentService) RecordGrade(ctx context.Context, enrollmentID string, req GradeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if err := s.repo.UpdateGrade(ctx, enrollmentID, req.Grade, models.EnrollmentStatus(req.Status)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}
	return nil
}
