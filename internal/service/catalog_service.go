package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sguni/academic-api/internal/models"
	appErrors "github.com/sguni/academic-api/pkg/errors"
)

type catalogRepository interface {
	ListSpecialities(ctx context.Context) ([]models.Speciality, error)
	FindSpecialityByID(ctx context.Context, id string) (*models.Speciality, error)
	CreateSpeciality(ctx context.Context, row *models.Speciality) error
	ListCareers(ctx context.Context) ([]models.Career, error)
	FindCareerByID(ctx context.Context, id string) (*models.Career, error)
	CreateCareer(ctx context.Context, row *models.Career) error
	UpdateCareer(ctx context.Context, row *models.Career) error
	ListCycles(ctx context.Context) ([]models.Cycle, error)
	FindCycleByID(ctx context.Context, id string) (*models.Cycle, error)
	CreateCycle(ctx context.Context, row *models.Cycle) error
	ExistsCycleByYearPeriod(ctx context.Context, year, period int) (bool, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	FindSubjectByID(ctx context.Context, id string) (*models.Subject, error)
	CreateSubject(ctx context.Context, row *models.Subject) error
	UpdateSubject(ctx context.Context, row *models.Subject) error
	DeleteSubject(ctx context.Context, id string) error
}

// CreateSpecialityRequest creates a catalog speciality.
type CreateSpecialityRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateCareerRequest creates a degree program.
type CreateCareerRequest struct {
	Name          string `json:"name" validate:"required"`
	TotalCicles   int    `json:"total_cicles" validate:"required,gte=1"`
	DurationYears int    `json:"duration_years" validate:"required,gte=1"`
}

// CreateCycleRequest creates an academic period.
type CreateCycleRequest struct {
	Name      string    `json:"name" validate:"required"`
	Year      int       `json:"year" validate:"required,gte=2000"`
	Period    int       `json:"period" validate:"required,gte=1,lte=2"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	IsActive  bool      `json:"is_active"`
}

// CreateSubjectRequest creates a subject with its seed seat capacity.
type CreateSubjectRequest struct {
	Name        string `json:"name" validate:"required"`
	CareerID    string `json:"career_id" validate:"required"`
	CycleID     string `json:"cycle_id" validate:"required"`
	CicleNumber int    `json:"cicle_number" validate:"required,gte=1"`
	TotalSpots  int    `json:"total_spots" validate:"required,gte=1"`
}

// UpdateSubjectRequest mutates a subject's descriptive fields. Seat counters
// are never updated through the catalog once they have been mirrored.
type UpdateSubjectRequest struct {
	Name        string `json:"name"`
	CicleNumber int    `json:"cicle_number" validate:"omitempty,gte=1"`
}

// CatalogService manages the academic database: specialities, careers,
// cycles and subjects.
type CatalogService struct {
	repo      catalogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(repo catalogRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, validator: validate, logger: logger}
}

// ListSpecialities returns all specialities.
func (s *CatalogService) ListSpecialities(ctx context.Context) ([]models.Speciality, error) {
	rows, err := s.repo.ListSpecialities(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list specialities")
	}
	return rows, nil
}

// CreateSpeciality adds a speciality to the catalog.
func (s *CatalogService) CreateSpeciality(ctx context.Context, req CreateSpecialityRequest) (*models.Speciality, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid speciality payload")
	}
	row := &models.Speciality{Name: req.Name, Description: req.Description}
	if err := s.repo.CreateSpeciality(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create speciality")
	}
	return row, nil
}

// ListCareers returns all careers.
func (s *CatalogService) ListCareers(ctx context.Context) ([]models.Career, error) {
	rows, err := s.repo.ListCareers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list careers")
	}
	return rows, nil
}

// CreateCareer adds a degree program.
func (s *CatalogService) CreateCareer(ctx context.Context, req CreateCareerRequest) (*models.Career, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid career payload")
	}
	row := &models.Career{Name: req.Name, TotalCicles: req.TotalCicles, DurationYears: req.DurationYears}
	if err := s.repo.CreateCareer(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create career")
	}
	return row, nil
}

// ListCycles returns all academic periods.
func (s *CatalogService) ListCycles(ctx context.Context) ([]models.Cycle, error) {
	rows, err := s.repo.ListCycles(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cycles")
	}
	return rows, nil
}

// CreateCycle adds an academic period; the (year, period) pair is unique.
func (s *CatalogService) CreateCycle(ctx context.Context, req CreateCycleRequest) (*models.Cycle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cycle payload")
	}
	exists, err := s.repo.ExistsCycleByYearPeriod(ctx, req.Year, req.Period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate cycle")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cycle already exists for year and period")
	}
	row := &models.Cycle{
		Name:      req.Name,
		Year:      req.Year,
		Period:    req.Period,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsActive:  req.IsActive,
	}
	if err := s.repo.CreateCycle(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create cycle")
	}
	return row, nil
}

// ListSubjects returns all subjects.
func (s *CatalogService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return rows, nil
}

// GetSubject returns one subject.
func (s *CatalogService) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	row, err := s.repo.FindSubjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}
	return row, nil
}

// CreateSubject adds a subject, verifying its career and cycle exist in the
// catalog. The seat counters stored here are seed values only.
func (s *CatalogService) CreateSubject(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if _, err := s.repo.FindCareerByID(ctx, req.CareerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "career not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve career")
	}
	if _, err := s.repo.FindCycleByID(ctx, req.CycleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cycle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve cycle")
	}
	row := &models.Subject{
		Name:           req.Name,
		CareerID:       req.CareerID,
		CycleID:        req.CycleID,
		CicleNumber:    req.CicleNumber,
		TotalSpots:     req.TotalSpots,
		AvailableSpots: req.TotalSpots,
	}
	if err := s.repo.CreateSubject(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.logger.Info("subject created", zap.String("subject_id", row.ID), zap.Int("total_spots", row.TotalSpots))
	return row, nil
}

// UpdateSubject mutates a subject's descriptive fields.
func (s *CatalogService) UpdateSubject(ctx context.Context, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	row, err := s.repo.FindSubjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}
	if req.Name != "" {
		row.Name = req.Name
	}
	if req.CicleNumber > 0 {
		row.CicleNumber = req.CicleNumber
	}
	if err := s.repo.UpdateSubject(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return row, nil
}

// DeleteSubject removes a subject from the catalog.
func (s *CatalogService) DeleteSubject(ctx context.Context, id string) error {
	if _, err := s.repo.FindSubjectByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}
	if err := s.repo.DeleteSubject(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}
