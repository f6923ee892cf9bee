package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sguni/academic-api/internal/models"
)

// CatalogRepository provides access to the academic database: specialities,
// careers, cycles and subjects. It is the single writer for catalog rows; the
// profiles database only ever sees mirrored copies of them.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListSpecialities returns the full speciality snapshot.
func (r *CatalogRepository) ListSpecialities(ctx context.Context) ([]models.Speciality, error) {
	const query = `SELECT id, name, description FROM specialities ORDER BY name`
	var rows []models.Speciality
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list specialities: %w", err)
	}
	return rows, nil
}

// FindSpecialityByID returns one speciality.
func (r *CatalogRepository) FindSpecialityByID(ctx context.Context, id string) (*models.Speciality, error) {
	const query = `SELECT id, name, description FROM specialities WHERE id = $1`
	var row models.Speciality
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find speciality: %w", err)
	}
	return &row, nil
}

// CreateSpeciality persists a new speciality.
func (r *CatalogRepository) CreateSpeciality(ctx context.Context, row *models.Speciality) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	const query = `INSERT INTO specialities (id, name, description) VALUES (:id, :name, :description)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create speciality: %w", err)
	}
	return nil
}

// ListCareers returns the full career snapshot.
func (r *CatalogRepository) ListCareers(ctx context.Context) ([]models.Career, error) {
	const query = `SELECT id, name, total_cicles, duration_years FROM careers ORDER BY name`
	var rows []models.Career
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list careers: %w", err)
	}
	return rows, nil
}

// FindCareerByID returns one career.
func (r *CatalogRepository) FindCareerByID(ctx context.Context, id string) (*models.Career, error) {
	const query = `SELECT id, name, total_cicles, duration_years FROM careers WHERE id = $1`
	var row models.Career
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find career: %w", err)
	}
	return &row, nil
}

// CreateCareer persists a new career.
func (r *CatalogRepository) CreateCareer(ctx context.Context, row *models.Career) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	const query = `INSERT INTO careers (id, name, total_cicles, duration_years) VALUES (:id, :name, :total_cicles, :duration_years)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create career: %w", err)
	}
	return nil
}

// UpdateCareer overwrites the mutable career fields.
func (r *CatalogRepository) UpdateCareer(ctx context.Context, row *models.Career) error {
	const query = `UPDATE careers SET name = :name, total_cicles = :total_cicles, duration_years = :duration_years WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update career: %w", err)
	}
	return nil
}

// ListCycles returns the full cycle snapshot.
func (r *CatalogRepository) ListCycles(ctx context.Context) ([]models.Cycle, error) {
	const query = `SELECT id, name, year, period, start_date, end_date, is_active FROM cycles ORDER BY year DESC, period DESC`
	var rows []models.Cycle
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	return rows, nil
}

// FindCycleByID returns one cycle.
func (r *CatalogRepository) FindCycleByID(ctx context.Context, id string) (*models.Cycle, error) {
	const query = `SELECT id, name, year, period, start_date, end_date, is_active FROM cycles WHERE id = $1`
	var row models.Cycle
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find cycle: %w", err)
	}
	return &row, nil
}

// CreateCycle persists a new cycle. The (year, period) pair is unique.
func (r *CatalogRepository) CreateCycle(ctx context.Context, row *models.Cycle) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	const query = `INSERT INTO cycles (id, name, year, period, start_date, end_date, is_active)
        VALUES (:id, :name, :year, :period, :start_date, :end_date, :is_active)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create cycle: %w", err)
	}
	return nil
}

// ExistsCycleByYearPeriod checks uniqueness of the (year, period) pair.
func (r *CatalogRepository) ExistsCycleByYearPeriod(ctx context.Context, year, period int) (bool, error) {
	const query = `SELECT 1 FROM cycles WHERE year = $1 AND period = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, year, period); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check cycle year/period: %w", err)
	}
	return true, nil
}

// ListSubjects returns the full subject snapshot including seed spot values.
func (r *CatalogRepository) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, career_id, cycle_id, cicle_number, total_spots, available_spots FROM subjects ORDER BY name`
	var rows []models.Subject
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return rows, nil
}

// FindSubjectByID returns one subject.
func (r *CatalogRepository) FindSubjectByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, career_id, cycle_id, cicle_number, total_spots, available_spots FROM subjects WHERE id = $1`
	var row models.Subject
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &row, nil
}

// CreateSubject persists a new subject with its seed seat counters.
func (r *CatalogRepository) CreateSubject(ctx context.Context, row *models.Subject) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.AvailableSpots == 0 {
		row.AvailableSpots = row.TotalSpots
	}
	const query = `INSERT INTO subjects (id, name, career_id, cycle_id, cicle_number, total_spots, available_spots)
        VALUES (:id, :name, :career_id, :cycle_id, :cicle_number, :total_spots, :available_spots)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// UpdateSubject overwrites the descriptive subject fields. Seat counters are
// deliberately not updatable here: after the first sync they live in the
// profiles database.
func (r *CatalogRepository) UpdateSubject(ctx context.Context, row *models.Subject) error {
	const query = `UPDATE subjects SET name = :name, career_id = :career_id, cycle_id = :cycle_id, cicle_number = :cicle_number WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// DeleteSubject removes a subject from the catalog. The mirrored reference
// row is not retracted; stale mirrors are a documented limitation.
func (r *CatalogRepository) DeleteSubject(ctx context.Context, id string) error {
	const query = `DELETE FROM subjects WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}
