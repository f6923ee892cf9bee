package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sguni/academic-api/internal/models"
)

// ReferenceRepository owns the mirror tables in the profiles database. All
// upserts key on the source row's id, so re-running them with unchanged
// source data is a no-op. One transaction per kind: a kind either lands
// completely or not at all, and a failed kind never affects another.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// UpsertUsers mirrors user rows and returns the number written.
func (r *ReferenceRepository) UpsertUsers(ctx context.Context, refs []models.UserReference) (int, error) {
	const query = `INSERT INTO user_reference (id, name, email, role_id, role_name, status)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id)
DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, role_id = EXCLUDED.role_id, role_name = EXCLUDED.role_name, status = EXCLUDED.status`
	return r.upsert(ctx, "user references", len(refs), func(tx *sqlx.Tx) error {
		for _, ref := range refs {
			if _, err := tx.ExecContext(ctx, query, ref.ID, ref.Name, ref.Email, ref.RoleID, ref.RoleName, ref.Status); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertSpecialities mirrors speciality rows.
func (r *ReferenceRepository) UpsertSpecialities(ctx context.Context, refs []models.SpecialityReference) (int, error) {
	const query = `INSERT INTO speciality_reference (id, name)
VALUES ($1, $2)
ON CONFLICT (id)
DO UPDATE SET name = EXCLUDED.name`
	return r.upsert(ctx, "speciality references", len(refs), func(tx *sqlx.Tx) error {
		for _, ref := range refs {
			if _, err := tx.ExecContext(ctx, query, ref.ID, ref.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertCareers mirrors career rows.
func (r *ReferenceRepository) UpsertCareers(ctx context.Context, refs []models.CareerReference) (int, error) {
	const query = `INSERT INTO career_reference (id, name, total_cicles)
VALUES ($1, $2, $3)
ON CONFLICT (id)
DO UPDATE SET name = EXCLUDED.name, total_cicles = EXCLUDED.total_cicles`
	return r.upsert(ctx, "career references", len(refs), func(tx *sqlx.Tx) error {
		for _, ref := range refs {
			if _, err := tx.ExecContext(ctx, query, ref.ID, ref.Name, ref.TotalCicles); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertSubjects mirrors subject rows. The conflict clause refreshes only the
// descriptive columns: total_spots/available_spots are seeded on first insert
// and owned by the profiles database from then on, so a re-run can never
// reset seats already consumed by enrollments.
func (r *ReferenceRepository) UpsertSubjects(ctx context.Context, refs []models.SubjectReference) (int, error) {
	const query = `INSERT INTO subject_reference (id, name, career_id, cicle_number, total_spots, available_spots)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id)
DO UPDATE SET name = EXCLUDED.name, career_id = EXCLUDED.career_id, cicle_number = EXCLUDED.cicle_number`
	return r.upsert(ctx, "subject references", len(refs), func(tx *sqlx.Tx) error {
		for _, ref := range refs {
			if _, err := tx.ExecContext(ctx, query, ref.ID, ref.Name, ref.CareerID, ref.CicleNumber, ref.TotalSpots, ref.AvailableSpots); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertCycles mirrors cycle rows.
func (r *ReferenceRepository) UpsertCycles(ctx context.Context, refs []models.CycleReference) (int, error) {
	const query = `INSERT INTO cycle_reference (id, name, year, period)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id)
DO UPDATE SET name = EXCLUDED.name, year = EXCLUDED.year, period = EXCLUDED.period`
	return r.upsert(ctx, "cycle references", len(refs), func(tx *sqlx.Tx) error {
		for _, ref := range refs {
			if _, err := tx.ExecContext(ctx, query, ref.ID, ref.Name, ref.Year, ref.Period); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ReferenceRepository) upsert(ctx context.Context, label string, count int, fn func(tx *sqlx.Tx) error) (int, error) {
	if count == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert %s: %w", label, err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", label, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert %s: %w", label, err)
	}
	commit = true
	return count, nil
}

// FindUser returns a mirrored user row.
func (r *ReferenceRepository) FindUser(ctx context.Context, id string) (*models.UserReference, error) {
	const query = `SELECT id, name, email, role_id, role_name, status FROM user_reference WHERE id = $1`
	var ref models.UserReference
	if err := r.db.GetContext(ctx, &ref, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user reference: %w", err)
	}
	return &ref, nil
}

// FindSpeciality returns a mirrored speciality row.
func (r *ReferenceRepository) FindSpeciality(ctx context.Context, id string) (*models.SpecialityReference, error) {
	const query = `SELECT id, name FROM speciality_reference WHERE id = $1`
	var ref models.SpecialityReference
	if err := r.db.GetContext(ctx, &ref, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find speciality reference: %w", err)
	}
	return &ref, nil
}

// FindCareer returns a mirrored career row.
func (r *ReferenceRepository) FindCareer(ctx context.Context, id string) (*models.CareerReference, error) {
	const query = `SELECT id, name, total_cicles FROM career_reference WHERE id = $1`
	var ref models.CareerReference
	if err := r.db.GetContext(ctx, &ref, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find career reference: %w", err)
	}
	return &ref, nil
}

// FindSubject returns a mirrored subject row with its live seat counters.
func (r *ReferenceRepository) FindSubject(ctx context.Context, id string) (*models.SubjectReference, error) {
	const query = `SELECT id, name, career_id, cicle_number, total_spots, available_spots FROM subject_reference WHERE id = $1`
	var ref models.SubjectReference
	if err := r.db.GetContext(ctx, &ref, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject reference: %w", err)
	}
	return &ref, nil
}

// FindCycle returns a mirrored cycle row.
func (r *ReferenceRepository) FindCycle(ctx context.Context, id string) (*models.CycleReference, error) {
	const query = `SELECT id, name, year, period FROM cycle_reference WHERE id = $1`
	var ref models.CycleReference
	if err := r.db.GetContext(ctx, &ref, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find cycle reference: %w", err)
	}
	return &ref, nil
}
