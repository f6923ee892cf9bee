package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sguni/academic-api/internal/models"
)

// StudentRepository handles student profiles in the profiles database.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student profile joined with its mirrored user and career.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentProfileDetail, error) {
	const query = `SELECT sp.id, sp.user_id, sp.career_id, sp.current_cicle,
        ur.name AS student_name, ur.email, ur.status, cr.name AS career_name
        FROM student_profile sp
        JOIN user_reference ur ON ur.id = sp.user_id
        JOIN career_reference cr ON cr.id = sp.career_id
        WHERE sp.id = $1`
	var detail models.StudentProfileDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student profile: %w", err)
	}
	return &detail, nil
}

// ExistsByUser reports whether the user already has a student profile.
func (r *StudentRepository) ExistsByUser(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT 1 FROM student_profile WHERE user_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student profile user: %w", err)
	}
	return true, nil
}

// List returns student profiles filtered by career and cycle range.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentProfileDetail, int, error) {
	base := `FROM student_profile sp
JOIN user_reference ur ON ur.id = sp.user_id
JOIN career_reference cr ON cr.id = sp.career_id`
	var conditions []string
	var args []interface{}

	if filter.CareerID != "" {
		conditions = append(conditions, fmt.Sprintf("sp.career_id = $%d", len(args)+1))
		args = append(args, filter.CareerID)
	}
	if filter.CurrentCicle > 0 {
		conditions = append(conditions, fmt.Sprintf("sp.current_cicle = $%d", len(args)+1))
		args = append(args, filter.CurrentCicle)
	}
	if filter.MinCicle > 0 {
		conditions = append(conditions, fmt.Sprintf("sp.current_cicle >= $%d", len(args)+1))
		args = append(args, filter.MinCicle)
	}
	if filter.MaxCicle > 0 {
		conditions = append(conditions, fmt.Sprintf("sp.current_cicle <= $%d", len(args)+1))
		args = append(args, filter.MaxCicle)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT sp.id, sp.user_id, sp.career_id, sp.current_cicle,
        ur.name AS student_name, ur.email, ur.status, cr.name AS career_name
        %s ORDER BY ur.name ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var students []models.StudentProfileDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list student profiles: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count student profiles: %w", err)
	}
	return students, total, nil
}

// Create persists a new student profile.
func (r *StudentRepository) Create(ctx context.Context, profile *models.StudentProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CurrentCicle < 1 {
		profile.CurrentCicle = 1
	}
	const query = `INSERT INTO student_profile (id, user_id, career_id, current_cicle)
        VALUES (:id, :user_id, :career_id, :current_cicle)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create student profile: %w", err)
	}
	return nil
}

// Update overwrites the mutable profile fields.
func (r *StudentRepository) Update(ctx context.Context, profile *models.StudentProfile) error {
	const query = `UPDATE student_profile SET career_id = :career_id, current_cicle = :current_cicle WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}
	return nil
}

// Delete removes a student profile.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM student_profile WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete student profile: %w", err)
	}
	return nil
}
