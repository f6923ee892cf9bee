package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sguni/academic-api/internal/models"
)

// TeacherRepository handles teacher profiles and subject assignments in the
// profiles database.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID returns a teacher profile joined with its mirrored names.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherProfileDetail, error) {
	const query = `SELECT tp.id, tp.user_id, tp.speciality_id, tp.career_id, tp.employment_type,
        ur.name AS teacher_name, sr.name AS speciality_name, cr.name AS career_name
        FROM teacher_profile tp
        JOIN user_reference ur ON ur.id = tp.user_id
        JOIN speciality_reference sr ON sr.id = tp.speciality_id
        JOIN career_reference cr ON cr.id = tp.career_id
        WHERE tp.id = $1`
	var detail models.TeacherProfileDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher profile: %w", err)
	}
	return &detail, nil
}

// ExistsByUser reports whether the user already has a teacher profile.
func (r *TeacherRepository) ExistsByUser(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT 1 FROM teacher_profile WHERE user_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher profile user: %w", err)
	}
	return true, nil
}

// List returns teacher profiles with pagination.
func (r *TeacherRepository) List(ctx context.Context, page, size int) ([]models.TeacherProfileDetail, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT tp.id, tp.user_id, tp.speciality_id, tp.career_id, tp.employment_type,
        ur.name AS teacher_name, sr.name AS speciality_name, cr.name AS career_name
        FROM teacher_profile tp
        JOIN user_reference ur ON ur.id = tp.user_id
        JOIN speciality_reference sr ON sr.id = tp.speciality_id
        JOIN career_reference cr ON cr.id = tp.career_id
        ORDER BY ur.name ASC LIMIT %d OFFSET %d`, size, offset)

	var teachers []models.TeacherProfileDetail
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, 0, fmt.Errorf("list teacher profiles: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM teacher_profile`); err != nil {
		return nil, 0, fmt.Errorf("count teacher profiles: %w", err)
	}
	return teachers, total, nil
}

// Create persists a new teacher profile.
func (r *TeacherRepository) Create(ctx context.Context, profile *models.TeacherProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.EmploymentType == "" {
		profile.EmploymentType = models.EmploymentFullTime
	}
	const query = `INSERT INTO teacher_profile (id, user_id, speciality_id, career_id, employment_type)
        VALUES (:id, :user_id, :speciality_id, :career_id, :employment_type)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create teacher profile: %w", err)
	}
	return nil
}

// Update overwrites the mutable profile fields.
func (r *TeacherRepository) Update(ctx context.Context, profile *models.TeacherProfile) error {
	const query = `UPDATE teacher_profile SET speciality_id = :speciality_id, career_id = :career_id, employment_type = :employment_type WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update teacher profile: %w", err)
	}
	return nil
}

// Delete removes a teacher profile.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM teacher_profile WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete teacher profile: %w", err)
	}
	return nil
}

// ExistsAssignment checks the unique (teacher, subject) pair.
func (r *TeacherRepository) ExistsAssignment(ctx context.Context, teacherProfileID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM subject_assignment WHERE teacher_profile_id = $1 AND subject_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherProfileID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject assignment: %w", err)
	}
	return true, nil
}

// CreateAssignment links a teacher to a subject.
func (r *TeacherRepository) CreateAssignment(ctx context.Context, assignment *models.SubjectAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	const query = `INSERT INTO subject_assignment (id, teacher_profile_id, subject_id)
        VALUES (:id, :teacher_profile_id, :subject_id)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create subject assignment: %w", err)
	}
	return nil
}

// ListAssignments returns the subjects assigned to a teacher.
func (r *TeacherRepository) ListAssignments(ctx context.Context, teacherProfileID string) ([]models.SubjectAssignment, error) {
	const query = `SELECT id, teacher_profile_id, subject_id FROM subject_assignment WHERE teacher_profile_id = $1`
	var assignments []models.SubjectAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherProfileID); err != nil {
		return nil, fmt.Errorf("list subject assignments: %w", err)
	}
	return assignments, nil
}
