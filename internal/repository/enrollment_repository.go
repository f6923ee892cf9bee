package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sguni/academic-api/internal/models"
)

// Sentinel outcomes of the enrollment transaction. The service layer maps
// them to the API error taxonomy.
var (
	ErrStudentMissing      = errors.New("student profile not found")
	ErrSubjectMissing      = errors.New("subject reference not found")
	ErrCycleMissing        = errors.New("cycle reference not found")
	ErrDuplicateEnrollment = errors.New("student already enrolled in subject")
)

// SeatCapacityError reports a full subject, carrying the context callers need
// to build an actionable message.
type SeatCapacityError struct {
	SubjectName string
	TotalSpots  int
}

func (e *SeatCapacityError) Error() string {
	return fmt.Sprintf("no available spots for subject %s (total %d)", e.SubjectName, e.TotalSpots)
}

// EnrollmentRepository handles student_subject rows and the seat counters on
// subject_reference. Everything lives in the profiles database, which is what
// makes the enroll operation expressible as a single local transaction even
// though the canonical catalog lives elsewhere.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll registers the student in the subject and consumes one seat, as a
// single all-or-nothing unit. The subject_reference row is locked with FOR
// UPDATE so two enrollments racing for the last seat serialize; the guarded
// decrement and the unique (student, subject) constraint are the backstops.
func (r *EnrollmentRepository) Enroll(ctx context.Context, studentProfileID, subjectID string, cycleID *string) (*models.EnrollmentResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enrollment: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	var studentID string
	if err := tx.GetContext(ctx, &studentID, `SELECT id FROM student_profile WHERE id = $1`, studentProfileID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStudentMissing
		}
		return nil, fmt.Errorf("resolve student profile: %w", err)
	}

	var subject models.SubjectReference
	if err := tx.GetContext(ctx, &subject, `SELECT id, name, career_id, cicle_number, total_spots, available_spots
        FROM subject_reference WHERE id = $1 FOR UPDATE`, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubjectMissing
		}
		return nil, fmt.Errorf("resolve subject reference: %w", err)
	}

	if subject.AvailableSpots <= 0 {
		return nil, &SeatCapacityError{SubjectName: subject.Name, TotalSpots: subject.TotalSpots}
	}

	var exists int
	err = tx.GetContext(ctx, &exists, `SELECT 1 FROM student_subject WHERE student_profile_id = $1 AND subject_id = $2 LIMIT 1`, studentProfileID, subjectID)
	switch {
	case err == nil:
		return nil, ErrDuplicateEnrollment
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("check existing enrollment: %w", err)
	}

	enrollment := models.StudentSubject{
		ID:               uuid.NewString(),
		StudentProfileID: studentProfileID,
		SubjectID:        subjectID,
		CycleID:          cycleID,
		Status:           models.EnrollmentStatusEnrolled,
		EnrolledAt:       time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO student_subject (id, student_profile_id, subject_id, cycle_id, grade, status, enrolled_at)
        VALUES ($1, $2, $3, $4, NULL, $5, $6)`,
		enrollment.ID, enrollment.StudentProfileID, enrollment.SubjectID, enrollment.CycleID, enrollment.Status, enrollment.EnrolledAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEnrollment
		}
		return nil, fmt.Errorf("insert enrollment: %w", err)
	}

	var counters struct {
		AvailableSpots int `db:"available_spots"`
		TotalSpots     int `db:"total_spots"`
	}
	if err := tx.GetContext(ctx, &counters, `UPDATE subject_reference SET available_spots = available_spots - 1
        WHERE id = $1 AND available_spots > 0
        RETURNING available_spots, total_spots`, subjectID); err != nil {
		if err == sql.ErrNoRows {
			// Guard tripped despite the row lock. Roll everything back.
			return nil, &SeatCapacityError{SubjectName: subject.Name, TotalSpots: subject.TotalSpots}
		}
		return nil, fmt.Errorf("decrement available spots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enrollment: %w", err)
	}
	commit = true

	return &models.EnrollmentResult{
		Enrollment:     enrollment,
		SubjectID:      subject.ID,
		SubjectName:    subject.Name,
		AvailableSpots: counters.AvailableSpots,
		TotalSpots:     counters.TotalSpots,
	}, nil
}

// ListByStudent returns a student's enrollments joined with mirrored subject
// and cycle data, optionally narrowed to one cycle.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentProfileID, cycleID string) ([]models.StudentEnrollmentRow, error) {
	query := `SELECT ss.id, ss.student_profile_id, ss.subject_id, ss.cycle_id, ss.grade, ss.status, ss.enrolled_at,
        sr.name AS subject_name, sr.cicle_number,
        cyr.name AS cycle_name, cyr.year AS cycle_year, cyr.period AS cycle_period
        FROM student_subject ss
        JOIN subject_reference sr ON sr.id = ss.subject_id
        LEFT JOIN cycle_reference cyr ON cyr.id = ss.cycle_id
        WHERE ss.student_profile_id = $1`
	args := []interface{}{studentProfileID}
	if cycleID != "" {
		query += " AND ss.cycle_id = $2"
		args = append(args, cycleID)
	}
	query += " ORDER BY cyr.year DESC NULLS LAST, cyr.period DESC NULLS LAST, sr.name ASC"

	var rows []models.StudentEnrollmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return rows, nil
}

// UpdateGrade records a grade and the resulting status for an enrollment.
func (r *EnrollmentRepository) UpdateGrade(ctx context.Context, id string, grade float64, status models.EnrollmentStatus) error {
	const query = `UPDATE student_subject SET grade = $2, status = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, grade, status)
	if err != nil {
		return fmt.Errorf("update enrollment grade: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PerformanceReport aggregates grades per student with dynamic filters. This
// is the one place the repository builds native SQL instead of per-row access.
func (r *EnrollmentRepository) PerformanceReport(ctx context.Context, filter models.PerformanceFilter) ([]models.PerformanceRow, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.CareerID != "" {
		args = append(args, filter.CareerID)
		conditions = append(conditions, fmt.Sprintf("cr.id = $%d", len(args)))
	}
	if filter.MinGrade != nil {
		args = append(args, *filter.MinGrade)
		conditions = append(conditions, fmt.Sprintf("ss.grade >= $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("ss.status = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT
        sp.id AS student_id,
        sp.user_id AS student_user_id,
        ur.name AS student_name,
        cr.name AS career_name,
        sp.current_cicle,
        COUNT(ss.id) AS total_subjects,
        COALESCE(ROUND(AVG(ss.grade)::numeric, 2), 0) AS average_grade,
        COUNT(CASE WHEN ss.status = 'approved' THEN 1 END) AS approved_subjects,
        COUNT(CASE WHEN ss.status = 'failed' THEN 1 END) AS failed_subjects
        FROM student_profile sp
        INNER JOIN user_reference ur ON sp.user_id = ur.id
        INNER JOIN career_reference cr ON sp.career_id = cr.id
        LEFT JOIN student_subject ss ON sp.id = ss.student_profile_id
        WHERE %s
        GROUP BY sp.id, sp.user_id, ur.name, cr.name, sp.current_cicle
        ORDER BY average_grade DESC`, strings.Join(conditions, " AND "))

	var rows []models.PerformanceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("performance report: %w", err)
	}
	return rows, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
