package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sguni/academic-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*EnrollmentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewEnrollmentRepository(sqlxDB), mock, func() { sqlxDB.Close() }
}

const (
	testStudentID = "11111111-1111-1111-1111-111111111111"
	testSubjectID = "22222222-2222-2222-2222-222222222222"
)

func expectStudentLookup(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM student_profile WHERE id = $1`)).
		WithArgs(testStudentID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(testStudentID))
}

func expectSubjectLock(mock sqlmock.Sqlmock, available int) {
	mock.ExpectQuery(`SELECT id, name, career_id, cicle_number, total_spots, available_spots\s+FROM subject_reference WHERE id = \$1 FOR UPDATE`).
		WithArgs(testSubjectID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "career_id", "cicle_number", "total_spots", "available_spots"}).
			AddRow(testSubjectID, "Distributed Systems", "33333333-3333-3333-3333-333333333333", 5, 30, available))
}

func TestEnrollConsumesSeatAtomically(t *testing.T) {
	repo, mock, closeFn := newEnrollmentRepoMock(t)
	defer closeFn()

	mock.ExpectBegin()
	expectStudentLookup(mock)
	expectSubjectLock(mock, 3)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM student_subject WHERE student_profile_id = $1 AND subject_id = $2 LIMIT 1`)).
		WithArgs(testStudentID, testSubjectID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO student_subject`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE subject_reference SET available_spots = available_spots - 1\s+WHERE id = \$1 AND available_spots > 0\s+RETURNING available_spots, total_spots`).
		WithArgs(testSubjectID).
		WillReturnRows(sqlmock.NewRows([]string{"available_spots", "total_spots"}).AddRow(2, 30))
	mock.ExpectCommit()

	result, err := repo.Enroll(context.Background(), testStudentID, testSubjectID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Distributed Systems", result.SubjectName)
	assert.Equal(t, 2, result.AvailableSpots)
	assert.Equal(t, 30, result.TotalSpots)
	assert.Equal(t, models.EnrollmentStatusEnrolled, result.Enrollment.Status)
	assert.NotEmpty(t, result.Enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollRejectsFullSubjectBeforeWriting(t *testing.T) {
	repo, mock, closeFn := newEnrollmentRepoMock(t)
	defer closeFn()

	mock.ExpectBegin()
	expectStudentLookup(mock)
	expectSubjectLock(mock, 0)
	mock.ExpectRollback()

	result, err := repo.Enroll(context.Background(), testStudentID, testSubjectID, nil)
	require.Error(t, err)
	assert.Nil(t, result)

	var capErr *SeatCapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, "Distributed Systems", capErr.SubjectName)
	assert.Equal(t, 30, capErr.TotalSpots)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollRejectsDuplicate(t *testing.T) {
	repo, mock, closeFn := newEnrollmentRepoMock(t)
	defer closeFn()

	mock.ExpectBegin()
	expectStudentLookup(mock)
	expectSubjectLock(mock, 3)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM student_subject WHERE student_profile_id = $1 AND subject_id = $2 LIMIT 1`)).
		WithArgs(testStudentID, testSubjectID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), testStudentID, testSubjectID, nil)
	assert.ErrorIs(t, err, ErrDuplicateEnrollment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollMapsUniqueConstraintToDuplicate(t *testing.T) {
	repo, mock, closeFn := newEnrollmentRepoMock(t)
	defer closeFn()

	mock.ExpectBegin()
	expectStudentLookup(mock)
	expectSubjectLock(mock, 3)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM student_subject WHERE student_profile_id = $1 AND subject_id = $2 LIMIT 1`)).
		WithArgs(testStudentID, testSubjectID).
		WillReturnError(sql.ErrNoRows)
	// A racing transaction committed the same pair after our duplicate check.
	mock.ExpectExec(`INSERT INTO student_subject`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "student_subject_student_profile_id_subject_id_key"})
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), testStudentID, testSubjectID, nil)
	assert.ErrorIs(t, err, ErrDuplicateEnrollment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollRollsBackWhenDecrementGuardTrips(t *testing.T) {
	repo, mock, closeFn := newEnrollmentRepoMock(t)
	defer closeFn()

	mock.ExpectBegin()
	expectStudentLookup(mock)
	expectSubjectLock(mock, 1)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM student_subject WHERE student_profile_id = $1 AND subject_id = $2 LIMIT 1`)).
		WithArgs(testStudentID, testSubjectID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO student_subject`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE subject_reference SET available_spots = available_spots - 1`).
		WithArgs(testSubjectID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), testStudentID, testSubjectID, nil)
	var capErr *SeatCapacityError
	require.True(t, errors.As(err, &capErr))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollUnknownStudent(t *testing.T) {
	repo, mock, closeFn := newEnrollmentRepoMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM student_profile WHERE id = $1`)).
		WithArgs(testStudentID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), testStudentID, testSubjectID, nil)
	assert.ErrorIs(t, err, ErrStudentMissing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateGradeNotFound(t *testing.T) {
	repo, mock, closeFn := newEnrollmentRepoMock(t)
	defer closeFn()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE student_subject SET grade = $2, status = $3 WHERE id = $1`)).
		WithArgs("missing", 15.0, models.EnrollmentStatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateGrade(context.Background(), "missing", 15.0, models.EnrollmentStatusApproved)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPerformanceReportAppliesFilters(t *testing.T) {
	repo, mock, closeFn := newEnrollmentRepoMock(t)
	defer closeFn()

	minGrade := 11.0
	rows := sqlmock.NewRows([]string{
		"student_id", "student_user_id", "student_name", "career_name",
		"current_cicle", "total_subjects", "average_grade", "approved_subjects", "failed_subjects",
	}).AddRow(testStudentID, "u-1", "Ana Quispe", "Software Engineering", 5, 6, 14.5, 5, 1)

	mock.ExpectQuery(`FROM student_profile sp\s+INNER JOIN user_reference ur`).
		WithArgs("career-1", minGrade, "approved").
		WillReturnRows(rows)

	report, err := repo.PerformanceReport(context.Background(), models.PerformanceFilter{
		CareerID: "career-1",
		MinGrade: &minGrade,
		Status:   "approved",
	})
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, "Ana Quispe", report[0].StudentName)
	assert.Equal(t, 14.5, report[0].AverageGrade)
	require.NoError(t, mock.ExpectationsWereMet())
}
