package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sguni/academic-api/internal/models"
	"github.com/sguni/academic-api/internal/repository"
	appErrors "github.com/sguni/academic-api/pkg/errors"
)

// fakeEnrollmentRepo keeps seat accounting in memory, mirroring the invariants
// the SQL transaction enforces.
type fakeEnrollmentRepo struct {
	students map[string]bool
	subjects map[string]*models.SubjectReference
	enrolled map[string]bool // studentID + "/" + subjectID
	grades   map[string]bool // enrollment id -> exists
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{
		students: map[string]bool{},
		subjects: map[string]*models.SubjectReference{},
		enrolled: map[string]bool{},
		grades:   map[string]bool{},
	}
}

func (f *fakeEnrollmentRepo) Enroll(_ context.Context, studentProfileID, subjectID string, cycleID *string) (*models.EnrollmentResult, error) {
	if !f.students[studentProfileID] {
		return nil, repository.ErrStudentMissing
	}
	subject, ok := f.subjects[subjectID]
	if !ok {
		return nil, repository.ErrSubjectMissing
	}
	if subject.AvailableSpots <= 0 {
		return nil, &repository.SeatCapacityError{SubjectName: subject.Name, TotalSpots: subject.TotalSpots}
	}
	key := studentProfileID + "/" + subjectID
	if f.enrolled[key] {
		return nil, repository.ErrDuplicateEnrollment
	}
	f.enrolled[key] = true
	subject.AvailableSpots--
	return &models.EnrollmentResult{
		Enrollment: models.StudentSubject{
			ID:               uuid.NewString(),
			StudentProfileID: studentProfileID,
			SubjectID:        subjectID,
			CycleID:          cycleID,
			Status:           models.EnrollmentStatusEnrolled,
			EnrolledAt:       time.Now().UTC(),
		},
		SubjectID:      subject.ID,
		SubjectName:    subject.Name,
		AvailableSpots: subject.AvailableSpots,
		TotalSpots:     subject.TotalSpots,
	}, nil
}

func (f *fakeEnrollmentRepo) ListByStudent(_ context.Context, studentProfileID, cycleID string) ([]models.StudentEnrollmentRow, error) {
	return nil, nil
}

func (f *fakeEnrollmentRepo) UpdateGrade(_ context.Context, id string, grade float64, status models.EnrollmentStatus) error {
	if !f.grades[id] {
		return sql.ErrNoRows
	}
	return nil
}

type fakeStudentReader struct {
	known map[string]bool
}

func (f *fakeStudentReader) FindByID(_ context.Context, id string) (*models.StudentProfileDetail, error) {
	if !f.known[id] {
		return nil, sql.ErrNoRows
	}
	detail := &models.StudentProfileDetail{}
	detail.ID = id
	return detail, nil
}

type fakeCycleReader struct {
	known map[string]bool
}

func (f *fakeCycleReader) FindCycle(_ context.Context, id string) (*models.CycleReference, error) {
	if !f.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.CycleReference{ID: id}, nil
}

func newEnrollmentServiceFixture() (*EnrollmentService, *fakeEnrollmentRepo) {
	repo := newFakeEnrollmentRepo()
	students := &fakeStudentReader{known: map[string]bool{}}
	cycles := &fakeCycleReader{known: map[string]bool{"cycle-1": true}}
	svc := NewEnrollmentService(repo, students, cycles, nil, validator.New(), zap.NewNop())
	return svc, repo
}

func TestEnrollSeatAccountingToExhaustion(t *testing.T) {
	svc, repo := newEnrollmentServiceFixture()
	repo.students["alice"] = true
	repo.students["bob"] = true
	repo.students["carol"] = true
	repo.subjects["algorithms"] = &models.SubjectReference{
		ID: "algorithms", Name: "Algorithms", TotalSpots: 2, AvailableSpots: 2,
	}

	ctx := context.Background()

	result, err := svc.Enroll(ctx, EnrollRequest{StudentProfileID: "alice", SubjectID: "algorithms"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.AvailableSpots)

	// Same student again: conflict, no seat consumed.
	_, err = svc.Enroll(ctx, EnrollRequest{StudentProfileID: "alice", SubjectID: "algorithms"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 1, repo.subjects["algorithms"].AvailableSpots)

	result, err = svc.Enroll(ctx, EnrollRequest{StudentProfileID: "bob", SubjectID: "algorithms"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.AvailableSpots)

	// No seats left: capacity error names the subject and its total.
	_, err = svc.Enroll(ctx, EnrollRequest{StudentProfileID: "carol", SubjectID: "algorithms"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Status, appErr.Status)
	assert.Contains(t, appErr.Message, "Algorithms")
	assert.Contains(t, appErr.Message, "2")
}

func TestEnrollValidatesPayload(t *testing.T) {
	svc, _ := newEnrollmentServiceFixture()

	_, err := svc.Enroll(context.Background(), EnrollRequest{SubjectID: "algorithms"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEnrollUnknownStudentAndSubject(t *testing.T) {
	svc, repo := newEnrollmentServiceFixture()
	repo.students["alice"] = true

	var appErr *appErrors.Error

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentProfileID: "ghost", SubjectID: "algorithms"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "student")

	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentProfileID: "alice", SubjectID: "ghost"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "subject")
}

func TestEnrollRejectsUnknownCycle(t *testing.T) {
	svc, repo := newEnrollmentServiceFixture()
	repo.students["alice"] = true
	repo.subjects["algorithms"] = &models.SubjectReference{
		ID: "algorithms", Name: "Algorithms", TotalSpots: 5, AvailableSpots: 5,
	}

	_, err := svc.Enroll(context.Background(), EnrollRequest{
		StudentProfileID: "alice",
		SubjectID:        "algorithms",
		CycleID:          "missing-cycle",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "cycle")
}

func TestRecordGradeValidatesStatus(t *testing.T) {
	svc, repo := newEnrollmentServiceFixture()
	repo.grades["e-1"] = true

	err := svc.RecordGrade(context.Background(), "e-1", GradeRequest{Grade: 15, Status: "promoted"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	require.NoError(t, svc.RecordGrade(context.Background(), "e-1", GradeRequest{Grade: 15, Status: "approved"}))
}

func TestRecordGradeUnknownEnrollment(t *testing.T) {
	svc, _ := newEnrollmentServiceFixture()

	err := svc.RecordGrade(context.Background(), "missing", GradeRequest{Grade: 9, Status: "failed"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestListForStudentRequiresExistingProfile(t *testing.T) {
	repo := newFakeEnrollmentRepo()
	students := &fakeStudentReader{known: map[string]bool{"alice": true}}
	cycles := &fakeCycleReader{known: map[string]bool{}}
	svc := NewEnrollmentService(repo, students, cycles, nil, validator.New(), zap.NewNop())

	_, err := svc.ListForStudent(context.Background(), "ghost", "")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	rows, err := svc.ListForStudent(context.Background(), "alice", "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
