package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sguni/academic-api/internal/models"
	appErrors "github.com/sguni/academic-api/pkg/errors"
)

type fakeTeacherRepo struct {
	profiles    map[string]*models.TeacherProfileDetail
	byUser      map[string]bool
	assignments map[string][]models.SubjectAssignment
}

func newFakeTeacherRepo() *fakeTeacherRepo {
	return &fakeTeacherRepo{
		profiles:    map[string]*models.TeacherProfileDetail{},
		byUser:      map[string]bool{},
		assignments: map[string][]models.SubjectAssignment{},
	}
}

func (f *fakeTeacherRepo) FindByID(_ context.Context, id string) (*models.TeacherProfileDetail, error) {
	if detail, ok := f.profiles[id]; ok {
		return detail, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTeacherRepo) ExistsByUser(_ context.Context, userID string) (bool, error) {
	return f.byUser[userID], nil
}

func (f *fakeTeacherRepo) List(_ context.Context, page, size int) ([]models.TeacherProfileDetail, int, error) {
	var out []models.TeacherProfileDetail
	for _, detail := range f.profiles {
		out = append(out, *detail)
	}
	return out, len(out), nil
}

func (f *fakeTeacherRepo) Create(_ context.Context, profile *models.TeacherProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	f.byUser[profile.UserID] = true
	f.profiles[profile.ID] = &models.TeacherProfileDetail{TeacherProfile: *profile}
	return nil
}

func (f *fakeTeacherRepo) Update(_ context.Context, profile *models.TeacherProfile) error {
	f.profiles[profile.ID] = &models.TeacherProfileDetail{TeacherProfile: *profile}
	return nil
}

func (f *fakeTeacherRepo) Delete(_ context.Context, id string) error {
	delete(f.profiles, id)
	return nil
}

func (f *fakeTeacherRepo) ExistsAssignment(_ context.Context, teacherProfileID, subjectID string) (bool, error) {
	for _, a := range f.assignments[teacherProfileID] {
		if a.SubjectID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTeacherRepo) CreateAssignment(_ context.Context, assignment *models.SubjectAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	f.assignments[assignment.TeacherProfileID] = append(f.assignments[assignment.TeacherProfileID], *assignment)
	return nil
}

func (f *fakeTeacherRepo) ListAssignments(_ context.Context, teacherProfileID string) ([]models.SubjectAssignment, error) {
	return f.assignments[teacherProfileID], nil
}

type fakeTeacherRefs struct {
	users        map[string]string // id -> name
	specialities map[string]string
	careers      map[string]string
	subjects     map[string]string
}

func (f *fakeTeacherRefs) FindUser(_ context.Context, id string) (*models.UserReference, error) {
	if name, ok := f.users[id]; ok {
		return &models.UserReference{ID: id, Name: name}, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTeacherRefs) FindSpeciality(_ context.Context, id string) (*models.SpecialityReference, error) {
	if name, ok := f.specialities[id]; ok {
		return &models.SpecialityReference{ID: id, Name: name}, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTeacherRefs) FindCareer(_ context.Context, id string) (*models.CareerReference, error) {
	if name, ok := f.careers[id]; ok {
		return &models.CareerReference{ID: id, Name: name}, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTeacherRefs) FindSubject(_ context.Context, id string) (*models.SubjectReference, error) {
	if name, ok := f.subjects[id]; ok {
		return &models.SubjectReference{ID: id, Name: name}, nil
	}
	return nil, sql.ErrNoRows
}

func newTeacherServiceFixture() (*TeacherService, *fakeTeacherRepo, *fakeTeacherRefs) {
	repo := newFakeTeacherRepo()
	refs := &fakeTeacherRefs{
		users:        map[string]string{"u-1": "Luis Mendoza"},
		specialities: map[string]string{"sp-1": "Algorithms"},
		careers:      map[string]string{"c-1": "Software Engineering"},
		subjects:     map[string]string{"s-1": "Compilers"},
	}
	return NewTeacherService(repo, refs, validator.New(), zap.NewNop()), repo, refs
}

func TestCreateTeacherResolvesReferences(t *testing.T) {
	svc, _, _ := newTeacherServiceFixture()

	detail, err := svc.Create(context.Background(), CreateTeacherRequest{
		UserID:         "u-1",
		SpecialityID:   "sp-1",
		CareerID:       "c-1",
		EmploymentType: "PART_TIME",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, detail.ID)
	assert.Equal(t, "Luis Mendoza", detail.TeacherName)
	assert.Equal(t, "Software Engineering", detail.CareerName)
	assert.Equal(t, models.EmploymentPartTime, detail.EmploymentType)
}

func TestCreateTeacherRequiresSyncedUser(t *testing.T) {
	svc, _, _ := newTeacherServiceFixture()

	_, err := svc.Create(context.Background(), CreateTeacherRequest{
		UserID:       "never-synced",
		SpecialityID: "sp-1",
		CareerID:     "c-1",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "reference sync")
}

func TestCreateTeacherRejectsSecondProfilePerUser(t *testing.T) {
	svc, _, _ := newTeacherServiceFixture()
	req := CreateTeacherRequest{UserID: "u-1", SpecialityID: "sp-1", CareerID: "c-1"}

	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAssignSubjectIsUniquePerTeacher(t *testing.T) {
	svc, _, _ := newTeacherServiceFixture()

	detail, err := svc.Create(context.Background(), CreateTeacherRequest{
		UserID: "u-1", SpecialityID: "sp-1", CareerID: "c-1",
	})
	require.NoError(t, err)

	assignment, err := svc.AssignSubject(context.Background(), detail.ID, AssignSubjectRequest{SubjectID: "s-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, assignment.ID)

	_, err = svc.AssignSubject(context.Background(), detail.ID, AssignSubjectRequest{SubjectID: "s-1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAssignSubjectUnknownSubject(t *testing.T) {
	svc, _, _ := newTeacherServiceFixture()

	detail, err := svc.Create(context.Background(), CreateTeacherRequest{
		UserID: "u-1", SpecialityID: "sp-1", CareerID: "c-1",
	})
	require.NoError(t, err)

	_, err = svc.AssignSubject(context.Background(), detail.ID, AssignSubjectRequest{SubjectID: "ghost"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestUpdateTeacherValidatesNewReferences(t *testing.T) {
	svc, _, refs := newTeacherServiceFixture()

	detail, err := svc.Create(context.Background(), CreateTeacherRequest{
		UserID: "u-1", SpecialityID: "sp-1", CareerID: "c-1",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), detail.ID, UpdateTeacherRequest{CareerID: "unknown"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	refs.careers["c-2"] = "Data Science"
	updated, err := svc.Update(context.Background(), detail.ID, UpdateTeacherRequest{CareerID: "c-2"})
	require.NoError(t, err)
	assert.Equal(t, "c-2", updated.CareerID)
}

func TestGetTeacherIncludesAssignments(t *testing.T) {
	svc, _, _ := newTeacherServiceFixture()

	detail, err := svc.Create(context.Background(), CreateTeacherRequest{
		UserID: "u-1", SpecialityID: "sp-1", CareerID: "c-1",
	})
	require.NoError(t, err)
	_, err = svc.AssignSubject(context.Background(), detail.ID, AssignSubjectRequest{SubjectID: "s-1"})
	require.NoError(t, err)

	teacher, assignments, err := svc.Get(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, detail.ID, teacher.ID)
	require.Len(t, assignments, 1)
	assert.Equal(t, "s-1", assignments[0].SubjectID)
}
