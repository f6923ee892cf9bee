package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sguni/academic-api/internal/models"
)

func newReferenceRepoMock(t *testing.T) (*ReferenceRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewReferenceRepository(sqlxDB), mock, func() { sqlxDB.Close() }
}

func TestUpsertUsersWritesAllRowsInOneTransaction(t *testing.T) {
	repo, mock, closeFn := newReferenceRepoMock(t)
	defer closeFn()

	refs := []models.UserReference{
		{ID: "u-1", Name: "Ana", Email: "ana@example.edu", RoleID: "r-1", RoleName: "STUDENT", Status: "active"},
		{ID: "u-2", Name: "Luis", Email: "luis@example.edu", RoleID: "r-2", RoleName: "TEACHER", Status: "active"},
	}

	mock.ExpectBegin()
	for _, ref := range refs {
		mock.ExpectExec(`INSERT INTO user_reference`).
			WithArgs(ref.ID, ref.Name, ref.Email, ref.RoleID, ref.RoleName, ref.Status).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	count, err := repo.UpsertUsers(context.Background(), refs)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSubjectsNeverTouchesSeatCountersOnConflict(t *testing.T) {
	repo, mock, closeFn := newReferenceRepoMock(t)
	defer closeFn()

	mock.ExpectBegin()
	// The conflict clause must refresh descriptive columns only. A pattern
	// anchored on the DO UPDATE SET list asserts the counters stay out of it.
	mock.ExpectExec(`ON CONFLICT \(id\)\s+DO UPDATE SET name = EXCLUDED\.name, career_id = EXCLUDED\.career_id, cicle_number = EXCLUDED\.cicle_number$`).
		WithArgs("s-1", "Compilers", "c-1", 7, 25, 25).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, err := repo.UpsertSubjects(context.Background(), []models.SubjectReference{
		{ID: "s-1", Name: "Compilers", CareerID: "c-1", CicleNumber: 7, TotalSpots: 25, AvailableSpots: 25},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSkipsTransactionForEmptyBatch(t *testing.T) {
	repo, mock, closeFn := newReferenceRepoMock(t)
	defer closeFn()

	count, err := repo.UpsertCareers(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCyclesRollsBackOnRowError(t *testing.T) {
	repo, mock, closeFn := newReferenceRepoMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO cycle_reference`).
		WithArgs("cy-1", "2026-I", 2026, 1).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	count, err := repo.UpsertCycles(context.Background(), []models.CycleReference{
		{ID: "cy-1", Name: "2026-I", Year: 2026, Period: 1},
	})
	require.Error(t, err)
	assert.Zero(t, count)
	assert.Contains(t, err.Error(), "upsert cycle references")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSubjectReturnsLiveCounters(t *testing.T) {
	repo, mock, closeFn := newReferenceRepoMock(t)
	defer closeFn()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, career_id, cicle_number, total_spots, available_spots FROM subject_reference WHERE id = $1`)).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "career_id", "cicle_number", "total_spots", "available_spots"}).
			AddRow("s-1", "Compilers", "c-1", 7, 25, 11))

	ref, err := repo.FindSubject(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, 11, ref.AvailableSpots)
	assert.Equal(t, 25, ref.TotalSpots)
	require.NoError(t, mock.ExpectationsWereMet())
}
