package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sguni/academic-api/internal/models"
	"github.com/sguni/academic-api/internal/repository"
	"github.com/sguni/academic-api/internal/service"
	"github.com/sguni/academic-api/pkg/response"
)

type enrollmentRepoStub struct {
	result *models.EnrollmentResult
	err    error
}

func (s *enrollmentRepoStub) Enroll(_ context.Context, studentProfileID, subjectID string, cycleID *string) (*models.EnrollmentResult, error) {
	return s.result, s.err
}

func (s *enrollmentRepoStub) ListByStudent(context.Context, string, string) ([]models.StudentEnrollmentRow, error) {
	return nil, nil
}

func (s *enrollmentRepoStub) UpdateGrade(context.Context, string, float64, models.EnrollmentStatus) error {
	return s.err
}

type studentReaderStub struct{}

func (studentReaderStub) FindByID(_ context.Context, id string) (*models.StudentProfileDetail, error) {
	detail := &models.StudentProfileDetail{}
	detail.ID = id
	return detail, nil
}

type cycleReaderStub struct{}

func (cycleReaderStub) FindCycle(_ context.Context, id string) (*models.CycleReference, error) {
	return nil, sql.ErrNoRows
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newEnrollmentHandler(repo *enrollmentRepoStub) *EnrollmentHandler {
	svc := service.NewEnrollmentService(repo, studentReaderStub{}, cycleReaderStub{}, nil, nil, zap.NewNop())
	return NewEnrollmentHandler(svc, nil)
}

func TestEnrollmentHandlerEnrollCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &enrollmentRepoStub{result: &models.EnrollmentResult{
		Enrollment: models.StudentSubject{
			ID:               uuid.NewString(),
			StudentProfileID: "sp-1",
			SubjectID:        "s-1",
			Status:           models.EnrollmentStatusEnrolled,
			EnrolledAt:       time.Now().UTC(),
		},
		SubjectID:      "s-1",
		SubjectName:    "Algorithms",
		AvailableSpots: 9,
		TotalSpots:     10,
	}}
	handler := newEnrollmentHandler(repo)

	payload, _ := json.Marshal(service.EnrollRequest{StudentProfileID: "sp-1", SubjectID: "s-1"})
	c, w := newGinContext(http.MethodPost, "/enrollments", payload)

	handler.Enroll(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
}

func TestEnrollmentHandlerEnrollCapacityExceeded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &enrollmentRepoStub{err: &repository.SeatCapacityError{SubjectName: "Algorithms", TotalSpots: 10}}
	handler := newEnrollmentHandler(repo)

	payload, _ := json.Marshal(service.EnrollRequest{StudentProfileID: "sp-1", SubjectID: "s-1"})
	c, w := newGinContext(http.MethodPost, "/enrollments", payload)

	handler.Enroll(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	require.Equal(t, "CAPACITY_EXCEEDED", envelope.Error.Code)
	require.Contains(t, envelope.Error.Message, "Algorithms")
}

func TestEnrollmentHandlerEnrollDuplicateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &enrollmentRepoStub{err: repository.ErrDuplicateEnrollment}
	handler := newEnrollmentHandler(repo)

	payload, _ := json.Marshal(service.EnrollRequest{StudentProfileID: "sp-1", SubjectID: "s-1"})
	c, w := newGinContext(http.MethodPost, "/enrollments", payload)

	handler.Enroll(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestEnrollmentHandlerRecordGradeNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollmentRepoStub{})

	payload, _ := json.Marshal(service.GradeRequest{Grade: 16, Status: "approved"})
	c, w := newGinContext(http.MethodPatch, "/enrollments/e-1/grade", payload)
	c.Params = gin.Params{{Key: "id", Value: "e-1"}}

	handler.RecordGrade(c)
	// c.Status alone is flushed by the engine after the handler chain; a
	// directly invoked handler needs the explicit flush.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.Bytes())
}
