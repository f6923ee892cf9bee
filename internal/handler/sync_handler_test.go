package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sguni/academic-api/internal/models"
	"github.com/sguni/academic-api/internal/service"
	"github.com/sguni/academic-api/pkg/response"
)

type userSourceStub struct {
	err error
}

func (s userSourceStub) ListWithRole(context.Context) ([]models.UserDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.UserDetail{{User: models.User{ID: "u-1", Name: "Ana"}, RoleName: "STUDENT"}}, nil
}

type catalogSourceStub struct{}

func (catalogSourceStub) ListSpecialities(context.Context) ([]models.Speciality, error) {
	return nil, nil
}

func (catalogSourceStub) ListCareers(context.Context) ([]models.Career, error) { return nil, nil }

func (catalogSourceStub) ListCycles(context.Context) ([]models.Cycle, error) { return nil, nil }

func (catalogSourceStub) ListSubjects(context.Context) ([]models.Subject, error) { return nil, nil }

type referenceWriterStub struct{}

func (referenceWriterStub) UpsertUsers(_ context.Context, refs []models.UserReference) (int, error) {
	return len(refs), nil
}

func (referenceWriterStub) UpsertSpecialities(_ context.Context, refs []models.SpecialityReference) (int, error) {
	return len(refs), nil
}

func (referenceWriterStub) UpsertCareers(_ context.Context, refs []models.CareerReference) (int, error) {
	return len(refs), nil
}

func (referenceWriterStub) UpsertSubjects(_ context.Context, refs []models.SubjectReference) (int, error) {
	return len(refs), nil
}

func (referenceWriterStub) UpsertCycles(_ context.Context, refs []models.CycleReference) (int, error) {
	return len(refs), nil
}

func TestSyncHandlerRunOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewSyncService(userSourceStub{}, catalogSourceStub{}, referenceWriterStub{}, nil, time.Second, zap.NewNop())
	handler := NewSyncHandler(svc)

	c, w := newGinContext(http.MethodPost, "/sync/references", nil)

	handler.Run(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
}

func TestSyncHandlerRunPartialFailureMultiStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewSyncService(userSourceStub{err: errors.New("users db down")}, catalogSourceStub{}, referenceWriterStub{}, nil, time.Second, zap.NewNop())
	handler := NewSyncHandler(svc)

	c, w := newGinContext(http.MethodPost, "/sync/references", nil)

	handler.Run(c)
	require.Equal(t, http.StatusMultiStatus, w.Code)
}
