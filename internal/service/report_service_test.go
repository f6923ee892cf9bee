package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sguni/academic-api/internal/models"
	appErrors "github.com/sguni/academic-api/pkg/errors"
)

type fakePerformanceReader struct {
	rows  []models.PerformanceRow
	calls int
}

func (f *fakePerformanceReader) PerformanceReport(context.Context, models.PerformanceFilter) ([]models.PerformanceRow, error) {
	f.calls++
	return f.rows, nil
}

// memoryCacheRepo is the JSON-over-map stand-in for the redis-backed repository.
type memoryCacheRepo struct {
	store map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{store: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.store {
		if strings.HasPrefix(key, prefix) {
			delete(m.store, key)
		}
	}
	return nil
}

func newReportServiceFixture() (*ReportService, *fakePerformanceReader, *memoryCacheRepo) {
	reader := &fakePerformanceReader{rows: []models.PerformanceRow{
		{StudentID: "sp-1", StudentName: "Ana Quispe", CareerName: "Software Engineering", CurrentCicle: 5, TotalSubjects: 6, AverageGrade: 14.5, ApprovedSubjects: 5, FailedSubjects: 1},
	}}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewReportService(reader, cache, nil, time.Minute, zap.NewNop())
	return svc, reader, cacheRepo
}

func TestPerformanceCachesSecondRead(t *testing.T) {
	svc, reader, _ := newReportServiceFixture()
	ctx := context.Background()
	filter := models.PerformanceFilter{CareerID: "c-1"}

	rows, cached, err := svc.Performance(ctx, filter)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, reader.calls)

	rows, cached, err = svc.Performance(ctx, filter)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "Ana Quispe", rows[0].StudentName)
	assert.Equal(t, 1, reader.calls)
}

func TestPerformanceCacheKeyVariesByFilter(t *testing.T) {
	svc, reader, _ := newReportServiceFixture()
	ctx := context.Background()

	_, _, err := svc.Performance(ctx, models.PerformanceFilter{CareerID: "c-1"})
	require.NoError(t, err)
	minGrade := 11.0
	_, _, err = svc.Performance(ctx, models.PerformanceFilter{CareerID: "c-1", MinGrade: &minGrade})
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)
}

func TestInvalidateCacheForcesFreshRead(t *testing.T) {
	svc, reader, cacheRepo := newReportServiceFixture()
	ctx := context.Background()
	filter := models.PerformanceFilter{Status: models.EnrollmentStatusApproved}

	_, _, err := svc.Performance(ctx, filter)
	require.NoError(t, err)
	require.NotEmpty(t, cacheRepo.store)

	svc.InvalidateCache(ctx)
	assert.Empty(t, cacheRepo.store)

	_, cached, err := svc.Performance(ctx, filter)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, reader.calls)
}

func TestExportRendersCSV(t *testing.T) {
	svc, _, _ := newReportServiceFixture()

	payload, contentType, filename, err := svc.Export(context.Background(), models.PerformanceFilter{}, ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.True(t, strings.HasPrefix(filename, "performance_"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	body := string(payload)
	assert.Contains(t, body, "Student,Career,Cycle,Subjects,Average,Approved,Failed")
	assert.Contains(t, body, "Ana Quispe")
	assert.Contains(t, body, "14.50")
}

func TestExportRendersPDF(t *testing.T) {
	svc, _, _ := newReportServiceFixture()

	payload, contentType, filename, err := svc.Export(context.Background(), models.PerformanceFilter{}, ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasSuffix(filename, ".pdf"))
	assert.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newReportServiceFixture()

	_, _, _, err := svc.Export(context.Background(), models.PerformanceFilter{}, ReportFormat("xlsx"))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReportServiceWorksWithoutCache(t *testing.T) {
	reader := &fakePerformanceReader{}
	svc := NewReportService(reader, nil, nil, time.Minute, zap.NewNop())

	_, cached, err := svc.Performance(context.Background(), models.PerformanceFilter{})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, reader.calls)
}
