package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sguni/academic-api/internal/models"
	appErrors "github.com/sguni/academic-api/pkg/errors"
	"github.com/sguni/academic-api/pkg/export"
)

// ReportFormat identifies a rendered report output.
type ReportFormat string

// Supported export formats.
const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type performanceReader interface {
	PerformanceReport(ctx context.Context, filter models.PerformanceFilter) ([]models.PerformanceRow, error)
}

// ReportService builds the student performance report with cache integration.
type ReportService struct {
	repo     performanceReader
	cache    *CacheService
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(repo performanceReader, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, cache: cache, metrics: metrics, cacheTTL: cacheTTL, logger: logger}
}

// Performance returns the aggregated report. The boolean indicates a cache hit.
func (s *ReportService) Performance(ctx context.Context, filter models.PerformanceFilter) ([]models.PerformanceRow, bool, error) {
	cacheKey := makeReportCacheKey(filter)
	var cached []models.PerformanceRow
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read report cache")
		} else if hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	rows, err := s.repo.PerformanceReport(ctx, filter)
	if err != nil {
		s.logger.Error("performance report query failed", zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build performance report")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("performance_report", time.Since(start))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, rows, s.cacheTTL); err != nil {
			s.logger.Warn("cache performance report", zap.Error(err))
		}
	}
	return rows, false, nil
}

// Export renders the performance report in the requested format and returns
// the payload with its content type and suggested filename.
func (s *ReportService) Export(ctx context.Context, filter models.PerformanceFilter, format ReportFormat) ([]byte, string, string, error) {
	rows, _, err := s.Performance(ctx, filter)
	if err != nil {
		return nil, "", "", err
	}

	table := buildPerformanceTable(rows)
	timestamp := time.Now().UTC().Format("20060102_150405")

	switch format {
	case ReportFormatCSV:
		payload, err := export.CSV(table)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", fmt.Sprintf("performance_%s.csv", timestamp), nil
	case ReportFormatPDF:
		payload, err := export.PDF(table)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", fmt.Sprintf("performance_%s.pdf", timestamp), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
}

// InvalidateCache drops cached report payloads, typically after grade updates.
func (s *ReportService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "reports:performance:*"); err != nil {
		s.logger.Warn("invalidate report cache", zap.Error(err))
	}
}

func buildPerformanceTable(rows []models.PerformanceRow) export.Table {
	dataRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, []string{
			row.StudentName,
			row.CareerName,
			fmt.Sprintf("%d", row.CurrentCicle),
			fmt.Sprintf("%d", row.TotalSubjects),
			fmt.Sprintf("%.2f", row.AverageGrade),
			fmt.Sprintf("%d", row.ApprovedSubjects),
			fmt.Sprintf("%d", row.FailedSubjects),
		})
	}
	return export.Table{
		Title:   "Student Performance Report",
		Headers: []string{"Student", "Career", "Cycle", "Subjects", "Average", "Approved", "Failed"},
		Rows:    dataRows,
	}
}

func makeReportCacheKey(filter models.PerformanceFilter) string {
	parts := []string{"reports", "performance", orNA(filter.CareerID), orNA(string(filter.Status))}
	if filter.MinGrade != nil {
		parts = append(parts, fmt.Sprintf("%.2f", *filter.MinGrade))
	} else {
		parts = append(parts, "na")
	}
	return strings.Join(parts, ":")
}

func orNA(v string) string {
	if v == "" {
		return "na"
	}
	return v
}
