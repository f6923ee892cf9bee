package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sguni/academic-api/internal/models"
	"github.com/sguni/academic-api/internal/service"
	"github.com/sguni/academic-api/pkg/response"
)

// ReportHandler serves the student performance report.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Performance godoc
// @Summary Student performance report
// @Description Aggregated grades per student. Pass format=csv or format=pdf
// @Description to download the rendered report instead of JSON.
// @Tags Reports
// @Produce json
// @Param career_id query string false "Career filter"
// @Param min_grade query number false "Minimum average grade"
// @Param status query string false "Enrollment status filter"
// @Param format query string false "Export format (csv or pdf)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/performance [get]
func (h *ReportHandler) Performance(c *gin.Context) {
	filter := models.PerformanceFilter{
		CareerID: c.Query("career_id"),
		Status:   models.EnrollmentStatus(c.Query("status")),
	}
	if raw := c.Query("min_grade"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinGrade = &v
		}
	}

	if format := c.Query("format"); format != "" {
		payload, contentType, filename, err := h.service.Export(c.Request.Context(), filter, service.ReportFormat(format))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Data(http.StatusOK, contentType, payload)
		return
	}

	rows, cached, err := h.service.Performance(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, nil, map[string]interface{}{"cached": cached})
}
