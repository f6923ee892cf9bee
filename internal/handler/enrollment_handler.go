package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sguni/academic-api/internal/service"
	appErrors "github.com/sguni/academic-api/pkg/errors"
	"github.com/sguni/academic-api/pkg/response"
)

// EnrollmentHandler serves the enrollment transaction endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
	reports *service.ReportService
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(svc *service.EnrollmentService, reports *service.ReportService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, reports: reports}
}

// Enroll godoc
// @Summary Enroll student in subject
// @Description Registers the student and consumes one seat atomically. Fails
// @Description with 400 when no seats remain and 409 on duplicate enrollment.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}

	result, err := h.service.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListForStudent godoc
// @Summary List student enrollments
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student profile ID"
// @Param cycle_id query string false "Cycle filter"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *EnrollmentHandler) ListForStudent(c *gin.Context) {
	rows, err := h.service.ListForStudent(c.Request.Context(), c.Param("id"), c.Query("cycle_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, nil)
}

// RecordGrade godoc
// @Summary Record enrollment grade
// @Description Sets the grade and final status of an enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id}/grade [patch]
func (h *EnrollmentHandler) RecordGrade(c *gin.Context) {
	var req service.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}

	if err := h.service.RecordGrade(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	if h.reports != nil {
		h.reports.InvalidateCache(c.Request.Context())
	}

	response.NoContent(c)
}
