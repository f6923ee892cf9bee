package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sguni/academic-api/internal/service"
	"github.com/sguni/academic-api/pkg/response"
)

// SyncHandler exposes the reference sync trigger.
type SyncHandler struct {
	service *service.SyncService
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(svc *service.SyncService) *SyncHandler {
	return &SyncHandler{service: svc}
}

// Run godoc
// @Summary Run reference sync
// @Description Pulls snapshots from the users and academic databases and
// @Description upserts reference copies into the profiles database. Each
// @Description reference kind succeeds or fails independently; the report
// @Description lists the outcome per kind.
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sync/references [post]
func (h *SyncHandler) Run(c *gin.Context) {
	report, err := h.service.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if len(report.Failed()) > 0 {
		status = http.StatusMultiStatus
	}
	response.JSON(c, status, report, nil)
}
