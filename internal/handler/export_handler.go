package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	"github.com/noah-isme/bagrut-dashboard-api/internal/service"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, filter models.StudentFilter, format string) (*service.ExportFile, error)
}

// ExportHandler streams student lists as downloadable files.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Export godoc
// @Summary Export students
// @Description Accepts the same filters as the student list. Rows are ordered by class then name.
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param grade query string false "Grade"
// @Param status query string false "Eligibility status"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /students/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	filter, err := studentFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Export(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
