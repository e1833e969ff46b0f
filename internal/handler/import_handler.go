package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bagrut-dashboard-api/internal/dto"
	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/response"
)

type importService interface {
	Import(ctx context.Context, filename string, r io.Reader) (*dto.ImportResult, error)
}

// ImportHandler accepts spreadsheet uploads.
type ImportHandler struct {
	service  importService
	maxBytes int64
}

// NewImportHandler constructs the handler. Uploads larger than maxBytes are rejected
// before the file is read.
func NewImportHandler(service importService, maxBytes int64) *ImportHandler {
	return &ImportHandler{service: service, maxBytes: maxBytes}
}

// Import godoc
// @Summary Import students from a spreadsheet
// @Description Accepts .xlsx or .csv with a header row. Rows missing name, grade or class are skipped and reported.
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Spreadsheet"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /students/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "multipart field \"file\" is required"))
		return
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxBytes)))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	result, err := h.service.Import(c.Request.Context(), header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
