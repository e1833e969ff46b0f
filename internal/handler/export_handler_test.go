package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	"github.com/noah-isme/bagrut-dashboard-api/internal/service"
	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
)

type fakeExportSrv struct {
	filter models.StudentFilter
	format string
	file   *service.ExportFile
	err    error
}

func (f *fakeExportSrv) Export(_ context.Context, filter models.StudentFilter, format string) (*service.ExportFile, error) {
	f.filter = filter
	f.format = format
	return f.file, f.err
}

func TestExportHandlerStreamsFile(t *testing.T) {
	srv := &fakeExportSrv{file: &service.ExportFile{
		Filename:    "students-20261017-080000.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("a,b\n"),
	}}
	handler := NewExportHandler(srv)
	c, rec := testContext(http.MethodGet, "/students/export?format=csv&grade=%D7%99%D7%90")

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", srv.format)
	assert.Equal(t, "יא", srv.filter.Grade)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "students-20261017-080000.csv")
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestExportHandlerBadFormat(t *testing.T) {
	handler := NewExportHandler(&fakeExportSrv{err: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")})
	c, rec := testContext(http.MethodGet, "/students/export?format=docx")

	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
