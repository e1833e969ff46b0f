package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/bagrut-dashboard-api/internal/eligibility"
	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// Export column headers.
const (
	headerStudentID = "ת.ז"
	headerName      = "שם"
	headerClass     = "כיתה"
	headerMath      = "מתמטיקה"
	headerEnglish   = "אנגלית"
	headerSpec1     = "מגמה 1"
	headerSpec2     = "מגמה 2"
	headerTotal     = `סה"כ יח"ל`
	headerStatus    = "סטטוס"
)

var exportHeaders = []string{headerStudentID, headerName, headerClass, headerMath, headerEnglish, headerSpec1, headerSpec2, headerTotal, headerStatus}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders filtered student lists as CSV or PDF.
type ExportService struct {
	students studentLister
	csv      csvRenderer
	pdf      pdfRenderer
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(students studentLister, csv csvRenderer, pdf pdfRenderer, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &ExportService{students: students, csv: csv, pdf: pdf, metrics: metrics, logger: logger, now: time.Now}
}

// Export loads every student matching filter and renders it in the requested format.
func (s *ExportService) Export(ctx context.Context, filter models.StudentFilter, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	students, err := s.students.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	SortByClass(students)
	dataset := BuildDataset(students)

	stamp := s.now().UTC().Format("20060102-150405")
	file := &ExportFile{Filename: fmt.Sprintf("students-%s.%s", stamp, format)}
	switch format {
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		file.Data, err = s.pdf.Render(dataset, "רשימת תלמידים")
	default:
		file.ContentType = "text/csv; charset=utf-8"
		file.Data, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.metrics.RecordExport(format)
	s.logger.Info("students exported", zap.String("format", format), zap.Int("rows", len(students)))
	return file, nil
}

// SortByClass orders students by grade, class number and name. Class numbers and names
// use Hebrew collation with numeric ordering, so class 2 sorts before class 10.
func SortByClass(students []models.Student) {
	col := collate.New(language.Hebrew, collate.Numeric)
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if ra, rb := gradeOrder(a.Grade), gradeOrder(b.Grade); ra != rb {
			return ra < rb
		}
		if c := col.CompareString(a.ClassNum, b.ClassNum); c != 0 {
			return c < 0
		}
		return col.CompareString(a.Name, b.Name) < 0
	})
}

func gradeOrder(g eligibility.Grade) int {
	if r := g.Rank(); r > 0 {
		return r
	}
	return len(eligibility.Grades) + 1
}

// BuildDataset flattens students into export rows.
func BuildDataset(students []models.Student) export.Dataset {
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		studentID := ""
		if st.StudentID != nil {
			studentID = *st.StudentID
		}
		rows = append(rows, map[string]string{
			headerStudentID: studentID,
			headerName:      st.Name,
			headerClass:     string(st.Grade) + "-" + st.ClassNum,
			headerMath:      unitCell(st.MathUnits),
			headerEnglish:   unitCell(st.EnglishUnits),
			headerSpec1:     string(st.Specialization1),
			headerSpec2:     string(st.Specialization2),
			headerTotal:     strconv.Itoa(st.TotalUnits),
			headerStatus:    string(st.Status),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

func unitCell(u *eligibility.UnitLoad) string {
	if u == nil {
		return ""
	}
	return strconv.Itoa(int(*u))
}
