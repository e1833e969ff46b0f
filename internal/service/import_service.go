package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/bagrut-dashboard-api/internal/dto"
	"github.com/noah-isme/bagrut-dashboard-api/internal/eligibility"
	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/spreadsheet"
)

// Spreadsheet column headers.
const (
	ColumnStudentID       = "studentId"
	ColumnName            = "name"
	ColumnGrade           = "grade"
	ColumnClassNum        = "classNum"
	ColumnMathUnits       = "mathUnits"
	ColumnEnglishUnits    = "englishUnits"
	ColumnSpecialization1 = "specialization1"
	ColumnSpecialization2 = "specialization2"
	ColumnSocialUnits     = "socialUnits"
)

type studentBulkWriter interface {
	BulkCreate(ctx context.Context, students []*models.Student) error
}

// ImportReport describes rows dropped while parsing a sheet.
type ImportReport struct {
	SkippedRows []int
}

// ImportService turns uploaded spreadsheets into stored students.
type ImportService struct {
	repo     studentBulkWriter
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	maxBytes int64
}

// NewImportService constructs the import service. maxBytes <= 0 disables the size check.
func NewImportService(repo studentBulkWriter, cache *CacheService, metrics *MetricsService, logger *zap.Logger, maxBytes int64) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{repo: repo, cache: cache, metrics: metrics, logger: logger, maxBytes: maxBytes}
}

// Import parses the file, derives every record and writes the batch in one transaction.
// A failed import leaves nothing behind and is not retried.
func (s *ImportService) Import(ctx context.Context, filename string, r io.Reader) (*dto.ImportResult, error) {
	if !spreadsheet.Supported(filename) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFile, "only .xlsx and .csv files are supported")
	}
	data, err := s.readLimited(r)
	if err != nil {
		return nil, err
	}

	rows, err := spreadsheet.Read(filename, bytes.NewReader(data))
	if err != nil {
		s.metrics.RecordImport(0, 0, true)
		return nil, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, "unable to read spreadsheet")
	}

	records, report := ParseRows(rows)
	if len(records) == 0 {
		s.metrics.RecordImport(0, 0, true)
		return nil, appErrors.Clone(appErrors.ErrImportFailed, "spreadsheet contains no valid student rows")
	}

	students := make([]*models.Student, len(records))
	for i, raw := range records {
		students[i] = &models.Student{ComputedStudentRecord: eligibility.Compute(raw)}
	}
	if err := s.repo.BulkCreate(ctx, students); err != nil {
		s.metrics.RecordImport(0, 0, true)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store imported students")
	}

	for _, student := range students {
		s.metrics.RecordComputation(string(student.Status))
	}
	s.metrics.RecordImport(len(students), len(report.SkippedRows), false)
	s.cache.InvalidateDashboard(ctx)
	s.logger.Info("students imported",
		zap.String("file", filename),
		zap.Int("imported", len(students)),
		zap.Int("skipped", len(report.SkippedRows)),
	)

	skipped := report.SkippedRows
	if skipped == nil {
		skipped = []int{}
	}
	return &dto.ImportResult{Imported: len(students), Skipped: len(skipped), SkippedRows: skipped}, nil
}

func (s *ImportService) readLimited(r io.Reader) ([]byte, error) {
	if s.maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, "unable to read upload")
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, "unable to read upload")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	}
	return data, nil
}

// ParseRows coerces sheet rows into raw records. Rows without a name, a known grade or a
// class are dropped and reported by their sheet line.
func ParseRows(rows []spreadsheet.Row) ([]eligibility.RawEnrollmentRecord, ImportReport) {
	records := make([]eligibility.RawEnrollmentRecord, 0, len(rows))
	var report ImportReport
	for _, row := range rows {
		raw, err := parseRow(row)
		if err != nil {
			report.SkippedRows = append(report.SkippedRows, row.Line)
			continue
		}
		records = append(records, raw)
	}
	return records, report
}

var errMissingRequired = errors.New("missing required field")

func parseRow(row spreadsheet.Row) (eligibility.RawEnrollmentRecord, error) {
	name := row.Get(ColumnName)
	classNum := row.Get(ColumnClassNum)
	grade, ok := eligibility.ParseGrade(row.Get(ColumnGrade))
	if name == "" || classNum == "" || !ok {
		return eligibility.RawEnrollmentRecord{}, errMissingRequired
	}

	raw := eligibility.RawEnrollmentRecord{
		Name:            name,
		Grade:           grade,
		ClassNum:        classNum,
		MathUnits:       parseUnitCell(row.Get(ColumnMathUnits)),
		EnglishUnits:    parseUnitCell(row.Get(ColumnEnglishUnits)),
		Specialization1: eligibility.ParseSpecialization1(row.Get(ColumnSpecialization1)),
		Specialization2: eligibility.ParseSpecialization2(row.Get(ColumnSpecialization2)),
		SocialUnits:     parseCount(row.Get(ColumnSocialUnits)),
	}
	if id := row.Get(ColumnStudentID); id != "" {
		raw.StudentID = &id
	}
	return raw, nil
}

// parseUnitCell accepts 3, 4 or 5, including spreadsheet renderings such as "5.0".
func parseUnitCell(cell string) *eligibility.UnitLoad {
	n, ok := parseWhole(cell)
	if !ok {
		return nil
	}
	units, _ := eligibility.ParseUnitLoad(n)
	return units
}

// maxSocialUnits matches the bound StudentRequest enforces on manual entry.
const maxSocialUnits = 40

// parseCount defaults anything non-numeric or outside 0..maxSocialUnits to 0.
func parseCount(cell string) int {
	n, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(n) || n < 0 || n > maxSocialUnits {
		return 0
	}
	return int(n)
}

func parseWhole(cell string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(f) || math.Abs(f) > maxSocialUnits || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
