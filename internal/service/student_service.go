package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bagrut-dashboard-api/internal/eligibility"
	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Replace(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentRequest is the payload of the manual entry form, used for both create and update.
type StudentRequest struct {
	StudentID       string `json:"student_id" validate:"max=64"`
	Name            string `json:"name" validate:"notblank,max=200"`
	Grade           string `json:"grade" validate:"grade"`
	ClassNum        string `json:"class_num" validate:"notblank,max=20"`
	MathUnits       *int   `json:"math_units" validate:"omitempty,unit_load"`
	EnglishUnits    *int   `json:"english_units" validate:"omitempty,unit_load"`
	Specialization1 string `json:"specialization1" validate:"spec1"`
	Specialization2 string `json:"specialization2" validate:"spec2"`
	SocialUnits     int    `json:"social_units" validate:"min=0,max=40"`
}

// Raw converts a validated request into the engine's input record.
func (r StudentRequest) Raw() eligibility.RawEnrollmentRecord {
	raw := eligibility.RawEnrollmentRecord{
		Name:            strings.TrimSpace(r.Name),
		ClassNum:        strings.TrimSpace(r.ClassNum),
		Specialization1: eligibility.ParseSpecialization1(r.Specialization1),
		Specialization2: eligibility.ParseSpecialization2(r.Specialization2),
		SocialUnits:     r.SocialUnits,
	}
	raw.Grade, _ = eligibility.ParseGrade(r.Grade)
	if id := strings.TrimSpace(r.StudentID); id != "" {
		raw.StudentID = &id
	}
	if r.MathUnits != nil {
		raw.MathUnits, _ = eligibility.ParseUnitLoad(*r.MathUnits)
	}
	if r.EnglishUnits != nil {
		raw.EnglishUnits, _ = eligibility.ParseUnitLoad(*r.EnglishUnits)
	}
	return raw
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidations(validate)
	return &StudentService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	if !validStudentID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create validates the form payload, derives eligibility and stores the student.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage("invalid student payload", err))
	}
	student := &models.Student{ComputedStudentRecord: eligibility.Compute(req.Raw())}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.metrics.RecordComputation(string(student.Status))
	s.cache.InvalidateDashboard(ctx)
	s.logger.Info("student created", zap.String("id", student.ID), zap.String("status", string(student.Status)))
	return student, nil
}

// Update re-derives the whole record from the new payload; derived fields are never patched.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage("invalid student payload", err))
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student := &models.Student{
		ID:                    existing.ID,
		ComputedStudentRecord: eligibility.Compute(req.Raw()),
		CreatedAt:             existing.CreatedAt,
	}
	if err := s.repo.Replace(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.metrics.RecordComputation(string(student.Status))
	s.cache.InvalidateDashboard(ctx)
	return student, nil
}

// Delete removes a student permanently.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if !validStudentID(id) {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.cache.InvalidateDashboard(ctx)
	return nil
}

// validStudentID rejects ids the uuid column could never hold.
func validStudentID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
