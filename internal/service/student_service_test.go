package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/bagrut-dashboard-api/internal/eligibility"
	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
)

type mockStudentRepo struct {
	students   map[string]models.Student
	lastFilter models.StudentFilter
	listTotal  int
	err        error
	replaced   []models.Student
	created    []models.Student
	deleted    []string
	bulk       [][]*models.Student
	bulkErr    error
	lookups    int
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: map[string]models.Student{}}
}

func (m *mockStudentRepo) List(_ context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, m.listTotal, nil
}

func (m *mockStudentRepo) ListAll(_ context.Context, filter models.StudentFilter) ([]models.Student, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStudentRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	m.lookups++
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(_ context.Context, student *models.Student) error {
	if m.err != nil {
		return m.err
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	student.CreatedAt = time.Now()
	m.students[student.ID] = *student
	m.created = append(m.created, *student)
	return nil
}

func (m *mockStudentRepo) BulkCreate(_ context.Context, students []*models.Student) error {
	if m.bulkErr != nil {
		return m.bulkErr
	}
	m.bulk = append(m.bulk, students)
	return nil
}

func (m *mockStudentRepo) Replace(_ context.Context, student *models.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	m.students[student.ID] = *student
	m.replaced = append(m.replaced, *student)
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string) error {
	m.lookups++
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	m.deleted = append(m.deleted, id)
	return nil
}

const studentID = "6f1c2a4e-8b1d-4c3e-9a7f-2d5b8e0c1a34"

func intPtr(v int) *int { return &v }

func validRequest() StudentRequest {
	return StudentRequest{
		StudentID:       " 123 ",
		Name:            "  נועה  ",
		Grade:           "יב",
		ClassNum:        "2",
		MathUnits:       intPtr(5),
		EnglishUnits:    intPtr(5),
		Specialization1: "מדעי המחשב",
		Specialization2: "פיזיקה",
	}
}

func newStudentServiceForTest(repo *mockStudentRepo) (*StudentService, *memoryCacheRepo) {
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	return NewStudentService(repo, cache, NewMetricsService(), nil, zap.NewNop()), cacheRepo
}

func TestStudentServiceCreateComputesEligibility(t *testing.T) {
	repo := newMockStudentRepo()
	svc, cacheRepo := newStudentServiceForTest(repo)
	cacheRepo.entries["dash:mapping"] = []byte(`{}`)

	student, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "generated", student.ID)
	assert.Equal(t, "נועה", student.Name)
	require.NotNil(t, student.StudentID)
	assert.Equal(t, "123", *student.StudentID)
	assert.Equal(t, 20, student.TotalUnits)
	assert.Equal(t, eligibility.StatusPartialBlock, student.Status)
	assert.True(t, student.Elite555)
	assert.NotContains(t, cacheRepo.entries, "dash:mapping")
}

func TestStudentServiceCreateKeepsMissingUnitsNil(t *testing.T) {
	repo := newMockStudentRepo()
	svc, _ := newStudentServiceForTest(repo)

	req := validRequest()
	req.MathUnits = nil
	req.EnglishUnits = nil
	req.StudentID = ""

	student, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, student.MathUnits)
	assert.Nil(t, student.EnglishUnits)
	assert.Nil(t, student.StudentID)
	assert.Equal(t, eligibility.StatusInProgress, student.Status)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	cases := map[string]func(*StudentRequest){
		"blank name":      func(r *StudentRequest) { r.Name = "   " },
		"unknown grade":   func(r *StudentRequest) { r.Grade = "יג" },
		"blank class":     func(r *StudentRequest) { r.ClassNum = "" },
		"bad math units":  func(r *StudentRequest) { r.MathUnits = intPtr(2) },
		"bad spec1":       func(r *StudentRequest) { r.Specialization1 = "ביולוגיה" },
		"bad spec2":       func(r *StudentRequest) { r.Specialization2 = "היסטוריה" },
		"negative social": func(r *StudentRequest) { r.SocialUnits = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newMockStudentRepo()
			svc, _ := newStudentServiceForTest(repo)
			req := validRequest()
			mutate(&req)

			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			appErr, ok := err.(*appErrors.Error)
			require.True(t, ok)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			assert.Empty(t, repo.created)
		})
	}
}

func TestStudentServiceUpdateRecomputesEverything(t *testing.T) {
	repo := newMockStudentRepo()
	created := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	repo.students[studentID] = models.Student{
		ID:        studentID,
		CreatedAt: created,
		ComputedStudentRecord: eligibility.Compute(eligibility.RawEnrollmentRecord{
			Name: "x", Grade: eligibility.Grade12, ClassNum: "1",
			MathUnits: eligibility.Units(eligibility.Units5), EnglishUnits: eligibility.Units(eligibility.Units5),
			Specialization1: eligibility.Spec1Data,
		}),
	}
	svc, _ := newStudentServiceForTest(repo)

	req := validRequest()
	req.Specialization1 = ""
	req.Specialization2 = ""
	req.MathUnits = intPtr(3)

	student, err := svc.Update(context.Background(), studentID, req)
	require.NoError(t, err)
	assert.Equal(t, studentID, student.ID)
	assert.Equal(t, created, student.CreatedAt)
	assert.Zero(t, student.DataUnits)
	assert.False(t, student.EliteTech)
	assert.False(t, student.TechEligible)
	assert.Equal(t, 8, student.TotalUnits)
	require.Len(t, repo.replaced, 1)
}

func TestStudentServiceUpdateNotFound(t *testing.T) {
	svc, _ := newStudentServiceForTest(newMockStudentRepo())

	_, err := svc.Update(context.Background(), "missing", validRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, err.(*appErrors.Error).Code)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students[studentID] = models.Student{ID: studentID}
	svc, _ := newStudentServiceForTest(repo)

	require.NoError(t, svc.Delete(context.Background(), studentID))
	assert.Equal(t, []string{studentID}, repo.deleted)

	err := svc.Delete(context.Background(), studentID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, err.(*appErrors.Error).Code)
}

func TestStudentServiceRejectsMalformedIDs(t *testing.T) {
	repo := newMockStudentRepo()
	svc, _ := newStudentServiceForTest(repo)

	for _, id := range []string{"abc", "", "1; DROP TABLE students", "6f1c2a4e-8b1d-4c3e-9a7f"} {
		_, err := svc.Get(context.Background(), id)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, err.(*appErrors.Error).Code)

		_, err = svc.Update(context.Background(), id, validRequest())
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, err.(*appErrors.Error).Code)

		err = svc.Delete(context.Background(), id)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, err.(*appErrors.Error).Code)
	}
	assert.Zero(t, repo.lookups)
}

func TestStudentServiceListPagination(t *testing.T) {
	repo := newMockStudentRepo()
	repo.listTotal = 42
	svc, _ := newStudentServiceForTest(repo)

	_, pagination, err := svc.List(context.Background(), models.StudentFilter{Grade: "יא", Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 42, pagination.TotalCount)
	assert.Equal(t, "יא", repo.lastFilter.Grade)
}

func TestStudentServiceListError(t *testing.T) {
	repo := newMockStudentRepo()
	repo.err = errors.New("db down")
	svc, _ := newStudentServiceForTest(repo)

	_, _, err := svc.List(context.Background(), models.StudentFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, err.(*appErrors.Error).Code)
}
