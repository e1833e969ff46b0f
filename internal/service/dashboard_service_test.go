package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/bagrut-dashboard-api/internal/dto"
	"github.com/noah-isme/bagrut-dashboard-api/internal/eligibility"
	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
)

func computed(grade eligibility.Grade, math, english *eligibility.UnitLoad, s1 eligibility.Specialization1, s2 eligibility.Specialization2, social int) models.Student {
	return models.Student{ComputedStudentRecord: eligibility.Compute(eligibility.RawEnrollmentRecord{
		Name:            "s",
		Grade:           grade,
		ClassNum:        "1",
		MathUnits:       math,
		EnglishUnits:    english,
		Specialization1: s1,
		Specialization2: s2,
		SocialUnits:     social,
	})}
}

func dashboardFixture() []models.Student {
	u := eligibility.Units
	return []models.Student{
		computed(eligibility.Grade12, u(eligibility.Units5), u(eligibility.Units5), eligibility.Spec1ComputerScience, eligibility.Spec2Physics, 2),
		computed(eligibility.Grade12, u(eligibility.Units4), u(eligibility.Units5), eligibility.Spec1Data, eligibility.Spec2None, 0),
		computed(eligibility.Grade11, u(eligibility.Units5), u(eligibility.Units4), eligibility.Spec1None, eligibility.Spec2Chemistry, 0),
		computed(eligibility.Grade9, nil, nil, eligibility.Spec1None, eligibility.Spec2None, 0),
	}
}

func seededRepo(students []models.Student) *mockStudentRepo {
	repo := newMockStudentRepo()
	for i, st := range students {
		st.ID = fmt.Sprintf("s%d", i)
		repo.students[st.ID] = st
	}
	return repo
}

func TestBuildSummary(t *testing.T) {
	summary := BuildSummary(dashboardFixture(), dto.DashboardQuery{MathGrade: "יב"})

	assert.Equal(t, dto.DashboardStats{Total: 4, Grade12Eligible: 1, Grade12Math5: 1, Grade12English5: 2, Grade12EliteTech: 1}, summary.Stats)
	assert.Equal(t, []dto.DistributionBucket{{Label: `4 יח"ל`, Count: 1}, {Label: `5 יח"ל`, Count: 1}}, summary.Distributions.MathUnits)
	assert.Equal(t, []dto.DistributionBucket{{Label: `4 יח"ל`, Count: 1}, {Label: `5 יח"ל`, Count: 2}}, summary.Distributions.EnglishUnits)
	assert.Len(t, summary.Distributions.Specialization1, 2)
	assert.Equal(t, []dto.DistributionBucket{{Label: "כימיה", Count: 1}, {Label: "פיזיקה", Count: 1}}, summary.Distributions.Specialization2)

	require.Len(t, summary.StatusBreakdown, 3)
	assert.Equal(t, dto.StatusCount{Status: string(eligibility.StatusEligible), Count: 1}, summary.StatusBreakdown[0])
	assert.Equal(t, dto.StatusCount{Status: string(eligibility.StatusInProgress), Count: 3}, summary.StatusBreakdown[2])
}

func TestBuildMapping(t *testing.T) {
	mapping := BuildMapping(dashboardFixture())

	require.Len(t, mapping.Grades, 4)
	assert.Equal(t, "יב", mapping.Grades[0].Grade)
	assert.Equal(t, "ט", mapping.Grades[3].Grade)
	assert.Equal(t, dto.GradeMappingRow{Grade: "יב", Total: 2, Eligible: 1, Math5: 1, English5: 2, Math5Rate: 50}, mapping.Grades[0])
	assert.Equal(t, 0.0, mapping.Grades[2].Math5Rate)
	assert.Equal(t, 4, mapping.Total)
	assert.Equal(t, 2, mapping.Math5)
	assert.Equal(t, 1, mapping.Eligible)
	assert.Equal(t, 25.0, mapping.EligibilityRate)
}

func TestBuildMappingEmpty(t *testing.T) {
	mapping := BuildMapping(nil)
	assert.Zero(t, mapping.EligibilityRate)
	assert.Len(t, mapping.Grades, 4)
}

func TestPercentageRounding(t *testing.T) {
	assert.Equal(t, 33.3, percentage(1, 3, 1))
	assert.Equal(t, 67.0, percentage(2, 3, 0))
}

func TestDashboardServiceSummaryUsesCache(t *testing.T) {
	repo := seededRepo(dashboardFixture())
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewDashboardService(repo, cache, zap.NewNop(), DashboardServiceConfig{})

	first, hit, err := svc.Summary(context.Background(), dto.DashboardQuery{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Contains(t, cacheRepo.entries, "dash:summary:all:all:all:all")

	second, hit, err := svc.Summary(context.Background(), dto.DashboardQuery{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Stats, second.Stats)
}

func TestDashboardServiceCacheFailureFallsBack(t *testing.T) {
	repo := seededRepo(dashboardFixture())
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.getErr = errors.New("redis down")
	svc := NewDashboardService(repo, NewCacheService(cacheRepo, nil, time.Minute, nil, true), nil, DashboardServiceConfig{})

	mapping, hit, err := svc.Mapping(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, mapping.Total)
}

func TestDashboardServiceRejectsUnknownGrade(t *testing.T) {
	svc := NewDashboardService(newMockStudentRepo(), nil, nil, DashboardServiceConfig{})

	_, _, err := svc.Summary(context.Background(), dto.DashboardQuery{EnglishGrade: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, err.(*appErrors.Error).Code)
}

func TestDashboardServiceRepositoryError(t *testing.T) {
	repo := newMockStudentRepo()
	repo.err = errors.New("db down")
	svc := NewDashboardService(repo, nil, nil, DashboardServiceConfig{})

	_, _, err := svc.Mapping(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, err.(*appErrors.Error).Code)
}
