package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bagrut-dashboard-api/internal/dto"
	"github.com/noah-isme/bagrut-dashboard-api/internal/eligibility"
	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/bagrut-dashboard-api/pkg/errors"
)

const (
	mappingCacheKey = "dash:mapping"
	unitLabelSuffix = `יח"ל`
)

// mappingGrades follows the mapping report, oldest cohort first.
var mappingGrades = []eligibility.Grade{eligibility.Grade12, eligibility.Grade11, eligibility.Grade10, eligibility.Grade9}

type studentLister interface {
	ListAll(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService aggregates stored students into dashboard and mapping payloads.
type DashboardService struct {
	students studentLister
	cache    *CacheService
	logger   *zap.Logger
	cfg      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(students studentLister, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{students: students, cache: cache, logger: logger, cfg: cfg}
}

// Summary returns headline stats, chart distributions and the status breakdown. The bool
// reports whether the payload came from cache.
func (s *DashboardService) Summary(ctx context.Context, query dto.DashboardQuery) (*dto.DashboardSummary, bool, error) {
	grades := []string{query.MathGrade, query.EnglishGrade, query.Specialization1Grade, query.Specialization2Grade}
	for i, g := range grades {
		g = strings.TrimSpace(g)
		if g != "" {
			if _, ok := eligibility.ParseGrade(g); !ok {
				return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown grade %q", g))
			}
		}
		grades[i] = g
	}
	query = dto.DashboardQuery{MathGrade: grades[0], EnglishGrade: grades[1], Specialization1Grade: grades[2], Specialization2Grade: grades[3]}

	key := summaryCacheKey(query)
	var cached dto.DashboardSummary
	if s.fromCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	students, err := s.students.ListAll(ctx, models.StudentFilter{})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	summary := BuildSummary(students, query)
	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// Mapping returns per-grade counts and the school-wide eligibility rate.
func (s *DashboardService) Mapping(ctx context.Context) (*dto.GradeMapping, bool, error) {
	var cached dto.GradeMapping
	if s.fromCache(ctx, mappingCacheKey, &cached) {
		return &cached, true, nil
	}

	students, err := s.students.ListAll(ctx, models.StudentFilter{})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	mapping := BuildMapping(students)
	s.persistCache(ctx, mappingCacheKey, mapping)
	return mapping, false, nil
}

// fromCache degrades to a miss when Redis misbehaves.
func (s *DashboardService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func summaryCacheKey(q dto.DashboardQuery) string {
	part := func(g string) string {
		if g == "" {
			return "all"
		}
		return g
	}
	return fmt.Sprintf("dash:summary:%s:%s:%s:%s", part(q.MathGrade), part(q.EnglishGrade), part(q.Specialization1Grade), part(q.Specialization2Grade))
}

// BuildSummary aggregates students into a dashboard summary.
func BuildSummary(students []models.Student, query dto.DashboardQuery) *dto.DashboardSummary {
	summary := &dto.DashboardSummary{}
	summary.Stats.Total = len(students)

	statusCounts := make(map[eligibility.Status]int, len(eligibility.Statuses))
	for _, st := range students {
		statusCounts[st.Status]++
		if st.Grade != eligibility.Grade12 {
			continue
		}
		if st.Status == eligibility.StatusEligible {
			summary.Stats.Grade12Eligible++
		}
		if isFive(st.MathUnits) {
			summary.Stats.Grade12Math5++
		}
		if isFive(st.EnglishUnits) {
			summary.Stats.Grade12English5++
		}
		if st.EliteTech {
			summary.Stats.Grade12EliteTech++
		}
	}

	summary.Distributions = dto.DashboardDistributions{
		MathUnits:       distribution(students, query.MathGrade, func(s models.Student) string { return unitLabel(s.MathUnits) }),
		EnglishUnits:    distribution(students, query.EnglishGrade, func(s models.Student) string { return unitLabel(s.EnglishUnits) }),
		Specialization1: distribution(students, query.Specialization1Grade, func(s models.Student) string { return string(s.Specialization1) }),
		Specialization2: distribution(students, query.Specialization2Grade, func(s models.Student) string { return string(s.Specialization2) }),
	}

	summary.StatusBreakdown = make([]dto.StatusCount, 0, len(eligibility.Statuses))
	for _, status := range eligibility.Statuses {
		summary.StatusBreakdown = append(summary.StatusBreakdown, dto.StatusCount{Status: string(status), Count: statusCounts[status]})
	}
	return summary
}

// BuildMapping aggregates students into the per-grade mapping report.
func BuildMapping(students []models.Student) *dto.GradeMapping {
	rows := make(map[eligibility.Grade]*dto.GradeMappingRow, len(mappingGrades))
	for _, g := range mappingGrades {
		rows[g] = &dto.GradeMappingRow{Grade: string(g)}
	}

	mapping := &dto.GradeMapping{Total: len(students)}
	for _, st := range students {
		math5 := isFive(st.MathUnits)
		eligible := st.Status == eligibility.StatusEligible
		if math5 {
			mapping.Math5++
		}
		if eligible {
			mapping.Eligible++
		}
		row, ok := rows[st.Grade]
		if !ok {
			continue
		}
		row.Total++
		if math5 {
			row.Math5++
		}
		if isFive(st.EnglishUnits) {
			row.English5++
		}
		if eligible {
			row.Eligible++
		}
	}

	mapping.Grades = make([]dto.GradeMappingRow, 0, len(mappingGrades))
	for _, g := range mappingGrades {
		row := rows[g]
		row.Math5Rate = percentage(row.Math5, row.Total, 1)
		mapping.Grades = append(mapping.Grades, *row)
	}
	mapping.EligibilityRate = percentage(mapping.Eligible, mapping.Total, 0)
	return mapping
}

// distribution counts non-empty labels among students of grade (all grades when empty),
// sorted by label.
func distribution(students []models.Student, grade string, label func(models.Student) string) []dto.DistributionBucket {
	counts := map[string]int{}
	for _, st := range students {
		if grade != "" && string(st.Grade) != grade {
			continue
		}
		if l := label(st); l != "" {
			counts[l]++
		}
	}
	buckets := make([]dto.DistributionBucket, 0, len(counts))
	for l, c := range counts {
		buckets = append(buckets, dto.DistributionBucket{Label: l, Count: c})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Label < buckets[j].Label })
	return buckets
}

func unitLabel(u *eligibility.UnitLoad) string {
	if u == nil {
		return ""
	}
	return fmt.Sprintf("%d %s", int(*u), unitLabelSuffix)
}

func isFive(u *eligibility.UnitLoad) bool {
	return u != nil && *u == eligibility.Units5
}

func percentage(part, total, decimals int) float64 {
	if total == 0 {
		return 0
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(float64(part)/float64(total)*100*scale) / scale
}
