package dto

// DashboardQuery carries the per-chart grade filters. Empty means every grade.
type DashboardQuery struct {
	MathGrade            string `form:"math_grade"`
	EnglishGrade         string `form:"english_grade"`
	Specialization1Grade string `form:"spec1_grade"`
	Specialization2Grade string `form:"spec2_grade"`
}

// DashboardSummary is the payload of the main dashboard tab.
type DashboardSummary struct {
	Stats           DashboardStats         `json:"stats"`
	Distributions   DashboardDistributions `json:"distributions"`
	StatusBreakdown []StatusCount          `json:"status_breakdown"`
}

// DashboardStats holds the headline counters. The grade 12 counters only consider
// students in the graduating year.
type DashboardStats struct {
	Total            int `json:"total"`
	Grade12Eligible  int `json:"grade12_eligible"`
	Grade12Math5     int `json:"grade12_math5"`
	Grade12English5  int `json:"grade12_english5"`
	Grade12EliteTech int `json:"grade12_elite_tech"`
}

// DashboardDistributions groups the four chart series.
type DashboardDistributions struct {
	MathUnits       []DistributionBucket `json:"math_units"`
	EnglishUnits    []DistributionBucket `json:"english_units"`
	Specialization1 []DistributionBucket `json:"specialization1"`
	Specialization2 []DistributionBucket `json:"specialization2"`
}

// DistributionBucket is one slice of a chart.
type DistributionBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// StatusCount counts students per eligibility status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// GradeMapping is the pedagogical mapping report across grades.
type GradeMapping struct {
	Grades          []GradeMappingRow `json:"grades"`
	Total           int               `json:"total"`
	Math5           int               `json:"math5"`
	Eligible        int               `json:"eligible"`
	EligibilityRate float64           `json:"eligibility_rate"`
}

// GradeMappingRow summarises one grade.
type GradeMappingRow struct {
	Grade     string  `json:"grade"`
	Total     int     `json:"total"`
	Eligible  int     `json:"eligible"`
	Math5     int     `json:"math5"`
	English5  int     `json:"english5"`
	Math5Rate float64 `json:"math5_rate"`
}
