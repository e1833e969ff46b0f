package models

import (
	"time"

	"github.com/noah-isme/bagrut-dashboard-api/internal/eligibility"
)

// Student is a computed eligibility record plus the storage envelope.
type Student struct {
	ID string `db:"id" json:"id"`
	eligibility.ComputedStudentRecord
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Grade           string
	Search          string
	MathUnits       *int
	EnglishUnits    *int
	Specialization1 string
	Specialization2 string
	Status          string
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
