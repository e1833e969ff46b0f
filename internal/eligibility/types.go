package eligibility

import "strings"

// Grade identifies the school year of a student.
type Grade string

// Supported grades, ordered from the youngest cohort.
const (
	Grade9  Grade = "ט"
	Grade10 Grade = "י"
	Grade11 Grade = "יא"
	Grade12 Grade = "יב"
)

// Grades lists every grade in display order.
var Grades = []Grade{Grade9, Grade10, Grade11, Grade12}

// ParseGrade trims the input and reports whether it names a known grade.
func ParseGrade(raw string) (Grade, bool) {
	g := Grade(strings.TrimSpace(raw))
	return g, g.Valid()
}

// Valid reports whether g is one of the supported grades.
func (g Grade) Valid() bool {
	return g.Rank() > 0
}

// Rank returns 1..4 for valid grades and 0 otherwise.
func (g Grade) Rank() int {
	switch g {
	case Grade9:
		return 1
	case Grade10:
		return 2
	case Grade11:
		return 3
	case Grade12:
		return 4
	default:
		return 0
	}
}

// UnitLoad is the credit weight of a subject. Absence is expressed as a nil *UnitLoad.
type UnitLoad int

// Allowed unit loads.
const (
	Units3 UnitLoad = 3
	Units4 UnitLoad = 4
	Units5 UnitLoad = 5
)

// ParseUnitLoad accepts only 3, 4 or 5.
func ParseUnitLoad(n int) (*UnitLoad, bool) {
	switch UnitLoad(n) {
	case Units3, Units4, Units5:
		u := UnitLoad(n)
		return &u, true
	default:
		return nil, false
	}
}

// Units returns a pointer to the given load. Used by callers building records by hand.
func Units(u UnitLoad) *UnitLoad {
	return &u
}

// Specialization1 is the technology track.
type Specialization1 string

// Technology tracks.
const (
	Spec1None            Specialization1 = ""
	Spec1ComputerScience Specialization1 = "מדעי המחשב"
	Spec1Data            Specialization1 = "מידע ונתונים"
)

// ParseSpecialization1 maps unknown values to Spec1None.
func ParseSpecialization1(raw string) Specialization1 {
	switch s := Specialization1(strings.TrimSpace(raw)); s {
	case Spec1ComputerScience, Spec1Data:
		return s
	default:
		return Spec1None
	}
}

// Specialization2 is the science track.
type Specialization2 string

// Science tracks.
const (
	Spec2None      Specialization2 = ""
	Spec2Physics   Specialization2 = "פיזיקה"
	Spec2Chemistry Specialization2 = "כימיה"
)

// ParseSpecialization2 maps unknown values to Spec2None.
func ParseSpecialization2(raw string) Specialization2 {
	switch s := Specialization2(strings.TrimSpace(raw)); s {
	case Spec2Physics, Spec2Chemistry:
		return s
	default:
		return Spec2None
	}
}

// Status is the eligibility classification of a student.
type Status string

// Statuses, from best to default.
const (
	StatusEligible     Status = "זכאי"
	StatusPartialBlock Status = "חסם 1-2"
	StatusInProgress   Status = "בתהליך"
)

// Statuses lists every status.
var Statuses = []Status{StatusEligible, StatusPartialBlock, StatusInProgress}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusEligible, StatusPartialBlock, StatusInProgress:
		return true
	default:
		return false
	}
}

// RawEnrollmentRecord holds the fields a registrar supplies for one student.
type RawEnrollmentRecord struct {
	StudentID       *string         `json:"student_id,omitempty" db:"student_id"`
	Name            string          `json:"name" db:"name"`
	Grade           Grade           `json:"grade" db:"grade"`
	ClassNum        string          `json:"class_num" db:"class_num"`
	MathUnits       *UnitLoad       `json:"math_units" db:"math_units"`
	EnglishUnits    *UnitLoad       `json:"english_units" db:"english_units"`
	Specialization1 Specialization1 `json:"specialization1" db:"specialization1"`
	Specialization2 Specialization2 `json:"specialization2" db:"specialization2"`
	SocialUnits     int             `json:"social_units" db:"social_units"`
}

// ComputedStudentRecord is a raw record plus every field derived from it.
type ComputedStudentRecord struct {
	RawEnrollmentRecord

	CSUnits        int `json:"cs_units" db:"cs_units"`
	DataUnits      int `json:"data_units" db:"data_units"`
	PhysicsUnits   int `json:"physics_units" db:"physics_units"`
	ChemistryUnits int `json:"chemistry_units" db:"chemistry_units"`

	TechEligible bool `json:"tech_eligible" db:"tech_eligible"`
	EliteTech    bool `json:"elite_tech" db:"elite_tech"`
	ScienceElite bool `json:"science_elite" db:"science_elite"`
	Elite555     bool `json:"elite_555" db:"elite_555"`

	TotalUnits int    `json:"total_units" db:"total_units"`
	Status     Status `json:"status" db:"status"`
}
