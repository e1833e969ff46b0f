// Package eligibility derives matriculation eligibility from a student's unit loads.
//
// Compute is a pure function: it performs no I/O, keeps no state and never fails,
// so it may be called concurrently from any number of goroutines. Identifiers and
// timestamps belong to the storage layer and never pass through this package.
package eligibility

const (
	// SpecializationUnits is the unit weight granted by a selected specialization.
	SpecializationUnits = 5

	// EligibleThreshold is the minimum total for full eligibility.
	EligibleThreshold = 21
	// PartialBlockThreshold is the minimum total for a partial block.
	PartialBlockThreshold = 19

	minEnglishUnits = 4
	minMathUnits    = 3
)

// Compute derives every computed field from raw. Raw fields are copied unchanged,
// including nil unit loads; the result shares no pointers with raw.
func Compute(raw RawEnrollmentRecord) ComputedStudentRecord {
	cs, data := expandSpecialization1(raw.Specialization1)
	physics, chemistry := expandSpecialization2(raw.Specialization2)

	math := unitsOrZero(raw.MathUnits)
	english := unitsOrZero(raw.EnglishUnits)

	out := ComputedStudentRecord{
		RawEnrollmentRecord: cloneRaw(raw),
		CSUnits:             cs,
		DataUnits:           data,
		PhysicsUnits:        physics,
		ChemistryUnits:      chemistry,
	}

	out.TechEligible = english == 5 && math == 5
	out.EliteTech = out.TechEligible && (cs == 5 || data == 5)
	out.ScienceElite = math == 5 && (physics == 5 || chemistry == 5)
	// Only physics and computer science count here, unlike ScienceElite.
	out.Elite555 = math == 5 && english == 5 && (physics == 5 || cs == 5)

	out.TotalUnits = english + math + cs + data + physics + chemistry + raw.SocialUnits
	out.Status = classify(english, math, out.TotalUnits)
	return out
}

// CoreOK reports whether the English and math floors are met.
func CoreOK(english, math int) bool {
	return english >= minEnglishUnits && math >= minMathUnits
}

// classify checks the stricter threshold first; the first match wins.
func classify(english, math, total int) Status {
	coreOK := CoreOK(english, math)
	switch {
	case coreOK && total >= EligibleThreshold:
		return StatusEligible
	case coreOK && total >= PartialBlockThreshold:
		return StatusPartialBlock
	default:
		return StatusInProgress
	}
}

func expandSpecialization1(s Specialization1) (cs, data int) {
	switch s {
	case Spec1ComputerScience:
		return SpecializationUnits, 0
	case Spec1Data:
		return 0, SpecializationUnits
	default:
		return 0, 0
	}
}

func expandSpecialization2(s Specialization2) (physics, chemistry int) {
	switch s {
	case Spec2Physics:
		return SpecializationUnits, 0
	case Spec2Chemistry:
		return 0, SpecializationUnits
	default:
		return 0, 0
	}
}

// unitsOrZero fails closed: nil or out-of-range loads count as zero.
func unitsOrZero(u *UnitLoad) int {
	if u == nil {
		return 0
	}
	switch *u {
	case Units3, Units4, Units5:
		return int(*u)
	default:
		return 0
	}
}

func cloneRaw(raw RawEnrollmentRecord) RawEnrollmentRecord {
	out := raw
	if raw.StudentID != nil {
		id := *raw.StudentID
		out.StudentID = &id
	}
	if raw.MathUnits != nil {
		out.MathUnits = Units(*raw.MathUnits)
	}
	if raw.EnglishUnits != nil {
		out.EnglishUnits = Units(*raw.EnglishUnits)
	}
	return out
}
