package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTechAndPhysicsStudentIsEligible(t *testing.T) {
	out := Compute(RawEnrollmentRecord{
		Name:            "אחמד",
		Grade:           Grade12,
		ClassNum:        "1",
		MathUnits:       Units(Units5),
		EnglishUnits:    Units(Units5),
		Specialization1: Spec1ComputerScience,
		Specialization2: Spec2Physics,
		SocialUnits:     2,
	})

	assert.Equal(t, 5, out.CSUnits)
	assert.Equal(t, 0, out.DataUnits)
	assert.Equal(t, 5, out.PhysicsUnits)
	assert.Equal(t, 0, out.ChemistryUnits)
	assert.True(t, out.TechEligible)
	assert.True(t, out.EliteTech)
	assert.True(t, out.ScienceElite)
	assert.True(t, out.Elite555)
	assert.Equal(t, 22, out.TotalUnits)
	assert.Equal(t, StatusEligible, out.Status)
}

func TestComputeCoreOnlyStudentIsInProgress(t *testing.T) {
	out := Compute(RawEnrollmentRecord{
		Name:         "a",
		Grade:        Grade11,
		ClassNum:     "2",
		MathUnits:    Units(Units3),
		EnglishUnits: Units(Units4),
	})

	assert.Equal(t, 7, out.TotalUnits)
	assert.True(t, CoreOK(4, 3))
	assert.Equal(t, StatusInProgress, out.Status)
	assert.False(t, out.TechEligible)
	assert.False(t, out.ScienceElite)
}

func TestComputeDataAndChemistryIsPartialBlock(t *testing.T) {
	out := Compute(RawEnrollmentRecord{
		Name:            "b",
		Grade:           Grade12,
		ClassNum:        "3",
		MathUnits:       Units(Units5),
		EnglishUnits:    Units(Units4),
		Specialization1: Spec1Data,
		Specialization2: Spec2Chemistry,
		SocialUnits:     1,
	})

	assert.Equal(t, 5, out.DataUnits)
	assert.Equal(t, 5, out.ChemistryUnits)
	assert.Equal(t, 0, out.CSUnits)
	assert.Equal(t, 0, out.PhysicsUnits)
	assert.Equal(t, 20, out.TotalUnits)
	assert.Equal(t, StatusPartialBlock, out.Status)
	assert.False(t, out.TechEligible)
	assert.False(t, out.EliteTech)
	assert.True(t, out.ScienceElite)
	assert.False(t, out.Elite555)
}

func TestComputeMissingUnitsStayNil(t *testing.T) {
	out := Compute(RawEnrollmentRecord{Name: "c", Grade: Grade9, ClassNum: "4"})

	assert.Nil(t, out.MathUnits)
	assert.Nil(t, out.EnglishUnits)
	assert.Zero(t, out.CSUnits)
	assert.Zero(t, out.DataUnits)
	assert.Zero(t, out.PhysicsUnits)
	assert.Zero(t, out.ChemistryUnits)
	assert.Zero(t, out.TotalUnits)
	assert.False(t, CoreOK(0, 0))
	assert.Equal(t, StatusInProgress, out.Status)
}

func TestComputeStatusBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		english UnitLoad
		math    UnitLoad
		social  int
		want    Status
	}{
		{name: "total 18", english: Units4, math: Units4, social: 10, want: StatusInProgress},
		{name: "total 19", english: Units4, math: Units4, social: 11, want: StatusPartialBlock},
		{name: "total 20", english: Units4, math: Units4, social: 12, want: StatusPartialBlock},
		{name: "total 21", english: Units4, math: Units4, social: 13, want: StatusEligible},
		{name: "english below floor", english: Units3, math: Units5, social: 20, want: StatusInProgress},
		{name: "math at floor", english: Units4, math: Units3, social: 14, want: StatusEligible},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Compute(RawEnrollmentRecord{
				MathUnits:    Units(tc.math),
				EnglishUnits: Units(tc.english),
				SocialUnits:  tc.social,
			})
			assert.Equal(t, tc.want, out.Status)
		})
	}
}

func TestComputeElite555IgnoresDataAndChemistry(t *testing.T) {
	out := Compute(RawEnrollmentRecord{
		MathUnits:       Units(Units5),
		EnglishUnits:    Units(Units5),
		Specialization1: Spec1Data,
		Specialization2: Spec2Chemistry,
	})

	assert.True(t, out.EliteTech)
	assert.True(t, out.ScienceElite)
	assert.False(t, out.Elite555)
}

func TestComputeOutOfRangeUnitsCountAsZero(t *testing.T) {
	bogus := UnitLoad(7)
	out := Compute(RawEnrollmentRecord{MathUnits: &bogus, EnglishUnits: Units(Units5)})

	require.NotNil(t, out.MathUnits)
	assert.Equal(t, UnitLoad(7), *out.MathUnits)
	assert.Equal(t, 5, out.TotalUnits)
	assert.False(t, out.TechEligible)
}

func TestComputeDoesNotAliasInput(t *testing.T) {
	id := "ID1"
	raw := RawEnrollmentRecord{StudentID: &id, MathUnits: Units(Units4)}
	out := Compute(raw)

	*raw.MathUnits = Units5
	id = "changed"

	assert.Equal(t, Units4, *out.MathUnits)
	assert.Equal(t, "ID1", *out.StudentID)
}

func TestComputeInvariantsOverInputDomain(t *testing.T) {
	loads := []*UnitLoad{nil, Units(Units3), Units(Units4), Units(Units5)}
	spec1 := []Specialization1{Spec1None, Spec1ComputerScience, Spec1Data, "אחר"}
	spec2 := []Specialization2{Spec2None, Spec2Physics, Spec2Chemistry, "ביולוגיה"}

	for _, m := range loads {
		for _, e := range loads {
			for _, s1 := range spec1 {
				for _, s2 := range spec2 {
					for social := 0; social <= 12; social++ {
						raw := RawEnrollmentRecord{
							MathUnits:       m,
							EnglishUnits:    e,
							Specialization1: s1,
							Specialization2: s2,
							SocialUnits:     social,
						}
						out := Compute(raw)

						assert.False(t, out.CSUnits == 5 && out.DataUnits == 5)
						assert.False(t, out.PhysicsUnits == 5 && out.ChemistryUnits == 5)
						if out.EliteTech {
							assert.True(t, out.TechEligible)
						}
						want := unitsOrZero(e) + unitsOrZero(m) + out.CSUnits + out.DataUnits + out.PhysicsUnits + out.ChemistryUnits + social
						assert.Equal(t, want, out.TotalUnits)
						assert.True(t, out.Status.Valid())
						assert.Equal(t, out, Compute(raw))
					}
				}
			}
		}
	}
}

func TestParsers(t *testing.T) {
	g, ok := ParseGrade(" יא ")
	assert.True(t, ok)
	assert.Equal(t, Grade11, g)
	_, ok = ParseGrade("13")
	assert.False(t, ok)

	u, ok := ParseUnitLoad(4)
	require.True(t, ok)
	assert.Equal(t, Units4, *u)
	u, ok = ParseUnitLoad(2)
	assert.False(t, ok)
	assert.Nil(t, u)

	assert.Equal(t, Spec1ComputerScience, ParseSpecialization1(" מדעי המחשב "))
	assert.Equal(t, Spec1None, ParseSpecialization1("ביולוגיה"))
	assert.Equal(t, Spec2Chemistry, ParseSpecialization2("כימיה"))
	assert.Equal(t, Spec2None, ParseSpecialization2(""))
}
