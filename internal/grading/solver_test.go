package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progress(name string, midterm, internal, finalMax float64, target LetterGrade) SubjectProgress {
	return SubjectProgress{
		SubjectName:  name,
		CreditWeight: 3,
		Components: []ComponentScore{
			{Name: "midterm", Earned: midterm, Max: 30},
			{Name: "internal", Earned: internal, Max: 30},
		},
		FinalMax:    finalMax,
		TargetGrade: target,
	}
}

func TestCheckAchievabilityAtCeilingBoundary(t *testing.T) {
	check := CheckAchievability(progress("X", 20, 20, 40, GradeA))

	assert.True(t, check.Achievable)
	assert.Equal(t, 80.0, check.MaxPossiblePercentage)
	assert.InDelta(t, 66.67, check.CurrentPercentage, 0.01)
	assert.Equal(t, 80.0, check.RequiredPercentage)
}

func TestCheckAchievabilityCeiling(t *testing.T) {
	p := progress("X", 20, 20, 40, GradeAPlus)
	check := CheckAchievability(p)

	require.False(t, check.Achievable)
	assert.Equal(t, BasisCeiling, check.Basis)
	assert.Less(t, (p.CurrentEarned()+p.FinalMax)/(p.CurrentMax()+p.FinalMax)*100, MinPercentageForGrade(GradeAPlus))
	assert.Contains(t, check.Explanation, "80.0%")
	assert.Contains(t, check.Explanation, "10.0 points short")
}

func TestCheckAchievabilityEarlyWarning(t *testing.T) {
	// current 10/60 = 16.7%, ceiling (10+100)/160 = 68.75% >= 60, but 16.7 < 60-30.
	p := SubjectProgress{
		SubjectName: "X",
		Components: []ComponentScore{
			{Name: "midterm", Earned: 5, Max: 30},
			{Name: "internal", Earned: 5, Max: 30},
		},
		FinalMax:    100,
		TargetGrade: GradeB,
	}
	check := CheckAchievability(p)

	assert.False(t, check.Achievable)
	assert.Equal(t, BasisEarlyWarning, check.Basis)
	assert.Contains(t, check.Explanation, "far below")
}

func TestSolveFormulaFallback(t *testing.T) {
	result := SolveRequiredFinalMarks(progress("X", 20, 20, 40, GradeA))

	assert.True(t, result.Achievable)
	assert.Equal(t, BasisFormula, result.Basis)
	assert.InDelta(t, 40.0, result.RequiredMarks, 1e-9)
}

func TestSolveNotAchievableReturnsFinalMax(t *testing.T) {
	result := SolveRequiredFinalMarks(progress("X", 20, 20, 40, GradeAPlus))

	assert.False(t, result.Achievable)
	assert.Equal(t, 40.0, result.RequiredMarks)
	assert.Equal(t, BasisCeiling, result.Basis)
}

func TestSolveUsesHistoricalMatch(t *testing.T) {
	// Record 2: CN midterm 24/30 (80%), internal 26/30 (86.7%), final 24/40, grade A.
	result := SolveRequiredFinalMarks(progress("Computer Networks", 23, 25, 40, GradeA))

	assert.True(t, result.Achievable)
	assert.Equal(t, BasisHistorical, result.Basis)
	assert.InDelta(t, 24.0, result.RequiredMarks, 1e-9)

	scaled := SolveRequiredFinalMarks(progress("computer networks", 23, 25, 80, GradeA))
	assert.Equal(t, BasisHistorical, scaled.Basis)
	assert.InDelta(t, 48.0, scaled.RequiredMarks, 1e-9)
}

func TestSolveHistoricalRequiresExactGrade(t *testing.T) {
	result := SolveRequiredFinalMarks(progress("Computer Networks", 23, 25, 40, GradeBPlus))
	assert.Equal(t, BasisFormula, result.Basis)
}

func TestSolveHistoricalOutsideTolerance(t *testing.T) {
	// 22/30 is 73.3%, 6.7 points from the record's 80%.
	result := SolveRequiredFinalMarks(progress("Computer Networks", 22, 26, 40, GradeA))
	assert.Equal(t, BasisFormula, result.Basis)
}

func TestSolveExplicitSubjectIDWinsOverName(t *testing.T) {
	p := progress("Networks II", 23, 25, 40, GradeA)
	p.SubjectID = SubjectCN
	assert.Equal(t, BasisHistorical, SolveRequiredFinalMarks(p).Basis)
}

func TestSolveAveragesAllMatches(t *testing.T) {
	table := HistoricalTable{
		MidtermMax: 30, InternalMax: 30, FinalMax: 40,
		Records: []HistoricalRecord{
			{ID: 1, Subjects: map[SubjectID]HistoricalSubject{SubjectSE: {Midterm: 21, Internal: 21, Final: 30, Grade: GradeB}}},
			{ID: 2, Subjects: map[SubjectID]HistoricalSubject{SubjectSE: {Midterm: 20, Internal: 22, Final: 20, Grade: GradeB}}},
			{ID: 3, Subjects: map[SubjectID]HistoricalSubject{SubjectSE: {Midterm: 21, Internal: 21, Final: 38, Grade: GradeA}}},
		},
	}
	solver := NewSolver(table)
	table.Records[0].Subjects[SubjectSE] = HistoricalSubject{}

	result := solver.Solve(progress("Software Engineering", 21, 21, 40, GradeB))
	assert.Equal(t, BasisHistorical, result.Basis)
	assert.InDelta(t, 25.0, result.RequiredMarks, 1e-9)
}

func TestSolveSkipsHistoryWithExtraComponents(t *testing.T) {
	p := progress("Computer Networks", 23, 25, 40, GradeA)
	p.Components = append(p.Components, ComponentScore{Name: "lab", Earned: 10, Max: 10})
	assert.Equal(t, BasisFormula, SolveRequiredFinalMarks(p).Basis)
}

func TestSolveNeverLeavesFinalRange(t *testing.T) {
	for _, grade := range Grades() {
		for midterm := 0.0; midterm <= 30; midterm += 5 {
			for internal := 0.0; internal <= 30; internal += 5 {
				for _, finalMax := range []float64{10, 40, 70} {
					r := SolveRequiredFinalMarks(progress("Cloud Computing", midterm, internal, finalMax, grade))
					require.GreaterOrEqual(t, r.RequiredMarks, 0.0)
					require.LessOrEqual(t, r.RequiredMarks, finalMax)
				}
			}
		}
	}
}

func TestSolveZeroWhenAlreadySecured(t *testing.T) {
	result := SolveRequiredFinalMarks(progress("X", 30, 30, 40, GradeD))
	assert.True(t, result.Achievable)
	assert.Equal(t, 0.0, result.RequiredMarks)
}
