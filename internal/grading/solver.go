package grading

import (
	"fmt"
	"math"
)

// Solver computes the final-component score needed to reach a target grade.
type Solver struct {
	history HistoricalTable
}

// NewSolver returns a Solver that consults the given historical table. The table is
// copied so later changes by the caller are not observed.
func NewSolver(history HistoricalTable) *Solver {
	return &Solver{history: history.Clone()}
}

var defaultSolver = NewSolver(DefaultHistory())

// SolveRequiredFinalMarks solves p against the built-in historical table.
func SolveRequiredFinalMarks(p SubjectProgress) AchievabilityResult {
	return defaultSolver.Solve(p)
}

// History returns a copy of the solver's historical table.
func (s *Solver) History() HistoricalTable {
	return s.history.Clone()
}

// Solve runs the achievability check, then the historical lookup, then the closed-form
// formula. RequiredMarks always lies in [0, p.FinalMax].
func (s *Solver) Solve(p SubjectProgress) AchievabilityResult {
	check := CheckAchievability(p)
	if !check.Achievable {
		return AchievabilityResult{
			RequiredMarks: p.FinalMax,
			Achievable:    false,
			Explanation:   check.Explanation,
			Basis:         check.Basis,
		}
	}

	if result, ok := s.fromHistory(p); ok {
		return result
	}

	return solveFormula(p, check.RequiredPercentage)
}

func (s *Solver) fromHistory(p SubjectProgress) (AchievabilityResult, bool) {
	if len(p.Components) != 2 || s.history.FinalMax <= 0 {
		return AchievabilityResult{}, false
	}
	id := p.SubjectID
	if !id.Valid() {
		resolved, ok := ResolveSubjectID(p.SubjectName)
		if !ok {
			return AchievabilityResult{}, false
		}
		id = resolved
	}

	matches := s.history.Match(id, p.Components[0].Percentage(), p.Components[1].Percentage(), p.TargetGrade)
	if len(matches) == 0 {
		return AchievabilityResult{}, false
	}

	sum := 0.0
	for _, m := range matches {
		sum += m.Final
	}
	average := sum / float64(len(matches))
	scaled := average / s.history.FinalMax * p.FinalMax

	return AchievabilityResult{
		RequiredMarks: math.Min(scaled, p.FinalMax),
		Achievable:    true,
		Explanation:   fmt.Sprintf("Based on %d similar past student record(s) who reached %s.", len(matches), p.TargetGrade),
		Basis:         BasisHistorical,
	}, true
}

func solveFormula(p SubjectProgress, requiredPct float64) AchievabilityResult {
	earned := p.CurrentEarned()
	totalNeeded := requiredPct / 100 * (p.CurrentMax() + p.FinalMax)
	required := math.Max(0, totalNeeded-earned)
	achievable := required <= p.FinalMax
	required = math.Min(required, p.FinalMax)

	return AchievabilityResult{
		RequiredMarks: required,
		Achievable:    achievable,
		Explanation: fmt.Sprintf(
			"%.0f%% of %.0f total marks is %.1f; with %.1f earned so far the final component needs %.1f of %.0f.",
			requiredPct, p.CurrentMax()+p.FinalMax, totalNeeded, earned, required, p.FinalMax,
		),
		Basis: BasisFormula,
	}
}
