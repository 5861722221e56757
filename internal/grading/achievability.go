package grading

import "fmt"

// EarlyWarningSlack is how far, in percentage points, current performance may trail
// the target before the target is flagged. It is a heuristic, not a mathematical bound:
// a flagged target can still be reachable with a near-perfect final.
const EarlyWarningSlack = 30.0

// Basis explains which rule produced an AchievabilityResult.
type Basis string

const (
	BasisCeiling      Basis = "ceiling"
	BasisEarlyWarning Basis = "early-warning"
	BasisHistorical   Basis = "historical-basis"
	BasisFormula      Basis = "formula"
)

// ComponentScore is the earned and maximum score of a graded assessment part.
type ComponentScore struct {
	Name   string  `json:"name"`
	Earned float64 `json:"earned"`
	Max    float64 `json:"max"`
}

// Percentage returns Earned as a percentage of Max.
func (c ComponentScore) Percentage() float64 {
	return c.Earned / c.Max * 100
}

// AchievabilityResult is the solver outcome for one subject.
type AchievabilityResult struct {
	RequiredMarks float64 `json:"required_marks"`
	Achievable    bool    `json:"achievable"`
	Explanation   string  `json:"explanation"`
	Basis         Basis   `json:"basis"`
}

// SubjectProgress tracks the partial components of a subject and the target grade for
// the remaining final component. Components holds at least two partial assessments in
// a fixed order (midterm first, then internal).
type SubjectProgress struct {
	SubjectName  string               `json:"subject_name"`
	SubjectID    SubjectID            `json:"subject_id,omitempty"`
	CreditWeight int                  `json:"credit_weight"`
	Components   []ComponentScore     `json:"components"`
	FinalMax     float64              `json:"final_max"`
	TargetGrade  LetterGrade          `json:"target_grade"`
	Result       *AchievabilityResult `json:"result,omitempty"`
}

// CurrentEarned sums the earned marks of the partial components.
func (p SubjectProgress) CurrentEarned() float64 {
	total := 0.0
	for _, c := range p.Components {
		total += c.Earned
	}
	return total
}

// CurrentMax sums the maximum marks of the partial components.
func (p SubjectProgress) CurrentMax() float64 {
	total := 0.0
	for _, c := range p.Components {
		total += c.Max
	}
	return total
}

// Check is the outcome of CheckAchievability.
type Check struct {
	Achievable            bool    `json:"achievable"`
	Explanation           string  `json:"explanation"`
	Basis                 Basis   `json:"basis,omitempty"`
	CurrentPercentage     float64 `json:"current_percentage"`
	RequiredPercentage    float64 `json:"required_percentage"`
	MaxPossiblePercentage float64 `json:"max_possible_percentage"`
}

// CheckAchievability decides whether TargetGrade can still be reached. The caller must
// ensure CurrentMax() is positive; a zero denominator yields non-finite percentages.
func CheckAchievability(p SubjectProgress) Check {
	earned := p.CurrentEarned()
	maxSoFar := p.CurrentMax()

	check := Check{
		CurrentPercentage:     earned / maxSoFar * 100,
		RequiredPercentage:    MinPercentageForGrade(p.TargetGrade),
		MaxPossiblePercentage: (earned + p.FinalMax) / (maxSoFar + p.FinalMax) * 100,
	}

	switch {
	case check.MaxPossiblePercentage < check.RequiredPercentage:
		check.Basis = BasisCeiling
		check.Explanation = fmt.Sprintf(
			"Even with full marks in the final component you can reach at most %.1f%%, which is %.1f points short of the %.0f%% needed for %s.",
			check.MaxPossiblePercentage,
			check.RequiredPercentage-check.MaxPossiblePercentage,
			check.RequiredPercentage,
			p.TargetGrade,
		)
	case check.CurrentPercentage < check.RequiredPercentage-EarlyWarningSlack:
		check.Basis = BasisEarlyWarning
		check.Explanation = fmt.Sprintf(
			"Your current score of %.1f%% is far below the %.0f%% needed for %s. Consider aiming for a more realistic grade.",
			check.CurrentPercentage,
			check.RequiredPercentage,
			p.TargetGrade,
		)
	default:
		check.Achievable = true
		check.Explanation = "This target is achievable with focused effort."
	}
	return check
}
