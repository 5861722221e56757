package grading

import "math"

const (
	// GPAScaleMax caps the adjusted per-subject target.
	GPAScaleMax = 10.0

	heavyCreditWeight = 4
	heavyCreditBonus  = 0.5
	weightShareFactor = 0.2
)

// Subject is a course taking part in a planning session.
type Subject struct {
	Name         string `json:"name"`
	CreditWeight int    `json:"credit_weight"`
}

// SubjectTarget is the suggested grade for one subject.
type SubjectTarget struct {
	SubjectName           string      `json:"subject_name"`
	CreditWeight          int         `json:"credit_weight"`
	RequiredGrade         LetterGrade `json:"required_grade"`
	RequiredMinPercentage float64     `json:"required_min_percentage"`
}

// DistributeTargets suggests one grade per subject so that heavier subjects carry
// stricter targets. currentAverage is accepted but does not affect the result.
// Callers must pass a non-empty subject list with positive credit weights and a
// target average on the 0-10 scale.
func DistributeTargets(currentAverage, targetAverage float64, subjects []Subject) []SubjectTarget {
	totalWeight := 0
	for _, subject := range subjects {
		totalWeight += subject.CreditWeight
	}

	targets := make([]SubjectTarget, 0, len(subjects))
	for _, subject := range subjects {
		grade := GradeForGPA(AdjustedTarget(targetAverage, subject.CreditWeight, totalWeight))
		targets = append(targets, SubjectTarget{
			SubjectName:           subject.Name,
			CreditWeight:          subject.CreditWeight,
			RequiredGrade:         grade,
			RequiredMinPercentage: MinPercentageForGrade(grade),
		})
	}
	return targets
}

// AdjustedTarget raises the target average in proportion to the subject's share of
// the total credit weight, adds a flat bonus for heavy subjects and caps at GPAScaleMax.
func AdjustedTarget(targetAverage float64, creditWeight, totalWeight int) float64 {
	share := float64(creditWeight) / float64(totalWeight)
	bonus := 0.0
	if creditWeight >= heavyCreditWeight {
		bonus = heavyCreditBonus
	}
	return math.Min(targetAverage*(1+share*weightShareFactor)+bonus, GPAScaleMax)
}

// GradeForGPA maps a 0-10 value to a letter grade using GPA breakpoints. These
// breakpoints are independent from the percentage scale used by GradeForPercentage.
func GradeForGPA(gpa float64) LetterGrade {
	switch {
	case gpa >= 9.5:
		return GradeAPlus
	case gpa >= 8.5:
		return GradeA
	case gpa >= 7.5:
		return GradeBPlus
	case gpa >= 6.5:
		return GradeB
	case gpa >= 5.5:
		return GradeCPlus
	case gpa >= 4.5:
		return GradeC
	case gpa >= 3.5:
		return GradeD
	default:
		return GradeF
	}
}
