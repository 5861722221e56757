package dto

import (
	"math"
	"strings"

	"github.com/noah-isme/gradepro-api/internal/grading"
)

// SubjectInput is a subject name with its credit weight.
type SubjectInput struct {
	Name         string `json:"name" validate:"required,notblank,max=120"`
	CreditWeight int    `json:"credit_weight" validate:"required,min=1,max=6"`
}

// DistributeTargetsRequest asks for per-subject grade targets for a semester.
type DistributeTargetsRequest struct {
	CurrentAverage float64        `json:"current_average" validate:"min=0,max=10"`
	TargetAverage  float64        `json:"target_average" validate:"min=0,max=10"`
	Subjects       []SubjectInput `json:"subjects" validate:"required,min=1,dive"`
}

// CoreSubjects converts the request into core subjects.
func (r DistributeTargetsRequest) CoreSubjects() []grading.Subject {
	subjects := make([]grading.Subject, 0, len(r.Subjects))
	for _, s := range r.Subjects {
		subjects = append(subjects, grading.Subject{Name: strings.TrimSpace(s.Name), CreditWeight: s.CreditWeight})
	}
	return subjects
}

// DistributeTargetsResponse lists one target per requested subject in input order.
type DistributeTargetsResponse struct {
	CurrentAverage float64                 `json:"current_average"`
	TargetAverage  float64                 `json:"target_average"`
	TotalCredits   int                     `json:"total_credits"`
	Targets        []grading.SubjectTarget `json:"targets"`
}

// ComponentInput is one graded assessment part already taken.
type ComponentInput struct {
	Name   string  `json:"name" validate:"required,notblank,max=40"`
	Earned float64 `json:"earned" validate:"min=0"`
	Max    float64 `json:"max" validate:"gt=0"`
}

// ProgressRequest carries the partial scores of a subject and the target grade.
type ProgressRequest struct {
	SubjectName  string           `json:"subject_name" validate:"required,notblank,max=120"`
	SubjectID    string           `json:"subject_id,omitempty" validate:"omitempty,oneof=daa cn se cc"`
	CreditWeight int              `json:"credit_weight,omitempty" validate:"omitempty,min=1,max=6"`
	Components   []ComponentInput `json:"components" validate:"required,min=2,dive"`
	FinalMax     float64          `json:"final_max" validate:"gt=0"`
	TargetGrade  string           `json:"target_grade" validate:"required,letter_grade"`
}

// Progress converts the request into the core representation.
func (r ProgressRequest) Progress() grading.SubjectProgress {
	components := make([]grading.ComponentScore, 0, len(r.Components))
	for _, c := range r.Components {
		components = append(components, grading.ComponentScore{Name: c.Name, Earned: c.Earned, Max: c.Max})
	}
	return grading.SubjectProgress{
		SubjectName:  strings.TrimSpace(r.SubjectName),
		SubjectID:    grading.SubjectID(r.SubjectID),
		CreditWeight: r.CreditWeight,
		Components:   components,
		FinalMax:     r.FinalMax,
		TargetGrade:  grading.LetterGrade(r.TargetGrade),
	}
}

// AchievabilityResponse reports whether the target grade can still be reached.
type AchievabilityResponse struct {
	SubjectName string              `json:"subject_name"`
	TargetGrade grading.LetterGrade `json:"target_grade"`
	grading.Check
}

// RequiredMarksResponse reports the final-component score needed for the target grade.
type RequiredMarksResponse struct {
	SubjectName          string              `json:"subject_name"`
	TargetGrade          grading.LetterGrade `json:"target_grade"`
	FinalMax             float64             `json:"final_max"`
	RequiredMarksDisplay float64             `json:"required_marks_display"`
	grading.AchievabilityResult
}

// NewRequiredMarksResponse builds a response from a solver result. The display value is
// rounded to the nearest whole mark.
func NewRequiredMarksResponse(p grading.SubjectProgress, result grading.AchievabilityResult) RequiredMarksResponse {
	return RequiredMarksResponse{
		SubjectName:          p.SubjectName,
		TargetGrade:          p.TargetGrade,
		FinalMax:             p.FinalMax,
		RequiredMarksDisplay: math.Round(result.RequiredMarks),
		AchievabilityResult:  result,
	}
}

// BatchProgressRequest solves several subjects in one call.
type BatchProgressRequest struct {
	Subjects []ProgressRequest `json:"subjects" validate:"required,min=1,dive"`
}

// BatchRequiredMarksResponse holds one result per subject in request order.
type BatchRequiredMarksResponse struct {
	Results      []RequiredMarksResponse `json:"results"`
	Achievable   int                     `json:"achievable"`
	Unachievable int                     `json:"unachievable"`
}

// GradeLookupResponse is the letter grade for a percentage.
type GradeLookupResponse struct {
	Percentage float64             `json:"percentage"`
	Grade      grading.LetterGrade `json:"grade"`
	Points     float64             `json:"points"`
}

// AdviceRequest asks for study advice for one subject and target.
type AdviceRequest struct {
	SubjectName string `json:"subject_name" validate:"required,notblank,max=120"`
	TargetGrade string `json:"target_grade" validate:"required,letter_grade"`
}
