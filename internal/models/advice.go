package models

import "github.com/noah-isme/gradepro-api/internal/grading"

// Difficulty grades how demanding a target is.
type Difficulty string

const (
	DifficultyHigh   Difficulty = "high"
	DifficultyMedium Difficulty = "medium"
	DifficultyLow    Difficulty = "low"
)

// StudyAdvice is generated guidance for reaching a target grade in one subject.
type StudyAdvice struct {
	Subject             string              `json:"subject"`
	TargetGrade         grading.LetterGrade `json:"target_grade"`
	Advice              string              `json:"advice"`
	FocusAreas          []string            `json:"focus_areas"`
	StudyStrategies     []string            `json:"study_strategies"`
	DifficultyLevel     Difficulty          `json:"difficulty_level"`
	EstimatedStudyHours int                 `json:"estimated_study_hours"`
}
