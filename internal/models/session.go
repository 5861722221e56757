package models

import (
	"time"

	"github.com/noah-isme/gradepro-api/internal/grading"
)

// SessionStudent is the student identity block stored in a planning session.
type SessionStudent struct {
	Name           string   `json:"name"`
	RollNumber     string   `json:"roll_number,omitempty"`
	Semester       int      `json:"semester"`
	CurrentAverage float64  `json:"current_average"`
	TargetAverage  *float64 `json:"target_average,omitempty"`
}

// PlanningSession is the whole client state persisted as one blob. It is replaced
// wholesale on every save.
type PlanningSession struct {
	Student   *SessionStudent           `json:"student"`
	Subjects  []grading.SubjectTarget   `json:"subjects"`
	Progress  []grading.SubjectProgress `json:"progress"`
	Advice    []StudyAdvice             `json:"advice"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// SessionRecord is a stored planning-session blob.
type SessionRecord struct {
	Key       string    `db:"session_key"`
	Payload   []byte    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}
