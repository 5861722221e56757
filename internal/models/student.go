package models

import "time"

// Student is a registered user of the grade planner.
type Student struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	RollNumber     string     `db:"roll_number" json:"roll_number"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Semester       int        `db:"semester" json:"semester"`
	CurrentAverage float64    `db:"current_average" json:"current_average"`
	LastLogin      *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Info returns the public projection of the student.
func (s *Student) Info() StudentInfo {
	return StudentInfo{
		ID:             s.ID,
		Name:           s.Name,
		RollNumber:     s.RollNumber,
		Email:          s.Email,
		Semester:       s.Semester,
		CurrentAverage: s.CurrentAverage,
	}
}
