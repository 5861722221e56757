package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignupRequest registers a new student.
type SignupRequest struct {
	Name           string  `json:"name" validate:"required,max=120"`
	RollNumber     string  `json:"roll_number" validate:"required,max=40"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=6"`
	Semester       int     `json:"semester" validate:"required,min=1,max=12"`
	CurrentAverage float64 `json:"current_average" validate:"min=0,max=10"`
}

// LoginRequest holds credentials for authenticating a student.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued access token and student info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	Student     StudentInfo `json:"student"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// StudentInfo describes the authenticated student in responses.
type StudentInfo struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	RollNumber     string  `json:"roll_number"`
	Email          string  `json:"email"`
	Semester       int     `json:"semester"`
	CurrentAverage float64 `json:"current_average"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}
