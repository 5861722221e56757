package service

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gradepro-api/internal/models"
)

// CredentialVerifier decides whether secret authenticates identifier.
type CredentialVerifier interface {
	Verify(ctx context.Context, identifier, secret string) (bool, error)
}

type studentLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
}

// BcryptVerifier checks passwords against bcrypt hashes stored with the student.
type BcryptVerifier struct {
	students studentLookup
}

// NewBcryptVerifier constructs a BcryptVerifier.
func NewBcryptVerifier(students studentLookup) *BcryptVerifier {
	return &BcryptVerifier{students: students}
}

// Verify reports false for unknown emails and wrong passwords alike.
func (v *BcryptVerifier) Verify(ctx context.Context, identifier, secret string) (bool, error) {
	student, err := v.students.FindByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(secret)); err != nil {
		return false, nil
	}
	return true, nil
}

// HashPassword returns the bcrypt hash stored for a new password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
