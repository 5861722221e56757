package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradepro-api/internal/models"
	"github.com/noah-isme/gradepro-api/internal/repository"
	appErrors "github.com/noah-isme/gradepro-api/pkg/errors"
)

type mockStudentRepo struct {
	byEmail          map[string]*models.Student
	createErr        error
	findErr          error
	lastLoginUpdated bool
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{byEmail: make(map[string]*models.Student)}
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.byEmail[student.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	if student.ID == "" {
		student.ID = "student-" + student.RollNumber
	}
	m.byEmail[student.Email] = student
	return nil
}

func (m *mockStudentRepo) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	student, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for _, student := range m.byEmail {
		if student.ID == id {
			return student, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

type staticVerifier struct {
	ok  bool
	err error
}

func (v staticVerifier) Verify(ctx context.Context, identifier, secret string) (bool, error) {
	return v.ok, v.err
}

func testAuthConfig() AuthConfig {
	return AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "gradepro-api"}
}

func signupRequest() models.SignupRequest {
	return models.SignupRequest{
		Name:           "Asha Rao",
		RollNumber:     "CS-042",
		Email:          "Asha@Example.com",
		Password:       "hunter22",
		Semester:       5,
		CurrentAverage: 7.4,
	}
}

func TestAuthSignupAndLogin(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())
	ctx := context.Background()

	info, err := svc.Signup(ctx, signupRequest())
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", info.Email)
	assert.NotEqual(t, "hunter22", repo.byEmail["asha@example.com"].PasswordHash)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "ASHA@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, info.ID, claims.StudentID)
	assert.Equal(t, "gradepro-api", claims.Issuer)
}

func TestAuthSignupValidation(t *testing.T) {
	svc := NewAuthService(newMockStudentRepo(), nil, nil, nil, testAuthConfig())

	req := signupRequest()
	req.Password = "short"
	req.Semester = 13
	_, err := svc.Signup(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "password")
	assert.Contains(t, appErr.Details, "semester")
}

func TestAuthSignupDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newMockStudentRepo(), nil, nil, nil, testAuthConfig())

	_, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)
	_, err = svc.Signup(context.Background(), signupRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(newMockStudentRepo(), nil, nil, nil, testAuthConfig())
	_, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUsesInjectedVerifier(t *testing.T) {
	repo := newMockStudentRepo()
	repo.byEmail["asha@example.com"] = &models.Student{ID: "s1", Email: "asha@example.com", Name: "Asha"}

	svc := NewAuthService(repo, staticVerifier{ok: true}, nil, nil, testAuthConfig())
	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.Student.ID)

	failing := NewAuthService(repo, staticVerifier{err: errors.New("directory down")}, nil, nil, testAuthConfig())
	_, err = failing.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "anything"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newMockStudentRepo()
	issuer := NewAuthService(repo, nil, nil, nil, AuthConfig{AccessTokenSecret: "other", AccessTokenExpiry: time.Hour, Issuer: "gradepro-api"})
	_, err := issuer.Signup(context.Background(), signupRequest())
	require.NoError(t, err)
	resp, err := issuer.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "hunter22"})
	require.NoError(t, err)

	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())
	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthMe(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())
	info, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	me, err := svc.Me(context.Background(), info.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", me.Name)

	_, err = svc.Me(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
