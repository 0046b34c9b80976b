package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursekit/planner-api/internal/models"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
)

type mockAuthRepo struct {
	usersByEmail  map[string]*models.User
	usersByID     map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	created       []*models.User
	revokedAll    []string
	lastLogin     bool
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{
		usersByEmail:  map[string]*models.User{},
		usersByID:     map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
	for _, user := range users {
		repo.usersByEmail[user.Email] = user
		repo.usersByID[user.ID] = user
	}
	return repo
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	m.created = append(m.created, user)
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin = true
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := m.refreshTokens[token]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "course-planner-api",
	}
}

func testUser(password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &models.User{
		ID:           "user-1",
		Email:        "student@example.edu",
		PasswordHash: string(hash),
		FullName:     "Sam Student",
		Role:         models.RoleStudent,
		Active:       true,
	}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newMockAuthRepo(testUser("hunter22"))
	service := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	resp, err := service.Login(context.Background(), models.LoginRequest{Email: "student@example.edu", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.True(t, repo.lastLogin)
	assert.Len(t, repo.refreshTokens, 1)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo(testUser("hunter22"))
	service := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := service.Login(context.Background(), models.LoginRequest{Email: "student@example.edu", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := testUser("hunter22")
	user.Active = false
	service := NewAuthService(newMockAuthRepo(user), nil, zap.NewNop(), testAuthConfig())

	_, err := service.Login(context.Background(), models.LoginRequest{Email: "student@example.edu", Password: "hunter22"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterCreatesStudent(t *testing.T) {
	repo := newMockAuthRepo()
	service := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	resp, err := service.Register(context.Background(), models.RegisterRequest{
		Email:    "New.Student@Example.edu",
		Password: "hunter22",
		FullName: "New Student",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.RoleStudent, repo.created[0].Role)
	// emails are stored lowercase
	assert.Equal(t, "new.student@example.edu", repo.created[0].Email)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuthServiceRegisterEmailTaken(t *testing.T) {
	repo := newMockAuthRepo(testUser("hunter22"))
	service := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := service.Register(context.Background(), models.RegisterRequest{
		Email:    "student@example.edu",
		Password: "hunter22",
		FullName: "Dup Student",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailTaken.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo(testUser("hunter22"))
	repo.refreshTokens["old-token"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	service := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	resp, err := service.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.True(t, repo.refreshTokens["old-token"].Revoked)
}

func TestAuthServiceRefreshExpiredToken(t *testing.T) {
	repo := newMockAuthRepo(testUser("hunter22"))
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt-2",
		UserID:    "user-1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	service := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := service.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutWrongOwner(t *testing.T) {
	repo := newMockAuthRepo(testUser("hunter22"))
	repo.refreshTokens["token"] = &models.RefreshToken{
		ID:        "rt-3",
		UserID:    "user-1",
		Token:     "token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	service := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	err := service.Logout(context.Background(), "token", "user-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, service.Logout(context.Background(), "token", "user-1"))
	assert.True(t, repo.refreshTokens["token"].Revoked)
}

func TestAuthServiceValidateTokenRoundTrip(t *testing.T) {
	repo := newMockAuthRepo(testUser("hunter22"))
	service := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	resp, err := service.Login(context.Background(), models.LoginRequest{Email: "student@example.edu", Password: "hunter22"})
	require.NoError(t, err)

	claims, err := service.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	_, err = service.ValidateToken("garbage.token.value")
	require.Error(t, err)
}
