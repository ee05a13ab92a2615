package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/contact-console/internal/models"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
)

type mockAdminRepo struct {
	admin            *models.Admin
	findErr          error
	count            int
	countErr         error
	created          []*models.Admin
	lastLoginUpdated bool
}

func (m *mockAdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.admin == nil || m.admin.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.admin, nil
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.admin == nil || m.admin.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.admin, nil
}

func (m *mockAdminRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAdminRepo) Count(ctx context.Context) (int, error) {
	return m.count, m.countErr
}

func (m *mockAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	admin.ID = "generated"
	m.created = append(m.created, admin)
	return nil
}

func newTestAdmin(t *testing.T, password string) *models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.Admin{
		ID:           "admin-1",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Name:         "Ama Mensah",
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func newTestAuthService(repo *mockAdminRepo) *AuthService {
	return NewAuthService(repo, validator.New(), NewMetricsService(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "contact-console",
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAdminRepo{admin: newTestAdmin(t, "Password123!")}
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: " Admin@Example.com ", Password: "Password123!"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin-1", resp.Admin.ID)
	assert.NotNil(t, resp.Admin.LastLogin)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "contact-console", claims.Issuer)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	admin := newTestAdmin(t, "Password123!")

	tests := []struct {
		name string
		repo *mockAdminRepo
		req  models.LoginRequest
		code string
	}{
		{name: "missing password", repo: &mockAdminRepo{admin: admin}, req: models.LoginRequest{Email: "admin@example.com"}, code: appErrors.ErrValidation.Code},
		{name: "unknown email", repo: &mockAdminRepo{admin: admin}, req: models.LoginRequest{Email: "nobody@example.com", Password: "x"}, code: appErrors.ErrInvalidCredentials.Code},
		{name: "wrong password", repo: &mockAdminRepo{admin: admin}, req: models.LoginRequest{Email: "admin@example.com", Password: "wrong"}, code: appErrors.ErrInvalidCredentials.Code},
		{name: "repository failure", repo: &mockAdminRepo{findErr: errors.New("db down")}, req: models.LoginRequest{Email: "admin@example.com", Password: "x"}, code: appErrors.ErrInternal.Code},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestAuthService(tc.repo).Login(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, appErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestAuthServiceLoginInactive(t *testing.T) {
	admin := newTestAdmin(t, "Password123!")
	admin.Active = false
	_, err := newTestAuthService(&mockAdminRepo{admin: admin}).Login(context.Background(), models.LoginRequest{Email: admin.Email, Password: "Password123!"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInactiveAccount))
}

func TestAuthServiceValidateTokenRejectsForeignTokens(t *testing.T) {
	svc := newTestAuthService(&mockAdminRepo{})

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	claims := &models.JWTClaims{AdminID: "admin-1", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "contact-console",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	require.Error(t, err)

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	require.Error(t, err)
}

func TestAuthServiceMe(t *testing.T) {
	admin := newTestAdmin(t, "pw")
	svc := newTestAuthService(&mockAdminRepo{admin: admin})

	got, err := svc.Me(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, admin.Email, got.Email)

	_, err = svc.Me(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceEnsureBootstrapAdmin(t *testing.T) {
	repo := &mockAdminRepo{}
	svc := newTestAuthService(repo)

	created, err := svc.EnsureBootstrapAdmin(context.Background(), "Root@Example.com", "Password123!", "")
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "root@example.com", repo.created[0].Email)
	assert.Equal(t, models.RoleSuperAdmin, repo.created[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created[0].PasswordHash), []byte("Password123!")))

	repo.count = 1
	created, err = svc.EnsureBootstrapAdmin(context.Background(), "root@example.com", "Password123!", "Root")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.EnsureBootstrapAdmin(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.False(t, created)
}
