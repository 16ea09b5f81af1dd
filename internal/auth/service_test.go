package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopora/storefront-backend/internal/users"
	pkgAuth "github.com/shopora/storefront-backend/pkg/auth"
	"github.com/shopora/storefront-backend/pkg/auth/session"
	"github.com/shopora/storefront-backend/pkg/config"
	"github.com/shopora/storefront-backend/pkg/db/models"
	"github.com/shopora/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopora/storefront-backend/pkg/errors"
	"github.com/shopora/storefront-backend/pkg/security"
)

type stubUserRepo struct {
	create          func(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	findByEmail     func(ctx context.Context, email string) (*models.User, error)
	updateLastLogin func(ctx context.Context, id uuid.UUID, at time.Time) error
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.create == nil {
		user := dto.ToModel()
		user.ID = uuid.New()
		return user, nil
	}
	return s.create(ctx, dto)
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.findByEmail == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.findByEmail(ctx, email)
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.updateLastLogin == nil {
		return nil
	}
	return s.updateLastLogin(ctx, id, at)
}

type stubSessionManager struct {
	generate func(ctx context.Context, accessID string) (string, error)
	rotate   func(ctx context.Context, oldAccessID, provided string) (string, string, error)
	revoke   func(ctx context.Context, accessID string) error
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	if s.generate == nil {
		return "refresh-token", nil
	}
	return s.generate(ctx, accessID)
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotate == nil {
		return session.NewAccessID(), "new-refresh-token", nil
	}
	return s.rotate(ctx, oldAccessID, provided)
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	if s.revoke == nil {
		return nil
	}
	return s.revoke(ctx, accessID)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "storefront-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newAuthService(t *testing.T, repo userRepository, sessions sessionManager) Service {
	t.Helper()
	if repo == nil {
		repo = &stubUserRepo{}
	}
	if sessions == nil {
		sessions = &stubSessionManager{}
	}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)
	return svc
}

func hashedPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	require.NoError(t, err)
	return hash
}

func TestRegister_CreatesUserAndIssuesTokens(t *testing.T) {
	var created users.CreateUserDTO
	repo := &stubUserRepo{
		create: func(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
			created = dto
			user := dto.ToModel()
			user.ID = uuid.New()
			return user, nil
		},
	}
	svc := newAuthService(t, repo, nil)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Ann",
		Email:    "  Ann@Example.COM ",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", created.Email)
	assert.Equal(t, enums.UserRoleUser, created.Role)
	assert.NotEqual(t, "correct horse battery", created.PasswordHash)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "ann@example.com", resp.User.Email)
}

func TestRegister_ShortPassword(t *testing.T) {
	svc := newAuthService(t, nil, nil)
	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Ann", Email: "a@b.com", Password: "short"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &stubUserRepo{
		create: func(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
			return nil, assertableUniqueViolation{}
		},
	}
	svc := newAuthService(t, repo, nil)

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Ann", Email: "a@b.com", Password: "longenoughpassword"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

type assertableUniqueViolation struct{}

func (assertableUniqueViolation) Error() string {
	return `duplicate key value violates unique constraint "users_email_key"`
}

func TestLogin_Succeeds(t *testing.T) {
	userID := uuid.New()
	hash := hashedPassword(t, "hunter2hunter2")
	var loginRecorded bool
	repo := &stubUserRepo{
		findByEmail: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "ann@example.com", email)
			return &models.User{ID: userID, Email: email, PasswordHash: hash, Role: enums.UserRoleUser, IsActive: true}, nil
		},
		updateLastLogin: func(ctx context.Context, id uuid.UUID, at time.Time) error {
			assert.Equal(t, userID, id)
			loginRecorded = true
			return nil
		},
	}
	svc := newAuthService(t, repo, nil)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Ann@Example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.True(t, loginRecorded)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.UserRoleUser, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash := hashedPassword(t, "the-real-password")
	repo := &stubUserRepo{
		findByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: uuid.New(), PasswordHash: hash, Role: enums.UserRoleUser, IsActive: true}, nil
		},
	}
	svc := newAuthService(t, repo, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newAuthService(t, &stubUserRepo{}, nil)
	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@b.com", Password: "whatever"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestLogin_InactiveAccount(t *testing.T) {
	hash := hashedPassword(t, "hunter2hunter2")
	repo := &stubUserRepo{
		findByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: uuid.New(), PasswordHash: hash, Role: enums.UserRoleUser, IsActive: false}, nil
		},
	}
	svc := newAuthService(t, repo, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "hunter2hunter2"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestRefresh_RotatesSession(t *testing.T) {
	userID := uuid.New()
	oldAccessID := session.NewAccessID()
	expired, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleUser,
		JTI:    oldAccessID,
	})
	require.NoError(t, err)

	newAccessID := session.NewAccessID()
	sessions := &stubSessionManager{
		rotate: func(ctx context.Context, gotAccessID, provided string) (string, string, error) {
			assert.Equal(t, oldAccessID, gotAccessID)
			assert.Equal(t, "old-refresh", provided)
			return newAccessID, "rotated-refresh", nil
		},
	}
	svc := newAuthService(t, nil, sessions)

	resp, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: expired, RefreshToken: "old-refresh"})
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh", resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, newAccessID, claims.ID)
}

func TestRefresh_InvalidRefreshToken(t *testing.T) {
	token, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleUser,
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)

	sessions := &stubSessionManager{
		rotate: func(ctx context.Context, oldAccessID, provided string) (string, string, error) {
			return "", "", session.ErrInvalidRefreshToken
		},
	}
	svc := newAuthService(t, nil, sessions)

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: token, RefreshToken: "bogus"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestRefresh_GarbageAccessToken(t *testing.T) {
	svc := newAuthService(t, nil, nil)
	_, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: "not-a-jwt", RefreshToken: "x"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestLogout_RevokesSession(t *testing.T) {
	var revoked string
	sessions := &stubSessionManager{
		revoke: func(ctx context.Context, accessID string) error {
			revoked = accessID
			return nil
		},
	}
	svc := newAuthService(t, nil, sessions)

	require.NoError(t, svc.Logout(context.Background(), "access-123"))
	assert.Equal(t, "access-123", revoked)
}

func TestLogout_MissingAccessID(t *testing.T) {
	svc := newAuthService(t, nil, nil)
	err := svc.Logout(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}
