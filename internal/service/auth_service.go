package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/godolist/godo-api/internal/models"
	appErrors "github.com/godolist/godo-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

// SessionStore is the server-side revocation table consumed by login,
// logout and the request guard.
type SessionStore interface {
	Create(ctx context.Context, userID, token string) error
	Invalidate(ctx context.Context, token string) error
	InvalidateAllForUser(ctx context.Context, userID string) (int64, error)
	IsValid(ctx context.Context, token string) (bool, error)
}

// AuthConfig defines the token issuing parameters. The secret is injected
// here once at construction; nothing reads it from the environment later.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
}

// AuthService implements registration, login/logout orchestration and
// token issue/verify. It holds no per-request state and is safe for
// concurrent use.
type AuthService struct {
	users     authUserRepository
	sessions  SessionStore
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, sessions SessionStore, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiration <= 0 {
		config.Expiration = 24 * time.Hour
	}
	return &AuthService{users: users, sessions: sessions, validator: validate, logger: logger, metrics: metrics, config: config}
}

// Register creates an account and logs it in: the response carries a token
// backed by a fresh session row.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}
	if err := checkPasswordComplexity(req.Password); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Validated:    true, // accounts are self-validated on signup
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	return s.openSession(ctx, user)
}

// Login authenticates credentials and issues a token. On success every
// prior session of the user is invalidated first, so at most one session
// survives a login.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Same client-visible response as a bad password. The precise
			// cause stays in the logs to resist account enumeration.
			s.logger.Warn("login rejected: unknown email", zap.String("email", req.Email))
			s.recordLogin(false)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.Validated {
		// Same wire response as a bad password; only the log tells the cases
		// apart. A distinct code here would let callers probe validation state.
		s.logger.Warn("login rejected: account not validated", zap.String("user_id", user.ID))
		s.recordLogin(false)
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login rejected: password mismatch", zap.String("user_id", user.ID))
		s.recordLogin(false)
		return nil, appErrors.ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// Logout invalidates the session behind the token. An already-absent
// session is treated as success: logging out twice is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	valid, err := s.sessions.IsValid(ctx, token)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session")
	}
	if !valid {
		s.logger.Debug("logout for absent session, nothing to do")
		return nil
	}

	if err := s.sessions.Invalidate(ctx, token); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate session")
	}
	return nil
}

// Authenticate is the guard-side check: signature and expiry first, then
// session presence. Both must pass for the token to be honored; the time
// check never touches storage.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.JWTClaims, error) {
	claims, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	valid, err := s.sessions.IsValid(ctx, token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session")
	}
	if !valid {
		return nil, appErrors.ErrSessionRevoked
	}

	return claims, nil
}

// VerifyToken parses and validates a signed token, returning its claims.
// Only HS256 is accepted; any other method fails verification.
func (s *AuthService) VerifyToken(token string) (*models.JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &models.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrTokenExpired.Code, appErrors.ErrTokenExpired.Status, appErrors.ErrTokenExpired.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTokenInvalid.Code, appErrors.ErrTokenInvalid.Status, appErrors.ErrTokenInvalid.Message)
	}

	claims, ok := parsed.Claims.(*models.JWTClaims)
	if !ok || !parsed.Valid {
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "")
	}

	return claims, nil
}

// TokenLifetime exposes the configured expiry window.
func (s *AuthService) TokenLifetime() time.Duration {
	return s.config.Expiration
}

func (s *AuthService) openSession(ctx context.Context, user *models.User) (*models.LoginResponse, error) {
	token, err := s.issueToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	// Two independent statements, deliberately untransacted: authorization
	// safety depends only on session presence, not cardinality.
	count, err := s.sessions.InvalidateAllForUser(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate previous sessions")
	}
	if count > 0 {
		s.logger.Info("previous sessions invalidated",
			zap.String("user_id", user.ID), zap.Int64("count", count))
	}

	if err := s.sessions.Create(ctx, user.ID, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	s.recordLogin(true)
	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.Expiration.Seconds()),
		User:      models.UserInfo{ID: user.ID, Name: user.Name, Email: user.Email},
	}, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiration)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *AuthService) recordLogin(success bool) {
	if s.metrics != nil {
		s.metrics.RecordLogin(success)
	}
}
