package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	userDomain "github.com/movesmart/service-route/internal/domain/user"
	"github.com/movesmart/service-route/internal/platform/auth"
	"github.com/movesmart/service-route/internal/platform/domain"
)

// Password length bounds. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// errBadCredentials is returned for both an unknown user and a wrong password.
var errBadCredentials = domain.NewUnauthorizedError("invalid username or password")

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// UserDTO is the response representation of an account.
type UserDTO struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionDTO is returned on successful register or login.
type SessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

// RoutePurger removes every route owned by a user.
type RoutePurger interface {
	PurgeUserRoutes(ctx context.Context, userID uint) (int64, error)
}

// AuthService orchestrates account use cases.
type AuthService struct {
	users     userDomain.UserRepository
	jwt       *auth.JWTManager
	purger    RoutePurger
	publisher EventPublisher
	isAdmin   func(username string) bool
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService. isAdmin decides which usernames
// are promoted to admin at registration and may be nil.
func NewAuthService(
	users userDomain.UserRepository,
	jwtManager *auth.JWTManager,
	purger RoutePurger,
	publisher EventPublisher,
	isAdmin func(username string) bool,
	logger *zap.Logger,
) *AuthService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &AuthService{
		users:     users,
		jwt:       jwtManager,
		purger:    purger,
		publisher: publisher,
		isAdmin:   isAdmin,
		logger:    logger,
	}
}

// Register creates an account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, req CredentialsRequest) (*SessionDTO, error) {
	if len(req.Password) < MinPasswordLength || len(req.Password) > MaxPasswordLength {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be %d-%d characters", MinPasswordLength, MaxPasswordLength))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u, err := userDomain.NewUser(req.Username, hash)
	if err != nil {
		return nil, err
	}
	if s.isAdmin(u.Username()) {
		u.PromoteToAdmin()
	}

	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Uint("user_id", u.ID()), zap.String("role", string(u.Role())))
	return s.session(u)
}

// Login verifies credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, req CredentialsRequest) (*SessionDTO, error) {
	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash(), req.Password) {
		return nil, errBadCredentials
	}
	return s.session(u)
}

// GetUser returns the account with the given ID.
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*UserDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := toUserDTO(u)
	return &result, nil
}

// DeleteAccount removes the account and its routes, then announces it.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if s.purger != nil {
		if _, err := s.purger.PurgeUserRoutes(ctx, userID); err != nil {
			return err
		}
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("account deleted", zap.Uint("user_id", userID))
	publish(ctx, s.publisher, s.logger, TopicAccountEvents, EventUserDeleted,
		"user/"+strconv.FormatUint(uint64(userID), 10),
		UserDeletedEvent{UserID: userID, Username: u.Username(), DeletedAt: time.Now().UTC()},
	)
	return nil
}

func (s *AuthService) session(u *userDomain.User) (*SessionDTO, error) {
	token, err := s.jwt.Generate(u.ID(), u.Username(), u.Role())
	if err != nil {
		return nil, err
	}
	return &SessionDTO{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.jwt.TokenTTL()),
		User:      toUserDTO(u),
	}, nil
}

func toUserDTO(u *userDomain.User) UserDTO {
	return UserDTO{
		ID:        u.ID(),
		Username:  u.Username(),
		Role:      string(u.Role()),
		CreatedAt: u.CreatedAt(),
	}
}
