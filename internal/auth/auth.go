package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/contactbook/contactbook/internal/errors"
	"github.com/contactbook/contactbook/internal/logger"
	"github.com/contactbook/contactbook/internal/metrics"
	"github.com/contactbook/contactbook/internal/models"
)

const DefaultBcryptCost = 12

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

// UserStore persists user accounts. Implementations return
// models.ErrUserNotFound and models.ErrEmailExists (wrapped) for the
// corresponding conditions.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Service implements registration, login and profile lookup.
type Service struct {
	users      UserStore
	tokens     *TokenService
	bcryptCost int
	dummyHash  []byte
	metrics    *metrics.Metrics
	log        *logger.Logger
	now        func() time.Time
}

// ServiceConfig holds the dependencies of Service.
type ServiceConfig struct {
	Users      UserStore
	Tokens     *TokenService
	BcryptCost int
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
}

func NewService(cfg ServiceConfig) *Service {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	// Compared against on unknown emails; its cost matches real hashes.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("contactbook-login-timing"), cost)
	return &Service{
		users:      cfg.Users,
		tokens:     cfg.Tokens,
		bcryptCost: cost,
		dummyHash:  dummy,
		metrics:    cfg.Metrics,
		log:        log.WithComponent("auth"),
		now:        time.Now,
	}
}

func missingCredentials() *apperrors.AppError {
	return apperrors.BadRequest("Email and password required.", "Missing data. Fields Required: email, password.")
}

// Register creates a confirmed account for email.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, missingCredentials()
	}
	if len(password) > maxPasswordBytes {
		return nil, apperrors.ValidationError(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.EmailExists(email)
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, s.internal(ctx, "lookup user failed", err, "Error in user creation !")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, s.internal(ctx, "hash password failed", err, "Error in user creation !")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		IsConfirmed:  true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, models.ErrEmailExists) {
			return nil, apperrors.EmailExists(email)
		}
		return nil, s.internal(ctx, "create user failed", err, "Error in user creation !")
	}

	s.metrics.RecordRegistration()
	s.log.Info(ctx, "user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login checks the credentials and issues a bearer token. Unknown email
// and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, missingCredentials()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Spend the same bcrypt work as a wrong password.
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			s.metrics.RecordLogin(metrics.LoginFailure)
			return nil, apperrors.InvalidCredentials()
		}
		return nil, s.internal(ctx, "lookup user failed", err, "Internal Server Error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.RecordLogin(metrics.LoginFailure)
		return nil, apperrors.InvalidCredentials()
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, s.internal(ctx, "issue token failed", err, "Internal Server Error")
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, s.internal(ctx, "update last login failed", err, "Internal Server Error")
	}

	s.metrics.RecordLogin(metrics.LoginSuccess)
	return &LoginResult{Message: "OK", Token: token}, nil
}

// Me returns the account behind an already verified identity. The
// account may have been removed since the gate resolved it.
func (s *Service) Me(ctx context.Context, caller *CallerIdentity) (*models.User, error) {
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, apperrors.NotFound("User not found.", fmt.Sprintf("User with email %s not found.", caller.Email))
		}
		return nil, s.internal(ctx, "lookup user failed", err, "Error, no user found !")
	}
	return user, nil
}

func (s *Service) internal(ctx context.Context, msg string, err error, userMsg string) error {
	s.log.Error(ctx, msg, err)
	return apperrors.InternalError(userMsg).WithCause(err)
}
