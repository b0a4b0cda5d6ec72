package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner/internal/models"
	"github.com/noah-isme/study-planner/internal/session"
	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

type authClient interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Register(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Validate(ctx context.Context, token string) (*models.TokenValidation, error)
}

type sessionStore interface {
	Save(s models.StoredSession) error
	Load() (*models.StoredSession, error)
	Delete() error
}

// AuthServiceParams groups constructor dependencies.
type AuthServiceParams struct {
	Client    authClient
	Store     sessionStore
	Holder    *session.Holder
	Validator *validator.Validate
	Logger    *zap.Logger
}

// AuthService manages the single local session against the remote auth service.
type AuthService struct {
	client    authClient
	store     sessionStore
	holder    *session.Holder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService. When a store is given, any clear of the holder
// also removes the persisted session.
func NewAuthService(params AuthServiceParams) *AuthService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	svc := &AuthService{
		client:    params.Client,
		store:     params.Store,
		holder:    params.Holder,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
	if svc.store != nil {
		svc.holder.OnClear(func(int) { svc.forget() })
	}
	return svc
}

// Login authenticates against the auth service and installs the returned token.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (models.SessionInfo, error) {
	creds.Email = normalizeEmail(creds.Email)
	if err := s.validator.Struct(creds); err != nil {
		return models.SessionInfo{}, validationError(err, "invalid login payload")
	}

	result, err := s.client.Login(ctx, creds)
	if err != nil {
		return models.SessionInfo{}, err
	}
	s.install(result)
	s.logger.Info("logged in", zap.Int("user_id", result.User.ID))
	return s.holder.Info(s.now()), nil
}

// Register creates an account and logs into it.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (models.SessionInfo, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return models.SessionInfo{}, validationError(err, "invalid registration payload")
	}

	result, err := s.client.Register(ctx, models.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return models.SessionInfo{}, err
	}
	s.install(result)
	s.logger.Info("registered", zap.Int("user_id", result.User.ID))
	return s.holder.Info(s.now()), nil
}

// Logout drops the session locally. The auth service keeps no server-side session.
func (s *AuthService) Logout() {
	s.holder.Clear()
	s.forget()
}

// Restore reloads a persisted session at startup and checks it with the auth service. A
// rejected token is discarded. Any other failure keeps the session marked as unverified.
func (s *AuthService) Restore(ctx context.Context) models.SessionInfo {
	if s.store == nil {
		return s.holder.Info(s.now())
	}
	stored, err := s.store.Load()
	if err != nil {
		s.logger.Warn("failed to load stored session", zap.Error(err))
		return s.holder.Info(s.now())
	}
	if stored == nil || stored.Token == "" {
		return s.holder.Info(s.now())
	}

	s.holder.Set(stored.Token, stored.User, false)

	validation, err := s.client.Validate(ctx, stored.Token)
	switch {
	case err == nil:
		user := stored.User
		user.ID = validation.UserID
		if validation.Email != "" {
			user.Email = validation.Email
		}
		s.holder.Set(stored.Token, user, true)
		s.logger.Info("session restored", zap.Int("user_id", user.ID))
	case appErrors.Is(err, appErrors.ErrUnauthorized):
		s.logger.Info("stored session rejected by auth service")
		s.holder.Clear()
	default:
		s.logger.Warn("could not verify stored session, keeping it unverified", zap.Error(err))
	}
	return s.holder.Info(s.now())
}

// Current describes the local session.
func (s *AuthService) Current() models.SessionInfo {
	return s.holder.Info(s.now())
}

func (s *AuthService) install(result *models.AuthResult) {
	s.holder.Set(result.Token, result.User, true)
	if s.store == nil {
		return
	}
	err := s.store.Save(models.StoredSession{Token: result.Token, User: result.User, SavedAt: s.now().UTC()})
	if err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
}

func (s *AuthService) forget() {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(); err != nil {
		s.logger.Warn("failed to delete stored session", zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
