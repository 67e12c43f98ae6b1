package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/ws"
	"go-pos-ledger/pkg/jwt"
)

var ErrWrongPassword = errors.New("current password is incorrect")

const minPasswordLength = 6

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	ResetPassword(ctx context.Context, username, oldPassword, newPassword string) error
	ValidateToken(ctx context.Context, tokenString string) (*model.User, error)
	Heartbeat(ctx context.Context, userID uint) error
	// SeedAdmin creates the admin account when no user with that name exists.
	SeedAdmin(ctx context.Context, username, password string) error
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type authService struct {
	users  repository.UserRepository
	tokens *jwt.Manager
	events ws.Publisher
	clock  Clock
	log    *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens *jwt.Manager, events ws.Publisher, clock Clock, log *slog.Logger) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		events: publisherOrDiscard(events),
		clock:  clock,
		log:    log,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// Single session: a new version invalidates tokens issued before.
	version := uuid.New().String()
	now := s.clock.now()
	if err := s.users.UpdateSession(ctx, user.ID, version, now); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	user.TokenVersion = version
	user.LastSeenAt = &now

	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Role, version)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s.log.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return &LoginResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *authService) ResetPassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return &ValidationError{Field: "new_password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return ErrInvalidCredentials
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, user.Password)
}

// ValidateToken checks the signature and that the token belongs to the
// user's current session.
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionExpired
	}
	return user, nil
}

func (s *authService) Heartbeat(ctx context.Context, userID uint) error {
	now := s.clock.now()
	if err := s.users.UpdateLastSeen(ctx, userID, now); err != nil {
		return err
	}
	s.events.Publish(ws.Event{
		Type:   "user_status_update",
		Action: "online",
		Data: map[string]interface{}{
			"user_id":      userID,
			"last_seen_at": now,
		},
	})
	return nil
}

func (s *authService) SeedAdmin(ctx context.Context, username, password string) error {
	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	admin := &model.User{
		Username: username,
		FullName: "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	if err := admin.SetPassword(password); err != nil {
		return err
	}
	admin.Stamp("system")
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.log.Info("admin user created", "username", username)
	return nil
}
