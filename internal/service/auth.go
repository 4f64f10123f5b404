package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"instainstru/internal/auth"
	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// RegisterInput is the signup form.
type RegisterInput struct {
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         model.Role `json:"role"`
	ReferralCode string     `json:"referral_code"`
	DeviceID     string     `json:"device_id"`
	ClientIP     string     `json:"-"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *model.User `json:"user"`
}

// AuthService handles accounts and access tokens.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)
}

type authService struct {
	users     repository.UserRepository
	tokens    *auth.TokenIssuer
	referrals ReferralService
	ipSecret  string
	log       zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService. ipSecret keys the HMAC used to
// store signup IP addresses.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenIssuer, referrals ReferralService, ipSecret string, logger zerolog.Logger) AuthService {
	return &authService{users: users, tokens: tokens, referrals: referrals, ipSecret: ipSecret, log: logger, now: time.Now}
}

var errBadCredentials = &Error{Kind: ErrUnauthorized, Message: "invalid email or password"}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, errorf(ErrValidation, "invalid email")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, errorf(ErrValidation, "first_name is required")
	}
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	if !in.Role.Valid() {
		return nil, errorf(ErrValidation, "role must be student or instructor")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, errorf(ErrValidation, "password must be at least 8 characters")
		}
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, errorf(ErrConflict, "email is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	u := &model.User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   hash,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           in.Role,
		SignupDeviceID: strings.TrimSpace(in.DeviceID),
		CreatedAt:      s.now().UTC(),
	}
	if in.ClientIP != "" {
		u.SignupIPHash = auth.HashIP(s.ipSecret, in.ClientIP)
	}
	created, err := s.users.Create(ctx, u)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errorf(ErrConflict, "email is already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if _, err := s.referrals.EnsureCode(ctx, created.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", created.ID).Msg("create referral code")
	}
	if in.ReferralCode != "" {
		if _, err := s.referrals.Attribute(ctx, created, in.ReferralCode); err != nil {
			s.log.Warn().Err(err).Str("user_id", created.ID).Msg("referral not attributed")
		}
	}
	return s.issue(created)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, errBadCredentials
	}
	return s.issue(u)
}

func (s *authService) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *authService) issue(u *model.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp, User: u}, nil
}
