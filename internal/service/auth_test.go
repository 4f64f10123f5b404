package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"instainstru/internal/auth"
	"instainstru/internal/model"
	repoMocks "instainstru/internal/repository/mocks"
)

func newAuthFixture() (*repoMocks.MockUserRepository, *mockReferrals, *authService) {
	users := new(repoMocks.MockUserRepository)
	referrals := new(mockReferrals)
	svc := NewAuthService(users, auth.NewTokenIssuer("secret", time.Hour), referrals, "ip-secret", zerolog.Nop()).(*authService)
	svc.now = fixedClock
	return users, referrals, svc
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		in         RegisterInput
		setupMocks func(users *repoMocks.MockUserRepository, referrals *mockReferrals)
		wantKind   error
	}{
		{
			name: "student with referral code",
			in:   RegisterInput{Email: " Ana@Example.com ", Password: "longenough", FirstName: "Ana", ReferralCode: "ABCD1234", DeviceID: "dev", ClientIP: "10.0.0.1"},
			setupMocks: func(users *repoMocks.MockUserRepository, referrals *mockReferrals) {
				users.On("FindByEmail", mock.Anything, "ana@example.com").Return(nil, sql.ErrNoRows)
				out := &model.User{}
				users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.Role == model.RoleStudent && u.SignupIPHash == auth.HashIP("ip-secret", "10.0.0.1") && u.SignupDeviceID == "dev"
				})).Run(func(args mock.Arguments) { *out = *args.Get(1).(*model.User) }).Return(out, nil)
				referrals.On("EnsureCode", mock.Anything, mock.Anything).Return(&model.ReferralCode{Code: "ZZZZ0000"}, nil)
				referrals.On("Attribute", mock.Anything, mock.AnythingOfType("*model.User"), "ABCD1234").Return(nil, errorf(ErrValidation, "unknown referral code"))
			},
		},
		{
			name:       "bad email",
			in:         RegisterInput{Email: "not-an-email", Password: "longenough", FirstName: "Ana"},
			setupMocks: func(users *repoMocks.MockUserRepository, referrals *mockReferrals) {},
			wantKind:   ErrValidation,
		},
		{
			name:       "short password",
			in:         RegisterInput{Email: "ana@example.com", Password: "short", FirstName: "Ana"},
			setupMocks: func(users *repoMocks.MockUserRepository, referrals *mockReferrals) {},
			wantKind:   ErrValidation,
		},
		{
			name:       "admin cannot self register",
			in:         RegisterInput{Email: "ana@example.com", Password: "longenough", FirstName: "Ana", Role: model.RoleAdmin},
			setupMocks: func(users *repoMocks.MockUserRepository, referrals *mockReferrals) {},
			wantKind:   ErrValidation,
		},
		{
			name: "duplicate email",
			in:   RegisterInput{Email: "ana@example.com", Password: "longenough", FirstName: "Ana"},
			setupMocks: func(users *repoMocks.MockUserRepository, referrals *mockReferrals) {
				users.On("FindByEmail", mock.Anything, "ana@example.com").Return(&model.User{ID: "u1"}, nil)
			},
			wantKind: ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, referrals, svc := newAuthFixture()
			tt.setupMocks(users, referrals)

			res, err := svc.Register(context.Background(), tt.in)
			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, res.AccessToken)
			assert.Equal(t, "Bearer", res.TokenType)
			assert.Equal(t, "ana@example.com", res.User.Email)
			users.AssertExpectations(t)
			referrals.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.HashPassword("longenough")
	require.NoError(t, err)

	t.Run("ok", func(t *testing.T) {
		users, _, svc := newAuthFixture()
		users.On("FindByEmail", mock.Anything, "ana@example.com").Return(&model.User{ID: "u1", PasswordHash: hash, Role: model.RoleInstructor}, nil)

		res, err := svc.Login(context.Background(), "ANA@example.com", "longenough")
		require.NoError(t, err)
		assert.Equal(t, "u1", res.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		users, _, svc := newAuthFixture()
		users.On("FindByEmail", mock.Anything, "ana@example.com").Return(&model.User{ID: "u1", PasswordHash: hash}, nil)

		_, err := svc.Login(context.Background(), "ana@example.com", "nope-nope")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unknown email looks the same", func(t *testing.T) {
		users, _, svc := newAuthFixture()
		users.On("FindByEmail", mock.Anything, "who@example.com").Return(nil, sql.ErrNoRows)

		_, err := svc.Login(context.Background(), "who@example.com", "longenough")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.EqualError(t, err, "invalid email or password")
	})

	t.Run("database error", func(t *testing.T) {
		users, _, svc := newAuthFixture()
		users.On("FindByEmail", mock.Anything, "ana@example.com").Return(nil, errors.New("db down"))

		_, err := svc.Login(context.Background(), "ana@example.com", "longenough")
		assert.EqualError(t, err, "db down")
	})
}
