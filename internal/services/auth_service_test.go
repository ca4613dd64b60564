package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"marketplace-chat-service/internal/apperrors"
	"marketplace-chat-service/internal/mocks"
	"marketplace-chat-service/internal/models"
	"marketplace-chat-service/internal/repositories"
	. "marketplace-chat-service/internal/services"
)

func TestRegisterIssuesParsableToken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	service := NewAuthService(userRepo, "test-secret", time.Hour)

	userRepo.On("Create", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string"), "").
		Return(models.User{ID: 1, Username: "alice", Email: "alice@example.com"}, nil).Once()

	resp, err := service.Register(context.Background(), " alice ", " alice@example.com ", "correcthorse")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "alice", resp.User.Username)

	userID, err := service.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 1, userID)
	userRepo.AssertExpectations(t)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	service := NewAuthService(new(mocks.UserRepositoryMock), "test-secret", time.Hour)

	_, err := service.Register(context.Background(), "alice", "alice@example.com", "short")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRegisterRequiresUsernameAndEmail(t *testing.T) {
	service := NewAuthService(new(mocks.UserRepositoryMock), "test-secret", time.Hour)

	_, err := service.Register(context.Background(), "  ", "alice@example.com", "correcthorse")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestLoginSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	service := NewAuthService(userRepo, "test-secret", time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.MinCost)
	require.NoError(t, err)
	userRepo.On("GetByUsername", mock.Anything, "alice").
		Return(models.User{ID: 1, Username: "alice", PasswordHash: string(hash)}, nil).Once()

	resp, err := service.Login(context.Background(), "alice", "correcthorse")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	userRepo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	service := NewAuthService(userRepo, "test-secret", time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.MinCost)
	require.NoError(t, err)
	userRepo.On("GetByUsername", mock.Anything, "alice").
		Return(models.User{ID: 1, Username: "alice", PasswordHash: string(hash)}, nil).Once()

	_, err = service.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	userRepo.AssertExpectations(t)
}

func TestLoginUnknownUser(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	service := NewAuthService(userRepo, "test-secret", time.Hour)

	userRepo.On("GetByUsername", mock.Anything, "ghost").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err := service.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	userRepo.AssertExpectations(t)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	service := NewAuthService(new(mocks.UserRepositoryMock), "test-secret", time.Hour)

	_, err := service.ParseToken("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	issuer := NewAuthService(userRepo, "secret-a", time.Hour)
	verifier := NewAuthService(userRepo, "secret-b", time.Hour)

	userRepo.On("Create", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string"), "").
		Return(models.User{ID: 1, Username: "alice"}, nil).Once()

	resp, err := issuer.Register(context.Background(), "alice", "alice@example.com", "correcthorse")
	require.NoError(t, err)

	_, err = verifier.ParseToken(resp.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	service := NewAuthService(userRepo, "test-secret", -time.Minute)

	userRepo.On("Create", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string"), "").
		Return(models.User{ID: 1, Username: "alice"}, nil).Once()

	resp, err := service.Register(context.Background(), "alice", "alice@example.com", "correcthorse")
	require.NoError(t, err)

	_, err = service.ParseToken(resp.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}
