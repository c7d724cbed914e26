package service

import (
	"database/sql"
	"testing"

	"backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuthRepo struct {
	users map[string]*models.User
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: make(map[string]*models.User)}
}

func (f *fakeAuthRepo) CreateUser(user *models.User) error {
	user.ID = int64(len(f.users) + 1)
	f.users[user.Username] = user
	return nil
}

func (f *fakeAuthRepo) GetUserByUsername(username string) (*models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeAuthRepo) CountUsers() (int, error) {
	return len(f.users), nil
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, []byte("test-secret"), zap.NewNop())

	user, err := svc.RegisterAdmin("admin", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	token, expiresAt, err := svc.Login("admin", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())
}

func TestRegisterClosedAfterFirstUser(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, []byte("test-secret"), zap.NewNop())

	_, err := svc.RegisterAdmin("admin", "password123")
	require.NoError(t, err)

	_, err = svc.RegisterAdmin("second", "password123")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, []byte("test-secret"), zap.NewNop())

	_, err := svc.RegisterAdmin("admin", "password123")
	require.NoError(t, err)

	_, _, err = svc.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(newFakeAuthRepo(), []byte("test-secret"), zap.NewNop())

	_, _, err := svc.Login("ghost", "password123")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	svc := &authService{logger: zap.NewNop()}

	assert.False(t, svc.verifyPassword("not-a-hash", "password"))
	assert.False(t, svc.verifyPassword("$argon2id$v=19$garbage", "password"))
}
