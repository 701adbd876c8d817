package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/godolist/godo-api/internal/models"
	appErrors "github.com/godolist/godo-api/pkg/errors"
)

type mockUserMgmtRepo struct {
	users map[string]*models.User // keyed by id
}

func (m *mockUserMgmtRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserMgmtRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserMgmtRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockUserMgmtRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, nil
}

func (m *mockUserMgmtRepo) Update(ctx context.Context, user *models.User) error {
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserMgmtRepo) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func newUserFixture(t *testing.T) (*UserService, *mockUserMgmtRepo, *mockSessionStore) {
	t.Helper()
	repo := &mockUserMgmtRepo{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Name:         "Ada",
			Email:        "ada@example.com",
			PasswordHash: hashPassword(t, "Sup3r!pass"),
			Validated:    true,
		},
		"user-2": {
			ID:        "user-2",
			Name:      "Grace",
			Email:     "grace@example.com",
			Validated: true,
		},
	}}
	store := newMockSessionStore()
	return NewUserService(repo, store, nil, nil), repo, store
}

func TestUserServiceUpdateSelfOnly(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	name := "Mallory"

	_, err := svc.Update(context.Background(), "user-1", "user-2", models.UpdateUserRequest{Name: &name})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestUserServiceUpdateName(t *testing.T) {
	svc, repo, store := newUserFixture(t)
	store.sessions["token-1"] = "user-1"
	name := "Ada L."

	user, err := svc.Update(context.Background(), "user-1", "user-1", models.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", user.Name)
	assert.Equal(t, "Ada L.", repo.users["user-1"].Name)

	// A name change alone keeps the session alive.
	assert.Contains(t, store.sessions, "token-1")
}

func TestUserServiceUpdatePasswordRevokesSessions(t *testing.T) {
	svc, repo, store := newUserFixture(t)
	store.sessions["token-1"] = "user-1"
	store.sessions["token-2"] = "user-2"
	password := "N3w!secret"

	_, err := svc.Update(context.Background(), "user-1", "user-1", models.UpdateUserRequest{Password: &password})
	require.NoError(t, err)

	assert.NotContains(t, store.sessions, "token-1", "password change must revoke the user's sessions")
	assert.Contains(t, store.sessions, "token-2", "other users' sessions stay")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["user-1"].PasswordHash), []byte(password)))
}

func TestUserServiceUpdateWeakPassword(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	password := "weak"

	_, err := svc.Update(context.Background(), "user-1", "user-1", models.UpdateUserRequest{Password: &password})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestUserServiceUpdateEmailConflict(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	email := "grace@example.com"

	_, err := svc.Update(context.Background(), "user-1", "user-1", models.UpdateUserRequest{Email: &email})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestUserServiceDelete(t *testing.T) {
	svc, repo, _ := newUserFixture(t)
	ctx := context.Background()

	err := svc.Delete(ctx, "user-1", "user-2")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Contains(t, repo.users, "user-1")

	require.NoError(t, svc.Delete(ctx, "user-1", "user-1"))
	assert.NotContains(t, repo.users, "user-1")
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
