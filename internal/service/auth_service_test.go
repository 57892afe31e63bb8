package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/security"
)

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := env.authService()

	first, err := auth.Register("Pastor@Church.org", "password123", "Pastor Paul")
	require.NoError(t, err)
	assert.True(t, first.IsAdmin, "first account becomes admin")
	assert.Equal(t, "pastor@church.org", first.Email)

	second, err := auth.Register("clerk@church.org", "password123", "Clerk")
	require.NoError(t, err)
	assert.False(t, second.IsAdmin)

	_, err = auth.Register("clerk@church.org", "password123", "Clerk Again")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = auth.Register("bad-email", "password123", "Someone")
	assert.Error(t, err)

	session, user, err := auth.Login("pastor@church.org", "password123")
	require.NoError(t, err)
	assert.Equal(t, first.ID, user.ID)

	validated, err := auth.ValidateSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, validated.ID)

	_, _, err = auth.Login("pastor@church.org", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, auth.Logout(session.ID))
	_, err = auth.ValidateSession(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAuthServiceOAuthLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := env.authService()

	t.Run("bootstrap creates the first admin", func(t *testing.T) {
		_, user, err := auth.OAuthLogin("google", "g-1", "Elder@Church.org", "Elder")
		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
		assert.Equal(t, "google", user.OAuthProvider)
	})

	t.Run("returning user is matched by subject", func(t *testing.T) {
		_, user, err := auth.OAuthLogin("google", "g-1", "elder@church.org", "Elder")
		require.NoError(t, err)
		assert.Equal(t, "elder@church.org", user.Email)
	})

	t.Run("existing staff email is linked", func(t *testing.T) {
		_, err := auth.Register("deacon@church.org", "password123", "Deacon")
		require.NoError(t, err)
		_, user, err := auth.OAuthLogin("facebook", "fb-9", "deacon@church.org", "Deacon")
		require.NoError(t, err)
		assert.Equal(t, "deacon@church.org", user.Email)
	})

	t.Run("strangers are refused once staff exist", func(t *testing.T) {
		_, _, err := auth.OAuthLogin("google", "g-2", "visitor@example.com", "Visitor")
		assert.ErrorIs(t, err, ErrNotStaff)
	})
}

func TestAuthServiceCreateStaffUser(t *testing.T) {
	env := newTestEnv(t)
	auth := env.authService()

	user, temp, err := auth.CreateStaffUser(context.Background(), "teacher@church.org", "Teacher Tim", false)
	require.NoError(t, err)
	assert.NotEmpty(t, temp)
	assert.True(t, security.CheckPassword(temp, user.PasswordHash))

	sent := env.ses.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"teacher@church.org"}, sent[0].Destination.ToAddresses)
	assert.Contains(t, *sent[0].Content.Simple.Body.Text.Data, temp)

	_, _, err = auth.CreateStaffUser(context.Background(), "teacher@church.org", "Teacher Tim", false)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthServiceManageUsers(t *testing.T) {
	env := newTestEnv(t)
	auth := env.authService()

	admin, err := auth.Register("admin@church.org", "password123", "Admin")
	require.NoError(t, err)
	staff, err := auth.Register("staff@church.org", "password123", "Staff")
	require.NoError(t, err)

	updated, err := auth.UpdateUser(staff.ID, "staff@church.org", "Staff Member", true)
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin)
	assert.Equal(t, "Staff Member", updated.Name)

	_, err = auth.UpdateUser(staff.ID, "admin@church.org", "Staff", true)
	assert.ErrorIs(t, err, ErrEmailTaken)

	assert.ErrorIs(t, auth.ChangePassword(staff.ID, "nope", "newpassword1"), ErrInvalidCredentials)
	require.NoError(t, auth.ChangePassword(staff.ID, "password123", "newpassword1"))
	_, _, err = auth.Login("staff@church.org", "newpassword1")
	require.NoError(t, err)

	assert.ErrorIs(t, auth.DeleteUser(admin.ID, admin.ID), ErrCannotDeleteSelf)
	require.NoError(t, auth.DeleteUser(admin.ID, staff.ID))
	assert.ErrorIs(t, auth.DeleteUser(admin.ID, staff.ID), ErrNotFound)

	users, err := auth.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
