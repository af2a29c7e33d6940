package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resource "toursApi/internal/modules/resource/domain"
	resourceinfra "toursApi/internal/modules/resource/infrastructure"
	"toursApi/internal/modules/users/application/port"
	"toursApi/internal/modules/users/domain"
	"toursApi/internal/shared/apperror"
	"toursApi/internal/shared/auth"
)

type recordingMailer struct {
	resetURL string
	welcomed []string
	fail     bool
}

func (m *recordingMailer) SendWelcome(_ context.Context, to port.Recipient, _ string) error {
	m.welcomed = append(m.welcomed, to.Email)
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, _ port.Recipient, resetURL string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.resetURL = resetURL
	return nil
}

type fixture struct {
	auth    *AuthService
	account *AccountService
	users   *resourceusecase.Service
	mailer  *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hasher := auth.NewBcryptHasher(4)
	db := resourceinfra.NewMemoryDatabase(nil)
	users := resourceusecase.NewService(db.Store(domain.Schema(hasher)))
	mailer := &recordingMailer{}
	return &fixture{
		auth:    NewAuthService(users, auth.NewJWTManager("test-secret", time.Hour), hasher, mailer),
		account: NewAccountService(users, nil),
		users:   users,
		mailer:  mailer,
	}
}

func signupPayload(email string) resource.Document {
	return resource.Document{
		"name":            "Jonas Schmedtmann",
		"email":           email,
		"password":        "pass1234",
		"passwordConfirm": "pass1234",
		"role":            "admin",
	}
}

func (f *fixture) signup(t *testing.T, email string) *Session {
	t.Helper()
	session, err := f.auth.Signup(context.Background(), signupPayload(email), "http://localhost/me")
	require.NoError(t, err)
	return session
}

func TestSignupCreatesPlainUser(t *testing.T) {
	f := newFixture(t)
	session := f.signup(t, " Jonas@Example.com ")

	require.NotEmpty(t, session.Token)
	assert.Equal(t, "jonas@example.com", session.User["email"])
	assert.Equal(t, domain.RoleUser, session.User["role"])
	assert.Equal(t, domain.DefaultPhoto, session.User["photo"])
	assert.NotContains(t, session.User, "password")
	assert.NotContains(t, session.User, "passwordConfirm")
	assert.Equal(t, []string{"jonas@example.com"}, f.mailer.welcomed)

	_, err := f.auth.Signup(context.Background(), signupPayload("jonas@example.com"), "")
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	payload := signupPayload("not-an-email")
	payload["passwordConfirm"] = "different"

	_, err := f.auth.Signup(context.Background(), payload, "")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, "Please provide a valid email", appErr.Fields["email"])

	payload["email"] = "valid@example.com"
	_, err = f.auth.Signup(context.Background(), payload, "")
	appErr, ok = apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Passwords are not the same!", appErr.Fields["passwordConfirm"])
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "jonas@example.com")

	session, err := f.auth.Login(context.Background(), "JONAS@example.com", "pass1234")
	require.NoError(t, err)
	assert.NotContains(t, session.User, "password")

	_, err = f.auth.Login(context.Background(), "jonas@example.com", "wrong-pass")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
	assert.EqualError(t, err, MessageIncorrectLogin)

	_, err = f.auth.Login(context.Background(), "nobody@example.com", "pass1234")
	assert.EqualError(t, err, MessageIncorrectLogin)

	_, err = f.auth.Login(context.Background(), "", "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	session := f.signup(t, "jonas@example.com")

	user, err := f.auth.Authenticate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, resource.IDOf(session.User), resource.IDOf(user))

	tests := []struct {
		name, token, want string
	}{
		{"missing", "", MessageNotLoggedIn},
		{"garbage", "not.a.jwt", MessageInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Authenticate(context.Background(), tt.token)
			if err == nil || err.Error() != tt.want {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}

	other := auth.NewJWTManager("test-secret", time.Hour)
	orphan, _, err := other.Issue(resource.NewID())
	require.NoError(t, err)
	_, err = f.auth.Authenticate(context.Background(), orphan)
	assert.EqualError(t, err, MessageUserGone)
}

func TestUpdatePasswordInvalidatesOlderTokens(t *testing.T) {
	f := newFixture(t)
	session := f.signup(t, "jonas@example.com")
	id := resource.IDOf(session.User)

	_, err := f.auth.UpdatePassword(context.Background(), id, resource.Document{
		"passwordCurrent": "wrong", "password": "newpass123", "passwordConfirm": "newpass123",
	})
	assert.EqualError(t, err, MessageWrongPassword)

	f.auth.now = func() time.Time { return time.Now().Add(time.Minute) }
	updated, err := f.auth.UpdatePassword(context.Background(), id, resource.Document{
		"passwordCurrent": "pass1234", "password": "newpass123", "passwordConfirm": "newpass123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, updated.Token)

	_, err = f.auth.Authenticate(context.Background(), session.Token)
	assert.EqualError(t, err, MessagePasswordChanged)

	_, err = f.auth.Login(context.Background(), "jonas@example.com", "newpass123")
	require.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "jonas@example.com")

	err := f.auth.ForgotPassword(context.Background(), "nobody@example.com", func(string) string { return "" })
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	err = f.auth.ForgotPassword(context.Background(), "jonas@example.com", func(token string) string {
		return "http://localhost/api/v1/users/resetPassword/" + token
	})
	require.NoError(t, err)
	token := f.mailer.resetURL[strings.LastIndex(f.mailer.resetURL, "/")+1:]
	require.Len(t, token, 64)

	reset := resource.Document{"password": "resetpass1", "passwordConfirm": "resetpass1"}
	session, err := f.auth.ResetPassword(context.Background(), token, reset)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, err = f.auth.ResetPassword(context.Background(), token, reset)
	assert.EqualError(t, err, MessageResetInvalid)

	_, err = f.auth.Login(context.Background(), "jonas@example.com", "resetpass1")
	require.NoError(t, err)
}

func TestResetTokenExpires(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "jonas@example.com")
	require.NoError(t, f.auth.ForgotPassword(context.Background(), "jonas@example.com", func(token string) string { return token }))

	f.auth.now = func() time.Time { return time.Now().Add(domain.ResetTokenTTL + time.Minute) }
	_, err := f.auth.ResetPassword(context.Background(), f.mailer.resetURL, resource.Document{"password": "resetpass1", "passwordConfirm": "resetpass1"})
	assert.EqualError(t, err, MessageResetInvalid)
}

func TestForgotPasswordMailFailure(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "jonas@example.com")
	f.mailer.fail = true

	err := f.auth.ForgotPassword(context.Background(), "jonas@example.com", func(token string) string { return token })
	assert.True(t, apperror.Is(err, apperror.KindStore))
	assert.Contains(t, err.Error(), MessageMailFailed)
}

func TestAccountUpdateAndDeleteMe(t *testing.T) {
	f := newFixture(t)
	session := f.signup(t, "jonas@example.com")
	id := resource.IDOf(session.User)

	_, err := f.account.UpdateMe(context.Background(), id, resource.Document{"password": "x"}, nil)
	assert.EqualError(t, err, MessageNotForPasswords)

	user, err := f.account.UpdateMe(context.Background(), id, resource.Document{"name": "Jonas S", "role": "admin"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Jonas S", user["name"])
	assert.Equal(t, domain.RoleUser, user["role"])

	require.NoError(t, f.account.DeleteMe(context.Background(), id))
	_, err = f.auth.Login(context.Background(), "jonas@example.com", "pass1234")
	assert.EqualError(t, err, MessageIncorrectLogin)
	_, err = f.account.Me(context.Background(), id)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
