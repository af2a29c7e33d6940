package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/application/port"
	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resource "toursApi/internal/modules/resource/domain"
	mailport "toursApi/internal/modules/users/application/port"
	"toursApi/internal/modules/users/domain"
	"toursApi/internal/shared/apperror"
	"toursApi/internal/shared/auth"
)

const (
	MessageMissingCredentials = "Please provide email and password!"
	MessageIncorrectLogin     = "Incorrect email or password"
	MessageNotLoggedIn        = "You are not logged in! Please log in to get access."
	MessageUserGone           = "The user belonging to this token does no longer exist."
	MessagePasswordChanged    = "User recently changed password! Please log in again."
	MessageInvalidToken       = "Invalid token. Please log in again!"
	MessageExpiredToken       = "Your token has expired! Please log in again."
	MessageNoSuchEmail        = "There is no user with that email address."
	MessageMailFailed         = "There was an error sending the email. Try again later!"
	MessageResetInvalid       = "Token is invalid or has expired"
	MessageWrongPassword      = "Your current password is wrong."
)

// Session is a signed-in user with their token.
type Session struct {
	Token   string
	Expires time.Time
	User    resource.Document
}

type Tokens interface {
	auth.TokenIssuer
	auth.TokenValidator
}

// AuthService signs users up and in and manages their passwords.
type AuthService struct {
	users  *resourceusecase.Service
	tokens Tokens
	hasher auth.PasswordHasher
	mailer mailport.Mailer
	now    func() time.Time
}

func NewAuthService(users *resourceusecase.Service, tokens Tokens, hasher auth.PasswordHasher, mailer mailport.Mailer) *AuthService {
	return &AuthService{users: users, tokens: tokens, hasher: hasher, mailer: mailer, now: time.Now}
}

// Signup creates a user from the public fields of payload. The role is
// always the default one.
func (s *AuthService) Signup(ctx context.Context, payload resource.Document, profileURL string) (*Session, error) {
	doc := pick(payload, domain.FieldName, domain.FieldEmail, domain.FieldPassword, domain.FieldPasswordConfirm)
	user, err := s.users.CreateOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendWelcome(ctx, recipient(user), profileURL); err != nil {
		slog.Warn("welcome mail failed", slog.String("userId", resource.IDOf(user)), slog.Any("error", err))
	}
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.BadRequest(MessageMissingCredentials)
	}
	user, err := s.users.Store().FindOne(ctx, query.FilterExpression{domain.FieldEmail: query.Eq(email)}, port.WithHidden(), port.WithoutPopulate())
	if errors.Is(err, port.ErrRecordNotFound) {
		return nil, apperror.Unauthorized(MessageIncorrectLogin)
	}
	if err != nil {
		return nil, resourceusecase.Classify(err)
	}
	hash, _ := user[domain.FieldPassword].(string)
	if hash == "" || s.hasher.Compare(hash, password) != nil {
		return nil, apperror.Unauthorized(MessageIncorrectLogin)
	}
	return s.session(user)
}

// Authenticate resolves a token to the current user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (resource.Document, error) {
	claims, err := s.tokens.Validate(token)
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return nil, apperror.Unauthorized(MessageNotLoggedIn)
	case errors.Is(err, auth.ErrExpiredToken):
		return nil, apperror.Unauthorized(MessageExpiredToken)
	case err != nil:
		return nil, apperror.Unauthorized(MessageInvalidToken)
	}

	user, err := s.users.Store().FindByID(ctx, claims.Subject, port.WithoutPopulate())
	if errors.Is(err, port.ErrRecordNotFound) || errors.Is(err, port.ErrInvalidID) {
		return nil, apperror.Unauthorized(MessageUserGone)
	}
	if err != nil {
		return nil, resourceusecase.Classify(err)
	}
	if domain.ChangedPasswordAfter(user, claims) {
		return nil, apperror.Unauthorized(MessagePasswordChanged)
	}
	domain.Present(user)
	return user, nil
}

// ForgotPassword stores a reset token digest and mails the plain token.
// resetURL receives the plain token and returns the link to send.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.Store().FindOne(ctx, query.FilterExpression{domain.FieldEmail: query.Eq(email)}, port.WithoutPopulate())
	if errors.Is(err, port.ErrRecordNotFound) {
		return apperror.NotFound(MessageNoSuchEmail)
	}
	if err != nil {
		return resourceusecase.Classify(err)
	}

	plain, digest, err := auth.NewResetToken()
	if err != nil {
		return apperror.Unexpected(err)
	}
	id := resource.IDOf(user)
	_, err = s.users.Store().UpdateByID(ctx, id, resource.Document{
		domain.FieldPasswordResetToken:   digest,
		domain.FieldPasswordResetExpires: s.now().Add(domain.ResetTokenTTL).UTC(),
	})
	if err != nil {
		return resourceusecase.Classify(err)
	}

	if err := s.mailer.SendPasswordReset(ctx, recipient(user), resetURL(plain)); err != nil {
		slog.Error("password reset mail failed", slog.String("userId", id), slog.Any("error", err))
		if _, clearErr := s.users.Store().UpdateByID(ctx, id, clearedReset()); clearErr != nil {
			slog.Error("clear reset token failed", slog.String("userId", id), slog.Any("error", clearErr))
		}
		return apperror.Store(MessageMailFailed, err)
	}
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token string, payload resource.Document) (*Session, error) {
	filter := query.FilterExpression{
		domain.FieldPasswordResetToken:   query.Eq(auth.HashResetToken(token)),
		domain.FieldPasswordResetExpires: query.Cmp(query.OpGt, s.now().UTC().Format(time.RFC3339Nano)),
	}
	user, err := s.users.Store().FindOne(ctx, filter, port.WithoutPopulate())
	if errors.Is(err, port.ErrRecordNotFound) {
		return nil, apperror.BadRequest(MessageResetInvalid)
	}
	if err != nil {
		return nil, resourceusecase.Classify(err)
	}

	changes, err := s.newPassword(payload)
	if err != nil {
		return nil, err
	}
	for field, value := range clearedReset() {
		changes[field] = value
	}
	updated, err := s.users.Store().UpdateByID(ctx, resource.IDOf(user), changes)
	if err != nil {
		return nil, resourceusecase.Classify(err)
	}
	return s.session(updated)
}

// UpdatePassword changes the password of a signed-in user who knows the
// current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID string, payload resource.Document) (*Session, error) {
	user, err := s.users.Store().FindByID(ctx, userID, port.WithHidden(), port.WithoutPopulate())
	if err != nil {
		return nil, resourceusecase.Classify(err)
	}
	current, _ := payload["passwordCurrent"].(string)
	hash, _ := user[domain.FieldPassword].(string)
	if current == "" || s.hasher.Compare(hash, current) != nil {
		return nil, apperror.Unauthorized(MessageWrongPassword)
	}

	changes, err := s.newPassword(payload)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.Store().UpdateByID(ctx, userID, changes)
	if err != nil {
		return nil, resourceusecase.Classify(err)
	}
	return s.session(updated)
}

// newPassword validates and hashes the password of payload. The change is
// stamped a second early so that the token issued right after stays valid.
func (s *AuthService) newPassword(payload resource.Document) (resource.Document, error) {
	creds, err := domain.DecodeCredentials(pick(payload, domain.FieldPassword, domain.FieldPasswordConfirm))
	if err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return resource.Document{
		domain.FieldPassword:          hashed,
		domain.FieldPasswordChangedAt: s.now().Add(-time.Second).UTC(),
	}, nil
}

func (s *AuthService) session(user resource.Document) (*Session, error) {
	token, expires, err := s.tokens.Issue(resource.IDOf(user))
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	public := domain.Public(user)
	domain.Present(public)
	return &Session{Token: token, Expires: expires, User: public}, nil
}

func clearedReset() resource.Document {
	return resource.Document{
		domain.FieldPasswordResetToken:   nil,
		domain.FieldPasswordResetExpires: nil,
	}
}

func recipient(user resource.Document) mailport.Recipient {
	name, _ := user[domain.FieldName].(string)
	email, _ := user[domain.FieldEmail].(string)
	return mailport.Recipient{Name: name, Email: email}
}

func pick(payload resource.Document, fields ...string) resource.Document {
	out := make(resource.Document, len(fields))
	for _, field := range fields {
		if value, ok := payload[field]; ok {
			out[field] = value
		}
	}
	return out
}
