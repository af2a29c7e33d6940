package domain

import (
	"context"
	"strings"
	"time"

	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/auth"
	"toursApi/internal/shared/validation"
)

const (
	Collection = "users"
	Entity     = "user"

	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"

	DefaultPhoto = "default.jpg"

	ResetTokenTTL = 10 * time.Minute
)

// Record fields used outside generic CRUD.
const (
	FieldName                 = "name"
	FieldEmail                = "email"
	FieldPhoto                = "photo"
	FieldRole                 = "role"
	FieldPassword             = "password"
	FieldPasswordConfirm      = "passwordConfirm"
	FieldPasswordChangedAt    = "passwordChangedAt"
	FieldPasswordResetToken   = "passwordResetToken"
	FieldPasswordResetExpires = "passwordResetExpires"
	FieldActive               = "active"
)

// SelfEditable are the fields a user may change on their own profile.
var SelfEditable = []string{FieldName, FieldEmail}

// Profile is the validated shape of a user record without credentials.
type Profile struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
}

// Credentials is validated whenever a password is set.
type Credentials struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

var messages = validation.Messages{
	"name.required":            "Please tell us your name!",
	"email.required":           "Please provide your email",
	"email.email":              "Please provide a valid email",
	"role.oneof":               "Role is either: user, guide, lead-guide or admin",
	"password.required":        "Please provide a password",
	"password.min":             "A password must have at least 8 characters",
	"passwordConfirm.required": "Please confirm your password",
	"passwordConfirm.eqfield":  "Passwords are not the same!",
}

// Validate checks the profile and, unless the record already exists and
// its password is not being changed, the credentials.
func Validate(doc resource.Document) error {
	var profile Profile
	if err := validation.Document(doc, &profile, messages); err != nil {
		return err
	}
	_, existing := doc[resource.IDField]
	_, settingPassword := doc[FieldPassword]
	if existing && !settingPassword {
		return nil
	}
	_, err := DecodeCredentials(doc)
	return err
}

// DecodeCredentials reads and validates the password pair of doc.
func DecodeCredentials(doc resource.Document) (Credentials, error) {
	var creds Credentials
	err := validation.Document(doc, &creds, messages)
	return creds, err
}

func Normalize(doc resource.Document) {
	if email, ok := doc[FieldEmail].(string); ok {
		doc[FieldEmail] = strings.ToLower(strings.TrimSpace(email))
	}
	if name, ok := doc[FieldName].(string); ok {
		doc[FieldName] = strings.TrimSpace(name)
	}
}

func Defaults(doc resource.Document) {
	if v, ok := doc[FieldPhoto]; !ok || v == nil || v == "" {
		doc[FieldPhoto] = DefaultPhoto
	}
	if v, ok := doc[FieldRole]; !ok || v == nil || v == "" {
		doc[FieldRole] = RoleUser
	}
	if _, ok := doc[FieldActive]; !ok {
		doc[FieldActive] = true
	}
}

// HashPassword replaces the plain password with its hash and drops the
// confirmation. Already hashed passwords are kept.
func HashPassword(hasher auth.PasswordHasher) func(ctx context.Context, doc resource.Document) error {
	return func(_ context.Context, doc resource.Document) error {
		delete(doc, FieldPasswordConfirm)
		plain, ok := doc[FieldPassword].(string)
		if !ok || plain == "" || auth.IsHashed(plain) {
			return nil
		}
		hashed, err := hasher.Hash(plain)
		if err != nil {
			return err
		}
		doc[FieldPassword] = hashed
		return nil
	}
}

func Present(doc resource.Document) {
	if id := resource.IDOf(doc); id != "" {
		doc["id"] = id
	}
}

// Public strips credentials from a record read with hidden fields.
func Public(doc resource.Document) resource.Document {
	out := resource.Clone(doc)
	for _, field := range Schema(nil).Hidden {
		delete(out, field)
	}
	delete(out, FieldPasswordConfirm)
	return out
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at issuedAt. Timestamps compare at second precision.
func ChangedPasswordAfter(doc resource.Document, claims *auth.Claims) bool {
	changed, ok := doc[FieldPasswordChangedAt].(time.Time)
	if !ok || changed.IsZero() {
		return false
	}
	return claims.IssuedBefore(changed)
}

func RoleOf(doc resource.Document) string {
	role, _ := doc[FieldRole].(string)
	return role
}

// Schema describes the users collection. A nil hasher leaves passwords
// untouched.
func Schema(hasher auth.PasswordHasher) *resource.Schema {
	s := &resource.Schema{
		Collection: Collection,
		Entity:     Entity,
		Fields: map[string]resource.FieldKind{
			FieldName:                 resource.KindString,
			FieldEmail:                resource.KindString,
			FieldPhoto:                resource.KindString,
			FieldRole:                 resource.KindString,
			FieldPassword:             resource.KindString,
			FieldPasswordConfirm:      resource.KindString,
			FieldPasswordChangedAt:    resource.KindDate,
			FieldPasswordResetToken:   resource.KindString,
			FieldPasswordResetExpires: resource.KindDate,
			FieldActive:               resource.KindBool,
		},
		Hidden: []string{FieldPassword, FieldPasswordResetToken, FieldPasswordResetExpires, FieldActive},
		Protected: []string{
			FieldPassword, FieldPasswordConfirm, FieldPasswordChangedAt,
			FieldPasswordResetToken, FieldPasswordResetExpires, FieldActive,
		},
		Excluded: map[string]any{FieldActive: false},
		Indexes: []resource.Index{
			{Keys: []resource.IndexKey{{Field: FieldEmail, Order: 1}}, Unique: true},
		},
		Normalize: Normalize,
		Defaults:  Defaults,
		Validate:  Validate,
		Present:   Present,
	}
	if hasher != nil {
		s.BeforeSave = HashPassword(hasher)
	}
	return s
}
