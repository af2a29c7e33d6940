package port

import "context"

type Recipient struct {
	Name  string
	Email string
}

// Mailer delivers account emails.
type Mailer interface {
	SendWelcome(ctx context.Context, to Recipient, profileURL string) error
	SendPasswordReset(ctx context.Context, to Recipient, resetURL string) error
}
