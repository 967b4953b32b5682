// Package email provides transactional email sending for the Stackpad
// application.
//
// The dispatcher renders a named template from a closed set with a data
// payload and sends the result through an SMTP transport. There is exactly
// one send attempt per call: no queue, no retry.
package email

import (
	"context"
)

// Template identifies one of the transactional email templates.
// The set is closed; rendering an unknown name fails the send.
type Template string

const (
	TemplateConfirmPayment Template = "confirm-payment"
	TemplateResetPassword  Template = "reset-password"
	TemplateVerifyEmail    Template = "verify-email"
	TemplateWelcome        Template = "welcome"
)

// DefaultSubject is used when the caller does not supply a subject.
const DefaultSubject = "Notification"

// Mailer defines the interface for sending transactional emails.
//
// Send is the generic entry point; the typed helpers fix the template name
// and data shape per mail kind (the data shape is the caller's
// responsibility to supply completely).
type Mailer interface {
	// Send renders the named template with data and transmits the result.
	// A missing template fails the call; the error is propagated, never
	// swallowed.
	Send(ctx context.Context, to, subject string, tmpl Template, data map[string]any) error

	// SendWelcome sends the post-signup welcome email.
	SendWelcome(ctx context.Context, to, name string) error

	// SendVerifyEmail sends an email verification link.
	SendVerifyEmail(ctx context.Context, to, name, url string) error

	// SendResetPassword sends a password reset link.
	SendResetPassword(ctx context.Context, to, name, url string) error

	// SendConfirmPayment confirms a successful subscription payment.
	SendConfirmPayment(ctx context.Context, to string, data ConfirmPaymentData) error
}

// ConfirmPaymentData is the payload for the confirm-payment template.
type ConfirmPaymentData struct {
	Name       string
	OrderID    string
	Amount     float64
	Currency   string
	InvoiceURL string
}

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "noreply@stackpad.dev"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Stackpad"
)
