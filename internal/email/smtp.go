package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"path/filepath"
	"time"

	"github.com/mwestcott/stackpad/internal/metrics"
)

// SMTPMailer sends templated emails via SMTP.
//
// This implementation works with:
// - Mailhog (development): No authentication required
// - Any standard SMTP server with PLAIN auth (production)
//
// Templates are loaded once at construction from the templates directory and
// rendered with Go's html/template package.
type SMTPMailer struct {
	config    SMTPConfig
	templates *template.Template
	logger    *slog.Logger
}

// NewSMTPMailer creates a new SMTP-based mail dispatcher.
//
// templatesDir must contain one .html file per Template constant
// (e.g. web/templates/email/welcome.html). A missing or malformed template
// file fails construction.
func NewSMTPMailer(config SMTPConfig, templatesDir string, logger *slog.Logger) (*SMTPMailer, error) {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	pattern := filepath.Join(templatesDir, "*.html")
	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	for _, tmpl := range []Template{TemplateConfirmPayment, TemplateResetPassword, TemplateVerifyEmail, TemplateWelcome} {
		if templates.Lookup(string(tmpl)+".html") == nil {
			return nil, fmt.Errorf("missing email template %q in %s", tmpl, templatesDir)
		}
	}

	return &SMTPMailer{
		config:    config,
		templates: templates,
		logger:    logger,
	}, nil
}

// Send renders the named template with data and transmits the result.
func (m *SMTPMailer) Send(ctx context.Context, to, subject string, tmpl Template, data map[string]any) error {
	if subject == "" {
		subject = DefaultSubject
	}

	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, string(tmpl)+".html", data); err != nil {
		return fmt.Errorf("failed to render email template %q: %w", tmpl, err)
	}

	msg := m.buildMessage(to, subject, buf.String())
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)

	// Mailhog needs no auth
	var auth smtp.Auth
	if m.config.Username != "" && m.config.Password != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, msg); err != nil {
		metrics.EmailsSentTotal.WithLabelValues(string(tmpl), "error").Inc()
		m.logger.Error("failed to send email",
			"to", to,
			"template", string(tmpl),
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	metrics.EmailsSentTotal.WithLabelValues(string(tmpl), "sent").Inc()
	m.logger.Info("email sent", "to", to, "template", string(tmpl), "subject", subject)
	return nil
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, to, name string) error {
	return m.Send(ctx, to, "Welcome to Stackpad", TemplateWelcome, map[string]any{
		"Name": name,
	})
}

func (m *SMTPMailer) SendVerifyEmail(ctx context.Context, to, name, url string) error {
	return m.Send(ctx, to, "Verify your email", TemplateVerifyEmail, map[string]any{
		"Name": name,
		"URL":  url,
	})
}

func (m *SMTPMailer) SendResetPassword(ctx context.Context, to, name, url string) error {
	return m.Send(ctx, to, "Reset your password", TemplateResetPassword, map[string]any{
		"Name": name,
		"URL":  url,
	})
}

func (m *SMTPMailer) SendConfirmPayment(ctx context.Context, to string, data ConfirmPaymentData) error {
	return m.Send(ctx, to, "Payment confirmation", TemplateConfirmPayment, map[string]any{
		"Name":       data.Name,
		"OrderID":    data.OrderID,
		"Amount":     fmt.Sprintf("%.2f", data.Amount),
		"Currency":   data.Currency,
		"InvoiceURL": data.InvoiceURL,
	})
}

// buildMessage constructs the raw email message with headers.
func (m *SMTPMailer) buildMessage(to, subject, htmlBody string) []byte {
	var buf bytes.Buffer

	fromHeader := fmt.Sprintf("%s <%s>", m.config.FromName, m.config.From)

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(htmlBody)
	buf.WriteString("\r\n")

	return buf.Bytes()
}

// emailTemplateFuncs returns template functions available in email templates.
func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"currentYear": func() int {
			return time.Now().Year()
		},
	}
}

var _ Mailer = (*SMTPMailer)(nil)
