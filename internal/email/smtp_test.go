package email

import (
	"bytes"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

func mailTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func newTestMailer(t *testing.T) *SMTPMailer {
	t.Helper()
	m, err := NewSMTPMailer(SMTPConfig{
		Host: "localhost",
		Port: 1025,
	}, "../../web/templates/email", mailTestLogger())
	if err != nil {
		t.Fatalf("mailer construction failed: %v", err)
	}
	return m
}

func render(t *testing.T, m *SMTPMailer, tmpl Template, data map[string]any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, string(tmpl)+".html", data); err != nil {
		t.Fatalf("render %q failed: %v", tmpl, err)
	}
	return buf.String()
}

func TestNewSMTPMailer_FailsWhenTemplateMissing(t *testing.T) {
	dir := t.TempDir()
	// Only one of the four required templates present.
	if err := os.WriteFile(dir+"/welcome.html", []byte("<p>Hi {{.Name}}</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewSMTPMailer(SMTPConfig{}, dir, mailTestLogger())
	if err == nil {
		t.Fatal("expected construction to fail with missing templates")
	}
	if !strings.Contains(err.Error(), "missing email template") {
		t.Errorf("err = %v", err)
	}
}

func TestTemplates_RenderWelcome(t *testing.T) {
	m := newTestMailer(t)

	out := render(t, m, TemplateWelcome, map[string]any{"Name": "Jo"})
	if !strings.Contains(out, "Jo") {
		t.Error("recipient name missing from welcome mail")
	}
	if !strings.Contains(out, strconv.Itoa(time.Now().Year())) {
		t.Error("footer year missing")
	}
}

func TestTemplates_RenderVerifyEmail(t *testing.T) {
	m := newTestMailer(t)

	out := render(t, m, TemplateVerifyEmail, map[string]any{
		"Name": "Jo",
		"URL":  "http://localhost:8080/api/auth/verify-email?token=tok",
	})
	if !strings.Contains(out, "verify-email?token=tok") {
		t.Error("verification link missing")
	}
}

func TestTemplates_RenderResetPassword(t *testing.T) {
	m := newTestMailer(t)

	out := render(t, m, TemplateResetPassword, map[string]any{
		"Name": "Jo",
		"URL":  "http://localhost:5173/reset-password?token=tok",
	})
	if !strings.Contains(out, "reset-password?token=tok") {
		t.Error("reset link missing")
	}
}

func TestTemplates_RenderConfirmPayment(t *testing.T) {
	m := newTestMailer(t)

	out := render(t, m, TemplateConfirmPayment, map[string]any{
		"Name":       "Jo",
		"OrderID":    "INV-0042",
		"Amount":     "10.00",
		"Currency":   "usd",
		"InvoiceURL": "https://invoice.example/in_1",
	})
	if !strings.Contains(out, "INV-0042") {
		t.Error("order id missing")
	}
	if !strings.Contains(out, "10.00") {
		t.Error("amount missing")
	}
	if !strings.Contains(out, "https://invoice.example/in_1") {
		t.Error("invoice link missing")
	}
}

func TestTemplates_ConfirmPaymentWithoutInvoiceURL(t *testing.T) {
	m := newTestMailer(t)

	out := render(t, m, TemplateConfirmPayment, map[string]any{
		"Name":     "Jo",
		"OrderID":  "INV-0042",
		"Amount":   "10.00",
		"Currency": "usd",
	})
	if strings.Contains(out, "href=\"\"") {
		t.Error("empty invoice link rendered")
	}
}

func TestBuildMessage_SingleHTMLPart(t *testing.T) {
	m := newTestMailer(t)

	msg := string(m.buildMessage("jo@example.com", "Hello", "<p>body</p>"))
	for _, want := range []string{
		"To: jo@example.com",
		"Subject: Hello",
		"Content-Type: text/html",
		"<p>body</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}
