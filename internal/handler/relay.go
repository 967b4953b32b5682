// Package handler contains the public HTTP handlers: the auth relay, the
// plan catalog, and the signed-in account surface.
package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mwestcott/stackpad/internal/authcore"
	"github.com/mwestcott/stackpad/internal/metrics"
)

// Failure tags carried in relay-level error bodies. Handler-level errors from
// the engine pass through untagged; these mark failures of the relay itself.
const (
	webhookFailureCode = "WEBHOOK_FAILURE"
	authFailureCode    = "AUTH_FAILURE"
)

// maxRelayBody bounds request bodies accepted on the relay (1MB, matching
// the engine's own webhook read limit).
const maxRelayBody = 1 << 20

// AuthRelay fronts the embedded auth engine. It owns the two relay paths:
// the raw-byte webhook path, whose body must reach the engine bit-for-bit
// for signature verification, and the generic path, which re-serializes
// JSON bodies before forwarding.
type AuthRelay struct {
	engine http.Handler
	logger *slog.Logger
}

// NewAuthRelay creates a relay in front of the given engine.
func NewAuthRelay(engine http.Handler, logger *slog.Logger) *AuthRelay {
	return &AuthRelay{
		engine: engine,
		logger: logger,
	}
}

// HandleWebhook relays Stripe webhook deliveries. The body is forwarded
// exactly as received; any transformation would break signature checks.
func (rl *AuthRelay) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRelayBody))
	if err != nil {
		rl.fail(w, "webhook", webhookFailureCode, "Webhook processing failed", err)
		return
	}
	rl.relay(w, r, body, "webhook", webhookFailureCode, "Webhook processing failed")
}

// HandleAuth relays every other auth route. JSON bodies are decoded and
// re-encoded before forwarding, so malformed payloads are rejected here
// rather than deep inside the engine.
func (rl *AuthRelay) HandleAuth(w http.ResponseWriter, r *http.Request) {
	// The webhook route has its own registration; a delivery that lands here
	// anyway must not go through the JSON round-trip.
	if r.URL.Path == authcore.WebhookPath {
		rl.HandleWebhook(w, r)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRelayBody))
	if err != nil {
		rl.fail(w, "auth", authFailureCode, "Authentication request failed", err)
		return
	}

	body := raw
	if len(bytes.TrimSpace(raw)) > 0 {
		var payload any
		if err := json.Unmarshal(raw, &payload); err != nil {
			rl.fail(w, "auth", authFailureCode, "Authentication request failed", err)
			return
		}
		body, err = json.Marshal(payload)
		if err != nil {
			rl.fail(w, "auth", authFailureCode, "Authentication request failed", err)
			return
		}
	}

	rl.relay(w, r, body, "auth", authFailureCode, "Authentication request failed")
}

// relay rebuilds the inbound request around the prepared body, invokes the
// engine against an in-memory recorder, and mirrors the recorded response
// verbatim. Engine panics surface as tagged 500s instead of killing the
// connection.
func (rl *AuthRelay) relay(w http.ResponseWriter, r *http.Request, body []byte, kind, code, message string) {
	req, err := http.NewRequestWithContext(r.Context(), r.Method, r.URL.String(), bytes.NewReader(body))
	if err != nil {
		rl.fail(w, kind, code, message, err)
		return
	}
	copyHeader(req.Header, r.Header)
	req.ContentLength = int64(len(body))
	req.Host = r.Host
	req.RemoteAddr = r.RemoteAddr

	rec := newRecorder()
	if err := rl.invoke(rec, req); err != nil {
		rl.fail(w, kind, code, message, err)
		return
	}

	metrics.RelayRequestsTotal.WithLabelValues(kind, strconv.Itoa(rec.status)).Inc()

	copyHeader(w.Header(), rec.header)
	w.WriteHeader(rec.status)
	if _, err := w.Write(rec.body.Bytes()); err != nil {
		rl.logger.Error("failed to write relayed response", "error", err)
	}
}

// invoke runs the engine, converting a panic into an error return.
func (rl *AuthRelay) invoke(rec *recorder, req *http.Request) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &enginePanicError{value: p}
		}
	}()
	rl.engine.ServeHTTP(rec, req)
	return nil
}

// fail writes a relay-level failure body. The status is always 500; the tag
// tells clients which relay path broke.
func (rl *AuthRelay) fail(w http.ResponseWriter, kind, code, message string, err error) {
	rl.logger.Error("relay failure", "kind", kind, "code", code, "error", err)
	metrics.RelayFailuresTotal.WithLabelValues(kind).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}

// copyHeader copies headers, dropping empty values. Some clients send
// headers with empty string values that confuse the engine's parsing.
func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			if value == "" {
				continue
			}
			dst.Add(key, value)
		}
	}
}

type enginePanicError struct {
	value any
}

func (e *enginePanicError) Error() string {
	return "auth engine panic: " + panicString(e.value)
}

func panicString(v any) string {
	switch t := v.(type) {
	case error:
		return t.Error()
	case string:
		return t
	default:
		return "unknown panic"
	}
}

// recorder is an in-memory http.ResponseWriter capturing the engine's
// response so the relay can mirror it.
type recorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newRecorder() *recorder {
	return &recorder{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (rec *recorder) Header() http.Header {
	return rec.header
}

func (rec *recorder) Write(b []byte) (int, error) {
	rec.wroteHeader = true
	return rec.body.Write(b)
}

func (rec *recorder) WriteHeader(status int) {
	if rec.wroteHeader {
		return
	}
	rec.status = status
	rec.wroteHeader = true
}
