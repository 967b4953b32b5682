package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/mwestcott/stackpad/internal/authcore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// recordingEngine captures the request the relay hands to the engine and
// replies with a canned response.
type recordingEngine struct {
	gotBody    []byte
	gotHeader  http.Header
	gotMethod  string
	gotPath    string
	status     int
	respHeader map[string]string
	respBody   string
}

func (e *recordingEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.gotBody, _ = io.ReadAll(r.Body)
	e.gotHeader = r.Header.Clone()
	e.gotMethod = r.Method
	e.gotPath = r.URL.Path

	for k, v := range e.respHeader {
		w.Header().Set(k, v)
	}
	status := e.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(e.respBody))
}

type panickingEngine struct{}

func (panickingEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	panic("engine exploded")
}

func TestHandleWebhook_BodyReachesEngineByteForByte(t *testing.T) {
	// Signature verification depends on the exact bytes, including
	// insignificant whitespace.
	payload := "{\n  \"id\": \"evt_1\",\t\"type\": \"invoice.payment_succeeded\" }"

	engine := &recordingEngine{respBody: "ok"}
	relay := NewAuthRelay(engine, testLogger())

	req := httptest.NewRequest(http.MethodPost, authcore.WebhookPath, strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()

	relay.HandleWebhook(rec, req)

	if string(engine.gotBody) != payload {
		t.Errorf("engine body = %q, want %q", engine.gotBody, payload)
	}
	if got := engine.gotHeader.Get("Stripe-Signature"); got != "t=1,v1=abc" {
		t.Errorf("Stripe-Signature = %q, want preserved", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want mirrored engine body", rec.Body.String())
	}
}

func TestHandleAuth_ReserializesJSONBody(t *testing.T) {
	engine := &recordingEngine{}
	relay := NewAuthRelay(engine, testLogger())

	// Pretty-printed input arrives at the engine as compact JSON.
	body := "{\n  \"email\": \"a@b.co\",\n  \"password\": \"secret\"\n}"
	req := httptest.NewRequest(http.MethodPost, authcore.BasePath+"/sign-in/email", strings.NewReader(body))
	rec := httptest.NewRecorder()

	relay.HandleAuth(rec, req)

	var got map[string]string
	if err := json.Unmarshal(engine.gotBody, &got); err != nil {
		t.Fatalf("engine body is not valid JSON: %v", err)
	}
	if got["email"] != "a@b.co" || got["password"] != "secret" {
		t.Errorf("engine body = %q, fields lost in re-serialization", engine.gotBody)
	}
	if strings.ContainsAny(string(engine.gotBody), "\n\t") {
		t.Errorf("engine body = %q, want compact JSON", engine.gotBody)
	}
}

func TestHandleAuth_EmptyBodyForwardedEmpty(t *testing.T) {
	engine := &recordingEngine{}
	relay := NewAuthRelay(engine, testLogger())

	req := httptest.NewRequest(http.MethodGet, authcore.BasePath+"/get-session", nil)
	rec := httptest.NewRecorder()

	relay.HandleAuth(rec, req)

	if len(engine.gotBody) != 0 {
		t.Errorf("engine body = %q, want empty", engine.gotBody)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleAuth_MalformedJSONRejectedBeforeEngine(t *testing.T) {
	engine := &recordingEngine{}
	relay := NewAuthRelay(engine, testLogger())

	req := httptest.NewRequest(http.MethodPost, authcore.BasePath+"/sign-in/email", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	relay.HandleAuth(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["code"] != "AUTH_FAILURE" {
		t.Errorf("code = %q, want AUTH_FAILURE", body["code"])
	}
	if engine.gotMethod != "" {
		t.Error("engine must not be invoked for a malformed body")
	}
}

func TestHandleAuth_WebhookPathShortCircuits(t *testing.T) {
	// A webhook delivery landing on the generic path must keep its raw body;
	// running it through the JSON round-trip would break signature checks.
	engine := &recordingEngine{}
	relay := NewAuthRelay(engine, testLogger())

	payload := "{ \"id\":   \"evt_1\" }"
	req := httptest.NewRequest(http.MethodPost, authcore.WebhookPath, strings.NewReader(payload))
	rec := httptest.NewRecorder()

	relay.HandleAuth(rec, req)

	if string(engine.gotBody) != payload {
		t.Errorf("engine body = %q, want raw bytes %q", engine.gotBody, payload)
	}
}

func TestRelay_SkipsEmptyHeaderValues(t *testing.T) {
	engine := &recordingEngine{}
	relay := NewAuthRelay(engine, testLogger())

	req := httptest.NewRequest(http.MethodPost, authcore.BasePath+"/sign-out", nil)
	req.Header.Set("X-Custom", "value")
	req.Header["X-Empty"] = []string{""}
	rec := httptest.NewRecorder()

	relay.HandleAuth(rec, req)

	if got := engine.gotHeader.Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q, want forwarded", got)
	}
	if _, present := engine.gotHeader["X-Empty"]; present {
		t.Error("empty header value must not be forwarded")
	}
}

func TestRelay_MirrorsEngineResponseVerbatim(t *testing.T) {
	// Engine-level errors pass through untouched; a 404 from the engine is
	// the caller's 404, not a relay failure.
	engine := &recordingEngine{
		status:     http.StatusNotFound,
		respHeader: map[string]string{"Content-Type": "application/json", "X-Engine": "1"},
		respBody:   `{"code":"not_found","message":"No such route"}`,
	}
	relay := NewAuthRelay(engine, testLogger())

	req := httptest.NewRequest(http.MethodPost, authcore.BasePath+"/nope", strings.NewReader("{}"))
	rec := httptest.NewRecorder()

	relay.HandleAuth(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want engine's 404", rec.Code)
	}
	if got := rec.Header().Get("X-Engine"); got != "1" {
		t.Errorf("X-Engine = %q, want mirrored", got)
	}
	if rec.Body.String() != engine.respBody {
		t.Errorf("body = %q, want %q", rec.Body.String(), engine.respBody)
	}
}

func TestHandleWebhook_EnginePanicBecomesTagged500(t *testing.T) {
	relay := NewAuthRelay(panickingEngine{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, authcore.WebhookPath, strings.NewReader("{}"))
	rec := httptest.NewRecorder()

	relay.HandleWebhook(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["code"] != "WEBHOOK_FAILURE" {
		t.Errorf("code = %q, want WEBHOOK_FAILURE", body["code"])
	}
	if body["error"] == "" {
		t.Error("error message missing from failure body")
	}
}

func TestHandleAuth_EnginePanicBecomesTagged500(t *testing.T) {
	relay := NewAuthRelay(panickingEngine{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, authcore.BasePath+"/sign-in/email", strings.NewReader("{}"))
	rec := httptest.NewRecorder()

	relay.HandleAuth(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["code"] != "AUTH_FAILURE" {
		t.Errorf("code = %q, want AUTH_FAILURE", body["code"])
	}
}

func TestRelay_PreservesMethodAndPath(t *testing.T) {
	engine := &recordingEngine{}
	relay := NewAuthRelay(engine, testLogger())

	req := httptest.NewRequest(http.MethodPost, authcore.BasePath+"/forget-password?lang=en", strings.NewReader(`{"email":"a@b.co"}`))
	rec := httptest.NewRecorder()

	relay.HandleAuth(rec, req)

	if engine.gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", engine.gotMethod)
	}
	if engine.gotPath != authcore.BasePath+"/forget-password" {
		t.Errorf("path = %q, want original path", engine.gotPath)
	}
}
