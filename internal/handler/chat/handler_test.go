package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	relaymodel "github.com/solenlabs/agent-relay/backend/internal/model/relay"
)

type stubRunner struct {
	gotSession string
	gotInput   string
	result     *relaymodel.Result
	err        error
}

func (s *stubRunner) Run(_ context.Context, sessionID, inputText string) (*relaymodel.Result, error) {
	s.gotSession = sessionID
	s.gotInput = inputText
	return s.result, s.err
}

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleChatRunsInvocation(t *testing.T) {
	runner := &stubRunner{result: &relaymodel.Result{Message: "hello there"}}
	h := New(runner)

	rec := post(t, h, `{"message": "hi", "sessionId": "session-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if runner.gotSession != "session-1" || runner.gotInput != "hi" {
		t.Fatalf("runner got session=%q input=%q", runner.gotSession, runner.gotInput)
	}
	if !strings.Contains(rec.Body.String(), "hello there") {
		t.Fatalf("response missing message: %s", rec.Body.String())
	}
}

func TestHandleChatDefaultsSession(t *testing.T) {
	runner := &stubRunner{result: &relaymodel.Result{}}
	h := New(runner)

	rec := post(t, h, `{"message": "hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if runner.gotSession != DefaultSessionID {
		t.Fatalf("expected default session, got %q", runner.gotSession)
	}
}

func TestHandleChatRequiresMessage(t *testing.T) {
	h := New(&stubRunner{})

	rec := post(t, h, `{"sessionId": "session-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestHandleChatSurfacesInvocationFailure(t *testing.T) {
	h := New(&stubRunner{err: errors.New("agent stream failed")})

	rec := post(t, h, `{"message": "hi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "agent stream failed") {
		t.Fatalf("response missing error: %s", rec.Body.String())
	}
}
