package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"aura-chat-backend/internal/gemini"
	"aura-chat-backend/internal/persona"
	"aura-chat-backend/internal/types"
)

type fakeUpstream struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	keys    []string
	body    string
	err     error
}

func (f *fakeUpstream) GenerateContent(_ context.Context, apiKey, prompt string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.keys = append(f.keys, apiKey)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func newTestRelay(key string, up Generator) *Relay {
	return NewRelay(key, persona.Default(), up)
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *chat.Error, got %v", err)
	}
	if ce.Kind != kind {
		t.Fatalf("expected kind %v, got %v (%s)", kind, ce.Kind, ce.Message)
	}
	return ce
}

func TestHandleMissingAPIKey(t *testing.T) {
	for _, req := range []types.ChatRequest{
		{Message: "hello"},
		{Message: "", History: []string{"User: hi"}},
		{},
	} {
		up := &fakeUpstream{body: `{}`}
		_, err := newTestRelay("  ", up).Handle(context.Background(), req)
		ce := requireKind(t, err, KindConfiguration)
		if ce.Message != "API key is not configured on the server." {
			t.Errorf("unexpected message %q", ce.Message)
		}
		if ce.Kind.Status() != http.StatusInternalServerError {
			t.Errorf("unexpected status %d", ce.Kind.Status())
		}
		if up.calls != 0 {
			t.Errorf("upstream called %d times without a key", up.calls)
		}
	}
}

func TestHandleEmptyMessage(t *testing.T) {
	for _, history := range [][]string{nil, {"User: earlier"}} {
		up := &fakeUpstream{body: `{}`}
		_, err := newTestRelay("key", up).Handle(context.Background(), types.ChatRequest{History: history})
		ce := requireKind(t, err, KindInvalidRequest)
		if ce.Message != "No message provided." || ce.Kind.Status() != http.StatusBadRequest {
			t.Errorf("unexpected error %q / %d", ce.Message, ce.Kind.Status())
		}
		if up.calls != 0 {
			t.Errorf("upstream called for an empty message")
		}
	}
}

func TestHandleSuccessTrimsReply(t *testing.T) {
	up := &fakeUpstream{body: `{"candidates":[{"content":{"parts":[{"text":" Hi there "}]}}]}`}
	history := []string{"User: I feel off", "Aura: I'm here. What happened?"}

	reply, err := newTestRelay("key", up).Handle(context.Background(), types.ChatRequest{Message: "work stuff", History: history})
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if reply != "Hi there" {
		t.Errorf("expected trimmed reply, got %q", reply)
	}
	if up.calls != 1 || up.keys[0] != "key" {
		t.Fatalf("expected one call with the key, got %d %v", up.calls, up.keys)
	}
	if want := persona.Default().Prompt(history, "work stuff"); up.prompts[0] != want {
		t.Errorf("upstream prompt mismatch\n got: %q\nwant: %q", up.prompts[0], want)
	}
}

func TestHandleFallbackReply(t *testing.T) {
	up := &fakeUpstream{body: `{"candidates":[{"content":{"parts":[{}]}}]}`}
	reply, err := newTestRelay("key", up).Handle(context.Background(), types.ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if reply != "Sorry, I couldn't process that." {
		t.Errorf("expected fallback reply, got %q", reply)
	}
}

func TestHandleUpstreamProtocolErrors(t *testing.T) {
	for _, body := range []string{
		`{"candidates":[]}`,
		`{}`,
		`{"candidates":[{"finishReason":"SAFETY"}]}`,
		`{"candidates":[{"content":{"parts":[]}}]}`,
		`not json`,
	} {
		up := &fakeUpstream{body: body}
		_, err := newTestRelay("key", up).Handle(context.Background(), types.ChatRequest{Message: "hi"})
		ce := requireKind(t, err, KindUpstreamProtocol)
		if ce.Message != "The AI service returned an unexpected response format." {
			t.Errorf("%s: unexpected message %q", body, ce.Message)
		}
		if strings.Contains(ce.Message, "candidates") {
			t.Errorf("%s: response shape leaked to caller", body)
		}
	}
}

func TestHandleTransportError(t *testing.T) {
	up := &fakeUpstream{err: errors.New("dial tcp: connection refused")}
	_, err := newTestRelay("key", up).Handle(context.Background(), types.ChatRequest{Message: "hi"})
	ce := requireKind(t, err, KindUpstreamUnavailable)
	if ce.Message != "Failed to connect to the AI service: dial tcp: connection refused" {
		t.Errorf("unexpected message %q", ce.Message)
	}
}

func TestHandleNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	relay := newTestRelay("secret", gemini.NewClient(srv.URL, "m", false))
	_, err := relay.Handle(context.Background(), types.ChatRequest{Message: "hi"})
	ce := requireKind(t, err, KindUpstreamUnavailable)
	if !strings.HasPrefix(ce.Message, "Failed to connect to the AI service: ") || !strings.Contains(ce.Message, "429") {
		t.Errorf("unexpected message %q", ce.Message)
	}
	if strings.Contains(ce.Message, "quota") {
		t.Error("upstream body leaked to caller")
	}
}

func TestHandleUpstreamTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	relay := newTestRelay("secret", gemini.NewClient(srv.URL, "m", false))
	relay.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := relay.Handle(context.Background(), types.ChatRequest{Message: "hi"})
	ce := requireKind(t, err, KindUpstreamUnavailable)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", ce.Err)
	}
	if !strings.Contains(ce.Message, "deadline exceeded") {
		t.Errorf("message does not identify the timeout: %q", ce.Message)
	}
	if strings.Contains(ce.Message, "secret") {
		t.Error("API key leaked to caller")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout was not enforced")
	}
}

func TestHandleIgnoresCallerCancellation(t *testing.T) {
	up := &fakeUpstream{body: `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := newTestRelay("key", up).Handle(ctx, types.ChatRequest{Message: "hi"})
	if err != nil || reply != "ok" {
		t.Fatalf("got (%q, %v)", reply, err)
	}
}

func TestHandleIsIdempotent(t *testing.T) {
	up := &fakeUpstream{body: `{"candidates":[{"content":{"parts":[{"text":"same"}]}}]}`}
	relay := newTestRelay("key", up)
	req := types.ChatRequest{Message: "hi", History: []string{"User: a", "Aura: b"}}

	var wg sync.WaitGroup
	replies := make([]string, 8)
	for i := range replies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			replies[i], _ = relay.Handle(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i, r := range replies {
		if r != "same" {
			t.Errorf("reply %d = %q", i, r)
		}
		if up.prompts[i] != up.prompts[0] {
			t.Errorf("prompt %d differs", i)
		}
	}
	if len(req.History) != 2 || req.History[0] != "User: a" {
		t.Error("history was mutated")
	}
}

func TestHandleOversizedUpstreamBody(t *testing.T) {
	up := &fakeUpstream{err: gemini.ErrTooLarge}
	_, err := newTestRelay("key", up).Handle(context.Background(), types.ChatRequest{Message: "hi"})
	ce := requireKind(t, err, KindUpstreamProtocol)
	if ce.Message != "The AI service returned an unexpected response format." {
		t.Errorf("unexpected message %q", ce.Message)
	}
	if !errors.Is(err, gemini.ErrTooLarge) {
		t.Errorf("cause not kept: %v", err)
	}
}

func TestRejectBody(t *testing.T) {
	cause := errors.New("json: cannot unmarshal number into Go struct field")

	ce := requireKind(t, newTestRelay("key", &fakeUpstream{}).RejectBody(cause), KindInvalidRequest)
	if ce.Message != "Invalid request body." {
		t.Errorf("unexpected message %q", ce.Message)
	}
	if ce.Kind.Status() != http.StatusBadRequest {
		t.Errorf("unexpected status %d", ce.Kind.Status())
	}
	if !errors.Is(ce, cause) {
		t.Error("decode error not wrapped")
	}

	requireKind(t, newTestRelay("", &fakeUpstream{}).RejectBody(cause), KindConfiguration)
}

func TestZeroRelay(t *testing.T) {
	var r Relay
	_, err := r.Handle(context.Background(), types.ChatRequest{Message: "hi"})
	requireKind(t, err, KindConfiguration)
}

func TestKindString(t *testing.T) {
	if KindUpstreamProtocol.String() != "upstream_protocol_error" || Kind(0).String() != "unknown" {
		t.Error("unexpected kind names")
	}
}
