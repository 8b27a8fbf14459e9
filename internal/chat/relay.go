package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"aura-chat-backend/internal/gemini"
	"aura-chat-backend/internal/logging"
	"aura-chat-backend/internal/persona"
	"aura-chat-backend/internal/types"
)

// validate is shared; a *validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = validator.New()

// Generator is the upstream call the relay depends on. *gemini.Client
// implements it.
type Generator interface {
	GenerateContent(ctx context.Context, apiKey, prompt string) ([]byte, error)
}

// Relay turns a chat request into a single upstream call and maps the outcome
// to a reply or an *Error. It holds only read-only configuration and is safe
// for concurrent use.
type Relay struct {
	apiKey   string
	persona  persona.Persona
	upstream Generator
	// Timeout bounds the upstream call. Zero means gemini.DefaultTimeout.
	Timeout time.Duration
}

func NewRelay(apiKey string, p persona.Persona, upstream Generator) *Relay {
	return &Relay{
		apiKey:   strings.TrimSpace(apiKey),
		persona:  p,
		upstream: upstream,
		Timeout:  gemini.DefaultTimeout,
	}
}

// RejectBody reports a request body that could not be decoded. The missing
// credential still takes precedence, as it does in Handle.
func (r *Relay) RejectBody(err error) error {
	if r.apiKey == "" {
		return newError(KindConfiguration, msgNoAPIKey, err)
	}
	return newError(KindInvalidRequest, msgBadBody, err)
}

// Handle answers one chat request. On failure the returned error is an *Error
// whose Message can be shown to the caller.
func (r *Relay) Handle(ctx context.Context, req types.ChatRequest) (string, error) {
	log := logging.FromContext(ctx)

	if r.apiKey == "" {
		return "", newError(KindConfiguration, msgNoAPIKey, nil)
	}
	if err := validate.Struct(req); err != nil {
		return "", newError(KindInvalidRequest, msgNoMessage, err)
	}

	prompt := r.persona.Prompt(req.History, req.Message)

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = gemini.DefaultTimeout
	}
	// The caller going away does not abort the upstream call; only the
	// timeout does.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	start := time.Now()
	raw, err := r.upstream.GenerateContent(ctx, r.apiKey, prompt)
	if errors.Is(err, gemini.ErrUnexpectedResponse) {
		log.Error("unexpected upstream response", slog.Any("error", err))
		return "", newError(KindUpstreamProtocol, msgBadResponse, err)
	}
	if err != nil {
		attrs := []any{slog.Any("error", err), slog.Duration("elapsed", time.Since(start))}
		var se *gemini.StatusError
		if errors.As(err, &se) {
			attrs = append(attrs, slog.Int("status", se.Code), slog.String("body", string(se.Body)))
		}
		log.Error("upstream request failed", attrs...)
		return "", newError(KindUpstreamUnavailable, msgUnavailable+err.Error(), err)
	}

	text, ok, err := gemini.ExtractText(raw)
	if err != nil {
		log.Error("unexpected upstream response",
			slog.Any("error", err),
			slog.String("body", string(raw)),
		)
		return "", newError(KindUpstreamProtocol, msgBadResponse, err)
	}
	if !ok {
		log.Warn("upstream reply part has no text; using fallback", slog.String("body", string(raw)))
		text = FallbackReply
	}
	log.Debug("chat relayed",
		slog.Int("history_lines", len(req.History)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return strings.TrimSpace(text), nil
}
