package chat

import "net/http"

type Kind int

const (
	// KindConfiguration: the server has no upstream credential.
	KindConfiguration Kind = iota + 1
	// KindInvalidRequest: the caller sent no message or an undecodable body.
	KindInvalidRequest
	// KindUpstreamUnavailable: dial error, timeout or non-2xx from upstream.
	KindUpstreamUnavailable
	// KindUpstreamProtocol: upstream answered 2xx without a usable reply.
	KindUpstreamProtocol
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration_error"
	case KindInvalidRequest:
		return "invalid_request"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindUpstreamProtocol:
		return "upstream_protocol_error"
	default:
		return "unknown"
	}
}

// Status is the HTTP status a failure of this kind is reported with.
func (k Kind) Status() int {
	if k == KindInvalidRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

const (
	msgNoAPIKey    = "API key is not configured on the server."
	msgNoMessage   = "No message provided."
	msgBadBody     = "Invalid request body."
	msgUnavailable = "Failed to connect to the AI service: "
	msgBadResponse = "The AI service returned an unexpected response format."

	// FallbackReply stands in for a reply part that carries no text.
	FallbackReply = "Sorry, I couldn't process that."
)

// Error is a terminal failure of a chat request. Message is safe to return to
// the caller; Err holds the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
