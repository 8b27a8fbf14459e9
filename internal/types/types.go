package types

// ChatRequest is the /chat payload. History holds the caller's prior turns as
// preformatted "User: ..." / "Aura: ..." lines; the server keeps no copy.
type ChatRequest struct {
	Message string   `json:"message" validate:"required"`
	History []string `json:"history,omitempty"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
