package gemini

// GenerationConfig is fixed for every relay call.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Content is one entry of the request's contents list. The relay sends the
// whole prompt as a single text entry; Role and Parts are only set when the
// client is configured for parts-shaped contents.
type Content struct {
	Role  string `json:"role,omitempty"`
	Text  string `json:"text,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

type GenerateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Part.Text is a pointer so that a part without a text field can be told
// apart from a part with empty text.
type Part struct {
	Text *string `json:"text,omitempty"`
}

type Candidate struct {
	Content *struct {
		Parts []Part `json:"parts"`
	} `json:"content"`
	FinishReason string `json:"finishReason,omitempty"`
}

type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}
