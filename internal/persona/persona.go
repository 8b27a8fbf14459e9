package persona

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	HistoryStart = "--- Start of Chat History ---"
	HistoryEnd   = "--- End of Chat History ---"
)

// SpeakerLabel ends every prompt. Callers' history uses the same label, so it
// is not configurable.
const SpeakerLabel = "Aura"

// DefaultSystem is the built-in Aura instruction block. Several lines carry a
// trailing space; the upstream framing depends on the exact bytes.
const DefaultSystem = "You are a compassionate and thoughtful AI chatbot named 'Aura'. \n" +
	"You are trained to provide mental and emotional support. \n" +
	"You must speak in a warm, relatable, and non-judgmental tone. \n" +
	"Your goal is to help users express their feelings and provide grounded, realistic advice or reflections based on what they say. \n" +
	"You do not diagnose, but you support users emotionally and suggest small, meaningful actions they can take.\n" +
	"Always try to ask a follow-up question to encourage reflection and conversation.\n" +
	"When a user expresses sadness, anxiety, fear, or self-doubt, respond with empathy and give a practical and gentle suggestion.\n" +
	"Use relatable language (like a wise, kind friend) and AVOID clichés or toxic positivity (e.g., \"just be positive!\", \"everything happens for a reason\").\n" +
	"Keep your responses concise, around 2-4 sentences.\n" +
	"You can suggest quick replies by ending your message with bracketed options, like: That sounds tough. Would you like to talk more about it? [Yes] [Tell me more]\n" +
	"You can display an image by using the format [image: URL_OF_IMAGE].\n"

// Persona is the fixed preamble prepended to every upstream prompt. It is set
// up once at start-up and never mutated afterwards.
type Persona struct {
	System string `yaml:"system"`
}

// Default returns the built-in Aura persona.
func Default() Persona {
	return Persona{System: DefaultSystem}
}

// Load reads a persona override from a YAML file. An empty path or a missing
// file yields the built-in persona.
func Load(path string) (Persona, bool, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), false, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), false, nil
		}
		return Persona{}, false, fmt.Errorf("read persona %s: %w", path, err)
	}
	var p Persona
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Persona{}, false, fmt.Errorf("parse persona %s: %w", path, err)
	}
	if strings.TrimSpace(p.System) == "" {
		return Persona{}, false, fmt.Errorf("persona %s has no system prompt", path)
	}
	return p, true, nil
}

// Prompt renders the full upstream prompt: the instruction block, the caller's
// history between the two delimiter lines, and the new user turn left open for
// the persona to answer. History lines are used verbatim and in order.
func (p Persona) Prompt(history []string, message string) string {
	var b strings.Builder
	b.WriteString(p.System)
	b.WriteString("\n\n")
	b.WriteString(HistoryStart)
	b.WriteString("\n")
	b.WriteString(strings.Join(history, "\n"))
	b.WriteString("\n")
	b.WriteString(HistoryEnd)
	b.WriteString("\n\nUser: ")
	b.WriteString(message)
	b.WriteString("\n")
	b.WriteString(SpeakerLabel)
	b.WriteString(":")
	return b.String()
}
