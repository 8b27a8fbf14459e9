package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	// Gemini
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	GeminiContentParts bool
	// Origins allowed to call /chat from a browser
	AllowedOrigins []string
	// Optional persona override; the built-in Aura prompt is used when missing
	PersonaFile string
	// Optional directory with index.html and messenger.html; embedded pages otherwise
	TemplatesDir string
	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

var defaultOrigins = []string{"https://YOUR_VERCEL_URL_HERE", "http://127.0.0.1:5000"}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:               getEnvDefault("PORT", "8080"),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:        getEnvDefault("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		GeminiBaseURL:      getEnvDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiContentParts: getEnvBoolDefault("GEMINI_CONTENT_PARTS", false),
		AllowedOrigins:     getEnvListDefault("ALLOWED_ORIGINS", defaultOrigins),
		PersonaFile:        getEnvDefault("PERSONA_FILE", "prompts/persona.yaml"),
		TemplatesDir:       os.Getenv("TEMPLATES_DIR"),
		LogLevel:           getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvDefault("LOG_FORMAT", "json"),
		LogFile:            os.Getenv("LOG_FILE"),
	}
	return cfg
}

// Warn reports settings that will make requests fail at runtime. A missing key
// is not fatal: /chat answers with a configuration error until one is provided.
func (c Config) Warn(logger *slog.Logger) {
	if c.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; /chat will fail until provided")
	}
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return append([]string(nil), def...)
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
