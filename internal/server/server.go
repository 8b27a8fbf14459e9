package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"aura-chat-backend/internal/chat"
	"aura-chat-backend/internal/config"
	"aura-chat-backend/internal/gemini"
	"aura-chat-backend/internal/logging"
	"aura-chat-backend/internal/persona"
	"aura-chat-backend/internal/types"
)

const maxChatBody = 1 << 20

type Server struct {
	router *chi.Mux
	relay  *chat.Relay
	pages  *pages
	cfg    config.Config
	logger *slog.Logger
}

func NewServer(cfg config.Config, p persona.Persona, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pg, err := loadPages(cfg.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load page templates: %w", err)
	}

	upstream := gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiContentParts)
	s := &Server{
		router: chi.NewRouter(),
		relay:  chat.NewRelay(cfg.GeminiAPIKey, p, upstream),
		pages:  pg,
		cfg:    cfg,
		logger: logger,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(requestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/", s.handlePage("index.html"))
	s.router.Get("/messenger", s.handlePage("messenger.html"))
	s.router.Get("/api/health", s.handleHealth)

	// Only /chat is reachable cross-origin.
	s.router.Route("/chat", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
		r.Post("/", s.handleChat)
	})
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req types.ChatRequest
	var reply string
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req)
	if err != nil {
		log.Warn("invalid chat body", slog.Any("error", err))
		err = s.relay.RejectBody(err)
	} else {
		reply, err = s.relay.Handle(r.Context(), req)
	}
	if err != nil {
		var ce *chat.Error
		if errors.As(err, &ce) {
			log.Info("chat failed", slog.String("kind", ce.Kind.String()))
			s.writeError(w, ce.Kind.Status(), ce.Message)
			return
		}
		log.Error("chat failed", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, types.ChatResponse{Reply: reply})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{Error: msg})
}
