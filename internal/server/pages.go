package server

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"aura-chat-backend/internal/logging"
	"aura-chat-backend/web"
)

var pageNames = []string{"index.html", "messenger.html"}

type pages struct {
	tmpl *template.Template
}

type pageData struct {
	ChatPath string
}

// loadPages parses the two HTML pages from dir, or from the embedded copies
// when dir is empty.
func loadPages(dir string) (*pages, error) {
	var fsys fs.FS
	if strings.TrimSpace(dir) != "" {
		fsys = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(web.Templates, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}
	tmpl, err := template.ParseFS(fsys, pageNames...)
	if err != nil {
		return nil, err
	}
	return &pages{tmpl: tmpl}, nil
}

func (s *Server) handlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := s.pages.tmpl.ExecuteTemplate(&buf, name, pageData{ChatPath: "/chat"}); err != nil {
			logging.FromContext(r.Context()).Error("render page failed", "page", name, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}
