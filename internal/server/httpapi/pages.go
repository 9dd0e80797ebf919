package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/tourbook/internal/server/auth"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
)

// Page is the view model handed to a Renderer.
type Page struct {
	Title string       `json:"title"`
	User  *models.User `json:"user,omitempty"`
	Data  any          `json:"data,omitempty"`
}

// Renderer draws a page. Template rendering lives outside this module;
// the default renderer emits the view model as JSON.
type Renderer interface {
	Render(ctx context.Context, w http.ResponseWriter, name string, p Page) error
}

type JSONRenderer struct{}

func (JSONRenderer) Render(_ context.Context, w http.ResponseWriter, name string, p Page) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	return json.NewEncoder(w).Encode(struct {
		Template string `json:"template"`
		Page
	}{Template: name, Page: p})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, p Page) {
	p.User = auth.PrincipalFrom(r.Context())
	if err := s.opts.Renderer.Render(r.Context(), w, name, p); err != nil {
		s.log.Error(r.Context(), "render page", "template", name, "error", err)
	}
}

func (s *Server) overviewPage(w http.ResponseWriter, r *http.Request) {
	res, err := s.opts.Tours.List(r.Context(), url.Values{})
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	s.render(w, r, "overview", Page{Title: "All Tours", Data: res.Items})
}

func (s *Server) tourPage(w http.ResponseWriter, r *http.Request) {
	tour, err := s.opts.Tours.GetOne(r.Context(), r.PathValue("id"), s.tours.expand...)
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	s.render(w, r, "tour", Page{Title: tour.Name + " Tour", Data: tour})
}

func (s *Server) accountPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "account", Page{Title: "Your account"})
}
