// Package server exposes the viewer API over HTTP: session management for
// live form instances, value and event routing into the reactive store,
// validation, render-state reads, a websocket watch stream and CRUD over
// the saved-form repository.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vk/formweave/internal/ctxlog"
	"github.com/vk/formweave/internal/formrepo"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/registry"
	"github.com/vk/formweave/internal/runtime"
)

// Server routes the viewer API.
type Server struct {
	logger   *slog.Logger
	repo     *formrepo.Repo
	sessions *SessionManager
}

// New creates a server over the registry and an optional form repository.
// Without a repository the form CRUD endpoints report 503 and template
// components cannot resolve embedded forms.
func New(logger *slog.Logger, reg *registry.Registry, repo *formrepo.Repo) *Server {
	var loader runtime.Loader
	if repo != nil {
		loader = repo.Loader()
	}
	return &Server{
		logger:   logger,
		repo:     repo,
		sessions: NewSessionManager(reg, loader),
	}
}

// Sessions exposes the session manager, for shutdown and tests.
func (s *Server) Sessions() *SessionManager { return s.sessions }

// Router builds the chi router for the API.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.withLogger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/state", s.handleState)
				r.Get("/data", s.handleData)
				r.Post("/values", s.handleSetValue)
				r.Post("/events", s.handleFireEvent)
				r.Post("/validate", s.handleValidate)
				r.Post("/language", s.handleSetLanguage)
				r.Get("/watch", s.handleWatch)
				r.Delete("/", s.handleCloseSession)
			})
		})
		r.Route("/forms", func(r chi.Router) {
			r.Get("/", s.handleListForms)
			r.Get("/{name}", s.handleGetForm)
			r.Put("/{name}", s.handleSaveForm)
			r.Delete("/{name}", s.handleDeleteForm)
		})
	})
	return r
}

// withLogger carries the server logger into every request context so the
// engine's queue-internal logging stays attributable.
func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(ctxlog.WithLogger(r.Context(), s.logger)))
	})
}

type createSessionRequest struct {
	Form     string              `json:"form,omitempty"`
	Envelope *formstore.Envelope `json:"envelope,omitempty"`
	Data     map[string]any      `json:"data,omitempty"`
	Language string              `json:"language,omitempty"`
}

type createSessionResponse struct {
	ID        string `json:"id"`
	LoadError string `json:"loadError,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	env := req.Envelope
	if env == nil {
		if req.Form == "" {
			writeError(w, http.StatusBadRequest, "either form or envelope is required")
			return
		}
		if s.repo == nil {
			writeError(w, http.StatusServiceUnavailable, "no form repository configured")
			return
		}
		loaded, err := s.repo.Get(r.Context(), req.Form)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, formrepo.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err.Error())
			return
		}
		env = loaded
	}

	sess, err := s.sessions.Create(r.Context(), env, req.Data, req.Language)
	resp := createSessionResponse{ID: sess.ID}
	if err != nil {
		resp.LoadError = err.Error()
	}
	s.logger.Info("Session created.", "session", sess.ID, "loadError", resp.LoadError != "")
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Store.RenderState(r.Context()))
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Store.Data(r.Context()))
}

type setValueRequest struct {
	Component string `json:"component"`
	Value     any    `json:"value"`
}

func (s *Server) handleSetValue(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req setValueRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.Store.SetValue(r.Context(), req.Component, req.Value); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type fireEventRequest struct {
	Component string         `json:"component"`
	Event     string         `json:"event"`
	Arg       map[string]any `json:"arg,omitempty"`
}

func (s *Server) handleFireEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req fireEventRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.Store.FireEvent(r.Context(), req.Component, req.Event, req.Arg)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type validateResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	failures := sess.Store.Validate(r.Context())
	writeJSON(w, http.StatusOK, validateResponse{Valid: len(failures) == 0, Errors: failures})
}

type setLanguageRequest struct {
	Language string `json:"language"`
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req setLanguageRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.Store.SetLanguage(req.Language)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Close(r.Context(), chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "no form repository configured")
		return
	}
	names, err := s.repo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"forms": names})
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "no form repository configured")
		return
	}
	env, err := s.repo.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, formrepo.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleSaveForm(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "no form repository configured")
		return
	}
	var env formstore.Envelope
	if err := readJSON(r, &env); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if env.Form == nil {
		writeError(w, http.StatusBadRequest, "form envelope has no form tree")
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.repo.Save(r.Context(), name, &env); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("Form saved.", "form", name)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "no form repository configured")
		return
	}
	err := s.repo.Delete(r.Context(), chi.URLParam(r, "name"))
	if errors.Is(err, formrepo.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
