// Package handler exposes the workflow as a JSON API under /api/v1 with a
// uniform {"error": "..."} envelope.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/aulaflow/aulaflow/internal/i18n"
	"github.com/aulaflow/aulaflow/internal/service"
	"github.com/aulaflow/aulaflow/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store *store.Store
	svc   *service.Service
}

// New creates a Handler.
func New(s *store.Store, svc *service.Service) *Handler {
	return &Handler{store: s, svc: svc}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireTeacher)

		r.Post("/classes", h.handleCreateClass)
		r.Get("/classes", h.handleListClasses)
		r.Get("/classes/{classID}", h.handleGetClass)

		r.Post("/classes/{classID}/guide", h.handleGenerateGuide)
		r.Get("/classes/{classID}/guide/versions", h.handleListGuideVersions)
		r.Post("/classes/{classID}/guide/approve", h.handleApproveGuide)

		r.Post("/classes/{classID}/quizzes", h.handleGenerateQuiz)
		r.Get("/quizzes/{quizID}", h.handleGetQuiz)
		r.Post("/quizzes/{quizID}/publish", h.handlePublishQuiz)
		r.Put("/quizzes/{quizID}/reading", h.handleEditReading)
		r.Put("/questions/{questionID}", h.handleEditQuestion)
		r.Post("/quizzes/{quizID}/questions/regenerate", h.handleRegenerateQuestions)
		r.Post("/quizzes/{quizID}/questions/{questionID}/modify", h.handleModifyQuestion)

		r.Post("/classes/{classID}/pre-quiz/process", h.handleProcessPreQuiz)
		r.Get("/classes/{classID}/recommendations", h.handleListRecommendations)
		r.Post("/classes/{classID}/recommendations/apply", h.handleApplyRecommendations)

		r.Post("/classes/{classID}/feedback", h.handleGenerateFeedback)
		r.Get("/classes/{classID}/feedback", h.handleListFeedback)
	})
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError maps domain errors onto the uniform envelope: validation
// failures are 400, missing or unowned resources 404, publish conflicts
// 409, everything else 500.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case service.IsValidation(err):
		respondJSON(w, http.StatusBadRequest, errorEnvelope{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorEnvelope{Error: appI18n.T(r.Context(), "NotFound")})
	case errors.Is(err, store.ErrAlreadyPublished):
		respondJSON(w, http.StatusConflict, errorEnvelope{Error: appI18n.T(r.Context(), "AlreadyPublished")})
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, errorEnvelope{Error: appI18n.T(r.Context(), "Internal")})
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return service.ValidationError("cuerpo de la petición inválido: " + err.Error())
	}
	return nil
}

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ValidationError("identificador inválido: " + name)
	}
	return id, nil
}
