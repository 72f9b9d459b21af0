package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/aulaflow/aulaflow/internal/i18n"
	"github.com/aulaflow/aulaflow/internal/model"
)

// requireTeacher resolves the bearer token into an authenticated user and
// their teacher identity, rejecting the request when either is missing.
func (h *Handler) requireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondJSON(w, http.StatusUnauthorized, errorEnvelope{Error: appI18n.T(r.Context(), "Unauthorized")})
			return
		}

		authSess, err := h.store.GetAuthSession(token)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
			respondJSON(w, http.StatusUnauthorized, errorEnvelope{Error: appI18n.T(r.Context(), "Unauthorized")})
			return
		}
		if authSess == nil {
			respondJSON(w, http.StatusUnauthorized, errorEnvelope{Error: appI18n.T(r.Context(), "Unauthorized")})
			return
		}

		user, err := h.store.GetUserByID(authSess.UserID)
		if err != nil || user == nil || !user.Active {
			respondJSON(w, http.StatusUnauthorized, errorEnvelope{Error: appI18n.T(r.Context(), "Unauthorized")})
			return
		}

		teacher, err := h.store.GetTeacherByUserID(user.ID)
		if err != nil || teacher == nil {
			respondJSON(w, http.StatusForbidden, errorEnvelope{Error: appI18n.T(r.Context(), "NotATeacher")})
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		ctx = model.ContextWithTeacher(ctx, teacher)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	DisplayName string `json:"display_name"`
	TeacherID   int64  `json:"teacher_id,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if user == nil || !user.Active {
		respondJSON(w, http.StatusUnauthorized, errorEnvelope{Error: appI18n.T(r.Context(), "LoginError")})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondJSON(w, http.StatusUnauthorized, errorEnvelope{Error: appI18n.T(r.Context(), "LoginError")})
		return
	}

	token, err := h.store.CreateAuthSession(user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := loginResponse{Token: token, DisplayName: user.DisplayName}
	if teacher, err := h.store.GetTeacherByUserID(user.ID); err == nil && teacher != nil {
		resp.TeacherID = teacher.ID
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		_ = h.store.DeleteAuthSession(token)
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
