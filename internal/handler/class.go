package handler

import (
	"net/http"
	"time"

	"github.com/aulaflow/aulaflow/internal/model"
	"github.com/aulaflow/aulaflow/internal/service"
	"github.com/aulaflow/aulaflow/internal/workflow"
)

type createClassRequest struct {
	TopicID     int64    `json:"topic_id"`
	GroupID     int64    `json:"group_id"`
	TemplateID  *int64   `json:"template_id,omitempty"`
	ScheduledAt string   `json:"scheduled_at"`
	DurationMin int      `json:"duration_min"`
	MethodTags  []string `json:"method_tags"`
	Context     string   `json:"context"`
}

// handleCreateClass is the workflow's entry point: the step-1 context
// submission that creates the class, either from a pre-scheduled session
// (template set) or as a new ad-hoc one.
func (h *Handler) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())

	var req createClassRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.TopicID <= 0 || req.GroupID <= 0 {
		h.respondError(w, r, service.ValidationError("topic_id y group_id son obligatorios"))
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		h.respondError(w, r, service.ValidationError("scheduled_at debe ser una fecha RFC 3339"))
		return
	}
	if req.DurationMin <= 0 {
		req.DurationMin = 60
	}

	if _, err := h.store.GetTopic(req.TopicID); err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.store.GetGroup(req.GroupID); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := h.store.CreateClass(model.Class{
		TeacherID:   teacher.ID,
		TopicID:     req.TopicID,
		GroupID:     req.GroupID,
		TemplateID:  req.TemplateID,
		ScheduledAt: scheduledAt,
		DurationMin: req.DurationMin,
		MethodTags:  req.MethodTags,
		Context:     req.Context,
		State:       string(workflow.StateDraft),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	class, err := h.store.GetClass(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, class)
}

func (h *Handler) handleListClasses(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	classes, err := h.store.ListClassesByTeacher(teacher.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"classes": classes})
}

func (h *Handler) handleGetClass(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	classID, err := urlID(r, "classID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	class, err := h.store.GetClassOwned(classID, teacher.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, class)
}

type generateGuideRequest struct {
	MethodTags   []string `json:"method_tags"`
	ExtraContext string   `json:"extra_context"`
}

func (h *Handler) handleGenerateGuide(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	classID, err := urlID(r, "classID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req generateGuideRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.svc.GenerateGuide(r.Context(), teacher.ID, classID, req.MethodTags, req.ExtraContext)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListGuideVersions(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	classID, err := urlID(r, "classID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.store.GetClassOwned(classID, teacher.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	versions, err := h.store.ListGuideVersions(classID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

type approveGuideRequest struct {
	VersionID int64 `json:"version_id"`
}

func (h *Handler) handleApproveGuide(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	classID, err := urlID(r, "classID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req approveGuideRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.VersionID <= 0 {
		h.respondError(w, r, service.ValidationError("version_id es obligatorio"))
		return
	}

	result, err := h.svc.ApproveGuide(r.Context(), teacher.ID, classID, req.VersionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
