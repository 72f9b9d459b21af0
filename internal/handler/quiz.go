package handler

import (
	"net/http"

	"github.com/aulaflow/aulaflow/internal/llm/prompts"
	"github.com/aulaflow/aulaflow/internal/model"
	"github.com/aulaflow/aulaflow/internal/service"
)

type generateQuizRequest struct {
	Kind model.QuizKind `json:"kind"`
}

func (h *Handler) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	classID, err := urlID(r, "classID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req generateQuizRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.svc.GenerateQuiz(r.Context(), teacher.ID, classID, req.Kind)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	quizID, err := urlID(r, "quizID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	quiz, err := h.store.GetQuiz(quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.store.GetClassOwned(quiz.ClassID, teacher.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	questions, err := h.store.ListQuestions(quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"quiz": quiz, "questions": questions})
}

func (h *Handler) handlePublishQuiz(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	quizID, err := urlID(r, "quizID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.svc.PublishQuiz(r.Context(), teacher.ID, quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type editReadingRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleEditReading(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	quizID, err := urlID(r, "quizID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req editReadingRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.EditReading(r.Context(), teacher.ID, quizID, req.Text); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleEditQuestion(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	questionID, err := urlID(r, "questionID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var edit service.QuestionEdit
	if err := decodeBody(r, &edit); err != nil {
		h.respondError(w, r, err)
		return
	}
	question, err := h.svc.EditQuestion(r.Context(), teacher.ID, questionID, edit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"updated_question": question})
}

func (h *Handler) handleRegenerateQuestions(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	quizID, err := urlID(r, "quizID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.svc.RegenerateAllQuestions(r.Context(), teacher.ID, quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type modifyQuestionRequest struct {
	Action     prompts.SingleQuestionAction `json:"action"`
	Difficulty string                       `json:"difficulty,omitempty"`
}

func (h *Handler) handleModifyQuestion(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	quizID, err := urlID(r, "quizID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	questionID, err := urlID(r, "questionID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req modifyQuestionRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	question, err := h.svc.ModifySingleQuestion(r.Context(), teacher.ID, quizID, questionID, req.Action, req.Difficulty)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"updated_question": question})
}

type processPreQuizRequest struct {
	QuizID int64 `json:"quiz_id"`
}

func (h *Handler) handleProcessPreQuiz(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	classID, err := urlID(r, "classID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req processPreQuizRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.QuizID <= 0 {
		h.respondError(w, r, service.ValidationError("quiz_id es obligatorio"))
		return
	}

	result, err := h.svc.ProcessPreQuizResponses(r.Context(), teacher.ID, classID, req.QuizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
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
	recs, err := h.store.ListRecommendations(classID, r.URL.Query().Get("unapplied") == "true")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

type applyRecommendationsRequest struct {
	RecommendationIDs []int64             `json:"recommendation_ids"`
	ManualEdits       *service.GuideEdits `json:"manual_edits,omitempty"`
	Finalize          bool                `json:"finalize,omitempty"`
}

func (h *Handler) handleApplyRecommendations(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	classID, err := urlID(r, "classID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req applyRecommendationsRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.svc.ApplyRecommendations(r.Context(), teacher.ID, classID, req.RecommendationIDs, req.ManualEdits, req.Finalize)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type generateFeedbackRequest struct {
	PostQuizID int64 `json:"post_quiz_id"`
}

func (h *Handler) handleGenerateFeedback(w http.ResponseWriter, r *http.Request) {
	teacher := model.TeacherFromContext(r.Context())
	classID, err := urlID(r, "classID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req generateFeedbackRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.PostQuizID <= 0 {
		h.respondError(w, r, service.ValidationError("post_quiz_id es obligatorio"))
		return
	}

	result, err := h.svc.GenerateFeedback(r.Context(), teacher.ID, classID, req.PostQuizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListFeedback(w http.ResponseWriter, r *http.Request) {
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
	notes, err := h.store.ListFeedback(classID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"feedback": notes})
}
