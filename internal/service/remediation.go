package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aulaflow/aulaflow/internal/llm"
	"github.com/aulaflow/aulaflow/internal/llm/prompts"
	"github.com/aulaflow/aulaflow/internal/model"
	"github.com/aulaflow/aulaflow/internal/workflow"
)

const (
	remediationTemperature = 0.5
	remediationMaxTokens   = 2048
)

// remediationPayload is the structured shape recommendation analysis is
// parsed against.
type remediationPayload struct {
	Summary         string `json:"summary"`
	Recommendations []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		Area        string `json:"area"`
	} `json:"recommendations"`
}

// RemediationResult is the outcome of analyzing diagnostic-quiz responses.
type RemediationResult struct {
	Stats           model.QuizStats        `json:"stats"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Summary         string                 `json:"summary"`
	ClassState      string                 `json:"class_state"`
}

// ProcessPreQuizResponses analyzes completed diagnostic responses and
// derives guide recommendations. It is a pure read-then-recommend step:
// the guide itself is not changed here.
func (s *Service) ProcessPreQuizResponses(ctx context.Context, teacherID, classID, quizID int64) (*RemediationResult, error) {
	c, err := s.ownedClass(classID, teacherID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.store.GetQuiz(quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz.ClassID != c.ID || quiz.Kind != model.QuizPre {
		return nil, ValidationError("el quiz indicado no es el quiz diagnóstico de esta clase")
	}

	stats, _, err := s.quizAggregates(quizID)
	if err != nil {
		return nil, err
	}
	if stats.Responses == 0 {
		return nil, ValidationError("no hay respuestas completadas para analizar")
	}

	var guide *model.GuideVersion
	if c.ActiveGuideID != nil {
		if guide, err = s.store.GetGuideVersion(*c.ActiveGuideID); err != nil {
			return nil, fmt.Errorf("load active guide: %w", err)
		}
	}

	res, err := s.gen.Generate(ctx, llm.Request{
		System:      prompts.RemediationSystem(),
		User:        prompts.Remediation(prompts.RemediationData{Guide: guide, Stats: *stats}),
		Temperature: remediationTemperature,
		MaxTokens:   remediationMaxTokens,
		JSONObject:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate recommendations: %w", err)
	}

	payload := parseRemediation(res.Text)

	topic, err := s.store.GetTopic(c.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}

	var saved []model.Recommendation
	for _, rp := range payload.Recommendations {
		rec := model.Recommendation{
			ClassID:     c.ID,
			QuizID:      &quizID,
			Title:       rp.Title,
			Description: rp.Description,
			Priority:    rp.Priority,
			Area:        rp.Area,
		}
		if rec.Priority == "" {
			rec.Priority = "media"
		}
		id, err := s.store.CreateRecommendation(rec)
		if err != nil {
			return nil, fmt.Errorf("persist recommendation: %w", err)
		}
		rec.ID = id
		saved = append(saved, rec)
	}

	if err := s.advanceState(c, workflow.StateAnalyzingPreQuiz, topic.Extraordinary); err != nil {
		return nil, err
	}

	slog.Info("processed diagnostic responses",
		"class_id", c.ID, "quiz_id", quizID, "responses", stats.Responses, "recommendations", len(saved))

	return &RemediationResult{
		Stats:           *stats,
		Recommendations: saved,
		Summary:         payload.Summary,
		ClassState:      c.State,
	}, nil
}

// parseRemediation parses the generated analysis, falling back to a single
// generic recommendation built from the raw text when the structure is
// malformed.
func parseRemediation(text string) remediationPayload {
	var payload remediationPayload
	if err := llm.DecodeObject(text, &payload); err != nil || len(payload.Recommendations) == 0 {
		if err != nil {
			slog.Warn("malformed remediation payload, using fallback", "error", err)
		}
		summary := strings.TrimSpace(llm.CleanJSON(text))
		if len(summary) > 500 {
			summary = summary[:500]
		}
		return remediationPayload{
			Summary: summary,
			Recommendations: []struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				Priority    string `json:"priority"`
				Area        string `json:"area"`
			}{{
				Title:       "Revisión general de la guía",
				Description: "Revisar la guía a la luz de los resultados del quiz diagnóstico.",
				Priority:    "media",
				Area:        "general",
			}},
		}
	}
	return payload
}

// GuideEdits is a direct overwrite of guide fields applied before the
// generation step.
type GuideEdits struct {
	Objectives       []string              `json:"objectives,omitempty"`
	Structure        []model.GuideActivity `json:"structure,omitempty"`
	GuidingQuestions []string              `json:"guiding_questions,omitempty"`
}

// ApplyResult is the outcome of folding recommendations into a new guide
// version.
type ApplyResult struct {
	NewVersionID  int64  `json:"new_version_id"`
	VersionNumber int    `json:"version_number"`
	IsFinal       bool   `json:"is_final"`
	ClassState    string `json:"class_state"`
	AppliedCount  int    `json:"applied_count"`
}

// ApplyRecommendations produces the next guide version from the current
// one, optionally overlaying manual edits and folding in the selected
// unapplied recommendations. With finalize set the new version is flagged
// final and the class moves to final_guide.
func (s *Service) ApplyRecommendations(ctx context.Context, teacherID, classID int64, recommendationIDs []int64, edits *GuideEdits, finalize bool) (*ApplyResult, error) {
	c, err := s.ownedClass(classID, teacherID)
	if err != nil {
		return nil, err
	}
	if c.ActiveGuideID == nil {
		return nil, ValidationError("la clase no tiene una guía activa")
	}
	guide, err := s.store.GetGuideVersion(*c.ActiveGuideID)
	if err != nil {
		return nil, fmt.Errorf("load active guide: %w", err)
	}
	topic, err := s.store.GetTopic(c.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}

	working := *guide
	if edits != nil {
		if edits.Objectives != nil {
			working.Objectives = edits.Objectives
		}
		if edits.Structure != nil {
			working.Structure = edits.Structure
		}
		if edits.GuidingQuestions != nil {
			working.GuidingQuestions = edits.GuidingQuestions
		}
	}

	var selected []model.Recommendation
	for _, id := range recommendationIDs {
		rec, err := s.store.GetRecommendation(id)
		if err != nil {
			return nil, fmt.Errorf("load recommendation %d: %w", id, err)
		}
		if rec.ClassID != c.ID {
			return nil, validationf("la recomendación %d no pertenece a esta clase", id)
		}
		if rec.Applied {
			continue
		}
		selected = append(selected, *rec)
	}

	if len(selected) > 0 {
		res, err := s.gen.Generate(ctx, llm.Request{
			System:      prompts.GuideSystem(),
			User:        prompts.Apply(prompts.ApplyData{Guide: &working, Recommendations: selected}),
			Temperature: guideTemperature,
			MaxTokens:   guideMaxTokens,
			JSONObject:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("rewrite guide: %w", err)
		}
		var payload guidePayload
		if err := llm.DecodeObject(res.Text, &payload); err != nil {
			return nil, validationf("la respuesta del servicio de generación no tiene el formato esperado: %v", err)
		}
		fillGuideDefaults(&payload, topic.Name, c.DurationMin)
		working.Objectives = payload.Objectives
		working.Structure = payload.Structure
		working.GuidingQuestions = payload.GuidingQuestions
	}

	version, err := s.store.CreateGuideVersion(model.GuideVersion{
		ClassID:          c.ID,
		Objectives:       working.Objectives,
		Structure:        working.Structure,
		GuidingQuestions: working.GuidingQuestions,
		Context:          guide.Context,
		Approved:         finalize,
		IsFinal:          finalize,
	})
	if err != nil {
		return nil, fmt.Errorf("persist guide version: %w", err)
	}

	if len(selected) > 0 {
		ids := make([]int64, len(selected))
		for i, rec := range selected {
			ids[i] = rec.ID
		}
		if err := s.store.MarkRecommendationsApplied(ids, version.ID); err != nil {
			return nil, fmt.Errorf("mark recommendations applied: %w", err)
		}
	}

	nextState := workflow.StateModifyingGuide
	if finalize {
		nextState = workflow.StateFinalGuide
	}
	if err := s.advanceState(c, nextState, topic.Extraordinary); err != nil {
		return nil, err
	}

	slog.Info("applied recommendations",
		"class_id", c.ID, "new_version", version.VersionNumber, "applied", len(selected), "final", finalize)

	return &ApplyResult{
		NewVersionID:  version.ID,
		VersionNumber: version.VersionNumber,
		IsFinal:       finalize,
		ClassState:    c.State,
		AppliedCount:  len(selected),
	}, nil
}
