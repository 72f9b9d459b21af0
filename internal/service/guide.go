package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aulaflow/aulaflow/internal/llm"
	"github.com/aulaflow/aulaflow/internal/llm/prompts"
	"github.com/aulaflow/aulaflow/internal/model"
	"github.com/aulaflow/aulaflow/internal/workflow"
)

const (
	guideTemperature = 0.7
	guideMaxTokens   = 2048
)

// guidePayload is the structured shape guide generation is parsed against.
type guidePayload struct {
	Objectives       []string              `json:"objectives"`
	Structure        []model.GuideActivity `json:"structure"`
	GuidingQuestions []string              `json:"guiding_questions"`
}

// GuideResult is the outcome of generating a guide version.
type GuideResult struct {
	VersionID        int64                 `json:"version_id"`
	VersionNumber    int                   `json:"version_number"`
	Objectives       []string              `json:"objectives"`
	Structure        []model.GuideActivity `json:"structure"`
	GuidingQuestions []string              `json:"guiding_questions"`
	ClassState       string                `json:"class_state"`
}

// GenerateGuide builds a lesson guide for the class from its topic, group,
// pedagogical context, and any unapplied recommendations, and persists it
// as the next guide version.
func (s *Service) GenerateGuide(ctx context.Context, teacherID, classID int64, methodTags []string, extraContext string) (*GuideResult, error) {
	c, err := s.ownedClass(classID, teacherID)
	if err != nil {
		return nil, err
	}
	topic, err := s.store.GetTopic(c.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	group, err := s.store.GetGroup(c.GroupID)
	if err != nil {
		return nil, fmt.Errorf("load group: %w", err)
	}

	if err := s.advanceState(c, workflow.StateGuideGenerating, topic.Extraordinary); err != nil {
		return nil, err
	}

	if len(methodTags) > 0 || extraContext != "" {
		if len(methodTags) == 0 {
			methodTags = c.MethodTags
		}
		if extraContext == "" {
			extraContext = c.Context
		}
		if err := s.store.UpdateClassContext(c.ID, methodTags, extraContext, c.DurationMin); err != nil {
			return nil, fmt.Errorf("update class context: %w", err)
		}
	} else {
		methodTags = c.MethodTags
		extraContext = c.Context
	}

	recs, err := s.store.ListRecommendations(c.ID, true)
	if err != nil {
		return nil, fmt.Errorf("load recommendations: %w", err)
	}

	res, err := s.gen.Generate(ctx, llm.Request{
		System: prompts.GuideSystem(),
		User: prompts.Guide(prompts.GuideData{
			Topic:           *topic,
			Group:           *group,
			DurationMin:     c.DurationMin,
			MethodTags:      methodTags,
			ExtraContext:    extraContext,
			Recommendations: recs,
		}),
		Temperature: guideTemperature,
		MaxTokens:   guideMaxTokens,
		JSONObject:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate guide: %w", err)
	}

	var payload guidePayload
	if err := llm.DecodeObject(res.Text, &payload); err != nil {
		return nil, validationf("la respuesta del servicio de generación no tiene el formato esperado: %v", err)
	}
	fillGuideDefaults(&payload, topic.Name, c.DurationMin)

	version, err := s.store.CreateGuideVersion(model.GuideVersion{
		ClassID:          c.ID,
		Objectives:       payload.Objectives,
		Structure:        payload.Structure,
		GuidingQuestions: payload.GuidingQuestions,
		Context:          extraContext,
	})
	if err != nil {
		return nil, fmt.Errorf("persist guide version: %w", err)
	}

	if err := s.advanceState(c, workflow.StateGuideEditing, topic.Extraordinary); err != nil {
		return nil, err
	}

	slog.Info("generated guide version",
		"class_id", c.ID, "version", version.VersionNumber, "model", res.Model)

	return &GuideResult{
		VersionID:        version.ID,
		VersionNumber:    version.VersionNumber,
		Objectives:       version.Objectives,
		Structure:        version.Structure,
		GuidingQuestions: version.GuidingQuestions,
		ClassState:       c.State,
	}, nil
}

// fillGuideDefaults replaces missing sections of a parsed guide with
// placeholders so one malformed section does not abort the whole
// operation.
func fillGuideDefaults(p *guidePayload, topicName string, durationMin int) {
	if len(p.Objectives) == 0 {
		p.Objectives = []string{"Comprender los conceptos fundamentales de " + topicName}
	}
	if len(p.Structure) == 0 {
		p.Structure = []model.GuideActivity{{
			DurationMin: durationMin,
			Activity:    "Sesión sobre " + topicName,
			Description: "Desarrollo del tema con participación del grupo.",
		}}
	}
	if len(p.GuidingQuestions) == 0 {
		p.GuidingQuestions = []string{"¿Qué sabemos ya sobre " + topicName + "?"}
	}
}

// ApproveResult is the outcome of approving a guide version.
type ApproveResult struct {
	ApprovedVersion int    `json:"approved_version"`
	ClassState      string `json:"class_state"`
	HasPreQuiz      bool   `json:"has_pre_quiz"`
}

// ApproveGuide marks a guide version approved and re-points the class's
// active version to it. Approving the already-active version is
// idempotent. The diagnostic quiz is not created here; that is a separate
// teacher-triggered step.
func (s *Service) ApproveGuide(ctx context.Context, teacherID, classID, versionID int64) (*ApproveResult, error) {
	c, err := s.ownedClass(classID, teacherID)
	if err != nil {
		return nil, err
	}
	version, err := s.store.GetGuideVersion(versionID)
	if err != nil {
		return nil, fmt.Errorf("load guide version: %w", err)
	}
	if version.ClassID != c.ID {
		return nil, validationf("la versión %d no pertenece a esta clase", versionID)
	}

	if err := s.store.ApproveGuideVersion(versionID, teacherID); err != nil {
		return nil, fmt.Errorf("approve guide version: %w", err)
	}
	if c.ActiveGuideID == nil || *c.ActiveGuideID != versionID {
		if err := s.store.SetActiveGuideVersion(c.ID, versionID); err != nil {
			return nil, fmt.Errorf("set active guide version: %w", err)
		}
	}

	if err := s.advanceState(c, workflow.StateGuideApproved, false); err != nil {
		return nil, err
	}

	hasPreQuiz := true
	if _, err := s.store.GetQuizByKind(c.ID, model.QuizPre); err != nil {
		hasPreQuiz = false
	}

	slog.Info("approved guide version", "class_id", c.ID, "version_id", versionID)

	return &ApproveResult{
		ApprovedVersion: version.VersionNumber,
		ClassState:      c.State,
		HasPreQuiz:      hasPreQuiz,
	}, nil
}
