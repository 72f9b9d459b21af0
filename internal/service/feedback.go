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
	feedbackTemperature = 0.7
	feedbackMaxTokens   = 1024
)

// FeedbackFailure records one generation call that failed during the
// fan-out, so callers can retry just that subset.
type FeedbackFailure struct {
	Audience  model.FeedbackAudience `json:"audience"`
	StudentID *int64                 `json:"student_id,omitempty"`
	Error     string                 `json:"error"`
}

// FeedbackResult reports the partial outcome of the feedback fan-out.
// Already-persisted rows are never rolled back by later failures.
type FeedbackResult struct {
	GeneratedCount  int                            `json:"generated_count"`
	BreakdownByKind map[model.FeedbackAudience]int `json:"breakdown_by_kind"`
	Failed          []FeedbackFailure              `json:"failed,omitempty"`
	GroupStats      model.QuizStats                `json:"group_stats"`
	ClassState      string                         `json:"class_state"`
}

// GenerateFeedback analyzes the summative quiz's completed responses and
// generates feedback for four audiences: each student, the teacher per
// student, the family per student, and the teacher for the whole group.
// Calls are issued independently; a failure partway through leaves earlier
// rows in place and is reported in the result.
func (s *Service) GenerateFeedback(ctx context.Context, teacherID, classID, postQuizID int64) (*FeedbackResult, error) {
	c, err := s.ownedClass(classID, teacherID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.store.GetQuiz(postQuizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz.ClassID != c.ID || quiz.Kind != model.QuizPost {
		return nil, ValidationError("el quiz indicado no es el quiz sumativo de esta clase")
	}

	stats, results, err := s.quizAggregates(postQuizID)
	if err != nil {
		return nil, err
	}
	if stats.Responses == 0 {
		return nil, ValidationError("no hay respuestas completadas para analizar")
	}

	topic, err := s.store.GetTopic(c.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	group, err := s.store.GetGroup(c.GroupID)
	if err != nil {
		return nil, fmt.Errorf("load group: %w", err)
	}

	out := &FeedbackResult{BreakdownByKind: make(map[model.FeedbackAudience]int)}

	for _, r := range results {
		studentID := r.StudentID
		perStudent := []struct {
			audience model.FeedbackAudience
			prompt   string
		}{
			{model.FeedbackStudent, prompts.StudentFeedback(*topic, r)},
			{model.FeedbackTeacherIndividual, prompts.TeacherIndividualFeedback(*topic, r)},
			{model.FeedbackGuardian, prompts.GuardianFeedback(*topic, r)},
		}
		for _, item := range perStudent {
			s.generateOne(ctx, out, model.Feedback{
				ClassID:   c.ID,
				QuizID:    postQuizID,
				Audience:  item.audience,
				StudentID: &studentID,
			}, item.prompt)
		}
	}

	s.generateOne(ctx, out, model.Feedback{
		ClassID:  c.ID,
		QuizID:   postQuizID,
		Audience: model.FeedbackTeacherGroup,
	}, prompts.GroupFeedback(*topic, *group, *stats, results))

	if err := s.advanceState(c, workflow.StateAnalyzingResults, topic.Extraordinary); err != nil {
		return nil, err
	}

	out.GroupStats = *stats
	out.ClassState = c.State
	slog.Info("generated feedback",
		"class_id", c.ID, "quiz_id", postQuizID, "generated", out.GeneratedCount, "failed", len(out.Failed))
	return out, nil
}

// generateOne issues one feedback generation call and persists the result,
// recording a failure instead of aborting the batch.
func (s *Service) generateOne(ctx context.Context, out *FeedbackResult, f model.Feedback, userPrompt string) {
	res, err := s.gen.Generate(ctx, llm.Request{
		System:      prompts.FeedbackSystem(),
		User:        userPrompt,
		Temperature: feedbackTemperature,
		MaxTokens:   feedbackMaxTokens,
	})
	if err != nil {
		slog.Error("feedback generation failed",
			"audience", f.Audience, "student_id", f.StudentID, "error", err)
		out.Failed = append(out.Failed, FeedbackFailure{
			Audience:  f.Audience,
			StudentID: f.StudentID,
			Error:     err.Error(),
		})
		return
	}

	f.Content = strings.TrimSpace(res.Text)
	if f.Content == "" {
		f.Content = "Sin contenido generado."
	}
	if _, err := s.store.CreateFeedback(f); err != nil {
		slog.Error("feedback persist failed",
			"audience", f.Audience, "student_id", f.StudentID, "error", err)
		out.Failed = append(out.Failed, FeedbackFailure{
			Audience:  f.Audience,
			StudentID: f.StudentID,
			Error:     err.Error(),
		})
		return
	}
	out.GeneratedCount++
	out.BreakdownByKind[f.Audience]++
}
