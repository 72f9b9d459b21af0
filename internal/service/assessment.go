package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aulaflow/aulaflow/internal/llm"
	"github.com/aulaflow/aulaflow/internal/llm/prompts"
	"github.com/aulaflow/aulaflow/internal/model"
	"github.com/aulaflow/aulaflow/internal/store"
	"github.com/aulaflow/aulaflow/internal/workflow"
)

const (
	preQuizQuestions  = 3
	preQuizTimeLimit  = 5
	postQuizQuestions = 10
	postQuizTimeLimit = 15

	quizTemperature = 0.6
	quizMaxTokens   = 3072

	minOptions = 4
)

// questionPayload is one generated question before normalization.
type questionPayload struct {
	Prompt         string   `json:"prompt"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	CorrectIndex   int      `json:"correct_index"`
	ExpectedAnswer string   `json:"expected_answer"`
	Justification  string   `json:"justification"`
}

// quizPayload is the structured shape quiz generation is parsed against.
type quizPayload struct {
	Reading   string            `json:"reading"`
	Questions []questionPayload `json:"questions"`
}

// QuizResult is the outcome of generating a quiz.
type QuizResult struct {
	QuizID    int64            `json:"quiz_id"`
	Kind      model.QuizKind   `json:"kind"`
	Reading   string           `json:"reading,omitempty"`
	TimeLimit int              `json:"time_limit"`
	Questions []model.Question `json:"questions"`
}

// GenerateQuiz creates the diagnostic or summative assessment for a class.
// For regular topics the diagnostic requires an approved guide and the
// summative a final guide; extraordinary topics bypass both guards.
func (s *Service) GenerateQuiz(ctx context.Context, teacherID, classID int64, kind model.QuizKind) (*QuizResult, error) {
	if kind != model.QuizPre && kind != model.QuizPost {
		return nil, validationf("tipo de quiz desconocido: %q", kind)
	}

	c, err := s.ownedClass(classID, teacherID)
	if err != nil {
		return nil, err
	}
	topic, err := s.store.GetTopic(c.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}

	var guide *model.GuideVersion
	if c.ActiveGuideID != nil {
		guide, err = s.store.GetGuideVersion(*c.ActiveGuideID)
		if err != nil {
			return nil, fmt.Errorf("load active guide: %w", err)
		}
	}

	status := workflow.GuideStatus{}
	if guide != nil {
		status = workflow.GuideStatus{Exists: true, Approved: guide.Approved, IsFinal: guide.IsFinal}
	}
	if kind == model.QuizPre {
		if err := workflow.CanGeneratePreQuiz(status, topic.Extraordinary); err != nil {
			return nil, err
		}
	} else {
		if err := workflow.CanGeneratePostQuiz(status, topic.Extraordinary); err != nil {
			return nil, err
		}
	}

	if existing, err := s.store.GetQuizByKind(c.ID, kind); err == nil {
		return nil, validationf("ya existe un quiz %s para esta clase (id %d)", kind, existing.ID)
	}

	wantCount := preQuizQuestions
	timeLimit := preQuizTimeLimit
	nextState := workflow.StatePreQuizGenerating
	if kind == model.QuizPost {
		wantCount = postQuizQuestions
		timeLimit = postQuizTimeLimit
		nextState = workflow.StatePostQuizGenerating
	}

	if err := s.advanceState(c, nextState, topic.Extraordinary); err != nil {
		return nil, err
	}

	payload, err := s.generateQuestionSet(ctx, kind, *topic, guide, wantCount)
	if err != nil {
		return nil, err
	}

	questions, err := normalizeQuestions(payload.Questions, kind, payload.Reading)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Quiz diagnóstico: %s", topic.Name)
	if kind == model.QuizPost {
		title = fmt.Sprintf("Quiz sumativo: %s", topic.Name)
	}

	quizID, err := s.store.CreateQuizWithQuestions(model.Quiz{
		ClassID:      c.ID,
		Kind:         kind,
		Title:        title,
		State:        model.QuizDraft,
		TimeLimitMin: timeLimit,
		Reading:      payload.Reading,
	}, questions)
	if err != nil {
		return nil, fmt.Errorf("persist quiz: %w", err)
	}

	persisted, err := s.store.ListQuestions(quizID)
	if err != nil {
		return nil, fmt.Errorf("load persisted questions: %w", err)
	}

	slog.Info("generated quiz", "class_id", c.ID, "quiz_id", quizID, "kind", kind, "questions", len(persisted))

	return &QuizResult{
		QuizID:    quizID,
		Kind:      kind,
		Reading:   payload.Reading,
		TimeLimit: timeLimit,
		Questions: persisted,
	}, nil
}

// generateQuestionSet issues one generation call and clamps the result to
// the expected count: over-generation is truncated, under-generation is a
// hard failure so a short quiz is never persisted.
func (s *Service) generateQuestionSet(ctx context.Context, kind model.QuizKind, topic model.Topic, guide *model.GuideVersion, wantCount int) (*quizPayload, error) {
	res, err := s.gen.Generate(ctx, llm.Request{
		System: prompts.QuizSystem(),
		User: prompts.Quiz(prompts.QuizData{
			Kind:         kind,
			Topic:        topic,
			Guide:        guide,
			GradeBand:    topic.GradeBand,
			NumQuestions: wantCount,
		}),
		Temperature: quizTemperature,
		MaxTokens:   quizMaxTokens,
		JSONObject:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	var payload quizPayload
	if err := llm.DecodeObject(res.Text, &payload); err != nil {
		return nil, validationf("la respuesta del servicio de generación no tiene el formato esperado: %v", err)
	}

	if len(payload.Questions) < wantCount {
		return nil, validationf("el servicio generó %d preguntas, se requieren %d", len(payload.Questions), wantCount)
	}
	if len(payload.Questions) > wantCount {
		payload.Questions = payload.Questions[:wantCount]
	}
	if kind == model.QuizPre && payload.Reading == "" {
		return nil, ValidationError("el quiz diagnóstico requiere una lectura de contexto")
	}
	if kind == model.QuizPost {
		payload.Reading = ""
	}
	return &payload, nil
}

// normalizeQuestions converts raw generated questions into the persisted
// shape: options get stable uuid identifiers and the reported correct
// index is resolved into the matching option id.
func normalizeQuestions(raw []questionPayload, kind model.QuizKind, reading string) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(raw))
	for i, qp := range raw {
		q, err := normalizeQuestion(qp)
		if err != nil {
			return nil, validationf("pregunta %d inválida: %v", i+1, err)
		}
		if kind == model.QuizPre {
			q.Reading = reading
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func normalizeQuestion(qp questionPayload) (model.Question, error) {
	q := model.Question{
		Prompt:        qp.Prompt,
		Justification: qp.Justification,
	}
	if q.Prompt == "" {
		return q, fmt.Errorf("sin enunciado")
	}

	switch model.QuestionType(qp.Type) {
	case model.QuestionOpenResponse:
		q.Type = model.QuestionOpenResponse
		if qp.ExpectedAnswer == "" {
			return q, fmt.Errorf("respuesta abierta sin respuesta esperada")
		}
		q.ExpectedAnswer = qp.ExpectedAnswer
		return q, nil
	default:
		// Anything else is treated as multiple choice; models are not
		// consistent about the type label.
		q.Type = model.QuestionMultipleChoice
	}

	if len(qp.Options) < minOptions {
		return q, fmt.Errorf("opción múltiple con %d opciones, mínimo %d", len(qp.Options), minOptions)
	}
	if qp.CorrectIndex < 0 || qp.CorrectIndex >= len(qp.Options) {
		return q, fmt.Errorf("índice de respuesta correcta fuera de rango: %d", qp.CorrectIndex)
	}

	q.Options = make([]model.Option, len(qp.Options))
	for i, label := range qp.Options {
		q.Options[i] = model.Option{ID: uuid.NewString(), Label: label}
	}
	q.CorrectOptionID = q.Options[qp.CorrectIndex].ID
	return q, nil
}

// EditReading overwrites the shared reading passage of a quiz.
func (s *Service) EditReading(ctx context.Context, teacherID, quizID int64, newText string) error {
	q, _, err := s.ownedQuiz(quizID, teacherID)
	if err != nil {
		return err
	}
	if q.Kind != model.QuizPre {
		return ValidationError("solo el quiz diagnóstico tiene lectura de contexto")
	}
	if q.State == model.QuizPublished {
		return ValidationError("no se puede modificar un quiz ya publicado")
	}
	if newText == "" {
		return ValidationError("la lectura no puede quedar vacía")
	}
	return s.store.UpdateQuizReading(quizID, newText)
}

// QuestionEdit is a direct field overwrite for one question.
type QuestionEdit struct {
	Prompt          *string        `json:"prompt,omitempty"`
	Options         []model.Option `json:"options,omitempty"`
	CorrectOptionID *string        `json:"correct_option_id,omitempty"`
	ExpectedAnswer  *string        `json:"expected_answer,omitempty"`
	Justification   *string        `json:"justification,omitempty"`
}

// EditQuestion applies a direct overwrite of the given fields. Option
// identifiers supplied by the caller are preserved so references to them
// survive the edit.
func (s *Service) EditQuestion(ctx context.Context, teacherID, questionID int64, edit QuestionEdit) (*model.Question, error) {
	q, err := s.store.GetQuestion(questionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	quiz, _, err := s.ownedQuiz(q.QuizID, teacherID)
	if err != nil {
		return nil, err
	}
	if quiz.State == model.QuizPublished {
		return nil, ValidationError("no se puede modificar un quiz ya publicado")
	}

	if edit.Prompt != nil {
		q.Prompt = *edit.Prompt
	}
	if edit.Options != nil {
		if q.Type == model.QuestionMultipleChoice && len(edit.Options) < minOptions {
			return nil, validationf("una pregunta de opción múltiple requiere al menos %d opciones", minOptions)
		}
		q.Options = edit.Options
	}
	if edit.CorrectOptionID != nil {
		q.CorrectOptionID = *edit.CorrectOptionID
	}
	if edit.ExpectedAnswer != nil {
		q.ExpectedAnswer = *edit.ExpectedAnswer
	}
	if edit.Justification != nil {
		q.Justification = *edit.Justification
	}

	if q.Type == model.QuestionMultipleChoice && !optionExists(q.Options, q.CorrectOptionID) {
		return nil, ValidationError("la respuesta correcta debe ser una de las opciones")
	}

	if err := s.store.UpdateQuestion(*q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

func optionExists(options []model.Option, id string) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// RegenerateAllQuestions discards a diagnostic quiz's questions and
// generates a fresh set of three with a new reading passage.
func (s *Service) RegenerateAllQuestions(ctx context.Context, teacherID, quizID int64) (*QuizResult, error) {
	q, c, err := s.ownedQuiz(quizID, teacherID)
	if err != nil {
		return nil, err
	}
	if q.Kind != model.QuizPre {
		return nil, ValidationError("solo el quiz diagnóstico admite regeneración completa")
	}
	if q.State == model.QuizPublished {
		return nil, ValidationError("no se puede regenerar un quiz ya publicado")
	}
	topic, err := s.store.GetTopic(c.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	var guide *model.GuideVersion
	if c.ActiveGuideID != nil {
		if guide, err = s.store.GetGuideVersion(*c.ActiveGuideID); err != nil {
			return nil, fmt.Errorf("load active guide: %w", err)
		}
	}

	payload, err := s.generateQuestionSet(ctx, model.QuizPre, *topic, guide, preQuizQuestions)
	if err != nil {
		return nil, err
	}
	questions, err := normalizeQuestions(payload.Questions, model.QuizPre, payload.Reading)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceQuestions(quizID, questions, payload.Reading); err != nil {
		return nil, fmt.Errorf("replace questions: %w", err)
	}

	persisted, err := s.store.ListQuestions(quizID)
	if err != nil {
		return nil, fmt.Errorf("load persisted questions: %w", err)
	}
	slog.Info("regenerated quiz questions", "quiz_id", quizID, "questions", len(persisted))

	return &QuizResult{
		QuizID:    quizID,
		Kind:      q.Kind,
		Reading:   payload.Reading,
		TimeLimit: q.TimeLimitMin,
		Questions: persisted,
	}, nil
}

// ModifySingleQuestion swaps one question for a new one on the same topic
// or rewrites it at a different difficulty. The question row and its quiz
// ownership are preserved; the option list and correct-answer id are fully
// regenerated.
func (s *Service) ModifySingleQuestion(ctx context.Context, teacherID, quizID, questionID int64, action prompts.SingleQuestionAction, difficulty string) (*model.Question, error) {
	quiz, c, err := s.ownedQuiz(quizID, teacherID)
	if err != nil {
		return nil, err
	}
	if quiz.State == model.QuizPublished {
		return nil, ValidationError("no se puede modificar un quiz ya publicado")
	}
	q, err := s.store.GetQuestion(questionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if q.QuizID != quiz.ID {
		return nil, store.ErrNotFound
	}
	if action != prompts.ActionSwap && action != prompts.ActionAdjustDifficulty {
		return nil, validationf("acción desconocida: %q", action)
	}
	if action == prompts.ActionAdjustDifficulty && difficulty != "easier" && difficulty != "harder" {
		return nil, validationf("dificultad desconocida: %q", difficulty)
	}
	topic, err := s.store.GetTopic(c.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}

	res, err := s.gen.Generate(ctx, llm.Request{
		System:      prompts.QuizSystem(),
		User:        prompts.SingleQuestion(*q, *topic, action, difficulty),
		Temperature: quizTemperature,
		MaxTokens:   1024,
		JSONObject:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}

	var qp questionPayload
	if err := llm.DecodeObject(res.Text, &qp); err != nil {
		return nil, validationf("la respuesta del servicio de generación no tiene el formato esperado: %v", err)
	}
	replacement, err := normalizeQuestion(qp)
	if err != nil {
		return nil, validationf("pregunta generada inválida: %v", err)
	}

	q.Prompt = replacement.Prompt
	q.Type = replacement.Type
	q.Options = replacement.Options
	q.CorrectOptionID = replacement.CorrectOptionID
	q.ExpectedAnswer = replacement.ExpectedAnswer
	q.Justification = replacement.Justification

	if err := s.store.UpdateQuestion(*q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	slog.Info("modified question", "quiz_id", quizID, "question_id", questionID, "action", action)
	return q, nil
}

// PublishResult is the outcome of publishing a quiz.
type PublishResult struct {
	QuizID     int64          `json:"quiz_id"`
	Kind       model.QuizKind `json:"kind"`
	SentAt     time.Time      `json:"sent_at"`
	ClassState string         `json:"class_state"`
}

// PublishQuiz moves a draft quiz to published and advances the class to
// the corresponding sent state. Publishing twice is a conflict; the first
// publication timestamp never changes. Notifying students is the messaging
// surface's concern.
func (s *Service) PublishQuiz(ctx context.Context, teacherID, quizID int64) (*PublishResult, error) {
	q, c, err := s.ownedQuiz(quizID, teacherID)
	if err != nil {
		return nil, err
	}
	topic, err := s.store.GetTopic(c.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}

	sentAt, err := s.store.PublishQuiz(quizID)
	if err != nil {
		return nil, err
	}

	nextState := workflow.StatePreQuizSent
	if q.Kind == model.QuizPost {
		nextState = workflow.StatePostQuizSent
	}
	if err := s.advanceState(c, nextState, topic.Extraordinary); err != nil {
		return nil, err
	}

	slog.Info("published quiz", "quiz_id", quizID, "kind", q.Kind, "class_id", c.ID)

	return &PublishResult{
		QuizID:     quizID,
		Kind:       q.Kind,
		SentAt:     sentAt,
		ClassState: c.State,
	}, nil
}
