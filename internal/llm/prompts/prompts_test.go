package prompts

import (
	"strings"
	"testing"

	"github.com/aulaflow/aulaflow/internal/model"
)

var testTopic = model.Topic{
	Name: "Fracciones equivalentes", Summary: "Equivalencia de fracciones", GradeBand: "secundaria",
}

func TestGuidePrompt(t *testing.T) {
	d := GuideData{
		Topic:        testTopic,
		Group:        model.Group{Name: "3A", Grade: "3"},
		DurationMin:  60,
		MethodTags:   []string{"colaborativo", "visual"},
		ExtraContext: "Grupo con dificultades en denominadores",
		Recommendations: []model.Recommendation{
			{Title: "Reforzar simplificación", Description: "Más ejercicios guiados", Priority: "alta"},
		},
	}
	prompt := Guide(d)

	for _, want := range []string{
		"Fracciones equivalentes",
		"3A",
		"60 minutos",
		"colaborativo, visual",
		"dificultades en denominadores",
		"Reforzar simplificación",
		`"guiding_questions"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("guide prompt should contain %q", want)
		}
	}
}

func TestGuidePromptOmitsEmptySections(t *testing.T) {
	prompt := Guide(GuideData{Topic: testTopic, Group: model.Group{Name: "3A"}, DurationMin: 45})

	if strings.Contains(prompt, "MÉTODOS PEDAGÓGICOS") {
		t.Error("prompt should omit methods when none given")
	}
	if strings.Contains(prompt, "RECOMENDACIONES PENDIENTES") {
		t.Error("prompt should omit recommendations when none given")
	}
}

func TestQuizPromptPre(t *testing.T) {
	prompt := Quiz(QuizData{
		Kind:         model.QuizPre,
		Topic:        testTopic,
		GradeBand:    "secundaria",
		NumQuestions: 3,
	})

	if !strings.Contains(prompt, "quiz diagnóstico") {
		t.Error("pre prompt should ask for the diagnostic quiz")
	}
	if !strings.Contains(prompt, "3 preguntas") {
		t.Error("pre prompt should request 3 questions")
	}
	if !strings.Contains(prompt, "150 a 250 palabras") {
		t.Error("pre prompt should bound the reading length")
	}
	if !strings.Contains(prompt, `"reading"`) {
		t.Error("pre contract should include the reading field")
	}
}

func TestQuizPromptPost(t *testing.T) {
	guide := &model.GuideVersion{Objectives: []string{"Dominar equivalencias"}}
	prompt := Quiz(QuizData{
		Kind:         model.QuizPost,
		Topic:        testTopic,
		Guide:        guide,
		NumQuestions: 10,
	})

	if !strings.Contains(prompt, "quiz sumativo") {
		t.Error("post prompt should ask for the summative quiz")
	}
	if !strings.Contains(prompt, "10 preguntas") {
		t.Error("post prompt should request 10 questions")
	}
	if !strings.Contains(prompt, "Sin lectura") {
		t.Error("post prompt should exclude the reading")
	}
	if !strings.Contains(prompt, "Dominar equivalencias") {
		t.Error("post prompt should embed the guide objectives")
	}
	if strings.Contains(prompt, `{"reading"`) {
		t.Error("post contract should not include the reading field")
	}
}

func TestSingleQuestionPrompt(t *testing.T) {
	q := model.Question{Prompt: "¿Cuál par es equivalente?", Type: model.QuestionMultipleChoice}

	swap := SingleQuestion(q, testTopic, ActionSwap, "")
	if !strings.Contains(swap, "pregunta nueva y distinta") {
		t.Error("swap prompt should ask for a fresh question")
	}
	if !strings.Contains(swap, q.Prompt) {
		t.Error("swap prompt should embed the current question")
	}
	if !strings.Contains(swap, "no reutilices las opciones") {
		t.Error("swap prompt should forbid option reuse")
	}

	easier := SingleQuestion(q, testTopic, ActionAdjustDifficulty, "easier")
	if !strings.Contains(easier, "más fácil") {
		t.Error("easier prompt should lower the difficulty")
	}
	harder := SingleQuestion(q, testTopic, ActionAdjustDifficulty, "harder")
	if !strings.Contains(harder, "más difícil") {
		t.Error("harder prompt should raise the difficulty")
	}
}

func TestRemediationPrompt(t *testing.T) {
	prompt := Remediation(RemediationData{
		Guide: &model.GuideVersion{Objectives: []string{"Identificar equivalencias"}},
		Stats: model.QuizStats{
			Responses:   2,
			AvgAccuracy: 0.5,
			PerQuestion: []model.QuestionStat{
				{Prompt: "Pregunta difícil", Answered: 2, Correct: 0, Accuracy: 0},
			},
		},
	})

	if !strings.Contains(prompt, "Identificar equivalencias") {
		t.Error("remediation prompt should embed the current objectives")
	}
	if !strings.Contains(prompt, "2 respuestas completadas") {
		t.Error("remediation prompt should state the response count")
	}
	if !strings.Contains(prompt, "Pregunta difícil") {
		t.Error("remediation prompt should list per-question accuracy")
	}
	if !strings.Contains(prompt, `"priority"`) {
		t.Error("remediation contract should include priority")
	}
}

func TestFeedbackPrompts(t *testing.T) {
	r := model.StudentResult{StudentName: "Ana Torres", Correct: 8, Total: 10, Accuracy: 0.8, Score: 8}

	student := StudentFeedback(testTopic, r)
	if !strings.Contains(student, "Ana Torres") || !strings.Contains(student, "segunda persona") {
		t.Error("student prompt should address the student directly")
	}

	teacher := TeacherIndividualFeedback(testTopic, r)
	if !strings.Contains(teacher, "para el docente") {
		t.Error("teacher prompt should address the teacher")
	}

	guardian := GuardianFeedback(testTopic, r)
	if !strings.Contains(guardian, "familia") || !strings.Contains(guardian, "sin tecnicismos") {
		t.Error("guardian prompt should use family-friendly language")
	}

	group := GroupFeedback(testTopic, model.Group{Name: "3A"}, model.QuizStats{
		Responses: 1, AvgAccuracy: 0.8,
		PerQuestion: []model.QuestionStat{{Prompt: "P1", Accuracy: 0.8}},
	}, []model.StudentResult{r})
	if !strings.Contains(group, "grupo 3A") || !strings.Contains(group, "Ana Torres") {
		t.Error("group prompt should cover the group and roster")
	}
}
