// Package prompts builds the system and user instructions for every
// generation call the workflow issues. Each builder states the JSON
// contract the caller parses the response against.
package prompts

import (
	"fmt"
	"strings"

	"github.com/aulaflow/aulaflow/internal/model"
)

// GuideData carries the class context embedded in a guide-generation
// prompt.
type GuideData struct {
	Topic           model.Topic
	Group           model.Group
	DurationMin     int
	MethodTags      []string
	ExtraContext    string
	Recommendations []model.Recommendation
}

// GuideSystem is the system instruction for lesson-guide generation.
func GuideSystem() string {
	return "Eres un diseñador pedagógico experto. Generas guías de clase estructuradas " +
		"y respondes únicamente con un objeto JSON válido, sin texto adicional."
}

// Guide builds the user instruction for generating a lesson guide.
func Guide(d GuideData) string {
	var sb strings.Builder
	sb.WriteString("Genera una guía de clase completa.\n\n")
	fmt.Fprintf(&sb, "TEMA: %s\n", d.Topic.Name)
	if d.Topic.Summary != "" {
		fmt.Fprintf(&sb, "DESCRIPCIÓN DEL TEMA: %s\n", d.Topic.Summary)
	}
	fmt.Fprintf(&sb, "GRUPO: %s (grado %s)\n", d.Group.Name, d.Group.Grade)
	if d.Topic.GradeBand != "" {
		fmt.Fprintf(&sb, "NIVEL: %s\n", d.Topic.GradeBand)
	}
	fmt.Fprintf(&sb, "DURACIÓN DE LA SESIÓN: %d minutos\n", d.DurationMin)
	if len(d.MethodTags) > 0 {
		fmt.Fprintf(&sb, "MÉTODOS PEDAGÓGICOS: %s\n", strings.Join(d.MethodTags, ", "))
	}
	if d.ExtraContext != "" {
		fmt.Fprintf(&sb, "CONTEXTO ADICIONAL DEL DOCENTE: %s\n", d.ExtraContext)
	}
	if len(d.Recommendations) > 0 {
		sb.WriteString("\nRECOMENDACIONES PENDIENTES DE SESIONES ANTERIORES:\n")
		for _, r := range d.Recommendations {
			fmt.Fprintf(&sb, "- [%s] %s: %s\n", r.Priority, r.Title, r.Description)
		}
	}
	sb.WriteString("\nLa suma de las duraciones de las actividades debe cubrir la sesión completa.\n")
	sb.WriteString("\nResponde SOLO con un objeto JSON con esta forma:\n")
	sb.WriteString(`{"objectives": ["..."], "structure": [{"duration_min": 10, "activity": "...", "description": "..."}], "guiding_questions": ["..."]}`)
	sb.WriteString("\n")
	return sb.String()
}

// QuizData carries the context embedded in a quiz-generation prompt.
type QuizData struct {
	Kind         model.QuizKind
	Topic        model.Topic
	Guide        *model.GuideVersion
	GradeBand    string
	NumQuestions int
}

// QuizSystem is the system instruction for quiz generation.
func QuizSystem() string {
	return "Eres un evaluador educativo experto. Generas evaluaciones alineadas con la guía " +
		"de clase y respondes únicamente con un objeto JSON válido, sin texto adicional."
}

// Quiz builds the user instruction for generating a pre or post quiz.
func Quiz(d QuizData) string {
	var sb strings.Builder
	if d.Kind == model.QuizPre {
		fmt.Fprintf(&sb, "Genera un quiz diagnóstico con exactamente %d preguntas de opción múltiple.\n\n", d.NumQuestions)
		sb.WriteString("Incluye una lectura breve de contexto (150 a 250 palabras) sobre el tema; ")
		sb.WriteString("las preguntas deben evaluar recuerdo de conceptos teóricos de la lectura.\n\n")
	} else {
		fmt.Fprintf(&sb, "Genera un quiz sumativo con exactamente %d preguntas.\n\n", d.NumQuestions)
		sb.WriteString("Sin lectura de contexto. Mezcla preguntas de opción múltiple y de respuesta abierta; ")
		sb.WriteString("enfócate en análisis y aplicación, no en memorización.\n\n")
	}
	fmt.Fprintf(&sb, "TEMA: %s\n", d.Topic.Name)
	if d.Topic.Summary != "" {
		fmt.Fprintf(&sb, "DESCRIPCIÓN: %s\n", d.Topic.Summary)
	}
	if d.GradeBand != "" {
		fmt.Fprintf(&sb, "NIVEL: %s\n", d.GradeBand)
	}
	if d.Guide != nil {
		sb.WriteString("\nOBJETIVOS DE LA GUÍA:\n")
		for _, o := range d.Guide.Objectives {
			fmt.Fprintf(&sb, "- %s\n", o)
		}
	}
	sb.WriteString("\nCada pregunta de opción múltiple debe tener al menos 4 opciones y exactamente una correcta.\n")
	sb.WriteString("\nResponde SOLO con un objeto JSON con esta forma:\n")
	if d.Kind == model.QuizPre {
		sb.WriteString(`{"reading": "...", "questions": [{"prompt": "...", "type": "multiple_choice", "options": ["..."], "correct_index": 0, "justification": "..."}]}`)
	} else {
		sb.WriteString(`{"questions": [{"prompt": "...", "type": "multiple_choice|open_response", "options": ["..."], "correct_index": 0, "expected_answer": "...", "justification": "..."}]}`)
	}
	sb.WriteString("\n")
	return sb.String()
}

// SingleQuestionAction names the per-question mutation requested.
type SingleQuestionAction string

const (
	ActionSwap             SingleQuestionAction = "swap"
	ActionAdjustDifficulty SingleQuestionAction = "adjust_difficulty"
)

// SingleQuestion builds the user instruction for replacing or re-leveling
// one question. difficulty is "easier" or "harder" and only read for
// adjust_difficulty.
func SingleQuestion(q model.Question, topic model.Topic, action SingleQuestionAction, difficulty string) string {
	var sb strings.Builder
	switch action {
	case ActionAdjustDifficulty:
		level := "más fácil"
		if difficulty == "harder" {
			level = "más difícil"
		}
		fmt.Fprintf(&sb, "Reescribe la siguiente pregunta para que sea %s, conservando la misma intención de aprendizaje.\n\n", level)
	default:
		sb.WriteString("Reemplaza la siguiente pregunta por una pregunta nueva y distinta sobre el mismo tema.\n\n")
	}
	fmt.Fprintf(&sb, "TEMA: %s\n", topic.Name)
	fmt.Fprintf(&sb, "PREGUNTA ACTUAL: %s\n", q.Prompt)
	fmt.Fprintf(&sb, "TIPO: %s\n", q.Type)
	if q.Reading != "" {
		fmt.Fprintf(&sb, "LECTURA DE CONTEXTO: %s\n", q.Reading)
	}
	sb.WriteString("\nRegenera por completo las opciones y la respuesta correcta; no reutilices las opciones actuales.\n")
	sb.WriteString("Si la pregunta es de opción múltiple, incluye al menos 4 opciones.\n")
	sb.WriteString("\nResponde SOLO con un objeto JSON con esta forma:\n")
	sb.WriteString(`{"prompt": "...", "type": "multiple_choice|open_response", "options": ["..."], "correct_index": 0, "expected_answer": "...", "justification": "..."}`)
	sb.WriteString("\n")
	return sb.String()
}

// RemediationData carries guide content and quiz statistics for the
// recommendation prompt.
type RemediationData struct {
	Guide *model.GuideVersion
	Stats model.QuizStats
}

// RemediationSystem is the system instruction for recommendation analysis.
func RemediationSystem() string {
	return "Eres un asesor pedagógico. Analizas resultados de evaluaciones diagnósticas y " +
		"propones mejoras concretas a la guía de clase. Respondes únicamente con un objeto JSON válido."
}

// Remediation builds the user instruction for deriving recommendations
// from diagnostic-quiz results.
func Remediation(d RemediationData) string {
	var sb strings.Builder
	sb.WriteString("Analiza los resultados del quiz diagnóstico y propone recomendaciones para ajustar la guía.\n\n")
	if d.Guide != nil {
		sb.WriteString("OBJETIVOS ACTUALES:\n")
		for _, o := range d.Guide.Objectives {
			fmt.Fprintf(&sb, "- %s\n", o)
		}
		sb.WriteString("\nESTRUCTURA ACTUAL:\n")
		for _, a := range d.Guide.Structure {
			fmt.Fprintf(&sb, "- (%d min) %s: %s\n", a.DurationMin, a.Activity, a.Description)
		}
	}
	fmt.Fprintf(&sb, "\nRESULTADOS: %d respuestas completadas, precisión promedio %.0f%%\n", d.Stats.Responses, d.Stats.AvgAccuracy*100)
	sb.WriteString("\nPRECISIÓN POR PREGUNTA:\n")
	for _, q := range d.Stats.PerQuestion {
		fmt.Fprintf(&sb, "- %q: %d/%d correctas (%.0f%%)\n", q.Prompt, q.Correct, q.Answered, q.Accuracy*100)
	}
	sb.WriteString("\nPrioriza las áreas con menor precisión.\n")
	sb.WriteString("\nResponde SOLO con un objeto JSON con esta forma:\n")
	sb.WriteString(`{"summary": "...", "recommendations": [{"title": "...", "description": "...", "priority": "alta|media|baja", "area": "..."}]}`)
	sb.WriteString("\n")
	return sb.String()
}

// ApplyData carries the inputs for rewriting a guide with selected
// recommendations folded in.
type ApplyData struct {
	Guide           *model.GuideVersion
	Recommendations []model.Recommendation
}

// Apply builds the user instruction for producing the next guide version
// from the current one plus the selected recommendations.
func Apply(d ApplyData) string {
	var sb strings.Builder
	sb.WriteString("Reescribe la guía de clase incorporando las recomendaciones seleccionadas, ")
	sb.WriteString("preservando la calidad y la cobertura de los objetivos originales.\n\n")
	sb.WriteString("OBJETIVOS:\n")
	for _, o := range d.Guide.Objectives {
		fmt.Fprintf(&sb, "- %s\n", o)
	}
	sb.WriteString("\nESTRUCTURA:\n")
	for _, a := range d.Guide.Structure {
		fmt.Fprintf(&sb, "- (%d min) %s: %s\n", a.DurationMin, a.Activity, a.Description)
	}
	sb.WriteString("\nPREGUNTAS GUÍA:\n")
	for _, q := range d.Guide.GuidingQuestions {
		fmt.Fprintf(&sb, "- %s\n", q)
	}
	sb.WriteString("\nRECOMENDACIONES A INCORPORAR:\n")
	for _, r := range d.Recommendations {
		fmt.Fprintf(&sb, "- [%s] %s: %s\n", r.Priority, r.Title, r.Description)
	}
	sb.WriteString("\nResponde SOLO con un objeto JSON con esta forma:\n")
	sb.WriteString(`{"objectives": ["..."], "structure": [{"duration_min": 10, "activity": "...", "description": "..."}], "guiding_questions": ["..."]}`)
	sb.WriteString("\n")
	return sb.String()
}

// FeedbackSystem is the system instruction for result feedback.
func FeedbackSystem() string {
	return "Eres un docente empático y claro. Redactas retroalimentación sobre resultados de " +
		"evaluaciones adaptada a la audiencia indicada, en español sencillo."
}

// StudentFeedback builds the student-facing feedback instruction.
func StudentFeedback(topic model.Topic, r model.StudentResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Escribe retroalimentación dirigida al estudiante %s sobre su quiz de %s.\n\n", r.StudentName, topic.Name)
	fmt.Fprintf(&sb, "RESULTADO: %d de %d correctas (%.0f%%), calificación %.1f\n\n", r.Correct, r.Total, r.Accuracy*100, r.Score)
	sb.WriteString("Incluye: fortalezas, áreas de crecimiento, un mensaje motivacional y sugerencias concretas de estudio.\n")
	sb.WriteString("Máximo 200 palabras, en segunda persona.\n")
	return sb.String()
}

// TeacherIndividualFeedback builds the teacher-facing per-student
// instruction.
func TeacherIndividualFeedback(topic model.Topic, r model.StudentResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Escribe un análisis para el docente sobre el desempeño de %s en el quiz de %s.\n\n", r.StudentName, topic.Name)
	fmt.Fprintf(&sb, "RESULTADO: %d de %d correctas (%.0f%%), calificación %.1f\n\n", r.Correct, r.Total, r.Accuracy*100, r.Score)
	sb.WriteString("Incluye: análisis de desempeño, nivel de comprensión estimado y recomendaciones pedagógicas específicas.\n")
	sb.WriteString("Máximo 200 palabras, tono profesional.\n")
	return sb.String()
}

// GuardianFeedback builds the guardian-facing instruction.
func GuardianFeedback(topic model.Topic, r model.StudentResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Escribe una nota para la familia de %s sobre su resultado en el quiz de %s.\n\n", r.StudentName, topic.Name)
	fmt.Fprintf(&sb, "RESULTADO: %d de %d correctas (%.0f%%)\n\n", r.Correct, r.Total, r.Accuracy*100)
	sb.WriteString("Usa lenguaje cotidiano, sin tecnicismos. Incluye un resumen del resultado y ")
	sb.WriteString("sugerencias de apoyo en casa. Máximo 150 palabras.\n")
	return sb.String()
}

// GroupFeedback builds the teacher-facing group instruction from the full
// roster's statistics.
func GroupFeedback(topic model.Topic, group model.Group, stats model.QuizStats, results []model.StudentResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Escribe un análisis grupal para el docente del grupo %s sobre el quiz de %s.\n\n", group.Name, topic.Name)
	fmt.Fprintf(&sb, "RESULTADOS: %d estudiantes, precisión promedio %.0f%%\n\n", stats.Responses, stats.AvgAccuracy*100)
	sb.WriteString("PRECISIÓN POR PREGUNTA:\n")
	for _, q := range stats.PerQuestion {
		fmt.Fprintf(&sb, "- %q: %.0f%%\n", q.Prompt, q.Accuracy*100)
	}
	sb.WriteString("\nPOR ESTUDIANTE:\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s: %d/%d (%.0f%%)\n", r.StudentName, r.Correct, r.Total, r.Accuracy*100)
	}
	sb.WriteString("\nIncluye: fortalezas del grupo, debilidades comunes, patrones observados y recomendaciones para la siguiente sesión.\n")
	sb.WriteString("Máximo 300 palabras.\n")
	return sb.String()
}
