package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aulaflow/aulaflow/internal/llm"
	"github.com/aulaflow/aulaflow/internal/model"
	"github.com/aulaflow/aulaflow/internal/store"
)

// fakeGen returns scripted responses in order and records every request.
// When the script runs out the last entry repeats.
type fakeGen struct {
	script []fakeReply
	calls  []llm.Request
}

type fakeReply struct {
	text string
	err  error
}

func (f *fakeGen) Generate(_ context.Context, req llm.Request) (*llm.Result, error) {
	f.calls = append(f.calls, req)
	if len(f.script) == 0 {
		return nil, fmt.Errorf("fakeGen: no scripted reply")
	}
	i := len(f.calls) - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	r := f.script[i]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.Result{Text: r.text, Model: "fake"}, nil
}

// fixture is one teacher with a scheduled class, ready for workflow tests.
type fixture struct {
	store     *store.Store
	gen       *fakeGen
	svc       *Service
	teacherID int64
	classID   int64
	topicID   int64
	groupID   int64
}

func newFixture(t *testing.T, extraordinary bool) *fixture {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	userID, err := s.CreateUser(model.User{
		Username: "docente", PasswordHash: "x", Role: model.UserRoleTeacher, Active: true,
	})
	require.NoError(t, err)
	teacherID, err := s.CreateTeacher(model.Teacher{UserID: userID, FullName: "Docente"})
	require.NoError(t, err)

	topicID, err := s.CreateTopic(model.Topic{
		Name: "Fracciones equivalentes", Summary: "Equivalencia de fracciones",
		GradeBand: "secundaria", Extraordinary: extraordinary,
	})
	require.NoError(t, err)
	groupID, err := s.CreateGroup(model.Group{Name: "3A", Grade: "3"})
	require.NoError(t, err)

	classID, err := s.CreateClass(model.Class{
		TeacherID:   teacherID,
		TopicID:     topicID,
		GroupID:     groupID,
		ScheduledAt: time.Now().Add(24 * time.Hour),
		DurationMin: 60,
		MethodTags:  []string{"colaborativo"},
		State:       "draft",
	})
	require.NoError(t, err)

	gen := &fakeGen{}
	return &fixture{
		store:     s,
		gen:       gen,
		svc:       New(s, gen),
		teacherID: teacherID,
		classID:   classID,
		topicID:   topicID,
		groupID:   groupID,
	}
}

func (f *fixture) setState(t *testing.T, state string) {
	t.Helper()
	require.NoError(t, f.store.UpdateClassState(f.classID, state))
}

func (f *fixture) classState(t *testing.T) string {
	t.Helper()
	c, err := f.store.GetClass(f.classID)
	require.NoError(t, err)
	return c.State
}

func (f *fixture) addStudent(t *testing.T, name string) int64 {
	t.Helper()
	id, err := f.store.CreateStudent(model.Student{GroupID: f.groupID, FullName: name})
	require.NoError(t, err)
	return id
}

// approvedGuide inserts one approved guide version and leaves the class in
// guide_approved.
func (f *fixture) approvedGuide(t *testing.T) *model.GuideVersion {
	t.Helper()
	v, err := f.store.CreateGuideVersion(model.GuideVersion{
		ClassID:    f.classID,
		Objectives: []string{"Comprender fracciones equivalentes"},
		Structure:  []model.GuideActivity{{DurationMin: 30, Activity: "Explicación"}},
	})
	require.NoError(t, err)
	require.NoError(t, f.store.ApproveGuideVersion(v.ID, f.teacherID))
	f.setState(t, "guide_approved")
	v, err = f.store.GetGuideVersion(v.ID)
	require.NoError(t, err)
	return v
}

// finalGuide inserts one approved final guide version and leaves the class
// in final_guide.
func (f *fixture) finalGuide(t *testing.T) *model.GuideVersion {
	t.Helper()
	v, err := f.store.CreateGuideVersion(model.GuideVersion{
		ClassID:    f.classID,
		Objectives: []string{"Dominar fracciones equivalentes"},
		Approved:   true,
		IsFinal:    true,
	})
	require.NoError(t, err)
	f.setState(t, "final_guide")
	return v
}

// mcQuestionJSON builds one multiple-choice question payload.
func mcQuestionJSON(prompt string) string {
	return fmt.Sprintf(`{"prompt":%q,"type":"multiple_choice","options":["1/2 y 2/4","1/3 y 2/3","3/4 y 4/3","1/5 y 2/5"],"correct_index":0,"justification":"Equivalencia por amplificación."}`, prompt)
}

// quizJSON builds a quiz payload with n multiple-choice questions.
func quizJSON(reading string, n int) string {
	var qs []string
	for i := 1; i <= n; i++ {
		qs = append(qs, mcQuestionJSON(fmt.Sprintf("Pregunta %d", i)))
	}
	return fmt.Sprintf(`{"reading":%q,"questions":[%s]}`, reading, strings.Join(qs, ","))
}

const guideJSON = `{
  "objectives": ["Identificar fracciones equivalentes", "Comparar fracciones"],
  "structure": [
    {"duration_min": 10, "activity": "Inicio", "description": "Activación de saberes previos"},
    {"duration_min": 40, "activity": "Desarrollo", "description": "Trabajo en equipos"},
    {"duration_min": 10, "activity": "Cierre", "description": "Puesta en común"}
  ],
  "guiding_questions": ["¿Cuándo son equivalentes dos fracciones?"]
}`

// completedResponse inserts one completed submission with one answer per
// question.
func (f *fixture) completedResponse(t *testing.T, quizID, studentID int64, correct []bool) int64 {
	t.Helper()
	questions, err := f.store.ListQuestions(quizID)
	require.NoError(t, err)
	require.Len(t, questions, len(correct))

	score := 0.0
	for _, ok := range correct {
		if ok {
			score++
		}
	}
	now := time.Now()
	respID, err := f.store.CreateResponse(model.Response{
		QuizID:      quizID,
		StudentID:   studentID,
		Status:      model.ResponseCompleted,
		Score:       score,
		PctCorrect:  score / float64(len(correct)),
		SubmittedAt: &now,
	})
	require.NoError(t, err)
	for i, q := range questions {
		_, err := f.store.CreateAnswer(model.Answer{
			ResponseID: respID, QuestionID: q.ID, Value: "r", Correct: correct[i], TimeSpentSec: 20,
		})
		require.NoError(t, err)
	}
	return respID
}
