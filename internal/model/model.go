package model

import "time"

// UserRole represents a user's access level.
type UserRole string

const (
	UserRoleTeacher UserRole = "teacher"
	UserRoleAdmin   UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Teacher links a user to the teacher identity that owns classes.
type Teacher struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
}

// Topic is a curriculum subject a class teaches. Extraordinary topics are
// created ad hoc by a teacher and exempt the class from guide-approval
// guards.
type Topic struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Summary       string `json:"summary"`
	GradeBand     string `json:"grade_band"`
	Extraordinary bool   `json:"extraordinary"`
}

// Group is a set of students a class is taught to.
type Group struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

// Student belongs to one group.
type Student struct {
	ID       int64  `json:"id"`
	GroupID  int64  `json:"group_id"`
	FullName string `json:"full_name"`
}

// Class is one teaching session, the root entity of the preparation
// workflow. ActiveGuideID points to the guide version currently in effect;
// TemplateID is nil for ad-hoc sessions.
type Class struct {
	ID            int64      `json:"id"`
	TeacherID     int64      `json:"teacher_id"`
	TopicID       int64      `json:"topic_id"`
	GroupID       int64      `json:"group_id"`
	TemplateID    *int64     `json:"template_id,omitempty"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	DurationMin   int        `json:"duration_min"`
	MethodTags    []string   `json:"method_tags"`
	Context       string     `json:"context"`
	State         string     `json:"state"`
	ActiveGuideID *int64     `json:"active_guide_version_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// GuideActivity is one timed block of a lesson guide.
type GuideActivity struct {
	DurationMin int    `json:"duration_min"`
	Activity    string `json:"activity"`
	Description string `json:"description"`
}

// GuideVersion is an immutable snapshot of a lesson guide. Corrections
// always produce a new version; version numbers are monotonic per class.
type GuideVersion struct {
	ID               int64           `json:"id"`
	ClassID          int64           `json:"class_id"`
	VersionNumber    int             `json:"version_number"`
	Objectives       []string        `json:"objectives"`
	Structure        []GuideActivity `json:"structure"`
	GuidingQuestions []string        `json:"guiding_questions"`
	Context          string          `json:"context"`
	Approved         bool            `json:"approved"`
	ApprovedBy       *int64          `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	IsFinal          bool            `json:"is_final"`
	CreatedAt        time.Time       `json:"created_at"`
}

// QuizKind distinguishes the diagnostic (pre) from the summative (post)
// assessment.
type QuizKind string

const (
	QuizPre  QuizKind = "pre"
	QuizPost QuizKind = "post"
)

// QuizState is the lifecycle state of a quiz.
type QuizState string

const (
	QuizDraft     QuizState = "draft"
	QuizPublished QuizState = "published"
	QuizClosed    QuizState = "closed"
)

// Quiz is one assessment instance tied to a class. At most one quiz exists
// per (class, kind). Reading is only set for pre quizzes.
type Quiz struct {
	ID           int64      `json:"id"`
	ClassID      int64      `json:"class_id"`
	Kind         QuizKind   `json:"kind"`
	Title        string     `json:"title"`
	State        QuizState  `json:"state"`
	TimeLimitMin int        `json:"time_limit_min"`
	Reading      string     `json:"reading,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// QuestionType discriminates the two question shapes.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionOpenResponse   QuestionType = "open_response"
)

// Option is one answer choice with a stable identifier that survives
// prompt edits.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Question belongs to one quiz. Multiple-choice questions carry at least
// four options and CorrectOptionID names exactly one of them; open-response
// questions carry zero options and an ExpectedAnswer instead.
type Question struct {
	ID              int64        `json:"id"`
	QuizID          int64        `json:"quiz_id"`
	Position        int          `json:"position"`
	Prompt          string       `json:"prompt"`
	Type            QuestionType `json:"type"`
	Options         []Option     `json:"options,omitempty"`
	CorrectOptionID string       `json:"correct_option_id,omitempty"`
	ExpectedAnswer  string       `json:"expected_answer,omitempty"`
	Justification   string       `json:"justification,omitempty"`
	Reading         string       `json:"reading,omitempty"`
}

// ResponseStatus is the state of a student submission.
type ResponseStatus string

const (
	ResponseInProgress ResponseStatus = "in_progress"
	ResponseCompleted  ResponseStatus = "completed"
)

// Response is one student's submission to a quiz, produced by the
// student-facing surface and read-only here.
type Response struct {
	ID          int64          `json:"id"`
	QuizID      int64          `json:"quiz_id"`
	StudentID   int64          `json:"student_id"`
	Status      ResponseStatus `json:"status"`
	Score       float64        `json:"score"`
	PctCorrect  float64        `json:"pct_correct"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`
}

// Answer is the per-question detail of a response.
type Answer struct {
	ID           int64  `json:"id"`
	ResponseID   int64  `json:"response_id"`
	QuestionID   int64  `json:"question_id"`
	Value        string `json:"value"`
	Correct      bool   `json:"correct"`
	TimeSpentSec int    `json:"time_spent_sec"`
}

// Recommendation is a suggested guide change derived from diagnostic-quiz
// analysis. Applied recommendations are linked to the guide version they
// were folded into.
type Recommendation struct {
	ID               int64     `json:"id"`
	ClassID          int64     `json:"class_id"`
	QuizID           *int64    `json:"quiz_id,omitempty"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Priority         string    `json:"priority"`
	Area             string    `json:"area"`
	Applied          bool      `json:"applied"`
	AppliedVersionID *int64    `json:"applied_version_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// FeedbackAudience tags who a generated feedback note is addressed to.
type FeedbackAudience string

const (
	FeedbackStudent           FeedbackAudience = "student"
	FeedbackTeacherIndividual FeedbackAudience = "teacher_individual"
	FeedbackTeacherGroup      FeedbackAudience = "teacher_group"
	FeedbackGuardian          FeedbackAudience = "guardian"
)

// Feedback is one generated note on summative-quiz results. Rows are
// immutable; regeneration appends new rows.
type Feedback struct {
	ID        int64            `json:"id"`
	ClassID   int64            `json:"class_id"`
	QuizID    int64            `json:"quiz_id"`
	Audience  FeedbackAudience `json:"audience"`
	StudentID *int64           `json:"student_id,omitempty"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
}

// QuestionStat is the per-question accuracy aggregate fed to the
// remediation and feedback prompts.
type QuestionStat struct {
	QuestionID int64   `json:"question_id"`
	Prompt     string  `json:"prompt"`
	Answered   int     `json:"answered"`
	Correct    int     `json:"correct"`
	Accuracy   float64 `json:"accuracy"`
}

// QuizStats aggregates completed responses to a quiz.
type QuizStats struct {
	Responses   int            `json:"responses"`
	AvgScore    float64        `json:"avg_score"`
	AvgAccuracy float64        `json:"avg_accuracy"`
	PerQuestion []QuestionStat `json:"per_question"`
}

// StudentResult is one student's aggregate over a completed response.
type StudentResult struct {
	StudentID   int64   `json:"student_id"`
	StudentName string  `json:"student_name"`
	Correct     int     `json:"correct"`
	Total       int     `json:"total"`
	Accuracy    float64 `json:"accuracy"`
	Score       float64 `json:"score"`
}
