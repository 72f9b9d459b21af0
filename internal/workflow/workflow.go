// Package workflow owns the class state machine: the enumerated states a
// class moves through between creation and completion, the legal
// transitions between them, and the guard conditions assessment generation
// must satisfy.
package workflow

import "fmt"

// State is the workflow state of a class.
type State string

const (
	StateDraft              State = "draft"
	StateGuideGenerating    State = "guide_generating"
	StateGuideEditing       State = "guide_editing"
	StateGuideApproved      State = "guide_approved"
	StatePreQuizGenerating  State = "pre_quiz_generating"
	StatePreQuizSent        State = "pre_quiz_sent"
	StateAnalyzingPreQuiz   State = "analyzing_pre_quiz"
	StateModifyingGuide     State = "modifying_guide"
	StateFinalGuide         State = "final_guide"
	StatePostQuizGenerating State = "post_quiz_generating"
	StatePostQuizSent       State = "post_quiz_sent"
	StateAnalyzingResults   State = "analyzing_results"
	StateCompleted          State = "completed"

	// Administrative states that overlap the guide/quiz-ready portion of
	// the timeline. Entered by the scheduling surface, not by this
	// subsystem.
	StateScheduled State = "scheduled"
	StateInSession State = "in_session"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// transitions maps each state to the states it may move to. Several steps
// are re-entrant: generating states loop on themselves so a failed
// generation can be retried, a guide can be regenerated while editing, and
// analysis steps can be re-run on fresh responses.
var transitions = map[State][]State{
	StateDraft:              {StateGuideGenerating, StatePreQuizGenerating},
	StateGuideGenerating:    {StateGuideGenerating, StateGuideEditing},
	StateGuideEditing:       {StateGuideEditing, StateGuideGenerating, StateGuideApproved},
	StateGuideApproved:      {StateGuideApproved, StatePreQuizGenerating, StateGuideEditing},
	StatePreQuizGenerating:  {StatePreQuizSent, StatePreQuizGenerating},
	StatePreQuizSent:        {StateAnalyzingPreQuiz},
	StateAnalyzingPreQuiz:   {StateAnalyzingPreQuiz, StateModifyingGuide, StateFinalGuide},
	StateModifyingGuide:     {StateModifyingGuide, StateFinalGuide},
	StateFinalGuide:         {StatePostQuizGenerating},
	StatePostQuizGenerating: {StatePostQuizSent, StatePostQuizGenerating},
	StatePostQuizSent:       {StateAnalyzingResults},
	StateAnalyzingResults:   {StateAnalyzingResults, StateCompleted},
	StateCompleted:          {},
	StateScheduled:          {StateInSession, StateCompleted},
	StateInSession:          {StateCompleted},
}

// CanTransition reports whether a class may move from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a state change and returns the new state, or an
// error naming both states when the change is illegal.
func Transition(from, to State) (State, error) {
	if !from.Valid() {
		return from, fmt.Errorf("unknown class state %q", from)
	}
	if !CanTransition(from, to) {
		return from, fmt.Errorf("class cannot move from %q to %q", from, to)
	}
	return to, nil
}

// GuideStatus is the subset of guide-version state the quiz guards read.
type GuideStatus struct {
	Exists   bool
	Approved bool
	IsFinal  bool
}

// CanGeneratePreQuiz evaluates the diagnostic-quiz guard: the active guide
// must be approved unless the class's topic is extraordinary, in which case
// the guard is bypassed entirely.
func CanGeneratePreQuiz(guide GuideStatus, extraordinaryTopic bool) error {
	if extraordinaryTopic {
		return nil
	}
	if !guide.Exists || !guide.Approved {
		return ErrGuideNotApproved
	}
	return nil
}

// CanGeneratePostQuiz evaluates the summative-quiz guard: the active guide
// must be flagged final, with the same extraordinary-topic bypass.
func CanGeneratePostQuiz(guide GuideStatus, extraordinaryTopic bool) error {
	if extraordinaryTopic {
		return nil
	}
	if !guide.Exists || !guide.IsFinal {
		return ErrGuideNotFinal
	}
	return nil
}
