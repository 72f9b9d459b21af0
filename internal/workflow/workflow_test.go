package workflow

import (
	"errors"
	"testing"
)

func TestTransitionHappyPath(t *testing.T) {
	path := []State{
		StateDraft,
		StateGuideGenerating,
		StateGuideEditing,
		StateGuideApproved,
		StatePreQuizGenerating,
		StatePreQuizSent,
		StateAnalyzingPreQuiz,
		StateModifyingGuide,
		StateFinalGuide,
		StatePostQuizGenerating,
		StatePostQuizSent,
		StateAnalyzingResults,
		StateCompleted,
	}
	cur := path[0]
	for _, next := range path[1:] {
		got, err := Transition(cur, next)
		if err != nil {
			t.Fatalf("Transition(%q, %q): %v", cur, next, err)
		}
		if got != next {
			t.Fatalf("Transition(%q, %q) = %q, want %q", cur, next, got, next)
		}
		cur = got
	}
}

func TestTransitionIllegal(t *testing.T) {
	tests := []struct {
		from, to State
	}{
		{StateDraft, StateGuideApproved},
		{StateDraft, StatePostQuizGenerating},
		{StateGuideEditing, StatePreQuizSent},
		{StatePreQuizSent, StateModifyingGuide},
		{StateCompleted, StateDraft},
		{StateFinalGuide, StateGuideEditing},
		{StatePostQuizSent, StateCompleted},
	}
	for _, tt := range tests {
		got, err := Transition(tt.from, tt.to)
		if err == nil {
			t.Errorf("Transition(%q, %q): want error, got nil", tt.from, tt.to)
		}
		if got != tt.from {
			t.Errorf("Transition(%q, %q) = %q, want unchanged %q", tt.from, tt.to, got, tt.from)
		}
	}
}

func TestTransitionUnknownState(t *testing.T) {
	if _, err := Transition(State("banana"), StateDraft); err == nil {
		t.Fatal("want error for unknown source state")
	}
}

func TestReentrantTransitions(t *testing.T) {
	// Regeneration and re-analysis steps loop back into themselves, and the
	// generating states do too so a failed generation never strands a class.
	for _, s := range []State{
		StateGuideGenerating,
		StateGuideEditing,
		StateGuideApproved,
		StatePreQuizGenerating,
		StateAnalyzingPreQuiz,
		StateModifyingGuide,
		StatePostQuizGenerating,
		StateAnalyzingResults,
	} {
		if !CanTransition(s, s) {
			t.Errorf("CanTransition(%q, %q) = false, want re-entrant", s, s)
		}
	}
}

func TestValid(t *testing.T) {
	if !StateDraft.Valid() {
		t.Error("draft should be valid")
	}
	if State("nope").Valid() {
		t.Error("unknown state should not be valid")
	}
}

func TestCanGeneratePreQuiz(t *testing.T) {
	tests := []struct {
		name          string
		guide         GuideStatus
		extraordinary bool
		wantErr       error
	}{
		{"no guide", GuideStatus{}, false, ErrGuideNotApproved},
		{"unapproved guide", GuideStatus{Exists: true}, false, ErrGuideNotApproved},
		{"approved guide", GuideStatus{Exists: true, Approved: true}, false, nil},
		{"extraordinary bypasses missing guide", GuideStatus{}, true, nil},
		{"extraordinary bypasses unapproved guide", GuideStatus{Exists: true}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanGeneratePreQuiz(tt.guide, tt.extraordinary)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CanGeneratePreQuiz(%+v, %v) = %v, want %v", tt.guide, tt.extraordinary, err, tt.wantErr)
			}
		})
	}
}

func TestCanGeneratePostQuiz(t *testing.T) {
	tests := []struct {
		name          string
		guide         GuideStatus
		extraordinary bool
		wantErr       error
	}{
		{"no guide", GuideStatus{}, false, ErrGuideNotFinal},
		{"approved but not final", GuideStatus{Exists: true, Approved: true}, false, ErrGuideNotFinal},
		{"final guide", GuideStatus{Exists: true, Approved: true, IsFinal: true}, false, nil},
		{"extraordinary bypasses non-final guide", GuideStatus{Exists: true, Approved: true}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanGeneratePostQuiz(tt.guide, tt.extraordinary)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CanGeneratePostQuiz(%+v, %v) = %v, want %v", tt.guide, tt.extraordinary, err, tt.wantErr)
			}
		})
	}
}
