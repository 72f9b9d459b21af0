// Package service implements the class preparation workflow: guide
// generation and approval, assessment generation and publication,
// remediation, and result feedback. Every operation is a stateless unit of
// work that loads the class, checks ownership and workflow guards, calls
// the generation service where needed, and persists the outcome.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aulaflow/aulaflow/internal/llm"
	"github.com/aulaflow/aulaflow/internal/model"
	"github.com/aulaflow/aulaflow/internal/store"
	"github.com/aulaflow/aulaflow/internal/workflow"
)

// Generator is the text-generation capability the engines depend on.
// *llm.Client satisfies it; tests substitute a fake.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (*llm.Result, error)
}

// Service wires the engines to their collaborators.
type Service struct {
	store *store.Store
	gen   Generator
}

// New creates a Service.
func New(s *store.Store, gen Generator) *Service {
	return &Service{store: s, gen: gen}
}

// ValidationError is a precondition failure surfaced to the caller as a
// domain message. It is never retried.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func validationf(format string, args ...any) error {
	return ValidationError(fmt.Sprintf(format, args...))
}

// IsValidation reports whether err is a precondition failure.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v) ||
		errors.Is(err, workflow.ErrGuideNotApproved) ||
		errors.Is(err, workflow.ErrGuideNotFinal)
}

// ownedClass loads a class only when the teacher owns it. Unowned and
// missing classes both come back as store.ErrNotFound so callers cannot
// probe for existence.
func (s *Service) ownedClass(classID, teacherID int64) (*model.Class, error) {
	c, err := s.store.GetClassOwned(classID, teacherID)
	if err != nil {
		return nil, fmt.Errorf("load class %d: %w", classID, err)
	}
	return c, nil
}

// ownedQuiz loads a quiz together with its owning class, enforcing
// ownership through the class.
func (s *Service) ownedQuiz(quizID, teacherID int64) (*model.Quiz, *model.Class, error) {
	q, err := s.store.GetQuiz(quizID)
	if err != nil {
		return nil, nil, fmt.Errorf("load quiz %d: %w", quizID, err)
	}
	c, err := s.store.GetClassOwned(q.ClassID, teacherID)
	if err != nil {
		return nil, nil, fmt.Errorf("load class %d: %w", q.ClassID, err)
	}
	return q, c, nil
}

// advanceState moves the class to the next workflow state. When bypass is
// set (extraordinary topics) the transition table is not consulted: the
// guard exemption covers ordering as well.
func (s *Service) advanceState(c *model.Class, to workflow.State, bypass bool) error {
	if !bypass {
		next, err := workflow.Transition(workflow.State(c.State), to)
		if err != nil {
			return ValidationError(err.Error())
		}
		to = next
	}
	if err := s.store.UpdateClassState(c.ID, string(to)); err != nil {
		return fmt.Errorf("update class state: %w", err)
	}
	c.State = string(to)
	return nil
}
