package domain

import (
	"errors"
	"fmt"
)

// BudgetExceededError reports that even the leanest prompt variant is too large.
type BudgetExceededError struct {
	Target string // what the prompt was for, e.g. the function under test
	Tokens int
	Budget int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("token budget exceeded for <%s> (%d/%d)", e.Target, e.Tokens, e.Budget)
}

// CancelledError reports that the user made no actionable choice.
type CancelledError struct {
	Msg string
}

func (e *CancelledError) Error() string {
	return e.Msg
}

// InputError reports malformed command input.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}

type OutcomeStatus int

const (
	OutcomeOK OutcomeStatus = iota
	OutcomeCancelled
	OutcomeBudgetExceeded
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeOK:
		return "ok"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeBudgetExceeded:
		return "budget_exceeded"
	}
	return "unknown"
}

// Outcome is the result of a workflow run. Only the fields of its status are set.
type Outcome struct {
	Status OutcomeStatus

	// OK
	Code string

	// Cancelled
	Message string

	// BudgetExceeded
	Tokens int
	Budget int
	Target string
}

// OutcomeFromError turns the expected failure kinds into outcomes.
// Any other error is returned unchanged.
func OutcomeFromError(err error) (Outcome, error) {
	var budget *BudgetExceededError
	var cancelled *CancelledError
	switch {
	case errors.As(err, &budget):
		return Outcome{Status: OutcomeBudgetExceeded, Tokens: budget.Tokens, Budget: budget.Budget, Target: budget.Target}, nil
	case errors.As(err, &cancelled):
		return Outcome{Status: OutcomeCancelled, Message: cancelled.Msg}, nil
	}
	return Outcome{}, err
}
