package errors

import (
	"errors"
	"fmt"
	"strings"
)

// StageError carries the context a human needs to decide whether to retry:
// which article, in which phase, doing what, and why it failed.
type StageError struct {
	Kind      Kind
	Phase     string
	ArticleID string
	Op        string
	Err       error
}

// NewStageError builds a StageError. A nil cause yields a nil error.
func NewStageError(kind Kind, phase, articleID, op string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{
		Kind:      kind,
		Phase:     phase,
		ArticleID: articleID,
		Op:        op,
		Err:       err,
	}
}

func (e *StageError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if sb.Len() == 0 {
		sb.WriteString(string(e.Kind))
	}
	if e.ArticleID != "" || e.Phase != "" {
		fmt.Fprintf(&sb, " [article=%s phase=%s]", e.ArticleID, e.Phase)
	}
	// Causes built with Lookup, Generation and friends already carry the
	// sentinel text.
	if sentinel := e.Kind.Sentinel(); sentinel != nil && !errors.Is(e.Err, sentinel) {
		fmt.Fprintf(&sb, ": %v", sentinel)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *StageError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := e.Kind.Sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Validation returns an input validation error for a field.
func Validation(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInputValidation, field, fmt.Sprintf(format, args...))
}

// Contract returns a scoring contract violation.
func Contract(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrScoringContract, fmt.Sprintf(format, args...))
}

// Lookup wraps a collaborator failure as an external lookup error.
func Lookup(source string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrExternalLookup, source, err)
}

// Generation wraps a generator failure.
func Generation(role string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrGeneration, role, err)
}

// Persistence wraps a store failure.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
