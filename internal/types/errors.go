package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy of the recommendation pipeline. Transport and format
// failures are retried locally; semantic and referential failures are
// escalated to the next tier without blind retries.
var (
	ErrBadParameter         = errors.New("invalid request parameter")
	ErrServiceUnavailable   = errors.New("external service unavailable")
	ErrMalformedResponse    = errors.New("reasoning service response not parseable")
	ErrReferentialIntegrity = errors.New("selected poi is not a member of the candidate set")
	ErrTiersExhausted       = errors.New("all recommendation tiers exhausted")
)

// FieldError describes a single semantic validation failure with enough
// detail to diagnose the reasoning service output offline.
type FieldError struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Received any    `json:"received"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %q: expected %s, received %v", e.Field, e.Expected, e.Received)
}

// ValidationError aggregates the field errors of one decision payload.
// It is a first-class error variant, not a panic mid-pipeline.
type ValidationError struct {
	Decision string       `json:"decision"`
	Fields   []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%s validation failed: %s", e.Decision, strings.Join(msgs, "; "))
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Add records a single field failure.
func (e *ValidationError) Add(field, expected string, received any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Expected: expected, Received: received})
}
