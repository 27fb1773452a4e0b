// Package users keeps the local shadow of provider accounts: one record per
// email holding the provider subject id and the registration step.
package users

import (
	"context"
	"errors"
	"time"
)

// RegistrationStep tracks how far signup has progressed
type RegistrationStep string

const (
	StepPendingConfirmation RegistrationStep = "PENDING_CONFIRMATION"
	StepDone                RegistrationStep = "DONE"
)

// Valid reports whether s is a known step
func (s RegistrationStep) Valid() bool {
	return s == StepPendingConfirmation || s == StepDone
}

// Record is the local shadow of a provider account.
// Email is case-sensitive and immutable; SubjectID never changes once set.
type Record struct {
	Email            string           `json:"email"`
	SubjectID        string           `json:"subjectId"`
	RegistrationStep RegistrationStep `json:"registrationStep"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

var (
	// ErrNotFound is returned when no record exists for an email
	ErrNotFound = errors.New("user record not found")
	// ErrDuplicate is returned when a record already exists for an email
	ErrDuplicate = errors.New("user record already exists")
)

// Store persists user records
type Store interface {
	// FindByEmail returns nil, nil when no record exists
	FindByEmail(ctx context.Context, email string) (*Record, error)
	// Create inserts a new record; ErrDuplicate if the email is taken
	Create(ctx context.Context, record *Record) error
	// MarkConfirmed sets the step to DONE; ErrNotFound if no record exists
	MarkConfirmed(ctx context.Context, email string) error
	// ListPending returns up to limit PENDING_CONFIRMATION records, oldest first
	ListPending(ctx context.Context, limit int) ([]*Record, error)
}
