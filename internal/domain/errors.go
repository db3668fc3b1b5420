package domain

import "errors"

var (
	// ErrInvalidCredentials signals a rejected email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken signals an account already registered for the email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrResetTokenInvalid signals an invalid or expired password reset token.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	// ErrUnauthorized signals a protected call rejected by the backend.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrProjectNotFound signals a missing project.
	ErrProjectNotFound = errors.New("project not found")
	// ErrEmptyProjectName signals a project create with a blank name.
	ErrEmptyProjectName = errors.New("project name must not be empty")
	// ErrInvalidBudget signals a budget amount that is not a non-negative integer.
	ErrInvalidBudget = errors.New("invalid budget amount")
	// ErrPasswordMismatch signals a reset form whose confirmation differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
)
