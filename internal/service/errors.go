package service

import (
	"errors"
)

// User-facing messages.
const (
	MsgNotFound       = "User not found."
	MsgCreateConflict = "User already exists with this email."
	MsgUpdateConflict = "Another user already exists with this email."
	MsgCreateFailed   = "Failed to create user."
	MsgUpdateFailed   = "Failed to update user."
	MsgListFailed     = "Failed to fetch users."
	MsgGetFailed      = "Failed to fetch user."
	MsgGrowthFailed   = "Failed to fetch user stats."
	MsgDeleted        = "User deleted successfully."
)

// ErrNotFound is returned when no user has the requested id.
var ErrNotFound = errors.New(MsgNotFound)

// ConflictError reports that another user already owns the email.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// FailureError is any other failure. Message is safe to show to clients;
// Err keeps the cause for logs.
type FailureError struct {
	Message string
	Err     error
}

func (e *FailureError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *FailureError) Unwrap() error { return e.Err }
