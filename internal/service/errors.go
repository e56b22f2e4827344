// Package service provides business logic for the branching chat platform.
package service

import (
	"errors"
)

var (
	// ErrNotFound is returned when a conversation or message does not
	// exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParent is returned when a new branch references a parent
	// outside the conversation or of the wrong type.
	ErrInvalidParent = errors.New("invalid parent message")

	// ErrRootDelete is returned when deletion of the root node is
	// attempted; the root has no parent to promote.
	ErrRootDelete = errors.New("cannot delete root message")

	// ErrNotUserMessage is returned when a branch operation targets an
	// assistant message.
	ErrNotUserMessage = errors.New("message is not a user message")

	// ErrEmailTaken is returned on registration with a known email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
