// Package core defines the fundamental types and errors for the memo backend.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Storage errors
	ErrNoteNotFound         = errors.New("note not found")
	ErrEventNotFound        = errors.New("calendar event not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrCredentialNotFound   = errors.New("credential not found")

	// Vault errors
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrVaultNotReady    = errors.New("vault key not configured")

	// Provider errors
	ErrLLMUnavailable = errors.New("language model service unavailable")
	ErrEmptyReply     = errors.New("language model returned empty output")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)
