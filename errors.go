package main

import "errors"

type ErrorKind string

const (
	ErrUserFacing    ErrorKind = "user_facing"
	ErrStateConflict ErrorKind = "state_conflict"
	ErrNotFound      ErrorKind = "not_found"
	ErrTransient     ErrorKind = "transient"
	ErrIntegrity     ErrorKind = "integrity"
)

// EngineError carries a machine-readable reason code alongside the kind.
// Codes are what the UI switches on; Message is optional human text.
type EngineError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *EngineError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func userFacingError(code, message string) *EngineError {
	return &EngineError{Kind: ErrUserFacing, Code: code, Message: message}
}

func stateConflictError(code string) *EngineError {
	return &EngineError{Kind: ErrStateConflict, Code: code}
}

func notFoundError(code string) *EngineError {
	return &EngineError{Kind: ErrNotFound, Code: code}
}

func transientError(code string, cause error) *EngineError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &EngineError{Kind: ErrTransient, Code: code, Message: msg}
}

func integrityError(code, message string) *EngineError {
	return &EngineError{Kind: ErrIntegrity, Code: code, Message: message}
}

// errorCode extracts the reason code for the response envelope. Unknown
// errors collapse to INTERNAL_ERROR so internals never leak to clients.
func errorCode(err error) string {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}
	return "INTERNAL_ERROR"
}

func errorKind(err error) ErrorKind {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ErrTransient
}
