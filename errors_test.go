package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeAndKind(t *testing.T) {
	cases := []struct {
		err  error
		code string
		kind ErrorKind
	}{
		{userFacingError("INSUFFICIENT_FUNDS", "not enough coins"), "INSUFFICIENT_FUNDS", ErrUserFacing},
		{stateConflictError("ALREADY_AT_WAR"), "ALREADY_AT_WAR", ErrStateConflict},
		{notFoundError("NO_ELIGIBLE_OPPONENT"), "NO_ELIGIBLE_OPPONENT", ErrNotFound},
		{transientError("STORE_UNAVAILABLE", errors.New("connection refused")), "STORE_UNAVAILABLE", ErrTransient},
		{integrityError("MALFORMED_EXPIRY", "bad window"), "MALFORMED_EXPIRY", ErrIntegrity},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, errorCode(tc.err))
		assert.Equal(t, tc.kind, errorKind(tc.err))
	}
}

func TestErrorCodeUnknownErrorCollapses(t *testing.T) {
	assert.Equal(t, "INTERNAL_ERROR", errorCode(errors.New("pq: something leaked")))
	assert.Equal(t, ErrTransient, errorKind(errors.New("boom")))
}

func TestErrorCodeUnwrapsWrappedEngineError(t *testing.T) {
	wrapped := fmt.Errorf("tick failed: %w", stateConflictError("CONFLICT_NOT_ACTIVE"))
	assert.Equal(t, "CONFLICT_NOT_ACTIVE", errorCode(wrapped))
	assert.Equal(t, ErrStateConflict, errorKind(wrapped))
}

func TestEngineErrorMessage(t *testing.T) {
	withMessage := userFacingError("SELF_RAID", "a guild cannot raid itself")
	assert.Equal(t, "SELF_RAID: a guild cannot raid itself", withMessage.Error())

	codeOnly := stateConflictError("TARGET_SHIELDED")
	assert.Equal(t, "TARGET_SHIELDED", codeOnly.Error())
}
