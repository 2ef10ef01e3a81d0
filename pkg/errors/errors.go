// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"net/http"
)

// BurrowError is the structured error carried across the agent. It renders
// directly as the error payload of API responses.
type BurrowError struct {
	Code       ErrorCode `json:"code"`
	Domain     Domain    `json:"domain"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`

	// Metadata holds command output, identifiers and similar context that
	// does not fit the fixed fields. It is logged field-by-field by the
	// server middleware.
	Metadata map[string]string `json:"metadata,omitempty"`

	cause error
}

// New builds an error for code with the given details.
func New(code ErrorCode, details string) *BurrowError {
	def, ok := lookup(code)
	if !ok {
		return &BurrowError{
			Code:       code,
			Domain:     DomainMisc,
			Message:    "Unknown error",
			Details:    details,
			HTTPStatus: http.StatusInternalServerError,
		}
	}
	return &BurrowError{
		Code:       code,
		Domain:     def.domain,
		Message:    def.message,
		Details:    details,
		HTTPStatus: def.httpStatus,
	}
}

// Wrap classifies err under code. When err is already a BurrowError its
// details and metadata are kept so that backend output reaches the caller
// unchanged.
func Wrap(err error, code ErrorCode) *BurrowError {
	if err == nil {
		return nil
	}

	var inner *BurrowError
	if stderrors.As(err, &inner) {
		e := New(code, inner.Details)
		if len(inner.Metadata) > 0 {
			e.Metadata = maps.Clone(inner.Metadata)
		}
		e.cause = err
		return e
	}

	e := New(code, err.Error())
	e.cause = err
	return e
}

// NewCommandError reports a failed zfs/zpool/ssh invocation.
func NewCommandError(cmd string, exitCode int, stderr string) *BurrowError {
	e := New(CommandExecution, stderr)
	return e.WithMetadata("command", cmd).
		WithMetadata("exit_code", fmt.Sprintf("%d", exitCode))
}

// WithMetadata attaches a key/value pair and returns the receiver.
func (e *BurrowError) WithMetadata(key, value string) *BurrowError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

func (e *BurrowError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s-%d] %s: %s", e.Domain, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
}

func (e *BurrowError) Unwrap() error {
	return e.cause
}

// Is reports whether any error in err's chain is a BurrowError with code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if be, ok := err.(*BurrowError); ok && be.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// As is re-exported so callers do not need a second errors import.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// StatusOf returns the HTTP status to use for err.
func StatusOf(err error) int {
	var be *BurrowError
	if stderrors.As(err, &be) && be.HTTPStatus != 0 {
		return be.HTTPStatus
	}
	return http.StatusInternalServerError
}
