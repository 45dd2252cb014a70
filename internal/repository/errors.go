// Package repository implements the credential store over MySQL and
// defines the sentinel errors shared with the handler layer. These
// sentinel values let handlers distinguish failure scenarios without
// inspecting driver errors: ErrEmailExists maps to a validation
// failure on registration or email change, ErrNotFound to an unknown
// user, and ErrRefreshMismatch to a refresh rotation that lost the
// compare-and-swap against a concurrent rotation for the same user.
package repository

import "errors"

// ErrEmailExists is returned when an insert or email update collides
// with an existing account. Handlers translate this into a
// field-level validation error.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when no user row matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrRefreshMismatch is returned by RotateRefresh when the stored
// refresh token hash no longer matches the expected previous value.
// This happens when a concurrent refresh for the same user won the
// race; the losing request must be rejected without mutating state.
var ErrRefreshMismatch = errors.New("refresh token mismatch")
