// Package repository persists the application's entities in MySQL. Sentinel
// errors defined here let handlers translate storage failures into stable
// domain errors without ever surfacing raw driver errors to the HTTP
// boundary.
package repository

import "errors"

// ErrNotFound is returned when a row does not exist. Handlers translate it
// into 404 (lookups) or 403 (refresh-token matching, which must fail closed).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update collides with the
// unique email constraint. Handlers translate it into a conflict error.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when an operation cannot proceed due to
// conflicting state, such as a duplicate role or permission name.
var ErrConflict = errors.New("conflict")
