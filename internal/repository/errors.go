// Package repository implements persistence over database/sql against
// MySQL. Sentinel errors defined here let handlers translate persistence
// failures into the HTTP error taxonomy without inspecting driver errors
// themselves.
package repository

import "errors"

// ErrEmailExists is returned when inserting a user whose email is already
// taken. The unique index on users.email is the authority; the read-before-
// write check in Create is only a fast path and both paths map to this
// sentinel.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a referenced row does not exist. Handlers
// translate it into a 404 (or a 401 on token paths, where a missing row
// means a revoked token).
var ErrNotFound = errors.New("not found")
