// Package apperr defines the error categories shared by the repository,
// mirror and service layers. Failures are wrapped with fmt.Errorf("...: %w"),
// classified with errors.Is, and mapped to HTTP codes at the handler boundary.
package apperr

import "errors"

var (
	// ErrInvalidArgument marks input the caller can fix: empty product name,
	// malformed SKU initials, an out-of-range rating.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a lookup of an entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks uniqueness or referential violations: duplicate SKU,
	// duplicate category name, deleting a tag that products still reference,
	// a folder rename whose destination already exists.
	ErrConflict = errors.New("conflict")

	// ErrTransient marks environmental failures where a retry may help,
	// such as an exceeded operation deadline.
	ErrTransient = errors.New("transient failure")
)
