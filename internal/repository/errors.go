// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrEmailExists indicates a uniqueness violation on user
// creation, which handlers translate into an HTTP 409, while a plain
// sql.ErrNoRows from a lookup maps to 404 or to the generic
// invalid-credentials response depending on the endpoint.
package repository

import "errors"

// ErrEmailExists is returned when inserting a user whose email address
// is already taken.  Handlers should translate this into an HTTP 409
// response.
var ErrEmailExists = errors.New("email already exists")
