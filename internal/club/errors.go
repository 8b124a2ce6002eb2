package club

import "errors"

// ErrNotFound is returned when a referenced player, ladder, membership or
// match does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyMember is returned when a player or partner already holds a
// membership in the ladder being joined.
var ErrAlreadyMember = errors.New("already a ladder member")
