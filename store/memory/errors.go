package memory

import "errors"

// ErrDuplicate is returned when an insert collides with a unique email, name
// or social identity, like a unique constraint violation in SQL.
var ErrDuplicate = errors.New("memory: duplicate account")
