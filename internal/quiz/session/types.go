package session

import (
	"errors"

	"github.com/lib/pq"
)

// CreateSessionRequest carries the admin-supplied fields for a new session.
// The code is canonicalized (trimmed, uppercased) before insert.
type CreateSessionRequest struct {
	Code        string
	Title       string
	Description string
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
