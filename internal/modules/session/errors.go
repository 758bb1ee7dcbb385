package session

import "errors"

// Token validation failures are distinct variants and map to distinct
// client-facing statuses; they are never conflated.
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenInactive = errors.New("token is inactive")
	ErrTokenExpired  = errors.New("token has expired")

	ErrNotFound  = errors.New("session not found")
	ErrForbidden = errors.New("requester does not own this session")
)
