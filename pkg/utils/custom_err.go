package utils

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidPage      = errors.New("invalid page parameter")
	ErrInvalidPageSize  = errors.New("invalid page size parameter")
	ErrDatabaseError    = errors.New("database error")
	ErrSessionNotFound  = errors.New("session not found")
	ErrTripNotFound     = errors.New("trip not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUpstream         = errors.New("upstream service error")
)
