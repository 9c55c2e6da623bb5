package service

import "errors"

// Sentinel errors the transport layer maps onto HTTP status codes.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
)
