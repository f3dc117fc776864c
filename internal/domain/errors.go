package domain

import "errors"

// Domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInternalError      = errors.New("internal error")
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrSessionNotFound    = errors.New("cash session not found")
	ErrSessionAlreadyOpen = errors.New("branch already has an open cash session")
	ErrSessionClosed      = errors.New("cash session already closed")
	ErrSessionBusy        = errors.New("cash session is being closed by another request")
	ErrNoOpenSession      = errors.New("no open cash session")
	ErrMissingActualCount = errors.New("actual cash and digital counts are required")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidChannel     = errors.New("invalid payment channel")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")
	ErrCrewNotFound       = errors.New("crew location not found")
)

// Validation constants
const (
	MaxDescriptionLength = 255
	MaxNotesLength       = 1000
)
