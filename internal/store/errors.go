package store

import "errors"

// Vote-casting failure modes. ErrAlreadyVoted is soft: handlers treat it as
// read-only access to current results, not as a request failure.
var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrPollExpired   = errors.New("poll expired")
	ErrAlreadyVoted  = errors.New("already voted")
	ErrInvalidOption = errors.New("option does not belong to poll")
	ErrMissingOption = errors.New("no option selected")
)
