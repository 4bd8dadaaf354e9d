package domain

import "errors"

var (
	ErrNameConflict          = errors.New("nick already exists")
	ErrNickUnchanged         = errors.New("nick is unchanged")
	ErrNickUnavailable       = errors.New("failed to assign a nick")
	ErrDuplicateRoleConflict = errors.New("publishers limit reached")
	ErrMembersLimitReached   = errors.New("members limit reached")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionAlreadyExists  = errors.New("session already exists")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrMalformedCommand      = errors.New("malformed command")
)
