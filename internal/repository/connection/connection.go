package connection

import "errors"

var (
	ErrAlreadyExists = errors.New("connection already exists")
	ErrNotFound      = errors.New("connection not found")
)

// Sender is the outbound side of one session's connection.
type Sender interface {
	// Send queues a frame without blocking and reports whether it was accepted.
	Send(data []byte) bool
	Close()
}
