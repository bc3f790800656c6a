package client

import (
	"errors"
	"fmt"
)

var (
	ErrNoReport      = errors.New("no report uploaded")
	ErrEmptyQuestion = errors.New("question is empty")
)

// ClientRelayError is any failed call to the relay. The session keeps the user
// message that triggered the call and gets no assistant message.
type ClientRelayError struct {
	Status int
	Err    error
}

func (e *ClientRelayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to contact relay (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("failed to contact relay: %v", e.Err)
}

func (e *ClientRelayError) Unwrap() error { return e.Err }
