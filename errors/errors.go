package errors

import "fmt"

var (
	ErrMissingField  = fmt.Errorf("display name and room are required")
	ErrNameTaken     = fmt.Errorf("display name is already in use")
	ErrProfane       = fmt.Errorf("profanity is not allowed")
	ErrNotFound      = fmt.Errorf("no user for this connection")
	ErrAlreadyJoined = fmt.Errorf("connection already joined a room")
	ErrNotJoined     = fmt.Errorf("connection has not joined a room")
	ErrEmptyWords    = fmt.Errorf("no words have been found")
	ErrWorkerPanic   = fmt.Errorf("worker panic")
)
