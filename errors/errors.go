package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrInvalidToken     = fmt.Errorf("invalid or expired token")
	ErrCallNotFound     = fmt.Errorf("call not found or not yours")
	ErrCallTerminal     = fmt.Errorf("call already terminated")
	ErrCallInProgress   = fmt.Errorf("call already accepted")
	ErrCallNotRinging   = fmt.Errorf("call is not ringing")
	ErrRecipientOffline = fmt.Errorf("recipient is not connected")
	ErrInvalidPayload   = fmt.Errorf("invalid event payload")
	ErrStoreFailure     = fmt.Errorf("message store failure")
)
