package errors

import "fmt"

var (
	ErrInvalidMessage           = fmt.Errorf("message needs a body or an attachment and two valid participants")
	ErrMalformedConversationKey = fmt.Errorf("conversation key does not decode to two participant ids")
	ErrNotFound                 = fmt.Errorf("record not found")
	ErrSlowConsumer             = fmt.Errorf("outbound buffer full, event dropped")
	ErrConnectionClosed         = fmt.Errorf("live connection already closed")
	ErrMissingIdentity          = fmt.Errorf("no authenticated identity in request")
	ErrWorkerPanic              = fmt.Errorf("worker panicked")
)
