package domain

import "errors"

var (
	ErrProtocolTimeout   = errors.New("protocol timeout")
	ErrStreamClosed      = errors.New("stream closed")
	ErrUnexpectedPattern = errors.New("unexpected pattern")
	ErrProcessSpawn      = errors.New("process spawn failed")
	ErrPersistence       = errors.New("persistence failed")
	ErrNoMatch           = errors.New("no pattern matched")
	ErrRecordNotFound    = errors.New("record not found")
	ErrEmptyTranscript   = errors.New("transcript is empty")
)
