package services

import "errors"

var (
	ErrSelfAction      = errors.New("cannot perform this action on yourself")
	ErrNotParticipant  = errors.New("not a participant of this thread")
	ErrThreadIsRequest = errors.New("accept the message request before replying")
	ErrEmptyMessage    = errors.New("message must contain text or a meme")
	ErrForbidden       = errors.New("not allowed")
	ErrInvalidParent   = errors.New("parent comment does not belong to this meme")
)
