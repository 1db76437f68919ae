package model

import "errors"

// Hard failures. Expected business outcomes (a full room, the max-session
// ceiling) are not errors; see JoinOutcome and ExtendResult.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrUnauthorized = errors.New("token not valid for this room")
	ErrInvalidTTL   = errors.New("requested ttl is not an allowed value")
	ErrInvalidType  = errors.New("unknown room type")
	ErrNotPrivate   = errors.New("key exchange requires a private room")
)
