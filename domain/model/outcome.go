package model

// JoinOutcome is the result of an admission attempt. Capacity rejection is a
// normal outcome callers branch on, never an error.
type JoinOutcome int

const (
	// Admitted means the token holds a connected slot, whether it was
	// freshly claimed, already held, or reclaimed from the grace set.
	Admitted JoinOutcome = iota
	// Full means the room was at capacity and no state was mutated.
	Full
)

func (o JoinOutcome) String() string {
	if o == Full {
		return "full"
	}
	return "admitted"
}

// ExtendResultMaxReached is the Err value of a soft-capped extension.
const ExtendResultMaxReached = "max_reached"

// ExtendResult reports a TTL extension. Success=false with
// Err=ExtendResultMaxReached is the 7-day ceiling, distinct from a
// transport failure, which surfaces as an error instead.
type ExtendResult struct {
	Success bool   `json:"success"`
	TTL     int64  `json:"ttl"`
	Err     string `json:"error,omitempty"`
	Message string `json:"message"`
}
