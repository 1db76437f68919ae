package repository

import (
	"context"
	"time"
)

// MembershipRepository owns the connected and leaving token sets for a room.
// Join and Leave execute as single atomic units on the store; the
// cardinality check and the claim are never separate round trips.
type MembershipRepository interface {
	// Join atomically claims a connected slot: reports true when the token
	// was added or already present, false when the room was full. A full
	// room leaves no state behind.
	Join(ctx context.Context, roomID, token string, maxUsers int) (bool, error)
	// Leave atomically moves the token from connected to leaving and arms
	// the grace expiry. Moving a token that was never connected is valid,
	// so unreliable leave signals can be retried blindly.
	Leave(ctx context.Context, roomID, token string, grace time.Duration) error
	// Rejoin moves a token from the leaving set back to connected,
	// reporting whether the token was actually in grace. The capacity gate
	// is bypassed: the token still owns its logical slot.
	Rejoin(ctx context.Context, roomID, token string) (bool, error)
	IsMember(ctx context.Context, roomID, token string) (bool, error)
	IsInGrace(ctx context.Context, roomID, token string) (bool, error)
	ConnectedCount(ctx context.Context, roomID string) (int, error)
	// AlignTTL sets the connected set's expiry to the room metadata's
	// remaining TTL so membership cannot outlive the room.
	AlignTTL(ctx context.Context, roomID string) error
}
