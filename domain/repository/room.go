package repository

import (
	"context"
	"time"

	"github.com/emberchat/ember/domain/model"
)

// KeySlot selects which side of the E2EE handshake a public key belongs to.
type KeySlot string

const (
	KeySlotCreator KeySlot = "creatorPublicKey"
	KeySlotJoiner  KeySlot = "joinerPublicKey"
)

// PartialExtendError reports that the metadata TTL was extended but one or
// both membership keys were not refreshed. Callers log it and carry on; the
// inconsistency is bounded by the shorter surviving TTL.
type PartialExtendError struct {
	RoomID     string
	Underlying error
}

func (e *PartialExtendError) Error() string {
	return "membership ttl refresh incomplete for room " + e.RoomID + ": " + e.Underlying.Error()
}

func (e *PartialExtendError) Unwrap() error { return e.Underlying }

type RoomRepository interface {
	// Create persists room metadata with the given TTL. Room IDs are drawn
	// from a space large enough that overwrite-on-collision is acceptable,
	// so no existence check precedes the write.
	Create(ctx context.Context, room *model.Room, ttl time.Duration) error
	// Get returns the room metadata with its remaining TTL, or
	// model.ErrRoomNotFound when the meta key has no live entry.
	Get(ctx context.Context, roomID string) (*model.Room, error)
	// TTL returns the remaining lifetime of the room metadata.
	TTL(ctx context.Context, roomID string) (time.Duration, error)
	// Extend refreshes the TTL on the metadata key and both membership
	// keys. The refreshes are not mutually atomic; a partial failure is
	// reported but bounded by the shortest surviving TTL.
	Extend(ctx context.Context, roomID string, ttl time.Duration) error
	// Delete removes the metadata and both membership sets in one command.
	Delete(ctx context.Context, roomID string) error
	// StorePublicKey writes one side's opaque key material onto the meta
	// hash without touching its TTL.
	StorePublicKey(ctx context.Context, roomID string, slot KeySlot, publicKey string) error
}
