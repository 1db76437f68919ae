package model

import "time"

type RoomType string

const (
	RoomTypePrivate RoomType = "private"
	RoomTypeGroup   RoomType = "group"
)

// Room is the metadata persisted under meta:{roomId}. Membership lives in
// separate connected/leaving sets keyed by the same room ID; a room with no
// live meta entry does not exist.
type Room struct {
	ID               string        `json:"roomId"`
	Type             RoomType      `json:"type"`
	MaxUsers         int           `json:"maxUsers"`
	E2EE             bool          `json:"e2ee"`
	CreatedAt        time.Time     `json:"createdAt"`
	TTL              time.Duration `json:"ttl"`
	CreatorPublicKey string        `json:"creatorPublicKey,omitempty"`
	JoinerPublicKey  string        `json:"joinerPublicKey,omitempty"`
}

// Age is the time elapsed since the room was created.
func (r Room) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

func (t RoomType) Valid() bool {
	return t == RoomTypePrivate || t == RoomTypeGroup
}

// RoomInfo is the membership-scoped view returned to participants. TTL is
// the remaining lifetime in seconds; clients run their countdown from it.
type RoomInfo struct {
	Type           RoomType `json:"type"`
	MaxUsers       int      `json:"maxUsers"`
	E2EE           bool     `json:"e2ee"`
	ConnectedCount int      `json:"connectedCount"`
	TTL            int64    `json:"ttl"`
}

// RoomKeys holds the opaque public key material exchanged through a private
// room. The service never interprets it.
type RoomKeys struct {
	CreatorPublicKey string `json:"creatorPublicKey,omitempty"`
	JoinerPublicKey  string `json:"joinerPublicKey,omitempty"`
}
