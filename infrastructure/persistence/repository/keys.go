package repository

import "fmt"

// Key layout. The three keys of a room share the {roomId} suffix and are
// deleted together on destroy; passive expiry prunes each on its own TTL.
func metaKey(roomID string) string {
	return fmt.Sprintf("meta:%s", roomID)
}

func connectedKey(roomID string) string {
	return fmt.Sprintf("connected:%s", roomID)
}

func leavingKey(roomID string) string {
	return fmt.Sprintf("leaving:%s", roomID)
}
