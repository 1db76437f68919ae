package room

import "crypto/rand"

// Room IDs are URL-safe, 21 characters over a 64-symbol alphabet, giving
// ~126 bits of entropy. That makes guessing a live room infeasible and the
// collision probability low enough that creation writes without checking
// for an existing key.
const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	idLength   = 21
)

func newRoomID() string {
	b := make([]byte, idLength)
	// crypto/rand.Read cannot fail on supported platforms; a failure here
	// means the process has no usable entropy source and must not mint IDs.
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = idAlphabet[b[i]&63]
	}
	return string(b)
}
