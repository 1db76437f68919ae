package membership

import (
	"crypto/rand"
	"encoding/base64"
)

// newToken mints an unguessable participant token. The token doubles as the
// only room credential, so it gets the full 32 bytes.
func newToken() string {
	const tokenLength = 32

	b := make([]byte, tokenLength)
	// crypto/rand.Read cannot fail on supported platforms; a degraded token
	// would be a guessable room credential, so failure is fatal.
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}

	return base64.RawURLEncoding.EncodeToString(b)
}
