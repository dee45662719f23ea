// ABOUTME: Random identifiers for discovery sessions
// ABOUTME: Produces URL-safe ids with a sortable time prefix
package discovery

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	sessionPrefix = "discovery_"
	suffixLen     = 9
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewSessionID returns discovery_<epochMillis>_<9 random base36 chars>.
// Uniqueness is probabilistic; the store's unique index is the final check.
func NewSessionID() string {
	suffix := make([]byte, suffixLen)
	max := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		suffix[i] = base36[n.Int64()]
	}
	return sessionPrefix + strconv.FormatInt(now().UnixMilli(), 10) + "_" + string(suffix)
}
