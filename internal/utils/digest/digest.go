package digest

import (
	"crypto/sha256"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fast returns a non-cryptographic digest for process-local cache keys.
// Collisions are tolerable there: the local map is a speed optimization
// that the shared and authoritative tiers re-validate.
func Fast(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Shared returns a hex sha256 digest used to namespace keys in the shared
// cache store without exposing the raw token.
func Shared(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum)
}
