package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// DigestSize is the size in bytes of a digest.
const DigestSize = 32

// Digest returns the SHA3-256 digest of the parts. Each part is prefixed with
// its length so that ("ab", "c") and ("a", "bc") have different digests.
func Digest(parts ...[]byte) []byte {
	h := sha3.New256()

	var length [8]byte

	for _, part := range parts {
		binary.BigEndian.PutUint64(length[:], uint64(len(part)))

		// A hash never fails to write.
		h.Write(length[:])
		h.Write(part)
	}

	return h.Sum(nil)
}
