package source

import (
	"crypto/sha256"
	"encoding/hex"
)

// DocumentID identifies a document across fix sessions. For files loaded from
// disk it is the normalized path.
type DocumentID string

// Digest is a fixed 256-bit content hash.
type Digest [32]byte

// Sum hashes text.
func Sum(text string) Digest {
	return sha256.Sum256([]byte(text))
}

// Combine строит составной хеш: H( part1 || part2 ... ).
// Порядок частей должен быть детерминированным.
func Combine(parts ...Digest) Digest {
	h := sha256.New()
	for _, d := range parts {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest was never computed.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// LineCol represents a human-readable position in a document.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
