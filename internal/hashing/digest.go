package hashing

import (
	"encoding/hex"
	"errors"
	"fmt"

	mh "github.com/multiformats/go-multihash"
	"lukechampine.com/blake3"
)

// Size is the width of every digest produced by a Hasher.
const Size = 32

var ErrInvalidDigest = errors.New("invalid digest")

// Digest is a fixed-width content hash.
type Digest [Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Multihash wraps the digest in a self-describing BLAKE3 multihash.
func (d Digest) Multihash() (mh.Multihash, error) {
	return mh.Encode(d[:], mh.BLAKE3)
}

// B58 renders the digest as a base58 BLAKE3 multihash, or its hex form if encoding fails.
func (d Digest) B58() string {
	m, err := d.Multihash()
	if err != nil {
		return d.String()
	}
	return m.B58String()
}

// ParseDigest accepts either 64 hex characters or a base58 BLAKE3 multihash.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if len(s) == 2*Size {
		raw, err := hex.DecodeString(s)
		if err == nil {
			copy(d[:], raw)
			return d, nil
		}
	}
	m, err := mh.FromB58String(s)
	if err != nil {
		return d, fmt.Errorf("%w: %q", ErrInvalidDigest, s)
	}
	return FromMultihash(m)
}

// FromMultihash extracts a digest from a BLAKE3 multihash.
func FromMultihash(m []byte) (Digest, error) {
	var d Digest
	dec, err := mh.Decode(m)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	if dec.Code != mh.BLAKE3 || dec.Length != Size {
		return d, fmt.Errorf("%w: unexpected multihash %s/%d", ErrInvalidDigest, dec.Name, dec.Length)
	}
	copy(d[:], dec.Digest)
	return d, nil
}

// Hasher is the injected hash provider: deterministic, fixed width.
type Hasher interface {
	Sum(data []byte) Digest
}

// Blake3 is the default Hasher.
type Blake3 struct{}

func (Blake3) Sum(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// Verify reports whether data hashes to expected under h.
func Verify(h Hasher, data []byte, expected Digest) bool {
	return h.Sum(data) == expected
}
