package txmodel

import (
	"encoding/hex"
	"fmt"
)

// Hash256 is a 256-bit double-SHA256 digest: a transaction id or an
// outpoint's referenced txid.
type Hash256 [32]byte

var ZeroHash = Hash256{}

func NewHash256FromBytes(b []byte) (Hash256, error) {
	if len(b) != 32 {
		return ZeroHash, fmt.Errorf("invalid hash length: expected 32 bytes, got %d", len(b))
	}
	var hash Hash256
	copy(hash[:], b)
	return hash, nil
}

func NewHash256FromString(s string) (Hash256, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroHash, fmt.Errorf("invalid hex string: %v", err)
	}
	return NewHash256FromBytes(b)
}

func (h Hash256) String() string { return hex.EncodeToString(h[:]) }
func (h Hash256) Bytes() []byte  { return h[:] }
func (h Hash256) IsZero() bool   { return h == ZeroHash }
