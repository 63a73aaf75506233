// Package cryptoprovider defines the hash and signature interfaces the VM's
// crypto-consuming opcodes depend on (OP_HASH160, OP_CHECKSIG), plus default
// implementations. spec.md §6 treats SHA-256/RIPEMD-160/secp256k1 as external
// collaborators referenced only through these interfaces; this package is
// where a caller wires in a concrete (and, per §5, reentrant/stateless)
// provider.
package cryptoprovider

import (
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // no stdlib replacement exists
)

// Sha256Hasher computes a single SHA-256 digest.
type Sha256Hasher interface {
	Hash(data []byte) [32]byte
}

// Ripemd160Hasher computes a single RIPEMD-160 digest.
type Ripemd160Hasher interface {
	Hash(data []byte) [20]byte
}

// Secp256k1Verifier verifies a strict-DER, low-S ECDSA signature against a
// public key and a 32-byte digest.
type Secp256k1Verifier interface {
	VerifySignatureDERLowS(signature, publicKey, digest []byte) bool
}

// Provider bundles the three primitives OP_HASH160 and OP_CHECKSIG need.
// Implementations must be safe for concurrent use by independent program
// evaluations, per spec.md §5: they own no mutable state exposed to the VM.
type Provider struct {
	SHA256    Sha256Hasher
	RIPEMD160 Ripemd160Hasher
	Secp256k1 Secp256k1Verifier
}

// Default returns a Provider backed by crypto/sha256, golang.org/x/crypto's
// RIPEMD-160 (dropped from the standard library), and the decred secp256k1
// library's strict-DER ECDSA verifier.
func Default() Provider {
	return Provider{
		SHA256:    sha256Hasher{},
		RIPEMD160: ripemd160Hasher{},
		Secp256k1: secp256k1Verifier{},
	}
}

type sha256Hasher struct{}

func (sha256Hasher) Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

type ripemd160Hasher struct{}

func (ripemd160Hasher) Hash(data []byte) [20]byte {
	h := ripemd160.New()
	// ripemd160.digest.Write never returns an error.
	_, _ = h.Write(data)
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

type secp256k1Verifier struct{}

func (secp256k1Verifier) VerifySignatureDERLowS(signature, publicKey, digest []byte) bool {
	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(digest, pubKey)
}

// Hash160 composes RIPEMD160(SHA256(data)), the digest OP_HASH160 pushes.
func (p Provider) Hash160(data []byte) [20]byte {
	sha := p.SHA256.Hash(data)
	return p.RIPEMD160.Hash(sha[:])
}

// DoubleSHA256 computes SHA256(SHA256(data)), used throughout the sighash
// preimage builder and for transaction/block hashing.
func (p Provider) DoubleSHA256(data []byte) [32]byte {
	first := p.SHA256.Hash(data)
	return p.SHA256.Hash(first[:])
}
