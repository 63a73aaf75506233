// Package sighash builds the BIP143-style signature hash preimage that
// Bitcoin Cash's OP_CHECKSIG verifies against, per spec.md §4.6. It is
// supplied pre-computed per-transaction hashes (pkg/txmodel builds these
// once per transaction, not once per input) and a single input's outpoint,
// script code, and amount, and assembles the 11-field preimage the ALL /
// NONE / SINGLE / ANYONECANPAY flag combinations select from.
package sighash

import (
	"github.com/bitcoinecho/scriptvm/pkg/bytesutil"
	"github.com/bitcoinecho/scriptvm/pkg/chainparams"
	"github.com/bitcoinecho/scriptvm/pkg/cryptoprovider"
)

// Request carries everything the preimage needs for one input.
type Request struct {
	Version uint32

	// Whole-transaction hashes, computed once regardless of which input is
	// being signed; Preimage zeroes or substitutes them per SighashType.
	TransactionOutpointsHash       [32]byte
	TransactionSequenceNumbersHash [32]byte
	TransactionOutputsHash         [32]byte
	CorrespondingOutputHash        [32]byte // hash of the output at this input's own index, for SIGHASH_SINGLE

	OutpointTransactionHash [32]byte // txid of the outpoint this input spends, little-endian as serialized
	OutpointIndex           uint32
	ScriptCode              []byte // the locking script, with OP_CODESEPARATOR-preceding bytes removed
	OutpointValue           uint64
	SequenceNumber          uint32

	Locktime    uint32
	SighashType byte
}

var zeroHash [32]byte

// baseType returns the ALL/NONE/SINGLE component of a sighash type byte,
// with the ANYONECANPAY and FORKID flag bits masked off.
func baseType(sighashType byte) byte {
	return sighashType &^ (chainparams.SigHashAnyOneCanPay | chainparams.SigHashForkID)
}

func anyOneCanPay(sighashType byte) bool {
	return sighashType&chainparams.SigHashAnyOneCanPay != 0
}

// Preimage assembles the 11-field byte string that gets double-SHA256'd
// into the signature hash: version, hashPrevouts, hashSequence, outpoint,
// scriptCode, amount, sequence, hashOutputs, locktime, sighash type
// (4-byte, little-endian, FORKID bit included).
func Preimage(req Request) []byte {
	hashPrevouts := req.TransactionOutpointsHash
	hashSequence := req.TransactionSequenceNumbersHash
	if anyOneCanPay(req.SighashType) {
		hashPrevouts = zeroHash
		hashSequence = zeroHash
	} else if baseType(req.SighashType) == chainparams.SigHashSingle || baseType(req.SighashType) == chainparams.SigHashNone {
		hashSequence = zeroHash
	}

	var hashOutputs [32]byte
	switch baseType(req.SighashType) {
	case chainparams.SigHashSingle:
		hashOutputs = req.CorrespondingOutputHash
	case chainparams.SigHashNone:
		hashOutputs = zeroHash
	default:
		hashOutputs = req.TransactionOutputsHash
	}

	var buf []byte
	buf = append(buf, bytesutil.NumberToBinUint32LE(req.Version)...)
	buf = append(buf, hashPrevouts[:]...)
	buf = append(buf, hashSequence[:]...)
	buf = append(buf, req.OutpointTransactionHash[:]...)
	buf = append(buf, bytesutil.NumberToBinUint32LE(req.OutpointIndex)...)
	buf = append(buf, bytesutil.EncodeVarInt(uint64(len(req.ScriptCode)))...)
	buf = append(buf, req.ScriptCode...)
	buf = append(buf, bytesutil.BigIntToBinUint64LE(req.OutpointValue)...)
	buf = append(buf, bytesutil.NumberToBinUint32LE(req.SequenceNumber)...)
	buf = append(buf, hashOutputs[:]...)
	buf = append(buf, bytesutil.NumberToBinUint32LE(req.Locktime)...)
	buf = append(buf, bytesutil.NumberToBinUint32LE(uint32(req.SighashType))...)
	return buf
}

// Digest double-SHA256es the preimage, producing the 32-byte hash an
// OP_CHECKSIG signature is verified against.
func Digest(req Request, crypto cryptoprovider.Provider) [32]byte {
	return crypto.DoubleSHA256(Preimage(req))
}
