package sighash_test

import (
	"testing"

	"github.com/bitcoinecho/scriptvm/pkg/chainparams"
	"github.com/bitcoinecho/scriptvm/pkg/cryptoprovider"
	"github.com/bitcoinecho/scriptvm/pkg/sighash"
	"github.com/stretchr/testify/require"
)

func baseRequest() sighash.Request {
	return sighash.Request{
		Version:                        2,
		TransactionOutpointsHash:       fill(0x11),
		TransactionSequenceNumbersHash: fill(0x22),
		TransactionOutputsHash:         fill(0x33),
		CorrespondingOutputHash:        fill(0x44),
		OutpointTransactionHash:        fill(0x55),
		OutpointIndex:                  1,
		ScriptCode:                     []byte{0x76, 0xa9, 0x14},
		OutpointValue:                  100000,
		SequenceNumber:                 0xffffffff,
		Locktime:                       0,
		SighashType:                    chainparams.SigHashAll | chainparams.SigHashForkID,
	}
}

func fill(b byte) [32]byte {
	var h [32]byte
	for i := range h {
		h[i] = b
	}
	return h
}

func TestPreimageLength(t *testing.T) {
	req := baseRequest()
	preimage := sighash.Preimage(req)
	// 4 + 32 + 32 + 32 + 4 + varint(3) + 3 + 8 + 4 + 32 + 4 + 4
	require.Len(t, preimage, 4+32+32+32+4+1+3+8+4+32+4+4)
}

func TestPreimageAnyOneCanPayZeroesPrevoutsAndSequence(t *testing.T) {
	req := baseRequest()
	req.SighashType = chainparams.SigHashAll | chainparams.SigHashForkID | chainparams.SigHashAnyOneCanPay
	preimage := sighash.Preimage(req)

	var zero [32]byte
	require.Equal(t, zero[:], preimage[4:36])
	require.Equal(t, zero[:], preimage[36:68])
}

func TestPreimageSingleUsesCorrespondingOutput(t *testing.T) {
	req := baseRequest()
	req.SighashType = chainparams.SigHashSingle | chainparams.SigHashForkID
	preimage := sighash.Preimage(req)

	outputsOffset := 4 + 32 + 32 + 32 + 4 + 1 + len(req.ScriptCode) + 8 + 4
	require.Equal(t, req.CorrespondingOutputHash[:], preimage[outputsOffset:outputsOffset+32])
}

func TestPreimageNoneZeroesOutputs(t *testing.T) {
	req := baseRequest()
	req.SighashType = chainparams.SigHashNone | chainparams.SigHashForkID
	preimage := sighash.Preimage(req)

	var zero [32]byte
	outputsOffset := 4 + 32 + 32 + 32 + 4 + 1 + len(req.ScriptCode) + 8 + 4
	require.Equal(t, zero[:], preimage[outputsOffset:outputsOffset+32])
}

func TestDigestIsDeterministic(t *testing.T) {
	provider := cryptoprovider.Default()
	req := baseRequest()
	a := sighash.Digest(req, provider)
	b := sighash.Digest(req, provider)
	require.Equal(t, a, b)

	req.Locktime = 1
	c := sighash.Digest(req, provider)
	require.NotEqual(t, a, c)
}
