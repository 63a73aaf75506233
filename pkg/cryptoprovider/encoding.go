package cryptoprovider

import "github.com/bitcoinecho/scriptvm/pkg/chainparams"

// IsValidPublicKeyEncoding accepts 33-byte compressed (0x02/0x03 prefix) and
// 65-byte uncompressed (0x04 prefix) public keys; everything else is
// rejected, per spec.md §6.
func IsValidPublicKeyEncoding(pubKey []byte) bool {
	switch len(pubKey) {
	case 33:
		return pubKey[0] == 0x02 || pubKey[0] == 0x03
	case 65:
		return pubKey[0] == 0x04
	default:
		return false
	}
}

// SplitSignatureAndSighashType separates a Bitcoin-encoded ECDSA signature
// (DER body plus a trailing sighash-type byte) into its two parts.
func SplitSignatureAndSighashType(sig []byte) (der []byte, sighashType byte, ok bool) {
	if len(sig) == 0 {
		return nil, 0, false
	}
	return sig[:len(sig)-1], sig[len(sig)-1], true
}

// IsValidSignatureEncoding checks a Bitcoin-encoded signature (DER body plus
// trailing sighash-type byte) against strict DER (BIP66), the low-S rule,
// and the set of sighash-type bytes params permits. The SIGHASH_FORKID bit
// is masked off before the permitted-type check, since BCH mandates it on
// every signature and it is not itself one of the base type values.
func IsValidSignatureEncoding(sig []byte, params chainparams.Params) bool {
	der, sighashType, ok := SplitSignatureAndSighashType(sig)
	if !ok {
		return false
	}
	if !isStrictDER(der) {
		return false
	}
	if !isLowS(der) {
		return false
	}
	baseType := sighashType &^ chainparams.SigHashAnyOneCanPay
	baseType &^= chainparams.SigHashForkID
	withAnyOneCanPay := sighashType & chainparams.SigHashAnyOneCanPay
	return params.IsPermittedSighashType(baseType | withAnyOneCanPay)
}

// isStrictDER implements the BIP66 strict-DER checks for an ECDSA
// signature: a single outer SEQUENCE containing exactly two INTEGERs (r and
// s), each minimally encoded and non-negative, with no trailing bytes.
func isStrictDER(sig []byte) bool {
	// Minimum: 0x30 len 0x02 rlen r 0x02 slen s, with r and s at least 1 byte.
	if len(sig) < 8 || len(sig) > 72 {
		return false
	}
	if sig[0] != 0x30 {
		return false
	}
	if int(sig[1]) != len(sig)-2 {
		return false
	}
	if sig[2] != 0x02 {
		return false
	}
	rLen := int(sig[3])
	if rLen == 0 || 4+rLen > len(sig) {
		return false
	}
	rStart := 4
	r := sig[rStart : rStart+rLen]
	if !isValidDERInteger(r) {
		return false
	}

	sTypeIdx := rStart + rLen
	if sTypeIdx+2 > len(sig) {
		return false
	}
	if sig[sTypeIdx] != 0x02 {
		return false
	}
	sLen := int(sig[sTypeIdx+1])
	sStart := sTypeIdx + 2
	if sLen == 0 || sStart+sLen != len(sig) {
		return false
	}
	s := sig[sStart : sStart+sLen]
	return isValidDERInteger(s)
}

// isValidDERInteger checks a single DER INTEGER's content bytes: no
// negative values (no top bit set without the rule-required 0x00 byte
// already having accounted for it) and no superfluous leading zero bytes.
func isValidDERInteger(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	if b[0]&0x80 != 0 {
		// Would be interpreted as negative; DER signature components
		// must be non-negative.
		return false
	}
	if len(b) > 1 && b[0] == 0x00 && b[1]&0x80 == 0 {
		// Superfluous leading zero byte: the encoding isn't minimal.
		return false
	}
	return true
}

// isLowS enforces BIP0062 rule 5: a signature's S value must be <= half the
// secp256k1 curve order.
func isLowS(der []byte) bool {
	rLen := int(der[3])
	sTypeIdx := 4 + rLen
	sLen := int(der[sTypeIdx+1])
	sStart := sTypeIdx + 2
	s := der[sStart : sStart+sLen]
	return !isGreaterThanHalfOrder(s)
}

// Half the secp256k1 group order (N/2) as a big-endian byte string, avoiding a
// math/big dependency since this is the only place the curve order is
// needed and a fixed-width byte comparison suffices.
var halfOrder = [32]byte{
	0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0x5d, 0x57, 0x6e, 0x73, 0x57, 0xa4, 0x50, 0x1d,
	0xdf, 0xe9, 0x2f, 0x46, 0x68, 0x1b, 0x20, 0xa0,
}

func isGreaterThanHalfOrder(s []byte) bool {
	// DER pads with a leading 0x00 purely to keep the integer
	// non-negative; strip it before comparing magnitudes.
	for len(s) > 0 && s[0] == 0x00 {
		s = s[1:]
	}
	if len(s) > 32 {
		// Can't happen for a well-formed 256-bit scalar, but guard
		// against a corrupt/too-long component rather than panic.
		return true
	}
	var padded [32]byte
	copy(padded[32-len(s):], s)
	for i := 0; i < 32; i++ {
		if padded[i] != halfOrder[i] {
			return padded[i] > halfOrder[i]
		}
	}
	return false
}
