package cryptoprovider_test

import (
	"strings"
	"testing"

	"github.com/bitcoinecho/scriptvm/pkg/bytesutil"
	"github.com/bitcoinecho/scriptvm/pkg/chainparams"
	"github.com/bitcoinecho/scriptvm/pkg/cryptoprovider"
	"github.com/stretchr/testify/require"
)

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}

func TestIsValidPublicKeyEncoding(t *testing.T) {
	compressed := make([]byte, 33)
	compressed[0] = 0x02
	require.True(t, cryptoprovider.IsValidPublicKeyEncoding(compressed))

	compressed[0] = 0x03
	require.True(t, cryptoprovider.IsValidPublicKeyEncoding(compressed))

	uncompressed := make([]byte, 65)
	uncompressed[0] = 0x04
	require.True(t, cryptoprovider.IsValidPublicKeyEncoding(uncompressed))

	require.False(t, cryptoprovider.IsValidPublicKeyEncoding(make([]byte, 32)))
	badPrefix := make([]byte, 33)
	badPrefix[0] = 0x05
	require.False(t, cryptoprovider.IsValidPublicKeyEncoding(badPrefix))
}

func TestIsValidSignatureEncodingStrictDER(t *testing.T) {
	params := chainparams.Default()

	// A minimal, low-S DER signature with r=1,s=1 and SIGHASH_ALL|FORKID.
	der, err := bytesutil.HexToBin("3006020101020101")
	require.NoError(t, err)
	sig := append(der, chainparams.SigHashAll|chainparams.SigHashForkID)
	require.True(t, cryptoprovider.IsValidSignatureEncoding(sig, params))

	// Wrong leading byte.
	bad := append([]byte{}, der...)
	bad[0] = 0x31
	require.False(t, cryptoprovider.IsValidSignatureEncoding(append(bad, chainparams.SigHashAll), params))

	// Truncated signature.
	require.False(t, cryptoprovider.IsValidSignatureEncoding(der[:len(der)-2], params))

	// Empty input.
	require.False(t, cryptoprovider.IsValidSignatureEncoding(nil, params))
}

func TestIsValidSignatureEncodingHighS(t *testing.T) {
	params := chainparams.Default()

	// S value well above N/2 (above the curve order N itself): a 32-byte
	// magnitude with its top bit set, so DER requires a leading 0x00 pad
	// byte to keep the INTEGER non-negative.
	highS, err := bytesutil.HexToBin("00" + repeat("ff", 31) + "fe")
	require.NoError(t, err)
	r, err := bytesutil.HexToBin("01")
	require.NoError(t, err)

	der := []byte{0x30, byte(2 + len(r) + 2 + len(highS)), 0x02, byte(len(r))}
	der = append(der, r...)
	der = append(der, 0x02, byte(len(highS)))
	der = append(der, highS...)

	sig := append(der, chainparams.SigHashAll|chainparams.SigHashForkID)
	require.False(t, cryptoprovider.IsValidSignatureEncoding(sig, params))
}

func TestDefaultProviderHash160(t *testing.T) {
	provider := cryptoprovider.Default()
	digest := provider.Hash160([]byte{})
	expected, err := bytesutil.HexToBin("b472a266d0bd89c13706a4132ccfb16f7c3b9fcb")
	require.NoError(t, err)
	require.Equal(t, expected, digest[:])
}
