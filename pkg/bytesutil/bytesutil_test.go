package bytesutil_test

import (
	"testing"

	"github.com/bitcoinecho/scriptvm/pkg/bytesutil"
	"github.com/stretchr/testify/require"
)

func TestHexRoundTrip(t *testing.T) {
	b, err := bytesutil.HexToBin("0001022a646566ff")
	require.NoError(t, err)
	require.Equal(t, []byte{0, 1, 2, 42, 100, 101, 102, 255}, b)
	require.Equal(t, "0001022a646566ff", bytesutil.BinToHex(b))
}

func TestHexRoundTripProperty(t *testing.T) {
	for n := 0; n <= 100; n++ {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(i * 7 % 256)
		}
		hex1 := bytesutil.BinToHex(b)
		decoded, err := bytesutil.HexToBin(hex1)
		require.NoError(t, err)
		require.Equal(t, hex1, bytesutil.BinToHex(decoded))
	}
}

func TestUint16LE(t *testing.T) {
	b := bytesutil.NumberToBinUint16LE(0x1234)
	require.Equal(t, []byte{0x34, 0x12}, b)
	v, err := bytesutil.BinToNumberUint16LE(b)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), v)
}

func TestUint32LE(t *testing.T) {
	b := bytesutil.NumberToBinUint32LE(0x12345678)
	require.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, b)
	v, err := bytesutil.BinToNumberUint32LE(b)
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), v)
}

func TestUint64LE(t *testing.T) {
	b := bytesutil.BigIntToBinUint64LE(0x12345678)
	require.Equal(t, []byte{0x78, 0x56, 0x34, 0x12, 0, 0, 0, 0}, b)
	v, err := bytesutil.BinToBigIntUint64LE(b)
	require.NoError(t, err)
	require.Equal(t, uint64(0x12345678), v)
}

func TestVarIntRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0xfc, 0xfd, 0xfe, 0xffff, 0x10000, 0xffffffff, 0x100000000, 1 << 40}
	for _, v := range values {
		encoded := bytesutil.EncodeVarInt(v)
		decoded, err := bytesutil.DecodeVarInt(encoded)
		require.NoError(t, err)
		require.Equal(t, v, decoded.Value)
		require.Equal(t, len(encoded), decoded.NextOffset)
	}
}

func TestVarIntWidths(t *testing.T) {
	require.Len(t, bytesutil.EncodeVarInt(0xfc), 1)
	require.Len(t, bytesutil.EncodeVarInt(0xfd), 3)
	require.Len(t, bytesutil.EncodeVarInt(0xffff), 3)
	require.Len(t, bytesutil.EncodeVarInt(0x10000), 5)
	require.Len(t, bytesutil.EncodeVarInt(0xffffffff), 5)
	require.Len(t, bytesutil.EncodeVarInt(0x100000000), 9)
}
