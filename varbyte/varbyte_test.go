package varbyte

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeZeroIsOneByte(t *testing.T) {
	buf := Encode(nil, 0)
	require.Equal(t, []byte{0x00}, buf)
}

func TestRoundTripFixedValues(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 129, 16383, 16384, 1 << 20, 1<<32 - 1}
	for _, v := range values {
		buf := Encode(nil, v)
		got, consumed := Decode(buf)
		require.Equal(t, len(buf), consumed, "value %d", v)
		require.Equal(t, v, got, "value %d", v)
	}
}

func TestRoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		v := r.Uint32()
		buf := Encode(nil, v)
		got, consumed := Decode(buf)
		require.Equal(t, len(buf), consumed)
		require.Equal(t, v, got)
	}
}

func TestDecodeAllConcatenated(t *testing.T) {
	values := []uint32{0, 5, 300, 70000, 1}
	var buf []byte
	for _, v := range values {
		buf = Encode(buf, v)
	}
	got, err := DecodeAll(buf, len(values))
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestDecodeTruncated(t *testing.T) {
	buf := Encode(nil, 70000)
	_, err := DecodeAll(buf[:len(buf)-1], 1)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestSizeMatchesEncode(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 1 << 30} {
		require.Equal(t, len(Encode(nil, v)), Size(v))
	}
}
