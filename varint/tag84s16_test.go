package varint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTag8_4S16_V1_RoundTrip(t *testing.T) {
	cases := [][4]int32{
		{0, 0, 0, 0},
		{1, -1, 2, -2},
		{7, -8, 0, 3},
		{100, -100, 127, -128},
		{1000, -1000, 30000, -30000},
		{5, 200, -3, 12000},
	}

	for _, values := range cases {
		dst := AppendTag8_4S16(nil, values, 1)
		got, n, err := ReadTag8_4S16(dst, 0, 1)
		require.NoError(t, err)
		require.Equal(t, values, got)
		require.Equal(t, len(dst), n)
	}
}

func TestTag8_4S16_V2_RoundTrip(t *testing.T) {
	cases := [][4]int32{
		{0, 0, 0, 0},
		{1, -1, 2, -2},
		{7, -8, 0, 3},
		{100, -100, 127, -128},
		{1000, -1000, 30000, -30000},
		{5, 200, -3, 12000},
		{1, 2, 3, 4},
		{-5, 0, -5, 0},
	}

	for _, values := range cases {
		dst := AppendTag8_4S16(nil, values, 2)
		got, n, err := ReadTag8_4S16(dst, 0, 2)
		require.NoError(t, err)
		require.Equal(t, values, got)
		require.Equal(t, len(dst), n)
	}
}

func TestTag8_4S16_V1_AllZeroIsOneByte(t *testing.T) {
	dst := AppendTag8_4S16(nil, [4]int32{0, 0, 0, 0}, 1)
	require.Equal(t, 1, len(dst)) // selector byte only
}

func TestTag8_4S16_V2_AllZeroIsOneByte(t *testing.T) {
	dst := AppendTag8_4S16(nil, [4]int32{0, 0, 0, 0}, 2)
	require.Equal(t, 1, len(dst))
}

func TestTag8_4S16_V2_AtOffset(t *testing.T) {
	prefix := []byte{0xAA, 0xBB}
	dst := append([]byte{}, prefix...)
	dst = AppendTag8_4S16(dst, [4]int32{1, 2, 3, 4}, 2)

	got, n, err := ReadTag8_4S16(dst, len(prefix), 2)
	require.NoError(t, err)
	require.Equal(t, [4]int32{1, 2, 3, 4}, got)
	require.Equal(t, len(dst)-len(prefix), n)
}

func TestClassify(t *testing.T) {
	require.Equal(t, SizeZero, classify(0))
	require.Equal(t, SizeNibble, classify(7))
	require.Equal(t, SizeNibble, classify(-8))
	require.Equal(t, SizeByte, classify(8))
	require.Equal(t, SizeByte, classify(-9))
	require.Equal(t, SizeByte, classify(127))
	require.Equal(t, SizeShort, classify(128))
	require.Equal(t, SizeShort, classify(-129))
}
