package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"qrchat/errors"
)

func TestUvarint_RoundTrip(t *testing.T) {
	req := require.New(t)

	for _, n := range []uint64{0, 1, 127, 128, 16383, 16384, 2_000_000} {
		buf := EncodeUvarint(n)
		v, read, err := DecodeUvarint(buf)
		req.NoError(err)
		req.Equal(n, v)
		req.Equal(len(buf), read)
	}
}

func TestUvarint_ZeroIsSingleZeroByte(t *testing.T) {
	require.Equal(t, []byte{0}, EncodeUvarint(0))
}

func TestUvarint_Boundaries(t *testing.T) {
	req := require.New(t)

	req.Len(EncodeUvarint(127), 1)
	req.Len(EncodeUvarint(128), 2)
	req.Len(EncodeUvarint(16383), 2)
	req.Len(EncodeUvarint(16384), 3)
}

func TestUvarint_Truncated(t *testing.T) {
	req := require.New(t)

	_, _, err := DecodeUvarint([]byte{0x80})
	req.ErrorIs(err, errors.ErrTruncatedInput)

	_, _, err = DecodeUvarint(nil)
	req.ErrorIs(err, errors.ErrTruncatedInput)
}
