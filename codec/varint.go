package codec

import (
	"fmt"

	"qrchat/errors"
)

// EncodeUvarint encodes v as an unsigned LEB128 varint: seven value
// bits per byte, high bit set while more bytes follow. Zero encodes
// as a single zero byte.
func EncodeUvarint(v uint64) []byte {
	return AppendUvarint(nil, v)
}

// AppendUvarint appends the LEB128 encoding of v to dst.
func AppendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// DecodeUvarint decodes a LEB128 varint from the start of buf and
// returns the value and the number of bytes consumed. A buffer that
// ends mid-varint is a truncated-input error; more than ten bytes of
// continuation is an overflow.
func DecodeUvarint(buf []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i, b := range buf {
		if i == 10 {
			return 0, 0, errors.ErrVarintOverflow
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("varint: %w", errors.ErrTruncatedInput)
}
