package codec

import (
	"fmt"

	"qrchat/errors"
)

// bitWriter packs values MSB-first into a growing byte slice.
type bitWriter struct {
	buf  []byte
	free uint // unused low bits in the last byte, 0 when buf is "full"
}

func (w *bitWriter) writeBits(v uint32, n uint) {
	for n > 0 {
		if w.free == 0 {
			w.buf = append(w.buf, 0)
			w.free = 8
		}
		take := n
		if take > w.free {
			take = w.free
		}
		mask := byte(0xff) >> (8 - take)
		chunk := byte(v>>(n-take)) & mask
		w.buf[len(w.buf)-1] |= chunk << (w.free - take)
		w.free -= take
		n -= take
	}
}

func (w *bitWriter) bytes() []byte {
	return w.buf
}

// bitReader consumes bits MSB-first from a byte slice.
type bitReader struct {
	buf []byte
	pos uint // bit offset from the start of buf
}

func (r *bitReader) readBits(n uint) (uint32, error) {
	if r.pos+n > uint(len(r.buf))*8 {
		return 0, fmt.Errorf("bit stream: %w", errors.ErrTruncatedInput)
	}
	var v uint32
	for n > 0 {
		byteIdx := r.pos / 8
		bitIdx := r.pos % 8
		avail := 8 - bitIdx
		take := n
		if take > avail {
			take = avail
		}
		mask := byte(0xff) >> (8 - take)
		chunk := r.buf[byteIdx] >> (avail - take) & mask
		v = v<<take | uint32(chunk)
		r.pos += take
		n -= take
	}
	return v, nil
}
