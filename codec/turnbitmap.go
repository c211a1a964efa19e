package codec

// EncodeTurnBitmap packs a duo speaker sequence as one transition bit
// per message after the first: 1 when the speaker repeats, 0 when it
// switches. The first speaker itself is not part of the bitmap; the
// conversation codec stores it separately as a raw byte. Bits pack
// MSB-first. Fewer than two messages need no bitmap at all.
func EncodeTurnBitmap(speakers []int) []byte {
	if len(speakers) < 2 {
		return nil
	}
	var w bitWriter
	for i := 1; i < len(speakers); i++ {
		bit := uint32(0)
		if speakers[i] == speakers[i-1] {
			bit = 1
		}
		w.writeBits(bit, 1)
	}
	return w.bytes()
}

// DecodeTurnBitmap reconstructs a speaker sequence of count messages
// from its transition bitmap and the first speaker, toggling between
// 0 and 1 whenever a transition bit is 0.
func DecodeTurnBitmap(bitmap []byte, count, first int) ([]int, error) {
	if count <= 0 {
		return nil, nil
	}
	speakers := make([]int, count)
	speakers[0] = first
	r := bitReader{buf: bitmap}
	for i := 1; i < count; i++ {
		bit, err := r.readBits(1)
		if err != nil {
			return nil, err
		}
		if bit == 1 {
			speakers[i] = speakers[i-1]
		} else {
			speakers[i] = 1 - speakers[i-1]
		}
	}
	return speakers, nil
}
