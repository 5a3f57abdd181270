package mxfcore

import "bytes"

// KLVFillKeyV1 is the legacy (version 1) KLVFill item UL, selected via
// WrapOptions.LegacyFill for compatibility with older readers.
var KLVFillKeyV1 = UL{0x06, 0x0E, 0x2B, 0x34, 0x01, 0x01, 0x01, 0x01, 0x03, 0x01, 0x02, 0x10, 0x01, 0x00, 0x00, 0x00}

// KLVFillKeyV2 is the current (version 2) KLVFill item UL, the default
// for writers.
var KLVFillKeyV2 = UL{0x06, 0x0E, 0x2B, 0x34, 0x01, 0x01, 0x01, 0x02, 0x03, 0x01, 0x02, 0x10, 0x01, 0x00, 0x00, 0x00}

// Triple is one decoded Key-Length-Value unit.
type Triple struct {
	Key    UL
	Length uint64
	Value  []byte

	// Offset is the absolute byte offset of Key within its file or
	// stream, kept for error reporting and partition-offset checks.
	Offset int64
}

// ReadKLV consumes one Key+BER-Length+Value triple from the front of
// b, which must begin at a KLV key boundary. offset is the absolute
// position of b[0], used only to annotate errors and the returned
// Triple.
func ReadKLV(b []byte, offset int64) (Triple, int, error) {
	if len(b) < ULLength {
		return Triple{}, 0, AtOffset(offset, "klv", ErrTruncatedKey)
	}
	key, err := ParseUL(b)
	if err != nil {
		return Triple{}, 0, AtOffset(offset, "klv", err)
	}

	length, lenSize, err := BERLength(b[ULLength:])
	if err != nil {
		return Triple{}, 0, AtOffset(offset+int64(ULLength), "klv", err)
	}

	start := ULLength + lenSize
	end := start + int(length)
	if length > uint64(len(b)-start) {
		return Triple{}, 0, AtOffset(offset, "klv", ErrLengthTooLarge)
	}

	value := b[start:end]
	return Triple{Key: key, Length: length, Value: value, Offset: offset}, end, nil
}

// WriteKLV appends key, a minimal-form BER length for len(value), and
// value to dst.
func WriteKLV(dst []byte, key UL, value []byte) []byte {
	dst = append(dst, key[:]...)
	dst = PutBERLength(dst, uint64(len(value)))
	dst = append(dst, value...)
	return dst
}

// KAGAlignedFillSize returns the length in bytes (including its own
// 16-byte key and length prefix) a KLVFill item must have so that the
// position nextPos + thatLength lands on a KAGSize boundary, relative
// to partitionStart. forceLongForm accounts for a partition that may
// later be rewritten: the fill's own BER
// length is padded to 4 bytes so the region stays patchable.
//
// If nextPos already lies on a KAG boundary (or kagSize is 0 or 1), it
// returns 0 and no fill item is needed.
func KAGAlignedFillSize(partitionStart, nextPos int64, kagSize uint32, forceLongForm bool) int64 {
	if kagSize <= 1 {
		return 0
	}
	relative := nextPos - partitionStart
	rem := relative % int64(kagSize)
	if rem == 0 {
		return 0
	}
	pad := int64(kagSize) - rem

	// A fill item that must itself be at least 17 bytes (16-byte key +
	// 1-byte zero length), or 21 bytes with forceLongForm (16-byte key +
	// 5-byte BER length), can't express less padding than that; when
	// the gap is smaller, the next KAG boundary is used instead.
	minFill := int64(ULLength + 1)
	if forceLongForm {
		minFill = ULLength + 5
	}
	for pad < minFill {
		pad += int64(kagSize)
	}
	return pad
}

// berSizeFor returns the byte width the shortest-form BER encoding of
// length would occupy.
func berSizeFor(length uint64) int {
	if length < 0x80 {
		return 1
	}
	n := 1
	for v := length >> 8; v != 0; v >>= 8 {
		n++
	}
	return 1 + n
}

// WriteKLVFill appends a KLVFill KLV of exactly totalSize bytes
// (including key and length) to dst. key should be KLVFillKeyV1 or
// KLVFillKeyV2. forceLongForm pads the BER length to 4 bytes.
func WriteKLVFill(dst []byte, key UL, totalSize int, forceLongForm bool) []byte {
	if totalSize < ULLength+1 {
		totalSize = ULLength + 1
	}

	lenSize := 1
	var valueLen int
	for {
		valueLen = totalSize - ULLength - lenSize
		if valueLen < 0 {
			valueLen = 0
		}
		want := berSizeFor(uint64(valueLen))
		if forceLongForm && want < 5 {
			want = 5
		}
		if want == lenSize {
			break
		}
		lenSize = want
	}

	forcedSize := 0
	if forceLongForm {
		forcedSize = lenSize
	}

	dst = append(dst, key[:]...)
	dst = PutBERLengthSize(dst, uint64(valueLen), forcedSize)
	if valueLen > 0 {
		dst = append(dst, bytes.Repeat([]byte{0}, valueLen)...)
	}
	return dst
}
