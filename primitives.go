package mxfcore

import (
	"encoding/binary"
	"fmt"
)

// ULLength is the fixed byte width of a Universal Label.
const ULLength = 16

// UUIDLength is the fixed byte width of an instance UUID.
const UUIDLength = 16

// UMIDLength is the fixed byte width of a package UMID.
const UMIDLength = 32

// UL is a 16-byte SMPTE Universal Label, used both as a KLV key and as
// a dictionary type/class identifier.
type UL [ULLength]byte

// String renders a UL in dotted-hex form, e.g. "06.0e.2b.34...".
func (u UL) String() string {
	s := make([]byte, 0, ULLength*3-1)
	for i, b := range u {
		if i > 0 {
			s = append(s, '.')
		}
		s = append(s, fmt.Sprintf("%02x", b)...)
	}
	return string(s)
}

// Equal reports whether u and other are byte-for-byte identical.
func (u UL) Equal(other UL) bool {
	return u == other
}

// MaskedEqual reports whether u and other are equal after ANDing both
// with mask, so version/revision bytes (commonly byte index 7, the
// registry version) can be ignored.
func (u UL) MaskedEqual(other UL, mask UL) bool {
	for i := range u {
		if (u[i] & mask[i]) != (other[i] & mask[i]) {
			return false
		}
	}
	return true
}

// AsSwappedUUID reinterprets u as a UUID with the first three fields
// byte-swapped, the relationship SMPTE 377M defines between a UL and
// its UUID encoding.
func (u UL) AsSwappedUUID() UUID {
	var id UUID
	id[0], id[1], id[2], id[3] = u[3], u[2], u[1], u[0]
	id[4], id[5] = u[5], u[4]
	id[6], id[7] = u[7], u[6]
	copy(id[8:], u[8:])
	return id
}

// ParseUL reads a 16-byte UL from the front of b.
func ParseUL(b []byte) (UL, error) {
	var u UL
	if len(b) < ULLength {
		return u, ErrTruncatedKey
	}
	copy(u[:], b[:ULLength])
	return u, nil
}

// UUID is a 16-byte instance identifier.
type UUID [UUIDLength]byte

// String renders the UUID in canonical 8-4-4-4-12 hex form.
func (u UUID) String() string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}

// ParseUUID reads a 16-byte UUID from the front of b.
func ParseUUID(b []byte) (UUID, error) {
	var u UUID
	if len(b) < UUIDLength {
		return u, ErrTruncatedValue
	}
	copy(u[:], b[:UUIDLength])
	return u, nil
}

// UMID is a 32-byte globally unique package identifier.
type UMID [UMIDLength]byte

// ParseUMID reads a 32-byte UMID from the front of b.
func ParseUMID(b []byte) (UMID, error) {
	var u UMID
	if len(b) < UMIDLength {
		return u, ErrTruncatedValue
	}
	copy(u[:], b[:UMIDLength])
	return u, nil
}

// ReadUint8 reads one byte at offset off in b.
func ReadUint8(b []byte, off int) (uint8, error) {
	if off+1 > len(b) {
		return 0, ErrTruncatedValue
	}
	return b[off], nil
}

// ReadUint16 reads a big-endian uint16 at offset off in b.
func ReadUint16(b []byte, off int) (uint16, error) {
	if off+2 > len(b) {
		return 0, ErrTruncatedValue
	}
	return binary.BigEndian.Uint16(b[off : off+2]), nil
}

// ReadUint32 reads a big-endian uint32 at offset off in b.
func ReadUint32(b []byte, off int) (uint32, error) {
	if off+4 > len(b) {
		return 0, ErrTruncatedValue
	}
	return binary.BigEndian.Uint32(b[off : off+4]), nil
}

// ReadUint64 reads a big-endian uint64 at offset off in b.
func ReadUint64(b []byte, off int) (uint64, error) {
	if off+8 > len(b) {
		return 0, ErrTruncatedValue
	}
	return binary.BigEndian.Uint64(b[off : off+8]), nil
}

// PutUint16 appends a big-endian uint16 to dst and returns the result.
func PutUint16(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

// PutUint32 appends a big-endian uint32 to dst and returns the result.
func PutUint32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// PutUint64 appends a big-endian uint64 to dst and returns the result.
func PutUint64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// Rational is a numerator/denominator pair, used for edit rates and
// fractional sample offsets.
type Rational struct {
	Numerator   int32
	Denominator int32
}

// Reduce returns r divided through by its greatest common divisor,
// denominator sign normalised to positive.
func (r Rational) Reduce() Rational {
	n, d := int64(r.Numerator), int64(r.Denominator)
	if d == 0 {
		return r
	}
	if d < 0 {
		n, d = -n, -d
	}
	g := gcd(abs64(n), d)
	if g == 0 {
		return Rational{int32(n), int32(d)}
	}
	return Rational{int32(n / g), int32(d / g)}
}

// Equal reports whether r and other are equal once both are reduced.
func (r Rational) Equal(other Rational) bool {
	return r.Reduce() == other.Reduce()
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// ParseRational reads two big-endian int32s from the front of b.
func ParseRational(b []byte) (Rational, error) {
	if len(b) < 8 {
		return Rational{}, ErrTruncatedValue
	}
	n := int32(binary.BigEndian.Uint32(b[0:4]))
	d := int32(binary.BigEndian.Uint32(b[4:8]))
	return Rational{Numerator: n, Denominator: d}, nil
}

// Bytes serialises r to its 8-byte wire form.
func (r Rational) Bytes() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], uint32(r.Numerator))
	binary.BigEndian.PutUint32(buf[4:8], uint32(r.Denominator))
	return buf
}

// Timestamp is the compound {year, month, day, hour, minute, second,
// quarter-millisecond} wire format MXF uses for dates.
type Timestamp struct {
	Year          int16
	Month         uint8
	Day           uint8
	Hour          uint8
	Minute        uint8
	Second        uint8
	QuarterMillis uint8
}

// ParseTimestamp reads the 8-byte Timestamp wire form from the front of b.
func ParseTimestamp(b []byte) (Timestamp, error) {
	if len(b) < 8 {
		return Timestamp{}, ErrTruncatedValue
	}
	return Timestamp{
		Year:          int16(binary.BigEndian.Uint16(b[0:2])),
		Month:         b[2],
		Day:           b[3],
		Hour:          b[4],
		Minute:        b[5],
		Second:        b[6],
		QuarterMillis: b[7],
	}, nil
}

// Bytes serialises t to its 8-byte wire form.
func (t Timestamp) Bytes() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint16(buf[0:2], uint16(t.Year))
	buf[2], buf[3], buf[4], buf[5], buf[6], buf[7] =
		t.Month, t.Day, t.Hour, t.Minute, t.Second, t.QuarterMillis
	return buf
}

// BERLength decodes a SMPTE-377 BER length from the front of b,
// returning the decoded length, the number of bytes the encoding
// occupied, and any error.
//
// Short form: byte 0 has its high bit clear, length = byte 0 (0-127).
// Long form: byte 0's low 7 bits give N, the count (1-8) of following
// big-endian bytes that carry the length.
func BERLength(b []byte) (length uint64, consumed int, err error) {
	if len(b) < 1 {
		return 0, 0, ErrTruncatedLength
	}
	first := b[0]
	if first&0x80 == 0 {
		return uint64(first), 1, nil
	}
	n := int(first & 0x7F)
	if n == 0 || n > 8 {
		return 0, 0, ErrBadBERForm
	}
	if len(b) < 1+n {
		return 0, 0, ErrTruncatedLength
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = (v << 8) | uint64(b[1+i])
	}
	return v, 1 + n, nil
}

// PutBERLength encodes length using the shortest valid BER form and
// appends it to dst.
func PutBERLength(dst []byte, length uint64) []byte {
	return PutBERLengthSize(dst, length, 0)
}

// PutBERLengthSize encodes length using the long form padded with
// leading zero bytes to occupy exactly size bytes total (including the
// leading form byte), so that the encoding can be patched in place
// later without shifting subsequent bytes. size == 0 means "use the
// shortest valid form". size must be 0 or in [2, 9].
func PutBERLengthSize(dst []byte, length uint64, size int) []byte {
	if size == 0 && length < 0x80 {
		return append(dst, byte(length))
	}

	// Minimum number of big-endian bytes needed to hold length.
	need := 1
	for v := length >> 8; v != 0; v >>= 8 {
		need++
	}
	if length == 0 {
		need = 1
	}

	n := need
	if size > 0 {
		n = size - 1
		if n < need {
			n = need
		}
	}

	dst = append(dst, byte(0x80|n))
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(length>>(uint(i)*8)))
	}
	return dst
}
