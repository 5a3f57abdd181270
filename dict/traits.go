package dict

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"golang.org/x/text/encoding/unicode"

	"github.com/mxfgo/mxfcore"
)

// Traits converts between a TypeDef's in-memory value and its raw
// byte/string representations. The set of Traits implementations is
// closed over the TypeDef kinds the dictionary can declare — a tagged
// sum, not an open-ended plugin system.
type Traits interface {
	// Read decodes raw bytes into a value.
	Read(raw []byte) (interface{}, error)

	// Write encodes a value to its raw byte form.
	Write(v interface{}) ([]byte, error)

	// ToString renders a value for display/diagnostics.
	ToString(v interface{}) string

	// FromString parses a value out of its display form.
	FromString(s string) (interface{}, error)

	// HandlesSubdata reports whether this Traits owns its entire byte
	// range atomically (true, e.g. UUID) or delegates sub-ranges to
	// child objects (false, e.g. Compound).
	HandlesSubdata() bool
}

func registerStandardTraits(d *Dictionary) {
	d.RegisterTraits("Int8", intTraits{size: 1, signed: true})
	d.RegisterTraits("UInt8", intTraits{size: 1, signed: false})
	d.RegisterTraits("Int16", intTraits{size: 2, signed: true})
	d.RegisterTraits("UInt16", intTraits{size: 2, signed: false})
	d.RegisterTraits("Int32", intTraits{size: 4, signed: true})
	d.RegisterTraits("UInt32", intTraits{size: 4, signed: false})
	d.RegisterTraits("Int64", intTraits{size: 8, signed: true})
	d.RegisterTraits("UInt64", intTraits{size: 8, signed: false})
	d.RegisterTraits("ISO7String", iso7Traits{})
	d.RegisterTraits("UTF16String", utf16Traits{})
	d.RegisterTraits("Raw", rawTraits{})
	d.RegisterTraits("RawArray", rawArrayTraits{})
	d.RegisterTraits("Basic", compoundTraits{})
	d.RegisterTraits("Rational", rationalTraits{})
	d.RegisterTraits("TimeStamp", timeStampTraits{})
	d.RegisterTraits("UUID", uuidTraits{})
	d.RegisterTraits("Label", labelTraits{})
	d.RegisterTraits("UMID", umidTraits{})
	d.RegisterTraits("Boolean", boolTraits{})
}

// boolTraits implements the single-byte Boolean Traits (0 = false, any
// other value = true, per SMPTE 377M's loose convention).
type boolTraits struct{}

func (boolTraits) HandlesSubdata() bool { return true }

func (boolTraits) Read(raw []byte) (interface{}, error) {
	if len(raw) < 1 {
		return nil, mxfcore.ErrTruncatedValue
	}
	return raw[0] != 0, nil
}

func (boolTraits) Write(v interface{}) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("dict: Boolean expects bool, got %T", v)
	}
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (boolTraits) ToString(v interface{}) string {
	b, _ := v.(bool)
	return strconv.FormatBool(b)
}

func (boolTraits) FromString(s string) (interface{}, error) { return strconv.ParseBool(s) }

// intTraits implements the signed/unsigned 1/2/4/8-byte integer
// Traits.
type intTraits struct {
	size   int
	signed bool
}

func (t intTraits) HandlesSubdata() bool { return true }

func (t intTraits) Read(raw []byte) (interface{}, error) {
	if len(raw) < t.size {
		return nil, mxfcore.ErrTruncatedValue
	}
	var u uint64
	switch t.size {
	case 1:
		u = uint64(raw[0])
	case 2:
		u = uint64(binary.BigEndian.Uint16(raw))
	case 4:
		u = uint64(binary.BigEndian.Uint32(raw))
	case 8:
		u = binary.BigEndian.Uint64(raw)
	}
	if !t.signed {
		return u, nil
	}
	// Sign-extend from the field width.
	shift := uint(64 - t.size*8)
	return int64(u<<shift) >> shift, nil
}

func (t intTraits) Write(v interface{}) ([]byte, error) {
	u, err := toUint64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, t.size)
	switch t.size {
	case 1:
		buf[0] = byte(u)
	case 2:
		binary.BigEndian.PutUint16(buf, uint16(u))
	case 4:
		binary.BigEndian.PutUint32(buf, uint32(u))
	case 8:
		binary.BigEndian.PutUint64(buf, u)
	}
	return buf, nil
}

func toUint64(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		return uint64(n), nil
	case int:
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("dict: cannot encode %T as integer", v)
	}
}

func (t intTraits) ToString(v interface{}) string {
	if t.signed {
		n, _ := v.(int64)
		return strconv.FormatInt(n, 10)
	}
	n, _ := v.(uint64)
	return strconv.FormatUint(n, 10)
}

func (t intTraits) FromString(s string) (interface{}, error) {
	if t.signed {
		return strconv.ParseInt(s, 10, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// iso7Traits implements the 7-bit ISO character/string Traits.
type iso7Traits struct{}

func (iso7Traits) HandlesSubdata() bool { return true }

func (iso7Traits) Read(raw []byte) (interface{}, error) {
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b & 0x7F
	}
	return string(out), nil
}

func (iso7Traits) Write(v interface{}) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("dict: ISO7String expects a string, got %T", v)
	}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = s[i] & 0x7F
	}
	return out, nil
}

func (iso7Traits) ToString(v interface{}) string { s, _ := v.(string); return s }

func (iso7Traits) FromString(s string) (interface{}, error) { return s, nil }

// utf16Traits implements the UTF-16 character/string Traits using
// golang.org/x/text/encoding/unicode for embedded-string decoding.
type utf16Traits struct{}

func (utf16Traits) HandlesSubdata() bool { return true }

func (utf16Traits) Read(raw []byte) (interface{}, error) {
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("dict: decoding UTF-16 string: %w", err)
	}
	return string(out), nil
}

func (utf16Traits) Write(v interface{}) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("dict: UTF16String expects a string, got %T", v)
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("dict: encoding UTF-16 string: %w", err)
	}
	return out, nil
}

func (utf16Traits) ToString(v interface{}) string { s, _ := v.(string); return s }

func (utf16Traits) FromString(s string) (interface{}, error) { return s, nil }

// rawTraits implements an uninterpreted byte array Traits.
type rawTraits struct{}

func (rawTraits) HandlesSubdata() bool { return true }

func (rawTraits) Read(raw []byte) (interface{}, error) {
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (rawTraits) Write(v interface{}) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("dict: Raw expects []byte, got %T", v)
	}
	return b, nil
}

func (rawTraits) ToString(v interface{}) string {
	b, _ := v.([]byte)
	return fmt.Sprintf("% x", b)
}

func (rawTraits) FromString(s string) (interface{}, error) {
	return []byte(s), nil
}

// rawArrayTraits implements a raw array-of-byte-arrays Traits.
type rawArrayTraits struct{}

func (rawArrayTraits) HandlesSubdata() bool { return true }

func (rawArrayTraits) Read(raw []byte) (interface{}, error) {
	if len(raw) < 8 {
		return nil, mxfcore.ErrTruncatedValue
	}
	count := binary.BigEndian.Uint32(raw[0:4])
	itemSize := binary.BigEndian.Uint32(raw[4:8])
	out := make([][]byte, 0, count)
	off := 8
	for i := uint32(0); i < count; i++ {
		if off+int(itemSize) > len(raw) {
			return nil, mxfcore.ErrTruncatedValue
		}
		item := make([]byte, itemSize)
		copy(item, raw[off:off+int(itemSize)])
		out = append(out, item)
		off += int(itemSize)
	}
	return out, nil
}

func (rawArrayTraits) Write(v interface{}) ([]byte, error) {
	items, ok := v.([][]byte)
	if !ok {
		return nil, fmt.Errorf("dict: RawArray expects [][]byte, got %T", v)
	}
	itemSize := 0
	if len(items) > 0 {
		itemSize = len(items[0])
	}
	buf := make([]byte, 8, 8+len(items)*itemSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(items)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(itemSize))
	for _, item := range items {
		buf = append(buf, item...)
	}
	return buf, nil
}

func (rawArrayTraits) ToString(v interface{}) string {
	items, _ := v.([][]byte)
	return fmt.Sprintf("%d items", len(items))
}

func (rawArrayTraits) FromString(string) (interface{}, error) {
	return nil, fmt.Errorf("dict: RawArray has no string form")
}

// compoundTraits is the "Basic compounds" Traits: it does not own the
// byte range itself, delegating field-by-field decode to the owning
// TypeDef's Members.
type compoundTraits struct{}

func (compoundTraits) HandlesSubdata() bool { return false }

func (compoundTraits) Read(raw []byte) (interface{}, error) { return raw, nil }

func (compoundTraits) Write(v interface{}) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("dict: Basic compound expects pre-encoded []byte, got %T", v)
	}
	return b, nil
}

func (compoundTraits) ToString(v interface{}) string {
	b, _ := v.([]byte)
	return fmt.Sprintf("% x", b)
}

func (compoundTraits) FromString(s string) (interface{}, error) {
	return []byte(s), nil
}

// rationalTraits implements the Rational Traits.
type rationalTraits struct{}

func (rationalTraits) HandlesSubdata() bool { return true }

func (rationalTraits) Read(raw []byte) (interface{}, error) {
	return mxfcore.ParseRational(raw)
}

func (rationalTraits) Write(v interface{}) ([]byte, error) {
	r, ok := v.(mxfcore.Rational)
	if !ok {
		return nil, fmt.Errorf("dict: Rational expects mxfcore.Rational, got %T", v)
	}
	return r.Bytes(), nil
}

func (rationalTraits) ToString(v interface{}) string {
	r, _ := v.(mxfcore.Rational)
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

func (rationalTraits) FromString(s string) (interface{}, error) {
	var n, d int32
	if _, err := fmt.Sscanf(s, "%d/%d", &n, &d); err != nil {
		return nil, err
	}
	return mxfcore.Rational{Numerator: n, Denominator: d}, nil
}

// timeStampTraits implements the TimeStamp Traits.
type timeStampTraits struct{}

func (timeStampTraits) HandlesSubdata() bool { return true }

func (timeStampTraits) Read(raw []byte) (interface{}, error) {
	return mxfcore.ParseTimestamp(raw)
}

func (timeStampTraits) Write(v interface{}) ([]byte, error) {
	t, ok := v.(mxfcore.Timestamp)
	if !ok {
		return nil, fmt.Errorf("dict: TimeStamp expects mxfcore.Timestamp, got %T", v)
	}
	return t.Bytes(), nil
}

func (timeStampTraits) ToString(v interface{}) string {
	t, _ := v.(mxfcore.Timestamp)
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%d",
		t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, t.QuarterMillis)
}

func (timeStampTraits) FromString(string) (interface{}, error) {
	return nil, fmt.Errorf("dict: TimeStamp string parsing not supported")
}

// uuidTraits implements the UUID Traits; it HandlesSubdata because a
// UUID owns its entire 16-byte range atomically.
type uuidTraits struct{}

func (uuidTraits) HandlesSubdata() bool { return true }

func (uuidTraits) Read(raw []byte) (interface{}, error) { return mxfcore.ParseUUID(raw) }

func (uuidTraits) Write(v interface{}) ([]byte, error) {
	u, ok := v.(mxfcore.UUID)
	if !ok {
		return nil, fmt.Errorf("dict: UUID expects mxfcore.UUID, got %T", v)
	}
	out := make([]byte, mxfcore.UUIDLength)
	copy(out, u[:])
	return out, nil
}

func (uuidTraits) ToString(v interface{}) string { u, _ := v.(mxfcore.UUID); return u.String() }

func (uuidTraits) FromString(string) (interface{}, error) {
	return nil, fmt.Errorf("dict: UUID string parsing not supported")
}

// labelTraits implements the Label (UL-valued) Traits.
type labelTraits struct{}

func (labelTraits) HandlesSubdata() bool { return true }

func (labelTraits) Read(raw []byte) (interface{}, error) { return mxfcore.ParseUL(raw) }

func (labelTraits) Write(v interface{}) ([]byte, error) {
	ul, ok := v.(mxfcore.UL)
	if !ok {
		return nil, fmt.Errorf("dict: Label expects mxfcore.UL, got %T", v)
	}
	out := make([]byte, mxfcore.ULLength)
	copy(out, ul[:])
	return out, nil
}

func (labelTraits) ToString(v interface{}) string { ul, _ := v.(mxfcore.UL); return ul.String() }

func (labelTraits) FromString(string) (interface{}, error) {
	return nil, fmt.Errorf("dict: Label string parsing not supported")
}

// umidTraits implements the UMID Traits.
type umidTraits struct{}

func (umidTraits) HandlesSubdata() bool { return true }

func (umidTraits) Read(raw []byte) (interface{}, error) { return mxfcore.ParseUMID(raw) }

func (umidTraits) Write(v interface{}) ([]byte, error) {
	u, ok := v.(mxfcore.UMID)
	if !ok {
		return nil, fmt.Errorf("dict: UMID expects mxfcore.UMID, got %T", v)
	}
	out := make([]byte, mxfcore.UMIDLength)
	copy(out, u[:])
	return out, nil
}

func (umidTraits) ToString(v interface{}) string {
	u, _ := v.(mxfcore.UMID)
	return fmt.Sprintf("% x", u[:])
}

func (umidTraits) FromString(string) (interface{}, error) {
	return nil, fmt.Errorf("dict: UMID string parsing not supported")
}
