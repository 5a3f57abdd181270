package mxfcore

// RIPKey is the Random Index Pack's UL.
var RIPKey = UL{0x06, 0x0E, 0x2B, 0x34, 0x02, 0x05, 0x01, 0x01, 0x0D, 0x01, 0x02, 0x01, 0x01, 0x11, 0x01, 0x00}

// RIPEntry is one (BodySID, byte-offset) pair of the Random Index Pack.
type RIPEntry struct {
	BodySID    uint32
	ByteOffset uint64
}

// RIP is the trailing directory of partition offsets. It is always
// the final KLV of the file, and its own length, in
// the last 4 bytes, lets a reader locate it by seeking 4 bytes before
// EOF.
type RIP struct {
	Entries []RIPEntry
}

// EncodeRIP serialises r to its full KLV (key + BER length + value +
// trailing UInt32 total length), the RIP's own total byte length going
// in the very last 4 bytes so a reader can find it by seeking back
// from the end of the file.
func EncodeRIP(r *RIP) []byte {
	value := make([]byte, 0, len(r.Entries)*12)
	for _, e := range r.Entries {
		value = PutUint32(value, e.BodySID)
		value = PutUint64(value, e.ByteOffset)
	}

	klv := WriteKLV(nil, RIPKey, value)
	total := len(klv) + 4
	return PutUint32(klv, uint32(total))
}

// DecodeRIP locates and parses the Random Index Pack at the end of
// data: the last 4 bytes give the RIP's total KLV length, data is
// sliced back that far, and the result is parsed as a KLV whose key
// must be RIPKey.
func DecodeRIP(data []byte) (*RIP, error) {
	if len(data) < 4 {
		return nil, ErrNoRIP
	}
	total, err := ReadUint32(data, len(data)-4)
	if err != nil {
		return nil, err
	}
	if int(total) > len(data) || total < ULLength+1+4 {
		return nil, ErrBadRIPLength
	}

	ripBytes := data[len(data)-int(total):]
	triple, consumed, err := ReadKLV(ripBytes, int64(len(data))-int64(total))
	if err != nil {
		return nil, err
	}
	if triple.Key != RIPKey {
		return nil, ErrNoRIP
	}
	if consumed+4 != len(ripBytes) {
		return nil, ErrBadRIPLength
	}

	r := &RIP{}
	value := triple.Value
	if len(value)%12 != 0 {
		return nil, ErrBadRIPLength
	}
	for off := 0; off < len(value); off += 12 {
		bodySID, _ := ReadUint32(value, off)
		byteOffset, _ := ReadUint64(value, off+4)
		r.Entries = append(r.Entries, RIPEntry{BodySID: bodySID, ByteOffset: byteOffset})
	}
	return r, nil
}
