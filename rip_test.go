package mxfcore

import "testing"

func TestEncodeDecodeRIPRoundTrip(t *testing.T) {
	r := &RIP{Entries: []RIPEntry{
		{BodySID: 0, ByteOffset: 0},
		{BodySID: 1, ByteOffset: 4096},
		{BodySID: 2, ByteOffset: 1 << 40},
	}}

	encoded := EncodeRIP(r)
	// Simulate the RIP sitting at the end of a larger file.
	data := append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, encoded...)

	got, err := DecodeRIP(data)
	if err != nil {
		t.Fatalf("DecodeRIP: %v", err)
	}
	if len(got.Entries) != len(r.Entries) {
		t.Fatalf("Entries len = %d, want %d", len(got.Entries), len(r.Entries))
	}
	for i, e := range r.Entries {
		if got.Entries[i] != e {
			t.Errorf("Entries[%d] = %+v, want %+v", i, got.Entries[i], e)
		}
	}
}

func TestEncodeRIPLastFourBytesAreTotalLength(t *testing.T) {
	r := &RIP{Entries: []RIPEntry{{BodySID: 1, ByteOffset: 0}}}
	encoded := EncodeRIP(r)
	total, err := ReadUint32(encoded, len(encoded)-4)
	if err != nil {
		t.Fatalf("ReadUint32: %v", err)
	}
	if int(total) != len(encoded) {
		t.Errorf("trailing length = %d, want %d (own length)", total, len(encoded))
	}
}

func TestDecodeRIPTooShort(t *testing.T) {
	if _, err := DecodeRIP(make([]byte, 2)); err != ErrNoRIP {
		t.Errorf("DecodeRIP(short) error = %v, want ErrNoRIP", err)
	}
}

func TestDecodeRIPBadTrailingLength(t *testing.T) {
	data := make([]byte, 16)
	// Trailing length claims more bytes than are present.
	copy(data[len(data)-4:], PutUint32(nil, 10000))
	if _, err := DecodeRIP(data); err != ErrBadRIPLength {
		t.Errorf("DecodeRIP(bad length) error = %v, want ErrBadRIPLength", err)
	}
}

func TestDecodeRIPWrongKey(t *testing.T) {
	var notRIP UL
	notRIP[0] = 0xFF
	klv := WriteKLV(nil, notRIP, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	data := PutUint32(klv, uint32(len(klv)+4))
	if _, err := DecodeRIP(data); err != ErrNoRIP {
		t.Errorf("DecodeRIP(wrong key) error = %v, want ErrNoRIP", err)
	}
}

func TestDecodeRIPMisalignedEntries(t *testing.T) {
	// 10 bytes of value cannot divide evenly into 12-byte entries.
	klv := WriteKLV(nil, RIPKey, make([]byte, 10))
	data := PutUint32(klv, uint32(len(klv)+4))
	if _, err := DecodeRIP(data); err != ErrBadRIPLength {
		t.Errorf("DecodeRIP(misaligned entries) error = %v, want ErrBadRIPLength", err)
	}
}

func TestDecodeRIPEmpty(t *testing.T) {
	r := &RIP{}
	data := EncodeRIP(r)
	got, err := DecodeRIP(data)
	if err != nil {
		t.Fatalf("DecodeRIP(empty): %v", err)
	}
	if len(got.Entries) != 0 {
		t.Errorf("Entries = %v, want empty", got.Entries)
	}
}
