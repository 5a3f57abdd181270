package mxfcore

import "testing"

func TestIndexSegmentCoversAndIsCBR(t *testing.T) {
	seg := &IndexSegment{IndexStartPosition: 10, IndexDuration: 5, EditUnitByteCount: 4096}
	if !seg.IsCBR() {
		t.Errorf("IsCBR() = false, want true (EditUnitByteCount set)")
	}
	if !seg.Covers(10) || !seg.Covers(14) {
		t.Errorf("Covers() should include both range ends")
	}
	if seg.Covers(9) || seg.Covers(15) {
		t.Errorf("Covers() should exclude values outside [10,15)")
	}
}

func TestIndexSegmentAddEntryAndCap(t *testing.T) {
	seg := &IndexSegment{}
	entry := IndexEntry{StreamOffset: 0}
	for i := 0; i < 3; i++ {
		if err := seg.AddEntry(entry); err != nil {
			t.Fatalf("AddEntry #%d: %v", i, err)
		}
	}
	if seg.IndexDuration != 3 {
		t.Errorf("IndexDuration = %d, want 3", seg.IndexDuration)
	}

	big := &IndexSegment{}
	entrySize := IndexEntrySize(0, 0)
	n := maxIndexSegmentBytes / entrySize
	for i := 0; i < n; i++ {
		if err := big.AddEntry(entry); err != nil {
			t.Fatalf("AddEntry #%d: %v", i, err)
		}
	}
	if err := big.AddEntry(entry); err != ErrIndexSegmentTooLarge {
		t.Errorf("AddEntry past cap = %v, want ErrIndexSegmentTooLarge", err)
	}
}

func buildCBRSegment() *IndexSegment {
	return &IndexSegment{
		IndexEditRate:      Rational{25, 1},
		IndexStartPosition: 0,
		IndexDuration:      100,
		EditUnitByteCount:  1000,
		IndexSID:           1,
		BodySID:            1,
		DeltaEntryArray:    []DeltaEntry{{ElementDelta: 16}},
	}
}

func TestIndexTableLookupCBR(t *testing.T) {
	table := NewIndexTable()
	seg := buildCBRSegment()
	table.AddSegment(seg)

	loc, err := table.Lookup(1, 1, 5, 0, false)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	want := uint64(5*1000 + 16)
	if loc.StreamOffset != want {
		t.Errorf("StreamOffset = %d, want %d", loc.StreamOffset, want)
	}
	if loc.Approximate {
		t.Errorf("Approximate = true for a covered edit unit")
	}
}

func TestIndexTableLookupApproximateFallback(t *testing.T) {
	table := NewIndexTable()
	seg := buildCBRSegment()
	seg.IndexDuration = 10
	table.AddSegment(seg)

	loc, err := table.Lookup(1, 1, 50, 0, false)
	if err != nil {
		t.Fatalf("Lookup(past end): %v", err)
	}
	if !loc.Approximate {
		t.Errorf("Approximate = false, want true for an edit unit past the last segment")
	}
}

func TestIndexTableLookupNoSegment(t *testing.T) {
	table := NewIndexTable()
	if _, err := table.Lookup(9, 9, 0, 0, false); err != ErrNoIndexEntry {
		t.Errorf("Lookup(no segments) = %v, want ErrNoIndexEntry", err)
	}
}

func TestIndexTableLookupVBRWithSliceAndPosTable(t *testing.T) {
	table := NewIndexTable()
	seg := &IndexSegment{
		IndexEditRate:      Rational{25, 1},
		IndexStartPosition: 0,
		IndexDuration:      2,
		IndexSID:           2,
		BodySID:            1,
		DeltaEntryArray: []DeltaEntry{
			{SliceNumber: 1, PosTableIndex: 1, ElementDelta: 4},
		},
		IndexEntryArray: []IndexEntry{
			{
				StreamOffset:     1000,
				SliceOffsetArray: []uint32{200},
				PosTableArray:    []Rational{{1, 2}},
			},
			{
				StreamOffset:     2000,
				SliceOffsetArray: []uint32{300},
				PosTableArray:    []Rational{{1, 3}},
			},
		},
	}
	table.AddSegment(seg)

	loc, err := table.Lookup(1, 2, 0, 0, false)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	wantOffset := uint64(1000 + 200 + 4)
	if loc.StreamOffset != wantOffset {
		t.Errorf("StreamOffset = %d, want %d", loc.StreamOffset, wantOffset)
	}
	if loc.FractionalOffset == nil || *loc.FractionalOffset != (Rational{1, 2}) {
		t.Errorf("FractionalOffset = %v, want {1,2}", loc.FractionalOffset)
	}
}

func TestIndexTableLookupTemporalReorder(t *testing.T) {
	table := NewIndexTable()
	seg := &IndexSegment{
		IndexStartPosition: 0,
		IndexDuration:      3,
		IndexSID:           3,
		BodySID:            1,
		DeltaEntryArray:    []DeltaEntry{{PosTableIndex: -1}},
		IndexEntryArray: []IndexEntry{
			{StreamOffset: 100},
			{StreamOffset: 200, TemporalOffset: -1}, // displayed unit 1 stored at unit 0
			{StreamOffset: 300},
		},
	}
	table.AddSegment(seg)

	loc, err := table.Lookup(1, 3, 1, 0, true)
	if err != nil {
		t.Fatalf("Lookup(reorder): %v", err)
	}
	if loc.StreamOffset != 100 {
		t.Errorf("StreamOffset = %d, want 100 (resolved via TemporalOffset)", loc.StreamOffset)
	}
}

func TestIndexTableLookupKeyFrame(t *testing.T) {
	table := NewIndexTable()
	seg := &IndexSegment{
		IndexStartPosition: 0,
		IndexDuration:      3,
		IndexSID:           4,
		BodySID:            1,
		DeltaEntryArray:    []DeltaEntry{{}},
		IndexEntryArray: []IndexEntry{
			{StreamOffset: 100},
			{StreamOffset: 200, KeyFrameOffset: 1}, // anchor is unit 0
			{StreamOffset: 300},
		},
	}
	table.AddSegment(seg)

	loc, err := table.LookupKeyFrame(1, 4, 1, 0)
	if err != nil {
		t.Fatalf("LookupKeyFrame: %v", err)
	}
	if loc.StreamOffset != 100 {
		t.Errorf("StreamOffset = %d, want 100 (anchor frame)", loc.StreamOffset)
	}
}

func TestIndexTableLookupKeyFrameEscapesSegment(t *testing.T) {
	table := NewIndexTable()
	seg := &IndexSegment{
		IndexStartPosition: 0,
		IndexDuration:      1,
		IndexSID:           5,
		BodySID:            1,
		DeltaEntryArray:    []DeltaEntry{{}},
		IndexEntryArray: []IndexEntry{
			{StreamOffset: 100, KeyFrameOffset: 5}, // anchor would be before segment start
		},
	}
	table.AddSegment(seg)

	if _, err := table.LookupKeyFrame(1, 5, 0, 0); err != ErrUnknownKeyFrameLocation {
		t.Errorf("LookupKeyFrame(escaping anchor) = %v, want ErrUnknownKeyFrameLocation", err)
	}
}

func TestEncodeDecodeIndexTableSegmentCBRRoundTrip(t *testing.T) {
	seg := buildCBRSegment()
	encoded := EncodeIndexTableSegment(seg)
	got, err := DecodeIndexTableSegment(encoded)
	if err != nil {
		t.Fatalf("DecodeIndexTableSegment: %v", err)
	}

	if got.IndexEditRate != seg.IndexEditRate || got.IndexStartPosition != seg.IndexStartPosition ||
		got.IndexDuration != seg.IndexDuration || got.EditUnitByteCount != seg.EditUnitByteCount ||
		got.IndexSID != seg.IndexSID || got.BodySID != seg.BodySID {
		t.Fatalf("decoded fixed fields mismatch: got %+v, want %+v", got, seg)
	}
	if len(got.DeltaEntryArray) != 1 || got.DeltaEntryArray[0] != seg.DeltaEntryArray[0] {
		t.Errorf("DeltaEntryArray = %v, want %v", got.DeltaEntryArray, seg.DeltaEntryArray)
	}
	if len(got.IndexEntryArray) != 0 {
		t.Errorf("CBR segment decoded with %d IndexEntryArray entries, want 0", len(got.IndexEntryArray))
	}
}

func TestEncodeDecodeIndexTableSegmentVBRRoundTrip(t *testing.T) {
	seg := &IndexSegment{
		IndexEditRate:      Rational{30000, 1001},
		IndexStartPosition: 5,
		IndexDuration:      2,
		IndexSID:           7,
		BodySID:            1,
		DeltaEntryArray: []DeltaEntry{
			{PosTableIndex: 1, SliceNumber: 1, ElementDelta: 4},
		},
		IndexEntryArray: []IndexEntry{
			{
				TemporalOffset:   -1,
				KeyFrameOffset:   -2,
				Flags:            0x80,
				StreamOffset:     123456,
				SliceOffsetArray: []uint32{10, 20},
				PosTableArray:    []Rational{{1, 4}},
			},
			{
				TemporalOffset:   0,
				KeyFrameOffset:   0,
				Flags:            0,
				StreamOffset:     654321,
				SliceOffsetArray: []uint32{30, 40},
				PosTableArray:    []Rational{{3, 4}},
			},
		},
	}

	encoded := EncodeIndexTableSegment(seg)
	got, err := DecodeIndexTableSegment(encoded)
	if err != nil {
		t.Fatalf("DecodeIndexTableSegment: %v", err)
	}

	if len(got.IndexEntryArray) != len(seg.IndexEntryArray) {
		t.Fatalf("IndexEntryArray len = %d, want %d", len(got.IndexEntryArray), len(seg.IndexEntryArray))
	}
	for i, want := range seg.IndexEntryArray {
		gotEntry := got.IndexEntryArray[i]
		if gotEntry.TemporalOffset != want.TemporalOffset || gotEntry.KeyFrameOffset != want.KeyFrameOffset ||
			gotEntry.Flags != want.Flags || gotEntry.StreamOffset != want.StreamOffset {
			t.Errorf("entry[%d] fixed fields = %+v, want %+v", i, gotEntry, want)
		}
		if len(gotEntry.SliceOffsetArray) != len(want.SliceOffsetArray) {
			t.Fatalf("entry[%d] SliceOffsetArray len = %d, want %d", i, len(gotEntry.SliceOffsetArray), len(want.SliceOffsetArray))
		}
		for j := range want.SliceOffsetArray {
			if gotEntry.SliceOffsetArray[j] != want.SliceOffsetArray[j] {
				t.Errorf("entry[%d].SliceOffsetArray[%d] = %d, want %d", i, j, gotEntry.SliceOffsetArray[j], want.SliceOffsetArray[j])
			}
		}
		if len(gotEntry.PosTableArray) != len(want.PosTableArray) {
			t.Fatalf("entry[%d] PosTableArray len = %d, want %d", i, len(gotEntry.PosTableArray), len(want.PosTableArray))
		}
		for j := range want.PosTableArray {
			if gotEntry.PosTableArray[j] != want.PosTableArray[j] {
				t.Errorf("entry[%d].PosTableArray[%d] = %v, want %v", i, j, gotEntry.PosTableArray[j], want.PosTableArray[j])
			}
		}
	}
}

func TestDecodeIndexTableSegmentTruncated(t *testing.T) {
	if _, err := DecodeIndexTableSegment(make([]byte, 4)); err != ErrMalformedIndexSegment {
		t.Errorf("DecodeIndexTableSegment(short) error = %v, want ErrMalformedIndexSegment", err)
	}
}

func TestDecodeIndexTableSegmentBadEntrySize(t *testing.T) {
	seg := &IndexSegment{
		IndexSID: 1,
		BodySID:  1,
		IndexEntryArray: []IndexEntry{
			{SliceOffsetArray: []uint32{1}, PosTableArray: []Rational{{1, 1}}},
		},
	}
	encoded := EncodeIndexTableSegment(seg)
	// Corrupt the declared entry size (last 4 bytes of the IndexEntryArray
	// header, which sits right before the entries themselves).
	entrySize := IndexEntrySize(1, 1)
	headerOff := len(encoded) - entrySize - 4
	copy(encoded[headerOff:headerOff+4], PutUint32(nil, uint32(entrySize+1)))

	if _, err := DecodeIndexTableSegment(encoded); err != ErrMalformedIndexSegment {
		t.Errorf("DecodeIndexTableSegment(bad entry size) error = %v, want ErrMalformedIndexSegment", err)
	}
}

func FuzzDecodeIndexTableSegment(f *testing.F) {
	f.Add(EncodeIndexTableSegment(buildCBRSegment()))
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, data []byte) {
		seg, err := DecodeIndexTableSegment(data)
		if err != nil {
			return
		}
		if seg == nil {
			t.Fatalf("DecodeIndexTableSegment returned nil, nil")
		}
	})
}
