package mxfcore

// IndexTableSegmentKeyV11 is the current (version 11) IndexTableSegment
// UL, the default for writers; v10 files exist in the wild and readers
// accept either.
var IndexTableSegmentKeyV11 = UL{0x06, 0x0E, 0x2B, 0x34, 0x02, 0x53, 0x01, 0x01, 0x0D, 0x01, 0x02, 0x01, 0x01, 0x10, 0x01, 0x00}

// IndexTableSegmentKeyV10 is the legacy (version 10) IndexTableSegment key.
var IndexTableSegmentKeyV10 = UL{0x06, 0x0E, 0x2B, 0x34, 0x02, 0x53, 0x01, 0x01, 0x0D, 0x01, 0x02, 0x01, 0x01, 0x0F, 0x01, 0x00}

// IsIndexTableSegmentKey reports whether ul is either the v10 or v11
// IndexTableSegment UL.
func IsIndexTableSegmentKey(ul UL) bool {
	return ul == IndexTableSegmentKeyV10 || ul == IndexTableSegmentKeyV11
}

// maxIndexSegmentBytes is the 65,535-byte cap a serialised segment
// must respect to fit a 2-byte local-set length.
const maxIndexSegmentBytes = 65535

// DeltaEntry describes, per logical stream within one Generic
// Container element, how to locate that stream's data within an edit
// unit.
type DeltaEntry struct {
	// PosTableIndex < 0 flags "apply temporal reordering for this
	// stream"; > 0 indexes a PosTableArray entry; 0 means no
	// fractional offset.
	PosTableIndex int8
	SliceNumber   uint8
	ElementDelta  uint32
}

// IndexEntry is one VBR index entry, one per edit unit.
type IndexEntry struct {
	TemporalOffset int8
	KeyFrameOffset int8
	Flags          uint8
	StreamOffset   uint64

	// SliceOffsetArray holds the byte offset from StreamOffset to the
	// start of each slice beyond slice 0 (slice 0 is implicit).
	SliceOffsetArray []uint32

	// PosTableArray holds fractional sample offsets for subsample
	// accurate audio alignment.
	PosTableArray []Rational
}

// IndexEntrySize returns the serialised byte size of one IndexEntry
// with nsl slice offsets and npe pos-table entries: 11 fixed bytes
// (TemporalOffset + KeyFrameOffset + Flags + StreamOffset) plus 4 per
// slice offset plus 8 per pos-table rational.
func IndexEntrySize(nsl, npe int) int {
	return 11 + 4*nsl + 8*npe
}

// IndexSegment covers a contiguous range of edit units for one
// (BodySID, IndexSID) essence stream.
type IndexSegment struct {
	IndexEditRate      Rational
	IndexStartPosition int64
	IndexDuration      int64

	// EditUnitByteCount > 0 selects CBR mode (no per-unit entries);
	// == 0 selects VBR mode (explicit IndexEntryArray).
	EditUnitByteCount uint32

	IndexSID uint32
	BodySID  uint32

	// DeltaEntryArray has one entry per logical sub-stream, used by
	// both CBR and VBR lookup.
	DeltaEntryArray []DeltaEntry

	// IndexEntryArray is populated only in VBR mode.
	IndexEntryArray []IndexEntry
}

// IsCBR reports whether s uses the constant-bit-rate storage mode.
func (s *IndexSegment) IsCBR() bool { return s.EditUnitByteCount > 0 }

// Covers reports whether edit unit e falls within this segment's range.
func (s *IndexSegment) Covers(e int64) bool {
	return e >= s.IndexStartPosition && e < s.IndexStartPosition+s.IndexDuration
}

// SerialisedSize estimates s's IndexEntryArray wire size (8-byte
// array header + per-entry size), used to enforce the 65,535-byte cap.
func (s *IndexSegment) SerialisedSize() int {
	if s.IsCBR() {
		return 0
	}
	if len(s.IndexEntryArray) == 0 {
		return 8
	}
	nsl := len(s.IndexEntryArray[0].SliceOffsetArray)
	npe := len(s.IndexEntryArray[0].PosTableArray)
	return len(s.IndexEntryArray)*IndexEntrySize(nsl, npe) + 8
}

// CanAddEntry reports whether adding one more entry shaped like the
// existing ones would keep SerialisedSize within maxIndexSegmentBytes.
func (s *IndexSegment) CanAddEntry(nsl, npe int) bool {
	next := (len(s.IndexEntryArray)+1)*IndexEntrySize(nsl, npe) + 8
	return next <= maxIndexSegmentBytes
}

// AddEntry appends entry to s's IndexEntryArray, extending
// IndexDuration, or returns ErrIndexSegmentTooLarge if doing so would
// exceed the size cap — the caller should start a new segment in that
// case.
func (s *IndexSegment) AddEntry(entry IndexEntry) error {
	if !s.CanAddEntry(len(entry.SliceOffsetArray), len(entry.PosTableArray)) {
		return ErrIndexSegmentTooLarge
	}
	s.IndexEntryArray = append(s.IndexEntryArray, entry)
	s.IndexDuration = int64(len(s.IndexEntryArray))
	return nil
}

// Location is the result of an index Lookup: the byte offset of the
// requested edit unit's stream data, plus an optional fractional
// offset and accuracy flag.
type Location struct {
	StreamOffset      uint64
	FractionalOffset  *Rational
	Approximate       bool
}

// IndexTable holds the ordered IndexSegments for every (BodySID,
// IndexSID) pair of one file and answers edit-unit lookups.
type IndexTable struct {
	segments map[indexKey][]*IndexSegment
}

type indexKey struct {
	bodySID  uint32
	indexSID uint32
}

// NewIndexTable returns an empty IndexTable.
func NewIndexTable() *IndexTable {
	return &IndexTable{segments: make(map[indexKey][]*IndexSegment)}
}

// AddSegment appends seg to the ordered segment list for its
// (BodySID, IndexSID), which callers must keep in ascending
// IndexStartPosition order.
func (t *IndexTable) AddSegment(seg *IndexSegment) {
	k := indexKey{seg.BodySID, seg.IndexSID}
	t.segments[k] = append(t.segments[k], seg)
}

// Segments returns the ordered segment list for (bodySID, indexSID).
func (t *IndexTable) Segments(bodySID, indexSID uint32) []*IndexSegment {
	return t.segments[indexKey{bodySID, indexSID}]
}

func (t *IndexTable) findSegment(bodySID, indexSID uint32, e int64) (seg *IndexSegment, idx int, approx bool) {
	segs := t.Segments(bodySID, indexSID)
	for i, s := range segs {
		if s.Covers(e) {
			return s, i, false
		}
	}
	// No segment covers e: fall back to the nearest preceding segment's
	// final entry, flagged approximate.
	var best *IndexSegment
	bestIdx := -1
	for i, s := range segs {
		if s.IndexStartPosition <= e && (best == nil || s.IndexStartPosition > best.IndexStartPosition) {
			best = s
			bestIdx = i
		}
	}
	return best, bestIdx, true
}

// Lookup resolves edit unit e on sub-stream s within (bodySID,
// indexSID) to a Location, dispatching on CBR/VBR storage, recursing
// one level for temporal reordering, and detecting key-frame escapes.
func (t *IndexTable) Lookup(bodySID, indexSID uint32, e int64, subStream int, reorder bool) (Location, error) {
	seg, _, approx := t.findSegment(bodySID, indexSID, e)
	if seg == nil {
		return Location{}, ErrNoIndexEntry
	}

	if approx {
		loc, err := t.lookupWithinSegment(seg, seg.IndexStartPosition+seg.IndexDuration-1, subStream, false)
		loc.Approximate = true
		return loc, err
	}

	return t.lookupWithinSegment(seg, e, subStream, reorder)
}

func (t *IndexTable) lookupWithinSegment(seg *IndexSegment, e int64, subStream int, reorder bool) (Location, error) {
	var delta DeltaEntry
	if subStream < len(seg.DeltaEntryArray) {
		delta = seg.DeltaEntryArray[subStream]
	}

	if seg.IsCBR() {
		location := uint64(e)*uint64(seg.EditUnitByteCount) + uint64(delta.ElementDelta)
		return Location{StreamOffset: location}, nil
	}

	idx := e - seg.IndexStartPosition
	if idx < 0 || idx >= int64(len(seg.IndexEntryArray)) {
		return Location{}, ErrNoIndexEntry
	}
	entry := seg.IndexEntryArray[idx]

	if reorder && delta.PosTableIndex < 0 && entry.TemporalOffset != 0 {
		return t.lookupWithinSegment(seg, e+int64(entry.TemporalOffset), subStream, false)
	}

	var sliceOffset uint32
	slice := int(delta.SliceNumber)
	if slice > 0 {
		if slice-1 >= len(entry.SliceOffsetArray) {
			return Location{}, ErrMalformedIndexSegment
		}
		sliceOffset = entry.SliceOffsetArray[slice-1]
	}

	loc := Location{StreamOffset: entry.StreamOffset + uint64(sliceOffset) + uint64(delta.ElementDelta)}

	if delta.PosTableIndex > 0 {
		pidx := int(delta.PosTableIndex) - 1
		if pidx < len(entry.PosTableArray) {
			r := entry.PosTableArray[pidx]
			loc.FractionalOffset = &r
		}
	}

	return loc, nil
}

// EncodeIndexTableSegment serialises seg to its local-set value bytes
// (everything after the IndexTableSegment key+length), in the fixed
// field order: IndexEditRate, IndexStartPosition,
// IndexDuration, EditUnitByteCount, IndexSID, BodySID, then the
// DeltaEntryArray and (VBR only) IndexEntryArray batches, each with
// the standard 4-byte count + 4-byte element-size array header.
func EncodeIndexTableSegment(seg *IndexSegment) []byte {
	out := make([]byte, 0, 32+len(seg.DeltaEntryArray)*6+seg.SerialisedSize())
	out = append(out, seg.IndexEditRate.Bytes()...)
	out = appendInt64(out, seg.IndexStartPosition)
	out = appendInt64(out, seg.IndexDuration)
	out = PutUint32(out, seg.EditUnitByteCount)
	out = PutUint32(out, seg.IndexSID)
	out = PutUint32(out, seg.BodySID)

	out = PutUint32(out, uint32(len(seg.DeltaEntryArray)))
	out = PutUint32(out, 6) // DeltaEntry element size: int8+uint8+uint32
	for _, d := range seg.DeltaEntryArray {
		out = append(out, byte(d.PosTableIndex), d.SliceNumber)
		out = PutUint32(out, d.ElementDelta)
	}

	if seg.IsCBR() || len(seg.IndexEntryArray) == 0 {
		out = append(out, 0, 0) // SliceCount, PosTableCount
		out = PutUint32(out, uint32(len(seg.IndexEntryArray)))
		out = PutUint32(out, 0)
		return out
	}

	nsl := len(seg.IndexEntryArray[0].SliceOffsetArray)
	npe := len(seg.IndexEntryArray[0].PosTableArray)
	out = append(out, byte(nsl), byte(npe))
	out = PutUint32(out, uint32(len(seg.IndexEntryArray)))
	out = PutUint32(out, uint32(IndexEntrySize(nsl, npe)))
	for _, e := range seg.IndexEntryArray {
		out = append(out, byte(e.TemporalOffset), byte(e.KeyFrameOffset), e.Flags)
		out = PutUint64(out, e.StreamOffset)
		for _, so := range e.SliceOffsetArray {
			out = PutUint32(out, so)
		}
		for _, pt := range e.PosTableArray {
			out = append(out, pt.Bytes()...)
		}
	}
	return out
}

// appendInt64 big-endian encodes a signed position/duration value, the
// same layout PutUint64 uses with the sign bit carried through.
func appendInt64(dst []byte, v int64) []byte {
	return PutUint64(dst, uint64(v))
}

// DecodeIndexTableSegment parses value (an IndexTableSegment's local-set
// value, key+length already stripped) into an IndexSegment, returning
// ErrMalformedIndexSegment if either batch's declared count/element
// size does not fit the remaining bytes.
func DecodeIndexTableSegment(value []byte) (*IndexSegment, error) {
	const fixedSize = 8 + 8 + 8 + 4 + 4 + 4
	if len(value) < fixedSize {
		return nil, ErrMalformedIndexSegment
	}
	seg := &IndexSegment{}
	off := 0

	r, err := ParseRational(value[off : off+8])
	if err != nil {
		return nil, err
	}
	seg.IndexEditRate = r
	off += 8

	u, err := ReadUint64(value, off)
	if err != nil {
		return nil, err
	}
	seg.IndexStartPosition = int64(u)
	off += 8

	u, err = ReadUint64(value, off)
	if err != nil {
		return nil, err
	}
	seg.IndexDuration = int64(u)
	off += 8

	seg.EditUnitByteCount, err = ReadUint32(value, off)
	if err != nil {
		return nil, err
	}
	off += 4

	seg.IndexSID, err = ReadUint32(value, off)
	if err != nil {
		return nil, err
	}
	off += 4

	seg.BodySID, err = ReadUint32(value, off)
	if err != nil {
		return nil, err
	}
	off += 4

	deltaCount, deltaSize, n, err := readArrayHeader(value, off)
	if err != nil {
		return nil, err
	}
	off = n
	if deltaSize != 0 && deltaSize != 6 {
		return nil, ErrMalformedIndexSegment
	}
	for i := 0; i < deltaCount; i++ {
		if off+6 > len(value) {
			return nil, ErrMalformedIndexSegment
		}
		delta := DeltaEntry{
			PosTableIndex: int8(value[off]),
			SliceNumber:   value[off+1],
		}
		delta.ElementDelta, err = ReadUint32(value, off+2)
		if err != nil {
			return nil, err
		}
		seg.DeltaEntryArray = append(seg.DeltaEntryArray, delta)
		off += 6
	}

	if off+2 > len(value) {
		return nil, ErrMalformedIndexSegment
	}
	nsl, npe := int(value[off]), int(value[off+1])
	off += 2

	entryCount, entrySize, n, err := readArrayHeader(value, off)
	if err != nil {
		return nil, err
	}
	off = n
	if entryCount == 0 || entrySize == 0 {
		return seg, nil
	}
	if entrySize != IndexEntrySize(nsl, npe) {
		return nil, ErrMalformedIndexSegment
	}

	for i := 0; i < entryCount; i++ {
		if off+entrySize > len(value) {
			return nil, ErrMalformedIndexSegment
		}
		rec := value[off : off+entrySize]
		entry := IndexEntry{
			TemporalOffset: int8(rec[0]),
			KeyFrameOffset: int8(rec[1]),
			Flags:          rec[2],
		}
		entry.StreamOffset, err = ReadUint64(rec, 3)
		if err != nil {
			return nil, err
		}
		for s := 0; s < nsl; s++ {
			so, err := ReadUint32(rec, 11+s*4)
			if err != nil {
				return nil, err
			}
			entry.SliceOffsetArray = append(entry.SliceOffsetArray, so)
		}
		for p := 0; p < npe; p++ {
			pt, err := ParseRational(rec[11+nsl*4+p*8 : 11+nsl*4+p*8+8])
			if err != nil {
				return nil, err
			}
			entry.PosTableArray = append(entry.PosTableArray, pt)
		}
		seg.IndexEntryArray = append(seg.IndexEntryArray, entry)
		off += entrySize
	}
	return seg, nil
}

// readArrayHeader reads the standard 4-byte count + 4-byte
// element-size batch header at off, returning the offset just past it.
func readArrayHeader(value []byte, off int) (count, elementSize, next int, err error) {
	if off+8 > len(value) {
		return 0, 0, 0, ErrMalformedIndexSegment
	}
	c, err := ReadUint32(value, off)
	if err != nil {
		return 0, 0, 0, err
	}
	s, err := ReadUint32(value, off+4)
	if err != nil {
		return 0, 0, 0, err
	}
	return int(c), int(s), off + 8, nil
}

// LookupKeyFrame resolves the byte offset of edit unit e's nearest
// preceding key (anchor) frame on subStream, returning
// ErrUnknownKeyFrameLocation if KeyFrameOffset would escape the
// segment.
func (t *IndexTable) LookupKeyFrame(bodySID, indexSID uint32, e int64, subStream int) (Location, error) {
	seg, _, approx := t.findSegment(bodySID, indexSID, e)
	if seg == nil || approx || seg.IsCBR() {
		return Location{}, ErrUnknownKeyFrameLocation
	}
	idx := e - seg.IndexStartPosition
	if idx < 0 || idx >= int64(len(seg.IndexEntryArray)) {
		return Location{}, ErrUnknownKeyFrameLocation
	}
	entry := seg.IndexEntryArray[idx]
	if entry.KeyFrameOffset == 0 {
		return t.lookupWithinSegment(seg, e, subStream, false)
	}
	anchor := e - int64(entry.KeyFrameOffset)
	if !seg.Covers(anchor) {
		return Location{}, ErrUnknownKeyFrameLocation
	}
	return t.lookupWithinSegment(seg, anchor, subStream, false)
}
