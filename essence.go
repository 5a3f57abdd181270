package mxfcore

// ChunkState reports what NextChunk returned.
type ChunkState int

// Chunk states an EssenceSource can report.
const (
	// ChunkReady means data was returned.
	ChunkReady ChunkState = iota
	// ChunkEmpty means more data is coming but is not yet available —
	// the only cooperative-yield point in the core.
	ChunkEmpty
	// ChunkEnd means the stream is exhausted.
	ChunkEnd
)

// EssenceSource is the pull interface an essence-format-specific
// sub-parser implements to hand typed byte chunks to the Body writer
// It is the one place the core cooperatively yields: an empty chunk
// means "try again later", not an error.
type EssenceSource interface {
	// NextChunk returns the next chunk of essence data. If max > 0 the
	// returned chunk never exceeds it and any remainder is buffered by
	// the source for the following call. min == 0 lets the source pick
	// a natural boundary, typically one edit unit.
	NextChunk(min, max int) (data []byte, state ChunkState, err error)

	// BytesPerEditUnit returns the fixed size of one edit unit for a
	// CBR source, or 0 if the source is VBR.
	BytesPerEditUnit() uint32

	// CanIndex reports whether this source can supply index
	// information at all.
	CanIndex() bool

	// EnableVBRIndexMode requests explicit per-edit-unit indexing even
	// if the source is nominally CBR; a source may refuse (return
	// false) if it cannot honour the request.
	EnableVBRIndexMode() bool

	// EditRate returns the source's edit rate.
	EditRate() Rational

	// PrechargeSize returns the number of edit units of precharge
	// (negative-origin samples) this source carries before its first
	// indexable unit, or 0 if none.
	PrechargeSize() int64
}

// WrapType is how an essence source's edit units map to Generic
// Container elements.
type WrapType int

// Wrap types a Generic Container element can use.
const (
	WrapFrame WrapType = iota
	WrapClip
	WrapOther
)

// ItemType is the Generic Container item-type class.
type ItemType int

// Generic Container item types.
const (
	ItemTypeSystem ItemType = iota
	ItemTypePicture
	ItemTypeSound
	ItemTypeData
	ItemTypeCompound
)

// itemTypeCPByte and itemTypeNonCPByte give the GC key's byte-13
// item-type/CP-compatibility byte for each ItemType: CP-compatible
// variants use the 0x0N family, non-CP use 0x1N.
var itemTypeCPByte = map[ItemType]byte{
	ItemTypeSystem:   0x04,
	ItemTypePicture:  0x05,
	ItemTypeSound:    0x06,
	ItemTypeData:     0x07,
	ItemTypeCompound: 0x18,
}

var itemTypeNonCPByte = map[ItemType]byte{
	ItemTypeSystem:   0x14,
	ItemTypePicture:  0x15,
	ItemTypeSound:    0x16,
	ItemTypeData:     0x17,
	ItemTypeCompound: 0x18,
}
