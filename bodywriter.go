package mxfcore

// BodyPartitionPolicy selects when the Body writer forces a new body
// partition.
type BodyPartitionPolicy int

// Partition boundary policies.
const (
	// BodyNone starts one partition per stream boundary only.
	BodyNone BodyPartitionPolicy = iota
	// BodyDuration forces a new partition every N edit units.
	BodyDuration
	// BodySize forces a new partition once the current body exceeds N bytes.
	BodySize
)

// IndexPlacement is the bitmask of index-location flags, driven by
// the Body writer's metadata-sharing policy.
type IndexPlacement uint16

// Index placement flags.
const (
	IndexInHeader IndexPlacement = 1 << iota
	IndexInBody
	IndexInFooter
	IndexSparse
	IndexSprinkled
	IndexIsolated
	IndexVeryIsolated
)

// SharingPolicy is the two independent booleans controlling whether
// the index and essence regions may share a partition with header
// metadata.
type SharingPolicy struct {
	IndexMaySharePartition   bool
	EssenceMaySharePartition bool
}

// DerivePlacement computes the Isolated/VeryIsolated flags implied by
// p: Isolated means essence never shares a partition with metadata;
// VeryIsolated additionally means the index doesn't either.
func (p SharingPolicy) DerivePlacement() IndexPlacement {
	var out IndexPlacement
	if !p.EssenceMaySharePartition {
		out |= IndexIsolated
	}
	if !p.EssenceMaySharePartition && !p.IndexMaySharePartition {
		out |= IndexVeryIsolated
	}
	return out
}

// BodyStream pairs an EssenceSource with its index-type mask and wrap
// type.
type BodyStream struct {
	Source        EssenceSource
	WrapType      WrapType
	IndexTypeMask IndexPlacement
	BodySID       uint32
	IndexSID      uint32
}

// BodyWriter drives partition emission: it decides when a body
// boundary falls due and composes the bytes of one partition (pack +
// optional header metadata + optional index segments + essence),
// patching HeaderByteCount/IndexByteCount only after those regions
// have been staged in full.
type BodyWriter struct {
	Streams []*BodyStream
	GC      *GCWriter
	Index   *IndexTable

	Policy        BodyPartitionPolicy
	DurationLimit int64 // edit units, BodyDuration
	SizeLimit     int64 // bytes, BodySize
	EditAlign     bool

	Sharing SharingPolicy

	KAGSize       uint32
	ForceLongFill bool
	LegacyFill    bool

	bodySizeSinceBoundary      int64
	editUnitsSinceBoundary     int64
}

// NewBodyWriter returns a BodyWriter over gc/index with the given
// partition-boundary policy.
func NewBodyWriter(gc *GCWriter, index *IndexTable) *BodyWriter {
	return &BodyWriter{GC: gc, Index: index}
}

// RecordWrite accounts for nBytes and (optionally, when a full edit
// unit's worth of content packages has flushed) advances the
// edit-unit counter, then reports whether a new body partition is due
// under the active policy.
func (b *BodyWriter) RecordWrite(nBytes int, editUnitsAdvanced int64) bool {
	b.bodySizeSinceBoundary += int64(nBytes)
	b.editUnitsSinceBoundary += editUnitsAdvanced

	switch b.Policy {
	case BodyDuration:
		return b.editUnitsSinceBoundary >= b.DurationLimit
	case BodySize:
		return b.bodySizeSinceBoundary >= b.SizeLimit
	default:
		return false
	}
}

// ResetBoundary clears the since-last-boundary counters after a new
// body partition has been started.
func (b *BodyWriter) ResetBoundary() {
	b.bodySizeSinceBoundary = 0
	b.editUnitsSinceBoundary = 0
}

// fillKey returns the KLVFill UL this writer uses, honouring the
// legacy v1 opt-in.
func (b *BodyWriter) fillKey() UL {
	if b.LegacyFill {
		return KLVFillKeyV1
	}
	return KLVFillKeyV2
}

// StagedPartition is the fully-composed byte layout of one partition:
// the Partition Pack plus its optional regions, with HeaderByteCount
// and IndexByteCount already patched to reflect the actual staged
// content: HeaderByteCount and IndexByteCount are what demarcate
// those regions for a reader.
type StagedPartition struct {
	Partition *Partition
	Bytes     []byte
}

// ComposePartition lays out one partition's bytes: Partition Pack,
// KLVFill, Primer+HeaderMetadata (if any), KLVFill, IndexSegments (if
// any), KLVFill, EssenceContainer payload (if any) — each region
// separated by a KAG-alignment fill computed only once every prior
// region's true length is known, a two-pass size-then-patch layout.
func (b *BodyWriter) ComposePartition(p *Partition, partitionStart int64, primerBytes, headerMetadata, indexSegments, essence []byte) *StagedPartition {
	headerRegion := append(append([]byte(nil), primerBytes...), headerMetadata...)
	p.HeaderByteCount = uint64(len(headerRegion))
	p.IndexByteCount = uint64(len(indexSegments))

	packBytes := WriteKLV(nil, PartitionKey(p.Item, p.Status), EncodePartitionPack(p))

	var out []byte
	out = append(out, packBytes...)
	pos := partitionStart + int64(len(packBytes))

	pos, out = b.appendRegion(out, pos, partitionStart, headerRegion)
	pos, out = b.appendRegion(out, pos, partitionStart, indexSegments)
	_, out = b.appendRegion(out, pos, partitionStart, essence)

	return &StagedPartition{Partition: p, Bytes: out}
}

// appendRegion aligns to the KAG boundary (if any padding is needed)
// before appending a non-empty region.
func (b *BodyWriter) appendRegion(out []byte, pos, partitionStart int64, region []byte) (int64, []byte) {
	if len(region) == 0 {
		return pos, out
	}
	fillSize := KAGAlignedFillSize(partitionStart, pos, b.KAGSize, b.ForceLongFill)
	if fillSize > 0 {
		out = WriteKLVFill(out, b.fillKey(), int(fillSize), b.ForceLongFill)
		pos += fillSize
	}
	out = append(out, region...)
	pos += int64(len(region))
	return pos, out
}
