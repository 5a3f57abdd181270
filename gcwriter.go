package mxfcore

import "sort"

// gcKeyPrefix is the first 12 bytes common to every Generic Container
// element UL.
var gcKeyPrefix = [12]byte{0x06, 0x0E, 0x2B, 0x34, 0x01, 0x02, 0x01, 0x01, 0x0D, 0x01, 0x03, 0x01}

// GCElementKey builds a Generic Container element UL: byte 13 encodes
// item-type (CP-compatible 0x0N family or non-CP 0x1N), byte 14 the
// fixed-at-first-write element count for that item type, byte 15 the
// element type, and byte 16 the element number.
func GCElementKey(item ItemType, cp bool, count, elementType, elementNumber uint8) UL {
	var ul UL
	copy(ul[:12], gcKeyPrefix[:])
	if cp {
		ul[12] = itemTypeCPByte[item]
	} else {
		ul[12] = itemTypeNonCPByte[item]
	}
	ul[13] = count
	ul[14] = elementType
	ul[15] = elementNumber
	return ul
}

// GCStream is one registered Generic Container essence stream: a
// fixed item-type/element-type identity plus a mutable write-order
// and per-content-package payload queue.
type GCStream struct {
	ItemType    ItemType
	CP          bool
	ElementType uint8
	ElementNum  uint8

	WriteOrder int

	queued []byte
}

// Key returns this stream's element UL given the item type's
// fixed-at-first-write count.
func (s *GCStream) Key(count uint8) UL {
	return GCElementKey(s.ItemType, s.CP, count, s.ElementType, s.ElementNum)
}

// GCWriter packs essence elements under SMPTE-standardised keys and
// enforces write-order across multiplexed streams within a content
// package.
type GCWriter struct {
	streams     []*GCStream
	counts      map[ItemType]uint8
	nextElement map[ItemType]uint8
}

// NewGCWriter returns an empty Generic Container writer.
func NewGCWriter() *GCWriter {
	return &GCWriter{
		counts:      make(map[ItemType]uint8),
		nextElement: make(map[ItemType]uint8),
	}
}

// addElement registers a new stream of the given item type, assigning
// the next free element number within that item type and a default
// write order equal to registration order.
func (w *GCWriter) addElement(item ItemType, cp bool, elementType uint8) *GCStream {
	w.nextElement[item]++
	num := w.nextElement[item]
	w.counts[item] = num // count is fixed to the highest assigned so far at first write

	s := &GCStream{ItemType: item, CP: cp, ElementType: elementType, ElementNum: num, WriteOrder: len(w.streams)}
	w.streams = append(w.streams, s)
	return s
}

// AddSystemElement registers a System item-type stream.
func (w *GCWriter) AddSystemElement(cp bool, elementType uint8) *GCStream {
	return w.addElement(ItemTypeSystem, cp, elementType)
}

// AddPictureElement registers a Picture item-type stream.
func (w *GCWriter) AddPictureElement(cp bool, elementType uint8) *GCStream {
	return w.addElement(ItemTypePicture, cp, elementType)
}

// AddSoundElement registers a Sound item-type stream.
func (w *GCWriter) AddSoundElement(cp bool, elementType uint8) *GCStream {
	return w.addElement(ItemTypeSound, cp, elementType)
}

// AddDataElement registers a Data item-type stream.
func (w *GCWriter) AddDataElement(cp bool, elementType uint8) *GCStream {
	return w.addElement(ItemTypeData, cp, elementType)
}

// AddCompoundElement registers a Compound item-type stream.
func (w *GCWriter) AddCompoundElement(cp bool, elementType uint8) *GCStream {
	return w.addElement(ItemTypeCompound, cp, elementType)
}

// SetWriteOrder overrides stream's default write order.
func (w *GCWriter) SetWriteOrder(stream *GCStream, order int) {
	stream.WriteOrder = order
}

// QueueChunk stages data for stream, to be flushed on the next
// StartNewCP call.
func (w *GCWriter) QueueChunk(stream *GCStream, data []byte) {
	stream.queued = data
}

// StartNewCP flushes every stream with queued data, in ascending
// write-order, as concatenated KLVs, and clears their queues —
// elements are always emitted in strictly ascending write-order.
func (w *GCWriter) StartNewCP() []byte {
	ordered := make([]*GCStream, 0, len(w.streams))
	for _, s := range w.streams {
		if s.queued != nil {
			ordered = append(ordered, s)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].WriteOrder < ordered[j].WriteOrder })

	var out []byte
	for _, s := range ordered {
		count := w.counts[s.ItemType]
		out = WriteKLV(out, s.Key(count), s.queued)
		s.queued = nil
	}
	return out
}
