package mxfcore

// Reserved local tags: 0x0000 is never assigned, 0xFFFF is reserved
// for future extension.
const (
	primerTagMin uint16 = 0x0001
	primerTagMax uint16 = 0xFFFE
)

// Primer is the per-partition mapping of 2-byte local tags to 16-byte
// ULs. It is explicit, caller-owned context: nothing here is a hidden
// process-global.
type Primer struct {
	tagToUL map[uint16]UL
	ulToTag map[UL]uint16
	order   []uint16
	next    uint16
}

// NewPrimer returns an empty Primer ready for incremental tag
// assignment starting at the lowest free tag.
func NewPrimer() *Primer {
	return &Primer{
		tagToUL: make(map[uint16]UL),
		ulToTag: make(map[UL]uint16),
		next:    primerTagMin,
	}
}

// TagFor returns the tag assigned to ul, assigning the next free tag
// if ul has not been seen in this Primer before. The same UL always
// maps to the same tag within one Primer.
func (p *Primer) TagFor(ul UL) (uint16, error) {
	if tag, ok := p.ulToTag[ul]; ok {
		return tag, nil
	}
	if p.next > primerTagMax {
		return 0, ErrPrimerTagsExhausted
	}
	tag := p.next
	p.next++
	p.tagToUL[tag] = ul
	p.ulToTag[ul] = tag
	p.order = append(p.order, tag)
	return tag, nil
}

// ULFor resolves a local tag to its UL. ok is false if the tag is not
// present in this Primer.
func (p *Primer) ULFor(tag uint16) (UL, bool) {
	ul, ok := p.tagToUL[tag]
	return ul, ok
}

// Entries returns the (tag, UL) pairs in assignment order, the order
// they are serialised in the LocalTagEntryBatch.
func (p *Primer) Entries() []PrimerEntry {
	entries := make([]PrimerEntry, 0, len(p.order))
	for _, tag := range p.order {
		entries = append(entries, PrimerEntry{Tag: tag, UL: p.tagToUL[tag]})
	}
	return entries
}

// PrimerEntry is one (Tag, UL) pair of the LocalTagEntryBatch.
type PrimerEntry struct {
	Tag uint16
	UL  UL
}

// primerEntrySize is the fixed per-entry size: 2-byte tag + 16-byte UL.
const primerEntrySize = 18

// PrimerPackKey is the Primer Pack's UL.
var PrimerPackKey = UL{0x06, 0x0E, 0x2B, 0x34, 0x02, 0x05, 0x01, 0x01, 0x0D, 0x01, 0x02, 0x01, 0x01, 0x05, 0x01, 0x00}

// EncodePrimerPack serialises p's LocalTagEntryBatch body (count,
// itemsize, then each entry) as the Primer Pack KLV value.
func EncodePrimerPack(p *Primer) []byte {
	entries := p.Entries()
	buf := make([]byte, 0, 8+len(entries)*primerEntrySize)
	buf = PutUint32(buf, uint32(len(entries)))
	buf = PutUint32(buf, primerEntrySize)
	for _, e := range entries {
		buf = PutUint16(buf, e.Tag)
		buf = append(buf, e.UL[:]...)
	}
	return buf
}

// DecodePrimerPack parses a Primer Pack KLV value into a new Primer.
func DecodePrimerPack(value []byte) (*Primer, error) {
	if len(value) < 8 {
		return nil, ErrTruncatedValue
	}
	count, err := ReadUint32(value, 0)
	if err != nil {
		return nil, err
	}
	itemSize, err := ReadUint32(value, 4)
	if err != nil {
		return nil, err
	}
	if itemSize != primerEntrySize {
		return nil, ErrTruncatedValue
	}

	p := NewPrimer()
	off := 8
	for i := uint32(0); i < count; i++ {
		if off+primerEntrySize > len(value) {
			return nil, ErrTruncatedValue
		}
		tag, err := ReadUint16(value, off)
		if err != nil {
			return nil, err
		}
		ul, err := ParseUL(value[off+2:])
		if err != nil {
			return nil, err
		}
		p.tagToUL[tag] = ul
		p.ulToTag[ul] = tag
		p.order = append(p.order, tag)
		if tag >= p.next {
			p.next = tag + 1
		}
		off += primerEntrySize
	}
	return p, nil
}
