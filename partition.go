package mxfcore

// Partition kinds: item-type byte (XX) and open/closed-complete/incomplete
// byte (YY) of the Partition Pack UL
// 06 0E 2B 34 02 05 01 01 0D 01 02 01 01 XX YY 00.
type PartitionItemType byte

// Header/Body/Footer item-type bytes.
const (
	PartitionHeader PartitionItemType = 0x02
	PartitionBody   PartitionItemType = 0x03
	PartitionFooter PartitionItemType = 0x04
)

// PartitionStatus is the open/closed x complete/incomplete byte.
type PartitionStatus byte

// Partition status bytes.
const (
	StatusOpenIncomplete   PartitionStatus = 0x01
	StatusClosedIncomplete PartitionStatus = 0x02
	StatusOpenComplete     PartitionStatus = 0x03
	StatusClosedComplete   PartitionStatus = 0x04
)

// partitionKeyPrefix is every Partition Pack UL's first 13 bytes.
var partitionKeyPrefix = [13]byte{0x06, 0x0E, 0x2B, 0x34, 0x02, 0x05, 0x01, 0x01, 0x0D, 0x01, 0x02, 0x01, 0x01}

// PartitionKey builds the full 16-byte Partition Pack UL for the given
// item type and status.
func PartitionKey(item PartitionItemType, status PartitionStatus) UL {
	var ul UL
	copy(ul[:13], partitionKeyPrefix[:])
	ul[13] = byte(item)
	ul[14] = byte(status)
	ul[15] = 0x00
	return ul
}

// ClassifyPartitionKey reports the item type and status a Partition
// Pack UL encodes, and whether ul is a recognised Partition Pack key
// at all.
func ClassifyPartitionKey(ul UL) (item PartitionItemType, status PartitionStatus, ok bool) {
	for i := 0; i < 13; i++ {
		if ul[i] != partitionKeyPrefix[i] {
			return 0, 0, false
		}
	}
	item, status = PartitionItemType(ul[13]), PartitionStatus(ul[14])
	if item < PartitionHeader || item > PartitionFooter || status < StatusOpenIncomplete || status > StatusClosedComplete {
		return 0, 0, false
	}
	return item, status, true
}

// Partition is a parsed or to-be-written Partition Pack plus its
// following regions.
type Partition struct {
	Item   PartitionItemType
	Status PartitionStatus

	MajorVersion uint16
	MinorVersion uint16
	KAGSize      uint32

	// Byte offsets, relative to the start of the Header Partition.
	ThisPartition     uint64
	PreviousPartition uint64
	FooterPartition   uint64

	HeaderByteCount uint64
	IndexByteCount  uint64
	IndexSID        uint32

	BodyOffset uint64
	BodySID    uint32

	OperationalPattern UL
	EssenceContainers  []UL
}

// partitionPackFixedSize is the byte length of every field after the
// key/length up to and including OperationalPattern, before the variable-length
// EssenceContainers batch.
const partitionPackFixedSize = 2 + 2 + 4 + 8 + 8 + 8 + 8 + 8 + 4 + 8 + 4 + ULLength

// EncodePartitionPack serialises p's fixed fields and EssenceContainers
// batch to its Partition Pack KLV value.
func EncodePartitionPack(p *Partition) []byte {
	buf := make([]byte, 0, partitionPackFixedSize+8+len(p.EssenceContainers)*ULLength)
	buf = PutUint16(buf, p.MajorVersion)
	buf = PutUint16(buf, p.MinorVersion)
	buf = PutUint32(buf, p.KAGSize)
	buf = PutUint64(buf, p.ThisPartition)
	buf = PutUint64(buf, p.PreviousPartition)
	buf = PutUint64(buf, p.FooterPartition)
	buf = PutUint64(buf, p.HeaderByteCount)
	buf = PutUint64(buf, p.IndexByteCount)
	buf = PutUint32(buf, p.IndexSID)
	buf = PutUint64(buf, p.BodyOffset)
	buf = PutUint32(buf, p.BodySID)
	buf = append(buf, p.OperationalPattern[:]...)

	buf = PutUint32(buf, uint32(len(p.EssenceContainers)))
	buf = PutUint32(buf, ULLength)
	for _, ec := range p.EssenceContainers {
		buf = append(buf, ec[:]...)
	}
	return buf
}

// DecodePartitionPack parses a Partition Pack KLV's key and value into
// a Partition.
func DecodePartitionPack(key UL, value []byte) (*Partition, error) {
	item, status, ok := ClassifyPartitionKey(key)
	if !ok {
		return nil, ErrShortPartitionPack
	}
	if len(value) < partitionPackFixedSize {
		return nil, ErrShortPartitionPack
	}

	p := &Partition{Item: item, Status: status}
	off := 0
	readU16 := func() uint16 { v, _ := ReadUint16(value, off); off += 2; return v }
	readU32 := func() uint32 { v, _ := ReadUint32(value, off); off += 4; return v }
	readU64 := func() uint64 { v, _ := ReadUint64(value, off); off += 8; return v }

	p.MajorVersion = readU16()
	p.MinorVersion = readU16()
	p.KAGSize = readU32()
	p.ThisPartition = readU64()
	p.PreviousPartition = readU64()
	p.FooterPartition = readU64()
	p.HeaderByteCount = readU64()
	p.IndexByteCount = readU64()
	p.IndexSID = readU32()
	p.BodyOffset = readU64()
	p.BodySID = readU32()

	op, err := ParseUL(value[off:])
	if err != nil {
		return nil, err
	}
	p.OperationalPattern = op
	off += ULLength

	if off+8 > len(value) {
		return p, nil // batch is optional/empty in some writers
	}
	count, err := ReadUint32(value, off)
	if err != nil {
		return p, err
	}
	off += 4
	itemSize, err := ReadUint32(value, off)
	if err != nil {
		return p, err
	}
	off += 4
	if itemSize != 0 && itemSize != ULLength {
		return p, ErrShortPartitionPack
	}
	for i := uint32(0); i < count; i++ {
		if off+ULLength > len(value) {
			return p, ErrTruncatedValue
		}
		ec, err := ParseUL(value[off:])
		if err != nil {
			return p, err
		}
		p.EssenceContainers = append(p.EssenceContainers, ec)
		off += ULLength
	}
	return p, nil
}

// VerifyThisPartition checks the "Partition offsets" invariant:
// ThisPartition must equal the pack's actual byte offset
// from the header partition's start.
func VerifyThisPartition(p *Partition, actualOffsetFromHeaderStart uint64) error {
	if p.ThisPartition != actualOffsetFromHeaderStart {
		return ErrBadPartitionOffset
	}
	return nil
}
