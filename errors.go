package mxfcore

import (
	"errors"
	"fmt"
)

// Errors surfaced by the primitive codec and KLV framer.
var (
	// ErrTruncatedKey is returned when fewer than 16 bytes remain for a UL key.
	ErrTruncatedKey = errors.New("mxfcore: truncated KLV key")

	// ErrTruncatedLength is returned when the BER length prefix is cut short.
	ErrTruncatedLength = errors.New("mxfcore: truncated BER length")

	// ErrTruncatedValue is returned when fewer value bytes remain than the
	// length prefix promised.
	ErrTruncatedValue = errors.New("mxfcore: truncated KLV value")

	// ErrLengthTooLarge is returned when a KLV's declared length exceeds the
	// remaining bytes of its enclosing partition or body region.
	ErrLengthTooLarge = errors.New("mxfcore: KLV length exceeds remaining region")

	// ErrBadBERForm is returned when a BER long-form count byte is 0 or > 8.
	ErrBadBERForm = errors.New("mxfcore: invalid BER long-form length encoding")

	// ErrForcedSizeTooSmall is returned when a forced BER encoding size cannot
	// hold the requested length.
	ErrForcedSizeTooSmall = errors.New("mxfcore: forced BER size too small for length")
)

// Errors surfaced by the primer.
var (
	// ErrPrimerTagsExhausted is returned when all 65,534 local tags are assigned.
	ErrPrimerTagsExhausted = errors.New("mxfcore: primer has no free local tags")

	// ErrPrimerTagNotFound is returned when a tag has no entry in the primer
	// and no static-primer fallback was configured.
	ErrPrimerTagNotFound = errors.New("mxfcore: local tag not found in primer")
)

// Errors surfaced by the partition codec and RIP.
var (
	// ErrShortPartitionPack is returned when fewer bytes remain than a fixed
	// Partition Pack body requires.
	ErrShortPartitionPack = errors.New("mxfcore: short partition pack")

	// ErrBadPartitionOffset is returned when a parsed ThisPartition value
	// does not match the partition's actual byte offset.
	ErrBadPartitionOffset = errors.New("mxfcore: partition offset mismatch")

	// ErrNoRIP is returned when the trailing 4 bytes of a file cannot be
	// read back to a valid Random Index Pack.
	ErrNoRIP = errors.New("mxfcore: random index pack not found")

	// ErrBadRIPLength is returned when the RIP's own trailing length field
	// does not match its actual KLV size.
	ErrBadRIPLength = errors.New("mxfcore: random index pack length mismatch")
)

// Errors surfaced by the index table engine.
var (
	// ErrIndexSegmentTooLarge is returned when adding an entry would push a
	// segment's serialised size past the 65,535-byte local-set length cap.
	ErrIndexSegmentTooLarge = errors.New("mxfcore: index segment exceeds maximum size")

	// ErrUnknownKeyFrameLocation is returned by Lookup when a KeyFrameOffset
	// would escape its IndexSegment.
	ErrUnknownKeyFrameLocation = errors.New("mxfcore: key frame location unknown")

	// ErrNoIndexEntry is returned by Lookup when no segment covers an edit
	// unit and no preceding segment exists either.
	ErrNoIndexEntry = errors.New("mxfcore: no index entry for edit unit")

	// ErrMalformedIndexSegment flags a segment skipped during parse due to a
	// malformed DeltaEntryArray or IndexEntryArray.
	ErrMalformedIndexSegment = errors.New("mxfcore: malformed index segment")
)

// Errors surfaced by the wrapping pipeline (Generic Container / Body writer).
var (
	// ErrNoWrappingOption is returned when no essence sub-parser offers a
	// wrapping option compatible with the requested Operational Pattern.
	ErrNoWrappingOption = errors.New("mxfcore: no compatible wrapping option")

	// ErrEditRateMismatch is returned when ganged inputs declare different
	// edit rates.
	ErrEditRateMismatch = errors.New("mxfcore: edit rate mismatch across ganged inputs")

	// ErrOPAtomMultipleContainers is returned when OP-Atom output would
	// require more than one essence container per file.
	ErrOPAtomMultipleContainers = errors.New("mxfcore: OP-Atom requires exactly one essence container")

	// ErrTimecodeOverflow is returned when a timecode-to-frames conversion
	// would not fit in 32 bits after reduction.
	ErrTimecodeOverflow = errors.New("mxfcore: timecode conversion overflow")
)

// AtOffset wraps err with the "0xHHHHHHHH in <stream>" location string
// every surfaced structural/semantic error carries.
func AtOffset(offset int64, stream string, err error) error {
	return fmt.Errorf("0x%08X in %s: %w", offset, stream, err)
}
