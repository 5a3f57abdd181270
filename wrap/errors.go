package wrap

import "errors"

// Errors surfaced while selecting wrapping options or building the
// package graph.
var (
	// ErrNoWrappingOption is returned when no sub-parser's
	// WrappingOption supports the requested Operational Pattern, or
	// a "-w=N" ordinal is out of range.
	ErrNoWrappingOption = errors.New("wrap: no matching wrapping option")

	// ErrNoEssenceParser is returned when no registered
	// EssenceSubParser identifies an input's leading bytes.
	ErrNoEssenceParser = errors.New("wrap: no essence sub-parser identified the input")

	// ErrTimecodeOverflow is returned when a position conversion's
	// reduced edit-rate terms would not fit the 32-bit guard.
	ErrTimecodeOverflow = errors.New("wrap: timecode conversion overflow")

	// ErrUnlinkedSourceClip is returned when MakeLink cannot find a
	// File Package track matching a SourceClip's target UMID+TrackID.
	ErrUnlinkedSourceClip = errors.New("wrap: source clip has no matching package/track")

	// ErrMissingDescriptorClass names a bootstrap ClassDef a
	// sub-parser's EssenceStreamDescriptor named but the Dictionary
	// does not define.
	ErrMissingDescriptorClass = errors.New("wrap: unknown descriptor class")
)
