// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package wrap implements the wrapping orchestrator: essence
// sub-parser identification, wrapping-option selection, Material/File
// Package graph construction and the end-to-end Wrap procedure.
package wrap

import (
	mxfcore "github.com/mxfgo/mxfcore"
)

// OperationalPattern is the target structural pattern Wrap builds
// toward.
type OperationalPattern int

// The two Operational Patterns this library builds.
const (
	OPAtom OperationalPattern = iota
	OP1a
)

// EssenceStreamDescriptor is what one essence sub-parser reports for
// one logical stream within an input file: enough to build a File
// Descriptor skeleton and pick a wrapping option.
type EssenceStreamDescriptor struct {
	StreamID    int
	Description string

	// DescriptorClass names the dict.ClassDef the File Descriptor
	// skeleton should be built from (e.g. "CDCIEssenceDescriptor",
	// "WaveAudioDescriptor").
	DescriptorClass string

	EditRate mxfcore.Rational
	ItemType mxfcore.ItemType

	// SampleRate and essence-specific fields a caller may further
	// populate on the built Descriptor object after Wrap returns it.
	SampleRate mxfcore.Rational
}

// WrappingOption is one way a sub-parser's stream can be carried in a
// Generic Container: element type bytes, allowed wrap type, whether
// the source can be indexed CBR/VBR, and any other stream it must be
// ganged with.
type WrappingOption struct {
	Name string

	ElementType uint8
	CP          bool

	WrapType mxfcore.WrapType

	CBRCapable bool
	VBRCapable bool

	// CompanionStreamIDs names other EssenceStreamDescriptor.StreamID
	// values this option requires to be wrapped in the same container
	// (e.g. a MultipleDescriptor FrameGroup).
	CompanionStreamIDs []int

	// AllowedPatterns restricts which OperationalPattern this option
	// supports; empty means "any".
	AllowedPatterns []OperationalPattern
}

func (w WrappingOption) supportsPattern(op OperationalPattern) bool {
	if len(w.AllowedPatterns) == 0 {
		return true
	}
	for _, p := range w.AllowedPatterns {
		if p == op {
			return true
		}
	}
	return false
}

// EssenceSubParser identifies an essence format and reports its
// streams and wrapping options. Each concrete
// essence format (CDCI picture, PCM sound, ...) implements this
// against a sample of the input's leading bytes.
type EssenceSubParser interface {
	// Identify reports whether sample (the input's leading bytes)
	// matches this parser's format.
	Identify(sample []byte) bool

	// Streams returns the logical streams sample's format carries and
	// the wrapping options available for each, in the same order.
	Streams(sample []byte) ([]EssenceStreamDescriptor, [][]WrappingOption, error)
}

// SelectWrappingOption picks the first option among opts that
// supports op — the first that matches the requested OP — or the
// option at ordinal if ordinal >= 0 (the caller-forced case). It
// returns false if nothing matches.
func SelectWrappingOption(opts []WrappingOption, op OperationalPattern, ordinal int) (WrappingOption, bool) {
	if ordinal >= 0 {
		if ordinal < len(opts) {
			return opts[ordinal], true
		}
		return WrappingOption{}, false
	}
	for _, o := range opts {
		if o.supportsPattern(op) {
			return o, true
		}
	}
	return WrappingOption{}, false
}

// IdentifyParser returns the first parser among parsers whose
// Identify matches sample.
func IdentifyParser(parsers []EssenceSubParser, sample []byte) (EssenceSubParser, bool) {
	for _, p := range parsers {
		if p.Identify(sample) {
			return p, true
		}
	}
	return nil, false
}
