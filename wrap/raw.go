// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package wrap

import "github.com/mxfgo/mxfcore"

// RawParser is the fallback EssenceSubParser: it treats its whole
// input sample as one already-essence-only stream with no
// format-specific framing (e.g. a raw CDCI frame dump, or headerless
// PCM), the common case when the caller has pre-extracted essence
// rather than handing Wrap a container this library would need its own
// demuxer for. Identify accepts any non-empty sample, so RawParser
// should be registered last among any Orchestrator's parser list.
type RawParser struct {
	DescriptorClass string
	ItemType        mxfcore.ItemType
	EditRate        mxfcore.Rational
	Option          WrappingOption
}

// Identify matches any non-empty sample; RawParser is the catch-all.
func (p *RawParser) Identify(sample []byte) bool { return len(sample) > 0 }

// Streams reports a single stream spanning the whole sample, wrapped
// with p.Option.
func (p *RawParser) Streams(sample []byte) ([]EssenceStreamDescriptor, [][]WrappingOption, error) {
	desc := EssenceStreamDescriptor{
		StreamID:        0,
		Description:     "raw essence",
		DescriptorClass: p.DescriptorClass,
		EditRate:        p.EditRate,
		ItemType:        p.ItemType,
		SampleRate:      p.EditRate,
	}
	return []EssenceStreamDescriptor{desc}, [][]WrappingOption{{p.Option}}, nil
}

// ByteSliceSource is an mxfcore.EssenceSource over an in-memory
// buffer, handing out fixed-size edit units until the buffer is
// exhausted. It never reports ChunkEmpty: the whole source is already
// resident, so there is nothing to cooperatively wait on.
type ByteSliceSource struct {
	Data      []byte
	ChunkSize int
	Rate      mxfcore.Rational

	offset int
}

// NextChunk returns the next ChunkSize-byte slice of Data (the final
// chunk may be shorter), or ChunkEnd once Data is exhausted.
func (s *ByteSliceSource) NextChunk(min, max int) ([]byte, mxfcore.ChunkState, error) {
	if s.offset >= len(s.Data) {
		return nil, mxfcore.ChunkEnd, nil
	}
	end := s.offset + s.ChunkSize
	if end > len(s.Data) {
		end = len(s.Data)
	}
	chunk := s.Data[s.offset:end]
	s.offset = end
	return chunk, mxfcore.ChunkReady, nil
}

// BytesPerEditUnit reports the fixed chunk size (CBR).
func (s *ByteSliceSource) BytesPerEditUnit() uint32 { return uint32(s.ChunkSize) }

// CanIndex always reports true: a resident buffer can always be indexed.
func (s *ByteSliceSource) CanIndex() bool { return true }

// EnableVBRIndexMode refuses: a fixed ChunkSize buffer is CBR by
// construction.
func (s *ByteSliceSource) EnableVBRIndexMode() bool { return false }

// EditRate returns the configured edit rate.
func (s *ByteSliceSource) EditRate() mxfcore.Rational { return s.Rate }

// PrechargeSize is always zero for a raw buffer source.
func (s *ByteSliceSource) PrechargeSize() int64 { return 0 }
