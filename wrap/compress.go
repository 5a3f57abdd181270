// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package wrap

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/mxfgo/mxfcore"
)

// DataCompressor compresses Generic Container edit units for a Data
// essence track before they are queued to the Body writer. It is
// never invoked for Picture or Sound essence: compressing already
// codec'd frame or sample data works against the codec, and this
// library only offers the hook for opaque Data payloads.
type DataCompressor interface {
	Compress(data []byte) ([]byte, error)
}

// zstdEncoderPool pools encoders the same way the reference codec
// package does: klauspost/compress/zstd's encoder is explicitly
// designed for reuse after a warmup.
var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("wrap: failed to create zstd encoder for pool: %v", err))
		}
		return enc
	},
}

// ZstdDataCompressor compresses each edit unit independently with
// Zstandard. Each compressed unit is self-contained (EncodeAll resets
// no shared state), since the Generic Container has no framing for a
// streaming decompressor to pick back up from.
type ZstdDataCompressor struct{}

// NewZstdDataCompressor returns a ready-to-use ZstdDataCompressor.
func NewZstdDataCompressor() ZstdDataCompressor { return ZstdDataCompressor{} }

// Compress returns data Zstd-compressed, or (nil, nil) for an empty
// input.
func (ZstdDataCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	enc := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

// CompressingSource wraps an mxfcore.EssenceSource, compressing every
// chunk it hands out with Codec before the Body writer queues it as a
// Generic Container element. Compression changes each edit unit's
// byte length, so a CompressingSource is always reported as VBR
// regardless of the wrapped source's own CBR/VBR nature: the index
// table needs a per-unit length once sizes vary.
type CompressingSource struct {
	Source mxfcore.EssenceSource
	Codec  DataCompressor
}

// NextChunk reads one chunk from Source and compresses it with Codec.
// A ChunkEmpty or ChunkEnd state passes through uncompressed (there is
// no data to transform).
func (s *CompressingSource) NextChunk(min, max int) ([]byte, mxfcore.ChunkState, error) {
	data, state, err := s.Source.NextChunk(min, max)
	if err != nil || state != mxfcore.ChunkReady {
		return data, state, err
	}
	out, err := s.Codec.Compress(data)
	if err != nil {
		return nil, mxfcore.ChunkReady, fmt.Errorf("wrap: compressing data essence chunk: %w", err)
	}
	return out, mxfcore.ChunkReady, nil
}

// BytesPerEditUnit always reports 0 (VBR): compression removes any
// fixed per-unit size guarantee the wrapped source had.
func (s *CompressingSource) BytesPerEditUnit() uint32 { return 0 }

// CanIndex defers to Source; compression does not change whether the
// underlying essence can be indexed at all.
func (s *CompressingSource) CanIndex() bool { return s.Source.CanIndex() }

// EnableVBRIndexMode always reports true: every compressed edit unit
// needs its own index entry.
func (s *CompressingSource) EnableVBRIndexMode() bool { return true }

// EditRate defers to Source.
func (s *CompressingSource) EditRate() mxfcore.Rational { return s.Source.EditRate() }

// PrechargeSize defers to Source.
func (s *CompressingSource) PrechargeSize() int64 { return s.Source.PrechargeSize() }
