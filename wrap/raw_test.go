package wrap

import (
	"testing"

	"github.com/mxfgo/mxfcore"
)

func TestRawParserIdentifyAndStreams(t *testing.T) {
	p := &RawParser{
		DescriptorClass: "CDCIEssenceDescriptor",
		ItemType:        mxfcore.ItemTypePicture,
		EditRate:        mxfcore.Rational{Numerator: 25, Denominator: 1},
		Option:          WrappingOption{Name: "cdci-frame-wrapped"},
	}
	if p.Identify(nil) {
		t.Errorf("Identify(nil) = true, want false (empty sample)")
	}
	if !p.Identify([]byte{1}) {
		t.Errorf("Identify(non-empty) = false, want true (catch-all)")
	}

	streams, options, err := p.Streams([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Streams: %v", err)
	}
	if len(streams) != 1 || len(options) != 1 || len(options[0]) != 1 {
		t.Fatalf("Streams() = %v, %v want a single stream/option", streams, options)
	}
	if streams[0].DescriptorClass != "CDCIEssenceDescriptor" {
		t.Errorf("stream DescriptorClass = %q, want CDCIEssenceDescriptor", streams[0].DescriptorClass)
	}
	if options[0][0].Name != "cdci-frame-wrapped" {
		t.Errorf("option Name = %q, want cdci-frame-wrapped", options[0][0].Name)
	}
}

func TestByteSliceSourceChunksAndEnds(t *testing.T) {
	data := make([]byte, 10)
	for i := range data {
		data[i] = byte(i)
	}
	src := &ByteSliceSource{Data: data, ChunkSize: 4, Rate: mxfcore.Rational{Numerator: 25, Denominator: 1}}

	var chunks [][]byte
	for {
		chunk, state, err := src.NextChunk(0, 0)
		if err != nil {
			t.Fatalf("NextChunk: %v", err)
		}
		if state == mxfcore.ChunkEnd {
			break
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3 (4+4+2)", len(chunks))
	}
	if len(chunks[2]) != 2 {
		t.Errorf("final chunk len = %d, want 2 (short tail)", len(chunks[2]))
	}
	if chunks[0][0] != 0 || chunks[1][0] != 4 || chunks[2][0] != 8 {
		t.Errorf("chunk contents out of order: %v", chunks)
	}
}

func TestByteSliceSourceMetadata(t *testing.T) {
	src := &ByteSliceSource{ChunkSize: 1920, Rate: mxfcore.Rational{Numerator: 48000, Denominator: 1}}
	if src.BytesPerEditUnit() != 1920 {
		t.Errorf("BytesPerEditUnit() = %d, want 1920", src.BytesPerEditUnit())
	}
	if !src.CanIndex() {
		t.Errorf("CanIndex() = false, want true")
	}
	if src.EnableVBRIndexMode() {
		t.Errorf("EnableVBRIndexMode() = true, want false (CBR only)")
	}
	if src.EditRate() != src.Rate {
		t.Errorf("EditRate() = %v, want %v", src.EditRate(), src.Rate)
	}
	if src.PrechargeSize() != 0 {
		t.Errorf("PrechargeSize() = %d, want 0", src.PrechargeSize())
	}
}
