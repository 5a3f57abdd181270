package wrap

import (
	"errors"
	"testing"

	"github.com/mxfgo/mxfcore"
	"github.com/mxfgo/mxfcore/mdobject"
)

func TestOrchestratorWrapSingleStreamOP1a(t *testing.T) {
	d := bootstrapDict(t)

	parser := &RawParser{
		DescriptorClass: "CDCIEssenceDescriptor",
		ItemType:        mxfcore.ItemTypePicture,
		EditRate:        mxfcore.Rational{Numerator: 25, Denominator: 1},
		Option:          WrappingOption{ElementType: 0x01, CP: true, WrapType: mxfcore.WrapFrame, CBRCapable: true},
	}
	o := NewOrchestrator(d, []EssenceSubParser{parser})

	data := make([]byte, 3*48)
	for i := range data {
		data[i] = byte(i)
	}
	source := &ByteSliceSource{Data: data, ChunkSize: 48, Rate: parser.EditRate}

	result, err := o.Wrap([][]byte{{1}}, []mxfcore.EssenceSource{source}, WrapOptions{
		Pattern:        OP1a,
		OptionOrdinal:  -1,
		CompanyName:    "Acme",
		ProductName:    "Wrapper",
		ProductVersion: "1.0",
	})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if len(result.Partitions) != 3 {
		t.Fatalf("len(Partitions) = %d, want 3 (header/body/footer)", len(result.Partitions))
	}
	if len(result.Graph.FilePackages) != 1 {
		t.Fatalf("len(FilePackages) = %d, want 1", len(result.Graph.FilePackages))
	}
	for i, p := range result.Partitions {
		if len(p.Bytes) == 0 {
			t.Errorf("Partitions[%d].Bytes is empty", i)
		}
	}

	track := result.Graph.FilePackages[0]
	tracks, ok := track.ChildByName("Tracks")
	if !ok || len(tracks.Children) == 0 {
		t.Fatalf("File Package has no Track")
	}
	seq, ok := trackSequence(tracks.Children[0].Target)
	if !ok {
		t.Fatalf("Track has no resolved Sequence")
	}
	dur, err := durationValue(seq)
	if err != nil {
		t.Fatalf("durationValue: %v", err)
	}
	if dur != 3 {
		t.Errorf("Sequence.Duration = %d, want 3 edit units", dur)
	}
}

func TestOrchestratorWrapNoMatchingParserErrors(t *testing.T) {
	d := bootstrapDict(t)
	o := NewOrchestrator(d, nil)
	_, err := o.Wrap([][]byte{{1}}, []mxfcore.EssenceSource{&ByteSliceSource{}}, WrapOptions{})
	if err == nil {
		t.Errorf("Wrap(no parsers) returned nil error")
	}
}

func TestOrchestratorWrapMismatchedSamplesAndSourcesErrors(t *testing.T) {
	d := bootstrapDict(t)
	o := NewOrchestrator(d, nil)
	_, err := o.Wrap([][]byte{{1}, {2}}, []mxfcore.EssenceSource{&ByteSliceSource{}}, WrapOptions{})
	if err == nil {
		t.Errorf("Wrap(mismatched samples/sources) returned nil error")
	}
}

func TestOrchestratorWrapOPAtomSingleStreamSucceeds(t *testing.T) {
	d := bootstrapDict(t)
	parser := &RawParser{
		DescriptorClass: "CDCIEssenceDescriptor",
		ItemType:        mxfcore.ItemTypePicture,
		EditRate:        mxfcore.Rational{Numerator: 25, Denominator: 1},
		Option:          WrappingOption{ElementType: 0x01, CP: true, WrapType: mxfcore.WrapFrame, CBRCapable: true},
	}
	o := NewOrchestrator(d, []EssenceSubParser{parser})
	source := &ByteSliceSource{Data: make([]byte, 2*48), ChunkSize: 48, Rate: parser.EditRate}

	result, err := o.Wrap([][]byte{{1}}, []mxfcore.EssenceSource{source}, WrapOptions{
		Pattern:       OPAtom,
		OptionOrdinal: -1,
	})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if len(result.Graph.FilePackages) != 1 {
		t.Fatalf("len(FilePackages) = %d, want 1", len(result.Graph.FilePackages))
	}
	if len(result.Partitions) != 3 {
		t.Fatalf("len(Partitions) = %d, want 3 (header/body/footer)", len(result.Partitions))
	}

	header := result.Partitions[0].Partition
	footer := result.Partitions[len(result.Partitions)-1].Partition
	if header.OperationalPattern != opAtomLabel {
		t.Errorf("header.OperationalPattern = %v, want OP-Atom label", header.OperationalPattern)
	}
	if footer.OperationalPattern != opAtomLabel {
		t.Errorf("footer.OperationalPattern = %v, want OP-Atom label", footer.OperationalPattern)
	}
	if header.FooterPartition != footer.ThisPartition {
		t.Errorf("header.FooterPartition = %d, want %d (footer's own offset)", header.FooterPartition, footer.ThisPartition)
	}
	if header.Status != mxfcore.StatusClosedComplete {
		t.Errorf("header.Status = %v, want ClosedComplete", header.Status)
	}

	opItem, ok := result.Graph.Preface.ChildByName("OperationalPattern")
	if !ok {
		t.Fatalf("Preface missing OperationalPattern after an OP-Atom wrap")
	}
	var got mxfcore.UL
	copy(got[:], opItem.Value)
	if got != opAtomLabel {
		t.Errorf("Preface.OperationalPattern = %v, want OP-Atom label", got)
	}
}

func TestOrchestratorWrapUpdateHeaderRewritesInPlace(t *testing.T) {
	d := bootstrapDict(t)
	parser := &RawParser{
		DescriptorClass: "CDCIEssenceDescriptor",
		ItemType:        mxfcore.ItemTypePicture,
		EditRate:        mxfcore.Rational{Numerator: 25, Denominator: 1},
		Option:          WrappingOption{ElementType: 0x01, CP: true, WrapType: mxfcore.WrapFrame, CBRCapable: true},
	}
	o := NewOrchestrator(d, []EssenceSubParser{parser})
	source := &ByteSliceSource{Data: make([]byte, 3*48), ChunkSize: 48, Rate: parser.EditRate}

	result, err := o.Wrap([][]byte{{1}}, []mxfcore.EssenceSource{source}, WrapOptions{
		Pattern:       OP1a,
		OptionOrdinal: -1,
		UpdateHeader:  true,
		HeaderPadding: 1024,
	})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	header := result.Partitions[0]
	footer := result.Partitions[len(result.Partitions)-1].Partition
	if header.Partition.Status != mxfcore.StatusClosedComplete {
		t.Errorf("header.Status = %v, want ClosedComplete after the footer-time rewrite", header.Partition.Status)
	}
	if header.Partition.FooterPartition != footer.ThisPartition {
		t.Errorf("header.FooterPartition = %d, want %d", header.Partition.FooterPartition, footer.ThisPartition)
	}

	bodyPos := int64(len(header.Bytes))
	if len(result.Partitions) == 3 {
		bodyPos += int64(len(result.Partitions[1].Bytes))
	}
	if int64(footer.ThisPartition) != bodyPos {
		t.Errorf("footer.ThisPartition = %d, want %d (sum of header+body byte lengths)", footer.ThisPartition, bodyPos)
	}
}

func TestOrchestratorWrapGroupsCompanionStreams(t *testing.T) {
	d := bootstrapDict(t)
	parser := &twoStreamParser{
		rate: mxfcore.Rational{Numerator: 25, Denominator: 1},
	}
	o := NewOrchestrator(d, []EssenceSubParser{parser})
	sources := []mxfcore.EssenceSource{
		&ByteSliceSource{Data: make([]byte, 2*48), ChunkSize: 48, Rate: parser.rate},
	}

	result, err := o.Wrap([][]byte{{1}}, sources, WrapOptions{Pattern: OP1a, OptionOrdinal: -1})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if len(result.Graph.FilePackages) != 1 {
		t.Fatalf("len(FilePackages) = %d, want 1 (both streams share one File Package)", len(result.Graph.FilePackages))
	}
	sp := result.Graph.FilePackages[0]
	ref, ok := sp.ChildByName("Descriptor")
	if !ok || ref.Target == nil || ref.Target.Class.Name != "MultipleDescriptor" {
		t.Fatalf("companion-grouped File Package's Descriptor = %v, want a resolved MultipleDescriptor", ref)
	}
	subs, ok := ref.Target.ChildByName("SubDescriptorUIDs")
	if !ok || len(subs.Children) != 2 {
		t.Fatalf("MultipleDescriptor.SubDescriptorUIDs = %v, %v want two entries", subs, ok)
	}
	tracks, ok := sp.ChildByName("Tracks")
	if !ok || len(tracks.Children) != 2 {
		t.Fatalf("companion-grouped File Package has %v Tracks, want two", tracks)
	}
}

// twoStreamParser is a test-only EssenceSubParser reporting two
// streams from a single sample (e.g. a video track with an embedded
// companion track) whose WrappingOptions name each other as
// companions, so Wrap must gang them into one File Package.
type twoStreamParser struct {
	rate mxfcore.Rational
}

func (p *twoStreamParser) Identify(sample []byte) bool { return len(sample) > 0 }

func (p *twoStreamParser) Streams(sample []byte) ([]EssenceStreamDescriptor, [][]WrappingOption, error) {
	descs := []EssenceStreamDescriptor{
		{StreamID: 0, DescriptorClass: "CDCIEssenceDescriptor", ItemType: mxfcore.ItemTypePicture, EditRate: p.rate, SampleRate: p.rate},
		{StreamID: 1, DescriptorClass: "WaveAudioDescriptor", ItemType: mxfcore.ItemTypeSound, EditRate: p.rate, SampleRate: p.rate},
	}
	opts := [][]WrappingOption{
		{{ElementType: 0x01, CP: true, WrapType: mxfcore.WrapFrame, CompanionStreamIDs: []int{1}}},
		{{ElementType: 0x01, CP: true, WrapType: mxfcore.WrapFrame, CompanionStreamIDs: []int{0}}},
	}
	return descs, opts, nil
}

func TestOrchestratorWrapOPAtomRejectsMultipleStreams(t *testing.T) {
	d := bootstrapDict(t)
	parser := &RawParser{
		DescriptorClass: "CDCIEssenceDescriptor",
		ItemType:        mxfcore.ItemTypePicture,
		EditRate:        mxfcore.Rational{Numerator: 25, Denominator: 1},
		Option:          WrappingOption{ElementType: 0x01, CP: true},
	}
	o := NewOrchestrator(d, []EssenceSubParser{parser})

	samples := [][]byte{{1}, {2}}
	sources := []mxfcore.EssenceSource{
		&ByteSliceSource{Data: make([]byte, 4), ChunkSize: 4, Rate: parser.EditRate},
		&ByteSliceSource{Data: make([]byte, 4), ChunkSize: 4, Rate: parser.EditRate},
	}
	_, err := o.Wrap(samples, sources, WrapOptions{Pattern: OPAtom, OptionOrdinal: -1})
	if err == nil {
		t.Errorf("Wrap(OP-Atom, two streams) returned nil error")
	}
}

// durationValue reads a Sequence's Duration item, typed Length (a
// UInt64-width interpretation), the same way uint32Value reads a
// Track's TrackID.
func durationValue(seq *mdobject.MDObject) (int64, error) {
	child, ok := seq.ChildByName("Duration")
	if !ok {
		return 0, errors.New("wrap test: Sequence has no Duration item set")
	}
	typ := child.Class.ResolvedType()
	v, err := typ.Traits().Read(child.Value)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case uint64:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, errors.New("wrap test: Duration is not an integer")
	}
}
