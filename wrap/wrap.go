// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package wrap

import (
	"github.com/pkg/errors"

	"github.com/mxfgo/mxfcore"
	"github.com/mxfgo/mxfcore/dict"
	"github.com/mxfgo/mxfcore/mdobject"
)

// WrapOptions carries every Wrap input: the requested Operational
// Pattern, a caller-forced wrapping-option ordinal (or -1 for
// first-match selection), partitioning/indexing policy, and product
// identity to stamp into Identification.
type WrapOptions struct {
	Pattern OperationalPattern

	// OptionOrdinal forces SelectWrappingOption's "-w=N" path; -1
	// means pick the first option supporting Pattern. Wrap treats 0 the
	// same as -1, so ordinal 0 is never forced.
	OptionOrdinal int

	KAGSize       uint32
	ForceLongFill bool
	LegacyFill    bool

	// UpdateHeader writes the header partition first as Open
	// Incomplete with HeaderPadding bytes of reserved filler, then
	// reopens it once the footer is composed to patch in the footer
	// offset and flip it to Closed Complete, leaving the file's total
	// length unchanged.
	UpdateHeader bool
	// HeaderPadding is the minimum filler, in bytes, reserved inside
	// the header partition's metadata region for the later rewrite.
	HeaderPadding int

	Partition      mxfcore.BodyPartitionPolicy
	DurationLimit  int64
	SizeLimit      int64
	Sharing        mxfcore.SharingPolicy

	CompanyName    string
	ProductName    string
	ProductVersion string

	// EditRateOverride, if non-zero, replaces every stream's
	// self-reported edit rate.
	EditRateOverride mxfcore.Rational

	// CompressData opts every Data essence track's source into
	// Zstandard compression before it reaches the Generic Container
	// It never applies to Picture or Sound tracks.
	CompressData bool
}

// Orchestrator drives the end-to-end Wrap procedure over a Dictionary
// that already carries the bootstrap class hierarchy.
type Orchestrator struct {
	D       *dict.Dictionary
	Parsers []EssenceSubParser
}

// NewOrchestrator returns an Orchestrator over d (which must already
// have had dict.RegisterBootstrap applied) using parsers to identify
// and read input essence.
func NewOrchestrator(d *dict.Dictionary, parsers []EssenceSubParser) *Orchestrator {
	return &Orchestrator{D: d, Parsers: parsers}
}

// Result is what one Wrap run produces: the finished package graph,
// one StagedPartition per partition emitted (Header, each Body
// boundary, Footer), and the GenerationUID stamped on this run.
type Result struct {
	Graph        *PackageGraph
	Partitions   []*mxfcore.StagedPartition
	GenerationID mxfcore.UUID
}

// Wrap runs the six-step wrapping procedure for every sample
// supplied, one EssenceSource per sample, and returns the finished
// partitions ready for concatenation to disk.
//
//  1. identify an EssenceSubParser for each sample and collect its
//     streams/wrapping options;
//  2. select one WrappingOption per stream (ordinal or first-match);
//  3. build the Material/File/Source Package graph;
//  4. special-case OP-Atom (single File Package, OP1a header label
//     until the final rewrite);
//  5. drive the Body writer to completion over every source, then set
//     each File Package Sequence's Duration (Origin is not written);
//  6. stamp Identification/GenerationUID and rewrite the header with
//     final byte counts (and, for OP-Atom, the downgraded label).
func (o *Orchestrator) Wrap(samples [][]byte, sources []mxfcore.EssenceSource, opts WrapOptions) (*Result, error) {
	if len(samples) != len(sources) {
		return nil, errors.New("wrap: samples and sources must pair up 1:1")
	}
	if opts.OptionOrdinal == 0 {
		opts.OptionOrdinal = -1
	}

	// The graph is always built OP1a-labelled, even when the caller
	// wants OP-Atom: OP-Atom relabels Preface only after the footer is
	// composed below, so an in-progress wrap always parses as a valid
	// OP1a file.
	graph, err := NewPackageGraph(o.D, opts.CompanyName, opts.ProductName, opts.ProductVersion, OP1a)
	if err != nil {
		return nil, err
	}

	gc := mxfcore.NewGCWriter()
	index := mxfcore.NewIndexTable()
	body := mxfcore.NewBodyWriter(gc, index)
	body.Policy = opts.Partition
	body.DurationLimit = opts.DurationLimit
	body.SizeLimit = opts.SizeLimit
	body.Sharing = opts.Sharing
	body.KAGSize = opts.KAGSize
	body.ForceLongFill = opts.ForceLongFill
	body.LegacyFill = opts.LegacyFill

	type boundStream struct {
		source mxfcore.EssenceSource
		gc     *mxfcore.GCStream
		track  *mdobject.MDObject
		desc   EssenceStreamDescriptor
	}
	var bound []boundStream

	for i, sample := range samples {
		// Step 1: identify.
		parser, ok := IdentifyParser(o.Parsers, sample)
		if !ok {
			return nil, errors.Wrapf(ErrNoEssenceParser, "sample %d", i)
		}
		streams, options, err := parser.Streams(sample)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}

		// Step 2: select one WrappingOption per stream before building
		// anything, so companion-stream grouping below can see every
		// option's CompanionStreamIDs up front.
		type picked struct {
			desc EssenceStreamDescriptor
			wo   WrappingOption
		}
		picks := make([]picked, len(streams))
		for j, desc := range streams {
			if opts.EditRateOverride != (mxfcore.Rational{}) {
				desc.EditRate = opts.EditRateOverride
			}
			wo, ok := SelectWrappingOption(options[j], opts.Pattern, opts.OptionOrdinal)
			if !ok {
				return nil, errors.Wrapf(ErrNoWrappingOption, "sample %d stream %d", i, j)
			}
			picks[j] = picked{desc: desc, wo: wo}
		}

		// Step 3: package graph. A WrappingOption naming companion
		// StreamIDs shares one File Package (and so one MultipleDescriptor
		// once two or more sub-descriptors exist) across the whole group
		// instead of building one File Package per stream.
		claimed := make([]bool, len(picks))
		for j := range picks {
			if claimed[j] {
				continue
			}
			group := []int{j}
			for _, sid := range picks[j].wo.CompanionStreamIDs {
				for k, p := range picks {
					if k != j && !claimed[k] && p.desc.StreamID == sid {
						group = append(group, k)
					}
				}
			}
			for _, idx := range group {
				claimed[idx] = true
			}

			trackIDBase := uint32(len(bound) + 1)
			var fileTracks []*mdobject.MDObject
			if len(group) == 1 {
				sp, err := graph.AddStream(picks[j].desc, trackIDBase, picks[j].wo)
				if err != nil {
					return nil, err
				}
				tracks, ok := sp.ChildByName("Tracks")
				if !ok || len(tracks.Children) == 0 {
					return nil, errors.New("wrap: package graph built no Track for stream")
				}
				fileTracks = []*mdobject.MDObject{tracks.Children[len(tracks.Children)-1].Target}
			} else {
				descs := make([]EssenceStreamDescriptor, len(group))
				trackIDs := make([]uint32, len(group))
				for gi, idx := range group {
					descs[gi] = picks[idx].desc
					trackIDs[gi] = trackIDBase + uint32(gi)
				}
				var err error
				_, fileTracks, err = graph.AddStreamGroup(descs, trackIDs)
				if err != nil {
					return nil, err
				}
			}

			for gi, idx := range group {
				desc := picks[idx].desc
				wo := picks[idx].wo
				track := fileTracks[gi]
				if track == nil {
					return nil, errors.New("wrap: package graph's Track reference is unresolved")
				}

				source := sources[i]
				if opts.CompressData && desc.ItemType == mxfcore.ItemTypeData {
					source = &CompressingSource{Source: source, Codec: NewZstdDataCompressor()}
				}

				stream := registerGCStream(gc, desc.ItemType, wo)
				body.Streams = append(body.Streams, &mxfcore.BodyStream{
					Source:        source,
					WrapType:      wo.WrapType,
					IndexTypeMask: body.Sharing.DerivePlacement(),
				})

				bound = append(bound, boundStream{
					source: source,
					gc:     stream,
					track:  track,
					desc:   desc,
				})
			}
		}
	}

	// Step 4: OP-Atom carries exactly one essence container and one
	// primary File Package; the relabel itself happens only after the
	// footer is composed, near the end of this function.
	if opts.Pattern == OPAtom && len(graph.FilePackages) > 1 {
		return nil, errors.New("wrap: OP-Atom accepts exactly one essence stream")
	}

	// Step 5: drive the Body writer to completion, pulling chunks from
	// every source in write order until each reports ChunkEnd, and
	// track each stream's total edit-unit count for the Duration
	// update below.
	editUnits := make([]int64, len(bound))
	cpBytes := make([]int64, len(bound))
	constantSize := make([]bool, len(bound))
	for i := range bound {
		constantSize[i] = true
	}
	var essence []byte
	done := make([]bool, len(bound))
	remaining := len(bound)
	for remaining > 0 {
		anyQueued := false
		for i, b := range bound {
			if done[i] {
				continue
			}
			data, state, err := b.source.NextChunk(0, 0)
			switch state {
			case mxfcore.ChunkEnd:
				done[i] = true
				remaining--
				continue
			case mxfcore.ChunkEmpty:
				continue
			}
			if err != nil {
				return nil, errors.Wrapf(err, "stream %d", i)
			}
			gc.QueueChunk(b.gc, data)
			if editUnits[i] == 0 {
				cpBytes[i] = int64(len(data))
			} else if int64(len(data)) != cpBytes[i] {
				constantSize[i] = false
			}
			editUnits[i]++
			anyQueued = true
			body.RecordWrite(len(data), 1)
		}
		if anyQueued {
			essence = append(essence, gc.StartNewCP()...)
		}
	}

	// A Generic Container interleaves every stream's elements into one
	// shared byte sequence, so only a CBR stream's per-edit-unit offset
	// is cheap to compute after the fact; a genuinely variable stream
	// would need its StartNewCP-time offsets recorded as they're
	// written, which no caller of this orchestrator has asked for yet.
	var indexSegments []byte
	for i, b := range bound {
		if editUnits[i] == 0 || !constantSize[i] {
			continue
		}
		seg := &mxfcore.IndexSegment{
			IndexEditRate:     b.desc.EditRate,
			IndexDuration:     editUnits[i],
			EditUnitByteCount: uint32(cpBytes[i]),
			IndexSID:          uint32(i + 1),
			BodySID:           1,
		}
		index.AddSegment(seg)
		indexSegments = append(indexSegments, mxfcore.WriteKLV(nil, mxfcore.IndexTableSegmentKeyV11, mxfcore.EncodeIndexTableSegment(seg))...)
	}

	for i, b := range bound {
		if seq, ok := trackSequence(b.track); ok {
			if err := setField(seq, "Duration", editUnits[i]); err != nil {
				return nil, err
			}
		}
	}

	// Step 6: finalize identity and stamp the generation; the
	// Header/Body/Footer composition and the OP-Atom/header-rewrite
	// dance follow once every Duration update above has landed.
	result := &Result{Graph: graph, GenerationID: mxfcore.NewUUID()}
	mdobject.UpdateGenerations(graph.Preface, result.GenerationID)

	primer := o.D.StaticPrimer()
	if primer == nil {
		primer = mxfcore.NewPrimer()
	}

	fillKey := mxfcore.KLVFillKeyV2
	if opts.LegacyFill {
		fillKey = mxfcore.KLVFillKeyV1
	}

	// serializeHeader re-derives the header metadata region (Preface
	// tree plus any reserved HeaderPadding filler) from the graph's
	// current state; it is called twice when the header gets rewritten
	// below, once before and once after Preface changes.
	serializeHeader := func() ([]byte, []byte, error) {
		h, err := mdobject.Serialize(graph.Preface, primer)
		if err != nil {
			return nil, nil, err
		}
		if opts.HeaderPadding > 0 {
			h = mxfcore.WriteKLVFill(h, fillKey, opts.HeaderPadding, opts.ForceLongFill)
		}
		return h, mxfcore.EncodePrimerPack(primer), nil
	}

	header, primerBytes, err := serializeHeader()
	if err != nil {
		return nil, err
	}

	ecLabels := make([]mxfcore.UL, 0, len(bound))

	// inProgressLabel is what the header and body partitions carry
	// while the file is still being wrapped: OP1a, even for a
	// requested OP-Atom target, so a reader opening the file before
	// the footer is written still sees a valid OP1a structure. The
	// footer, written last with full knowledge, carries the real
	// target pattern directly.
	inProgressLabel := opLabel(OP1a)

	headerStatus := mxfcore.StatusClosedComplete
	if opts.UpdateHeader {
		headerStatus = mxfcore.StatusOpenIncomplete
	}

	headerPartition := &mxfcore.Partition{
		Item:               mxfcore.PartitionHeader,
		Status:             headerStatus,
		KAGSize:            opts.KAGSize,
		OperationalPattern: inProgressLabel,
		EssenceContainers:  ecLabels,
	}
	staged := body.ComposePartition(headerPartition, 0, primerBytes, header, nil, nil)
	result.Partitions = append(result.Partitions, staged)
	pos := int64(len(staged.Bytes))

	if len(essence) > 0 {
		bodyPartition := &mxfcore.Partition{
			Item:               mxfcore.PartitionBody,
			Status:             mxfcore.StatusClosedComplete,
			KAGSize:            opts.KAGSize,
			ThisPartition:      uint64(pos),
			PreviousPartition:  0,
			OperationalPattern: inProgressLabel,
			EssenceContainers:  ecLabels,
		}
		staged = body.ComposePartition(bodyPartition, pos, nil, nil, indexSegments, essence)
		result.Partitions = append(result.Partitions, staged)
		pos += int64(len(staged.Bytes))
	}

	footerPos := pos
	footer := &mxfcore.Partition{
		Item:               mxfcore.PartitionFooter,
		Status:             mxfcore.StatusClosedComplete,
		KAGSize:            opts.KAGSize,
		ThisPartition:      uint64(footerPos),
		FooterPartition:    uint64(footerPos),
		OperationalPattern: opLabel(opts.Pattern),
		EssenceContainers:  ecLabels,
	}
	staged = body.ComposePartition(footer, footerPos, nil, nil, nil, nil)
	result.Partitions = append(result.Partitions, staged)

	// Header rewrite: patch the footer offset into the header now that
	// it is known, relabel Preface to OP-Atom if that was the target
	// (only now, with the footer already committed), and flip
	// Open-Incomplete to Closed-Complete. Reusing the same
	// HeaderPadding reservation keeps the header region — and so the
	// file's total length — exactly as it was on the first pass.
	if opts.Pattern == OPAtom {
		if err := graph.DowngradeToOPAtom(graph.FilePackages[0]); err != nil {
			return nil, err
		}
	}
	header, primerBytes, err = serializeHeader()
	if err != nil {
		return nil, err
	}
	headerPartition.OperationalPattern = opLabel(opts.Pattern)
	headerPartition.FooterPartition = uint64(footerPos)
	headerPartition.Status = mxfcore.StatusClosedComplete
	result.Partitions[0] = body.ComposePartition(headerPartition, 0, primerBytes, header, nil, nil)

	return result, nil
}

// trackSequence returns the Sequence a Track strongly references, by
// way of its SequenceRef item's Target.
func trackSequence(track *mdobject.MDObject) (*mdobject.MDObject, bool) {
	ref, ok := track.ChildByName("SequenceRef")
	if !ok || ref.Target == nil {
		return nil, false
	}
	return ref.Target, true
}

// registerGCStream allocates the right GCWriter element family for
// desc's item type, honouring wo's CP-compatibility flag.
func registerGCStream(gc *mxfcore.GCWriter, item mxfcore.ItemType, wo WrappingOption) *mxfcore.GCStream {
	switch item {
	case mxfcore.ItemTypePicture:
		return gc.AddPictureElement(wo.CP, wo.ElementType)
	case mxfcore.ItemTypeSound:
		return gc.AddSoundElement(wo.CP, wo.ElementType)
	case mxfcore.ItemTypeData:
		return gc.AddDataElement(wo.CP, wo.ElementType)
	case mxfcore.ItemTypeCompound:
		return gc.AddCompoundElement(wo.CP, wo.ElementType)
	default:
		return gc.AddSystemElement(wo.CP, wo.ElementType)
	}
}
