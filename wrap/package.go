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

// PackageGraph is the Preface-rooted metadata built for one output
// file: a Material Package, one File (Source) Package per wrapped
// essence stream, and the ContentStorage/Identification objects that
// tie them together.
type PackageGraph struct {
	D *dict.Dictionary

	Preface         *mdobject.MDObject
	ContentStorage  *mdobject.MDObject
	Identification  *mdobject.MDObject
	MaterialPackage *mdobject.MDObject

	// FilePackages holds one entry per wrapped stream, in the order
	// streams were added.
	FilePackages []*mdobject.MDObject

	// materialGeneration is shared by every UMID this graph mints, so
	// all Packages describing the same piece of material carry the
	// same first 16 bytes, per SMPTE 330M's material-number convention.
	materialGeneration mxfcore.UUID
}

// NewPackageGraph builds the empty Preface/ContentStorage/
// Identification/MaterialPackage skeleton every Wrap run starts from.
// d must already carry the bootstrap class hierarchy (dict.
// RegisterBootstrap).
func NewPackageGraph(d *dict.Dictionary, companyName, productName, productVersion string, op OperationalPattern) (*PackageGraph, error) {
	g := &PackageGraph{D: d, materialGeneration: mxfcore.NewUUID()}

	preface, err := newByName(d, "Preface")
	if err != nil {
		return nil, err
	}
	stampInstance(preface)
	if err := setLabel(preface, "OperationalPattern", opLabel(op)); err != nil {
		return nil, err
	}
	g.Preface = preface

	storage, err := newByName(d, "ContentStorage")
	if err != nil {
		return nil, err
	}
	stampInstance(storage)
	if err := linkRef(preface, storage, "ContentStorageRef"); err != nil {
		return nil, err
	}
	g.ContentStorage = storage

	ident, err := newByName(d, "Identification")
	if err != nil {
		return nil, err
	}
	stampInstance(ident)
	if err := setUTF16(ident, "CompanyName", companyName); err != nil {
		return nil, err
	}
	if err := setUTF16(ident, "ProductName", productName); err != nil {
		return nil, err
	}
	if err := setUTF16(ident, "VersionString", productVersion); err != nil {
		return nil, err
	}
	if err := linkVectorEntry(preface, "Identifications", ident); err != nil {
		return nil, err
	}
	g.Identification = ident

	mp, err := newByName(d, "MaterialPackage")
	if err != nil {
		return nil, err
	}
	stampInstance(mp)
	if err := setUMID(mp, "PackageUID", mxfcore.NewUMID(g.materialGeneration)); err != nil {
		return nil, err
	}
	if err := linkVectorEntry(storage, "Packages", mp); err != nil {
		return nil, err
	}
	g.MaterialPackage = mp
	if err := linkRef(preface, mp, "PrimaryPackage"); err != nil {
		return nil, err
	}

	return g, nil
}

// AddStream builds one File (Source) Package for desc, wired to a
// matching Track on the Material Package via a SourceClip. Duration
// is left at its zero value; the caller fills it in once the Body
// writer has driven the stream to completion and the true edit-unit
// count is known.
func (g *PackageGraph) AddStream(desc EssenceStreamDescriptor, trackID uint32, wo WrappingOption) (*mdobject.MDObject, error) {
	sp, _, err := g.addStreams([]EssenceStreamDescriptor{desc}, []uint32{trackID})
	return sp, err
}

// AddStreamGroup is AddStream for a set of companion streams that
// must share one File Package and one container, the way a
// FrameGroup gangs multiple streams into one container. It returns
// the shared File Package and, in the same order as descs, each
// stream's own File Package Track — the equivalent of what AddStream's
// caller gets by reading the last child of the single-stream sp.Tracks.
func (g *PackageGraph) AddStreamGroup(descs []EssenceStreamDescriptor, trackIDs []uint32) (*mdobject.MDObject, []*mdobject.MDObject, error) {
	return g.addStreams(descs, trackIDs)
}

// addStreams is the shared construction path behind AddStream and
// AddStreamGroup: one File Package, one Track (File Package side) and
// one mirrored Track (Material Package side) with a linking
// SourceClip per descriptor, and a Descriptor built from every
// descriptor's File Descriptor — collapsed to a single direct
// Descriptor link when there is only one, or combined behind a
// MultipleDescriptor otherwise.
func (g *PackageGraph) addStreams(descs []EssenceStreamDescriptor, trackIDs []uint32) (*mdobject.MDObject, []*mdobject.MDObject, error) {
	if len(descs) == 0 || len(descs) != len(trackIDs) {
		return nil, nil, errors.New("wrap: descs and trackIDs must pair up 1:1 and be non-empty")
	}

	sp, err := newByName(g.D, "SourcePackage")
	if err != nil {
		return nil, nil, err
	}
	stampInstance(sp)
	if err := setUMID(sp, "PackageUID", mxfcore.NewUMID(g.materialGeneration)); err != nil {
		return nil, nil, err
	}
	if err := linkVectorEntry(g.ContentStorage, "Packages", sp); err != nil {
		return nil, nil, err
	}

	fileTracks := make([]*mdobject.MDObject, len(descs))
	descriptors := make([]*mdobject.MDObject, len(descs))

	for i, desc := range descs {
		trackID := trackIDs[i]

		descClass, ok := g.D.ClassByName(desc.DescriptorClass)
		if !ok {
			return nil, nil, errors.Wrapf(ErrMissingDescriptorClass, "%s", desc.DescriptorClass)
		}
		fd := mdobject.NewByClass(descClass)
		stampInstance(fd)
		if err := setUInt32(fd, "LinkedTrackID", trackID); err != nil {
			return nil, nil, err
		}
		if err := setRational(fd, "SampleRate", desc.SampleRate); err != nil {
			return nil, nil, err
		}
		descriptors[i] = fd

		spTrack, spSeq, err := g.buildTrack(trackID, desc.EditRate)
		if err != nil {
			return nil, nil, err
		}
		if err := linkVectorEntry(sp, "Tracks", spTrack); err != nil {
			return nil, nil, err
		}
		clip, err := newByName(g.D, "SourceClip")
		if err != nil {
			return nil, nil, err
		}
		stampInstance(clip)
		if err := linkVectorEntry(spSeq, "StructuralComponents", clip); err != nil {
			return nil, nil, err
		}
		fileTracks[i] = spTrack

		mpTrack, mpSeq, err := g.buildTrack(trackID, desc.EditRate)
		if err != nil {
			return nil, nil, err
		}
		if err := linkVectorEntry(g.MaterialPackage, "Tracks", mpTrack); err != nil {
			return nil, nil, err
		}
		mClip, err := newByName(g.D, "SourceClip")
		if err != nil {
			return nil, nil, err
		}
		stampInstance(mClip)
		if err := setUMID(mClip, "SourcePackageID", mustUMID(sp)); err != nil {
			return nil, nil, err
		}
		if err := setUInt32(mClip, "SourceTrackID", trackID); err != nil {
			return nil, nil, err
		}
		if err := linkVectorEntry(mpSeq, "StructuralComponents", mClip); err != nil {
			return nil, nil, err
		}
	}

	if err := g.attachDescriptor(sp, descriptors); err != nil {
		return nil, nil, err
	}

	g.FilePackages = append(g.FilePackages, sp)
	return sp, fileTracks, nil
}

// attachDescriptor links sp's Descriptor to descriptors' combined
// representation: a lone descriptor is promoted to be the File
// Package's direct Descriptor instead of wrapping it; two or more are
// always wrapped via MultipleDescriptorFor.
func (g *PackageGraph) attachDescriptor(sp *mdobject.MDObject, descriptors []*mdobject.MDObject) error {
	if len(descriptors) == 1 {
		return linkRef(sp, descriptors[0], "Descriptor")
	}
	md, err := g.MultipleDescriptorFor(descriptors)
	if err != nil {
		return err
	}
	return linkRef(sp, md, "Descriptor")
}

// buildTrack constructs one GenericTrack(Track)+Sequence pair with
// the given TrackID and edit rate, returning both so the caller can
// append the Sequence's own StructuralComponents separately.
func (g *PackageGraph) buildTrack(trackID uint32, editRate mxfcore.Rational) (track, seq *mdobject.MDObject, err error) {
	track, err = newByName(g.D, "Track")
	if err != nil {
		return nil, nil, err
	}
	stampInstance(track)
	if err := setUInt32(track, "TrackID", trackID); err != nil {
		return nil, nil, err
	}
	if err := setRational(track, "EditRate", editRate); err != nil {
		return nil, nil, err
	}

	seq, err = newByName(g.D, "Sequence")
	if err != nil {
		return nil, nil, err
	}
	stampInstance(seq)
	if err := linkRef(track, seq, "SequenceRef"); err != nil {
		return nil, nil, err
	}
	return track, seq, nil
}

// MultipleDescriptorFor builds a MultipleDescriptor wrapping each of
// descriptors as a SubDescriptor. Called from attachDescriptor
// whenever a File Package carries two or more essence descriptors; a
// lone descriptor is linked directly instead, so a MultipleDescriptor
// of one never appears in the graph.
func (g *PackageGraph) MultipleDescriptorFor(descriptors []*mdobject.MDObject) (*mdobject.MDObject, error) {
	md, err := newByName(g.D, "MultipleDescriptor")
	if err != nil {
		return nil, err
	}
	stampInstance(md)
	for _, d := range descriptors {
		if err := linkVectorEntry(md, "SubDescriptorUIDs", d); err != nil {
			return nil, err
		}
	}
	return md, nil
}

// MakeLink resolves a SourceClip's declared target (SourcePackageID,
// SourceTrackID) to the File Package Track it names, among the
// packages this graph built. It does not mutate clip; callers that
// need the resolved Track object use the return value directly since
// SourceClip carries no Target reference of its own in this
// dictionary.
func (g *PackageGraph) MakeLink(clip *mdobject.MDObject) (*mdobject.MDObject, error) {
	targetUMID := mustUMID(clip)
	trackIDVal, err := uint32Value(clip, "SourceTrackID")
	if err != nil {
		return nil, err
	}

	for _, sp := range g.FilePackages {
		if mustUMID(sp) != targetUMID {
			continue
		}
		tracks, ok := sp.ChildByName("Tracks")
		if !ok {
			continue
		}
		for _, t := range tracks.Children {
			id, err := uint32Value(t, "TrackID")
			if err == nil && id == trackIDVal {
				return t, nil
			}
		}
	}
	return nil, errors.Wrapf(ErrUnlinkedSourceClip, "umid %x track %d", targetUMID, trackIDVal)
}

// DowngradeToOPAtom relabels the Preface's OperationalPattern to
// OP-Atom, the rest of the graph already being OP1a-shaped: callers
// write an OP1a-labelled header first and relabel only on the final
// rewrite. primaryPackage must be one of g.FilePackages; no File
// Package is removed from the graph.
func (g *PackageGraph) DowngradeToOPAtom(primaryPackage *mdobject.MDObject) error {
	found := false
	for _, sp := range g.FilePackages {
		if sp == primaryPackage {
			found = true
			break
		}
	}
	if !found {
		return errors.New("wrap: primary package is not one of this graph's File Packages")
	}
	return setLabel(g.Preface, "OperationalPattern", opLabel(OPAtom))
}

// opAtomLabel and opOP1aLabel are the SMPTE 377M registered
// Operational Pattern Universal Labels, lifted verbatim from the
// bootstrap dictionary's own OperationalPattern item documentation.
var (
	opAtomLabel = mxfcore.UL{0x06, 0x0E, 0x2B, 0x34, 0x04, 0x01, 0x01, 0x01,
		0x0D, 0x01, 0x02, 0x01, 0x10, 0x00, 0x00, 0x00}
	opOP1aLabel = mxfcore.UL{0x06, 0x0E, 0x2B, 0x34, 0x04, 0x01, 0x01, 0x01,
		0x0D, 0x01, 0x02, 0x01, 0x01, 0x01, 0x00, 0x00}
)

func opLabel(op OperationalPattern) mxfcore.UL {
	if op == OPAtom {
		return opAtomLabel
	}
	return opOP1aLabel
}

// --- small typed-property helpers over mdobject, grounded on the
// Traits Read/Write contract dict/traits.go implements. ---

func newByName(d *dict.Dictionary, name string) (*mdobject.MDObject, error) {
	class, ok := d.ClassByName(name)
	if !ok {
		return nil, errors.Wrapf(dict.ErrUnknownUL, "class %q not in bootstrap dictionary", name)
	}
	return mdobject.NewByClass(class), nil
}

func stampInstance(m *mdobject.MDObject) {
	m.InstanceUID = mxfcore.NewUUID()
}

// setField finds or creates m's child item named field, encodes value
// through that item's bound Traits, and assigns it via SetValue —
// the one path every typed-property setter below goes through.
func setField(m *mdobject.MDObject, field string, value interface{}) error {
	class, ok := m.Class.ChildByName(field)
	if !ok {
		return errors.Errorf("wrap: %s has no %q item", m.Class.Name, field)
	}
	typ := class.ResolvedType()
	if typ == nil || typ.Traits() == nil {
		return errors.Errorf("wrap: %s.%s has no bound Traits", m.Class.Name, field)
	}
	raw, err := typ.Traits().Write(value)
	if err != nil {
		return errors.Wrapf(err, "%s.%s", m.Class.Name, field)
	}

	child, ok := m.ChildByName(field)
	if !ok {
		child = mdobject.NewByClass(class)
		if err := m.AddChild(child, false); err != nil {
			return err
		}
	}
	return child.SetValue(raw)
}

func setUTF16(m *mdobject.MDObject, field, value string) error { return setField(m, field, value) }
func setUInt32(m *mdobject.MDObject, field string, value uint32) error {
	return setField(m, field, int64(value))
}
func setRational(m *mdobject.MDObject, field string, value mxfcore.Rational) error {
	return setField(m, field, value)
}
func setUMID(m *mdobject.MDObject, field string, value mxfcore.UMID) error {
	return setField(m, field, value)
}
func setLabel(m *mdobject.MDObject, field string, value mxfcore.UL) error {
	return setField(m, field, value)
}

// uint32Value reads back field's integer value after Traits.Read.
func uint32Value(m *mdobject.MDObject, field string) (uint32, error) {
	child, ok := m.ChildByName(field)
	if !ok {
		return 0, errors.Errorf("wrap: %s has no %q item set", m.Class.Name, field)
	}
	typ := child.Class.ResolvedType()
	if typ == nil || typ.Traits() == nil {
		return 0, errors.Errorf("wrap: %s.%s has no bound Traits", m.Class.Name, field)
	}
	v, err := typ.Traits().Read(child.Value)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case uint64:
		return uint32(n), nil
	case int64:
		return uint32(n), nil
	default:
		return 0, errors.Errorf("wrap: %s.%s is not an integer", m.Class.Name, field)
	}
}

// mustUMID reads a MaterialPackage/SourcePackage's PackageUID; it is
// only ever called on objects this package itself built with SetUMID,
// so a missing or malformed value indicates a caller bug rather than
// a recoverable condition.
func mustUMID(m *mdobject.MDObject) mxfcore.UMID {
	child, ok := m.ChildByName("PackageUID")
	if !ok {
		child, ok = m.ChildByName("SourcePackageID")
	}
	if !ok {
		return mxfcore.UMID{}
	}
	typ := child.Class.ResolvedType()
	if typ == nil || typ.Traits() == nil {
		return mxfcore.UMID{}
	}
	v, err := typ.Traits().Read(child.Value)
	if err != nil {
		return mxfcore.UMID{}
	}
	u, _ := v.(mxfcore.UMID)
	return u
}

// linkRef assigns a reference item named field on parent to point at
// child, setting both the item's raw InstanceUID bytes and the
// in-memory Target; field's own ClassDef.RefKind (Strong or Weak)
// decides ownership semantics elsewhere in the graph, not this
// function.
func linkRef(parent, child *mdobject.MDObject, field string) error {
	class, ok := parent.Class.ChildByName(field)
	if !ok {
		return errors.Errorf("wrap: %s has no %q reference item", parent.Class.Name, field)
	}
	item := mdobject.NewByClass(class)
	if err := item.SetValue(child.InstanceUID[:]); err != nil {
		return err
	}
	item.Target = child
	return parent.AddChild(item, false)
}

// linkVectorEntry appends entry as a new element of parent's named
// Vector property, wiring the entry item's Strong reference the same
// way linkRef does for a singleton.
func linkVectorEntry(parent *mdobject.MDObject, vectorField string, entry *mdobject.MDObject) error {
	vecClass, ok := parent.Class.ChildByName(vectorField)
	if !ok {
		return errors.Errorf("wrap: %s has no %q vector", parent.Class.Name, vectorField)
	}
	vec, ok := parent.ChildByName(vectorField)
	if !ok {
		vec = mdobject.NewByClass(vecClass)
		if err := parent.AddChild(vec, false); err != nil {
			return err
		}
	}
	elemClasses := vecClass.EffectiveChildren()
	if len(elemClasses) == 0 {
		return errors.Errorf("wrap: vector %q declares no entry class", vectorField)
	}
	item := mdobject.NewByClass(elemClasses[0])
	if err := item.SetValue(entry.InstanceUID[:]); err != nil {
		return err
	}
	item.Target = entry
	return vec.AddChild(item, false)
}
