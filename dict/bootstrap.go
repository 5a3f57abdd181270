package dict

import (
	"encoding/hex"
	"strings"

	mxfcore "github.com/mxfgo/mxfcore"
)

// parseULHex decodes a space-separated hex UL literal copied verbatim from
// a class table, panicking on malformed input — every call site here is a
// compile-time constant, so a panic means the table itself is wrong.
func parseULHex(s string) mxfcore.UL {
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil || len(b) != mxfcore.ULLength {
		panic("dict: bad bootstrap UL " + s)
	}
	var ul mxfcore.UL
	copy(ul[:], b)
	return ul
}

// itemEntry is one leaf property declared directly on a bootstrap
// class: its name, the TypeDef it is bound to, its tag UL, and — for
// a Strong/Weak reference property — the RefKind it carries.
type itemEntry struct {
	name    string
	typ     string
	key     string
	refKind RefKind
}

// vectorEntry is one "unordered batch" / "ordered array" property: a
// container ClassDef (Kind ClassVector) whose single allowed child is
// a synthetic per-entry item class.
type vectorEntry struct {
	name     string
	key      string
	elemType string
	refKind  RefKind
}

// classEntry is one row of the bootstrap class table: a class name,
// its parent's name (empty for a root), the class's own Set key UL,
// and its declared leaf items and vector properties.
type classEntry struct {
	name    string
	parent  string
	key     string
	items   []itemEntry
	vectors []vectorEntry
}

// bootstrapClasses mirrors the Preface/Package/Track/Descriptor hierarchy
// mxflib's compiled-in dictionary carries, trimmed to what Wrap's package
// graph construction needs. Names, parents, ULs and item tags are copied
// verbatim from the bootstrap class table; this package invents no SMPTE
// identifiers of its own. Vector "entry" element classes are this
// package's own synthetic names (there is no single canonical name for a
// batch's per-entry placeholder in the source dictionary), suffixed
// "Entry" to keep them out of the flat class-name namespace real class
// names occupy.
var bootstrapClasses = []classEntry{
	{name: "AbstractObject", key: "06 0e 2b 34 02 7f 01 01 0d 01 01 01 01 01 7f 00"},
	{name: "InterchangeObject", parent: "AbstractObject", key: "06 0e 2b 34 02 7f 01 01 0d 01 01 01 01 01 01 00",
		items: []itemEntry{
			{"InstanceUID", "UUID", "06 0e 2b 34 01 01 01 01 01 01 15 02 00 00 00 00", RefNone},
		}},
	{name: "GenerationInterchangeObject", parent: "InterchangeObject", key: "06 0e 2b 34 02 7f 01 01 0d 01 01 01 01 01 02 00",
		items: []itemEntry{
			{"GenerationUID", "UUID", "06 0e 2b 34 01 01 01 02 05 20 07 01 08 00 00 00", RefNone},
		}},

	{name: "Preface", parent: "GenerationInterchangeObject", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 2f 00",
		items: []itemEntry{
			{"LastModifiedDate", "Timestamp", "06 0e 2b 34 01 01 01 02 07 02 01 10 02 04 00 00", RefNone},
			{"Version", "UInt16", "06 0e 2b 34 01 01 01 02 03 01 02 01 05 00 00 00", RefNone},
			{"ObjectModelVersion", "UInt32", "06 0e 2b 34 01 01 01 02 03 01 02 01 04 00 00 00", RefNone},
			{"PrimaryPackage", "UUID", "06 0e 2b 34 01 01 01 04 06 01 01 04 01 08 00 00", RefWeak},
			// Named "ContentStorageRef" rather than mxflib's own
			// "ContentStorage" to avoid colliding with the ContentStorage
			// class's own name in this dictionary's flat name index.
			{"ContentStorageRef", "UUID", "06 0e 2b 34 01 01 01 02 06 01 01 04 02 01 00 00", RefStrong},
			{"OperationalPattern", "Label", "06 0e 2b 34 01 01 01 05 01 02 02 03 00 00 00 00", RefNone},
		},
		vectors: []vectorEntry{
			{"Identifications", "06 0e 2b 34 01 01 01 02 06 01 01 04 06 04 00 00", "UUID", RefStrong},
			{"EssenceContainers", "06 0e 2b 34 01 01 01 05 01 02 02 10 02 01 00 00", "Label", RefNone},
			{"DMSchemes", "06 0e 2b 34 01 01 01 05 01 02 02 10 02 02 00 00", "Label", RefNone},
		}},

	{name: "Identification", parent: "InterchangeObject", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 30 00",
		items: []itemEntry{
			{"ThisGenerationUID", "UUID", "06 0e 2b 34 01 01 01 02 05 20 07 01 01 00 00 00", RefNone},
			{"CompanyName", "UTF16String", "06 0e 2b 34 01 01 01 02 05 20 07 01 02 01 00 00", RefNone},
			{"ProductName", "UTF16String", "06 0e 2b 34 01 01 01 02 05 20 07 01 03 01 00 00", RefNone},
			{"ProductUID", "UUID", "06 0e 2b 34 01 01 01 02 05 20 07 01 07 00 00 00", RefNone},
			{"VersionString", "UTF16String", "06 0e 2b 34 01 01 01 02 05 20 07 01 05 01 00 00", RefNone},
			{"ModificationDate", "Timestamp", "06 0e 2b 34 01 01 01 02 07 02 01 10 02 03 00 00", RefNone},
		}},

	{name: "ContentStorage", parent: "GenerationInterchangeObject", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 18 00",
		vectors: []vectorEntry{
			{"Packages", "06 0e 2b 34 01 01 01 02 06 01 01 04 05 01 00 00", "UUID", RefStrong},
			{"EssenceContainerDataBatch", "06 0e 2b 34 01 01 01 02 06 01 01 04 05 02 00 00", "UUID", RefStrong},
		}},

	{name: "EssenceContainerData", parent: "GenerationInterchangeObject", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 23 00",
		items: []itemEntry{
			{"LinkedPackageUID", "UMID", "06 0e 2b 34 01 01 01 02 06 01 01 06 01 00 00 00", RefNone},
			{"IndexSID", "UInt32", "06 0e 2b 34 01 01 01 04 01 03 04 05 00 00 00 00", RefNone},
			{"BodySID", "UInt32", "06 0e 2b 34 01 01 01 04 01 03 04 04 00 00 00 00", RefNone},
		}},

	{name: "GenericPackage", parent: "GenerationInterchangeObject",
		items: []itemEntry{
			{"PackageUID", "UMID", "06 0e 2b 34 01 01 01 01 01 01 15 10 00 00 00 00", RefNone},
			{"Name", "UTF16String", "06 0e 2b 34 01 01 01 01 01 03 03 02 01 00 00 00", RefNone},
			{"PackageCreationDate", "Timestamp", "06 0e 2b 34 01 01 01 02 07 02 01 10 01 03 00 00", RefNone},
			{"PackageModifiedDate", "Timestamp", "06 0e 2b 34 01 01 01 02 07 02 01 10 02 05 00 00", RefNone},
		},
		vectors: []vectorEntry{
			{"Tracks", "06 0e 2b 34 01 01 01 02 06 01 01 04 06 05 00 00", "UUID", RefStrong},
		}},
	{name: "MaterialPackage", parent: "GenericPackage", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 36 00"},
	{name: "SourcePackage", parent: "GenericPackage", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 37 00",
		items: []itemEntry{
			{"Descriptor", "UUID", "06 0e 2b 34 01 01 01 04 06 01 01 04 02 03 00 00", RefStrong},
		}},

	{name: "Locator", parent: "GenerationInterchangeObject"},
	{name: "NetworkLocator", parent: "Locator", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 32 00",
		items: []itemEntry{
			{"URLString", "UTF16String", "06 0e 2b 34 01 01 01 02 01 04 01 03 01 00 00 00", RefNone},
		}},
	{name: "TextLocator", parent: "Locator", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 33 00",
		items: []itemEntry{
			{"LocatorName", "UTF16String", "06 0e 2b 34 01 01 01 02 01 04 01 02 01 00 00 00", RefNone},
		}},

	{name: "GenericTrack", parent: "GenerationInterchangeObject",
		items: []itemEntry{
			{"TrackID", "UInt32", "06 0e 2b 34 01 01 01 02 01 07 01 01 00 00 00 00", RefNone},
			{"TrackNumber", "UInt32", "06 0e 2b 34 01 01 01 02 01 04 01 03 00 00 00 00", RefNone},
			{"TrackName", "UTF16String", "06 0e 2b 34 01 01 01 02 01 07 01 02 01 00 00 00", RefNone},
			// Named "SequenceRef" rather than mxflib's own "Sequence" to
			// avoid colliding with the Sequence class's own name in this
			// dictionary's flat name index.
			{"SequenceRef", "UUID", "06 0e 2b 34 01 01 01 02 06 01 01 04 02 04 00 00", RefStrong},
		}},
	{name: "StaticTrack", parent: "GenericTrack", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 3a 00"},
	{name: "Track", parent: "GenericTrack", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 3b 00",
		items: []itemEntry{
			{"EditRate", "Rational", "06 0e 2b 34 01 01 01 02 05 30 04 05 00 00 00 00", RefNone},
			{"Origin", "Position", "06 0e 2b 34 01 01 01 02 07 02 01 03 01 03 00 00", RefNone},
		}},
	{name: "EventTrack", parent: "GenericTrack", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 39 00",
		items: []itemEntry{
			{"EventEditRate", "Rational", "06 0e 2b 34 01 01 01 02 05 30 04 02 00 00 00 00", RefNone},
			{"EventOrigin", "Position", "06 0e 2b 34 01 01 01 05 07 02 01 03 01 0b 00 00", RefNone},
		}},

	{name: "StructuralComponent", parent: "GenerationInterchangeObject",
		items: []itemEntry{
			{"DataDefinition", "Label", "06 0e 2b 34 01 01 01 02 04 07 01 00 00 00 00 00", RefNone},
			{"Duration", "Length", "06 0e 2b 34 01 01 01 02 07 02 02 01 01 03 00 00", RefNone},
		}},
	{name: "Sequence", parent: "StructuralComponent", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 0f 00",
		vectors: []vectorEntry{
			{"StructuralComponents", "06 0e 2b 34 01 01 01 02 06 01 01 04 06 09 00 00", "UUID", RefStrong},
		}},
	{name: "TimecodeComponent", parent: "StructuralComponent", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 14 00",
		items: []itemEntry{
			{"RoundedTimecodeBase", "UInt16", "06 0e 2b 34 01 01 01 02 04 04 01 01 02 06 00 00", RefNone},
			{"StartTimecode", "Position", "06 0e 2b 34 01 01 01 02 07 02 01 03 01 05 00 00", RefNone},
			{"DropFrame", "Boolean", "06 0e 2b 34 01 01 01 01 04 04 01 01 05 00 00 00", RefNone},
		}},
	{name: "SourceClip", parent: "StructuralComponent", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 11 00",
		items: []itemEntry{
			{"StartPosition", "Position", "06 0e 2b 34 01 01 01 02 07 02 01 03 01 04 00 00", RefNone},
			{"SourcePackageID", "UMID", "06 0e 2b 34 01 01 01 02 06 01 01 03 01 00 00 00", RefNone},
			{"SourceTrackID", "UInt32", "06 0e 2b 34 01 01 01 02 06 01 01 03 02 00 00 00", RefNone},
		}},
	{name: "DMSegment", parent: "StructuralComponent", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 41 00",
		items: []itemEntry{
			{"EventStartPosition", "Position", "06 0e 2b 34 01 01 01 02 07 02 01 03 03 03 00 00", RefNone},
		}},

	{name: "GenericDescriptor", parent: "GenerationInterchangeObject"},
	{name: "FileDescriptor", parent: "GenericDescriptor", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 25 00",
		items: []itemEntry{
			{"LinkedTrackID", "UInt32", "06 0e 2b 34 01 01 01 05 06 01 01 03 05 00 00 00", RefNone},
			{"SampleRate", "Rational", "06 0e 2b 34 01 01 01 01 04 06 01 01 00 00 00 00", RefNone},
			{"ContainerDuration", "Length", "06 0e 2b 34 01 01 01 01 04 06 01 02 00 00 00 00", RefNone},
			{"EssenceContainer", "Label", "06 0e 2b 34 01 01 01 02 06 01 01 04 01 02 00 00", RefNone},
			{"Codec", "Label", "06 0e 2b 34 01 01 01 02 06 01 01 04 01 03 00 00", RefNone},
		}},
	{name: "GenericPictureEssenceDescriptor", parent: "FileDescriptor", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 27 00"},
	{name: "CDCIEssenceDescriptor", parent: "GenericPictureEssenceDescriptor", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 28 00",
		items: []itemEntry{
			{"SampledWidth", "UInt32", "06 0e 2b 34 01 01 01 01 04 01 05 01 08 00 00 00", RefNone},
			{"SampledHeight", "UInt32", "06 0e 2b 34 01 01 01 01 04 01 05 01 07 00 00 00", RefNone},
		}},
	{name: "RGBAEssenceDescriptor", parent: "GenericPictureEssenceDescriptor", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 29 00"},
	{name: "GenericSoundEssenceDescriptor", parent: "FileDescriptor", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 42 00"},
	{name: "WaveAudioDescriptor", parent: "GenericSoundEssenceDescriptor", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 48 00"},
	{name: "GenericDataEssenceDescriptor", parent: "FileDescriptor", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 43 00"},
	{name: "MultipleDescriptor", parent: "FileDescriptor", key: "06 0e 2b 34 02 53 01 01 0d 01 01 01 01 01 44 00",
		vectors: []vectorEntry{
			{"SubDescriptorUIDs", "06 0e 2b 34 01 01 01 02 06 01 01 04 06 0b 00 00", "UUID", RefStrong},
		}},
}

// entryUL derives a vector entry class's synthetic UL from its owning
// vector's UL by flipping the top bit of the last byte, keeping it
// unique among the bootstrap table without claiming it as a real
// SMPTE-assigned identifier.
func entryUL(vec mxfcore.UL) mxfcore.UL {
	out := vec
	out[15] ^= 0x80
	return out
}

// buildEntries turns one bootstrap table row into its own *ClassDef
// (Parent left as a bare name for LoadClassDefs' deferred-resolution
// pass) plus the flat list of every nested item/vector/entry ClassDef
// it declares — all of which must also reach the Dictionary's global
// by-UL index, since mdobject's parser resolves an item's class by UL
// globally rather than by walking the owning Set's declared children.
func buildEntries(c classEntry) []*ClassDef {
	cd := &ClassDef{Name: c.name, Parent: c.parent, Kind: ClassSet}
	if c.key != "" {
		cd.UL = parseULHex(c.key)
	}

	out := []*ClassDef{cd}

	for _, it := range c.items {
		item := &ClassDef{
			Name:    it.name,
			UL:      parseULHex(it.key),
			Kind:    ClassItem,
			TypeName: it.typ,
			RefKind: it.refKind,
		}
		cd.Children = append(cd.Children, item)
		out = append(out, item)
	}

	for _, v := range c.vectors {
		vecUL := parseULHex(v.key)
		elem := &ClassDef{
			// There is no standalone SMPTE UL for a batch's per-entry
			// placeholder (real batches are flat arrays, not nested
			// tag/length/value triples); this dictionary models every
			// container uniformly as a local set, so the entry needs
			// some unique UL of its own to key off of. Derive one
			// deterministically from the vector's own UL rather than
			// invent an unrelated identifier.
			Name:     v.name + "Entry",
			UL:       entryUL(vecUL),
			Kind:     ClassItem,
			TypeName: v.elemType,
			RefKind:  v.refKind,
		}
		vec := &ClassDef{
			Name:     v.name,
			UL:       vecUL,
			Kind:     ClassVector,
			Children: []*ClassDef{elem},
		}
		cd.Children = append(cd.Children, vec)
		out = append(out, vec, elem)
	}

	return out
}

// RegisterBootstrap loads the Preface/Package/Track/Descriptor class
// hierarchy that Wrap's package graph construction needs into d, on top of
// whatever XML-sourced dictionary d already holds. It registers the
// standard TypeDef set first if any of its names aren't already present,
// so it is safe to call on a freshly-constructed Dictionary.
func RegisterBootstrap(d *Dictionary) error {
	for _, t := range standardTypes {
		if _, ok := d.TypeByName(t.Name); !ok {
			if err := RegisterStandardTypes(d); err != nil {
				return err
			}
			break
		}
	}

	var defs []*ClassDef
	for _, c := range bootstrapClasses {
		defs = append(defs, buildEntries(c)...)
	}
	return d.LoadClassDefs(defs)
}
