// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package dict implements the dictionary-driven registry of TypeDef
// and ClassDef records that defines the universe of types a MXF
// metadata object graph may be built from.
package dict

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/mxfgo/mxfcore"
)

// Errors surfaced while loading or resolving a Dictionary.
var (
	// ErrUnresolved is returned when one or more TypeDef/ClassDef
	// records still reference an undefined name after resolution
	// passes converge.
	ErrUnresolved = errors.New("dict: unresolved definitions after convergence")

	// ErrDuplicateUL is returned when two definitions register the
	// same UL; ULs must be globally unique.
	ErrDuplicateUL = errors.New("dict: duplicate UL")

	// ErrDuplicateName is returned when two definitions register the
	// same fully-scoped name.
	ErrDuplicateName = errors.New("dict: duplicate name")

	// ErrCircularHierarchy is returned when a ClassDef's Parent chain
	// loops back on itself.
	ErrCircularHierarchy = errors.New("dict: circular class hierarchy")

	// ErrUnknownUL is returned by UL lookups that find nothing; it is
	// tolerated in data (wrapped as Dark) but fatal in the dictionary
	// itself once resolution has converged.
	ErrUnknownUL = errors.New("dict: unknown UL")

	// ErrUnknownBaseType is returned when an Interpretation or Array
	// TypeDef's base type name never resolves.
	ErrUnknownBaseType = errors.New("dict: undefined base type")
)

// TypeDefKind is the closed set of TypeDef shapes.
type TypeDefKind int

// TypeDef kinds.
const (
	KindBasic TypeDefKind = iota
	KindInterpretation
	KindArray
	KindCompound
	KindEnum
)

// ArrayForm distinguishes how an Array TypeDef's element count is
// carried on the wire.
type ArrayForm int

// Array forms.
const (
	ArrayImplicitCount ArrayForm = iota
	ArrayExplicitCount
	ArrayStringTerminated
)

// CompoundMember is one named, typed field of a Compound TypeDef.
type CompoundMember struct {
	Name string
	Type string // TypeDef name, resolved into the owning Dictionary
}

// TypeDef is one definition from the TypeDef record stream.
type TypeDef struct {
	Name    string
	UL      mxfcore.UL
	Kind    TypeDefKind
	Size    int // 0 = variable
	BigEndian bool

	// Base is the referenced base TypeDef's name, used by
	// Interpretation (the type it reinterprets) and Array (the
	// element type).
	Base      string
	ArrayForm ArrayForm
	FixedCount int // 0 = unbounded, for ArrayExplicitCount

	Members []CompoundMember // Compound only

	EnumUnderlying string
	EnumValues     map[string]int64 // Enum only

	// TraitsName names the Traits implementation bound to this
	// TypeDef at load time.
	TraitsName string

	resolvedBase *TypeDef
	traits       Traits
}

// ResolvedBase returns the TypeDef this one reinterprets or arrays
// over, valid after the Dictionary has finished loading.
func (t *TypeDef) ResolvedBase() *TypeDef { return t.resolvedBase }

// Traits returns the Traits implementation bound to t.
func (t *TypeDef) Traits() Traits { return t.traits }

// EffectiveSize returns t's wire size, inheriting its base's size for
// Interpretation types that don't override it.
func (t *TypeDef) EffectiveSize() int {
	if t.Kind == KindInterpretation && t.Size == 0 && t.resolvedBase != nil {
		return t.resolvedBase.EffectiveSize()
	}
	return t.Size
}

// Usage is a ClassDef child's requirement level.
type Usage int

// Usage levels.
const (
	UsageRequired Usage = iota
	UsageEncoderRequired
	UsageDecoderRequired
	UsageOptional
	UsageBestEffort
	UsageDark
	UsageToxic
)

// RefKind is the reference semantics a ClassDef's Item carries.
type RefKind int

// Reference kinds.
const (
	RefNone RefKind = iota
	RefStrong
	RefWeak
	RefTarget
)

// ClassKind is the closed set of ClassDef shapes.
type ClassKind int

// ClassDef kinds.
const (
	ClassSet ClassKind = iota
	ClassPackFixed
	ClassPackVariable
	ClassVector
	ClassArray
	ClassItem
)

// KeyFormat is the width, in bytes, of a container's child keys.
type KeyFormat int

// Key formats a container's children may be addressed by.
const (
	KeyFormat1Byte  KeyFormat = 1
	KeyFormat2Byte  KeyFormat = 2
	KeyFormat4Byte  KeyFormat = 4
	KeyFormat16Byte KeyFormat = 16
)

// LengthFormat is the width, in bytes, of a container's child lengths.
type LengthFormat int

// Length formats a container's children may declare.
const (
	LengthFormatBER   LengthFormat = 0
	LengthFormat1Byte LengthFormat = 1
	LengthFormat2Byte LengthFormat = 2
	LengthFormat4Byte LengthFormat = 4
)

// ClassDef is one definition from the ClassDef record stream.
type ClassDef struct {
	Name string
	UL   mxfcore.UL
	Kind ClassKind

	// Parent names the ClassDef this one inherits children from
	// (single inheritance). A child with a name matching a parent
	// child replaces it in place, preserving order for Packs.
	Parent string

	KeyFormat    KeyFormat
	LengthFormat LengthFormat

	MinLength int
	MaxLength int // 0 = unbounded

	Usage Usage

	Default     []byte
	Distinguished []byte // "DValue": presence means not-present/unknown

	RefKind      RefKind
	RefTargetClass string

	// TypeName is the TypeDef an Item ClassDef's raw value is typed
	// as; empty for container kinds.
	TypeName string

	// Children is this class's own declared children, in declaration
	// order; Resolve() merges these over the parent's list.
	Children []*ClassDef

	resolvedParent *ClassDef
	resolvedType   *TypeDef
	effectiveChildren []*ClassDef
	childByUL      map[mxfcore.UL]*ClassDef
}

// ResolvedParent returns the parent ClassDef, valid after loading.
func (c *ClassDef) ResolvedParent() *ClassDef { return c.resolvedParent }

// ResolvedType returns the bound TypeDef for an Item ClassDef.
func (c *ClassDef) ResolvedType() *TypeDef { return c.resolvedType }

// EffectiveChildren returns c's full child list: the parent's
// children (recursively), with any child c itself redeclares replaced
// in place, plus c's new children appended in declaration order.
// Order is significant for Packs.
func (c *ClassDef) EffectiveChildren() []*ClassDef {
	if c.effectiveChildren == nil {
		// Not resolved through a Dictionary: only c's own declarations.
		return c.Children
	}
	return c.effectiveChildren
}

// ChildByUL looks up an allowed child by UL among EffectiveChildren.
func (c *ClassDef) ChildByUL(ul mxfcore.UL) (*ClassDef, bool) {
	if c.childByUL == nil {
		for _, cd := range c.EffectiveChildren() {
			if cd.UL == ul {
				return cd, true
			}
		}
		return nil, false
	}
	cd, ok := c.childByUL[ul]
	return cd, ok
}

// ChildByName looks up an allowed child by name among
// EffectiveChildren.
func (c *ClassDef) ChildByName(name string) (*ClassDef, bool) {
	for _, cd := range c.EffectiveChildren() {
		if cd.Name == name {
			return cd, true
		}
	}
	return nil, false
}

// IsContainer reports whether c holds typed children rather than a
// raw value.
func (c *ClassDef) IsContainer() bool {
	return c.Kind != ClassItem
}

// Dictionary is the process-wide (but never hidden-global — always
// explicitly passed) registry of TypeDefs and ClassDefs, built once at
// load time and read thereafter.
type Dictionary struct {
	typesByName  map[string]*TypeDef
	typesByUL    map[uint64]*TypeDef // keyed by xxhash of the UL bytes
	typesByULRaw map[mxfcore.UL]*TypeDef

	classesByName  map[string]*ClassDef
	classesByUL    map[uint64]*ClassDef
	classesByULRaw map[mxfcore.UL]*ClassDef

	traitsRegistry map[string]Traits

	staticPrimer *mxfcore.Primer
}

// New returns an empty Dictionary with the standard Traits registered.
func New() *Dictionary {
	d := &Dictionary{
		typesByName:    make(map[string]*TypeDef),
		typesByUL:      make(map[uint64]*TypeDef),
		typesByULRaw:   make(map[mxfcore.UL]*TypeDef),
		classesByName:  make(map[string]*ClassDef),
		classesByUL:    make(map[uint64]*ClassDef),
		classesByULRaw: make(map[mxfcore.UL]*ClassDef),
		traitsRegistry: make(map[string]Traits),
	}
	registerStandardTraits(d)
	return d
}

// RegisterTraits binds a named Traits implementation for use by
// TypeDefs declaring TraitsName == name.
func (d *Dictionary) RegisterTraits(name string, t Traits) {
	d.traitsRegistry[name] = t
}

func ulHash(ul mxfcore.UL) uint64 {
	return xxhash.Sum64(ul[:])
}

// LoadTypeDefs registers a batch of TypeDef records, deferring any
// whose Base/Member types are not yet known and retrying until the
// set resolves or no progress is made in a full pass.
func (d *Dictionary) LoadTypeDefs(defs []*TypeDef) error {
	pending := make([]*TypeDef, len(defs))
	copy(pending, defs)

	for len(pending) > 0 {
		var next []*TypeDef
		progressed := false

		for _, t := range pending {
			if d.resolveTypeDef(t) {
				progressed = true
				if err := d.registerTypeDef(t); err != nil {
					return err
				}
			} else {
				next = append(next, t)
			}
		}

		if !progressed {
			names := make([]string, 0, len(next))
			for _, t := range next {
				names = append(names, t.Name)
			}
			return fmt.Errorf("%w: types %v", ErrUnresolved, names)
		}
		pending = next
	}
	return nil
}

// resolveTypeDef attempts to fill in t's cross-references from
// already-registered types. It returns false if a dependency is still
// missing.
func (d *Dictionary) resolveTypeDef(t *TypeDef) bool {
	switch t.Kind {
	case KindInterpretation, KindArray:
		base, ok := d.typesByName[t.Base]
		if !ok {
			return false
		}
		t.resolvedBase = base
	case KindCompound:
		for _, m := range t.Members {
			if _, ok := d.typesByName[m.Type]; !ok {
				return false
			}
		}
	}
	if t.TraitsName != "" {
		tr, ok := d.traitsRegistry[t.TraitsName]
		if ok {
			t.traits = tr
		}
	}
	return true
}

func (d *Dictionary) registerTypeDef(t *TypeDef) error {
	if _, exists := d.typesByName[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, t.Name)
	}
	d.typesByName[t.Name] = t

	// The built-in primitive types (standardTypes) carry no UL of their
	// own — only Interpretation/Compound types sourced from an actual
	// dictionary do — so the zero UL must not be deduplicated against
	// itself across every primitive type registered.
	if t.UL == (mxfcore.UL{}) {
		return nil
	}
	h := ulHash(t.UL)
	if _, exists := d.typesByUL[h]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateUL, t.UL)
	}
	d.typesByUL[h] = t
	d.typesByULRaw[t.UL] = t
	return nil
}

// LoadClassDefs registers a batch of ClassDef records, deferring any
// whose Parent or TypeName is not yet known, the same convergence
// rule LoadTypeDefs uses.
func (d *Dictionary) LoadClassDefs(defs []*ClassDef) error {
	pending := make([]*ClassDef, len(defs))
	copy(pending, defs)

	for len(pending) > 0 {
		var next []*ClassDef
		progressed := false

		for _, c := range pending {
			if d.resolveClassDef(c) {
				progressed = true
				if err := d.registerClassDef(c); err != nil {
					return err
				}
			} else {
				next = append(next, c)
			}
		}

		if !progressed {
			names := make([]string, 0, len(next))
			for _, c := range next {
				names = append(names, c.Name)
			}
			return fmt.Errorf("%w: classes %v", ErrUnresolved, names)
		}
		pending = next
	}
	return d.checkAcyclic()
}

func (d *Dictionary) resolveClassDef(c *ClassDef) bool {
	if c.Parent != "" {
		parent, ok := d.classesByName[c.Parent]
		if !ok {
			return false
		}
		c.resolvedParent = parent
	}
	if c.Kind == ClassItem && c.TypeName != "" {
		typ, ok := d.typesByName[c.TypeName]
		if !ok {
			return false
		}
		c.resolvedType = typ
	}

	// A container's own declared children are typed Item ClassDefs
	// nested inline rather than registered separately; resolve their
	// TypeName the same way before merging them into the effective list.
	for _, own := range c.Children {
		if own.Kind == ClassItem && own.TypeName != "" && own.resolvedType == nil {
			typ, ok := d.typesByName[own.TypeName]
			if !ok {
				return false
			}
			own.resolvedType = typ
		}
	}

	// Merge parent's effective children with c's own declarations,
	// replacing any name match in place to preserve Pack ordering.
	var merged []*ClassDef
	if c.resolvedParent != nil {
		merged = append(merged, c.resolvedParent.effectiveChildren...)
	}
	for _, own := range c.Children {
		replaced := false
		for i, existing := range merged {
			if existing.Name == own.Name {
				merged[i] = own
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, own)
		}
	}
	c.effectiveChildren = merged
	c.childByUL = make(map[mxfcore.UL]*ClassDef, len(merged))
	for _, child := range merged {
		c.childByUL[child.UL] = child
	}
	return true
}

func (d *Dictionary) registerClassDef(c *ClassDef) error {
	if _, exists := d.classesByName[c.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, c.Name)
	}
	// Abstract bootstrap classes (GenericPackage, GenericTrack, ...) carry
	// no UL; like registerTypeDef, the zero UL is not indexed by UL.
	if c.UL != (mxfcore.UL{}) {
		h := ulHash(c.UL)
		if _, exists := d.classesByUL[h]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateUL, c.UL)
		}
		d.classesByUL[h] = c
		d.classesByULRaw[c.UL] = c
	}
	d.classesByName[c.Name] = c
	return nil
}

func (d *Dictionary) checkAcyclic() error {
	for _, c := range d.classesByName {
		seen := make(map[string]bool)
		cur := c
		for cur.resolvedParent != nil {
			if seen[cur.Name] {
				return fmt.Errorf("%w: %s", ErrCircularHierarchy, c.Name)
			}
			seen[cur.Name] = true
			cur = cur.resolvedParent
		}
	}
	return nil
}

// TypeByName looks up a TypeDef in the by-name index.
func (d *Dictionary) TypeByName(name string) (*TypeDef, bool) {
	t, ok := d.typesByName[name]
	return t, ok
}

// TypeByUL looks up a TypeDef in the flat by-UL index.
func (d *Dictionary) TypeByUL(ul mxfcore.UL) (*TypeDef, bool) {
	t, ok := d.typesByULRaw[ul]
	return t, ok
}

// ClassByName looks up a ClassDef in the flat by-name index. Names are
// not scoped by parent: callers pass the bare class or item name, e.g.
// "Preface" or "PrimaryPackage".
func (d *Dictionary) ClassByName(name string) (*ClassDef, bool) {
	c, ok := d.classesByName[name]
	return c, ok
}

// ClassByUL looks up a ClassDef in the flat by-UL index.
func (d *Dictionary) ClassByUL(ul mxfcore.UL) (*ClassDef, bool) {
	c, ok := d.classesByULRaw[ul]
	return c, ok
}

// StaticPrimer lazily builds and caches a Primer covering every
// ClassDef with a UL, for use when a partition's own primer is
// missing. The returned Primer is immutable in the sense that callers
// should treat it as read-only, by convention rather than an enforced
// lock.
func (d *Dictionary) StaticPrimer() *mxfcore.Primer {
	if d.staticPrimer != nil {
		return d.staticPrimer
	}
	p := mxfcore.NewPrimer()
	for _, c := range d.classesByName {
		if c.UL == (mxfcore.UL{}) {
			continue
		}
		_, _ = p.TagFor(c.UL)
	}
	d.staticPrimer = p
	return p
}
