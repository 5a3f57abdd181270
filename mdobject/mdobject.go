// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package mdobject implements the dictionary-typed metadata object
// graph: instances with parent/child ownership, strong/weak reference
// linking, and modification tracking.
package mdobject

import (
	"github.com/pkg/errors"

	"github.com/mxfgo/mxfcore"
	"github.com/mxfgo/mxfcore/dict"
)

// Errors surfaced while building or walking the object graph.
var (
	// ErrChildNotAllowed is returned when a non-Dark child's UL is not
	// in its parent ClassDef's allowed children.
	ErrChildNotAllowed = errors.New("mdobject: child UL not allowed by parent class")

	// ErrValueLengthOutOfBounds is returned when an Item's raw value
	// length falls outside its ClassDef's [MinLength, MaxLength] bounds.
	ErrValueLengthOutOfBounds = errors.New("mdobject: value length out of bounds")

	// ErrStrongCycle is returned when adding a strong reference would
	// create a cycle.
	ErrStrongCycle = errors.New("mdobject: strong reference cycle")

	// ErrWeakSourceOwnsTarget is returned if a Weak or Target reference
	// source is asked to own (strongly parent) its target.
	ErrWeakSourceOwnsTarget = errors.New("mdobject: weak/target reference may not own its target")

	// ErrUnresolvedReference is returned when UID resolution finds no
	// object with the pending target InstanceUID.
	ErrUnresolvedReference = errors.New("mdobject: unresolved reference target")
)

// MDObject is a live instance of a dict.ClassDef.
type MDObject struct {
	Class       *dict.ClassDef
	InstanceUID mxfcore.UUID

	// Value holds the raw byte value for an Item that is not itself a
	// reference source; nil for containers.
	Value []byte

	// Children holds the ordered, named child objects of a container
	// (Set/Pack/Vector/Array).
	Children []*MDObject

	// Target is the resolved link for a reference-typed Item (Strong,
	// Weak, or Target reference kind in the owning ClassDef).
	Target *MDObject

	// Dark marks an item whose UL was not found among the parent
	// class's allowed children; it is preserved verbatim, keyed by its
	// raw UL rather than a ClassDef.
	Dark   bool
	DarkUL mxfcore.UL

	// GenerationUID mirrors each structural metadata set's own
	// GenerationUID property; UpdateGenerations stamps this on every
	// modified object.
	GenerationUID mxfcore.UUID

	parent     *MDObject
	fileOffset int64
	modified   bool
}

// Parent returns the strong-owning parent of this object, or nil for
// the graph root (conventionally the Preface).
func (m *MDObject) Parent() *MDObject { return m.parent }

// FileOffset returns the byte offset this object was parsed from, or
// the offset it was most recently written to.
func (m *MDObject) FileOffset() int64 { return m.fileOffset }

// Modified reports whether this object has unsaved setter changes
// since the last UpdateGenerations call.
func (m *MDObject) Modified() bool { return m.modified }

// NewByClass constructs a fresh, empty instance of class. Its
// InstanceUID is left zero for the caller to assign (for example with
// mxfcore.NewUUID); NewByClass itself generates no identifier.
func NewByClass(class *dict.ClassDef) *MDObject {
	obj := &MDObject{Class: class}
	if class.IsContainer() {
		obj.Children = []*MDObject{}
	}
	return obj
}

// NewByUL looks class up in d by UL and constructs a fresh instance.
func NewByUL(d *dict.Dictionary, ul mxfcore.UL) (*MDObject, error) {
	class, ok := d.ClassByUL(ul)
	if !ok {
		return nil, errors.Wrapf(dict.ErrUnknownUL, "ul %s", ul)
	}
	return NewByClass(class), nil
}

// NewByTagPrimer resolves tag through primer to a UL, then to a
// ClassDef in d, and constructs a fresh instance. ok is false (with a
// nil error) when the tag has no primer entry, or when its UL names no
// ClassDef in d; no object is built in either case.
func NewByTagPrimer(d *dict.Dictionary, primer *mxfcore.Primer, tag uint16) (obj *MDObject, ok bool, err error) {
	ul, found := primer.ULFor(tag)
	if !found {
		return nil, false, nil
	}
	class, found := d.ClassByUL(ul)
	if !found {
		return nil, false, nil
	}
	return NewByClass(class), true, nil
}

// NewDark constructs a placeholder object for a child whose UL is
// unrecognised, preserving its raw value verbatim.
func NewDark(ul mxfcore.UL, value []byte) *MDObject {
	out := make([]byte, len(value))
	copy(out, value)
	return &MDObject{Dark: true, DarkUL: ul, Value: out}
}

// Key returns the UL this object is keyed under within its parent: the
// ClassDef's UL for a typed child, or DarkUL for a Dark one.
func (m *MDObject) Key() mxfcore.UL {
	if m.Dark {
		return m.DarkUL
	}
	return m.Class.UL
}

// SetValue assigns raw bytes to an Item object, validating against its
// ClassDef's min/max length bounds and marking the object modified.
func (m *MDObject) SetValue(raw []byte) error {
	if !m.Dark && m.Class != nil {
		min, max := m.Class.MinLength, m.Class.MaxLength
		if len(raw) < min || (max != 0 && len(raw) > max) {
			return errors.Wrapf(ErrValueLengthOutOfBounds, "%s: got %d bytes, want [%d,%d]",
				safeClassName(m), len(raw), min, max)
		}
	}
	m.Value = raw
	m.modified = true
	return nil
}

func safeClassName(m *MDObject) string {
	if m.Class != nil {
		return m.Class.Name
	}
	return "<dark>"
}

// AddChild appends or replaces a child in a container object,
// following the tie-break rule: a duplicate of a singleton
// child (Vector/Array kinds aside) replaces the existing one; adding
// to a Vector or Array always appends. allowDark permits children
// whose UL the ClassDef does not declare, kept verbatim.
func (m *MDObject) AddChild(child *MDObject, allowDark bool) error {
	if !child.Dark && m.Class != nil {
		if _, ok := m.Class.ChildByUL(child.Class.UL); !ok {
			if !allowDark {
				return errors.Wrapf(ErrChildNotAllowed, "class %s child %s", m.Class.Name, child.Class.Name)
			}
			child = NewDark(child.Class.UL, child.Value)
		}
	}

	isMultiValued := m.Class != nil && (m.Class.Kind == dict.ClassVector || m.Class.Kind == dict.ClassArray)
	if !isMultiValued {
		for i, existing := range m.Children {
			if existing.Key() == child.Key() {
				child.parent = m
				m.Children[i] = child
				m.modified = true
				return nil
			}
		}
	}

	child.parent = m
	m.Children = append(m.Children, child)
	m.modified = true
	return nil
}

// ChildByUL returns the first child keyed under ul.
func (m *MDObject) ChildByUL(ul mxfcore.UL) (*MDObject, bool) {
	for _, c := range m.Children {
		if c.Key() == ul {
			return c, true
		}
	}
	return nil, false
}

// ChildByName returns the first non-Dark child whose ClassDef name
// matches name.
func (m *MDObject) ChildByName(name string) (*MDObject, bool) {
	for _, c := range m.Children {
		if !c.Dark && c.Class != nil && c.Class.Name == name {
			return c, true
		}
	}
	return nil, false
}

// MarkModified sets the modification flag directly, for callers that
// mutate Target/Children without going through SetValue/AddChild.
func (m *MDObject) MarkModified() { m.modified = true }
