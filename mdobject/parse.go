package mdobject

import (
	"github.com/pkg/errors"

	"github.com/mxfgo/mxfcore"
	"github.com/mxfgo/mxfcore/dict"
)

// pendingRef is an unresolved Strong/Weak/Target reference discovered
// while parsing a Set; these resolve only after the entire metadata
// block has been parsed.
type pendingRef struct {
	source   *MDObject
	targetID mxfcore.UUID
}

// Graph is a parsed or constructed metadata object graph: a root
// object (conventionally the Preface) plus the bookkeeping needed to
// resolve Strong/Weak references and track modification generations.
type Graph struct {
	Dictionary *dict.Dictionary
	Root       *MDObject

	byInstanceUID map[mxfcore.UUID]*MDObject
	pending       []pendingRef
}

// NewGraph returns an empty Graph rooted at root, indexing every
// object already reachable from it by InstanceUID.
func NewGraph(d *dict.Dictionary, root *MDObject) *Graph {
	g := &Graph{Dictionary: d, Root: root, byInstanceUID: make(map[mxfcore.UUID]*MDObject)}
	g.reindex(root)
	return g
}

func (g *Graph) reindex(obj *MDObject) {
	if obj == nil {
		return
	}
	if obj.InstanceUID != (mxfcore.UUID{}) {
		g.byInstanceUID[obj.InstanceUID] = obj
	}
	for _, c := range obj.Children {
		g.reindex(c)
	}
}

// ByInstanceUID looks up a previously-indexed object.
func (g *Graph) ByInstanceUID(id mxfcore.UUID) (*MDObject, bool) {
	obj, ok := g.byInstanceUID[id]
	return obj, ok
}

// ParseSet parses a local-set-encoded KLV value into a new MDObject of
// class, reading sequential {Tag, Length, Value} triples until value
// is exhausted. Each Tag resolves to a UL via primer,
// then to a ClassDef via g.Dictionary. A tag with no primer entry is
// dropped, whatever allowDark says; a tag whose UL has no ClassDef is
// dropped too, or kept as a Dark child when allowDark is set. Unresolved
// Strong/Weak/Target references are recorded on g.pending for
// ResolveReferences to complete after the whole block has been read.
func (g *Graph) ParseSet(class *dict.ClassDef, primer *mxfcore.Primer, value []byte, allowDark bool) (*MDObject, error) {
	obj := NewByClass(class)

	off := 0
	for off < len(value) {
		if off+2 > len(value) {
			return obj, errors.Wrap(mxfcore.ErrTruncatedValue, "local-set tag")
		}
		tag, err := mxfcore.ReadUint16(value, off)
		if err != nil {
			return obj, err
		}
		off += 2

		length, lenSize, err := mxfcore.BERLength(value[off:])
		if err != nil {
			return obj, errors.Wrap(err, "local-set length")
		}
		off += lenSize

		if off+int(length) > len(value) {
			return obj, errors.Wrap(mxfcore.ErrLengthTooLarge, "local-set value")
		}
		itemValue := value[off : off+int(length)]
		off += int(length)

		ul, found := primer.ULFor(tag)
		if !found {
			continue // missing-primer tags are dropped, not fatal.
		}

		childClass, found := g.Dictionary.ClassByUL(ul)
		if !found {
			if allowDark {
				if err := obj.AddChild(NewDark(ul, itemValue), true); err != nil {
					return obj, err
				}
			}
			continue
		}

		child := NewByClass(childClass)
		if err := g.populateItem(child, childClass, itemValue, primer, allowDark); err != nil {
			return obj, err
		}
		if err := obj.AddChild(child, allowDark); err != nil {
			return obj, err
		}
	}

	if iu, ok := obj.ChildByName("InstanceUID"); ok && len(iu.Value) == mxfcore.UUIDLength {
		uid, err := mxfcore.ParseUUID(iu.Value)
		if err != nil {
			return obj, err
		}
		obj.InstanceUID = uid
	}

	return obj, nil
}

// ParsePack parses a fixed-Pack-encoded KLV value into a new MDObject
// of class, reading its EffectiveChildren in declared order using the
// class's fixed length format, reading children in declared order.
func (g *Graph) ParsePack(class *dict.ClassDef, value []byte, primer *mxfcore.Primer, allowDark bool) (*MDObject, error) {
	obj := NewByClass(class)
	off := 0

	for _, childClass := range class.EffectiveChildren() {
		length := fixedChildLength(class, childClass)
		if off+length > len(value) {
			return obj, errors.Wrap(mxfcore.ErrTruncatedValue, "pack member")
		}
		itemValue := value[off : off+length]
		off += length

		child := NewByClass(childClass)
		if err := g.populateItem(child, childClass, itemValue, primer, allowDark); err != nil {
			return obj, err
		}
		if err := obj.AddChild(child, allowDark); err != nil {
			return obj, err
		}
	}

	return obj, nil
}

// fixedChildLength returns the declared wire width of childClass
// within a Pack, falling back to its bound TypeDef's effective size.
func fixedChildLength(pack, child *dict.ClassDef) int {
	if child.MaxLength != 0 {
		return child.MaxLength
	}
	if t := child.ResolvedType(); t != nil {
		return t.EffectiveSize()
	}
	return 0
}

// populateItem fills in child's Value/Target/sub-children given its
// raw itemValue, handling container recursion, reference deferral,
// and the Default rule (an empty value takes class.Default). A
// Distinguished value is stored as read, with no special meaning.
func (g *Graph) populateItem(child *MDObject, class *dict.ClassDef, itemValue []byte, primer *mxfcore.Primer, allowDark bool) error {
	if class.IsContainer() {
		var sub *MDObject
		var err error
		switch class.Kind {
		case dict.ClassPackFixed, dict.ClassPackVariable:
			sub, err = g.ParsePack(class, itemValue, primer, allowDark)
		default:
			sub, err = g.ParseSet(class, primer, itemValue, allowDark)
		}
		if err != nil {
			return err
		}
		child.Children = sub.Children
		for _, c := range child.Children {
			c.parent = child
		}
		return nil
	}

	switch class.RefKind {
	case dict.RefStrong, dict.RefWeak, dict.RefTarget:
		uid, err := mxfcore.ParseUUID(itemValue)
		if err != nil {
			return err
		}
		if class.RefKind == dict.RefStrong {
			if target, ok := g.byInstanceUID[uid]; ok {
				child.Target = target
			} else {
				g.pending = append(g.pending, pendingRef{source: child, targetID: uid})
			}
		} else {
			// Weak/Target references resolve on demand; still recorded so
			// ResolveReferences can opportunistically
			// fill them in once the whole block is available.
			g.pending = append(g.pending, pendingRef{source: child, targetID: uid})
		}
		return nil
	}

	if len(itemValue) == 0 && len(class.Default) > 0 {
		child.Value = class.Default
		return nil
	}
	child.Value = append([]byte(nil), itemValue...)
	return nil
}

// ResolveReferences resolves every pending Strong/Weak/Target
// reference recorded during parsing, now that the whole metadata
// block (and hence every InstanceUID) is known. It returns
// ErrUnresolvedReference, wrapping the first unresolved target, for
// any Strong reference that still cannot be found — a dangling Strong
// reference is a semantic error; dangling Weak/Target
// references are tolerated since they resolve on demand.
func (g *Graph) ResolveReferences() error {
	g.reindex(g.Root)

	var firstErr error
	for _, p := range g.pending {
		target, ok := g.byInstanceUID[p.targetID]
		if !ok {
			if p.source.Class != nil && p.source.Class.RefKind == dict.RefStrong && firstErr == nil {
				firstErr = errors.Wrapf(ErrUnresolvedReference, "instance uid %s", p.targetID)
			}
			continue
		}
		p.source.Target = target
	}
	return firstErr
}

// CheckAcyclic verifies no object is reachable from itself via Strong
// edges.
func CheckAcyclic(root *MDObject) error {
	visiting := make(map[*MDObject]bool)
	return walkAcyclic(root, visiting)
}

func walkAcyclic(obj *MDObject, visiting map[*MDObject]bool) error {
	if obj == nil {
		return nil
	}
	if visiting[obj] {
		return ErrStrongCycle
	}
	visiting[obj] = true
	defer delete(visiting, obj)

	for _, c := range obj.Children {
		if err := walkAcyclic(c, visiting); err != nil {
			return err
		}
	}
	if obj.Target != nil && obj.Class != nil && obj.Class.RefKind == dict.RefStrong {
		if err := walkAcyclic(obj.Target, visiting); err != nil {
			return err
		}
	}
	return nil
}
