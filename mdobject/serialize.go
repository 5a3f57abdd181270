package mdobject

import (
	"github.com/mxfgo/mxfcore"
	"github.com/mxfgo/mxfcore/dict"
)

// written tracks which objects have already been serialised within
// one Serialize call, so each is written at most once per partition
// so each is written at most once per partition.
type written map[*MDObject]bool

// Serialize writes root and every object reachable from it along
// Strong edges, depth-first, assigning primer tags as new ULs are
// encountered. It returns the concatenated KLV bytes for the whole
// reachable set, in traversal order.
func Serialize(root *MDObject, primer *mxfcore.Primer) ([]byte, error) {
	w := make(written)
	var out []byte
	if err := serializeObject(root, primer, w, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func serializeObject(obj *MDObject, primer *mxfcore.Primer, w written, out *[]byte) error {
	if obj == nil || w[obj] {
		return nil
	}
	w[obj] = true

	body, err := EncodeSet(obj, primer)
	if err != nil {
		return err
	}
	*out = mxfcoreWriteKLV(*out, obj.Key(), body)

	// Strong containment: children that are themselves container
	// objects embedded by value were already folded into EncodeSet, but
	// the Strong references they hold (e.g. Vector entries) are followed
	// here like direct ones.
	var follow func(children []*MDObject) error
	follow = func(children []*MDObject) error {
		for _, c := range children {
			if c.Class != nil && c.Class.RefKind == dict.RefStrong && c.Target != nil {
				if err := serializeObject(c.Target, primer, w, out); err != nil {
					return err
				}
			}
			if err := follow(c.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return follow(obj.Children)
}

// mxfcoreWriteKLV is a thin indirection so this file reads naturally
// as "write a KLV", without importing mxfcore under a second name at
// every call site.
func mxfcoreWriteKLV(dst []byte, key mxfcore.UL, value []byte) []byte {
	return mxfcore.WriteKLV(dst, key, value)
}

// EncodeSet serialises obj's children as a local-set
// {Tag,Length,Value} body, assigning primer tags for any UL not yet
// seen in primer.
func EncodeSet(obj *MDObject, primer *mxfcore.Primer) ([]byte, error) {
	var out []byte
	for _, child := range obj.Children {
		itemValue, err := encodeItemValue(child, primer)
		if err != nil {
			return nil, err
		}

		tag, err := primer.TagFor(child.Key())
		if err != nil {
			return nil, err
		}
		out = mxfcore.PutUint16(out, tag)
		out = mxfcore.PutBERLength(out, uint64(len(itemValue)))
		out = append(out, itemValue...)
	}
	return out, nil
}

// EncodePack serialises obj's children back to back in obj.Children
// order, with no Tag/Length framing between members. Each value is
// written at its own length; class is not consulted, so children are
// not reordered or padded to the class's declared layout.
func EncodePack(obj *MDObject, class *dict.ClassDef, primer *mxfcore.Primer) ([]byte, error) {
	var out []byte
	for _, child := range obj.Children {
		itemValue, err := encodeItemValue(child, primer)
		if err != nil {
			return nil, err
		}
		out = append(out, itemValue...)
	}
	return out, nil
}

func encodeItemValue(child *MDObject, primer *mxfcore.Primer) ([]byte, error) {
	if child.Dark {
		return child.Value, nil
	}
	if child.Class != nil && child.Class.IsContainer() {
		switch child.Class.Kind {
		case dict.ClassPackFixed, dict.ClassPackVariable:
			return EncodePack(child, child.Class, primer)
		default:
			return EncodeSet(child, primer)
		}
	}
	if child.Class != nil && child.Class.RefKind != dict.RefNone {
		if child.Target == nil {
			return nil, ErrUnresolvedReference
		}
		id := child.Target.InstanceUID
		return id[:], nil
	}
	return child.Value, nil
}
