package mdobject

import (
	"github.com/mxfgo/mxfcore"
	"github.com/mxfgo/mxfcore/dict"
)

// ModifiedObjects walks root along Strong edges and returns every
// object whose modification flag is set.
func ModifiedObjects(root *MDObject) []*MDObject {
	var out []*MDObject
	seen := make(map[*MDObject]bool)
	collectModified(root, seen, &out)
	return out
}

func collectModified(obj *MDObject, seen map[*MDObject]bool, out *[]*MDObject) {
	if obj == nil || seen[obj] {
		return
	}
	seen[obj] = true
	if obj.modified {
		*out = append(*out, obj)
	}
	for _, c := range obj.Children {
		collectModified(c, seen, out)
	}
	if obj.Target != nil && obj.Class != nil && obj.Class.RefKind == dict.RefStrong {
		collectModified(obj.Target, seen, out)
	}
}

// UpdateGenerations stamps generationUID onto every object currently
// modified, then clears their modification flags, the effect of
// appending a new Identification record to the Preface.
func UpdateGenerations(root *MDObject, generationUID mxfcore.UUID) {
	for _, obj := range ModifiedObjects(root) {
		obj.GenerationUID = generationUID
		obj.modified = false
	}
}
