package mdobject

import (
	"testing"

	"github.com/mxfgo/mxfcore"
	"github.com/mxfgo/mxfcore/dict"
)

func TestModifiedObjectsWalksChildrenAndStrongTargets(t *testing.T) {
	childClass := itemClass("Child", 0x11)
	refClass := itemClass("Ref", 0x12)
	refClass.RefKind = dict.RefStrong
	parent := NewByClass(setClass("Parent", 0x10, childClass, refClass))
	child := NewByClass(childClass)
	refSource := NewByClass(refClass)
	refTarget := NewByClass(itemClass("Target", 0x13))

	if err := parent.AddChild(child, false); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if err := parent.AddChild(refSource, false); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	refSource.Target = refTarget

	child.MarkModified()
	refTarget.MarkModified()

	mod := ModifiedObjects(parent)
	found := make(map[*MDObject]bool)
	for _, m := range mod {
		found[m] = true
	}
	if !found[child] {
		t.Errorf("ModifiedObjects did not include the modified direct child")
	}
	if !found[refTarget] {
		t.Errorf("ModifiedObjects did not traverse into obj.Target")
	}
	if found[refSource] {
		t.Errorf("ModifiedObjects included an unmodified object")
	}
}

func TestModifiedObjectsToleratesCycles(t *testing.T) {
	aClass := itemClass("A", 0x10)
	aClass.RefKind = dict.RefStrong
	bClass := itemClass("B", 0x11)
	bClass.RefKind = dict.RefStrong
	a := NewByClass(aClass)
	b := NewByClass(bClass)
	a.Target = b
	b.Target = a
	a.MarkModified()

	mod := ModifiedObjects(a)
	if len(mod) != 1 || mod[0] != a {
		t.Errorf("ModifiedObjects(cycle) = %v, want [a]", mod)
	}
}

func TestUpdateGenerationsStampsAndClearsModified(t *testing.T) {
	childClass := itemClass("Child", 0x11)
	root := NewByClass(setClass("Root", 0x10, childClass))
	child := NewByClass(childClass)
	if err := root.AddChild(child, false); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	child.MarkModified()

	gen := mxfcore.NewUUID()
	UpdateGenerations(root, gen)

	if child.GenerationUID != gen {
		t.Errorf("GenerationUID = %v, want %v", child.GenerationUID, gen)
	}
	if child.Modified() {
		t.Errorf("Modified() still true after UpdateGenerations")
	}
	if len(ModifiedObjects(root)) != 0 {
		t.Errorf("ModifiedObjects non-empty after UpdateGenerations cleared all flags")
	}
}
