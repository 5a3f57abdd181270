// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dict

import "testing"

func TestRegisterStandardTypesNoUL(t *testing.T) {
	d := New()
	if err := RegisterStandardTypes(d); err != nil {
		t.Fatalf("RegisterStandardTypes: %v", err)
	}
	for _, name := range []string{"UInt8", "UInt32", "Position", "Length", "Rational", "UUID"} {
		if _, ok := d.TypeByName(name); !ok {
			t.Errorf("TypeByName(%s) not found after RegisterStandardTypes", name)
		}
	}
}

func TestRegisterBootstrapBuildsPrefaceHierarchy(t *testing.T) {
	d := New()
	if err := RegisterBootstrap(d); err != nil {
		t.Fatalf("RegisterBootstrap: %v", err)
	}

	preface, ok := d.ClassByName("Preface")
	if !ok {
		t.Fatalf("ClassByName(Preface) not found")
	}
	if preface.ResolvedParent() == nil || preface.ResolvedParent().Name != "GenerationInterchangeObject" {
		t.Errorf("Preface.ResolvedParent() = %v, want GenerationInterchangeObject", preface.ResolvedParent())
	}

	// InstanceUID/Generation should be inherited onto every descendant
	// of InterchangeObject/GenerationInterchangeObject.
	if _, ok := preface.ChildByName("InstanceUID"); !ok {
		t.Errorf("Preface has no InstanceUID among EffectiveChildren (inheritance broken)")
	}

	cdci, ok := d.ClassByName("CDCIEssenceDescriptor")
	if !ok {
		t.Fatalf("ClassByName(CDCIEssenceDescriptor) not found")
	}
	if cdci.ResolvedType() != nil {
		t.Errorf("CDCIEssenceDescriptor is a container class, ResolvedType() should be nil")
	}
}

func TestRegisterBootstrapIdempotentOnAlreadyLoadedTypes(t *testing.T) {
	d := New()
	if err := RegisterStandardTypes(d); err != nil {
		t.Fatalf("RegisterStandardTypes: %v", err)
	}
	// RegisterBootstrap must detect the standard types are already
	// present and not attempt to register them again (which would
	// otherwise fail on duplicate names).
	if err := RegisterBootstrap(d); err != nil {
		t.Fatalf("RegisterBootstrap after pre-loaded standard types: %v", err)
	}
}
