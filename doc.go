// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package mxfcore implements the core of a SMPTE 377M Material
// Exchange Format (MXF) library: primitive byte codecs, a KLV framer,
// partition and Random Index Pack handling, the index table engine,
// and the essence/Generic-Container/Body-writer write pipeline.
//
// The typed metadata dictionary and object graph live in the sibling
// packages dict and mdobject; the package/track/descriptor wrapping
// orchestrator lives in wrap.
package mxfcore
