// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package mxffile opens an MXF file for reading: it memory-maps the
// file, walks every top-level KLV in partition order, and assembles
// the parsed Partition Packs, Primer, Index Table Segments and
// metadata object graph behind a single File handle.
package mxffile

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"github.com/mxfgo/mxfcore"
	"github.com/mxfgo/mxfcore/dict"
	"github.com/mxfgo/mxfcore/log"
	"github.com/mxfgo/mxfcore/mdobject"
)

// File is a memory-mapped, fully-scanned MXF file.
type File struct {
	Partitions    []*mxfcore.Partition
	RIP           *mxfcore.RIP
	Primer        *mxfcore.Primer
	IndexSegments []*mxfcore.IndexSegment
	Graph         *mdobject.Graph
	Preface       *mdobject.MDObject

	Dictionary *dict.Dictionary

	data   mmap.MMap
	f      *os.File
	logger *log.Helper
}

// Options controls how Open reads a file.
type Options struct {
	// AllowDark keeps unrecognised metadata items/classes as Dark
	// placeholders instead of dropping them.
	AllowDark bool

	// Logger receives structural warnings encountered during the scan
	// (a truncated RIP, a partition offset mismatch); nil uses
	// log.Default().
	Logger *log.Helper
}

// Open memory-maps name read-only and scans it into a File. The whole
// byte range is mapped up front, matching file.go's own New: random
// access to any partition or index segment is then a slice operation,
// never a re-read.
func Open(name string, d *dict.Dictionary, opts *Options) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	file := &File{Dictionary: d, data: data, f: f, logger: logger}
	if err := file.scan(opts.AllowDark); err != nil {
		file.Close()
		return nil, err
	}
	return file, nil
}

// Close unmaps and closes the underlying file.
func (file *File) Close() error {
	if file.data != nil {
		if err := file.data.Unmap(); err != nil {
			return err
		}
	}
	if file.f != nil {
		return file.f.Close()
	}
	return nil
}

// Bytes returns the whole mapped file contents.
func (file *File) Bytes() []byte { return file.data }

// scan walks every top-level KLV in file.data in order, classifying
// each by key: Partition Pack, Primer Pack, KLVFill (skipped), RIP,
// IndexTableSegment, or a dictionary-recognised metadata Set — anything
// else is assumed to be Generic Container essence and simply skipped
// over by its declared length, without interpreting payload nothing
// asked for it.
func (file *File) scan(allowDark bool) error {
	data := file.data
	wrapper := &mdobject.MDObject{}
	graph := mdobject.NewGraph(file.Dictionary, wrapper)
	file.Graph = graph

	var primer *mxfcore.Primer
	var offset int64
	for offset < int64(len(data)) {
		triple, consumed, err := mxfcore.ReadKLV(data[offset:], offset)
		if err != nil {
			return err
		}
		if consumed == 0 {
			return errors.New("mxffile: zero-length KLV at offset")
		}

		switch {
		case triple.Key == mxfcore.KLVFillKeyV1 || triple.Key == mxfcore.KLVFillKeyV2:
			// fill, nothing to keep.

		case triple.Key == mxfcore.RIPKey:
			// Only valid as the file's final KLV; DecodeRIP below finds
			// it by seeking from EOF, so a mid-stream RIP key (it never
			// legitimately recurs) is simply skipped here too.

		case triple.Key == mxfcore.PrimerPackKey:
			p, err := mxfcore.DecodePrimerPack(triple.Value)
			if err != nil {
				return errors.Wrap(err, "primer pack")
			}
			primer = p
			file.Primer = p

		case mxfcore.IsIndexTableSegmentKey(triple.Key):
			seg, err := mxfcore.DecodeIndexTableSegment(triple.Value)
			if err != nil {
				file.logger.Warnf("skipping malformed index table segment at 0x%X: %v", offset, err)
			} else {
				file.IndexSegments = append(file.IndexSegments, seg)
			}

		default:
			if item, status, ok := mxfcore.ClassifyPartitionKey(triple.Key); ok {
				p, err := mxfcore.DecodePartitionPack(triple.Key, triple.Value)
				if err != nil {
					return errors.Wrapf(err, "partition pack (item %d status %d) at 0x%X", item, status, offset)
				}
				file.Partitions = append(file.Partitions, p)
				break
			}

			class, ok := file.Dictionary.ClassByUL(triple.Key)
			if !ok || primer == nil {
				// Unrecognised key, or a recognised one seen before any
				// Primer Pack: Generic Container essence, not metadata.
				break
			}
			obj, err := graph.ParseSet(class, primer, triple.Value, allowDark)
			if err != nil {
				return errors.Wrapf(err, "metadata set %s at 0x%X", class.Name, offset)
			}
			wrapper.Children = append(wrapper.Children, obj)
		}

		offset += int64(consumed)
	}

	if rip, err := mxfcore.DecodeRIP(data); err == nil {
		file.RIP = rip
	} else {
		file.logger.Debugf("no random index pack: %v", err)
	}

	if err := graph.ResolveReferences(); err != nil {
		return err
	}
	if err := mdobject.CheckAcyclic(wrapper); err != nil {
		return err
	}

	for _, c := range wrapper.Children {
		if c.Class != nil && c.Class.Name == "Preface" {
			file.Preface = c
			break
		}
	}
	return nil
}
