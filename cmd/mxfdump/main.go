// Copyright 2026 The mxfgo Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mxfgo/mxfcore"
	"github.com/mxfgo/mxfcore/dict"
	mxflog "github.com/mxfgo/mxfcore/log"
	"github.com/mxfgo/mxfcore/mdobject"
	"github.com/mxfgo/mxfcore/mxffile"
	"github.com/mxfgo/mxfcore/wrap"
)

var (
	verbose bool

	// dump flags
	dumpPartitions bool
	dumpPrimer     bool
	dumpHeader     bool
	dumpAll        bool

	// index flags
	indexSegmentsOnly bool

	// wrap flags
	wrapAtom          bool
	wrapAtom2         bool
	wrapFrame         bool
	wrapInterleave    bool
	wrapIndexOpt      string
	wrapKAG           uint32
	wrapPartitionDur  int64
	wrapPartitionSize int64
	wrapHeaderPad     uint32
	wrapHeaderMin     uint32
	wrapEditRate      string
	wrapUpdateHeader  bool
	wrapOption        int
	wrapEditAlign     bool
	wrapLegacyFill    bool
	wrapPause         bool
	wrapOut           string
	wrapDescriptor    string
	wrapItemType      string
	wrapChunkSize     int
)

func prettyPrint(v interface{}) string {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		log.Println("JSON marshal error:", err)
		return fmt.Sprintf("%+v", v)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf, "", "\t"); err != nil {
		return string(buf)
	}
	return pretty.String()
}

func openDictionary() *dict.Dictionary {
	d := dict.New()
	if err := dict.RegisterBootstrap(d); err != nil {
		log.Fatalf("bootstrap dictionary: %v", err)
	}
	return d
}

func runDump(cmd *cobra.Command, args []string) {
	name := args[0]
	d := openDictionary()

	file, err := mxffile.Open(name, d, &mxffile.Options{AllowDark: true})
	if err != nil {
		log.Printf("error opening %s: %v", name, err)
		os.Exit(1)
	}
	defer file.Close()

	if dumpAll || dumpPartitions {
		fmt.Println(prettyPrint(file.Partitions))
	}
	if dumpAll || dumpPrimer {
		if file.Primer != nil {
			fmt.Println(prettyPrint(file.Primer.Entries()))
		}
	}
	if dumpAll || dumpHeader {
		if file.Preface != nil {
			fmt.Println(describeObject(file.Preface, 0))
		} else {
			fmt.Println("no Preface found")
		}
	}
	if !dumpAll && !dumpPartitions && !dumpPrimer && !dumpHeader {
		fmt.Printf("%d partition(s), %d index segment(s), preface found: %v\n",
			len(file.Partitions), len(file.IndexSegments), file.Preface != nil)
	}
}

// describeObject renders obj and its children as an indented outline —
// the same shallow-recursion shape resource.go's resource-tree dumper
// uses, since MDObject children are already a tree the way a resource
// directory's entries are.
func describeObject(obj *mdobject.MDObject, depth int) string {
	indent := bytes.Repeat([]byte("  "), depth)
	name := "<dark>"
	if obj.Class != nil {
		name = obj.Class.Name
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s%s\n", indent, name)
	for _, c := range obj.Children {
		if c.Target != nil {
			fmt.Fprintf(&buf, "%s  -> %s\n", indent, describeObject(c.Target, 0))
			continue
		}
		buf.WriteString(describeObject(c, depth+1))
	}
	return buf.String()
}

func runIndex(cmd *cobra.Command, args []string) {
	name := args[0]
	d := openDictionary()

	file, err := mxffile.Open(name, d, nil)
	if err != nil {
		log.Printf("error opening %s: %v", name, err)
		os.Exit(1)
	}
	defer file.Close()

	if indexSegmentsOnly || len(file.IndexSegments) > 0 {
		fmt.Println(prettyPrint(file.IndexSegments))
	}
	if file.RIP != nil {
		fmt.Println(prettyPrint(file.RIP.Entries))
	}
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Println("mxfdump 0.1.0")
}

func parseWrappingIndexFlags() mxfcore.SharingPolicy {
	// -i/-ip/-is/-ii/-ii2 select where the index lives relative to
	// metadata and essence; only the Isolated/VeryIsolated axis changes
	// anything this core's SharingPolicy models, the rest
	// (Footer/Sparse/Sprinkled placement) is a Body writer
	// partitioning-policy concern already covered by -pd/-ps.
	switch wrapIndexOpt {
	case "ii", "ii2":
		return mxfcore.SharingPolicy{}
	default:
		return mxfcore.SharingPolicy{IndexMaySharePartition: true, EssenceMaySharePartition: true}
	}
}

func parseEditRate(s string) (mxfcore.Rational, error) {
	if s == "" {
		return mxfcore.Rational{}, nil
	}
	var num, den int32
	if _, err := fmt.Sscanf(s, "%d/%d", &num, &den); err != nil {
		return mxfcore.Rational{}, fmt.Errorf("bad -fr edit rate %q: %w", s, err)
	}
	return mxfcore.Rational{Numerator: num, Denominator: den}, nil
}

func runWrap(cmd *cobra.Command, args []string) {
	name := args[0]
	data, err := os.ReadFile(name)
	if err != nil {
		log.Printf("error reading %s: %v", name, err)
		os.Exit(1)
	}

	d := openDictionary()

	editRate, err := parseEditRate(wrapEditRate)
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
	streamRate := editRate
	if streamRate == (mxfcore.Rational{}) {
		streamRate = mxfcore.Rational{Numerator: 25, Denominator: 1}
	}

	itemType := mxfcore.ItemTypePicture
	if wrapItemType == "sound" {
		itemType = mxfcore.ItemTypeSound
	}

	chunkSize := wrapChunkSize
	if chunkSize <= 0 {
		chunkSize = len(data)
	}

	parser := &wrap.RawParser{
		DescriptorClass: wrapDescriptor,
		ItemType:        itemType,
		EditRate:        streamRate,
		Option: wrap.WrappingOption{
			Name:       "raw",
			CBRCapable: true,
			WrapType:   mxfcore.WrapFrame,
		},
	}
	source := &wrap.ByteSliceSource{Data: data, ChunkSize: chunkSize, Rate: streamRate}

	pattern := wrap.OP1a
	if wrapAtom || wrapAtom2 {
		pattern = wrap.OPAtom
	}

	orchestrator := wrap.NewOrchestrator(d, []wrap.EssenceSubParser{parser})
	result, err := orchestrator.Wrap([][]byte{data}, []mxfcore.EssenceSource{source}, wrap.WrapOptions{
		Pattern:          pattern,
		OptionOrdinal:    wrapOption,
		KAGSize:          wrapKAG,
		ForceLongFill:    wrapHeaderPad > 0,
		LegacyFill:       wrapLegacyFill,
		UpdateHeader:     wrapUpdateHeader,
		HeaderPadding:    int(wrapHeaderMin),
		Partition:        bodyPartitionPolicy(),
		DurationLimit:    wrapPartitionDur,
		SizeLimit:        wrapPartitionSize,
		Sharing:          parseWrappingIndexFlags(),
		CompanyName:      "mxfgo",
		ProductName:      "mxfdump",
		ProductVersion:   "0.1.0",
		EditRateOverride: editRate,
	})
	if err != nil {
		log.Printf("wrap failed: %v", err)
		os.Exit(1)
	}

	out := wrapOut
	if out == "" {
		out = name + ".mxf"
	}
	f, err := os.Create(out)
	if err != nil {
		log.Printf("error creating %s: %v", out, err)
		os.Exit(1)
	}
	defer f.Close()
	for _, part := range result.Partitions {
		if _, err := f.Write(part.Bytes); err != nil {
			log.Printf("error writing %s: %v", out, err)
			os.Exit(1)
		}
	}
	fmt.Printf("wrote %s (%d partitions, generation %s)\n", out, len(result.Partitions), result.GenerationID)

	if wrapPause {
		fmt.Println("press ctrl-c to exit")
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		<-sigCh
	}
}

func bodyPartitionPolicy() mxfcore.BodyPartitionPolicy {
	switch {
	case wrapPartitionDur > 0:
		return mxfcore.BodyDuration
	case wrapPartitionSize > 0:
		return mxfcore.BodySize
	default:
		return mxfcore.BodyNone
	}
}

func main() {
	logger := mxflog.Default()

	rootCmd := &cobra.Command{
		Use:   "mxfdump",
		Short: "An SMPTE 377M MXF file parser and wrapper",
		Long:  "mxfdump inspects and builds Material Exchange Format files, built for speed and essence-format plug-ins in mind.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Long:  "Print version number",
		Run:   runVersion,
	}

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Dumps an MXF file's structure",
		Long:  "Dumps partitions, the Primer, and the Header Metadata object graph of an MXF file",
		Args:  cobra.ExactArgs(1),
		Run:   runDump,
	}

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Dumps an MXF file's index tables",
		Long:  "Dumps the Random Index Pack and every Index Table Segment found in the file",
		Args:  cobra.ExactArgs(1),
		Run:   runIndex,
	}

	wrapCmd := &cobra.Command{
		Use:   "wrap",
		Short: "Wraps a raw essence file into a new MXF file",
		Long:  "Wraps a file of raw essence bytes into a Header/Body/Footer MXF partition sequence",
		Args:  cobra.ExactArgs(1),
		Run:   runWrap,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(wrapCmd)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	dumpCmd.Flags().BoolVarP(&dumpPartitions, "partitions", "", false, "Dump Partition Packs")
	dumpCmd.Flags().BoolVarP(&dumpPrimer, "primer", "", false, "Dump the Primer Pack")
	dumpCmd.Flags().BoolVarP(&dumpHeader, "header", "", false, "Dump the Header Metadata object graph")
	dumpCmd.Flags().BoolVarP(&dumpAll, "all", "", false, "Dump everything")

	indexCmd.Flags().BoolVarP(&indexSegmentsOnly, "segments", "", false, "Dump Index Table Segments only")

	wrapCmd.Flags().BoolVarP(&wrapAtom, "atom", "a", false, "Force OP-Atom")
	wrapCmd.Flags().BoolVarP(&wrapAtom2, "atom2", "", false, "Force OP-Atom, 2-partition VBR layout")
	wrapCmd.Flags().BoolVarP(&wrapFrame, "frame", "f", false, "Frame-wrap and group")
	wrapCmd.Flags().BoolVarP(&wrapInterleave, "stream", "s", false, "Interleave for streaming")
	wrapCmd.Flags().StringVarP(&wrapIndexOpt, "index", "i", "", "Index option: i, ip, is, ii, ii2")
	wrapCmd.Flags().Uint32Var(&wrapKAG, "ka", 0, "KAG size")
	wrapCmd.Flags().Int64Var(&wrapPartitionDur, "pd", 0, "Body partition by duration (edit units)")
	wrapCmd.Flags().Int64Var(&wrapPartitionSize, "ps", 0, "Body partition by size (bytes)")
	wrapCmd.Flags().Uint32Var(&wrapHeaderPad, "hp", 0, "Header padding")
	wrapCmd.Flags().Uint32Var(&wrapHeaderMin, "hs", 0, "Minimum header partition padding reserved for the post-footer rewrite (used with -u)")
	wrapCmd.Flags().StringVar(&wrapEditRate, "fr", "", "Force edit rate, N/D")
	wrapCmd.Flags().BoolVarP(&wrapUpdateHeader, "update-header", "u", false, "Rewrite header after footer")
	wrapCmd.Flags().IntVarP(&wrapOption, "wrapping-option", "w", -1, "Select wrapping option by ordinal (-1 or 0 auto-selects)")
	wrapCmd.Flags().BoolVarP(&wrapEditAlign, "edit-align", "e", false, "Align partition boundaries to edit points")
	wrapCmd.Flags().BoolVarP(&wrapLegacyFill, "legacy-fill", "1", false, "Legacy KLVFill key")
	wrapCmd.Flags().BoolVarP(&wrapPause, "pause", "z", false, "Pause before exit")
	wrapCmd.Flags().StringVarP(&wrapOut, "out", "o", "", "Output file path")
	wrapCmd.Flags().StringVar(&wrapDescriptor, "descriptor", "CDCIEssenceDescriptor", "File Descriptor ClassDef name")
	wrapCmd.Flags().StringVar(&wrapItemType, "item-type", "picture", "Essence item type: picture or sound")
	wrapCmd.Flags().IntVar(&wrapChunkSize, "chunk-size", 0, "Fixed edit-unit byte size (0 wraps the whole file as one unit)")

	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
