package dict

import mxfcore "github.com/mxfgo/mxfcore"

// standardTypes is the closed set of Basic and Interpretation TypeDefs
// required regardless of what an XML dictionary supplies — the
// primitive wire types every bootstrap class's items bind
// to. Types are in dependency order only as documentation; LoadTypeDefs
// itself tolerates any order via its convergence loop.
var standardTypes = []*TypeDef{
	{Name: "Int8", Kind: KindBasic, Size: 1, BigEndian: true, TraitsName: "Int8"},
	{Name: "UInt8", Kind: KindBasic, Size: 1, BigEndian: true, TraitsName: "UInt8"},
	{Name: "Int16", Kind: KindBasic, Size: 2, BigEndian: true, TraitsName: "Int16"},
	{Name: "UInt16", Kind: KindBasic, Size: 2, BigEndian: true, TraitsName: "UInt16"},
	{Name: "Int32", Kind: KindBasic, Size: 4, BigEndian: true, TraitsName: "Int32"},
	{Name: "UInt32", Kind: KindBasic, Size: 4, BigEndian: true, TraitsName: "UInt32"},
	{Name: "Int64", Kind: KindBasic, Size: 8, BigEndian: true, TraitsName: "Int64"},
	{Name: "UInt64", Kind: KindBasic, Size: 8, BigEndian: true, TraitsName: "UInt64"},
	{Name: "Boolean", Kind: KindBasic, Size: 1, TraitsName: "Boolean"},
	{Name: "UUID", Kind: KindBasic, Size: mxfcore.UUIDLength, TraitsName: "UUID"},
	{Name: "UMID", Kind: KindBasic, Size: mxfcore.UMIDLength, TraitsName: "UMID"},
	{Name: "Label", Kind: KindBasic, Size: mxfcore.ULLength, TraitsName: "Label"},
	{Name: "Rational", Kind: KindBasic, Size: 8, TraitsName: "Rational"},
	{Name: "Timestamp", Kind: KindBasic, Size: 8, TraitsName: "TimeStamp"},
	{Name: "ISO7String", Kind: KindBasic, TraitsName: "ISO7String"},
	{Name: "UTF16String", Kind: KindBasic, TraitsName: "UTF16String"},

	// Position and Length are SMPTE-defined renamings of Int64/UInt64
	// (edit-unit counts and offsets), modelled as Interpretation types
	// so they carry distinct names while reusing the integer Traits.
	{Name: "Position", Kind: KindInterpretation, Base: "Int64", TraitsName: "Int64"},
	{Name: "Length", Kind: KindInterpretation, Base: "UInt64", TraitsName: "UInt64"},
}

// RegisterStandardTypes loads the primitive TypeDef set every bootstrap or
// XML-sourced ClassDef relies on. Safe to call once per Dictionary before
// any ClassDefs referencing these names are loaded.
func RegisterStandardTypes(d *Dictionary) error {
	return d.LoadTypeDefs(standardTypes)
}
