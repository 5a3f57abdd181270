package wrap

import (
	"fmt"

	mxfcore "github.com/mxfgo/mxfcore"
)

// FrameRate infers the nominal integer frame rate of an edit rate as
// ceil(Numerator / Denominator), and reports DropFrame whenever the
// denominator isn't 1 — the NTSC-family 1000/1001 rates being the
// only ones that occur in practice.
func FrameRate(editRate mxfcore.Rational) (frameRate uint16, dropFrame bool) {
	n, d := int64(editRate.Numerator), int64(editRate.Denominator)
	if d <= 0 {
		d = 1
	}
	fr := (n + d - 1) / d
	return uint16(fr), editRate.Denominator != 1
}

// maxInt32 bounds the overflow guard below: both reduced rate terms
// must fit in 32 bits before the cross-multiply.
const maxInt32 = 1<<31 - 1

// ConvertPosition converts a position measured in fromRate edit units
// to the equivalent position in toRate edit units, reducing both
// rates first and refusing the conversion (returning
// ErrTimecodeOverflow) if either reduced term would not fit a signed
// 32-bit value before the Int64 cross-multiply.
func ConvertPosition(pos int64, fromRate, toRate mxfcore.Rational) (int64, error) {
	fromRate = fromRate.Reduce()
	toRate = toRate.Reduce()

	for _, r := range []mxfcore.Rational{fromRate, toRate} {
		if abs32(r.Numerator) > maxInt32 || abs32(r.Denominator) > maxInt32 {
			return 0, fmt.Errorf("%w: rate %d/%d exceeds 32-bit guard", ErrTimecodeOverflow, r.Numerator, r.Denominator)
		}
	}

	num := pos * int64(fromRate.Numerator) * int64(toRate.Denominator)
	den := int64(fromRate.Denominator) * int64(toRate.Numerator)
	if den == 0 {
		return 0, fmt.Errorf("%w: zero denominator converting %d/%d -> %d/%d", ErrTimecodeOverflow, fromRate.Numerator, fromRate.Denominator, toRate.Numerator, toRate.Denominator)
	}
	return num / den, nil
}

func abs32(n int32) int64 {
	if n < 0 {
		return int64(-n)
	}
	return int64(n)
}
