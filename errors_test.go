package mxfcore

import (
	"errors"
	"testing"
)

func TestAtOffsetFormatAndUnwrap(t *testing.T) {
	err := AtOffset(0xABCD, "klv", ErrTruncatedKey)
	want := "0x0000ABCD in klv: mxfcore: truncated KLV key"
	if err.Error() != want {
		t.Errorf("AtOffset().Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrTruncatedKey) {
		t.Errorf("AtOffset() result does not unwrap to ErrTruncatedKey")
	}
}
