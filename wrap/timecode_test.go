package wrap

import (
	"testing"

	"github.com/mxfgo/mxfcore"
)

func TestFrameRate(t *testing.T) {
	tests := []struct {
		name          string
		rate          mxfcore.Rational
		wantFrameRate uint16
		wantDropFrame bool
	}{
		{"25fps", mxfcore.Rational{Numerator: 25, Denominator: 1}, 25, false},
		{"24fps", mxfcore.Rational{Numerator: 24, Denominator: 1}, 24, false},
		{"29.97 NTSC", mxfcore.Rational{Numerator: 30000, Denominator: 1001}, 30, true},
		{"23.976", mxfcore.Rational{Numerator: 24000, Denominator: 1001}, 24, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr, df := FrameRate(tt.rate)
			if fr != tt.wantFrameRate {
				t.Errorf("FrameRate() frameRate = %d, want %d", fr, tt.wantFrameRate)
			}
			if df != tt.wantDropFrame {
				t.Errorf("FrameRate() dropFrame = %v, want %v", df, tt.wantDropFrame)
			}
		})
	}
}

func TestConvertPositionSameRate(t *testing.T) {
	rate := mxfcore.Rational{Numerator: 25, Denominator: 1}
	got, err := ConvertPosition(100, rate, rate)
	if err != nil {
		t.Fatalf("ConvertPosition: %v", err)
	}
	if got != 100 {
		t.Errorf("ConvertPosition(same rate) = %d, want 100", got)
	}
}

func TestConvertPositionDifferentRates(t *testing.T) {
	from := mxfcore.Rational{Numerator: 25, Denominator: 1}
	to := mxfcore.Rational{Numerator: 50, Denominator: 1}
	got, err := ConvertPosition(10, from, to)
	if err != nil {
		t.Fatalf("ConvertPosition: %v", err)
	}
	if got != 20 {
		t.Errorf("ConvertPosition(25->50, pos 10) = %d, want 20", got)
	}
}

func TestConvertPositionZeroDenominatorGuard(t *testing.T) {
	_, err := ConvertPosition(1, mxfcore.Rational{Numerator: 1, Denominator: 1}, mxfcore.Rational{Numerator: 0, Denominator: 1})
	if err == nil {
		t.Errorf("ConvertPosition(zero target numerator) returned nil error")
	}
}
