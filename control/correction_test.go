package control

import (
	"testing"
	"time"

	"github.com/chewxy/math32"
)

func TestCorrection(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		rate    float32
		want    float32
	}{
		{"on budget", time.Second, 1, 1},
		{"twice as slow", 2 * time.Second, 1, 1.6817929},
		{"twice as fast", 500 * time.Millisecond, 1, 0.5946036},
		{"at 8 fps", 250 * time.Millisecond, 8, 1.6817929},
		{"zero elapsed", 0, 8, 1},
		{"zero rate", time.Second, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Correction(tt.elapsed, tt.rate)
			if math32.Abs(got-tt.want) > 1e-5 {
				t.Errorf("Correction(%v, %v) = %v, want %v", tt.elapsed, tt.rate, got, tt.want)
			}
		})
	}
}

// TestCorrectionSymmetric checks that slow and fast frames by the same
// ratio produce reciprocal corrections.
func TestCorrectionSymmetric(t *testing.T) {
	for _, ratio := range []float64{1.5, 2, 4, 10} {
		slow := Correction(time.Duration(ratio*float64(time.Second)), 1)
		fast := Correction(time.Duration(float64(time.Second)/ratio), 1)
		if got := slow * fast; math32.Abs(got-1) > 1e-4 {
			t.Errorf("Correction(%v)*Correction(1/%v) = %v, want 1", ratio, ratio, got)
		}
		if slow <= 1 || fast >= 1 {
			t.Errorf("ratio %v: slow = %v, fast = %v, want slow > 1 > fast", ratio, slow, fast)
		}
	}
}

func TestAbortDeadline(t *testing.T) {
	tests := []struct {
		rate float32
		want time.Duration
	}{
		{8, 250 * time.Millisecond},
		{4, 400 * time.Millisecond},
		{1, 1300 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := AbortDeadline(tt.rate); got != tt.want {
			t.Errorf("AbortDeadline(%v) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestPeriod(t *testing.T) {
	if got := period(8); got != 125*time.Millisecond {
		t.Errorf("period(8) = %v, want 125ms", got)
	}
	if got := period(4); got != 250*time.Millisecond {
		t.Errorf("period(4) = %v, want 250ms", got)
	}
}
