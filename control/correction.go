package control

import (
	"math"
	"time"

	"github.com/chewxy/math32"
)

// Frame budget constants.
const (
	// BailCorrection coarsens the model after a frame that bailed outside
	// refinement, when its elapsed time says nothing about its full cost.
	BailCorrection = 4.0

	// DefaultSettleDelay is the quiet time after input before refinement
	// starts.
	DefaultSettleDelay = 500 * time.Millisecond

	// abortFactor and abortSlack set how far past its period a frame may
	// run before queued input may abort it.
	abortFactor = 1.2
	abortSlack  = 100 * time.Millisecond
)

// Correction returns the level-of-detail factor for a frame that took
// elapsed at the desired rate. The raw ratio elapsed*rate is damped by its
// own fourth root toward 1, so repeated corrections converge without
// overshooting.
func Correction(elapsed time.Duration, rate float32) float32 {
	f := float32(elapsed.Seconds()) * rate
	if f <= 0 {
		return 1
	}
	return math32.Pow(f, 0.75)
}

// AbortDeadline is the time after which a frame at the desired rate may be
// aborted by pending input.
func AbortDeadline(rate float32) time.Duration {
	return time.Duration(math.Round(abortFactor/float64(rate)*float64(time.Second))) + abortSlack
}

// period is the frame time at rate.
func period(rate float32) time.Duration {
	return time.Duration(math.Round(float64(time.Second) / float64(rate)))
}
