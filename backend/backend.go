package backend

import (
	"errors"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/backend/hardware"
	"github.com/gogpu/splatview/surface"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a driver has no factory or
	// its factory lacks what it needs.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// TilesCrossover is the finest splat size in pixels from which
// DriverSoftwareAuto prefers the tile rasterizer.
const TilesCrossover = 7

// Frame describes one frame to render.
type Frame struct {
	View     splatview.View
	HasColor bool

	// MinSize is the model's current finest splat size in pixels.
	MinSize float32
}

// Config is what factories build renderers from.
type Config struct {
	// Presenter receives software frames. Nil means the available
	// presenters of surface.Default().
	Presenter surface.Presenter

	// Pipeline receives hardware geometry. Hardware factories fail with
	// ErrBackendNotAvailable when it is nil.
	Pipeline hardware.Pipeline

	// Workers is the number of goroutines the tile rasterizer flushes on.
	Workers int
}

// Resolve maps DriverSoftwareAuto to a concrete driver for a frame whose
// finest splats are minSize pixels wide. Other drivers are returned as is.
func Resolve(d splatview.Driver, minSize float32) splatview.Driver {
	if d != splatview.DriverSoftwareAuto {
		return d
	}
	if minSize < TilesCrossover {
		return splatview.DriverSoftware
	}
	return splatview.DriverSoftwareTiles
}
