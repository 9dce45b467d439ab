package splatview

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDriver is returned for a driver name or value that does not
// exist.
var ErrUnknownDriver = errors.New("splatview: unknown driver")

// Driver selects the splat rendering style.
type Driver int

const (
	// DriverPoints draws small splats as square points and large ones as quads.
	DriverPoints Driver = iota

	// DriverPointsRound draws round points, falling back to masked triangles.
	DriverPointsRound

	// DriverQuads always draws camera-facing quads.
	DriverQuads

	// DriverPolysRound always draws one masked triangle per splat.
	DriverPolysRound

	// DriverEllipses draws perspective-correct masked ellipses.
	DriverEllipses

	// DriverEllipsesSmall is DriverEllipses with a tighter footprint.
	DriverEllipsesSmall

	// DriverSpheres draws a tessellated sphere per splat.
	DriverSpheres

	// DriverSoftware rasterizes on the CPU with a per-pixel depth buffer.
	DriverSoftware

	// DriverSoftwareTiles rasterizes on the CPU with Z-sorted tiles.
	DriverSoftwareTiles

	// DriverSoftwareAuto picks DriverSoftware or DriverSoftwareTiles per
	// frame based on the model's finest splat size.
	DriverSoftwareAuto

	driverCount
)

var driverNames = [driverCount]string{
	DriverPoints:        "Points",
	DriverPointsRound:   "PointsRound",
	DriverQuads:         "Quads",
	DriverPolysRound:    "PolysRound",
	DriverEllipses:      "Ellipses",
	DriverEllipsesSmall: "EllipsesSmall",
	DriverSpheres:       "Spheres",
	DriverSoftware:      "Software",
	DriverSoftwareTiles: "SoftwareTiles",
	DriverSoftwareAuto:  "SoftwareAuto",
}

// String returns the driver name.
func (d Driver) String() string {
	if d < 0 || d >= driverCount {
		return "Unknown"
	}
	return driverNames[d]
}

// Software reports whether the driver rasterizes on the CPU.
func (d Driver) Software() bool {
	return d == DriverSoftware || d == DriverSoftwareTiles || d == DriverSoftwareAuto
}

// DefaultRate is the starting desired frame rate in frames per second.
// CPU rasterizers start at a lower rate than hardware drivers.
func (d Driver) DefaultRate() float32 {
	if d.Software() {
		return 4
	}
	return 8
}

// Valid reports whether d names a known driver.
func (d Driver) Valid() bool {
	return d >= 0 && d < driverCount
}

// Drivers returns every known driver in declaration order.
func Drivers() []Driver {
	out := make([]Driver, driverCount)
	for i := range out {
		out[i] = Driver(i)
	}
	return out
}

// ParseDriver returns the driver with the given name, ignoring case.
func ParseDriver(name string) (Driver, error) {
	for i, n := range driverNames {
		if strings.EqualFold(n, name) {
			return Driver(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownDriver, name)
}
