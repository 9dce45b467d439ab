package hardware

import (
	"fmt"

	"github.com/gogpu/splatview"
)

// Style selects the primitive each splat becomes.
type Style uint8

const (
	// StylePoints draws points up to the device limit, quads above it.
	StylePoints Style = iota
	// StylePointsRound draws round points, textured triangles above the
	// device limit.
	StylePointsRound
	// StyleQuads draws camera-facing squares.
	StyleQuads
	// StylePolysRound draws textured triangles clipped to a disc.
	StylePolysRound
	// StyleEllipses draws discs in the splat's tangent plane.
	StyleEllipses
	// StyleEllipsesSmall is StyleEllipses without the disc enlargement,
	// for splats with a tight radius.
	StyleEllipsesSmall
	// StyleSpheres draws a tessellated sphere per splat.
	StyleSpheres
)

var styleNames = [...]string{
	StylePoints:        "Points",
	StylePointsRound:   "PointsRound",
	StyleQuads:         "Quads",
	StylePolysRound:    "PolysRound",
	StyleEllipses:      "Ellipses",
	StyleEllipsesSmall: "EllipsesSmall",
	StyleSpheres:       "Spheres",
}

// String returns the style name.
func (s Style) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}
	return fmt.Sprintf("Style(%d)", s)
}

// Textured reports whether the style binds the radial mask.
func (s Style) Textured() bool {
	switch s {
	case StylePointsRound, StylePolysRound, StyleEllipses, StyleEllipsesSmall:
		return true
	}
	return false
}

// StyleFor maps a hardware driver to its style.
func StyleFor(d splatview.Driver) (Style, bool) {
	switch d {
	case splatview.DriverPoints:
		return StylePoints, true
	case splatview.DriverPointsRound:
		return StylePointsRound, true
	case splatview.DriverQuads:
		return StyleQuads, true
	case splatview.DriverPolysRound:
		return StylePolysRound, true
	case splatview.DriverEllipses:
		return StyleEllipses, true
	case splatview.DriverEllipsesSmall:
		return StyleEllipsesSmall, true
	case splatview.DriverSpheres:
		return StyleSpheres, true
	}
	return 0, false
}
