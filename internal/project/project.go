// Package project maps splat centers from model space to screen space.
//
// The model-view and projection matrices of a View are composed once per
// frame so each splat costs one 4x4 transform and a divide.
package project

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/splatview"
)

// Mul returns a*b for column-major 4x4 matrices.
func Mul(a, b [16]float32) [16]float32 {
	var out [16]float32
	for col := range 4 {
		for row := range 4 {
			var s float32
			for k := range 4 {
				s += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = s
		}
	}
	return out
}

// Projector transforms model-space points into top-down pixel coordinates.
type Projector struct {
	m             [16]float32
	width, height float32
}

// New composes the projection and model-view of v.
func New(v splatview.View) Projector {
	return Projector{
		m:      Mul(v.Projection, v.ModelView),
		width:  float32(v.Width),
		height: float32(v.Height),
	}
}

// Project returns the pixel position of p with row 0 at the top of the
// viewport, and its window depth in [0, 1] for points between the clip
// planes. ok is false for points at or behind the eye.
func (pr *Projector) Project(p [3]float32) (x, y, z float32, ok bool) {
	m := &pr.m
	cx := m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	cy := m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	cz := m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	cw := m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	if cw <= 0 {
		return 0, 0, 0, false
	}
	inv := 1 / cw
	x = (cx*inv*0.5 + 0.5) * pr.width
	y = pr.height - (cy*inv*0.5+0.5)*pr.height
	z = cz*inv*0.5 + 0.5
	return x, y, z, true
}

// LightToModel rotates an eye-space direction into model space using the
// inverse of the rotation part of modelView. The rotation is assumed
// orthonormal.
func LightToModel(light [3]float32, modelView [16]float32) [3]float32 {
	m := &modelView
	return [3]float32{
		light[0]*m[0] + light[1]*m[1] + light[2]*m[2],
		light[0]*m[4] + light[1]*m[5] + light[2]*m[6],
		light[0]*m[8] + light[1]*m[9] + light[2]*m[10],
	}
}

// CameraPosition returns the eye position in model space.
func CameraPosition(modelView [16]float32) [3]float32 {
	m := &modelView
	return [3]float32{
		-(m[0]*m[12] + m[1]*m[13] + m[2]*m[14]),
		-(m[4]*m[12] + m[5]*m[13] + m[6]*m[14]),
		-(m[8]*m[12] + m[9]*m[13] + m[10]*m[14]),
	}
}

// Normalize returns v scaled to unit length, or v unchanged when it is zero.
func Normalize(v [3]float32) [3]float32 {
	l := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// Perspective returns a column-major perspective projection with a
// vertical field of view in radians.
func Perspective(fovy, aspect, near, far float32) [16]float32 {
	f := 1 / math32.Tan(fovy/2)
	nf := 1 / (near - far)
	return [16]float32{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// Translate returns a column-major translation matrix.
func Translate(x, y, z float32) [16]float32 {
	m := splatview.Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// RotateY returns a column-major rotation about the Y axis.
func RotateY(angle float32) [16]float32 {
	s, c := math32.Sincos(angle)
	m := splatview.Identity()
	m[0], m[2] = c, -s
	m[8], m[10] = s, c
	return m
}
