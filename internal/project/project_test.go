package project

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/gogpu/splatview"
)

const eps = 1e-4

func near(a, b float32) bool { return math32.Abs(a-b) < eps }

func identityView(w, h int) splatview.View {
	return splatview.View{
		Projection: splatview.Identity(),
		ModelView:  splatview.Identity(),
		Width:      w,
		Height:     h,
	}
}

func TestProjectIdentity(t *testing.T) {
	pr := New(identityView(200, 100))
	tests := []struct {
		name    string
		p       [3]float32
		x, y, z float32
	}{
		{"center", [3]float32{0, 0, 0}, 100, 50, 0.5},
		{"top right", [3]float32{1, 1, 0}, 200, 0, 0.5},
		{"bottom left", [3]float32{-1, -1, -1}, 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z, ok := pr.Project(tt.p)
			if !ok {
				t.Fatal("Project() ok = false, want true")
			}
			if !near(x, tt.x) || !near(y, tt.y) || !near(z, tt.z) {
				t.Errorf("Project(%v) = (%v, %v, %v), want (%v, %v, %v)", tt.p, x, y, z, tt.x, tt.y, tt.z)
			}
		})
	}
}

func TestProjectPerspective(t *testing.T) {
	v := identityView(64, 64)
	v.Projection = Perspective(math32.Pi/2, 1, 1, 100)
	v.ModelView = Translate(0, 0, -10)
	pr := New(v)

	x, y, z, ok := pr.Project([3]float32{0, 0, 0})
	if !ok {
		t.Fatal("Project() ok = false for point in front of the eye")
	}
	if !near(x, 32) || !near(y, 32) {
		t.Errorf("Project(origin) = (%v, %v), want (32, 32)", x, y)
	}
	if z <= 0 || z >= 1 {
		t.Errorf("Project(origin) z = %v, want in (0, 1)", z)
	}

	if _, _, _, ok := pr.Project([3]float32{0, 0, 20}); ok {
		t.Error("Project() ok = true for point behind the eye")
	}

	_, _, zNear, _ := pr.Project([3]float32{0, 0, 9})
	if !near(zNear, 0) {
		t.Errorf("Project(near plane) z = %v, want 0", zNear)
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	if got := Mul(splatview.Identity(), m); got != m {
		t.Errorf("Mul(I, T) = %v, want %v", got, m)
	}
	if got := Mul(m, splatview.Identity()); got != m {
		t.Errorf("Mul(T, I) = %v, want %v", got, m)
	}
}

func TestLightToModel(t *testing.T) {
	light := [3]float32{0, 0, 1}
	if got := LightToModel(light, splatview.Identity()); got != light {
		t.Errorf("LightToModel(identity) = %v, want %v", got, light)
	}
	got := LightToModel(light, RotateY(math32.Pi/2))
	want := [3]float32{-1, 0, 0}
	for i := range 3 {
		if !near(got[i], want[i]) {
			t.Fatalf("LightToModel(rotY 90) = %v, want %v", got, want)
		}
	}
}

func TestCameraPosition(t *testing.T) {
	got := CameraPosition(Translate(0, 0, -5))
	want := [3]float32{0, 0, 5}
	if got != want {
		t.Errorf("CameraPosition() = %v, want %v", got, want)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([3]float32{3, 0, 4})
	if !near(got[0], 0.6) || !near(got[2], 0.8) {
		t.Errorf("Normalize(3,0,4) = %v, want (0.6, 0, 0.8)", got)
	}
	if got := Normalize([3]float32{}); got != ([3]float32{}) {
		t.Errorf("Normalize(zero) = %v, want zero", got)
	}
}
