// Package synth builds synthetic splat hierarchies for demos and tests.
//
// A Model is a binary bounding-sphere tree over surface samples. Draw walks
// it depth first in tree order, without sorting by view depth, and stops
// descending at nodes whose projected diameter is below the current minimum
// size, so the number of splats per frame falls with the square of that size.
package synth

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/internal/project"
)

// Level-of-detail limits in pixels.
const (
	DefaultMinSize = 8
	DefaultFinest  = 1
	DefaultCoarse  = 256

	// refineStep is the factor Refine divides the minimum size by.
	refineStep = math32.Sqrt2

	// pollEvery is how many nodes Draw visits between cancel polls.
	pollEvery = 1024
)

// ErrNoSamples is returned when a model would have no splats.
var ErrNoSamples = errors.New("synth: no samples")

type node struct {
	center [3]float32
	normal [3]float32
	color  [3]float32
	radius float32

	// left and right index the children, -1 for a leaf.
	left, right int32
}

// Option configures a Model.
type Option func(*Model)

// WithColor gives every splat a color derived from its normal.
func WithColor(on bool) Option {
	return func(m *Model) {
		m.hasColor = on
	}
}

// WithLimits sets the default, finest and coarsest minimum sizes.
func WithLimits(initial, finest, coarsest float32) Option {
	return func(m *Model) {
		m.initial, m.finest, m.coarsest = initial, finest, coarsest
	}
}

// Model is a synthetic splatview.Model.
//
// Model is NOT safe for concurrent use.
type Model struct {
	nodes []node
	root  int32
	stack []int32

	hasColor bool
	initial  float32
	finest   float32
	coarsest float32

	minSize float32
	saved   float32

	mvp   [16]float32
	proj  project.Projector
	scale float32
	w, h  float32
	drawn int
}

// NewSphere returns a model of n samples spread evenly over the unit
// sphere.
func NewSphere(n int, opts ...Option) (*Model, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoSamples, n)
	}
	golden := math32.Pi * (3 - math32.Sqrt(5))
	radius := 0.7 * math32.Sqrt(4*math32.Pi/float32(n))

	leaves := make([]node, n)
	for i := range leaves {
		z := 1 - (float32(i)+0.5)*2/float32(n)
		r := math32.Sqrt(max(0, 1-z*z))
		s, c := math32.Sincos(golden * float32(i))
		p := [3]float32{r * c, r * s, z}
		leaves[i] = node{center: p, normal: p, color: normalColor(p), radius: radius, left: -1, right: -1}
	}
	return build(leaves, opts)
}

// NewFromSplats returns a model over arbitrary leaf splats.
func NewFromSplats(splats []splatview.Splat, opts ...Option) (*Model, error) {
	if len(splats) == 0 {
		return nil, ErrNoSamples
	}
	leaves := make([]node, len(splats))
	for i, s := range splats {
		leaves[i] = node{center: s.Center, normal: s.Normal, color: s.Color, radius: s.Radius, left: -1, right: -1}
	}
	return build(leaves, opts)
}

func build(leaves []node, opts []Option) (*Model, error) {
	m := &Model{
		initial:  DefaultMinSize,
		finest:   DefaultFinest,
		coarsest: DefaultCoarse,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.finest <= 0 || m.finest > m.coarsest {
		return nil, fmt.Errorf("synth: invalid limits %v..%v", m.finest, m.coarsest)
	}
	m.initial = clamp(m.initial, m.finest, m.coarsest)

	m.nodes = make([]node, 0, 2*len(leaves)-1)
	m.root = m.split(leaves)
	m.ResetRate()
	return m, nil
}

// split builds the subtree over leaves by halving along the widest axis
// and returns its node index. leaves is reordered.
func (m *Model) split(leaves []node) int32 {
	if len(leaves) == 1 {
		m.nodes = append(m.nodes, leaves[0])
		return int32(len(m.nodes) - 1)
	}

	lo, hi := leaves[0].center, leaves[0].center
	for _, l := range leaves[1:] {
		for k := range 3 {
			lo[k] = min(lo[k], l.center[k])
			hi[k] = max(hi[k], l.center[k])
		}
	}
	axis := 0
	for k := 1; k < 3; k++ {
		if hi[k]-lo[k] > hi[axis]-lo[axis] {
			axis = k
		}
	}
	mid := len(leaves) / 2
	selectNth(leaves, mid, axis)

	left := m.split(leaves[:mid])
	right := m.split(leaves[mid:])
	m.nodes = append(m.nodes, merge(&m.nodes[left], &m.nodes[right], float32(mid), float32(len(leaves)-mid), left, right))
	return int32(len(m.nodes) - 1)
}

// merge returns a node bounding a and b, weighted by their leaf counts.
func merge(a, b *node, wa, wb float32, left, right int32) node {
	t := wb / (wa + wb)
	var n node
	for k := range 3 {
		n.center[k] = a.center[k] + t*(b.center[k]-a.center[k])
		n.normal[k] = a.normal[k]*wa + b.normal[k]*wb
		n.color[k] = a.color[k] + t*(b.color[k]-a.color[k])
	}
	n.normal = project.Normalize(n.normal)
	n.radius = max(dist(n.center, a.center)+a.radius, dist(n.center, b.center)+b.radius)
	n.left, n.right = left, right
	return n
}

// selectNth partially orders leaves so the element at k has the k-th
// smallest coordinate on axis.
func selectNth(leaves []node, k, axis int) {
	lo, hi := 0, len(leaves)-1
	for lo < hi {
		pivot := leaves[(lo+hi)/2].center[axis]
		i, j := lo, hi
		for i <= j {
			for leaves[i].center[axis] < pivot {
				i++
			}
			for leaves[j].center[axis] > pivot {
				j--
			}
			if i <= j {
				leaves[i], leaves[j] = leaves[j], leaves[i]
				i++
				j--
			}
		}
		switch {
		case k <= j:
			hi = j
		case k >= i:
			lo = i
		default:
			return
		}
	}
}

// SetView sets the camera used by the next Draw. Draw emits nothing
// before the first SetView.
func (m *Model) SetView(v splatview.View) {
	m.mvp = project.Mul(v.Projection, v.ModelView)
	m.proj = project.New(v)
	m.scale = v.Projection[5] * float32(v.Height) / 2
	m.w, m.h = float32(v.Width), float32(v.Height)
}

// Draw implements splatview.Model.
func (m *Model) Draw(emit func(*splatview.Splat), cancel splatview.CancelFunc) bool {
	m.drawn = 0
	var s splatview.Splat
	s.HasColor = m.hasColor

	m.stack = append(m.stack[:0], m.root)
	visited := 0
	for len(m.stack) > 0 {
		visited++
		if visited%pollEvery == 0 && cancel != nil && cancel() {
			return true
		}
		i := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		n := &m.nodes[i]

		size, ok := m.footprint(n)
		if !ok {
			continue
		}
		if n.left >= 0 && size >= m.minSize {
			m.stack = append(m.stack, n.right, n.left)
			continue
		}
		s.Center, s.Normal, s.Color = n.center, n.normal, n.color
		s.Radius, s.Size = n.radius, size
		emit(&s)
		m.drawn++
	}
	return false
}

// footprint returns the projected diameter of n in pixels. ok is false
// when n is behind the eye or entirely outside the viewport.
func (m *Model) footprint(n *node) (float32, bool) {
	c := &m.mvp
	p := n.center
	w := c[3]*p[0] + c[7]*p[1] + c[11]*p[2] + c[15]
	if w <= 0 {
		return 0, false
	}
	x, y, _, ok := m.proj.Project(p)
	if !ok {
		return 0, false
	}
	size := 2 * n.radius * m.scale / w
	half := size / 2
	if x+half < 0 || y+half < 0 || x-half > m.w || y-half > m.h {
		return 0, false
	}
	return size, true
}

// Drawn returns the number of splats emitted by the last Draw.
func (m *Model) Drawn() int { return m.drawn }

// Len returns the number of leaf samples.
func (m *Model) Len() int { return (len(m.nodes) + 1) / 2 }

// HasColor implements splatview.Model.
func (m *Model) HasColor() bool { return m.hasColor }

// MinSize implements splatview.Model.
func (m *Model) MinSize() float32 { return m.minSize }

// Coarsest implements splatview.Model.
func (m *Model) Coarsest() bool { return m.minSize >= m.coarsest }

// CanRefine implements splatview.Model.
func (m *Model) CanRefine() bool { return m.minSize > m.finest }

// Refine implements splatview.Model.
func (m *Model) Refine() {
	m.minSize = max(m.minSize/refineStep, m.finest)
}

// StartRefine records the current level of detail as the one to return to
// when refinement stops.
func (m *Model) StartRefine() { m.saved = m.minSize }

// StopRefine returns to the level of detail recorded by StartRefine.
func (m *Model) StopRefine() { m.minSize = m.saved }

// ResetRate implements splatview.Model.
func (m *Model) ResetRate() {
	m.minSize = m.initial
	m.saved = m.initial
}

// AdjustRate scales the minimum size by the square root of factor, since
// the splat count goes with its inverse square.
func (m *Model) AdjustRate(factor float32) {
	if factor <= 0 {
		return
	}
	m.minSize = clamp(m.minSize*math32.Sqrt(factor), m.finest, m.coarsest)
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

func dist(a, b [3]float32) float32 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math32.Sqrt(dx*dx + dy*dy + dz*dz)
}

// normalColor maps a unit normal into [0.2, 1] per channel.
func normalColor(n [3]float32) [3]float32 {
	return [3]float32{0.6 + 0.4*n[0], 0.6 + 0.4*n[1], 0.6 + 0.4*n[2]}
}
