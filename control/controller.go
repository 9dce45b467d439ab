package control

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/backend"
)

// ErrInvalidRate is returned for a desired rate that is not positive.
var ErrInvalidRate = errors.New("control: desired rate must be positive")

// Renderer draws one frame at a time. *backend.Dispatcher implements it.
type Renderer interface {
	Begin(f backend.Frame) error
	Emit(s *splatview.Splat)
	End(bailed bool, cancel splatview.CancelFunc) (aborted bool)
	Splatted() int
}

// driverSetter is implemented by renderers that switch drivers.
type driverSetter interface {
	SetDriver(d splatview.Driver)
}

// FrameStats describes one Redraw.
type FrameStats struct {
	Splats  int
	Elapsed time.Duration
	Bailed  bool
	Aborted bool

	// Correction is the factor passed to Model.AdjustRate, or 0 when the
	// rate was left alone.
	Correction float32

	// Err is the renderer's Begin error. The frame drew nothing.
	Err error
}

// Option configures a Controller.
type Option func(*Controller)

// WithDesiredRate sets the target frame rate in frames per second. The
// default is the driver's DefaultRate.
func WithDesiredRate(rate float32) Option {
	return func(c *Controller) {
		if rate > 0 {
			c.rate = rate
		}
	}
}

// WithDriver selects the renderer's driver at construction.
func WithDriver(d splatview.Driver) Option {
	return func(c *Controller) {
		c.driver = d
		c.hasDriver = true
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithSettleDelay sets the quiet time after input before refinement
// starts. The default is DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.settle = d
	}
}

// WithView sets the camera callback, called once per frame. The
// controller owns the light direction and overrides View.Light. A zero
// viewport size is taken from the window.
func WithView(view func() splatview.View) Option {
	return func(c *Controller) {
		c.view = view
	}
}

// WithWindow sets the window that receives redraw requests.
func WithWindow(w gpucontext.WindowProvider) Option {
	return func(c *Controller) {
		c.window = w
	}
}

// WithStatus sets a callback for the status and rate lines. An empty
// line is left unchanged.
func WithStatus(fn func(status, rate string)) Option {
	return func(c *Controller) {
		c.status = fn
	}
}

// WithOverlays enables the light and progress indicators.
func WithOverlays(light, progress bool) Option {
	return func(c *Controller) {
		c.light.set(light)
		c.progress.set(progress)
	}
}

// WithLanguage sets the language used to format the rate line.
func WithLanguage(tag language.Tag) Option {
	return func(c *Controller) {
		c.printer = message.NewPrinter(tag)
	}
}

// Controller runs the frame budget loop for one model.
//
// Redraw, Idle and the direct input methods must be called from the
// render loop. The Post methods may be called from any goroutine.
type Controller struct {
	model    splatview.Model
	renderer Renderer

	now     func() time.Time
	view    func() splatview.View
	window  gpucontext.WindowProvider
	status  func(status, rate string)
	printer *message.Printer

	rate      float32
	settle    time.Duration
	driver    splatview.Driver
	hasDriver bool

	state      State
	lastEvent  time.Time
	frameStart time.Time
	buttons    gpucontext.Buttons
	lightDir   [3]float32
	light      indicator
	progress   indicator
	last       FrameStats

	mu      sync.Mutex
	pending []event
}

// New returns a controller drawing model through r. model may be nil.
func New(model splatview.Model, r Renderer, opts ...Option) *Controller {
	c := &Controller{
		renderer: r,
		now:      time.Now,
		window:   gpucontext.NullWindowProvider{},
		settle:   DefaultSettleDelay,
		driver:   splatview.DriverSoftwareAuto,
		lightDir: [3]float32{0, 0, 1},
		light:    indicator{state: OverlayNever, timeout: lightTimeout},
		progress: indicator{state: OverlayNever, timeout: progressTimeout},
	}
	if d, ok := r.(interface{ Driver() splatview.Driver }); ok {
		c.driver = d.Driver()
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hasDriver {
		if ds, ok := r.(driverSetter); ok {
			ds.SetDriver(c.driver)
		}
	}
	if c.rate == 0 {
		c.rate = c.driver.DefaultRate()
	}
	if c.printer == nil {
		c.printer = message.NewPrinter(language.English)
	}
	c.lastEvent = c.now()
	c.SetModel(model)
	return c
}

// SetModel replaces the model and restarts refinement from its default
// level of detail.
func (c *Controller) SetModel(m splatview.Model) {
	c.model = m
	if m == nil {
		c.state = StateIdle
		c.report("No model", "")
		return
	}
	c.Reset()
}

// Model returns the current model.
func (c *Controller) Model() splatview.Model {
	return c.model
}

// State returns the refinement state.
func (c *Controller) State() State {
	return c.state
}

// DesiredRate returns the target frame rate.
func (c *Controller) DesiredRate() float32 {
	return c.rate
}

// LastFrame returns the stats of the last Redraw.
func (c *Controller) LastFrame() FrameStats {
	return c.last
}

// SetDesiredRate changes the target frame rate and rescales the model's
// level of detail by the ratio of new to old rate.
func (c *Controller) SetDesiredRate(rate float32) error {
	if rate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	ratio := rate / c.rate
	c.rate = rate
	if c.model == nil {
		return nil
	}
	c.stopRefine()
	c.model.AdjustRate(ratio)
	c.requestRedraw()
	return nil
}

// SetDriver switches the renderer's driver. Refinement restarts from the
// current level of detail.
func (c *Controller) SetDriver(d splatview.Driver) {
	c.driver = d
	if ds, ok := c.renderer.(driverSetter); ok {
		ds.SetDriver(d)
	}
	c.stopRefine()
	c.requestRedraw()
}

// Reset restores the model's default level of detail and starts refining.
func (c *Controller) Reset() {
	if c.model == nil {
		return
	}
	c.model.ResetRate()
	c.model.StartRefine()
	c.setState(StateRefining)
	c.requestRedraw()
}

// Redraw draws one frame and feeds its cost back to the model.
func (c *Controller) Redraw() FrameStats {
	if c.model == nil {
		c.report("No model", "")
		return FrameStats{}
	}

	c.frameStart = c.now()
	err := c.renderer.Begin(backend.Frame{
		View:     c.frameView(),
		HasColor: c.model.HasColor(),
		MinSize:  c.model.MinSize(),
	})
	if err != nil {
		c.last = FrameStats{Err: err}
		return c.last
	}
	bailed := c.model.Draw(c.renderer.Emit, c.Abort)
	aborted := c.renderer.End(bailed, c.Abort)
	elapsed := c.now().Sub(c.frameStart)

	stats := FrameStats{
		Splats:  c.renderer.Splatted(),
		Elapsed: elapsed,
		Bailed:  bailed,
		Aborted: aborted,
	}
	switch {
	case (bailed || aborted) && c.state.refining():
		// Input interrupted refinement; the frame is still good enough.
		c.stopRefine()
		c.setState(StateSettling)
	case bailed || aborted:
		c.model.AdjustRate(BailCorrection)
		stats.Correction = BailCorrection
	case c.state.refining():
		if elapsed <= period(c.rate) {
			c.model.StartRefine()
		}
	default:
		stats.Correction = Correction(elapsed, c.rate)
		c.model.AdjustRate(stats.Correction)
	}
	if !bailed && !aborted {
		c.report("", c.printer.Sprintf("%d points, %.3f sec.", stats.Splats, elapsed.Seconds()))
		c.progress.touch(c.frameStart)
	}
	splatview.Logger().Debug("control: frame",
		"splats", stats.Splats, "elapsed", elapsed, "bailed", bailed,
		"aborted", aborted, "correction", stats.Correction, "state", c.state)

	c.last = stats
	c.drain()
	return stats
}

// Idle advances refinement between frames. It returns true when the model
// is fully refined and no overlay is waiting to time out.
func (c *Controller) Idle() bool {
	c.drain()
	if c.model == nil {
		c.report("No model", "")
		return true
	}

	now := c.now()
	if c.light.expire(now) || c.progress.expire(now) {
		c.requestRedraw()
	}

	if c.state.refining() && !c.model.CanRefine() {
		if c.state != StateIdle {
			c.setState(StateIdle)
			c.report("Done refining", "")
		}
		return !c.light.visible() && !c.progress.visible()
	}

	if !c.state.refining() {
		if c.buttons != gpucontext.ButtonsNone || now.Sub(c.lastEvent) < c.settle {
			if c.buttons == gpucontext.ButtonsNone {
				c.setState(StateSettling)
			}
			return false
		}
		c.model.StartRefine()
		c.setState(StateRefining)
	}

	c.model.Refine()
	c.progress.show(now)
	c.requestRedraw()
	c.report("Refining", "")
	return false
}

// Progress returns the refinement progress indicator, 1/MinSize.
func (c *Controller) Progress() float32 {
	if c.model == nil {
		return 0
	}
	if m := c.model.MinSize(); m > 0 {
		return 1 / m
	}
	return 1
}

func (c *Controller) frameView() splatview.View {
	var v splatview.View
	if c.view != nil {
		v = c.view()
	}
	if v.Width == 0 && v.Height == 0 {
		w, h := c.window.Size()
		sf := c.window.ScaleFactor()
		if sf <= 0 {
			sf = 1
		}
		v.Width, v.Height = int(float64(w)*sf), int(float64(h)*sf)
	}
	v.Light = c.lightDir
	return v
}

// stopRefine leaves refinement for input handling.
func (c *Controller) stopRefine() {
	if c.model != nil && c.state.refining() {
		c.model.StopRefine()
	}
	if c.state.refining() {
		c.setState(StateInteracting)
	}
	c.progress.show(c.now())
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	splatview.Logger().Debug("control: state", "from", c.state, "to", s)
	c.state = s
}

func (c *Controller) requestRedraw() {
	c.window.RequestRedraw()
}

// report sends status and rate lines to the status callback.
func (c *Controller) report(status, rate string) {
	if c.status != nil {
		c.status(status, rate)
	}
}
