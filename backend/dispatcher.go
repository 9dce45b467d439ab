package backend

import (
	"errors"
	"io"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/backend/hardware"
	"github.com/gogpu/splatview/surface"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDriver sets the initial driver. The default is DriverSoftwareAuto.
func WithDriver(d splatview.Driver) Option {
	return func(dp *Dispatcher) {
		dp.driver = d
	}
}

// WithPresenter sets where software frames are presented.
func WithPresenter(p surface.Presenter) Option {
	return func(dp *Dispatcher) {
		dp.cfg.Presenter = p
	}
}

// WithPipeline sets the host pipeline for hardware drivers.
func WithPipeline(p hardware.Pipeline) Option {
	return func(dp *Dispatcher) {
		dp.cfg.Pipeline = p
	}
}

// WithWorkers sets how many goroutines the tile rasterizer flushes on.
func WithWorkers(n int) Option {
	return func(dp *Dispatcher) {
		dp.cfg.Workers = n
	}
}

// Dispatcher routes frames to per-driver renderers created on first use.
//
// Dispatcher is NOT safe for concurrent use.
type Dispatcher struct {
	cfg    Config
	driver splatview.Driver

	backends map[splatview.Driver]splatview.Backend
	failed   map[splatview.Driver]error

	current splatview.Backend
	last    splatview.Backend
	active  splatview.Driver
}

// NewDispatcher returns a dispatcher with the given options.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		driver:   splatview.DriverSoftwareAuto,
		backends: make(map[splatview.Driver]splatview.Backend),
		failed:   make(map[splatview.Driver]error),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Driver returns the selected driver.
func (d *Dispatcher) Driver() splatview.Driver {
	return d.driver
}

// SetDriver selects the driver for subsequent frames.
func (d *Dispatcher) SetDriver(drv splatview.Driver) {
	d.driver = drv
}

// SetPipeline replaces the hardware pipeline. Hardware renderers built for
// the old pipeline are dropped.
func (d *Dispatcher) SetPipeline(p hardware.Pipeline) {
	d.cfg.Pipeline = p
	d.forget(func(drv splatview.Driver) bool { return !drv.Software() })
}

// SetPresenter replaces the software presenter. Software renderers built
// for the old presenter are dropped.
func (d *Dispatcher) SetPresenter(p surface.Presenter) {
	d.cfg.Presenter = p
	d.forget(splatview.Driver.Software)
}

func (d *Dispatcher) forget(match func(splatview.Driver) bool) {
	for drv, b := range d.backends {
		if match(drv) {
			closeBackend(drv, b)
			delete(d.backends, drv)
		}
	}
	for drv := range d.failed {
		if match(drv) {
			delete(d.failed, drv)
		}
	}
}

// Active returns the concrete driver of the last frame.
func (d *Dispatcher) Active() splatview.Driver {
	return d.active
}

// Backend returns the renderer for drv, creating it on first use. A
// factory error is remembered until the driver's presenter or pipeline
// changes.
func (d *Dispatcher) Backend(drv splatview.Driver) (splatview.Backend, error) {
	if b, ok := d.backends[drv]; ok {
		return b, nil
	}
	if err, ok := d.failed[drv]; ok {
		return nil, err
	}
	b, err := Get(drv, d.cfg)
	if err != nil {
		d.failed[drv] = err
		splatview.Logger().Warn("backend: renderer unavailable", "driver", drv, "err", err)
		return nil, err
	}
	d.backends[drv] = b
	splatview.Logger().Debug("backend: renderer created", "driver", drv)
	return b, nil
}

// Begin starts a frame on the renderer of the current driver. On error
// the frame is a no-op.
func (d *Dispatcher) Begin(f Frame) error {
	d.current, d.last = nil, nil
	d.active = Resolve(d.driver, f.MinSize)

	b, err := d.Backend(d.active)
	if err != nil {
		return err
	}
	if err := b.Begin(f.View, f.HasColor); err != nil {
		splatview.Logger().Warn("backend: begin failed", "driver", d.active, "err", err)
		return err
	}
	d.current, d.last = b, b
	splatview.Logger().Debug("backend: frame begun", "driver", d.active, "minSize", f.MinSize)
	return nil
}

// Emit forwards s to the frame's renderer.
func (d *Dispatcher) Emit(s *splatview.Splat) {
	if d.current != nil {
		d.current.Emit(s)
	}
}

// End finishes the frame and reports whether the renderer abandoned it.
func (d *Dispatcher) End(bailed bool, cancel splatview.CancelFunc) bool {
	if d.current == nil {
		return false
	}
	aborted := d.current.End(bailed, cancel)
	d.current = nil
	return aborted
}

// Splatted returns the number of splats accepted in the last frame.
func (d *Dispatcher) Splatted() int {
	if d.last == nil {
		return 0
	}
	return d.last.Splatted()
}

// Close releases the renderers created so far. The dispatcher may be used
// again afterwards.
func (d *Dispatcher) Close() error {
	var errs []error
	for drv, b := range d.backends {
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		delete(d.backends, drv)
	}
	d.current, d.last = nil, nil
	return errors.Join(errs...)
}

func closeBackend(drv splatview.Driver, b splatview.Backend) {
	if c, ok := b.(io.Closer); ok {
		if err := c.Close(); err != nil {
			splatview.Logger().Warn("backend: close failed", "driver", drv, "err", err)
		}
	}
}
