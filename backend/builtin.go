package backend

import (
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/backend/hardware"
	"github.com/gogpu/splatview/backend/software"
)

// init registers the built-in renderers on package import.
func init() {
	Register(splatview.DriverSoftware, func(cfg Config) (splatview.Backend, error) {
		return software.NewZBuffer(softwareOptions(cfg)...), nil
	})
	Register(splatview.DriverSoftwareTiles, func(cfg Config) (splatview.Backend, error) {
		return software.NewTiles(softwareOptions(cfg)...), nil
	})
	for _, d := range splatview.Drivers() {
		if style, ok := hardware.StyleFor(d); ok {
			Register(d, hardwareFactory(style))
		}
	}
}

func softwareOptions(cfg Config) []software.Option {
	var opts []software.Option
	if cfg.Presenter != nil {
		opts = append(opts, software.WithPresenter(cfg.Presenter))
	}
	if cfg.Workers > 1 {
		opts = append(opts, software.WithWorkers(cfg.Workers))
	}
	return opts
}

func hardwareFactory(style hardware.Style) Factory {
	return func(cfg Config) (splatview.Backend, error) {
		if cfg.Pipeline == nil {
			return nil, fmt.Errorf("%w: %s needs a pipeline", ErrBackendNotAvailable, style)
		}
		return hardware.New(cfg.Pipeline, style), nil
	}
}

// DefaultDriver picks a starting driver for an adapter. Software adapters
// get the CPU rasterizers, which beat emulated point drawing.
func DefaultDriver(info gpucontext.AdapterInfo) splatview.Driver {
	if info.Type == gpucontext.AdapterTypeSoftware {
		return splatview.DriverSoftwareAuto
	}
	return splatview.DriverPoints
}
