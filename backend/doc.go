// Package backend selects a splat renderer per frame.
//
// Renderers are created by factories registered per splatview.Driver. The
// software rasterizers and the seven hardware styles are registered on
// import; hosts may replace any of them with Register:
//
//	backend.Register(splatview.DriverQuads, func(cfg backend.Config) (splatview.Backend, error) {
//		return myQuads(cfg.Pipeline), nil
//	})
//
// # Dispatcher
//
// A Dispatcher owns at most one renderer per driver, created on first use,
// and routes one frame at a time to the renderer of its current driver:
//
//	d := backend.NewDispatcher(
//		backend.WithDriver(splatview.DriverSoftwareAuto),
//		backend.WithPresenter(surface.NewSharedImage(img, nil)),
//	)
//	d.Begin(backend.Frame{View: view, HasColor: model.HasColor(), MinSize: model.MinSize()})
//	bailed := model.Draw(d.Emit, cancel)
//	aborted := d.End(bailed, cancel)
//
// DriverSoftwareAuto resolves to DriverSoftware while the model's finest
// splats are smaller than TilesCrossover pixels, and to DriverSoftwareTiles
// otherwise.
//
// A frame whose renderer cannot begin (no pipeline for a hardware driver,
// an empty viewport) is logged and becomes a no-op: Emit ignores splats and
// End reports no abort.
package backend
