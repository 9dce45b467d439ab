// Command splatdemo renders a synthetic splat model through the frame
// budget controller and writes the refined frame to a PNG file.
package main

import (
	"errors"
	"flag"
	"image/png"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/backend"
	"github.com/gogpu/splatview/backend/hardware"
	"github.com/gogpu/splatview/control"
	"github.com/gogpu/splatview/internal/project"
	"github.com/gogpu/splatview/internal/synth"
	"github.com/gogpu/splatview/surface"
)

// maxRefineFrames bounds the refinement loop.
const maxRefineFrames = 200

func main() {
	var (
		width    = flag.Int("width", 640, "image width")
		height   = flag.Int("height", 480, "image height")
		output   = flag.String("output", "splat.png", "output file")
		driver   = flag.String("driver", "SoftwareAuto", "rendering driver")
		samples  = flag.Int("samples", 200000, "number of surface samples")
		rate     = flag.Float64("rate", 0, "desired frame rate, 0 for the driver default")
		frames   = flag.Int("frames", 20, "interactive frames before refining")
		workers  = flag.Int("workers", runtime.GOMAXPROCS(0), "goroutines for the tile flush")
		color    = flag.Bool("color", true, "color splats by normal")
		overlays = flag.Bool("overlays", false, "draw light and progress indicators")
		lightX   = flag.Float64("light-x", 0.2, "light position on the unit disc")
		lightY   = flag.Float64("light-y", 0.3, "light position on the unit disc")
		useHAL   = flag.Bool("hal", false, "submit hardware frames to the noop HAL device instead of recording them")
		verbose  = flag.Bool("v", false, "log every frame")
	)
	flag.Parse()

	if *verbose {
		splatview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	drv, err := splatview.ParseDriver(*driver)
	if err != nil {
		log.Fatalf("Invalid driver: %v", err)
	}
	model, err := synth.NewSphere(*samples, synth.WithColor(*color))
	if err != nil {
		log.Fatalf("Failed to build model: %v", err)
	}

	shared := surface.NewSharedImage(nil, nil)
	rec := &hardware.Recorder{}
	var pipe hardware.Pipeline = rec
	var dev *hardware.HALPipeline
	if *useHAL {
		var closeHAL func()
		dev, closeHAL, err = openHAL(*width, *height)
		if err != nil {
			log.Fatalf("Failed to open HAL device: %v", err)
		}
		defer closeHAL()
		pipe = dev
	}
	d := backend.NewDispatcher(
		backend.WithPresenter(shared),
		backend.WithPipeline(pipe),
		backend.WithWorkers(*workers),
	)
	defer d.Close()

	var angle float32
	view := func() splatview.View {
		v := splatview.View{
			Projection: project.Perspective(0.8, float32(*width)/float32(*height), 0.1, 100),
			ModelView:  project.Mul(project.Translate(0, 0, -3), project.RotateY(angle)),
			Width:      *width,
			Height:     *height,
		}
		model.SetView(v)
		return v
	}

	opts := []control.Option{
		control.WithDriver(drv),
		control.WithView(view),
		control.WithOverlays(*overlays, *overlays),
		control.WithStatus(func(status, _ string) {
			if status != "" {
				log.Print(status)
			}
		}),
	}
	if *rate > 0 {
		opts = append(opts, control.WithDesiredRate(float32(*rate)))
	}
	ctl := control.New(model, d, opts...)
	ctl.Relight(float32(*lightX), float32(*lightY))

	// Spin the model with a held drag so every frame feeds the rate loop.
	ctl.Pointer(gpucontext.PointerEvent{Type: gpucontext.PointerDown, Buttons: gpucontext.ButtonsLeft})
	for i := range *frames {
		angle += 0.05
		ctl.Pointer(gpucontext.PointerEvent{Type: gpucontext.PointerMove, Buttons: gpucontext.ButtonsLeft})
		stats := ctl.Redraw()
		if stats.Err != nil {
			log.Fatalf("Frame %d failed: %v", i, stats.Err)
		}
		log.Printf("frame %d: %d splats in %v, min size %.2f px, correction %.3f",
			i, stats.Splats, stats.Elapsed, model.MinSize(), stats.Correction)
	}
	ctl.Pointer(gpucontext.PointerEvent{Type: gpucontext.PointerUp})

	for i := 0; !ctl.Idle() && i < maxRefineFrames; i++ {
		if ctl.State() == control.StateIdle {
			continue
		}
		stats := ctl.Redraw()
		log.Printf("refine: %d splats in %v, min size %.2f px", stats.Splats, stats.Elapsed, model.MinSize())
	}

	if !drv.Software() {
		if dev != nil {
			log.Printf("%s: submitted %d frames to the HAL device", drv, dev.Frames())
			return
		}
		log.Printf("%s: recorded %d batches, %d vertices", drv, len(rec.Batches()), rec.Vertices())
		return
	}
	img := shared.Image()
	if img == nil {
		log.Fatal("No frame was presented")
	}
	ctl.DrawOverlays(img)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		log.Fatalf("Failed to save: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Frame saved to %s (%dx%d, %s)\n", *output, *width, *height, d.Active())
}

// openHAL opens the noop HAL device and a color target of the given size.
func openHAL(width, height int) (*hardware.HALPipeline, func(), error) {
	api, ok := hal.GetBackend(gputypes.BackendEmpty)
	if !ok {
		return nil, nil, errors.New("noop backend not registered")
	}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, errors.New("no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, err
	}
	dev := open.Device

	w, h := uint32(width), uint32(height) //nolint:gosec // flag values
	target, err := dev.CreateTexture(&hal.TextureDescriptor{
		Label:         "splatdemo_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		dev.Destroy()
		instance.Destroy()
		return nil, nil, err
	}
	view, err := dev.CreateTextureView(target, &hal.TextureViewDescriptor{
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		dev.DestroyTexture(target)
		dev.Destroy()
		instance.Destroy()
		return nil, nil, err
	}
	pipe, err := hardware.NewHALPipeline(hardware.HALConfig{
		Device: dev,
		Queue:  open.Queue,
		Target: view,
		Width:  w,
		Height: h,
	})
	if err != nil {
		dev.DestroyTextureView(view)
		dev.DestroyTexture(target)
		dev.Destroy()
		instance.Destroy()
		return nil, nil, err
	}
	return pipe, func() {
		pipe.Destroy()
		dev.DestroyTextureView(view)
		dev.DestroyTexture(target)
		dev.Destroy()
		instance.Destroy()
	}, nil
}
