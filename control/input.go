package control

import (
	"github.com/chewxy/math32"
	"github.com/gogpu/gpucontext"
)

type eventKind uint8

const (
	eventPointer eventKind = iota
	eventScroll
	eventKey
	eventExpose
)

// event is input queued while a frame may be drawing.
type event struct {
	kind    eventKind
	pointer gpucontext.PointerEvent
}

// Pointer handles a pointer event immediately. Presses and drags stop
// refinement; releasing the last button starts it again.
func (c *Controller) Pointer(ev gpucontext.PointerEvent) {
	if c.model == nil {
		return
	}
	switch ev.Type {
	case gpucontext.PointerDown:
		c.interact()
		c.buttons = ev.Buttons
	case gpucontext.PointerMove:
		if ev.Buttons == gpucontext.ButtonsNone && c.buttons == gpucontext.ButtonsNone {
			return
		}
		c.interact()
		c.buttons = ev.Buttons
	case gpucontext.PointerUp, gpucontext.PointerCancel:
		c.buttons = ev.Buttons
		if ev.Type == gpucontext.PointerUp && c.buttons == gpucontext.ButtonsNone {
			c.model.StartRefine()
			c.setState(StateRefining)
			c.requestRedraw()
		}
	}
}

// Scroll handles a wheel event. Wheel input stops refinement until the
// settle delay has passed.
func (c *Controller) Scroll(gpucontext.ScrollEvent) {
	if c.model == nil {
		return
	}
	c.interact()
}

// Key handles a key press.
func (c *Controller) Key(gpucontext.Key) {
	if c.model == nil {
		return
	}
	c.interact()
}

func (c *Controller) interact() {
	c.lastEvent = c.now()
	c.stopRefine()
	c.setState(StateInteracting)
	c.requestRedraw()
}

// PostPointer queues a pointer event for the render loop.
func (c *Controller) PostPointer(ev gpucontext.PointerEvent) {
	c.post(event{kind: eventPointer, pointer: ev})
}

// PostScroll queues a wheel event for the render loop.
func (c *Controller) PostScroll(gpucontext.ScrollEvent) {
	c.post(event{kind: eventScroll})
}

// PostKey queues a key press for the render loop.
func (c *Controller) PostKey(gpucontext.Key, gpucontext.Modifiers) {
	c.post(event{kind: eventKey})
}

// PostExpose records that the window needs repainting.
func (c *Controller) PostExpose() {
	c.post(event{kind: eventExpose})
}

func (c *Controller) post(ev event) {
	c.mu.Lock()
	c.pending = append(c.pending, ev)
	c.mu.Unlock()
}

// Attach routes an event source's input through the Post methods. Sources
// that deliver unified pointer events are preferred over mouse callbacks.
func (c *Controller) Attach(src gpucontext.EventSource) {
	src.OnKeyPress(c.PostKey)
	src.OnScroll(func(dx, dy float64) {
		c.PostScroll(gpucontext.ScrollEvent{DeltaX: dx, DeltaY: dy})
	})
	src.OnResize(func(int, int) { c.PostExpose() })

	if ps, ok := src.(gpucontext.PointerEventSource); ok {
		ps.OnPointer(c.PostPointer)
		return
	}
	var held gpucontext.Buttons
	src.OnMousePress(func(b gpucontext.MouseButton, x, y float64) {
		held |= mouseButtons(b)
		c.PostPointer(gpucontext.PointerEvent{Type: gpucontext.PointerDown, X: x, Y: y, Buttons: held})
	})
	src.OnMouseRelease(func(b gpucontext.MouseButton, x, y float64) {
		held &^= mouseButtons(b)
		c.PostPointer(gpucontext.PointerEvent{Type: gpucontext.PointerUp, X: x, Y: y, Buttons: held})
	})
	src.OnMouseMove(func(x, y float64) {
		c.PostPointer(gpucontext.PointerEvent{Type: gpucontext.PointerMove, X: x, Y: y, Buttons: held})
	})
}

func mouseButtons(b gpucontext.MouseButton) gpucontext.Buttons {
	switch b {
	case gpucontext.MouseButtonLeft:
		return gpucontext.ButtonsLeft
	case gpucontext.MouseButtonRight:
		return gpucontext.ButtonsRight
	case gpucontext.MouseButtonMiddle:
		return gpucontext.ButtonsMiddle
	}
	return 0
}

// Abort reports whether the frame in progress should be abandoned: it has
// run past AbortDeadline and queued input wants attention. Presses, keys
// and exposes always qualify. Drags qualify unless the model is already at
// its coarsest, and releases qualify unless a drag is in progress.
func (c *Controller) Abort() bool {
	if c.now().Sub(c.frameStart) < AbortDeadline(c.rate) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range c.pending {
		switch ev.kind {
		case eventKey, eventExpose:
			return true
		case eventScroll:
			continue
		}
		switch ev.pointer.Type {
		case gpucontext.PointerDown:
			return true
		case gpucontext.PointerMove:
			if ev.pointer.Buttons != gpucontext.ButtonsNone && c.model != nil && !c.model.Coarsest() {
				return true
			}
		case gpucontext.PointerUp:
			if c.buttons == gpucontext.ButtonsNone {
				return true
			}
		}
	}
	return false
}

// drain handles queued input in arrival order.
func (c *Controller) drain() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, ev := range pending {
		switch ev.kind {
		case eventPointer:
			c.Pointer(ev.pointer)
		case eventScroll:
			c.Scroll(gpucontext.ScrollEvent{})
		case eventKey:
			c.Key(0)
		case eventExpose:
			c.requestRedraw()
		}
	}
}

// Relight points the light at a position on the unit disc; the center is
// a headlight and the rim lights from behind. It shows the light overlay.
func (c *Controller) Relight(x, y float32) {
	theta := math32.Min(math32.Pi*math32.Sqrt(x*x+y*y), math32.Pi)
	phi := math32.Atan2(y, x)
	st, ct := math32.Sincos(theta)
	sp, cp := math32.Sincos(phi)
	c.lightDir = [3]float32{st * cp, st * sp, ct}
	c.light.show(c.now())
	c.requestRedraw()
}

// Light returns the eye-space light direction.
func (c *Controller) Light() [3]float32 {
	return c.lightDir
}
