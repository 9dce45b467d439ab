// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/pixel"
)

// Chain is a Presenter backed by an ordered list of presenters.
//
// Acquire asks each presenter in turn and remembers which one supplied the
// buffer. If every presenter fails, a heap buffer in the fallback layout is
// returned. Present goes to the owner first; on failure, or for heap
// buffers, every other presenter is tried in order.
//
// Chain is NOT safe for concurrent use.
type Chain struct {
	presenters []Presenter
	fallback   pixel.Layout

	owner Presenter
	heap  *pixel.Buffer
}

// NewChain returns a chain over ps with an RGBA8 heap fallback.
func NewChain(ps ...Presenter) *Chain {
	return &Chain{
		presenters: ps,
		fallback:   pixel.FormatRGBA8.Layout(),
	}
}

// SetFallbackLayout sets the layout of heap buffers.
func (c *Chain) SetFallbackLayout(l pixel.Layout) {
	c.fallback = l
	c.heap = nil
}

// Name returns the names of the chained presenters.
func (c *Chain) Name() string {
	name := "chain["
	for i, p := range c.presenters {
		if i > 0 {
			name += ","
		}
		name += p.Name()
	}
	return name + "]"
}

// Len returns the number of chained presenters.
func (c *Chain) Len() int { return len(c.presenters) }

// Owner returns the presenter that supplied the last acquired buffer, or
// nil for a heap buffer.
func (c *Chain) Owner() Presenter { return c.owner }

// Acquire implements Presenter.
func (c *Chain) Acquire(width, height int) (*pixel.Buffer, error) {
	log := splatview.Logger()
	for _, p := range c.presenters {
		buf, err := p.Acquire(width, height)
		if err == nil {
			if c.owner != p {
				log.Info("surface: presenting through", "presenter", p.Name())
			}
			c.owner = p
			return buf, nil
		}
		log.Debug("surface: acquire failed", "presenter", p.Name(), "err", err)
	}

	if c.owner != nil || c.heap == nil {
		log.Info("surface: using heap buffer", "width", width, "height", height)
	}
	c.owner = nil
	if c.heap == nil || c.heap.Width != width || c.heap.Height != height {
		buf, err := pixel.NewBuffer(width, height, c.fallback)
		if err != nil {
			return nil, fmt.Errorf("surface: heap buffer: %w", err)
		}
		c.heap = buf
	}
	return c.heap, nil
}

// Present implements Presenter.
func (c *Chain) Present(buf *pixel.Buffer) error {
	log := splatview.Logger()
	var errs []error
	if c.owner != nil {
		err := c.owner.Present(buf)
		if err == nil {
			return nil
		}
		log.Warn("surface: present failed, trying next presenter", "presenter", c.owner.Name(), "err", err)
		errs = append(errs, err)
	}
	for _, p := range c.presenters {
		if p == c.owner {
			continue
		}
		err := p.Present(buf)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrForeignBuffer) {
			log.Warn("surface: present failed", "presenter", p.Name(), "err", err)
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return ErrNoPresenter
	}
	return fmt.Errorf("%w: %w", ErrNoPresenter, errors.Join(errs...))
}
