// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"

	"github.com/gogpu/splatview/pixel"
)

// Presenter shows finished frames.
//
// Acquire returns a buffer of the requested size for the rasterizer to draw
// into. The buffer contents are unspecified; callers clear it. Present shows
// a buffer. Presenters that own their storage may refuse buffers they did
// not hand out with ErrForeignBuffer.
type Presenter interface {
	Name() string
	Acquire(width, height int) (*pixel.Buffer, error)
	Present(buf *pixel.Buffer) error
}

// Errors.
var (
	// ErrNoPresenter is returned when no presenter is registered or available.
	ErrNoPresenter = errors.New("surface: no presenter available")

	// ErrForeignBuffer is returned by Present for buffers the presenter
	// cannot show without a copy it does not perform.
	ErrForeignBuffer = errors.New("surface: buffer not acquired from this presenter")

	// ErrNoTarget is returned when a presenter has nothing to present to.
	ErrNoTarget = errors.New("surface: presenter has no target")
)

// PresenterNotFoundError indicates a named presenter is not registered.
type PresenterNotFoundError struct {
	Name string
}

func (e *PresenterNotFoundError) Error() string {
	return "surface: presenter not found: " + e.Name
}

// PresenterUnavailableError indicates a presenter exists but its
// availability probe failed.
type PresenterUnavailableError struct {
	Name string
}

func (e *PresenterUnavailableError) Error() string {
	return "surface: presenter unavailable: " + e.Name
}
