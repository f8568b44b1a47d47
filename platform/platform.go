// SPDX-License-Identifier: Unlicense OR MIT

// Package platform defines the native operations a GL context is built
// from, and the collaborators it attaches to.
package platform

import (
	"image"
	"time"

	"glview.org/displaylink"
	"glview.org/pixfmt"
)

// Handle is an opaque native object reference. Zero means no object.
type Handle uintptr

// MouseEvent is a mouse event delivered to a view.
type MouseEvent struct {
	Position image.Point
	Time     time.Duration
	Clicks   int
	// Native is the platform event object, if any. It is only valid
	// for the duration of the call it is passed to.
	Native Handle
}

// Responder receives right mouse events forwarded from a GL view.
type Responder interface {
	RightMouseDown(e MouseEvent)
	RightMouseUp(e MouseEvent)
}

// ViewDelegate decides how a GL view handles input it would otherwise
// consume itself.
type ViewDelegate interface {
	Responder
	// AcceptsFirstMouse reports whether a click in an inactive window
	// is delivered to the view.
	AcceptsFirstMouse(e MouseEvent) bool
}

// Attachment is a view's membership in a Surface's view hierarchy.
type Attachment interface {
	// Detach removes the view from the surface.
	Detach()
}

// Surface is the windowing layer a GL view is attached into. It owns the
// view hierarchy; the GL context only borrows a place in it.
type Surface interface {
	Responder
	Attach(view Handle) (Attachment, error)
}

// Driver is the native GL implementation. Handle arguments are never
// zero unless stated.
type Driver interface {
	NewPixelFormat(attribs []pixfmt.Attribute) (Handle, error)
	ReleasePixelFormat(pf Handle)

	// NewView creates a GL capable view with the given frame. The view
	// routes right mouse events and first mouse queries to d.
	NewView(pf Handle, frame image.Rectangle, d ViewDelegate) (Handle, error)
	ReleaseView(view Handle)
	// ObserveFrameChanges calls f whenever the view's global frame
	// changes. The returned function removes the observer.
	ObserveFrameChanges(view Handle, f func()) (remove func())

	// NewContext creates a context for pf. share may be zero.
	NewContext(pf, share Handle) (Handle, error)
	ReleaseContext(ctx Handle)
	SetSurfaceOpacity(ctx Handle, opaque bool)

	// ContextView returns the view ctx draws into, or zero.
	ContextView(ctx Handle) Handle
	// SetContextView attaches ctx to view. view may be zero.
	SetContextView(ctx, view Handle)
	// ViewContext returns the context associated with view, or zero.
	ViewContext(view Handle) Handle
	// SetViewContext associates ctx with view. ctx may be zero.
	SetViewContext(view, ctx Handle)
	ClearDrawable(ctx Handle)
	// UpdateContext adjusts ctx after its view changed size or position.
	UpdateContext(ctx Handle)

	// MakeCurrent makes ctx current on the calling OS thread.
	MakeCurrent(ctx Handle)
	// ClearCurrent unbinds whatever context is current on the calling
	// OS thread.
	ClearCurrent()
	// CurrentContext returns the context current on the calling OS
	// thread, or zero.
	CurrentContext() Handle

	FlushBuffer(ctx Handle)
	SetSwapInterval(ctx Handle, frames int)
	SwapInterval(ctx Handle) int

	LockContext(ctx Handle)
	UnlockContext(ctx Handle)

	// NewDisplayLink returns a refresh clock for the display ctx is on.
	NewDisplayLink(ctx, pf Handle, tick func()) (displaylink.Source, error)
}
