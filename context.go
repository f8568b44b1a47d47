// SPDX-License-Identifier: Unlicense OR MIT

// Package glview manages an OpenGL context attached to a native view:
// its creation and teardown, activation on a render thread, buffer swaps
// with frame pacing, and an optional display refresh callback.
//
// A Context is created and destroyed on the UI thread. A render loop
// then runs on a goroutine of its own:
//
//	t := glview.LockThread()
//	defer t.Unlock()
//	c.InitialiseOnRenderThread(t)
//	for running {
//		if !c.MakeActive(t) {
//			continue // Not ready yet; try next frame.
//		}
//		draw()
//		c.SwapBuffers()
//	}
//	c.ShutdownOnRenderThread(t)
package glview

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"glview.org/displaylink"
	"glview.org/internal/pacing"
	"glview.org/pixfmt"
	"glview.org/platform"
)

// ErrContextCreation is wrapped by errors returned from New when the
// platform refused to create the pixel format, view or context.
var ErrContextCreation = errors.New("context creation failed")

var errInert = errors.New("glview: context was not created")

// initialFrame is the frame of a newly created view. The surface sizes
// it once attached.
var initialFrame = image.Rect(0, 0, 100, 100)

// Context is an OpenGL context drawing into a view attached to a
// Surface.
//
// A Context whose creation failed is inert: CreatedOK reports false,
// MakeActive and SetSwapInterval report failure and the other methods
// do nothing.
type Context struct {
	id     uuid.UUID
	driver platform.Driver

	pixelFormat platform.Handle
	view        platform.Handle
	ctx         platform.Handle
	attachment  platform.Attachment
	unobserve   func()

	// owner is the Thread this context is current on.
	owner atomic.Pointer[Thread]

	// pacing is only touched from the render thread.
	pacing *pacing.Governor
	link   *displaylink.Link

	destroyOnce sync.Once
}

type options struct {
	driver platform.Driver
	now    func() float64
	sleep  func(time.Duration)
}

// Option configures a Context.
type Option func(*options)

// WithDriver selects the native driver. The default is NSOpenGL on
// macOS and the headless driver elsewhere.
func WithDriver(d platform.Driver) Option {
	return func(o *options) { o.driver = d }
}

// WithClock replaces the millisecond clock used for frame pacing.
func WithClock(now func() float64) Option {
	return func(o *options) { o.now = now }
}

// WithSleep replaces the function frame pacing sleeps with.
func WithSleep(sleep func(time.Duration)) Option {
	return func(o *options) { o.sleep = sleep }
}

// New creates a context for pf and attaches its view to surface. The
// context shares objects with shared unless it is zero.
//
// New always returns a non-nil Context. If err is non-nil the Context is
// inert and need only be destroyed.
func New(surface platform.Surface, pf pixfmt.PixelFormat, shared platform.Handle, multisample bool, version pixfmt.Version, opts ...Option) (*Context, error) {
	c := newContext(newOptions(opts))
	if err := c.create(surface, pf, shared, multisample, version); err != nil {
		Logger().Warn("glview: context creation failed", "context", c.id, "err", err)
		c.Destroy()
		return c, err
	}
	Logger().Debug("glview: context created",
		"context", c.id,
		"version", version.String(),
		"multisample", multisample,
		"shared", shared != 0,
	)
	return c, nil
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.driver == nil {
		o.driver = defaultDriver()
	}
	return o
}

// newContext returns an inert context.
func newContext(o options) *Context {
	c := &Context{
		id:     uuid.New(),
		driver: o.driver,
		pacing: pacing.New(o.now, o.sleep),
	}
	c.link = displaylink.New(c.newDisplayLink)
	return c
}

func (c *Context) create(surface platform.Surface, pf pixfmt.PixelFormat, shared platform.Handle, multisample bool, version pixfmt.Version) error {
	if err := pf.Validate(); err != nil {
		return fmt.Errorf("glview: %w: %w", ErrContextCreation, err)
	}
	d := c.driver
	var err error
	c.pixelFormat, err = d.NewPixelFormat(pixfmt.Attribs(pf, version, multisample))
	if err != nil {
		return fmt.Errorf("glview: %w: pixel format: %w", ErrContextCreation, err)
	}
	c.view, err = d.NewView(c.pixelFormat, initialFrame, &viewDelegate{surface: surface})
	if err != nil {
		return fmt.Errorf("glview: %w: view: %w", ErrContextCreation, err)
	}
	c.unobserve = d.ObserveFrameChanges(c.view, c.surfaceNeedsUpdate)
	c.ctx, err = d.NewContext(c.pixelFormat, shared)
	if err != nil {
		return fmt.Errorf("glview: %w: context: %w", ErrContextCreation, err)
	}
	d.SetSurfaceOpacity(c.ctx, true)
	d.SetViewContext(c.view, c.ctx)
	c.attachment, err = surface.Attach(c.view)
	if err != nil {
		return fmt.Errorf("glview: %w: attach: %w", ErrContextCreation, err)
	}
	return nil
}

// surfaceNeedsUpdate runs when the view moves or resizes.
func (c *Context) surfaceNeedsUpdate() {
	l := c.Lock()
	defer l.Unlock()
	if c.ctx != 0 {
		c.driver.UpdateContext(c.ctx)
	}
}

// CreatedOK reports whether the native context exists.
func (c *Context) CreatedOK() bool {
	return c.ctx != 0
}

// ID identifies c in log output.
func (c *Context) ID() uuid.UUID {
	return c.id
}

// InitialiseOnRenderThread must be called once from the render thread
// before the first MakeActive.
func (c *Context) InitialiseOnRenderThread(t *Thread) {
	Logger().Debug("glview: render thread started", "context", c.id, "thread", t.ID())
}

// ShutdownOnRenderThread must be called from the render thread before
// the context is destroyed.
func (c *Context) ShutdownOnRenderThread(t *Thread) {
	DeactivateCurrentContext(t)
	Logger().Debug("glview: render thread stopped", "context", c.id, "thread", t.ID())
}

// Destroy releases the native objects and detaches the view from its
// surface. It is safe to call more than once and on a context whose
// creation failed.
func (c *Context) Destroy() {
	c.destroyOnce.Do(c.destroy)
}

func (c *Context) destroy() {
	c.link.Close()
	if c.unobserve != nil {
		c.unobserve()
		c.unobserve = nil
	}
	d := c.driver
	if c.ctx != 0 {
		if t := c.owner.Load(); t != nil {
			t.current.CompareAndSwap(c, nil)
			c.owner.Store(nil)
		}
		d.ClearDrawable(c.ctx)
		d.SetContextView(c.ctx, 0)
	}
	if c.view != 0 {
		d.SetViewContext(c.view, 0)
	}
	if c.ctx != 0 {
		d.ReleaseContext(c.ctx)
		c.ctx = 0
	}
	if c.attachment != nil {
		c.attachment.Detach()
		c.attachment = nil
	}
	if c.view != 0 {
		d.ReleaseView(c.view)
		c.view = 0
	}
	if c.pixelFormat != 0 {
		d.ReleasePixelFormat(c.pixelFormat)
		c.pixelFormat = 0
	}
	Logger().Debug("glview: context destroyed", "context", c.id)
}

// MakeActive makes the context current on t. It reports false if the
// view has no context yet, in which case the caller should retry on a
// later frame.
func (c *Context) MakeActive(t *Thread) bool {
	if c.ctx == 0 {
		return false
	}
	d := c.driver
	if d.ContextView(c.ctx) != c.view {
		d.SetContextView(c.ctx, c.view)
	}
	ctx := d.ViewContext(c.view)
	if ctx == 0 {
		Logger().Debug("glview: view has no context yet", "context", c.id)
		return false
	}
	d.MakeCurrent(ctx)
	t.bind(c)
	return true
}

// IsActive reports whether c is the context bound to t.
func (c *Context) IsActive(t *Thread) bool {
	return c.ctx != 0 && t.Current() == c
}

// RawContext returns the native context, for sharing with other
// contexts. It is zero for an inert context.
func (c *Context) RawContext() platform.Handle {
	return c.ctx
}

// FrameBufferID returns the framebuffer to render to. The view's surface
// is the default framebuffer.
func (c *Context) FrameBufferID() uint32 {
	return 0
}

// UpdateWindowPosition does nothing: the context follows its view.
func (c *Context) UpdateWindowPosition(image.Rectangle) {}

// SetSwapInterval asks the driver to wait framesPerSwap refreshes
// between swaps, and paces swaps to the equivalent time at 60 Hz in
// case the driver does not.
func (c *Context) SetSwapInterval(framesPerSwap int) bool {
	if c.ctx == 0 {
		return false
	}
	c.pacing.SetMinInterval(pacing.IntervalForFrames(framesPerSwap))
	c.driver.SetSwapInterval(c.ctx, framesPerSwap)
	return true
}

// SwapInterval returns the driver's swap interval in frames.
func (c *Context) SwapInterval() int {
	if c.ctx == 0 {
		return 0
	}
	return c.driver.SwapInterval(c.ctx)
}

// SwapBuffers presents the frame and, if swaps are arriving faster than
// the swap interval allows, sleeps. It returns the time slept.
func (c *Context) SwapBuffers() time.Duration {
	if c.ctx == 0 {
		return 0
	}
	c.driver.FlushBuffer(c.ctx)
	slept := c.pacing.Pace()
	if slept > 0 {
		Logger().Debug("glview: throttling fast swaps", "context", c.id, "sleep", slept, "underruns", c.pacing.Underruns())
	}
	return slept
}

// SetRefreshTarget arranges for target to be called once per display
// refresh, on a thread that is not the render thread. A nil target
// stops the callbacks; no call is in progress or will start once it
// returns. The target must be unbound before anything it uses is freed.
func (c *Context) SetRefreshTarget(target func()) error {
	if target != nil && c.ctx == 0 {
		return errInert
	}
	return c.link.Bind(target)
}

func (c *Context) newDisplayLink(tick func()) (displaylink.Source, error) {
	return c.driver.NewDisplayLink(c.ctx, c.pixelFormat, tick)
}
