// SPDX-License-Identifier: Unlicense OR MIT

//go:build darwin && !ios && cgo

package macos

/*
#cgo CFLAGS: -DGL_SILENCE_DEPRECATION -Werror -Wno-deprecated-declarations -fmodules -fobjc-arc -x objective-c
#cgo LDFLAGS: -framework AppKit -framework OpenGL -framework CoreVideo -framework QuartzCore

#include <CoreFoundation/CoreFoundation.h>
#include <CoreGraphics/CoreGraphics.h>
#include <stdint.h>

__attribute__ ((visibility ("hidden"))) CFTypeRef glview_newPixelFormat(uint32_t *attribs);
__attribute__ ((visibility ("hidden"))) CFTypeRef glview_newView(CFTypeRef pf, CGFloat x, CGFloat y, CGFloat w, CGFloat h);
__attribute__ ((visibility ("hidden"))) void glview_observeFrame(CFTypeRef view);
__attribute__ ((visibility ("hidden"))) void glview_unobserveFrame(CFTypeRef view);
__attribute__ ((visibility ("hidden"))) CFTypeRef glview_newContext(CFTypeRef pf, CFTypeRef share);
__attribute__ ((visibility ("hidden"))) void glview_setSurfaceOpacity(CFTypeRef ctx, int opaque);
__attribute__ ((visibility ("hidden"))) CFTypeRef glview_contextView(CFTypeRef ctx);
__attribute__ ((visibility ("hidden"))) void glview_setContextView(CFTypeRef ctx, CFTypeRef view);
__attribute__ ((visibility ("hidden"))) CFTypeRef glview_viewContext(CFTypeRef view);
__attribute__ ((visibility ("hidden"))) void glview_setViewContext(CFTypeRef view, CFTypeRef ctx);
__attribute__ ((visibility ("hidden"))) void glview_clearDrawable(CFTypeRef ctx);
__attribute__ ((visibility ("hidden"))) void glview_updateContext(CFTypeRef ctx);
__attribute__ ((visibility ("hidden"))) void glview_makeCurrentContext(CFTypeRef ctx);
__attribute__ ((visibility ("hidden"))) void glview_clearCurrentContext(void);
__attribute__ ((visibility ("hidden"))) CFTypeRef glview_currentContext(void);
__attribute__ ((visibility ("hidden"))) void glview_flushBuffer(CFTypeRef ctx);
__attribute__ ((visibility ("hidden"))) void glview_setSwapInterval(CFTypeRef ctx, int frames);
__attribute__ ((visibility ("hidden"))) int glview_swapInterval(CFTypeRef ctx);
__attribute__ ((visibility ("hidden"))) void glview_lockContext(CFTypeRef ctx);
__attribute__ ((visibility ("hidden"))) void glview_unlockContext(CFTypeRef ctx);
__attribute__ ((visibility ("hidden"))) void glview_release(CFTypeRef ref);
*/
import "C"

import (
	"errors"
	"image"
	"sync"
	"unsafe"

	"glview.org/displaylink"
	"glview.org/pixfmt"
	"glview.org/platform"
)

// Driver implements platform.Driver with NSOpenGLContext and
// NSOpenGLView. Views are created and released on the UI thread.
type Driver struct{}

var (
	errPixelFormat = errors.New("macos: failed to create NSOpenGLPixelFormat")
	errView        = errors.New("macos: failed to create NSOpenGLView")
	errContext     = errors.New("macos: failed to create NSOpenGLContext")
)

// views maps live views to their delegates and frame observers. AppKit
// calls back into Go with the view only.
var views = struct {
	sync.Mutex
	delegates map[C.CFTypeRef]platform.ViewDelegate
	observers map[C.CFTypeRef]map[int]func()
	next      int
}{
	delegates: make(map[C.CFTypeRef]platform.ViewDelegate),
	observers: make(map[C.CFTypeRef]map[int]func()),
}

// New returns the NSOpenGL driver.
func New() *Driver {
	return &Driver{}
}

func (d *Driver) NewPixelFormat(attribs []pixfmt.Attribute) (platform.Handle, error) {
	if n := len(attribs); n == 0 || attribs[n-1] != pixfmt.AttrTerminator {
		return 0, errors.New("macos: attribute list not terminated")
	}
	pf := C.glview_newPixelFormat((*C.uint32_t)(unsafe.Pointer(&attribs[0])))
	if pf == 0 {
		return 0, errPixelFormat
	}
	return platform.Handle(pf), nil
}

func (d *Driver) ReleasePixelFormat(pf platform.Handle) {
	C.glview_release(C.CFTypeRef(pf))
}

func (d *Driver) NewView(pf platform.Handle, frame image.Rectangle, del platform.ViewDelegate) (platform.Handle, error) {
	v := C.glview_newView(C.CFTypeRef(pf),
		C.CGFloat(frame.Min.X), C.CGFloat(frame.Min.Y),
		C.CGFloat(frame.Dx()), C.CGFloat(frame.Dy()),
	)
	if v == 0 {
		return 0, errView
	}
	views.Lock()
	views.delegates[v] = del
	views.Unlock()
	return platform.Handle(v), nil
}

func (d *Driver) ReleaseView(view platform.Handle) {
	v := C.CFTypeRef(view)
	views.Lock()
	delete(views.delegates, v)
	_, observed := views.observers[v]
	delete(views.observers, v)
	views.Unlock()
	if observed {
		C.glview_unobserveFrame(v)
	}
	C.glview_release(v)
}

func (d *Driver) ObserveFrameChanges(view platform.Handle, f func()) func() {
	v := C.CFTypeRef(view)
	views.Lock()
	obs, ok := views.observers[v]
	if !ok {
		obs = make(map[int]func())
		views.observers[v] = obs
	}
	id := views.next
	views.next++
	obs[id] = f
	views.Unlock()
	if !ok {
		C.glview_observeFrame(v)
	}
	return func() {
		views.Lock()
		obs, ok := views.observers[v]
		if ok {
			delete(obs, id)
			if len(obs) == 0 {
				delete(views.observers, v)
			}
		}
		last := ok && len(obs) == 0
		views.Unlock()
		if last {
			C.glview_unobserveFrame(v)
		}
	}
}

func (d *Driver) NewContext(pf, share platform.Handle) (platform.Handle, error) {
	ctx := C.glview_newContext(C.CFTypeRef(pf), C.CFTypeRef(share))
	if ctx == 0 {
		return 0, errContext
	}
	return platform.Handle(ctx), nil
}

func (d *Driver) ReleaseContext(ctx platform.Handle) {
	C.glview_release(C.CFTypeRef(ctx))
}

func (d *Driver) SetSurfaceOpacity(ctx platform.Handle, opaque bool) {
	var o C.int
	if opaque {
		o = 1
	}
	C.glview_setSurfaceOpacity(C.CFTypeRef(ctx), o)
}

func (d *Driver) ContextView(ctx platform.Handle) platform.Handle {
	return platform.Handle(C.glview_contextView(C.CFTypeRef(ctx)))
}

func (d *Driver) SetContextView(ctx, view platform.Handle) {
	C.glview_setContextView(C.CFTypeRef(ctx), C.CFTypeRef(view))
}

func (d *Driver) ViewContext(view platform.Handle) platform.Handle {
	return platform.Handle(C.glview_viewContext(C.CFTypeRef(view)))
}

func (d *Driver) SetViewContext(view, ctx platform.Handle) {
	C.glview_setViewContext(C.CFTypeRef(view), C.CFTypeRef(ctx))
}

func (d *Driver) ClearDrawable(ctx platform.Handle) {
	C.glview_clearDrawable(C.CFTypeRef(ctx))
}

func (d *Driver) UpdateContext(ctx platform.Handle) {
	C.glview_updateContext(C.CFTypeRef(ctx))
}

func (d *Driver) MakeCurrent(ctx platform.Handle) {
	C.glview_makeCurrentContext(C.CFTypeRef(ctx))
}

func (d *Driver) ClearCurrent() {
	C.glview_clearCurrentContext()
}

func (d *Driver) CurrentContext() platform.Handle {
	return platform.Handle(C.glview_currentContext())
}

func (d *Driver) FlushBuffer(ctx platform.Handle) {
	C.glview_flushBuffer(C.CFTypeRef(ctx))
}

func (d *Driver) SetSwapInterval(ctx platform.Handle, frames int) {
	C.glview_setSwapInterval(C.CFTypeRef(ctx), C.int(frames))
}

func (d *Driver) SwapInterval(ctx platform.Handle) int {
	return int(C.glview_swapInterval(C.CFTypeRef(ctx)))
}

func (d *Driver) LockContext(ctx platform.Handle) {
	C.glview_lockContext(C.CFTypeRef(ctx))
}

func (d *Driver) UnlockContext(ctx platform.Handle) {
	C.glview_unlockContext(C.CFTypeRef(ctx))
}

func (d *Driver) NewDisplayLink(ctx, pf platform.Handle, tick func()) (displaylink.Source, error) {
	return newDisplayLink(C.CFTypeRef(ctx), C.CFTypeRef(pf), tick)
}

func viewDelegate(v C.CFTypeRef) platform.ViewDelegate {
	views.Lock()
	defer views.Unlock()
	return views.delegates[v]
}

func mouseEvent(ev C.CFTypeRef, x, y, t C.double, clicks C.long) platform.MouseEvent {
	return platform.MouseEvent{
		Position: image.Pt(int(x), int(y)),
		Time:     secondsToDuration(float64(t)),
		Clicks:   int(clicks),
		Native:   platform.Handle(ev),
	}
}

//export glview_onRightMouseDown
func glview_onRightMouseDown(view, ev C.CFTypeRef, x, y, t C.double, clicks C.long) {
	if d := viewDelegate(view); d != nil {
		d.RightMouseDown(mouseEvent(ev, x, y, t, clicks))
	}
}

//export glview_onRightMouseUp
func glview_onRightMouseUp(view, ev C.CFTypeRef, x, y, t C.double, clicks C.long) {
	if d := viewDelegate(view); d != nil {
		d.RightMouseUp(mouseEvent(ev, x, y, t, clicks))
	}
}

//export glview_onAcceptsFirstMouse
func glview_onAcceptsFirstMouse(view, ev C.CFTypeRef, x, y, t C.double, clicks C.long) C.int {
	if d := viewDelegate(view); d != nil && d.AcceptsFirstMouse(mouseEvent(ev, x, y, t, clicks)) {
		return 1
	}
	return 0
}

//export glview_onFrameChanged
func glview_onFrameChanged(view C.CFTypeRef) {
	views.Lock()
	var fs []func()
	for _, f := range views.observers[view] {
		fs = append(fs, f)
	}
	views.Unlock()
	for _, f := range fs {
		f()
	}
}
