// SPDX-License-Identifier: Unlicense OR MIT

//go:build darwin && !ios && cgo

package macos

/*
#include <CoreFoundation/CoreFoundation.h>

__attribute__ ((visibility ("hidden"))) int glview_addSubview(CFTypeRef parent, CFTypeRef view);
__attribute__ ((visibility ("hidden"))) void glview_removeFromSuperview(CFTypeRef view);
__attribute__ ((visibility ("hidden"))) void glview_forwardRightMouseDown(CFTypeRef view, CFTypeRef event);
__attribute__ ((visibility ("hidden"))) void glview_forwardRightMouseUp(CFTypeRef view, CFTypeRef event);
*/
import "C"

import (
	"errors"
	"sync"

	"glview.org/platform"
)

// ViewSurface attaches GL views as subviews of an existing NSView, and
// hands forwarded right mouse events back to it.
type ViewSurface struct {
	// View is the parent NSView. It must outlive every view attached
	// to it.
	View platform.Handle
}

var errNoParent = errors.New("macos: surface has no view")

func (s ViewSurface) Attach(view platform.Handle) (platform.Attachment, error) {
	if s.View == 0 {
		return nil, errNoParent
	}
	if C.glview_addSubview(C.CFTypeRef(s.View), C.CFTypeRef(view)) == 0 {
		return nil, errors.New("macos: addSubview failed")
	}
	return &subview{view: view}, nil
}

func (s ViewSurface) RightMouseDown(e platform.MouseEvent) {
	if e.Native != 0 && s.View != 0 {
		C.glview_forwardRightMouseDown(C.CFTypeRef(s.View), C.CFTypeRef(e.Native))
	}
}

func (s ViewSurface) RightMouseUp(e platform.MouseEvent) {
	if e.Native != 0 && s.View != 0 {
		C.glview_forwardRightMouseUp(C.CFTypeRef(s.View), C.CFTypeRef(e.Native))
	}
}

type subview struct {
	view platform.Handle
	once sync.Once
}

func (s *subview) Detach() {
	s.once.Do(func() {
		C.glview_removeFromSuperview(C.CFTypeRef(s.view))
	})
}
