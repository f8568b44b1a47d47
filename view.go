// SPDX-License-Identifier: Unlicense OR MIT

package glview

import (
	"glview.org/platform"
)

// viewDelegate keeps the GL view from swallowing input meant for the
// UI around it. Right clicks go to the surface the view is attached to,
// and a click in an inactive window reaches the view instead of only
// activating the window.
type viewDelegate struct {
	surface platform.Surface
}

func (v *viewDelegate) RightMouseDown(e platform.MouseEvent) {
	v.surface.RightMouseDown(e)
}

func (v *viewDelegate) RightMouseUp(e platform.MouseEvent) {
	v.surface.RightMouseUp(e)
}

func (v *viewDelegate) AcceptsFirstMouse(platform.MouseEvent) bool {
	return true
}
