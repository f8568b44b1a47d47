// SPDX-License-Identifier: Unlicense OR MIT

package headless

import (
	"image"
	"sync/atomic"
	"testing"
	"time"

	"glview.org/pixfmt"
	"glview.org/platform"
)

var _ platform.Driver = (*Driver)(nil)
var _ platform.Surface = (*Surface)(nil)

func newTestContext(t *testing.T) (*Driver, platform.Handle, platform.Handle, platform.Handle) {
	t.Helper()
	d := New()
	pf, err := d.NewPixelFormat(pixfmt.Attribs(pixfmt.Default(), pixfmt.VersionDefault, false))
	if err != nil {
		t.Fatal(err)
	}
	v, err := d.NewView(pf, image.Rect(0, 0, 100, 100), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := d.NewContext(pf, 0)
	if err != nil {
		t.Fatal(err)
	}
	return d, pf, v, ctx
}

func TestObjects(t *testing.T) {
	d, pf, v, ctx := newTestContext(t)
	if n := d.Live(); n != 3 {
		t.Fatalf("live objects = %d, want 3", n)
	}
	d.SetViewContext(v, ctx)
	if got := d.ViewContext(v); got != ctx {
		t.Errorf("ViewContext = %d, want %d", got, ctx)
	}
	if got := d.ContextView(ctx); got != 0 {
		t.Errorf("context attached to view %d before SetContextView", got)
	}
	d.SetContextView(ctx, v)
	st, _ := d.Context(ctx)
	if st.View != v || !st.Drawable || st.PixelFormat != pf {
		t.Errorf("unexpected context state %+v", st)
	}
	d.ClearDrawable(ctx)
	d.ReleaseContext(ctx)
	d.ReleaseView(v)
	d.ReleasePixelFormat(pf)
	if n := d.Live(); n != 0 {
		t.Errorf("live objects = %d after release", n)
	}
}

func TestFailures(t *testing.T) {
	d := New()
	d.FailPixelFormat = true
	if _, err := d.NewPixelFormat([]pixfmt.Attribute{0}); err == nil {
		t.Error("pixel format creation did not fail")
	}
	d.FailPixelFormat = false
	if _, err := d.NewPixelFormat(nil); err == nil {
		t.Error("unterminated attribute list accepted")
	}
	if _, err := d.NewContext(42, 0); err == nil {
		t.Error("context created for unknown pixel format")
	}
}

func TestCurrent(t *testing.T) {
	d, _, _, ctx := newTestContext(t)
	d.MakeCurrent(ctx)
	if got := d.CurrentContext(); got != ctx {
		t.Errorf("current = %d, want %d", got, ctx)
	}
	d.ReleaseContext(ctx)
	if got := d.CurrentContext(); got != 0 {
		t.Errorf("released context still current")
	}
}

func TestFrameObservers(t *testing.T) {
	d, _, v, ctx := newTestContext(t)
	remove := d.ObserveFrameChanges(v, func() { d.UpdateContext(ctx) })
	d.FrameChanged(v)
	d.FrameChanged(v)
	remove()
	d.FrameChanged(v)
	if st, _ := d.Context(ctx); st.Updates != 2 {
		t.Errorf("updates = %d, want 2", st.Updates)
	}
}

func TestDisplayLink(t *testing.T) {
	d, pf, _, ctx := newTestContext(t)
	d.RefreshPeriod = time.Millisecond
	var n atomic.Int32
	src, err := d.NewDisplayLink(ctx, pf, func() { n.Add(1) })
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Start(); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	src.Release()
	if n.Load() == 0 {
		t.Error("display link never fired")
	}
	if _, err := d.NewDisplayLink(999, pf, func() {}); err == nil {
		t.Error("display link created for unknown context")
	}
}

func TestSurface(t *testing.T) {
	var s Surface
	a, err := s.Attach(7)
	if err != nil {
		t.Fatal(err)
	}
	if v := s.Views(); len(v) != 1 || v[0] != 7 {
		t.Errorf("views = %v", v)
	}
	a.Detach()
	a.Detach()
	if v := s.Views(); len(v) != 0 {
		t.Errorf("views after detach = %v", v)
	}
	s.FailAttach = true
	if _, err := s.Attach(8); err == nil {
		t.Error("attach did not fail")
	}
}
