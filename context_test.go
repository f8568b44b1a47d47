// SPDX-License-Identifier: Unlicense OR MIT

package glview

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"glview.org/pixfmt"
	"glview.org/platform"
	"glview.org/platform/headless"
)

type testClock struct {
	mu     sync.Mutex
	now    float64
	sleeps []time.Duration
}

func (c *testClock) Millis() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
}

func (c *testClock) advance(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += ms
}

func newTestContext(t *testing.T, opts ...Option) (*Context, *headless.Driver, *headless.Surface) {
	t.Helper()
	d := headless.New()
	s := new(headless.Surface)
	c, err := New(s, pixfmt.Default(), 0, false, pixfmt.VersionDefault, append([]Option{WithDriver(d)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Destroy)
	return c, d, s
}

func TestCreate(t *testing.T) {
	c, d, s := newTestContext(t)
	if !c.CreatedOK() {
		t.Fatal("context not created")
	}
	views := s.Views()
	if len(views) != 1 {
		t.Fatalf("surface has %d views, want 1", len(views))
	}
	if got := d.ViewContext(views[0]); got != c.RawContext() {
		t.Errorf("view context = %d, want %d", got, c.RawContext())
	}
	st, ok := d.Context(c.RawContext())
	if !ok {
		t.Fatal("native context missing")
	}
	if !st.Opaque {
		t.Error("surface opacity not forced")
	}
	attribs, ok := d.PixelFormat(st.PixelFormat)
	if !ok {
		t.Fatal("pixel format missing")
	}
	want := pixfmt.Attribs(pixfmt.Default(), pixfmt.VersionDefault, false)
	if len(attribs) != len(want) {
		t.Errorf("pixel format attributes = %v, want %v", attribs, want)
	}
	if c.FrameBufferID() != 0 {
		t.Errorf("FrameBufferID = %d, want 0", c.FrameBufferID())
	}
}

func TestSharedContext(t *testing.T) {
	a, d, _ := newTestContext(t)
	s := new(headless.Surface)
	b, err := New(s, pixfmt.Default(), a.RawContext(), true, pixfmt.Version3_2, WithDriver(d))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Destroy()
	st, _ := d.Context(b.RawContext())
	if st.Share != a.RawContext() {
		t.Errorf("share context = %d, want %d", st.Share, a.RawContext())
	}
}

func TestCreationFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *headless.Driver, s *headless.Surface)
		pf    pixfmt.PixelFormat
	}{
		{"pixel format", func(d *headless.Driver, _ *headless.Surface) { d.FailPixelFormat = true }, pixfmt.Default()},
		{"view", func(d *headless.Driver, _ *headless.Surface) { d.FailView = true }, pixfmt.Default()},
		{"context", func(d *headless.Driver, _ *headless.Surface) { d.FailContext = true }, pixfmt.Default()},
		{"attach", func(_ *headless.Driver, s *headless.Surface) { s.FailAttach = true }, pixfmt.Default()},
		{"invalid format", func(*headless.Driver, *headless.Surface) {}, pixfmt.PixelFormat{MultisamplingLevel: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := headless.New()
			s := new(headless.Surface)
			tt.setup(d, s)
			c, err := New(s, tt.pf, 0, false, pixfmt.VersionDefault, WithDriver(d))
			if !errors.Is(err, ErrContextCreation) {
				t.Fatalf("err = %v, want ErrContextCreation", err)
			}
			if c == nil || c.CreatedOK() {
				t.Fatal("expected an inert context")
			}
			if n := d.Live(); n != 0 {
				t.Errorf("%d native objects leaked", n)
			}
			if len(s.Views()) != 0 {
				t.Error("view left attached")
			}
			th := NewThread()
			if c.MakeActive(th) {
				t.Error("inert context became active")
			}
			if c.IsActive(th) {
				t.Error("inert context reports active")
			}
			if c.SetSwapInterval(1) {
				t.Error("inert context accepted a swap interval")
			}
			if c.SwapBuffers() != 0 || c.SwapInterval() != 0 {
				t.Error("inert context swapped")
			}
			if err := c.SetRefreshTarget(func() {}); err == nil {
				t.Error("inert context bound a refresh target")
			}
			c.WithLock(func() {})
			c.Destroy()
			c.Destroy()
		})
	}
}

func TestMakeActive(t *testing.T) {
	c, d, _ := newTestContext(t)
	th := NewThread()
	if c.IsActive(th) {
		t.Fatal("active before MakeActive")
	}
	if !c.MakeActive(th) {
		t.Fatal("MakeActive failed")
	}
	if !c.IsActive(th) || th.Current() != c {
		t.Error("not active after MakeActive")
	}
	if got := d.CurrentContext(); got != c.RawContext() {
		t.Errorf("native current = %d, want %d", got, c.RawContext())
	}
	st, _ := d.Context(c.RawContext())
	if st.View == 0 {
		t.Error("context not attached to its view")
	}
	DeactivateCurrentContext(th)
	if c.IsActive(th) {
		t.Error("still active after DeactivateCurrentContext")
	}
	if d.CurrentContext() != 0 {
		t.Error("native context still current")
	}
}

func TestMakeActiveNotReady(t *testing.T) {
	c, d, s := newTestContext(t)
	// Simulate a view caught between detaching and reattaching its
	// context.
	d.SetViewContext(s.Views()[0], 0)
	th := NewThread()
	if c.MakeActive(th) {
		t.Error("MakeActive succeeded without a view context")
	}
	if c.IsActive(th) {
		t.Error("active without a view context")
	}
}

func TestBorrowAcrossThreads(t *testing.T) {
	c, _, _ := newTestContext(t)
	render, ui := NewThread(), NewThread()
	if !c.MakeActive(render) {
		t.Fatal("MakeActive failed")
	}
	if !c.MakeActive(ui) {
		t.Fatal("MakeActive failed")
	}
	if c.IsActive(render) {
		t.Error("context current on two threads")
	}
	if !c.IsActive(ui) {
		t.Error("context not current on the borrowing thread")
	}
	// Binding another context to ui releases c.
	c2, _, _ := newTestContext(t)
	if !c2.MakeActive(ui) {
		t.Fatal("MakeActive failed")
	}
	if c.IsActive(ui) {
		t.Error("replaced context still active")
	}
	c.ShutdownOnRenderThread(render)
	if !c2.IsActive(ui) {
		t.Error("shutting down another thread deactivated ui")
	}
}

func TestDestroy(t *testing.T) {
	c, d, s := newTestContext(t)
	th := NewThread()
	c.MakeActive(th)
	var n atomic.Int32
	if err := c.SetRefreshTarget(func() { n.Add(1) }); err != nil {
		t.Fatal(err)
	}
	c.Destroy()
	c.Destroy()
	if c.CreatedOK() || c.RawContext() != 0 {
		t.Error("handles not cleared")
	}
	if th.Current() != nil {
		t.Error("destroyed context still bound to thread")
	}
	if live := d.Live(); live != 0 {
		t.Errorf("%d native objects leaked", live)
	}
	if len(s.Views()) != 0 {
		t.Error("view still attached")
	}
	after := n.Load()
	time.Sleep(10 * time.Millisecond)
	if n.Load() != after {
		t.Error("refresh target called after Destroy")
	}
	if c.MakeActive(th) {
		t.Error("destroyed context became active")
	}
}

func TestSwapInterval(t *testing.T) {
	clk := new(testClock)
	c, d, _ := newTestContext(t, WithClock(clk.Millis), WithSleep(clk.Sleep))
	if !c.SetSwapInterval(2) {
		t.Fatal("SetSwapInterval refused")
	}
	if got := c.pacing.MinInterval(); got != 33 {
		t.Errorf("min swap interval = %dms, want 33", got)
	}
	if got := c.SwapInterval(); got != 2 {
		t.Errorf("SwapInterval = %d, want 2", got)
	}
	// The driver's value is reported even if it changes behind our back.
	d.SetSwapInterval(c.RawContext(), 0)
	if got := c.SwapInterval(); got != 0 {
		t.Errorf("SwapInterval = %d, want driver value 0", got)
	}
	if got := c.pacing.MinInterval(); got != 33 {
		t.Errorf("driver change altered pacing: %d", got)
	}
}

func TestSwapBuffersPacing(t *testing.T) {
	clk := &testClock{now: 1000}
	c, d, _ := newTestContext(t, WithClock(clk.Millis), WithSleep(clk.Sleep))
	c.SetSwapInterval(2)
	c.SwapBuffers()
	for i, e := range []float64{5, 5, 5, 5, 40} {
		clk.advance(e)
		slept := c.SwapBuffers()
		if i == 3 && slept != 28*time.Millisecond {
			t.Errorf("swap %d slept %v, want 28ms", i+1, slept)
		}
		if i != 3 && slept != 0 {
			t.Errorf("swap %d slept %v", i+1, slept)
		}
	}
	if len(clk.sleeps) != 1 {
		t.Errorf("slept %d times, want 1", len(clk.sleeps))
	}
	if got := d.Flushes(); got != 6 {
		t.Errorf("flushes = %d, want 6", got)
	}
}

func TestRefreshTarget(t *testing.T) {
	c, d, _ := newTestContext(t)
	d.SetRefreshRate(1000)
	var n atomic.Int32
	target := func() {
		c.WithLock(func() { n.Add(1) })
	}
	if err := c.SetRefreshTarget(target); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d refresh callbacks", n.Load())
		}
		time.Sleep(time.Millisecond)
	}
	if err := c.SetRefreshTarget(nil); err != nil {
		t.Fatal(err)
	}
	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	if got := n.Load(); got != after {
		t.Errorf("%d callbacks after unbinding", got-after)
	}
}

func TestFrameChangeUpdatesContext(t *testing.T) {
	c, d, s := newTestContext(t)
	v := s.Views()[0]
	d.FrameChanged(v)
	d.FrameChanged(v)
	st, _ := d.Context(c.RawContext())
	if st.Updates != 2 {
		t.Errorf("context updated %d times, want 2", st.Updates)
	}
	c.Destroy()
	// Notifications after teardown must not reach the context.
	d.FrameChanged(v)
}

func TestMouseForwarding(t *testing.T) {
	_, d, s := newTestContext(t)
	v := s.Views()[0]
	down := platform.MouseEvent{Clicks: 1, Time: time.Second}
	d.RightMouseDown(v, down)
	d.RightMouseUp(v, platform.MouseEvent{Clicks: 1})
	ev := s.Events()
	if len(ev) != 2 {
		t.Fatalf("surface received %d events, want 2", len(ev))
	}
	if ev[0].Kind != headless.RightMouseDown || ev[0].Mouse != down {
		t.Errorf("first event = %+v", ev[0])
	}
	if ev[1].Kind != headless.RightMouseUp {
		t.Errorf("second event = %+v", ev[1])
	}
	if !d.AcceptsFirstMouse(v, platform.MouseEvent{}) {
		t.Error("view refused first mouse")
	}
}

func TestUpdateWindowPosition(t *testing.T) {
	c, d, _ := newTestContext(t)
	before, _ := d.Context(c.RawContext())
	c.UpdateWindowPosition(image.Rect(10, 10, 200, 200))
	after, _ := d.Context(c.RawContext())
	if before != after {
		t.Errorf("UpdateWindowPosition changed native state: %+v -> %+v", before, after)
	}
}

func TestRenderThreadLifecycle(t *testing.T) {
	c, _, _ := newTestContext(t)
	done := make(chan bool)
	go func() {
		th := LockThread()
		defer th.Unlock()
		c.InitialiseOnRenderThread(th)
		ok := c.MakeActive(th) && c.IsActive(th)
		c.SwapBuffers()
		c.ShutdownOnRenderThread(th)
		done <- ok && !c.IsActive(th)
	}()
	if !<-done {
		t.Error("render thread lifecycle failed")
	}
}
