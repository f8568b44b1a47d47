// SPDX-License-Identifier: Unlicense OR MIT

package headless

import (
	"errors"
	"sync"

	"glview.org/platform"
)

// Surface is an in-memory platform.Surface. It records the views
// attached to it and the mouse events forwarded to it.
type Surface struct {
	// FailAttach makes Attach fail.
	FailAttach bool

	mu     sync.Mutex
	views  []platform.Handle
	events []Event
}

// EventKind identifies a forwarded mouse event.
type EventKind uint8

const (
	RightMouseDown EventKind = iota
	RightMouseUp
)

// Event is a mouse event received by a Surface.
type Event struct {
	Kind  EventKind
	Mouse platform.MouseEvent
}

var errAttach = errors.New("headless: surface refused view")

func (s *Surface) Attach(view platform.Handle) (platform.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAttach {
		return nil, errAttach
	}
	s.views = append(s.views, view)
	return &attachment{s: s, view: view}, nil
}

func (s *Surface) RightMouseDown(e platform.MouseEvent) {
	s.record(Event{Kind: RightMouseDown, Mouse: e})
}

func (s *Surface) RightMouseUp(e platform.MouseEvent) {
	s.record(Event{Kind: RightMouseUp, Mouse: e})
}

func (s *Surface) record(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Views returns the attached views.
func (s *Surface) Views() []platform.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]platform.Handle(nil), s.views...)
}

// Events returns the forwarded events in arrival order.
func (s *Surface) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

type attachment struct {
	s    *Surface
	view platform.Handle
	once sync.Once
}

func (a *attachment) Detach() {
	a.once.Do(func() {
		s := a.s
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, v := range s.views {
			if v == a.view {
				s.views = append(s.views[:i], s.views[i+1:]...)
				break
			}
		}
	})
}
