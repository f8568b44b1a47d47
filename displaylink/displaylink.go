// SPDX-License-Identifier: Unlicense OR MIT

// Package displaylink delivers one callback per display refresh to a
// single bound target.
//
// The refresh callback runs on a thread chosen by the Source, never
// assumed to be the render thread. Targets that share state with the
// render thread must synchronise themselves, typically by taking the
// context lock.
package displaylink

import (
	"errors"
	"sync"
)

// Source is a refresh clock. It calls the tick function it was created
// with once per refresh while started.
type Source interface {
	Start() error
	Stop()
	// Release frees the underlying clock. The Source is not used again.
	Release()
}

// Factory creates a Source that calls tick on every refresh.
type Factory func(tick func()) (Source, error)

// Link binds at most one target to a lazily created Source.
type Link struct {
	newSource Factory

	// mu is held for reading while a target runs and for writing
	// while the binding changes.
	mu     sync.RWMutex
	src    Source
	target func()
}

var errNoFactory = errors.New("displaylink: no source factory")

// New returns an unbound Link creating its Source with f.
func New(f Factory) *Link {
	return &Link{newSource: f}
}

// Bind makes target the receiver of refresh callbacks. A nil target
// stops and releases the Source; once Bind(nil) returns no callback is
// running or will run. Rebinding while bound keeps the existing Source.
//
// Bind must not be called from within a target.
func (l *Link) Bind(target func()) error {
	if target == nil {
		l.unbind()
		return nil
	}
	l.mu.Lock()
	created := false
	if l.src == nil {
		if l.newSource == nil {
			l.mu.Unlock()
			return errNoFactory
		}
		src, err := l.newSource(l.tick)
		if err != nil {
			l.mu.Unlock()
			return err
		}
		l.src = src
		created = true
	}
	l.target = target
	err := l.src.Start()
	if err == nil {
		l.mu.Unlock()
		return nil
	}
	l.target = nil
	var failed Source
	if created {
		// A source that never started is not kept.
		failed = l.src
		l.src = nil
	}
	l.mu.Unlock()
	if failed != nil {
		failed.Release()
	}
	return err
}

func (l *Link) unbind() {
	l.mu.Lock()
	src := l.src
	l.src = nil
	l.target = nil
	l.mu.Unlock()
	// The write lock above waited out any running target. Stop outside
	// the lock: some sources wait for their callback thread to finish,
	// and that thread may be blocked on mu.
	if src != nil {
		src.Stop()
		src.Release()
	}
}

// Close unbinds the target. It is equivalent to Bind(nil).
func (l *Link) Close() {
	l.unbind()
}

// Bound reports whether a target is bound.
func (l *Link) Bound() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.target != nil
}

func (l *Link) tick() {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.target != nil {
		l.target()
	}
}
