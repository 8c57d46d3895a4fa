/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/goerajat/omnibridge-sub002/internal/clock"
	"github.com/goerajat/omnibridge-sub002/logger"
)

// Event is an edge-triggered schedule notification.
type Event uint8

const (
	EventSessionStart Event = iota
	EventSessionEnd
	EventResetDue
	EventPreWarnStart
	EventPreWarnEnd
)

func (e Event) String() string {
	switch e {
	case EventSessionStart:
		return "SESSION_START"
	case EventSessionEnd:
		return "SESSION_END"
	case EventResetDue:
		return "RESET_DUE"
	case EventPreWarnStart:
		return "PRE_WARN_START"
	case EventPreWarnEnd:
		return "PRE_WARN_END"
	}
	return "UNKNOWN"
}

// Listener receives schedule edge events for every session bound to the
// window that fired.
type Listener interface {
	OnScheduleEvent(sessionID, scheduleName string, event Event, at time.Time)
}

type binding struct {
	window     Window
	sessionIDs []string
}

type trackState struct {
	wasOpen       bool
	preStartFired bool
	preEndFired   bool
	lastResetDate string
}

// Scheduler evaluates a set of named Windows against an injected clock on
// a polled cadence and emits edge-only events to its listeners.
type Scheduler struct {
	clock clock.Clock
	log   logger.FuncLog

	mu       sync.Mutex
	bindings map[string]*binding
	state    map[string]*trackState

	listenersMu sync.Mutex
	listeners   []Listener

	stop    chan struct{}
	stopped chan struct{}
}

// New builds a Scheduler polling clk.
func New(clk clock.Clock, log logger.FuncLog) *Scheduler {
	if clk == nil {
		clk = clock.System{}
	}
	return &Scheduler{
		clock:    clk,
		log:      log,
		bindings: make(map[string]*binding),
		state:    make(map[string]*trackState),
	}
}

func (s *Scheduler) logger() logger.Logger {
	if s.log == nil {
		return nil
	}
	return s.log()
}

// AddListener registers l.
func (s *Scheduler) AddListener(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	next := make([]Listener, len(s.listeners)+1)
	copy(next, s.listeners)
	next[len(s.listeners)] = l
	s.listeners = next
}

func (s *Scheduler) snapshotListeners() []Listener {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return s.listeners
}

// Bind registers sessionIDs against w, replacing any prior binding under
// the same window name.
func (s *Scheduler) Bind(w Window, sessionIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[w.Name] = &binding{window: w, sessionIDs: sessionIDs}
	if _, ok := s.state[w.Name]; !ok {
		s.state[w.Name] = &trackState{}
	}
}

// Unbind removes a window's binding entirely.
func (s *Scheduler) Unbind(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, name)
	delete(s.state, name)
}

// Run polls at interval (wall-clock cadence; spec's one-second default)
// until Stop is called, evaluating s.clock.Now() on each tick.
func (s *Scheduler) Run(interval time.Duration) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	stop := s.stop
	stopped := s.stopped
	s.mu.Unlock()

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Tick(s.clock.Now())
			}
		}
	}()
}

// Stop halts the Run goroutine and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop := s.stop
	stopped := s.stopped
	s.stop = nil
	s.stopped = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-stopped
}

// Tick evaluates every bound window against now, firing edge-triggered
// events. Exported directly so tests can drive the scheduler with a mock
// clock without a real ticker.
func (s *Scheduler) Tick(now time.Time) {
	s.mu.Lock()
	bindings := make([]*binding, 0, len(s.bindings))
	for _, b := range s.bindings {
		bindings = append(bindings, b)
	}
	s.mu.Unlock()

	for _, b := range bindings {
		s.evaluate(b, now)
	}
}

func (s *Scheduler) evaluate(b *binding, now time.Time) {
	s.mu.Lock()
	st, ok := s.state[b.window.Name]
	if !ok {
		st = &trackState{}
		s.state[b.window.Name] = st
	}
	s.mu.Unlock()

	open := b.window.InWindow(now)

	if b.window.PreWarn > 0 {
		if !open && !st.preStartFired && b.window.InWindow(now.Add(b.window.PreWarn)) {
			st.preStartFired = true
			s.emit(b, EventPreWarnStart, now)
		}
		if open && !st.preEndFired && !b.window.InWindow(now.Add(b.window.PreWarn)) {
			st.preEndFired = true
			s.emit(b, EventPreWarnEnd, now)
		}
	}

	switch {
	case open && !st.wasOpen:
		st.wasOpen = true
		st.preStartFired = false
		s.emit(b, EventSessionStart, now)
	case !open && st.wasOpen:
		st.wasOpen = false
		st.preEndFired = false
		s.emit(b, EventSessionEnd, now)
	}

	if b.window.HasEOD {
		local := now.In(b.window.Loc)
		today := local.Format("2006-01-02")
		if sinceMidnight(local) >= b.window.EOD && st.lastResetDate != today {
			st.lastResetDate = today
			s.emit(b, EventResetDue, now)
		}
	}
}

func (s *Scheduler) emit(b *binding, ev Event, at time.Time) {
	for _, l := range s.snapshotListeners() {
		for _, sid := range b.sessionIDs {
			s.notify(l, sid, b.window.Name, ev, at)
		}
	}
}

func (s *Scheduler) notify(l Listener, sessionID, windowName string, ev Event, at time.Time) {
	defer func() {
		if r := recover(); r != nil {
			if lg := s.logger(); lg != nil {
				lg.Error("schedule listener panicked", nil, windowName, fmt.Sprint(r))
			}
		}
	}()
	l.OnScheduleEvent(sessionID, windowName, ev, at)
}
