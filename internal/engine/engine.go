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

// Package engine wires every lower layer (ring buffer, store, event loop,
// TCP channel, acceptor, codecs, session, scheduler) into one orchestrator:
// a session registry keyed by session id, the listening acceptors keyed by
// port, schedule-driven connect/disconnect/EOD, and fan-out of every
// session's state changes and inbound application messages to registered
// listeners.
package engine

import (
	"fmt"
	"net"
	"sync"
	"time"

	stdctx "context"

	libctx "github.com/goerajat/omnibridge-sub002/context"

	"github.com/goerajat/omnibridge-sub002/config"
	"github.com/goerajat/omnibridge-sub002/internal/acceptor"
	"github.com/goerajat/omnibridge-sub002/internal/clock"
	"github.com/goerajat/omnibridge-sub002/internal/metrics"
	"github.com/goerajat/omnibridge-sub002/internal/netloop"
	"github.com/goerajat/omnibridge-sub002/internal/schedule"
	"github.com/goerajat/omnibridge-sub002/internal/session"
	"github.com/goerajat/omnibridge-sub002/internal/store"
	"github.com/goerajat/omnibridge-sub002/logger"
)

// StateListener is fanned out to for every session's state transition.
type StateListener interface {
	OnSessionStateChanged(sessionID string, from, to session.State)
}

// MessageListener is fanned out to for every accepted inbound application
// message.
type MessageListener interface {
	OnSessionMessage(sessionID string, seqNum uint32, payload []byte)
}

// Dependencies are the externally injected collaborators spec.md requires
// an engine be built from: no global mutable state, clock and persistence
// are always supplied by the caller.
type Dependencies struct {
	Log     logger.FuncLog
	Clock   clock.Clock
	Store   *store.Store
	Metrics metrics.Counters
}

// Engine is the L11 orchestrator: spec.md §4.11.
type Engine struct {
	cfg     *config.Config
	log     logger.FuncLog
	clock   clock.Clock
	store   *store.Store
	metrics metrics.Counters

	loops map[string]*netloop.Loop

	acceptTablesMu sync.Mutex
	acceptTables   map[int]*acceptor.Table
	rawListeners   map[int]net.Listener

	sessions libctx.Config[string] // sessionID -> *managedSession, atomic put-if-absent registry

	scheduler *schedule.Scheduler

	stateListenersMu sync.Mutex
	stateListeners   []StateListener

	messageListenersMu sync.Mutex
	messageListeners   []MessageListener

	tickerStop chan struct{}
	tickerDone chan struct{}

	runningMu sync.Mutex
	running   bool
	stopped   bool
}

// New validates cfg and builds every shared collaborator (event loops,
// acceptor tables, scheduler bindings) plus one managed session per
// configured session, but does not start anything: call Start to begin
// accepting connections and running the heartbeat/schedule tickers.
func New(cfg *config.Config, deps Dependencies) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clk := deps.Clock
	if clk == nil {
		clk = clock.System{}
	}
	mtr := deps.Metrics
	if mtr == nil {
		mtr = &metrics.Noop{}
	}

	e := &Engine{
		cfg:          cfg,
		log:          deps.Log,
		clock:        clk,
		store:        deps.Store,
		metrics:      mtr,
		loops:        make(map[string]*netloop.Loop),
		acceptTables: make(map[int]*acceptor.Table),
		rawListeners: make(map[int]net.Listener),
		sessions:     libctx.New[string](stdctx.Background()),
		scheduler:    schedule.New(clk, deps.Log),
	}

	for _, n := range cfg.Networks {
		e.loops[n.Name] = netloop.New(n, deps.Log)
	}

	bySchedule := make(map[string][]string)
	for _, sc := range cfg.Sessions {
		if sc.Schedule != "" {
			bySchedule[sc.Schedule] = append(bySchedule[sc.Schedule], sc.SessionID)
		}
	}

	for _, sc := range cfg.Schedules {
		w, err := buildWindow(sc)
		if err != nil {
			return nil, err
		}
		e.scheduler.Bind(w, bySchedule[sc.Name]...)
	}
	e.scheduler.AddListener(e)

	for _, sc := range cfg.Sessions {
		if sc.Schedule != "" {
			found := false
			for _, s := range cfg.Schedules {
				if s.Name == sc.Schedule {
					found = true
					break
				}
			}
			if !found {
				return nil, ErrorUnknownSchedule.Error()
			}
		}
		if err := e.Register(sc); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func buildWindow(sc config.ScheduleConfig) (schedule.Window, error) {
	loc, err := time.LoadLocation(sc.TimeZone)
	if err != nil {
		return schedule.Window{}, ErrorUnknownSchedule.Error()
	}
	start, err := schedule.ParseTimeOfDay(sc.StartTime)
	if err != nil {
		return schedule.Window{}, err
	}
	end, err := schedule.ParseTimeOfDay(sc.EndTime)
	if err != nil {
		return schedule.Window{}, err
	}
	days, err := schedule.ParseDays(sc.Days)
	if err != nil {
		return schedule.Window{}, err
	}
	w := schedule.Window{
		Name: sc.Name,
		Loc:  loc,
		Start: start,
		End:   end,
		Days:  days,
	}
	if sc.EODTime != "" {
		eod, err := schedule.ParseTimeOfDay(sc.EODTime)
		if err != nil {
			return schedule.Window{}, err
		}
		w.HasEOD = true
		w.EOD = eod
	}
	if sc.PreWarnSeconds > 0 {
		w.PreWarn = time.Duration(sc.PreWarnSeconds) * time.Second
	}
	return w, nil
}

func (e *Engine) logger() logger.Logger {
	if e.log == nil {
		return nil
	}
	return e.log()
}

// AddStateListener registers l for every future session state transition.
func (e *Engine) AddStateListener(l StateListener) {
	e.stateListenersMu.Lock()
	defer e.stateListenersMu.Unlock()
	next := make([]StateListener, len(e.stateListeners)+1)
	copy(next, e.stateListeners)
	next[len(e.stateListeners)] = l
	e.stateListeners = next
}

// AddMessageListener registers l for every future accepted inbound
// application message.
func (e *Engine) AddMessageListener(l MessageListener) {
	e.messageListenersMu.Lock()
	defer e.messageListenersMu.Unlock()
	next := make([]MessageListener, len(e.messageListeners)+1)
	copy(next, e.messageListeners)
	next[len(e.messageListeners)] = l
	e.messageListeners = next
}

func (e *Engine) snapshotStateListeners() []StateListener {
	e.stateListenersMu.Lock()
	defer e.stateListenersMu.Unlock()
	return e.stateListeners
}

func (e *Engine) snapshotMessageListeners() []MessageListener {
	e.messageListenersMu.Lock()
	defer e.messageListenersMu.Unlock()
	return e.messageListeners
}

// OnStateChanged implements session.Listener, fanning a transition out to
// every registered StateListener, catching panics so one bad listener
// cannot impair another.
func (e *Engine) OnStateChanged(sessionID string, from, to session.State) {
	e.metrics.StateTransition(sessionID, from.String(), to.String())
	for _, l := range e.snapshotStateListeners() {
		e.notifyState(l, sessionID, from, to)
	}
}

func (e *Engine) notifyState(l StateListener, sessionID string, from, to session.State) {
	defer func() {
		if r := recover(); r != nil {
			if lg := e.logger(); lg != nil {
				lg.Error("engine state listener panicked", nil, sessionID, fmt.Sprint(r))
			}
		}
	}()
	l.OnSessionStateChanged(sessionID, from, to)
}

// OnMessage implements session.Listener, fanning an accepted inbound
// application message out to every registered MessageListener.
func (e *Engine) OnMessage(sessionID string, seqNum uint32, payload []byte) {
	for _, l := range e.snapshotMessageListeners() {
		e.notifyMessage(l, sessionID, seqNum, payload)
	}
}

func (e *Engine) notifyMessage(l MessageListener, sessionID string, seqNum uint32, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			if lg := e.logger(); lg != nil {
				lg.Error("engine message listener panicked", nil, sessionID, fmt.Sprint(r))
			}
		}
	}()
	l.OnSessionMessage(sessionID, seqNum, payload)
}

func (e *Engine) lookup(sessionID string) (*managedSession, error) {
	v, ok := e.sessions.Load(sessionID)
	if !ok {
		return nil, ErrorUnknownSession.Error()
	}
	ms, ok := v.(*managedSession)
	if !ok {
		return nil, ErrorUnknownSession.Error()
	}
	return ms, nil
}
