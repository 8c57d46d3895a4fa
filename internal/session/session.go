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

package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/goerajat/omnibridge-sub002/atomic"
	"github.com/goerajat/omnibridge-sub002/internal/clock"
	"github.com/goerajat/omnibridge-sub002/internal/store"
	"github.com/goerajat/omnibridge-sub002/logger"
)

// Config is the per-session tuning a Session is built with; it mirrors the
// relevant fields of config.SessionConfig without importing the config
// package, so tests can build one without a full process configuration.
type Config struct {
	SessionID         string
	HeartBtInt        time.Duration
	ResetOnLogon      bool
	ResetOnLogout     bool
	ResetOnDisconnect bool
	ResetOnEOD        bool
	LogonTimeout      time.Duration
	LogoutTimeout     time.Duration
}

// Listener observes state transitions and inbound application messages.
// Implementations must not block; the engine fans out to listeners
// synchronously from the event loop, catching panics so one bad listener
// cannot impair another (see Engine).
type Listener interface {
	OnStateChanged(sessionID string, from, to State)
	OnMessage(sessionID string, seqNum uint32, payload []byte)
}

// Sender delivers an already-encoded frame to the wire. tcpchannel.Channel
// satisfies this via WriteRaw.
type Sender interface {
	WriteRaw(payload []byte) error
}

// Session is one connection's lifecycle, sequence, and heartbeat state. All
// mutating methods are safe to call from multiple goroutines, but the
// engine is expected to serialize calls onto the owning event-loop thread
// per the single-writer-per-connection design.
type Session struct {
	cfg    Config
	clock  clock.Clock
	sender Sender
	store  *store.Store
	writer store.Writer
	log    logger.FuncLog

	listenersMu sync.Mutex
	listeners   []Listener

	stateMu sync.Mutex
	state   State

	nextOutbound    atomic.Value[uint32]
	expectedInbound atomic.Value[uint32]

	activityMu           sync.Mutex
	lastOutboundActivity time.Time
	lastInboundActivity  time.Time
	testRequestSent      bool
	logonDeadline        time.Time
	logoutDeadline       time.Time

	// pendingApp holds application messages received with a sequence
	// number ahead of expectedInbound, queued until a ResendRequest's
	// replay closes the gap.
	pendingApp atomic.MapTyped[uint32, []byte]
}

// New builds a Session in StateCreated with both sequence counters at 1.
// store and writer may be nil if persistence (resend replay, EOD markers)
// is not needed by the caller.
func New(cfg Config, clk clock.Clock, sender Sender, st *store.Store, writer store.Writer, log logger.FuncLog) *Session {
	if clk == nil {
		clk = clock.System{}
	}
	s := &Session{
		cfg:        cfg,
		clock:      clk,
		sender:     sender,
		store:      st,
		writer:     writer,
		log:        log,
		state:      StateCreated,
		pendingApp: atomic.NewMapTyped[uint32, []byte](),
	}
	s.nextOutbound = atomic.NewValueDefault[uint32](1, 1)
	s.expectedInbound = atomic.NewValueDefault[uint32](1, 1)
	return s
}

func (s *Session) logger() logger.Logger {
	if s.log == nil {
		return nil
	}
	return s.log()
}

// AddListener registers l. The listener slice is copy-on-write so State and
// HandleInbound callers can iterate it without holding listenersMu.
func (s *Session) AddListener(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	next := make([]Listener, len(s.listeners)+1)
	copy(next, s.listeners)
	next[len(s.listeners)] = l
	s.listeners = next
}

func (s *Session) snapshotListeners() []Listener {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return s.listeners
}

// State reports the session's current lifecycle stage.
func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

// transition applies e, mutates state on success, and fans the change out
// to every listener. A rejected transition leaves state unchanged and is
// logged at Warning; it never panics or propagates beyond the returned
// error.
func (s *Session) transition(e Event) error {
	s.stateMu.Lock()
	from := s.state
	next, err := s.state.Apply(e)
	if err != nil {
		s.stateMu.Unlock()
		if l := s.logger(); l != nil {
			l.Warning("session transition rejected", nil, s.cfg.SessionID, from.String(), e)
		}
		return err
	}
	s.state = next
	s.stateMu.Unlock()

	if next == from {
		return nil
	}
	for _, l := range s.snapshotListeners() {
		s.notifyStateChanged(l, from, next)
	}
	return nil
}

func (s *Session) notifyStateChanged(l Listener, from, to State) {
	defer func() {
		if r := recover(); r != nil {
			if lg := s.logger(); lg != nil {
				lg.Error("session listener panicked", nil, s.cfg.SessionID, fmt.Sprint(r))
			}
		}
	}()
	l.OnStateChanged(s.cfg.SessionID, from, to)
}

// OnTCPConnected reports a completed connect (initiator) or accept
// (acceptor).
func (s *Session) OnTCPConnected() error { return s.transition(EventTCPConnected) }

// OnTCPFailed reports a failed connect attempt.
func (s *Session) OnTCPFailed() error { return s.transition(EventTCPFailed) }

// OnTCPClosed reports the channel closing, by error or peer action.
func (s *Session) OnTCPClosed() error {
	if s.cfg.ResetOnDisconnect {
		s.resetSequencesLocked("disconnect")
	}
	return s.transition(EventTCPClosed)
}

// OnLogonSent reports that this side sent a Logon frame.
func (s *Session) OnLogonSent() error { return s.transition(EventLogonSent) }

// OnLogonReceived reports a Logon frame from the peer. resetSeqNum mirrors
// the peer's ResetSeqNumFlag; when set both counters reset to 1.
func (s *Session) OnLogonReceived(resetSeqNum bool) error {
	if resetSeqNum || s.cfg.ResetOnLogon {
		s.resetSequencesLocked("logon")
	}
	return s.transition(EventLogonReceived)
}

// OnLogoutSent reports that this side sent a Logout frame.
func (s *Session) OnLogoutSent() error {
	if s.cfg.ResetOnLogout {
		s.resetSequencesLocked("logout")
	}
	return s.transition(EventLogoutSent)
}

// OnLogoutReceived reports a Logout frame from the peer.
func (s *Session) OnLogoutReceived() error {
	if s.cfg.ResetOnLogout {
		s.resetSequencesLocked("logout")
	}
	return s.transition(EventLogoutReceived)
}

// Stop moves a disconnected session to StateStopped; it refuses to stop a
// session that is still live.
func (s *Session) Stop() error { return s.transition(EventStop) }

// SendRaw hands an already-encoded frame to the channel and marks outbound
// activity, so the engine's single egress point for every admin and
// application frame keeps the heartbeat send timer accurate.
func (s *Session) SendRaw(now time.Time, payload []byte) error {
	if s.sender == nil {
		return ErrorNoSender.Error()
	}
	if err := s.sender.WriteRaw(payload); err != nil {
		return err
	}
	s.MarkOutboundActivity(now)
	return nil
}
