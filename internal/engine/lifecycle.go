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

package engine

import (
	stdctx "context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/goerajat/omnibridge-sub002/config"
	"github.com/goerajat/omnibridge-sub002/internal/binarycodec"
	"github.com/goerajat/omnibridge-sub002/internal/schedule"
	"github.com/goerajat/omnibridge-sub002/internal/session"
	"github.com/goerajat/omnibridge-sub002/internal/tcpchannel"
)

func dialPlain(addr string) (net.Conn, error) {
	return net.Dial("tcp", addr)
}

func loginRequestFor(ms *managedSession) []byte {
	req := binarycodec.LoginRequest{
		Username:       ms.cfg.Sender,
		Session:        ms.cfg.SessionID,
		SequenceNumber: fmt.Sprintf("%d", ms.sess.ExpectedInbound()),
	}
	return binarycodec.EncodePacket(binarycodec.TypeLoginRequest, binarycodec.EncodeLoginRequest(req))
}

// Connect dials out an initiator session's channel and sends its initial
// login frame. Acceptor sessions listen continuously and never call this.
func (e *Engine) Connect(sessionID string) error {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	return e.connect(ms)
}

func (e *Engine) connect(ms *managedSession) error {
	if ms.cfg.Role != config.RoleInitiator {
		return ErrorNotInitiator.Error()
	}
	if ms.getChannel() != nil {
		return ErrorAlreadyConnected.Error()
	}

	chCfg := tcpchannel.DefaultConfig()
	addr := fmt.Sprintf("%s:%d", ms.cfg.Host, ms.cfg.Port)
	onData := func(id uint64, data []byte) { e.feedInbound(ms, data) }
	onErr := func(id uint64, err error) { e.onChannelError(ms, err) }

	var ch *tcpchannel.Channel
	var dialErr error
	if ms.cfg.SSL.Enabled {
		ch, dialErr = tcpchannel.DialTLS(addr, ms.cfg.Host, ms.cfg.SSL, chCfg, ms.loop, onData, onErr)
	} else {
		conn, derr := dialPlain(addr)
		if derr != nil {
			dialErr = derr
		} else {
			ch = tcpchannel.New(conn, chCfg, ms.loop, e.log, onData, onErr)
		}
	}
	if dialErr != nil {
		ms.reconnectAttempts++
		e.metrics.Reconnect(ms.cfg.SessionID)
		if err := ms.sess.OnTCPFailed(); err != nil {
			e.logErr(ms.cfg.SessionID, "engine: session rejected tcp failed event", err)
		}
		return dialErr
	}
	ms.reconnectAttempts = 0

	ms.setChannel(ch)
	ms.loop.Register(ch)
	if err := ms.sess.OnTCPConnected(); err != nil {
		e.logErr(ms.cfg.SessionID, "engine: session rejected tcp connected event", err)
		return err
	}
	ms.sess.ArmLogonTimer(e.clock.Now())
	e.sendInitialLogon(ms)
	return nil
}

func (e *Engine) sendInitialLogon(ms *managedSession) {
	switch {
	case ms.fixEnc != nil:
		e.sendFIX(ms, "A", nil)
		if err := ms.sess.OnLogonSent(); err != nil {
			e.logErr(ms.cfg.SessionID, "engine: logon sent event rejected", err)
		}
	case ms.soupDec != nil:
		ch := ms.getChannel()
		if ch == nil {
			return
		}
		login := loginRequestFor(ms)
		if err := ms.sess.SendRaw(e.clock.Now(), login); err != nil {
			e.logErr(ms.cfg.SessionID, "engine: failed to send soupbintcp login", err)
			return
		}
		if err := ms.sess.OnLogonSent(); err != nil {
			e.logErr(ms.cfg.SessionID, "engine: logon sent event rejected", err)
		}
	case ms.pillarDec != nil:
		if err := ms.sess.OnLogonSent(); err != nil {
			e.logErr(ms.cfg.SessionID, "engine: logon sent event rejected", err)
		}
	}
}

// Disconnect gracefully logs a session out: if logged on, send a Logout
// frame and wait for the peer's Logout or the logout timer before closing.
// abrupt=true skips the logout exchange and closes the channel immediately.
func (e *Engine) Disconnect(sessionID string) error {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	return e.disconnect(ms, false)
}

func (e *Engine) disconnect(ms *managedSession, abrupt bool) error {
	if ms.getChannel() == nil {
		return nil
	}
	if !abrupt && ms.sess.State() == session.StateLoggedOn && ms.fixEnc != nil {
		e.sendFIXLogout(ms, "")
		return nil
	}
	e.forceDisconnect(ms)
	return nil
}

// TriggerEOD forces ms's session through an end-of-day sequence reset.
func (e *Engine) TriggerEOD(sessionID string) error {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	return ms.sess.TriggerEOD()
}

// OnScheduleEvent implements schedule.Listener, routing schedule edges to
// the session they were bound for.
func (e *Engine) OnScheduleEvent(sessionID, scheduleName string, event schedule.Event, at time.Time) {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return
	}
	switch event {
	case schedule.EventSessionStart:
		if ms.cfg.Role == config.RoleInitiator {
			if err := e.connect(ms); err != nil {
				e.logErr(sessionID, "engine: scheduled connect failed", err)
			}
		}
	case schedule.EventSessionEnd:
		if err := e.disconnect(ms, false); err != nil {
			e.logErr(sessionID, "engine: scheduled disconnect failed", err)
		}
	case schedule.EventResetDue:
		if err := ms.sess.TriggerEOD(); err != nil {
			e.logErr(sessionID, "engine: scheduled eod trigger failed", err)
		}
	}
}

// Start runs every network loop and the scheduler, and begins accepting on
// every registered acceptor port. It returns once everything has been
// kicked off; the loops and acceptors keep running in the background.
func (e *Engine) Start() error {
	e.runningMu.Lock()
	if e.running {
		e.runningMu.Unlock()
		return nil
	}
	e.running = true
	e.runningMu.Unlock()

	for _, l := range e.loops {
		loop := l
		go func() {
			if err := loop.Run(); err != nil {
				e.logErr("", "engine: network loop exited with error", err)
			}
		}()
	}

	e.scheduler.Run(1 * time.Second)
	e.startHeartbeatTicker()
	return nil
}

func (e *Engine) startHeartbeatTicker() {
	e.tickerStop = make(chan struct{})
	e.tickerDone = make(chan struct{})
	go e.heartbeatLoop()
}

func (e *Engine) heartbeatLoop() {
	defer close(e.tickerDone)
	t := time.NewTicker(1 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-e.tickerStop:
			return
		case now := <-t.C:
			e.checkAllSessions(now)
		}
	}
}

func (e *Engine) checkAllSessions(now time.Time) {
	e.sessions.Walk(func(_ string, v interface{}) bool {
		ms, ok := v.(*managedSession)
		if !ok {
			return true
		}
		ms.loop.Execute(func() { e.checkSession(ms, now) })
		return true
	})
}

func (e *Engine) checkSession(ms *managedSession, now time.Time) {
	if ms.sess.CheckLogonTimeout(now) {
		e.logErr(ms.cfg.SessionID, "engine: logon timed out", nil)
		e.forceDisconnect(ms)
		return
	}
	if ms.sess.CheckLogoutTimeout(now) {
		e.logErr(ms.cfg.SessionID, "engine: logout timed out", nil)
		e.forceDisconnect(ms)
		return
	}
	switch ms.sess.CheckHeartbeat(now) {
	case session.HeartbeatSend:
		e.sendFIXHeartbeat(ms, "")
	case session.HeartbeatSendTestRequest:
		e.sendFIXTestRequest(ms, fmt.Sprintf("TEST-%d", now.UnixNano()))
	case session.HeartbeatDisconnect:
		e.metrics.HeartbeatTimeout(ms.cfg.SessionID)
		e.logErr(ms.cfg.SessionID, "engine: peer unresponsive past test-request grace, disconnecting", nil)
		e.forceDisconnect(ms)
	}
}

// Stop implements the graceful shutdown sequence: stop accepting new
// sessions, Logout every logged-on session within a bounded grace period,
// disconnect, close every channel, stop every event loop, and flush the
// persistence store. abrupt skips the Logout exchange.
func (e *Engine) Stop(grace time.Duration, abrupt bool) error {
	e.runningMu.Lock()
	if e.stopped {
		e.runningMu.Unlock()
		return nil
	}
	e.stopped = true
	e.runningMu.Unlock()

	for _, ln := range e.rawListeners {
		_ = ln.Close()
	}

	e.scheduler.Stop()
	if e.tickerStop != nil {
		close(e.tickerStop)
		<-e.tickerDone
	}

	if !abrupt {
		e.logoutAll(grace)
	}

	e.sessions.Walk(func(_ string, v interface{}) bool {
		if ms, ok := v.(*managedSession); ok {
			e.forceDisconnect(ms)
		}
		return true
	})

	for _, l := range e.loops {
		if err := l.Stop(grace); err != nil {
			e.logErr("", "engine: network loop stop timed out", err)
		}
	}

	if e.store != nil {
		if err := e.store.Close(); err != nil {
			return err
		}
	}
	return nil
}

// logoutAll sends a Logout to every logged-on session concurrently,
// bounding in-flight logouts and the overall wait to grace.
func (e *Engine) logoutAll(grace time.Duration) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), grace)
	defer cancel()

	sem := semaphore.NewWeighted(8)
	g, gctx := errgroup.WithContext(ctx)

	e.sessions.Walk(func(_ string, v interface{}) bool {
		ms, ok := v.(*managedSession)
		if !ok {
			return true
		}
		if ms.sess.State() != session.StateLoggedOn {
			return true
		}
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)
			return e.disconnect(ms, false)
		})
		return true
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}
