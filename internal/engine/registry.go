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
	"fmt"
	"net"
	"sync"

	"github.com/goerajat/omnibridge-sub002/config"
	"github.com/goerajat/omnibridge-sub002/internal/acceptor"
	"github.com/goerajat/omnibridge-sub002/internal/binarycodec"
	"github.com/goerajat/omnibridge-sub002/internal/fixcodec"
	"github.com/goerajat/omnibridge-sub002/internal/netloop"
	"github.com/goerajat/omnibridge-sub002/internal/session"
	"github.com/goerajat/omnibridge-sub002/internal/store"
	"github.com/goerajat/omnibridge-sub002/internal/tcpchannel"
)

// managedSession bundles one configured session with the codec and channel
// state the engine drives it through; one exists per cfg.Sessions entry for
// the engine's lifetime, its *tcpchannel.Channel swapped out across
// reconnects.
type managedSession struct {
	cfg    config.SessionConfig
	sess   *session.Session
	loop   *netloop.Loop
	writer store.Writer
	eng    *Engine

	channelMu sync.Mutex
	channel   *tcpchannel.Channel

	fixDec    *fixcodec.Decoder
	fixEnc    *fixcodec.Encoder
	soupDec   *binarycodec.SoupDecoder
	pillarDec *binarycodec.PillarDecoder

	reconnectAttempts int
}

// WriteRaw implements session.Sender, forwarding to whichever channel is
// currently live. A session is built once and its sender never changes
// across reconnects; only the channel underneath it does.
func (ms *managedSession) WriteRaw(payload []byte) error {
	ms.channelMu.Lock()
	ch := ms.channel
	ms.channelMu.Unlock()
	if ch == nil {
		return ErrorNoChannel.Error()
	}
	return ch.WriteRaw(payload)
}

func (ms *managedSession) setChannel(ch *tcpchannel.Channel) {
	ms.channelMu.Lock()
	ms.channel = ch
	ms.channelMu.Unlock()
}

func (ms *managedSession) getChannel() *tcpchannel.Channel {
	ms.channelMu.Lock()
	defer ms.channelMu.Unlock()
	return ms.channel
}

func isFIXWire(w config.WireProtocol) bool {
	switch w {
	case config.WireFIX42, config.WireFIX44, config.WireFIX50:
		return true
	}
	return false
}

func isSoupWire(w config.WireProtocol) bool {
	switch w {
	case config.WireOUCH42, config.WireOUCH50:
		return true
	}
	return false
}

func isPillarWire(w config.WireProtocol) bool {
	switch w {
	case config.WirePillar, config.WireSBE:
		return true
	}
	return false
}

func (e *Engine) resolveLoop(networkName string) (*netloop.Loop, error) {
	if networkName != "" {
		l, ok := e.loops[networkName]
		if !ok {
			return nil, ErrorUnknownNetwork.Error()
		}
		return l, nil
	}
	if len(e.loops) != 1 {
		return nil, ErrorUnknownNetwork.Error()
	}
	for _, l := range e.loops {
		return l, nil
	}
	return nil, ErrorUnknownNetwork.Error()
}

// Register adds sessionCfg's managed session to the registry, building its
// session state machine, codec, and (for acceptors) routing table entry.
// It does not dial or listen; Start/Connect do that.
func (e *Engine) Register(sessionCfg config.SessionConfig) error {
	if err := sessionCfg.Validate(); err != nil {
		return err
	}

	loop, err := e.resolveLoop(sessionCfg.Network)
	if err != nil {
		return err
	}

	var writer store.Writer
	if e.store != nil {
		w, err := e.store.Writer(sessionCfg.SessionID)
		if err != nil {
			return err
		}
		writer = w
	}

	ms := &managedSession{cfg: sessionCfg, loop: loop, writer: writer, eng: e}

	sessCfg := session.Config{
		SessionID:         sessionCfg.SessionID,
		HeartBtInt:        sessionCfg.HeartbeatInterval.Time(),
		ResetOnLogon:      sessionCfg.ResetOnLogon,
		ResetOnLogout:     sessionCfg.ResetOnLogout,
		ResetOnDisconnect: sessionCfg.ResetOnDisconnect,
		ResetOnEOD:        sessionCfg.ResetOnEOD,
	}
	ms.sess = session.New(sessCfg, e.clock, ms, e.store, writer, e.log)
	ms.sess.AddListener(e)

	switch {
	case isFIXWire(sessionCfg.Wire):
		ms.fixDec = fixcodec.NewDecoder(sessionCfg.MaxMessageLength, sessionCfg.MaxTagNumber)
		ms.fixEnc = fixcodec.NewEncoder(string(sessionCfg.Wire))
	case isSoupWire(sessionCfg.Wire):
		ms.soupDec = binarycodec.NewSoupDecoder()
	case isPillarWire(sessionCfg.Wire):
		ms.pillarDec = binarycodec.NewPillarDecoder()
	}

	if _, loaded := e.sessions.LoadOrStore(sessionCfg.SessionID, ms); loaded {
		return ErrorSessionExists.Error()
	}

	if sessionCfg.Role == config.RoleAcceptor {
		if err := e.registerAcceptorRoute(ms); err != nil {
			e.sessions.Delete(sessionCfg.SessionID)
			return err
		}
	}

	return nil
}

func (e *Engine) wireKind(ms *managedSession) acceptor.Wire {
	if isFIXWire(ms.cfg.Wire) {
		return acceptor.WireFIX
	}
	return acceptor.WireSoupBinTCP
}

// acceptorHandler adapts a managedSession to acceptor.Handler without
// exposing OnConnected on managedSession itself to unrelated callers.
type acceptorHandler struct {
	ms *managedSession
}

func (h acceptorHandler) OnConnected(conn net.Conn, prefix []byte) {
	h.ms.eng.onAccepted(h.ms, conn, prefix)
}

func (e *Engine) networkConfig(name string) (config.NetworkConfig, bool) {
	if name != "" {
		for _, n := range e.cfg.Networks {
			if n.Name == name {
				return n, true
			}
		}
		return config.NetworkConfig{}, false
	}
	if len(e.cfg.Networks) == 1 {
		return e.cfg.Networks[0], true
	}
	return config.NetworkConfig{}, false
}

// registerAcceptorRoute creates (lazily) the raw listener, acceptor.Table
// and acceptor.Listener for ms's port and adds ms's routing entry.
func (e *Engine) registerAcceptorRoute(ms *managedSession) error {
	e.acceptTablesMu.Lock()
	defer e.acceptTablesMu.Unlock()

	table, ok := e.acceptTables[ms.cfg.Port]
	if !ok {
		table = acceptor.NewTable()
		e.acceptTables[ms.cfg.Port] = table
	}

	wire := e.wireKind(ms)
	username := ms.cfg.Sender
	if err := table.Register(wire, ms.cfg.Port, username, ms.cfg.Target, acceptorHandler{ms: ms}); err != nil {
		return err
	}

	if _, exists := e.rawListeners[ms.cfg.Port]; exists {
		return nil
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", ms.cfg.Port))
	if err != nil {
		return err
	}
	e.rawListeners[ms.cfg.Port] = ln

	netCfg, _ := e.networkConfig(ms.cfg.Network)
	al := acceptor.NewListener(table, wire, ms.cfg.Port, 0, netCfg.AllowSingleSessionFallback, nil, e.log)
	go e.acceptLoop(ln, al)
	return nil
}

func (e *Engine) acceptLoop(ln net.Listener, al *acceptor.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		al.Accept(conn)
	}
}
