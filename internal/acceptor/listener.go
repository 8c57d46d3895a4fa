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

package acceptor

import (
	"net"

	"github.com/goerajat/omnibridge-sub002/logger"
)

const defaultMaxPrefix = 64 * 1024

// RejectFunc is given the chance to write a protocol-specific rejection
// (e.g. a FIX Logout) before the connection is closed. It may be nil, in
// which case the connection is simply closed.
type RejectFunc func(conn net.Conn, prefix []byte, reason string)

// Listener buffers and sniffs identity out of freshly accepted connections
// for one wire protocol on one listening port, then routes them through a
// shared Table.
type Listener struct {
	table         *Table
	wire          Wire
	port          int
	maxPrefix     int
	allowFallback bool
	reject        RejectFunc
	log           logger.FuncLog
}

// NewListener builds a Listener. maxPrefix <= 0 uses the spec's 64 KiB
// default bound.
func NewListener(table *Table, wire Wire, port, maxPrefix int, allowFallback bool, reject RejectFunc, log logger.FuncLog) *Listener {
	if maxPrefix <= 0 {
		maxPrefix = defaultMaxPrefix
	}
	return &Listener{
		table:         table,
		wire:          wire,
		port:          port,
		maxPrefix:     maxPrefix,
		allowFallback: allowFallback,
		reject:        reject,
		log:           log,
	}
}

func (l *Listener) logger() logger.Logger {
	if l.log == nil {
		return nil
	}
	return l.log()
}

// Accept runs the pending-connection handler for conn on its own goroutine:
// buffer until the identity is extractable, route on success, reject on
// failure or on exceeding the prefix bound.
func (l *Listener) Accept(conn net.Conn) {
	go l.handle(conn)
}

func (l *Listener) handle(conn net.Conn) {
	prefix := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)

	for {
		id, ok := l.trySniff(prefix)
		if ok {
			h, found := l.table.Lookup(l.wire, id, l.allowFallback)
			if found {
				h.OnConnected(conn, prefix)
				return
			}
			l.rejectConn(conn, prefix, "no session matched the connection's identity")
			return
		}

		if len(prefix) >= l.maxPrefix {
			l.rejectConn(conn, prefix, "login prefix exceeded bound before identity was found")
			return
		}

		n, err := conn.Read(chunk)
		if n > 0 {
			prefix = append(prefix, chunk[:n]...)
		}
		if err != nil {
			if lg := l.logger(); lg != nil {
				lg.Warning("acceptor: connection closed before login completed", err)
			}
			_ = conn.Close()
			return
		}
	}
}

func (l *Listener) trySniff(prefix []byte) (Identity, bool) {
	switch l.wire {
	case WireFIX:
		sender, target, ok := sniffFIX(prefix)
		if !ok {
			return Identity{}, false
		}
		return Identity{Sender: sender, Target: target, Port: l.port}, true
	case WireSoupBinTCP:
		username, ok := sniffSoupLogin(prefix)
		if !ok {
			return Identity{}, false
		}
		return Identity{Username: username, Port: l.port}, true
	default:
		return Identity{}, false
	}
}

func (l *Listener) rejectConn(conn net.Conn, prefix []byte, reason string) {
	if l.reject != nil {
		l.reject(conn, prefix, reason)
	}
	_ = conn.Close()
}
