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

// Package acceptor implements the multi-session listener: it buffers a
// bounded prefix of each freshly accepted connection until the login frame
// reveals which registered session it belongs to, then hands the connection
// and the buffered prefix off to that session.
package acceptor

import (
	"net"
	"sync"
)

// Wire selects which login-sniffing algorithm a listener runs.
type Wire uint8

const (
	WireFIX Wire = iota
	WireSoupBinTCP
)

// Identity is the routing key extracted from a connection's login frame.
type Identity struct {
	Sender   string // FIX: their SenderCompID (maps to our TargetCompID)
	Target   string // FIX: their TargetCompID (maps to our SenderCompID)
	Username string // SoupBinTCP: the 6-byte space-padded username
	Port     int
}

// Handler receives a routed connection or a rejection notice.
type Handler interface {
	// OnConnected is invoked once the identity is resolved; prefix holds
	// every byte read before the identity was extracted and must be
	// replayed into the session as if freshly arrived on the wire.
	OnConnected(conn net.Conn, prefix []byte)
}

type routeKey struct {
	wire   Wire
	port   int
	sender string
	target string
}

// Table is the routing table populated at session registration time,
// mapping a connection's extracted identity back to the session that
// configured the inverse identity.
type Table struct {
	mu     sync.RWMutex
	routes map[routeKey]Handler
	byPort map[int][]Handler
}

// NewTable builds an empty routing table.
func NewTable() *Table {
	return &Table{
		routes: make(map[routeKey]Handler),
		byPort: make(map[int][]Handler),
	}
}

// Register adds a route for a session. For FIX, sender/target are OUR
// identities (the registered session's SenderCompID/TargetCompID); they are
// stored inverted since the routing lookup matches the peer's identity
// against our own. For SoupBinTCP, sender holds the session's username and
// target is unused.
func (t *Table) Register(wire Wire, port int, sender, target string, h Handler) error {
	key := routeKey{wire: wire, port: port, sender: target, target: sender}
	if wire == WireSoupBinTCP {
		key = routeKey{wire: wire, port: port, sender: sender}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.routes[key]; exists {
		return ErrorDuplicateRoute.Error()
	}
	t.routes[key] = h
	t.byPort[port] = append(t.byPort[port], h)
	return nil
}

// Lookup resolves a connection's extracted Identity to its Handler. When no
// exact match exists and exactly one handler is registered on the port,
// allowFallback routes to it regardless of identity.
func (t *Table) Lookup(wire Wire, id Identity, allowFallback bool) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	key := routeKey{wire: wire, port: id.Port, sender: id.Sender, target: id.Target}
	if wire == WireSoupBinTCP {
		key = routeKey{wire: wire, port: id.Port, sender: id.Username}
	}

	if h, ok := t.routes[key]; ok {
		return h, true
	}

	if allowFallback {
		if hs := t.byPort[id.Port]; len(hs) == 1 {
			return hs[0], true
		}
	}
	return nil, false
}
