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

// Package tcpchannel implements the per-connection state the event loop
// drives: a direct read buffer, an outbound MPSC ring buffer, a bounded
// overflow write buffer, and (optionally) a TLS-wrapped net.Conn. The ring
// buffer is the only boundary application goroutines may cross; every other
// method here is meant to be called from the owning event loop goroutine.
package tcpchannel

import (
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"

	"github.com/goerajat/omnibridge-sub002/internal/buffer"
	"github.com/goerajat/omnibridge-sub002/internal/netloop"
	"github.com/goerajat/omnibridge-sub002/internal/ring"
	"github.com/goerajat/omnibridge-sub002/logger"
)

// State is the connection lifecycle the spec requires every channel expose.
type State int32

const (
	StateConnecting State = iota
	StateConnected
	StateClosed
)

// Executor is the subset of netloop.Loop a channel needs to wake the loop
// after a producer commits to its ring buffer.
type Executor interface {
	Execute(netloop.Task)
}

// DataHandler is invoked on the event-loop goroutine with bytes read off
// the socket, in the order received.
type DataHandler func(id uint64, data []byte)

var nextID uint64

// Channel is one TCP connection's event-loop-owned state.
type Channel struct {
	id    uint64
	conn  net.Conn
	state atomic.Int32

	ring    *ring.Ring
	readBuf buffer.Buffer

	overflowMu sync.Mutex
	overflow   []byte

	loop    Executor
	log     logger.FuncLog
	onData  DataHandler
	readErr func(id uint64, err error)

	stopRead chan struct{}
}

// Config bundles the sizing knobs a channel is built from.
type Config struct {
	ReadBufferSize  int
	RingSize        uint64
	RingSlotSize    int
}

// DefaultConfig matches spec.md §3's defaults: read buffer >= 64 KiB,
// power-of-two ring capacity defaulting to 1 MiB worth of 256-byte slots.
func DefaultConfig() Config {
	return Config{ReadBufferSize: 64 * 1024, RingSize: 4096, RingSlotSize: 1024}
}

// New wraps an already-connected net.Conn. loop is used to wake the event
// loop after a producer commits; onData delivers inbound bytes on the loop
// goroutine; onErr reports a read failure.
func New(conn net.Conn, cfg Config, loop Executor, log logger.FuncLog, onData DataHandler, onErr func(uint64, error)) *Channel {
	id := atomic.AddUint64(&nextID, 1)
	c := &Channel{
		id:       id,
		conn:     conn,
		ring:     ring.New(cfg.RingSize, cfg.RingSlotSize),
		readBuf:  buffer.NewHeap(cfg.ReadBufferSize),
		loop:     loop,
		log:      log,
		onData:   onData,
		readErr:  onErr,
		stopRead: make(chan struct{}),
	}
	c.state.Store(int32(StateConnected))
	go c.readLoop()
	return c
}

// ID is the channel's unique monotonic identifier.
func (c *Channel) ID() uint64 { return c.id }

// State reports the channel's current lifecycle state.
func (c *Channel) State() State { return State(c.state.Load()) }

// RemoteAddr is the peer address string, or "" once closed.
func (c *Channel) RemoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// readLoop blocks on the socket on its own goroutine (idiomatic Go: the
// runtime's netpoller already multiplexes these blocking reads), and posts
// each chunk to the event loop so parsing and session mutation still happen
// only on the loop goroutine.
func (c *Channel) readLoop() {
	for {
		raw := c.readBuf.Bytes()
		n, err := c.conn.Read(raw)
		if n > 0 {
			chunk := append([]byte(nil), raw[:n]...)
			if c.loop != nil {
				c.loop.Execute(func() {
					if c.onData != nil {
						c.onData(c.id, chunk)
					}
				})
			}
		}
		if err != nil {
			if c.loop != nil {
				c.loop.Execute(func() {
					c.state.Store(int32(StateClosed))
					if c.readErr != nil {
						c.readErr(c.id, err)
					}
				})
			}
			return
		}
		select {
		case <-c.stopRead:
			return
		default:
		}
	}
}

// TryClaim reserves a length-prefixed outbound slot; forwards to the ring.
func (c *Channel) TryClaim(payloadLen int) (ring.Claim, error) {
	return c.ring.TryClaim(0, payloadLen)
}

// Commit publishes a claimed slot and wakes the owning loop so the next
// iteration drains it promptly.
func (c *Channel) Commit(claim ring.Claim) error {
	if err := c.ring.Commit(claim); err != nil {
		return err
	}
	if c.loop != nil {
		c.loop.Execute(func() {})
	}
	return nil
}

// Abort reclaims a claimed slot without sending it.
func (c *Channel) Abort(claim ring.Claim) error {
	return c.ring.Abort(claim)
}

// WriteRaw claims, copies, and commits a length-prefixed payload in one
// call; a convenience for callers that don't need to build in place.
func (c *Channel) WriteRaw(payload []byte) error {
	claim, err := c.TryClaim(len(payload))
	if err != nil {
		return err
	}
	copy(claim.Buffer(), payload)
	return c.Commit(claim)
}

// NeedsWrite reports whether OP_WRITE should stay armed: true iff the
// overflow buffer is non-empty or the ring has an undrained committed
// record, re-evaluated at the end of every flush/drain call.
func (c *Channel) NeedsWrite() bool {
	c.overflowMu.Lock()
	hasOverflow := len(c.overflow) > 0
	c.overflowMu.Unlock()
	return hasOverflow || c.ring.HasPending()
}

// DrainRingBufferToSocket writes each committed record's payload directly to
// the socket with no intermediate copy. A partial write copies the
// remainder into the overflow buffer and stops the drain until flush clears
// it. Event-loop-goroutine only.
func (c *Channel) DrainRingBufferToSocket() error {
	if c.State() == StateClosed {
		return nil
	}

	c.overflowMu.Lock()
	hasOverflow := len(c.overflow) > 0
	c.overflowMu.Unlock()
	if hasOverflow {
		return c.flushOverflow()
	}

	var writeErr error
	c.ring.ControlledRead(func(msgType uint8, payload []byte) ring.Action {
		n, err := c.conn.Write(payload)
		if err != nil {
			c.spillOverflow(payload[n:])
			writeErr = err
			return ring.Break
		}
		if n < len(payload) {
			c.spillOverflow(payload[n:])
			return ring.Break
		}
		return ring.Continue
	})
	return writeErr
}

func (c *Channel) spillOverflow(remainder []byte) {
	if len(remainder) == 0 {
		return
	}
	c.overflowMu.Lock()
	c.overflow = append(c.overflow, remainder...)
	c.overflowMu.Unlock()
}

func (c *Channel) flushOverflow() error {
	c.overflowMu.Lock()
	buf := c.overflow
	c.overflowMu.Unlock()

	if len(buf) == 0 {
		return nil
	}
	n, err := c.conn.Write(buf)
	c.overflowMu.Lock()
	c.overflow = c.overflow[n:]
	c.overflowMu.Unlock()
	return err
}

// Flush first drains the ring buffer, then the overflow buffer; invoked on
// OP_WRITE readiness.
func (c *Channel) Flush() error {
	if err := c.DrainRingBufferToSocket(); err != nil {
		return err
	}
	return c.flushOverflow()
}

// Close cancels the channel's read goroutine, closes the socket, and
// transitions to StateClosed.
func (c *Channel) Close() error {
	if State(c.state.Swap(int32(StateClosed))) == StateClosed {
		return nil
	}
	close(c.stopRead)
	return c.conn.Close()
}

// TLSConnectionState exposes the underlying TLS state once the channel's
// conn is TLS-wrapped; ok is false for a plaintext channel.
func (c *Channel) TLSConnectionState() (tls.ConnectionState, bool) {
	if tc, ok := c.conn.(*tls.Conn); ok {
		return tc.ConnectionState(), true
	}
	return tls.ConnectionState{}, false
}
