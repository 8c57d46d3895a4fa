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

// Package metrics declares the counters internal/engine emits through.
// Nothing in this engine requires a metrics sink: Counters is optional and
// nil-safe via Noop, so an engine built without one simply does not record.
package metrics

// Counters is the sink internal/engine reports per-session activity
// through. Every method takes the session id as its first label so a single
// sink instance covers every managed session.
type Counters interface {
	InboundMessage(sessionID string)
	OutboundMessage(sessionID string)
	GapDetected(sessionID string)
	Reconnect(sessionID string)
	HeartbeatTimeout(sessionID string)
	StateTransition(sessionID, from, to string)
}

// Noop discards every observation. It is the default when no Counters is
// injected, and is always safe to call on a nil *Noop.
type Noop struct{}

func (*Noop) InboundMessage(string)            {}
func (*Noop) OutboundMessage(string)           {}
func (*Noop) GapDetected(string)               {}
func (*Noop) Reconnect(string)                 {}
func (*Noop) HeartbeatTimeout(string)          {}
func (*Noop) StateTransition(_, _, _ string)   {}

var _ Counters = (*Noop)(nil)
