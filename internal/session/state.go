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

// Package session implements the per-connection session state machine:
// connect/logon/logout lifecycle, sequence number bookkeeping with gap
// detection and resend replay, and heartbeat supervision. It is wire-format
// agnostic; callers feed it events derived from whichever codec (fixcodec,
// binarycodec) the session's wire protocol uses.
package session

// State is a session's lifecycle stage.
type State uint8

const (
	StateCreated State = iota
	StateConnecting
	StateConnected
	StateLogonSent
	StateLogonReceived
	StateLoggedOn
	StateLogoutSent
	StateLogoutReceived
	StateDisconnected
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateLogonSent:
		return "LOGON_SENT"
	case StateLogonReceived:
		return "LOGON_RECEIVED"
	case StateLoggedOn:
		return "LOGGED_ON"
	case StateLogoutSent:
		return "LOGOUT_SENT"
	case StateLogoutReceived:
		return "LOGOUT_RECEIVED"
	case StateDisconnected:
		return "DISCONNECTED"
	case StateStopped:
		return "STOPPED"
	}
	return "UNKNOWN"
}

// Event is a transition trigger. Every transition is driven by one of
// these; there is no direct state setter.
type Event uint8

const (
	EventTCPConnected Event = iota
	EventTCPFailed
	EventTCPClosed
	EventLogonSent
	EventLogonReceived
	EventLogoutSent
	EventLogoutReceived
	EventHeartbeatTimeout
	EventSequenceGapFatal
	EventReset
	EventStop
)

// transitions enumerates every legal (state, event) -> state edge. A
// (state, event) pair absent from this table is an illegal transition: the
// state is left unchanged and Apply returns ErrorInvalidTransition.
var transitions = map[State]map[Event]State{
	StateCreated: {
		EventTCPConnected: StateConnected,
		EventTCPFailed:    StateDisconnected,
	},
	StateConnecting: {
		EventTCPConnected: StateConnected,
		EventTCPFailed:    StateDisconnected,
	},
	StateConnected: {
		EventLogonSent:     StateLogonSent,
		EventLogonReceived: StateLogonReceived,
		EventTCPClosed:     StateDisconnected,
		EventTCPFailed:     StateDisconnected,
	},
	StateLogonSent: {
		EventLogonReceived: StateLoggedOn,
		EventTCPClosed:     StateDisconnected,
		EventTCPFailed:     StateDisconnected,
	},
	StateLogonReceived: {
		EventLogonSent: StateLoggedOn,
		EventTCPClosed: StateDisconnected,
		EventTCPFailed: StateDisconnected,
	},
	StateLoggedOn: {
		EventLogoutSent:       StateLogoutSent,
		EventLogoutReceived:   StateLogoutReceived,
		EventTCPClosed:        StateDisconnected,
		EventTCPFailed:        StateDisconnected,
		EventHeartbeatTimeout: StateDisconnected,
		EventSequenceGapFatal: StateDisconnected,
		EventReset:            StateLoggedOn,
	},
	StateLogoutSent: {
		EventLogoutReceived: StateDisconnected,
		EventTCPClosed:      StateDisconnected,
		EventTCPFailed:      StateDisconnected,
	},
	StateLogoutReceived: {
		EventLogoutSent: StateDisconnected,
		EventTCPClosed:  StateDisconnected,
		EventTCPFailed:  StateDisconnected,
	},
	StateDisconnected: {
		EventTCPConnected: StateConnecting,
		EventReset:        StateDisconnected,
		EventStop:         StateStopped,
	},
}

// Apply computes the next state for event e, or returns
// ErrorInvalidTransition if (s, e) is not a defined edge. It never mutates
// s; callers apply the returned state themselves.
func (s State) Apply(e Event) (State, error) {
	if edges, ok := transitions[s]; ok {
		if next, ok := edges[e]; ok {
			return next, nil
		}
	}
	return s, ErrorInvalidTransition.Error()
}
