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

import "time"

const defaultLogonTimeout = 30 * time.Second

// ArmLogonTimer records that a Logon was just sent or a connection just
// became live, starting the logon-wait clock CheckLogonTimeout measures
// against.
func (s *Session) ArmLogonTimer(now time.Time) {
	s.activityMu.Lock()
	s.logonDeadline = now.Add(s.logonTimeout())
	s.activityMu.Unlock()
}

func (s *Session) logonTimeout() time.Duration {
	if s.cfg.LogonTimeout > 0 {
		return s.cfg.LogonTimeout
	}
	return defaultLogonTimeout
}

// CheckLogonTimeout reports whether now has passed the armed logon
// deadline while still waiting to reach StateLoggedOn; the caller should
// disconnect on true. It is a no-op once the session is logged on or past
// the logon handshake.
func (s *Session) CheckLogonTimeout(now time.Time) bool {
	switch s.State() {
	case StateConnected, StateLogonSent, StateLogonReceived:
	default:
		return false
	}

	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	if s.logonDeadline.IsZero() {
		return false
	}
	return now.After(s.logonDeadline)
}
