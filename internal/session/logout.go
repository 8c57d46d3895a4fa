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

const defaultLogoutTimeout = 10 * time.Second

// ArmLogoutTimer starts the logout-wait clock CheckLogoutTimeout measures
// against, from the moment this side (or the peer) initiates a logout.
func (s *Session) ArmLogoutTimer(now time.Time) {
	s.activityMu.Lock()
	s.logoutDeadline = now.Add(s.logoutTimeout())
	s.activityMu.Unlock()
}

func (s *Session) logoutTimeout() time.Duration {
	if s.cfg.LogoutTimeout > 0 {
		return s.cfg.LogoutTimeout
	}
	return defaultLogoutTimeout
}

// CheckLogoutTimeout reports whether now has passed the armed logout
// deadline while still waiting for the peer's Logout reply; the caller
// should force-disconnect on true rather than wait indefinitely.
func (s *Session) CheckLogoutTimeout(now time.Time) bool {
	switch s.State() {
	case StateLogoutSent, StateLogoutReceived:
	default:
		return false
	}

	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	if s.logoutDeadline.IsZero() {
		return false
	}
	return now.After(s.logoutDeadline)
}
