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

// HeartbeatAction is what CheckHeartbeat decided an engine's one-second
// ticker should do for this session on this tick.
type HeartbeatAction uint8

const (
	HeartbeatNone HeartbeatAction = iota
	HeartbeatSend
	HeartbeatSendTestRequest
	HeartbeatDisconnect
)

// testRequestGraceFactor is the extra fraction of HeartBtInt spec allows
// before a missing TestRequest reply becomes a disconnect condition.
const testRequestGraceFactor = 1.2

// CheckHeartbeat evaluates the outbound and inbound activity timers against
// now and reports the action the caller (engine ticker) should take. It is
// a no-op outside StateLoggedOn.
func (s *Session) CheckHeartbeat(now time.Time) HeartbeatAction {
	if s.State() != StateLoggedOn {
		return HeartbeatNone
	}

	s.activityMu.Lock()
	defer s.activityMu.Unlock()

	if s.cfg.HeartBtInt <= 0 {
		return HeartbeatNone
	}

	if now.Sub(s.lastOutboundActivity) >= s.cfg.HeartBtInt {
		s.lastOutboundActivity = now
		return HeartbeatSend
	}

	graceDeadline := time.Duration(float64(s.cfg.HeartBtInt) * testRequestGraceFactor)
	if now.Sub(s.lastInboundActivity) >= graceDeadline {
		if s.testRequestSent {
			return HeartbeatDisconnect
		}
		s.testRequestSent = true
		return HeartbeatSendTestRequest
	}

	return HeartbeatNone
}
