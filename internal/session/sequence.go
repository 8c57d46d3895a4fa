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

import (
	"fmt"
	"time"
)

// InboundOutcome is what HandleInbound decided to do with one inbound
// message's sequence number.
type InboundOutcome uint8

const (
	// InboundAccept is the expected next sequence number; deliver it and
	// advance expectedInbound.
	InboundAccept InboundOutcome = iota
	// InboundAdminGapAccepted is an admin message ahead of expectedInbound,
	// accepted without a resend request per spec: admin types tolerate
	// gaps, expectedInbound jumps past it.
	InboundAdminGapAccepted
	// InboundGapDetected is an application message ahead of
	// expectedInbound; the caller must send a ResendRequest covering
	// [expectedInbound, seqNum-1] and queue this message for in-order
	// delivery once the gap closes.
	InboundGapDetected
	// InboundDuplicate is a sequence number below expectedInbound carrying
	// PossDupFlag=Y; accept it silently, do not advance expectedInbound.
	InboundDuplicate
	// InboundFatalLowSeq is a sequence number below expectedInbound
	// without PossDupFlag; unrecoverable, the caller must disconnect.
	InboundFatalLowSeq
)

// ClaimOutboundSeq atomically reserves and returns the next outbound
// sequence number, per spec: outbound sequence numbers are assigned
// atomically at encode time so monotonic order matches socket order.
func (s *Session) ClaimOutboundSeq() uint32 {
	for {
		cur := s.nextOutbound.Load()
		if s.nextOutbound.CompareAndSwap(cur, cur+1) {
			return cur
		}
	}
}

// PeekNextOutbound reports the next sequence number without claiming it.
func (s *Session) PeekNextOutbound() uint32 {
	return s.nextOutbound.Load()
}

// ExpectedInbound reports the sequence number the session expects next.
func (s *Session) ExpectedInbound() uint32 {
	return s.expectedInbound.Load()
}

// HandleInbound classifies one inbound message's sequence number per
// spec: s==expected accepts and advances; s>expected is a gap, tolerated
// silently for admin messages and requiring a resend request for
// application messages; s<expected is a possible duplicate (PossDupFlag=Y)
// or a fatal low-sequence condition.
func (s *Session) HandleInbound(seqNum uint32, isAdmin, possDup bool) InboundOutcome {
	for {
		expected := s.expectedInbound.Load()
		switch {
		case seqNum == expected:
			if s.expectedInbound.CompareAndSwap(expected, expected+1) {
				return InboundAccept
			}
		case seqNum > expected:
			if isAdmin {
				if s.expectedInbound.CompareAndSwap(expected, seqNum+1) {
					return InboundAdminGapAccepted
				}
				continue
			}
			s.pendingApp.Store(seqNum, nil)
			return InboundGapDetected
		default:
			if possDup {
				return InboundDuplicate
			}
			return InboundFatalLowSeq
		}
	}
}

// QueueGapMessage remembers an application message's raw payload so it can
// be delivered in order once ResolveGap closes the sequence gap it arrived
// ahead of.
func (s *Session) QueueGapMessage(seqNum uint32, raw []byte) {
	s.pendingApp.Store(seqNum, raw)
}

// ResolveGap drains queued messages from expectedInbound up to and
// including upTo, delivering each to listeners in order and advancing
// expectedInbound past the last contiguous one found. It stops at the
// first missing sequence number, per spec's requirement that application
// messages are delivered strictly in order.
func (s *Session) ResolveGap(upTo uint32) {
	for {
		expected := s.expectedInbound.Load()
		if expected > upTo {
			return
		}
		raw, ok := s.pendingApp.Load(expected)
		if !ok {
			return
		}
		s.pendingApp.Delete(expected)
		if !s.expectedInbound.CompareAndSwap(expected, expected+1) {
			continue
		}
		for _, l := range s.snapshotListeners() {
			s.notifyMessage(l, expected, raw)
		}
	}
}

// DeliverApplicationMessage fans an immediately-accepted application
// message (InboundAccept/InboundAdminGapAccepted outcome) out to every
// listener. HandleInbound only classifies a sequence number; delivery of
// the accepted payload is left to the caller, since only the caller knows
// whether the message is application-level.
func (s *Session) DeliverApplicationMessage(seqNum uint32, raw []byte) {
	for _, l := range s.snapshotListeners() {
		s.notifyMessage(l, seqNum, raw)
	}
}

func (s *Session) notifyMessage(l Listener, seqNum uint32, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			if lg := s.logger(); lg != nil {
				lg.Error("session listener panicked", nil, s.cfg.SessionID, fmt.Sprint(r))
			}
		}
	}()
	l.OnMessage(s.cfg.SessionID, seqNum, raw)
}

// resetSequencesLocked resets both counters to 1 and, if a writer is
// configured, persists a zero-length EOD-style marker recording the prior
// values and the trigger that caused the reset.
func (s *Session) resetSequencesLocked(trigger string) {
	prevOut := s.nextOutbound.Swap(1)
	prevIn := s.expectedInbound.Swap(1)
	if s.writer == nil {
		return
	}
	meta := []byte(fmt.Sprintf("prevOut=%d prevIn=%d trigger=%s", prevOut, prevIn, trigger))
	rec := markerRecord(s.clock.Now(), meta)
	if err := s.writer.Append(rec); err != nil {
		if lg := s.logger(); lg != nil {
			lg.Error("session failed to persist reset marker", nil, s.cfg.SessionID, err)
		}
	}
}

// MarkOutboundActivity records that a frame was just written, resetting
// the heartbeat send timer.
func (s *Session) MarkOutboundActivity(now time.Time) {
	s.activityMu.Lock()
	s.lastOutboundActivity = now
	s.activityMu.Unlock()
}

// MarkInboundActivity records that a frame was just received, resetting
// the test-request timer and clearing any outstanding test request.
func (s *Session) MarkInboundActivity(now time.Time) {
	s.activityMu.Lock()
	s.lastInboundActivity = now
	s.testRequestSent = false
	s.activityMu.Unlock()
}
