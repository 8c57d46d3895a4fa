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
	"time"

	"github.com/goerajat/omnibridge-sub002/internal/store"
)

// markerRecord builds a zero-length-payload Record carrying meta as its
// Metadata, per spec's on-disk EOD marker format: no Raw bytes, the reset
// context (previous sequence numbers, trigger) carried in Metadata.
func markerRecord(now time.Time, meta []byte) store.Record {
	return store.Record{
		Seq:         0,
		TimestampMS: now.UnixMilli(),
		Direction:   store.Outbound,
		Metadata:    meta,
		Raw:         nil,
	}
}

// TriggerEOD quiesces the session for an end-of-day reset: both sequence
// counters reset to 1 and an EOD marker is persisted, regardless of the
// ResetOnEOD config flag (TriggerEOD is always an explicit request, either
// from a RESET_DUE schedule event or an operator action).
func (s *Session) TriggerEOD() error {
	s.resetSequencesLocked("eod")
	return s.transition(EventReset)
}
