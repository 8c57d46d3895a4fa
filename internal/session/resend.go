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

import "github.com/goerajat/omnibridge-sub002/internal/store"

// ResendItem is one persisted outbound application message to replay with
// PossDupFlag=Y, preserving its original sequence number and raw bytes; the
// caller (engine, via fixcodec/binarycodec) is responsible for rewriting
// the PossDup tag/flag and OrigSendingTime before putting it back on the
// wire.
type ResendItem struct {
	Seq uint32
	Raw []byte
}

// GapFillRange is a contiguous run of admin messages within a resend range,
// to be replaced by a single SequenceReset-GapFill covering [From, To]
// rather than replayed individually.
type GapFillRange struct {
	From, To uint32
}

// ResendPlan is how a ResendRequest for [begin, end] should be satisfied.
type ResendPlan struct {
	Items    []ResendItem
	GapFills []GapFillRange
}

// BuildResendPlan replays the persisted outbound stream for [begin, end],
// classifying each record via isAdmin (which inspects Raw using whichever
// codec this session's wire protocol uses) and collapsing consecutive
// admin records into a single GapFillRange each, per spec: nextOutbound is
// not advanced by any of this replay.
func (s *Session) BuildResendPlan(streamName string, begin, end uint32, isAdmin func(raw []byte) bool) (ResendPlan, error) {
	if s.store == nil {
		return ResendPlan{}, ErrorNoStore.Error()
	}

	var plan ResendPlan
	var gapOpen bool
	var gapFrom, gapTo uint32

	flushGap := func() {
		if gapOpen {
			plan.GapFills = append(plan.GapFills, GapFillRange{From: gapFrom, To: gapTo})
			gapOpen = false
		}
	}

	err := s.store.Replay(streamName, store.OnlyDirection(store.Outbound), begin, end, func(r store.Record) bool {
		if isAdmin(r.Raw) {
			if gapOpen && r.Seq == gapTo+1 {
				gapTo = r.Seq
			} else {
				flushGap()
				gapOpen, gapFrom, gapTo = true, r.Seq, r.Seq
			}
			return true
		}
		flushGap()
		plan.Items = append(plan.Items, ResendItem{Seq: r.Seq, Raw: r.Raw})
		return true
	})
	flushGap()
	return plan, err
}
