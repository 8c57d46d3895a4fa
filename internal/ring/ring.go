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

// Package ring implements a lock-free many-producer single-consumer ring
// buffer. Producers claim a slot, write their payload into it, and commit or
// abort; a single consumer drains committed slots strictly in claim order.
package ring

import (
	"sync/atomic"
)

// Action is returned by a ControlledRead handler to decide whether draining
// continues to the next record.
type Action uint8

const (
	Continue Action = iota
	Break
)

// slotState tracks the lifecycle of one ring slot.
type slotState uint32

const (
	stateFree slotState = iota
	stateClaimed
	stateCommitted
	stateSkipped
)

type slot struct {
	state         atomic.Uint32
	messageTypeID uint8
	payload       []byte
	length        int
}

// Ring is a lock-free, many-producer single-consumer ring buffer of
// bufferSize fixed-capacity slots (bufferSize must be a power of two).
type Ring struct {
	mask       uint64
	slotCap    int
	slots      []slot
	claimCur   atomic.Uint64 // highest claimed sequence (next claim = claimCur+1)
	readCur    uint64        // next sequence the consumer expects; single consumer, unsynchronized
}

// New builds a Ring with bufferSize slots, each able to hold up to
// slotCapacity bytes of payload.
func New(bufferSize uint64, slotCapacity int) *Ring {
	if bufferSize == 0 || bufferSize&(bufferSize-1) != 0 {
		panic("ring: bufferSize must be a power of two")
	}

	r := &Ring{
		mask:    bufferSize - 1,
		slotCap: slotCapacity,
		slots:   make([]slot, bufferSize),
		readCur: 1,
	}
	for i := range r.slots {
		r.slots[i].payload = make([]byte, slotCapacity)
	}
	return r
}

// Claim is a handle to a reserved, not-yet-committed slot.
type Claim struct {
	index uint64
	buf   []byte
}

// Index identifies this claim for Commit/Abort.
func (c Claim) Index() uint64 {
	return c.index
}

// Buffer is the payload region the producer may write into, up to cap(Buffer()).
func (c Claim) Buffer() []byte {
	return c.buf
}

// TryClaim reserves a slot for payloadLen bytes tagged with messageTypeID.
// It fails without side effects when the ring has no free slot ahead of the
// consumer's read cursor.
func (r *Ring) TryClaim(messageTypeID uint8, payloadLen int) (Claim, error) {
	if payloadLen > r.slotCap {
		return Claim{}, ErrorPayloadTooLarge.Error()
	}

	for {
		cur := r.claimCur.Load()
		next := cur + 1

		read := atomic.LoadUint64(&r.readCur)
		if next-read >= uint64(len(r.slots)) {
			return Claim{}, ErrorFull.Error()
		}

		if r.claimCur.CompareAndSwap(cur, next) {
			s := &r.slots[next&r.mask]
			s.messageTypeID = messageTypeID
			s.length = payloadLen
			s.state.Store(uint32(stateClaimed))
			return Claim{index: next, buf: s.payload[:payloadLen]}, nil
		}
	}
}

// Commit publishes a claimed slot, making it visible to the consumer in
// claim order.
func (r *Ring) Commit(c Claim) error {
	s := &r.slots[c.index&r.mask]
	if slotState(s.state.Load()) != stateClaimed {
		return ErrorNotClaimed.Error()
	}
	s.state.Store(uint32(stateCommitted))
	return nil
}

// Abort marks a claimed slot as a skip record; the consumer advances over it
// without seeing a payload.
func (r *Ring) Abort(c Claim) error {
	s := &r.slots[c.index&r.mask]
	if slotState(s.state.Load()) != stateClaimed {
		return ErrorNotClaimed.Error()
	}
	s.state.Store(uint32(stateSkipped))
	return nil
}

// Handler is invoked by ControlledRead for each committed record.
type Handler func(messageTypeID uint8, payload []byte) Action

// ControlledRead drains committed (non-skipped) slots starting at the
// consumer's current position, in claim order, stopping at the first
// not-yet-committed slot or when handler returns Break. It must be called
// from a single consumer goroutine only.
func (r *Ring) ControlledRead(handler Handler) {
	for {
		s := &r.slots[r.readCur&r.mask]
		st := slotState(s.state.Load())

		if st != stateCommitted && st != stateSkipped {
			return
		}

		if st == stateCommitted {
			act := handler(s.messageTypeID, s.payload[:s.length])
			s.state.Store(uint32(stateFree))
			atomic.StoreUint64(&r.readCur, r.readCur+1)
			if act == Break {
				return
			}
		} else {
			s.state.Store(uint32(stateFree))
			atomic.StoreUint64(&r.readCur, r.readCur+1)
		}
	}
}

// Capacity returns the number of slots in the ring.
func (r *Ring) Capacity() uint64 {
	return uint64(len(r.slots))
}

// HasPending reports whether the consumer's next slot is already committed
// or skipped, i.e. whether ControlledRead would make progress right now
// without blocking. Safe to call from the consumer goroutine only.
func (r *Ring) HasPending() bool {
	s := &r.slots[atomic.LoadUint64(&r.readCur)&r.mask]
	st := slotState(s.state.Load())
	return st == stateCommitted || st == stateSkipped
}
