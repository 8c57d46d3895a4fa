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

package store

import (
	"container/heap"
	"time"
)

// allStreamsReader merges several per-stream readers into one
// timestamp-ordered sequence via a min-heap keyed on each stream's next
// buffered entry. Empty streams are skipped and never stall progress.
type allStreamsReader struct {
	streams []string
	readers map[string]Reader
	h       pendingHeap
}

type pending struct {
	stream string
	rec    Record
}

type pendingHeap []pending

func (h pendingHeap) Len() int            { return len(h) }
func (h pendingHeap) Less(i, j int) bool  { return h[i].rec.TimestampMS < h[j].rec.TimestampMS }
func (h pendingHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pendingHeap) Push(x interface{}) { *h = append(*h, x.(pending)) }
func (h *pendingHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// AllStreamsReader opens a tailing reader over every named stream merged in
// non-decreasing timestamp order.
func (s *Store) AllStreamsReader(streams ...string) (Reader, error) {
	r := &allStreamsReader{streams: streams, readers: make(map[string]Reader, len(streams))}
	for _, name := range streams {
		rd, err := s.Reader(name)
		if err != nil {
			return nil, err
		}
		r.readers[name] = rd
	}
	return r, nil
}

// refill tops the heap up with one pending entry per stream not already
// represented in it.
func (r *allStreamsReader) refill(inHeap map[string]bool) {
	for _, name := range r.streams {
		if inHeap[name] {
			continue
		}
		rec, ok, err := r.readers[name].TryPoll()
		if err == nil && ok {
			heap.Push(&r.h, pending{stream: name, rec: rec})
			inHeap[name] = true
		}
	}
}

func (r *allStreamsReader) inHeapSet() map[string]bool {
	m := make(map[string]bool, len(r.h))
	for _, p := range r.h {
		m[p.stream] = true
	}
	return m
}

func (r *allStreamsReader) TryPoll() (Record, bool, error) {
	r.refill(r.inHeapSet())
	if r.h.Len() == 0 {
		return Record{}, false, nil
	}
	p := heap.Pop(&r.h).(pending)
	return p.rec, true, nil
}

func (r *allStreamsReader) Poll(timeout time.Duration) (Record, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		rec, ok, err := r.TryPoll()
		if err != nil || ok {
			return rec, ok, err
		}
		if timeout > 0 && time.Now().After(deadline) {
			return Record{}, false, nil
		}
		if timeout <= 0 {
			return Record{}, false, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (r *allStreamsReader) PollBatch(batchSize int, timeout time.Duration, cb func(Record) bool) (int, error) {
	deadline := time.Now().Add(timeout)
	n := 0
	for n < batchSize {
		remaining := time.Until(deadline)
		if timeout > 0 && remaining <= 0 {
			break
		}
		rec, ok, err := r.Poll(remaining)
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
		if !cb(rec) {
			break
		}
	}
	return n, nil
}

func (r *allStreamsReader) Drain(max int, cb func(Record) bool) (int, error) {
	n := 0
	for max == 0 || n < max {
		rec, ok, err := r.TryPoll()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
		if !cb(rec) {
			break
		}
	}
	return n, nil
}

func (r *allStreamsReader) SetPosition(pos Position) error {
	return ErrorPositionInvalid.Error()
}

func (r *allStreamsReader) GetPosition() Position {
	return Start
}

func (r *allStreamsReader) HasNext() bool {
	r.refill(r.inHeapSet())
	return r.h.Len() > 0
}

func (r *allStreamsReader) Close() error {
	var first error
	for _, rd := range r.readers {
		if err := rd.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
