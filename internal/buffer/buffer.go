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

// Package buffer provides bounds-checked typed access over a fixed-capacity
// byte region. Two constructors share the same Buffer contract: one wraps a
// plain heap slice, one wraps memory obtained from mmap-backed storage; both
// are read/written the same way by callers.
package buffer

import (
	"encoding/binary"
)

// ByteOrder selects the endianness of multi-byte get/put operations.
type ByteOrder = binary.ByteOrder

var (
	BigEndian    = binary.BigEndian
	LittleEndian = binary.LittleEndian
)

// Buffer is a fixed-capacity, bounds-checked byte region.
type Buffer interface {
	Capacity() int

	GetByte(i int) (byte, error)
	GetUint16(i int, order ByteOrder) (uint16, error)
	GetUint32(i int, order ByteOrder) (uint32, error)
	GetUint64(i int, order ByteOrder) (uint64, error)
	GetBytes(i int, dest []byte, destOffset, length int) error

	PutByte(i int, v byte) error
	PutUint16(i int, v uint16, order ByteOrder) error
	PutUint32(i int, v uint32, order ByteOrder) error
	PutUint64(i int, v uint64, order ByteOrder) error
	PutBytes(i int, src []byte) error

	// Bytes exposes the underlying region for a slicing read/write by a
	// caller that has already bounds-checked [off, off+n).
	Bytes() []byte
}

type heapBuffer struct {
	b []byte
}

// NewHeap wraps a plain Go-allocated byte slice as a Buffer.
func NewHeap(capacity int) Buffer {
	return &heapBuffer{b: make([]byte, capacity)}
}

// NewHeapFrom wraps an existing slice without copying; len(b) is the capacity.
func NewHeapFrom(b []byte) Buffer {
	return &heapBuffer{b: b}
}

func (h *heapBuffer) Capacity() int {
	return len(h.b)
}

func (h *heapBuffer) Bytes() []byte {
	return h.b
}

func (h *heapBuffer) checkRange(i, n int) error {
	if i < 0 || n < 0 || i+n > len(h.b) {
		return ErrorOutOfBounds.Error()
	}
	return nil
}

func (h *heapBuffer) GetByte(i int) (byte, error) {
	if err := h.checkRange(i, 1); err != nil {
		return 0, err
	}
	return h.b[i], nil
}

func (h *heapBuffer) PutByte(i int, v byte) error {
	if err := h.checkRange(i, 1); err != nil {
		return err
	}
	h.b[i] = v
	return nil
}

func (h *heapBuffer) GetUint16(i int, order ByteOrder) (uint16, error) {
	if err := h.checkRange(i, 2); err != nil {
		return 0, err
	}
	return order.Uint16(h.b[i : i+2]), nil
}

func (h *heapBuffer) PutUint16(i int, v uint16, order ByteOrder) error {
	if err := h.checkRange(i, 2); err != nil {
		return err
	}
	order.PutUint16(h.b[i:i+2], v)
	return nil
}

func (h *heapBuffer) GetUint32(i int, order ByteOrder) (uint32, error) {
	if err := h.checkRange(i, 4); err != nil {
		return 0, err
	}
	return order.Uint32(h.b[i : i+4]), nil
}

func (h *heapBuffer) PutUint32(i int, v uint32, order ByteOrder) error {
	if err := h.checkRange(i, 4); err != nil {
		return err
	}
	order.PutUint32(h.b[i:i+4], v)
	return nil
}

func (h *heapBuffer) GetUint64(i int, order ByteOrder) (uint64, error) {
	if err := h.checkRange(i, 8); err != nil {
		return 0, err
	}
	return order.Uint64(h.b[i : i+8]), nil
}

func (h *heapBuffer) PutUint64(i int, v uint64, order ByteOrder) error {
	if err := h.checkRange(i, 8); err != nil {
		return err
	}
	order.PutUint64(h.b[i:i+8], v)
	return nil
}

func (h *heapBuffer) GetBytes(i int, dest []byte, destOffset, length int) error {
	if err := h.checkRange(i, length); err != nil {
		return err
	}
	if destOffset < 0 || destOffset+length > len(dest) {
		return ErrorOutOfBounds.Error()
	}
	copy(dest[destOffset:destOffset+length], h.b[i:i+length])
	return nil
}

func (h *heapBuffer) PutBytes(i int, src []byte) error {
	if err := h.checkRange(i, len(src)); err != nil {
		return err
	}
	copy(h.b[i:i+len(src)], src)
	return nil
}
