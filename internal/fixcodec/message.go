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

// Package fixcodec implements the SOH-delimited tag=value FIX wire format:
// BodyLength/checksum-validated decoding from a rolling accumulation buffer,
// and encoding with BodyLength back-filled and checksum computed last.
package fixcodec

import "strconv"

const soh = 0x01

// Field is one tag=value pair in encode or decode order.
type Field struct {
	Tag   int
	Value string
}

// Message is a parsed FIX message indexed by tag for O(1) access.
type Message struct {
	Raw    []byte
	order  []int
	byTag  map[int]string
}

// Get returns the string value of tag, or ok=false if absent.
func (m *Message) Get(tag int) (string, bool) {
	v, ok := m.byTag[tag]
	return v, ok
}

// MustGet returns tag's value or ErrorTagNotFound.
func (m *Message) MustGet(tag int) (string, error) {
	v, ok := m.byTag[tag]
	if !ok {
		return "", ErrorTagNotFound.Error()
	}
	return v, nil
}

// Int returns tag's value parsed as a decimal integer.
func (m *Message) Int(tag int) (int, bool) {
	v, ok := m.byTag[tag]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Has reports whether tag is present.
func (m *Message) Has(tag int) bool {
	_, ok := m.byTag[tag]
	return ok
}

// MsgType is tag 35.
func (m *Message) MsgType() string {
	v, _ := m.Get(35)
	return v
}

// MsgSeqNum is tag 34.
func (m *Message) MsgSeqNum() (int, bool) {
	return m.Int(34)
}

// PossDup reports whether tag 43 (PossDupFlag) is "Y".
func (m *Message) PossDup() bool {
	v, _ := m.Get(43)
	return v == "Y"
}

// Fields returns the message's fields in wire order.
func (m *Message) Fields() []Field {
	out := make([]Field, 0, len(m.order))
	for _, tag := range m.order {
		out = append(out, Field{Tag: tag, Value: m.byTag[tag]})
	}
	return out
}

func parseFields(buf []byte, maxTag int) ([]int, map[int]string, error) {
	order := make([]int, 0, 16)
	byTag := make(map[int]string, 16)

	start := 0
	for start < len(buf) {
		end := start
		for end < len(buf) && buf[end] != soh {
			end++
		}
		if end >= len(buf) {
			return nil, nil, ErrorMalformedField.Error()
		}

		field := buf[start:end]
		eq := -1
		for i, b := range field {
			if b == '=' {
				eq = i
				break
			}
		}
		if eq <= 0 {
			return nil, nil, ErrorMalformedField.Error()
		}

		tag, err := strconv.Atoi(string(field[:eq]))
		if err != nil {
			return nil, nil, ErrorMalformedField.Error()
		}
		if maxTag > 0 && tag > maxTag {
			return nil, nil, ErrorTagOutOfRange.Error()
		}

		order = append(order, tag)
		byTag[tag] = string(field[eq+1:])
		start = end + 1
	}

	return order, byTag, nil
}
