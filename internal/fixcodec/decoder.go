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

package fixcodec

import (
	"bytes"
	"strconv"
)

// Decoder holds a rolling accumulation buffer fed by a channel's inbound
// byte stream; each call to Next extracts at most one complete message and
// compacts consumed bytes out of the buffer.
type Decoder struct {
	maxMessageLen int
	maxTag        int
	buf           []byte
}

// NewDecoder builds a Decoder bounded by a session's configured maximum
// message length and maximum tag number (0 disables either bound).
func NewDecoder(maxMessageLen, maxTag int) *Decoder {
	return &Decoder{maxMessageLen: maxMessageLen, maxTag: maxTag}
}

// Feed appends freshly received bytes to the accumulation buffer.
func (d *Decoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Pending reports how many unconsumed bytes remain in the buffer.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

// Next extracts one complete, checksum-validated message from the buffer,
// or returns (nil, nil, nil) when more bytes are needed. A non-nil error is
// a protocol violation (bad header, bad BodyLength, checksum mismatch, tag
// or length out of bounds) discovered within bytes already buffered.
func (d *Decoder) Next() (*Message, error) {
	start := bytes.Index(d.buf, []byte("8="))
	if start < 0 {
		if len(d.buf) > 2 {
			d.buf = d.buf[len(d.buf)-2:]
		}
		return nil, nil
	}
	if start > 0 {
		d.buf = d.buf[start:]
	}

	soh1 := bytes.IndexByte(d.buf, soh)
	if soh1 < 0 {
		return nil, nil
	}
	rest := d.buf[soh1+1:]
	if !bytes.HasPrefix(rest, []byte("9=")) {
		return nil, ErrorInvalidHeader.Error()
	}

	bodyLenStart := soh1 + 1 + 2
	soh2 := bytes.IndexByte(d.buf[bodyLenStart:], soh)
	if soh2 < 0 {
		return nil, nil
	}
	bodyLenStr := string(d.buf[bodyLenStart : bodyLenStart+soh2])
	n, err := strconv.Atoi(bodyLenStr)
	if err != nil || n < 0 {
		return nil, ErrorInvalidBodyLength.Error()
	}
	if d.maxMessageLen > 0 && n > d.maxMessageLen {
		return nil, ErrorMessageTooLong.Error()
	}

	bodyStart := bodyLenStart + soh2 + 1
	need := bodyStart + n + 7 // "10=" + 3 digits + SOH
	if len(d.buf) < need {
		return nil, nil
	}

	checksumField := d.buf[bodyStart+n : need]
	if !bytes.HasPrefix(checksumField, []byte("10=")) || checksumField[len(checksumField)-1] != soh {
		return nil, ErrorInvalidChecksumTag.Error()
	}
	gotSum, err := strconv.Atoi(string(checksumField[3:6]))
	if err != nil {
		return nil, ErrorInvalidChecksumTag.Error()
	}
	if wantSum := checksum(d.buf[:bodyStart+n]); gotSum != wantSum {
		return nil, ErrorChecksumMismatch.Error()
	}

	raw := append([]byte(nil), d.buf[:need]...)
	order, byTag, err := parseFields(raw, d.maxTag)
	if err != nil {
		return nil, err
	}

	d.buf = d.buf[need:]
	return &Message{Raw: raw, order: order, byTag: byTag}, nil
}

func checksum(b []byte) int {
	var sum int
	for _, c := range b {
		sum += int(c)
	}
	return sum % 256
}
