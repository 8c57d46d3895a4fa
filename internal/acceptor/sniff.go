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

package acceptor

import "encoding/binary"

const soh = 0x01

// sniffFIX scans buf for the 49= (SenderCompID) and 56= (TargetCompID)
// SOH-delimited fields. Both must appear before ok is true; their order in
// the buffer does not matter.
func sniffFIX(buf []byte) (sender, target string, ok bool) {
	s, sOK := fixTag(buf, "49=")
	t, tOK := fixTag(buf, "56=")
	if sOK && tOK {
		return s, t, true
	}
	return "", "", false
}

// fixTag finds the value of a SOH-delimited tag=value field identified by
// its "NN=" prefix, which must itself be preceded by a SOH or be at the
// start of buf to avoid matching inside another field's value.
func fixTag(buf []byte, prefix string) (string, bool) {
	for i := 0; i+len(prefix) <= len(buf); i++ {
		if i > 0 && buf[i-1] != soh {
			continue
		}
		if string(buf[i:i+len(prefix)]) != prefix {
			continue
		}
		start := i + len(prefix)
		for j := start; j < len(buf); j++ {
			if buf[j] == soh {
				return string(buf[start:j]), true
			}
		}
		return "", false // tag found but value not yet terminated
	}
	return "", false
}

const soupLoginPayloadLen = 6 + 10 + 10 + 20 // username + password + session + seqnum

// sniffSoupLogin checks whether buf begins with a complete SoupBinTCP Login
// Request packet ({uint16 big-endian length}{uint8 type='L'}{payload}) and,
// if so, extracts the 6-byte space-padded username field.
func sniffSoupLogin(buf []byte) (username string, ok bool) {
	if len(buf) < 2 {
		return "", false
	}
	length := binary.BigEndian.Uint16(buf[0:2])
	total := 2 + int(length)
	if len(buf) < total {
		return "", false
	}
	if length < 1+soupLoginPayloadLen {
		return "", false
	}
	if buf[2] != 'L' {
		return "", false
	}
	return string(buf[3:9]), true
}
