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

// Encoder builds outgoing FIX messages for a fixed BeginString. The
// BodyLength and checksum trailer are computed from the assembled body, so
// callers never need to know either value up front.
type Encoder struct {
	beginString string
}

// NewEncoder builds an Encoder for the given BeginString (e.g. "FIX.4.2").
func NewEncoder(beginString string) *Encoder {
	return &Encoder{beginString: beginString}
}

// Encode serializes fields (which must include MsgType and every other body
// tag in wire order, but not BeginString/BodyLength/Checksum) into a
// complete wire message.
func (e *Encoder) Encode(fields []Field) []byte {
	var body bytes.Buffer
	for _, f := range fields {
		body.WriteString(strconv.Itoa(f.Tag))
		body.WriteByte('=')
		body.WriteString(f.Value)
		body.WriteByte(soh)
	}

	var out bytes.Buffer
	out.WriteString("8=")
	out.WriteString(e.beginString)
	out.WriteByte(soh)
	out.WriteString("9=")
	out.WriteString(strconv.Itoa(body.Len()))
	out.WriteByte(soh)
	out.Write(body.Bytes())

	sum := checksum(out.Bytes())
	out.WriteString("10=")
	out.WriteString(zeroPad3(sum))
	out.WriteByte(soh)

	return out.Bytes()
}

func zeroPad3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// StandardHeader builds the 35/49/56/34/52 fields common to every message,
// ready to be followed by body-specific fields and passed to Encode.
func StandardHeader(msgType, sender, target string, seqNum int, sendingTimeUTC string) []Field {
	return []Field{
		{Tag: 35, Value: msgType},
		{Tag: 49, Value: sender},
		{Tag: 56, Value: target},
		{Tag: 34, Value: strconv.Itoa(seqNum)},
		{Tag: 52, Value: sendingTimeUTC},
	}
}
