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

package binarycodec

import "encoding/binary"

const pillarHeaderLen = 4
const seqMsgHeaderLen = 24

// PillarMessage is one decoded NYSE Pillar frame: its type, and its body
// (everything after the 4-byte type/length header, length still includes
// the header per the wire format).
type PillarMessage struct {
	Type uint16
	Body []byte
}

// PillarDecoder holds a rolling accumulation buffer of inbound Pillar
// bytes; each call to Next extracts at most one complete frame.
type PillarDecoder struct {
	buf []byte
}

// NewPillarDecoder builds an empty PillarDecoder.
func NewPillarDecoder() *PillarDecoder {
	return &PillarDecoder{}
}

// Feed appends freshly received bytes.
func (d *PillarDecoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Pending reports how many unconsumed bytes remain.
func (d *PillarDecoder) Pending() int {
	return len(d.buf)
}

// Next extracts one complete frame, or returns (nil, nil) if more bytes are
// needed.
func (d *PillarDecoder) Next() (*PillarMessage, error) {
	if len(d.buf) < pillarHeaderLen {
		return nil, nil
	}
	typ := binary.LittleEndian.Uint16(d.buf[0:2])
	length := int(binary.LittleEndian.Uint16(d.buf[2:4]))
	if length < pillarHeaderLen {
		return nil, ErrorShortPacket.Error()
	}
	if len(d.buf) < length {
		return nil, nil
	}

	body := append([]byte(nil), d.buf[pillarHeaderLen:length]...)
	d.buf = d.buf[length:]
	return &PillarMessage{Type: typ, Body: body}, nil
}

// EncodePillarFrame builds a complete Pillar frame for msgType wrapping
// body; length written into the header includes the header itself.
func EncodePillarFrame(msgType uint16, body []byte) []byte {
	out := make([]byte, pillarHeaderLen+len(body))
	binary.LittleEndian.PutUint16(out[0:2], msgType)
	binary.LittleEndian.PutUint16(out[2:4], uint16(pillarHeaderLen+len(body)))
	copy(out[pillarHeaderLen:], body)
	return out
}

// SeqMsgHeader is the 24-byte sequenced-message header NYSE Pillar prefixes
// onto a sequenced message's body.
type SeqMsgHeader struct {
	Stream      uint64
	SeqNum      uint64
	TimestampNS uint64
}

// DecodeSeqMsgHeader reads a SeqMsgHeader from the start of buf.
func DecodeSeqMsgHeader(buf []byte) (SeqMsgHeader, error) {
	if len(buf) < seqMsgHeaderLen {
		return SeqMsgHeader{}, ErrorShortPacket.Error()
	}
	return SeqMsgHeader{
		Stream:      binary.LittleEndian.Uint64(buf[0:8]),
		SeqNum:      binary.LittleEndian.Uint64(buf[8:16]),
		TimestampNS: binary.LittleEndian.Uint64(buf[16:24]),
	}, nil
}

// EncodeSeqMsgHeader writes h into the start of buf, which must be at
// least 24 bytes.
func EncodeSeqMsgHeader(h SeqMsgHeader, buf []byte) error {
	if len(buf) < seqMsgHeaderLen {
		return ErrorShortPacket.Error()
	}
	binary.LittleEndian.PutUint64(buf[0:8], h.Stream)
	binary.LittleEndian.PutUint64(buf[8:16], h.SeqNum)
	binary.LittleEndian.PutUint64(buf[16:24], h.TimestampNS)
	return nil
}
