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

// Package binarycodec implements the fixed-width binary wire formats: the
// SoupBinTCP session layer OUCH rides on, NYSE Pillar's type/length/SeqMsg
// framing, and the fixed-offset field accessors (fixed-scale prices,
// padded strings) every binary message body is read and written through.
package binarycodec

import (
	"encoding/binary"
	"strings"
)

// PacketType is a SoupBinTCP packet's single-byte type tag.
type PacketType byte

const (
	TypeLoginRequest    PacketType = 'L'
	TypeLoginAccepted   PacketType = 'A'
	TypeLoginRejected   PacketType = 'J'
	TypeUnsequencedData PacketType = 'U'
	TypeSequencedData   PacketType = 'S'
	TypeServerHeartbeat PacketType = 'H'
	TypeClientHeartbeat PacketType = 'R'
	TypeDebug           PacketType = '+'
	TypeLogoutRequest   PacketType = 'O'
	TypeEndOfSession    PacketType = 'Z'
)

// Packet is one decoded SoupBinTCP packet: a type byte plus payload.
type Packet struct {
	Type    PacketType
	Payload []byte
}

// SoupDecoder holds a rolling accumulation buffer of inbound SoupBinTCP
// bytes; each call to Next extracts at most one complete packet.
type SoupDecoder struct {
	buf []byte
}

// NewSoupDecoder builds an empty SoupDecoder.
func NewSoupDecoder() *SoupDecoder {
	return &SoupDecoder{}
}

// Feed appends freshly received bytes.
func (d *SoupDecoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Pending reports how many unconsumed bytes remain.
func (d *SoupDecoder) Pending() int {
	return len(d.buf)
}

// Next extracts one complete packet, or returns (nil, nil) if more bytes
// are needed.
func (d *SoupDecoder) Next() (*Packet, error) {
	if len(d.buf) < 2 {
		return nil, nil
	}
	length := int(binary.BigEndian.Uint16(d.buf[0:2]))
	if length < 1 {
		return nil, ErrorShortPacket.Error()
	}
	total := 2 + length
	if len(d.buf) < total {
		return nil, nil
	}

	typ := PacketType(d.buf[2])
	payload := append([]byte(nil), d.buf[3:total]...)
	d.buf = d.buf[total:]
	return &Packet{Type: typ, Payload: payload}, nil
}

// EncodePacket builds a complete SoupBinTCP packet for typ and payload.
func EncodePacket(typ PacketType, payload []byte) []byte {
	out := make([]byte, 2+1+len(payload))
	binary.BigEndian.PutUint16(out[0:2], uint16(1+len(payload)))
	out[2] = byte(typ)
	copy(out[3:], payload)
	return out
}

const (
	loginUsernameLen = 6
	loginPasswordLen = 10
	loginSessionLen  = 10
	loginSeqNumLen   = 20
)

// LoginRequest is a SoupBinTCP Login Request packet's payload.
type LoginRequest struct {
	Username       string
	Password       string
	Session        string
	SequenceNumber string
}

// ParseLoginRequest decodes a Login Request packet's space-padded payload.
func ParseLoginRequest(payload []byte) (LoginRequest, error) {
	want := loginUsernameLen + loginPasswordLen + loginSessionLen + loginSeqNumLen
	if len(payload) < want {
		return LoginRequest{}, ErrorShortPacket.Error()
	}
	i := 0
	username := trimPad(payload[i : i+loginUsernameLen])
	i += loginUsernameLen
	password := trimPad(payload[i : i+loginPasswordLen])
	i += loginPasswordLen
	session := trimPad(payload[i : i+loginSessionLen])
	i += loginSessionLen
	seqnum := trimPad(payload[i : i+loginSeqNumLen])

	return LoginRequest{Username: username, Password: password, Session: session, SequenceNumber: seqnum}, nil
}

// EncodeLoginRequest builds a space-padded Login Request payload.
func EncodeLoginRequest(r LoginRequest) []byte {
	out := make([]byte, 0, loginUsernameLen+loginPasswordLen+loginSessionLen+loginSeqNumLen)
	out = append(out, padRight(r.Username, loginUsernameLen)...)
	out = append(out, padRight(r.Password, loginPasswordLen)...)
	out = append(out, padRight(r.Session, loginSessionLen)...)
	out = append(out, padRight(r.SequenceNumber, loginSeqNumLen)...)
	return out
}

func trimPad(b []byte) string {
	return strings.TrimRight(string(b), " ")
}

func padRight(s string, width int) []byte {
	out := make([]byte, width)
	for i := range out {
		out[i] = ' '
	}
	copy(out, s)
	return out
}
