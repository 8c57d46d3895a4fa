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

package engine

import (
	"fmt"
	"net"
	"strconv"

	"github.com/goerajat/omnibridge-sub002/internal/binarycodec"
	"github.com/goerajat/omnibridge-sub002/internal/fixcodec"
	"github.com/goerajat/omnibridge-sub002/internal/session"
	"github.com/goerajat/omnibridge-sub002/internal/store"
	"github.com/goerajat/omnibridge-sub002/internal/tcpchannel"
)

func (e *Engine) logErr(sessionID, msg string, err error) {
	if lg := e.logger(); lg != nil {
		lg.Error(msg, nil, sessionID, err)
	}
}

// onAccepted wires a freshly routed acceptor connection into ms's channel
// and replays the login prefix the acceptor table sniffed through it.
func (e *Engine) onAccepted(ms *managedSession, conn net.Conn, prefix []byte) {
	if ms.getChannel() != nil {
		_ = conn.Close()
		return
	}

	chCfg := tcpchannel.DefaultConfig()
	onData := func(id uint64, data []byte) { e.feedInbound(ms, data) }
	onErr := func(id uint64, err error) { e.onChannelError(ms, err) }

	var ch *tcpchannel.Channel
	var err error
	if ms.cfg.SSL.Enabled {
		ch, err = tcpchannel.WrapAcceptedTLS(conn, ms.cfg.SSL, chCfg, ms.loop, onData, onErr)
	} else {
		ch = tcpchannel.New(conn, chCfg, ms.loop, e.log, onData, onErr)
	}
	if err != nil {
		e.logErr(ms.cfg.SessionID, "engine: accepted channel setup failed", err)
		return
	}

	ms.setChannel(ch)
	ms.loop.Register(ch)
	if err := ms.sess.OnTCPConnected(); err != nil {
		e.logErr(ms.cfg.SessionID, "engine: session rejected tcp connected event", err)
	}
	ms.sess.ArmLogonTimer(e.clock.Now())

	if len(prefix) > 0 {
		e.feedInbound(ms, prefix)
	}
}

func (e *Engine) onChannelError(ms *managedSession, err error) {
	e.logErr(ms.cfg.SessionID, "engine: channel read error", err)
	ms.setChannel(nil)
	if err := ms.sess.OnTCPClosed(); err != nil {
		e.logErr(ms.cfg.SessionID, "engine: session rejected tcp closed event", err)
	}
}

func (e *Engine) persist(ms *managedSession, dir store.Direction, seq uint32, raw, meta []byte) {
	if ms.writer == nil {
		return
	}
	rec := store.Record{
		Seq:         seq,
		TimestampMS: e.clock.Now().UnixMilli(),
		Direction:   dir,
		Metadata:    meta,
		Raw:         raw,
	}
	if err := ms.writer.Append(rec); err != nil {
		e.logErr(ms.cfg.SessionID, "engine: failed to persist inbound record", err)
	}
}

// feedInbound parses every complete frame out of data with ms's configured
// codec and drives it through the session's sequencing and state machine.
func (e *Engine) feedInbound(ms *managedSession, data []byte) {
	switch {
	case ms.fixDec != nil:
		ms.fixDec.Feed(data)
		for {
			msg, err := ms.fixDec.Next()
			if err != nil {
				e.logErr(ms.cfg.SessionID, "engine: fix decode error", err)
				e.forceDisconnect(ms)
				return
			}
			if msg == nil {
				return
			}
			e.handleFIXMessage(ms, msg)
		}
	case ms.soupDec != nil:
		ms.soupDec.Feed(data)
		for {
			pkt, err := ms.soupDec.Next()
			if err != nil {
				e.logErr(ms.cfg.SessionID, "engine: soupbintcp decode error", err)
				e.forceDisconnect(ms)
				return
			}
			if pkt == nil {
				return
			}
			e.handleSoupPacket(ms, pkt)
		}
	case ms.pillarDec != nil:
		ms.pillarDec.Feed(data)
		for {
			frame, err := ms.pillarDec.Next()
			if err != nil {
				e.logErr(ms.cfg.SessionID, "engine: pillar decode error", err)
				e.forceDisconnect(ms)
				return
			}
			if frame == nil {
				return
			}
			e.handlePillarFrame(ms, frame)
		}
	}
}

func isFIXAdminMsgType(t string) bool {
	switch t {
	case "0", "1", "2", "3", "4", "5", "A":
		return true
	}
	return false
}

func (e *Engine) handleFIXMessage(ms *managedSession, msg *fixcodec.Message) {
	seq, ok := msg.MsgSeqNum()
	if !ok {
		e.logErr(ms.cfg.SessionID, "engine: fix message missing MsgSeqNum", nil)
		return
	}
	msgType := msg.MsgType()
	isAdmin := isFIXAdminMsgType(msgType)
	outcome := ms.sess.HandleInbound(uint32(seq), isAdmin, msg.PossDup())

	e.persist(ms, store.Inbound, uint32(seq), msg.Raw, []byte("msgType="+msgType))
	ms.sess.MarkInboundActivity(e.clock.Now())

	switch outcome {
	case session.InboundAccept, session.InboundAdminGapAccepted:
		if isAdmin {
			e.handleFIXAdmin(ms, msg)
		} else {
			e.metrics.InboundMessage(ms.cfg.SessionID)
			ms.sess.DeliverApplicationMessage(uint32(seq), msg.Raw)
		}
	case session.InboundGapDetected:
		e.metrics.GapDetected(ms.cfg.SessionID)
		if !isAdmin {
			ms.sess.QueueGapMessage(uint32(seq), msg.Raw)
		}
		e.sendResendRequest(ms, ms.sess.ExpectedInbound(), uint32(seq)-1)
	case session.InboundDuplicate:
		// Accepted silently per spec: no redelivery, no sequence advance.
	case session.InboundFatalLowSeq:
		e.logErr(ms.cfg.SessionID, "engine: fatal low incoming sequence, disconnecting", nil)
		e.forceDisconnect(ms)
	}
}

func (e *Engine) handleFIXAdmin(ms *managedSession, msg *fixcodec.Message) {
	switch msg.MsgType() {
	case "A": // Logon
		resetSeqNum := false
		if v, ok := msg.Get(141); ok {
			resetSeqNum = v == "Y"
		}
		if err := ms.sess.OnLogonReceived(resetSeqNum); err != nil {
			e.logErr(ms.cfg.SessionID, "engine: logon rejected", err)
		}
	case "5": // Logout
		if err := ms.sess.OnLogoutReceived(); err != nil {
			e.logErr(ms.cfg.SessionID, "engine: logout event rejected", err)
		}
		if ms.sess.State() != session.StateDisconnected {
			e.sendFIXLogout(ms, "")
		}
	case "1": // TestRequest
		if v, ok := msg.Get(112); ok {
			e.sendFIXHeartbeat(ms, v)
		} else {
			e.sendFIXHeartbeat(ms, "")
		}
	case "0", "2", "3", "4":
		// Heartbeat/ResendRequest/Reject/SequenceReset: activity already
		// marked above; resend fulfillment is out of scope.
	}
}

func (e *Engine) handleSoupPacket(ms *managedSession, pkt *binarycodec.Packet) {
	switch pkt.Type {
	case binarycodec.TypeLoginRequest:
		if _, err := binarycodec.ParseLoginRequest(pkt.Payload); err != nil {
			e.logErr(ms.cfg.SessionID, "engine: soupbintcp login request malformed", err)
			return
		}
		if err := ms.sess.OnLogonReceived(false); err != nil {
			e.logErr(ms.cfg.SessionID, "engine: logon rejected", err)
		}
	case binarycodec.TypeLogoutRequest, binarycodec.TypeEndOfSession:
		if err := ms.sess.OnLogoutReceived(); err != nil {
			e.logErr(ms.cfg.SessionID, "engine: logout event rejected", err)
		}
	case binarycodec.TypeClientHeartbeat:
		// activity already marked below
	case binarycodec.TypeUnsequencedData, binarycodec.TypeSequencedData:
		seq := ms.sess.ExpectedInbound()
		ms.sess.HandleInbound(seq, false, false)
		e.persist(ms, store.Inbound, seq, pkt.Payload, nil)
		e.metrics.InboundMessage(ms.cfg.SessionID)
		ms.sess.DeliverApplicationMessage(seq, pkt.Payload)
	}
	ms.sess.MarkInboundActivity(e.clock.Now())
}

func (e *Engine) handlePillarFrame(ms *managedSession, frame *binarycodec.PillarMessage) {
	body := frame.Body
	seq := ms.sess.ExpectedInbound()
	if len(body) >= 24 {
		if hdr, err := binarycodec.DecodeSeqMsgHeader(body); err == nil {
			seq = uint32(hdr.SeqNum)
			body = body[24:]
		}
	}
	outcome := ms.sess.HandleInbound(seq, false, false)
	e.persist(ms, store.Inbound, seq, frame.Body, []byte("pillarType="+strconv.Itoa(int(frame.Type))))
	ms.sess.MarkInboundActivity(e.clock.Now())

	switch outcome {
	case session.InboundAccept, session.InboundAdminGapAccepted:
		e.metrics.InboundMessage(ms.cfg.SessionID)
		ms.sess.DeliverApplicationMessage(seq, body)
	case session.InboundGapDetected:
		e.metrics.GapDetected(ms.cfg.SessionID)
		ms.sess.QueueGapMessage(seq, body)
		e.sendResendRequest(ms, ms.sess.ExpectedInbound(), seq-1)
	case session.InboundFatalLowSeq:
		e.logErr(ms.cfg.SessionID, "engine: fatal low incoming pillar sequence, disconnecting", nil)
		e.forceDisconnect(ms)
	}
}

func (e *Engine) fixSendingTime() string {
	return e.clock.Now().UTC().Format("20060102-15:04:05.000")
}

func (e *Engine) sendFIX(ms *managedSession, msgType string, body []Field) {
	if ms.fixEnc == nil {
		return
	}
	seq := ms.sess.ClaimOutboundSeq()
	fields := fixcodec.StandardHeader(msgType, ms.cfg.Sender, ms.cfg.Target, int(seq), e.fixSendingTime())
	fields = append(fields, body...)
	frame := ms.fixEnc.Encode(fields)
	if err := ms.sess.SendRaw(e.clock.Now(), frame); err != nil {
		e.logErr(ms.cfg.SessionID, "engine: failed to send fix frame", err)
		return
	}
	e.persist(ms, store.Outbound, seq, frame, []byte("msgType="+msgType))
	if !isFIXAdminMsgType(msgType) {
		e.metrics.OutboundMessage(ms.cfg.SessionID)
	}
}

func (e *Engine) sendFIXHeartbeat(ms *managedSession, testReqID string) {
	var body []Field
	if testReqID != "" {
		body = append(body, Field{Tag: 112, Value: testReqID})
	}
	e.sendFIX(ms, "0", body)
}

func (e *Engine) sendFIXTestRequest(ms *managedSession, testReqID string) {
	e.sendFIX(ms, "1", []Field{{Tag: 112, Value: testReqID}})
}

func (e *Engine) sendFIXLogout(ms *managedSession, text string) {
	var body []Field
	if text != "" {
		body = append(body, Field{Tag: 58, Value: text})
	}
	e.sendFIX(ms, "5", body)
	if err := ms.sess.OnLogoutSent(); err != nil {
		e.logErr(ms.cfg.SessionID, "engine: logout sent event rejected", err)
	}
	ms.sess.ArmLogoutTimer(e.clock.Now())
}

// pillarApplicationType is the Pillar message type this engine assigns to
// the one application-payload frame kind it sends; NYSE Pillar's message
// catalog is connection-specific and out of scope beyond the framing itself.
const pillarApplicationType uint16 = 1

// SendFIXApplication encodes and sends a FIX application message (any
// MsgType outside the admin set) on sessionID. Returns ErrorWrongWire if
// sessionID is not FIX-wired.
func (e *Engine) SendFIXApplication(sessionID, msgType string, fields []Field) error {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	if ms.fixEnc == nil {
		return ErrorWrongWire.Error()
	}
	e.sendFIX(ms, msgType, fields)
	return nil
}

// SendRawApplication sends a raw application payload on sessionID using its
// configured binary wire: a SoupBinTCP Unsequenced Data packet, or a Pillar
// frame carrying a SeqMsg header. Returns ErrorWrongWire for a FIX session.
func (e *Engine) SendRawApplication(sessionID string, payload []byte) error {
	ms, err := e.lookup(sessionID)
	if err != nil {
		return err
	}

	switch {
	case ms.soupDec != nil:
		seq := ms.sess.ClaimOutboundSeq()
		pkt := binarycodec.EncodePacket(binarycodec.TypeUnsequencedData, payload)
		if err := ms.sess.SendRaw(e.clock.Now(), pkt); err != nil {
			e.logErr(sessionID, "engine: failed to send soupbintcp application message", err)
			return err
		}
		e.persist(ms, store.Outbound, seq, payload, nil)
		e.metrics.OutboundMessage(sessionID)
		return nil
	case ms.pillarDec != nil:
		seq := ms.sess.ClaimOutboundSeq()
		hdr := make([]byte, 24)
		if err := binarycodec.EncodeSeqMsgHeader(binarycodec.SeqMsgHeader{
			SeqNum:      uint64(seq),
			TimestampNS: uint64(e.clock.Now().UnixNano()),
		}, hdr); err != nil {
			return err
		}
		frame := binarycodec.EncodePillarFrame(pillarApplicationType, append(hdr, payload...))
		if err := ms.sess.SendRaw(e.clock.Now(), frame); err != nil {
			e.logErr(sessionID, "engine: failed to send pillar application message", err)
			return err
		}
		e.persist(ms, store.Outbound, seq, payload, nil)
		e.metrics.OutboundMessage(sessionID)
		return nil
	default:
		return ErrorWrongWire.Error()
	}
}

func (e *Engine) sendResendRequest(ms *managedSession, from, to uint32) {
	if ms.fixEnc == nil {
		return
	}
	e.sendFIX(ms, "2", []Field{
		{Tag: 7, Value: strconv.FormatUint(uint64(from), 10)},
		{Tag: 16, Value: strconv.FormatUint(uint64(to), 10)},
	})
}

// forceDisconnect closes ms's live channel (if any) and notifies the
// session it was torn down.
func (e *Engine) forceDisconnect(ms *managedSession) {
	ch := ms.getChannel()
	if ch == nil {
		return
	}
	if err := ch.Close(); err != nil {
		e.logErr(ms.cfg.SessionID, fmt.Sprintf("engine: close failed for channel %d", ch.ID()), err)
	}
	ms.loop.Unregister(ch.ID())
	ms.setChannel(nil)
	if err := ms.sess.OnTCPClosed(); err != nil {
		e.logErr(ms.cfg.SessionID, "engine: session rejected tcp closed event", err)
	}
}

// Field re-exports fixcodec.Field so callers outside this package never
// need to import fixcodec just to build admin message bodies.
type Field = fixcodec.Field
