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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Counters implementation backed by client_golang vectors,
// one per observed event, labeled by session id. Register it against
// whatever prometheus.Registerer the host process already exposes.
type Prometheus struct {
	inbound    *prometheus.CounterVec
	outbound   *prometheus.CounterVec
	gaps       *prometheus.CounterVec
	reconnects *prometheus.CounterVec
	hbTimeouts *prometheus.CounterVec
	states     *prometheus.CounterVec
}

// NewPrometheus builds a Prometheus counters sink with namespace prefixing
// every metric name, but does not register it against any registerer.
func NewPrometheus(namespace string) *Prometheus {
	p := &Prometheus{
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_inbound_messages_total",
			Help:      "Accepted inbound application messages per session.",
		}, []string{"session_id"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_outbound_messages_total",
			Help:      "Sent outbound application messages per session.",
		}, []string{"session_id"}),
		gaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_sequence_gaps_total",
			Help:      "Detected inbound sequence gaps per session.",
		}, []string{"session_id"}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_reconnects_total",
			Help:      "Initiator reconnect attempts per session.",
		}, []string{"session_id"}),
		hbTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_heartbeat_timeouts_total",
			Help:      "Heartbeat/TestRequest timeouts per session.",
		}, []string{"session_id"}),
		states: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_state_transitions_total",
			Help:      "Session state machine transitions.",
		}, []string{"session_id", "from", "to"}),
	}
	return p
}

// Collectors returns every vector for registration against a
// prometheus.Registerer, e.g. registerer.MustRegister(p.Collectors()...).
func (p *Prometheus) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		p.inbound, p.outbound, p.gaps, p.reconnects, p.hbTimeouts, p.states,
	}
}

func (p *Prometheus) InboundMessage(sessionID string) {
	p.inbound.WithLabelValues(sessionID).Inc()
}

func (p *Prometheus) OutboundMessage(sessionID string) {
	p.outbound.WithLabelValues(sessionID).Inc()
}

func (p *Prometheus) GapDetected(sessionID string) {
	p.gaps.WithLabelValues(sessionID).Inc()
}

func (p *Prometheus) Reconnect(sessionID string) {
	p.reconnects.WithLabelValues(sessionID).Inc()
}

func (p *Prometheus) HeartbeatTimeout(sessionID string) {
	p.hbTimeouts.WithLabelValues(sessionID).Inc()
}

func (p *Prometheus) StateTransition(sessionID, from, to string) {
	p.states.WithLabelValues(sessionID, from, to).Inc()
}

var _ Counters = (*Prometheus)(nil)
