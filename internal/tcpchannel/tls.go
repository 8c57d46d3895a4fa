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

package tcpchannel

import (
	"crypto/tls"
	"net"

	"github.com/goerajat/omnibridge-sub002/certificates"
	tlscas "github.com/goerajat/omnibridge-sub002/certificates/ca"
	tlscrt "github.com/goerajat/omnibridge-sub002/certificates/certs"
	"github.com/goerajat/omnibridge-sub002/config"
)

// buildTLSConfig turns a session's SSLConfig into a certificates.TLSConfig,
// reading the key store as a combined cert+key PEM chain and the trust
// store as a root CA, then asks it for a *tls.Config scoped to serverName.
func buildTLSConfig(ssl config.SSLConfig, serverName string) (*tls.Config, error) {
	cfg := &certificates.Config{
		InheritDefault: true,
	}

	if ssl.KeyStorePath != "" {
		var certif tlscrt.Certif
		if err := certif.UnmarshalText([]byte(ssl.KeyStorePath)); err != nil {
			return nil, ErrorTLSHandshake.Error()
		}
		cfg.Certs = append(cfg.Certs, certif)
	}

	if ssl.TrustStorePath != "" {
		ca, err := tlscas.Parse(ssl.TrustStorePath)
		if err != nil {
			return nil, ErrorTLSHandshake.Error()
		}
		cfg.RootCA = append(cfg.RootCA, ca)
	}

	tc := cfg.New().TlsConfig(serverName)
	tc.InsecureSkipVerify = !ssl.HostnameVerification
	return tc, nil
}

// DialTLS dials addr and performs a client-side TLS handshake using ssl,
// wiring the resulting *tls.Conn into a Channel the same way a plaintext
// connection would be.
func DialTLS(addr, serverName string, ssl config.SSLConfig, cfg Config, loop Executor, onData DataHandler, onErr func(uint64, error)) (*Channel, error) {
	tc, err := buildTLSConfig(ssl, serverName)
	if err != nil {
		return nil, err
	}

	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	conn := tls.Client(raw, tc)
	if err := conn.Handshake(); err != nil {
		_ = raw.Close()
		return nil, ErrorTLSHandshake.Error()
	}

	return New(conn, cfg, loop, nil, onData, onErr), nil
}

// WrapAcceptedTLS performs a server-side TLS handshake over an already
// accepted net.Conn and wires the result into a Channel.
func WrapAcceptedTLS(raw net.Conn, ssl config.SSLConfig, cfg Config, loop Executor, onData DataHandler, onErr func(uint64, error)) (*Channel, error) {
	tc, err := buildTLSConfig(ssl, "")
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	tc.ClientAuth = tlsClientAuthMode(ssl.ClientAuth)

	conn := tls.Server(raw, tc)
	if err := conn.Handshake(); err != nil {
		_ = raw.Close()
		return nil, ErrorTLSHandshake.Error()
	}

	return New(conn, cfg, loop, nil, onData, onErr), nil
}

func tlsClientAuthMode(required bool) tls.ClientAuthType {
	if required {
		return tls.RequireAndVerifyClientCert
	}
	return tls.NoClientCert
}
