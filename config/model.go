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

// Package config holds the value structs this engine is built from. It owns
// no loader: values arrive already decoded, either hand-built by a caller or
// produced by FromViper from a *viper.Viper an external CLI/HOCON layer
// populated.
package config

import (
	liblvl "github.com/goerajat/omnibridge-sub002/logger/level"

	"github.com/goerajat/omnibridge-sub002/duration"
	"github.com/goerajat/omnibridge-sub002/size"
)

// Role is the session's position in the TCP connection.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleAcceptor  Role = "acceptor"
)

// WireProtocol selects the codec a session speaks over its channel.
type WireProtocol string

const (
	WireFIX42  WireProtocol = "FIX.4.2"
	WireFIX44  WireProtocol = "FIX.4.4"
	WireFIX50  WireProtocol = "FIXT.1.1"
	WireOUCH42 WireProtocol = "OUCH.4.2"
	WireOUCH50 WireProtocol = "OUCH.5.0"
	WirePillar WireProtocol = "PILLAR"
	WireSBE    WireProtocol = "SBE"
)

// NetworkConfig configures one network event loop instance.
type NetworkConfig struct {
	Name            string `mapstructure:"name" json:"name" yaml:"name" toml:"name"`
	CPUAffinity     int    `mapstructure:"cpu-affinity" json:"cpu-affinity" yaml:"cpu-affinity" toml:"cpu-affinity"`
	ReadBufferSize  size.Size `mapstructure:"read-buffer-size" json:"read-buffer-size" yaml:"read-buffer-size" toml:"read-buffer-size"`
	WriteBufferSize size.Size `mapstructure:"write-buffer-size" json:"write-buffer-size" yaml:"write-buffer-size" toml:"write-buffer-size"`
	SelectTimeoutMS int       `mapstructure:"select-timeout-ms" json:"select-timeout-ms" yaml:"select-timeout-ms" toml:"select-timeout-ms"`
	BusySpinMode    bool      `mapstructure:"busy-spin-mode" json:"busy-spin-mode" yaml:"busy-spin-mode" toml:"busy-spin-mode"`

	// AllowSingleSessionFallback enables the legacy OUCH convenience of
	// resolving a session purely from the listening port when more than one
	// acceptor session could otherwise match.
	AllowSingleSessionFallback bool `mapstructure:"allow-single-session-fallback" json:"allow-single-session-fallback,omitempty" yaml:"allow-single-session-fallback,omitempty" toml:"allow-single-session-fallback,omitempty"`
}

func (n NetworkConfig) Validate() error {
	if n.Name == "" {
		return ErrorNetworkNameEmpty.Error()
	}
	if n.CPUAffinity < -1 {
		return ErrorNetworkCPUAffinity.Error()
	}
	if n.SelectTimeoutMS < 0 {
		return ErrorNetworkSelectTimeout.Error()
	}
	return nil
}

// PersistenceConfig configures the append-only store backing every session.
type PersistenceConfig struct {
	Enabled        bool      `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	Path           string    `mapstructure:"path" json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	MaxLogFileSize size.Size `mapstructure:"max-log-file-size" json:"max-log-file-size" yaml:"max-log-file-size" toml:"max-log-file-size"`
}

func (p PersistenceConfig) Validate() error {
	if p.Enabled && p.Path == "" {
		return ErrorPersistencePathEmpty.Error()
	}
	if p.Enabled && p.MaxLogFileSize == 0 {
		return ErrorPersistenceMaxSize.Error()
	}
	return nil
}

// SSLConfig configures the optional TLS wrapping of a session's channel.
type SSLConfig struct {
	Enabled              bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	Protocol             string `mapstructure:"protocol" json:"protocol,omitempty" yaml:"protocol,omitempty" toml:"protocol,omitempty"`
	KeyStorePath         string `mapstructure:"key-store-path" json:"key-store-path,omitempty" yaml:"key-store-path,omitempty" toml:"key-store-path,omitempty"`
	KeyStorePassword     string `mapstructure:"key-store-password" json:"key-store-password,omitempty" yaml:"key-store-password,omitempty" toml:"key-store-password,omitempty"`
	TrustStorePath       string `mapstructure:"trust-store-path" json:"trust-store-path,omitempty" yaml:"trust-store-path,omitempty" toml:"trust-store-path,omitempty"`
	TrustStorePassword   string `mapstructure:"trust-store-password" json:"trust-store-password,omitempty" yaml:"trust-store-password,omitempty" toml:"trust-store-password,omitempty"`
	ClientAuth           bool   `mapstructure:"client-auth" json:"client-auth,omitempty" yaml:"client-auth,omitempty" toml:"client-auth,omitempty"`
	HostnameVerification bool   `mapstructure:"hostname-verification" json:"hostname-verification,omitempty" yaml:"hostname-verification,omitempty" toml:"hostname-verification,omitempty"`
}

// ScheduleConfig names a time-window a session is allowed to be live in.
type ScheduleConfig struct {
	Name      string `mapstructure:"name" json:"name" yaml:"name" toml:"name"`
	StartTime string `mapstructure:"start-time" json:"start-time" yaml:"start-time" toml:"start-time"`
	EndTime   string `mapstructure:"end-time" json:"end-time" yaml:"end-time" toml:"end-time"`
	EODTime   string `mapstructure:"eod-time" json:"eod-time" yaml:"eod-time" toml:"eod-time"`
	TimeZone  string `mapstructure:"time-zone" json:"time-zone" yaml:"time-zone" toml:"time-zone"`
	// Days is a comma-separated day-of-week mask, e.g. "MON,TUE,WED,THU,FRI".
	// Empty means every day.
	Days string `mapstructure:"days" json:"days,omitempty" yaml:"days,omitempty" toml:"days,omitempty"`
	// PreWarnSeconds, if non-zero, emits an extra pre-warning edge this many
	// seconds before SESSION_START/SESSION_END.
	PreWarnSeconds int `mapstructure:"pre-warn-seconds" json:"pre-warn-seconds,omitempty" yaml:"pre-warn-seconds,omitempty" toml:"pre-warn-seconds,omitempty"`
}

func (s ScheduleConfig) Validate() error {
	if s.Name == "" {
		return ErrorScheduleNameEmpty.Error()
	}
	if s.TimeZone == "" {
		return ErrorScheduleTimeZoneEmpty.Error()
	}
	return nil
}

// SessionConfig configures one trading session (initiator or acceptor side).
type SessionConfig struct {
	SessionID   string       `mapstructure:"session-id" json:"session-id" yaml:"session-id" toml:"session-id"`
	Sender      string       `mapstructure:"sender" json:"sender" yaml:"sender" toml:"sender"`
	Target      string       `mapstructure:"target" json:"target" yaml:"target" toml:"target"`
	Role        Role         `mapstructure:"role" json:"role" yaml:"role" toml:"role"`
	Wire        WireProtocol `mapstructure:"wire-protocol" json:"wire-protocol" yaml:"wire-protocol" toml:"wire-protocol"`
	Host        string       `mapstructure:"host" json:"host" yaml:"host" toml:"host"`
	Port        int          `mapstructure:"port" json:"port" yaml:"port" toml:"port"`
	// Network names the NetworkConfig whose event loop owns this session's
	// channel. Empty resolves to the sole configured network; ambiguous
	// otherwise.
	Network string `mapstructure:"network" json:"network,omitempty" yaml:"network,omitempty" toml:"network,omitempty"`

	HeartbeatInterval duration.Duration `mapstructure:"heartbeat-interval" json:"heartbeat-interval" yaml:"heartbeat-interval" toml:"heartbeat-interval"`

	ResetOnLogon      bool `mapstructure:"reset-on-logon" json:"reset-on-logon,omitempty" yaml:"reset-on-logon,omitempty" toml:"reset-on-logon,omitempty"`
	ResetOnLogout     bool `mapstructure:"reset-on-logout" json:"reset-on-logout,omitempty" yaml:"reset-on-logout,omitempty" toml:"reset-on-logout,omitempty"`
	ResetOnDisconnect bool `mapstructure:"reset-on-disconnect" json:"reset-on-disconnect,omitempty" yaml:"reset-on-disconnect,omitempty" toml:"reset-on-disconnect,omitempty"`
	ResetOnEOD        bool `mapstructure:"reset-on-eod" json:"reset-on-eod,omitempty" yaml:"reset-on-eod,omitempty" toml:"reset-on-eod,omitempty"`

	ReconnectInterval    duration.Duration `mapstructure:"reconnect-interval" json:"reconnect-interval,omitempty" yaml:"reconnect-interval,omitempty" toml:"reconnect-interval,omitempty"`
	MaxReconnectAttempts int               `mapstructure:"max-reconnect-attempts" json:"max-reconnect-attempts,omitempty" yaml:"max-reconnect-attempts,omitempty" toml:"max-reconnect-attempts,omitempty"`

	MaxMessageLength int `mapstructure:"max-message-length" json:"max-message-length" yaml:"max-message-length" toml:"max-message-length"`
	MaxTagNumber     int `mapstructure:"max-tag-number" json:"max-tag-number,omitempty" yaml:"max-tag-number,omitempty" toml:"max-tag-number,omitempty"`

	Schedule string    `mapstructure:"schedule" json:"schedule,omitempty" yaml:"schedule,omitempty" toml:"schedule,omitempty"`
	SSL      SSLConfig `mapstructure:"ssl" json:"ssl,omitempty" yaml:"ssl,omitempty" toml:"ssl,omitempty"`

	FixVersion       string `mapstructure:"fix-version" json:"fix-version,omitempty" yaml:"fix-version,omitempty" toml:"fix-version,omitempty"`
	DefaultApplVerID string `mapstructure:"default-appl-ver-id" json:"default-appl-ver-id,omitempty" yaml:"default-appl-ver-id,omitempty" toml:"default-appl-ver-id,omitempty"`
}

func (s SessionConfig) Validate() error {
	if s.SessionID == "" {
		return ErrorSessionIDEmpty.Error()
	}
	if s.Role != RoleInitiator && s.Role != RoleAcceptor {
		return ErrorSessionRoleInvalid.Error()
	}
	if s.Host == "" || s.Port <= 0 {
		return ErrorSessionEndpointInvalid.Error()
	}
	if s.HeartbeatInterval <= 0 {
		return ErrorSessionHeartbeatInvalid.Error()
	}
	if s.Role == RoleInitiator && s.MaxReconnectAttempts < 0 {
		return ErrorSessionReconnectInvalid.Error()
	}
	return nil
}

// Config aggregates every session this process runs, plus the shared network
// loops, persistence root, and named schedules they draw from.
type Config struct {
	LogLevel     liblvl.Level        `mapstructure:"log-level" json:"log-level,omitempty" yaml:"log-level,omitempty" toml:"log-level,omitempty"`
	Networks     []NetworkConfig     `mapstructure:"networks" json:"networks" yaml:"networks" toml:"networks"`
	Persistence  PersistenceConfig   `mapstructure:"persistence" json:"persistence" yaml:"persistence" toml:"persistence"`
	Schedules    []ScheduleConfig    `mapstructure:"schedules" json:"schedules,omitempty" yaml:"schedules,omitempty" toml:"schedules,omitempty"`
	Sessions     []SessionConfig     `mapstructure:"sessions" json:"sessions" yaml:"sessions" toml:"sessions"`
}

func (c Config) Validate() error {
	if len(c.Networks) == 0 {
		return ErrorConfigNoNetwork.Error()
	}
	for _, n := range c.Networks {
		if err := n.Validate(); err != nil {
			return err
		}
	}
	if err := c.Persistence.Validate(); err != nil {
		return err
	}
	for _, s := range c.Schedules {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if len(c.Sessions) == 0 {
		return ErrorConfigNoSession.Error()
	}
	for _, s := range c.Sessions {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
