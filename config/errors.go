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

package config

import "github.com/goerajat/omnibridge-sub002/errors"

const (
	ErrorNetworkNameEmpty errors.CodeError = iota + errors.MinPkgConfig
	ErrorNetworkCPUAffinity
	ErrorNetworkSelectTimeout
	ErrorPersistencePathEmpty
	ErrorPersistenceMaxSize
	ErrorScheduleNameEmpty
	ErrorScheduleTimeZoneEmpty
	ErrorSessionIDEmpty
	ErrorSessionRoleInvalid
	ErrorSessionEndpointInvalid
	ErrorSessionHeartbeatInvalid
	ErrorSessionReconnectInvalid
	ErrorConfigNoNetwork
	ErrorConfigNoSession
	ErrorViperDecode
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorNetworkNameEmpty)
	errors.RegisterIdFctMessage(ErrorNetworkNameEmpty, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UNK_ERROR:
		return ""
	case ErrorNetworkNameEmpty:
		return "network config: name is empty"
	case ErrorNetworkCPUAffinity:
		return "network config: cpu-affinity must be -1 or a core index"
	case ErrorNetworkSelectTimeout:
		return "network config: select-timeout-ms must not be negative"
	case ErrorPersistencePathEmpty:
		return "persistence config: enabled with an empty path"
	case ErrorPersistenceMaxSize:
		return "persistence config: enabled with a zero max-log-file-size"
	case ErrorScheduleNameEmpty:
		return "schedule config: name is empty"
	case ErrorScheduleTimeZoneEmpty:
		return "schedule config: time-zone is empty"
	case ErrorSessionIDEmpty:
		return "session config: session-id is empty"
	case ErrorSessionRoleInvalid:
		return "session config: role must be initiator or acceptor"
	case ErrorSessionEndpointInvalid:
		return "session config: host/port is invalid"
	case ErrorSessionHeartbeatInvalid:
		return "session config: heartbeat-interval must be positive"
	case ErrorSessionReconnectInvalid:
		return "session config: max-reconnect-attempts must not be negative"
	case ErrorConfigNoNetwork:
		return "config: no network declared"
	case ErrorConfigNoSession:
		return "config: no session declared"
	case ErrorViperDecode:
		return "config: cannot decode viper instance"
	}

	return ""
}
