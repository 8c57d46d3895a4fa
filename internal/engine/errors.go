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

import "github.com/goerajat/omnibridge-sub002/errors"

const (
	ErrorUnknownSession errors.CodeError = iota + errors.MinPkgEngine
	ErrorSessionExists
	ErrorUnknownNetwork
	ErrorNotInitiator
	ErrorNotAcceptor
	ErrorAlreadyConnected
	ErrorUnknownSchedule
	ErrorEngineStopped
	ErrorNoChannel
	ErrorWrongWire
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorUnknownSession)
	errors.RegisterIdFctMessage(ErrorUnknownSession, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UNK_ERROR:
		return ""
	case ErrorUnknownSession:
		return "engine: unknown session id"
	case ErrorSessionExists:
		return "engine: session id already registered"
	case ErrorUnknownNetwork:
		return "engine: session references an unregistered network"
	case ErrorNotInitiator:
		return "engine: connect is only valid for initiator sessions"
	case ErrorNotAcceptor:
		return "engine: session is not an acceptor"
	case ErrorAlreadyConnected:
		return "engine: session already has a live channel"
	case ErrorUnknownSchedule:
		return "engine: session references an unregistered schedule"
	case ErrorEngineStopped:
		return "engine: engine is stopped"
	case ErrorNoChannel:
		return "engine: session has no live channel"
	case ErrorWrongWire:
		return "engine: operation does not support the session's wire protocol"
	}

	return ""
}
