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

import "github.com/goerajat/omnibridge-sub002/errors"

const (
	ErrorInvalidHeader errors.CodeError = iota + errors.MinPkgFixCodec
	ErrorInvalidBodyLength
	ErrorMessageTooLong
	ErrorInvalidChecksumTag
	ErrorChecksumMismatch
	ErrorTagOutOfRange
	ErrorMalformedField
	ErrorTagNotFound
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorInvalidHeader)
	errors.RegisterIdFctMessage(ErrorInvalidHeader, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UNK_ERROR:
		return ""
	case ErrorInvalidHeader:
		return "fixcodec: message does not begin with a well-formed BeginString/BodyLength header"
	case ErrorInvalidBodyLength:
		return "fixcodec: BodyLength is not a valid decimal integer"
	case ErrorMessageTooLong:
		return "fixcodec: BodyLength exceeds the configured maximum message length"
	case ErrorInvalidChecksumTag:
		return "fixcodec: trailing field is not a well-formed 3-digit checksum"
	case ErrorChecksumMismatch:
		return "fixcodec: computed checksum does not match the trailing checksum field"
	case ErrorTagOutOfRange:
		return "fixcodec: field tag exceeds the configured maximum tag number"
	case ErrorMalformedField:
		return "fixcodec: field is not a well-formed tag=value pair"
	case ErrorTagNotFound:
		return "fixcodec: requested tag is not present in the message"
	}

	return ""
}
