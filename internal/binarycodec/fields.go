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

import (
	"math"
	"strings"

	"github.com/goerajat/omnibridge-sub002/internal/buffer"
)

// PriceScale is the fixed-point scale a protocol's price fields use (e.g.
// 10000 for OUCH's 1/10000 dollar prices, 100000000 for Pillar's 1e-8).
type PriceScale uint64

const (
	ScaleOUCH   PriceScale = 10000
	ScalePillar PriceScale = 100000000
)

// GetPrice reads a fixed-scale price field at offset as a uint64 and
// divides it back to a float64.
func GetPrice(buf buffer.Buffer, offset int, scale PriceScale, order buffer.ByteOrder) (float64, error) {
	raw, err := buf.GetUint64(offset, order)
	if err != nil {
		return 0, err
	}
	return float64(raw) / float64(scale), nil
}

// PutPrice multiplies v by scale, rounds, and writes it as a uint64 at
// offset.
func PutPrice(buf buffer.Buffer, offset int, v float64, scale PriceScale, order buffer.ByteOrder) error {
	raw := uint64(math.Round(v * float64(scale)))
	return buf.PutUint64(offset, raw, order)
}

// GetPaddedString reads a width-byte left-justified field, trimming
// trailing pad bytes.
func GetPaddedString(buf buffer.Buffer, offset, width int, pad byte) (string, error) {
	tmp := make([]byte, width)
	if err := buf.GetBytes(offset, tmp, 0, width); err != nil {
		return "", err
	}
	return strings.TrimRight(string(tmp), string(pad)), nil
}

// PutPaddedString writes s left-justified into a width-byte field, padding
// the remainder with pad. s longer than width is an error.
func PutPaddedString(buf buffer.Buffer, offset, width int, pad byte, s string) error {
	if len(s) > width {
		return ErrorStringTooLong.Error()
	}
	tmp := make([]byte, width)
	for i := range tmp {
		tmp[i] = pad
	}
	copy(tmp, s)
	return buf.PutBytes(offset, tmp)
}
