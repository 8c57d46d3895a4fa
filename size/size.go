/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package size provides a byte-count type with human-readable parsing and
// formatting, used throughout configuration models for fields such as
// buffer sizes and maximum log segment sizes.
package size

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Size is a count of bytes.
type Size uint64

const (
	SizeNul  Size = 0
	SizeUnit Size = 1
	SizeKilo Size = 1 << 10
	SizeMega Size = 1 << 20
	SizeGiga Size = 1 << 30
	SizeTera Size = 1 << 40
	SizePeta Size = 1 << 50
	SizeExa  Size = 1 << 60
)

const (
	FormatRound0 = "%.0f"
	FormatRound1 = "%.1f"
	FormatRound2 = "%.2f"
	FormatRound3 = "%.3f"
)

var defaultUnit byte = 'B'

// SetDefaultUnit changes the trailing unit letter used by Code and String.
func SetDefaultUnit(u byte) {
	defaultUnit = u
}

var units = []struct {
	size   Size
	prefix string
}{
	{SizeExa, "E"},
	{SizePeta, "P"},
	{SizeTera, "T"},
	{SizeGiga, "G"},
	{SizeMega, "M"},
	{SizeKilo, "K"},
}

// Code returns the unit suffix ("KB", "MB", ...) for the given power index
// (0 selects automatic detection based on the receiver's magnitude).
func (s Size) Code(_ int) string {
	for _, u := range units {
		if s >= u.size {
			return u.prefix + string(defaultUnit)
		}
	}
	return string(defaultUnit)
}

func (s Size) unit() (Size, string) {
	for _, u := range units {
		if s >= u.size {
			return u.size, u.prefix + string(defaultUnit)
		}
	}
	return SizeUnit, string(defaultUnit)
}

// Format renders the size using the given printf float verb (e.g. FormatRound2).
func (s Size) Format(format string) string {
	div, _ := s.unit()
	return fmt.Sprintf(format, float64(s)/float64(div))
}

// String renders the size with two decimals of precision and its unit suffix.
func (s Size) String() string {
	div, unit := s.unit()
	return fmt.Sprintf(FormatRound2+"%s", float64(s)/float64(div), unit)
}

func (s Size) Uint64() uint64 {
	return uint64(s)
}

func (s Size) Int64() int64 {
	if s > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(s)
}

// Add returns s+o, saturating at math.MaxUint64.
func (s Size) Add(o Size) Size {
	if uint64(s) > math.MaxUint64-uint64(o) {
		return Size(math.MaxUint64)
	}
	return s + o
}

// Sub returns s-o, floored at zero.
func (s Size) Sub(o Size) Size {
	if o > s {
		return SizeNul
	}
	return s - o
}

// Mul returns s*n, saturating at math.MaxUint64.
func (s Size) Mul(n uint64) Size {
	if n == 0 || s == 0 {
		return SizeNul
	}
	if uint64(s) > math.MaxUint64/n {
		return Size(math.MaxUint64)
	}
	return Size(uint64(s) * n)
}

// Div returns s/n, or s unchanged when n is zero.
func (s Size) Div(n uint64) Size {
	if n == 0 {
		return s
	}
	return Size(uint64(s) / n)
}

var multipliers = map[string]float64{
	"B":  1,
	"KB": float64(SizeKilo),
	"MB": float64(SizeMega),
	"GB": float64(SizeGiga),
	"TB": float64(SizeTera),
	"PB": float64(SizePeta),
	"EB": float64(SizeExa),
	"K":  float64(SizeKilo),
	"M":  float64(SizeMega),
	"G":  float64(SizeGiga),
	"T":  float64(SizeTera),
	"P":  float64(SizePeta),
	"E":  float64(SizeExa),
}

// Parse parses a human-readable size such as "10KB", "1.5GB" or "512" (bytes).
func Parse(in string) (Size, error) {
	in = strings.TrimSpace(in)
	if in == "" {
		return SizeNul, fmt.Errorf("size: empty input")
	}

	i := 0
	for i < len(in) && (in[i] == '.' || in[i] == '-' || in[i] == '+' || (in[i] >= '0' && in[i] <= '9')) {
		i++
	}
	if i == 0 {
		return SizeNul, fmt.Errorf("size: no numeric prefix in %q", in)
	}

	num, err := strconv.ParseFloat(in[:i], 64)
	if err != nil {
		return SizeNul, fmt.Errorf("size: invalid numeric value in %q: %w", in, err)
	}

	unit := strings.ToUpper(strings.TrimSpace(in[i:]))
	if unit == "" {
		unit = "B"
	}

	mul, ok := multipliers[unit]
	if !ok {
		return SizeNul, fmt.Errorf("size: unknown unit %q in %q", unit, in)
	}

	if num < 0 {
		return SizeNul, fmt.Errorf("size: negative size in %q", in)
	}

	return Size(num * mul), nil
}

// ParseByte parses a size given as a byte slice; see Parse.
func ParseByte(in []byte) (Size, error) {
	if len(in) == 0 {
		return SizeNul, fmt.Errorf("size: empty input")
	}
	return Parse(string(in))
}

// ParseSize is a deprecated alias of Parse.
// Deprecated: use Parse.
func ParseSize(in string) (Size, error) {
	return Parse(in)
}

// ParseByteAsSize is a deprecated alias of ParseByte.
// Deprecated: use ParseByte.
func ParseByteAsSize(in []byte) (Size, error) {
	return ParseByte(in)
}

// GetSize is a deprecated helper returning ok=false instead of an error.
// Deprecated: use Parse.
func GetSize(in string) (Size, bool) {
	s, err := Parse(in)
	if err != nil {
		return SizeNul, false
	}
	return s, true
}

// MarshalText implements encoding.TextMarshaler for config decoders.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for config decoders
// (viper/mapstructure hand text values to this for typed fields).
func (s *Size) UnmarshalText(text []byte) error {
	v, err := ParseByte(text)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
