/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2022 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

// Package duration wraps time.Duration with day-aware parsing and
// formatting ("5d23h15m13s"), plus JSON/YAML/TOML/CBOR/text codecs, so
// node.Period and subscriber TTL fields round-trip through config
// files and wire payloads without losing the day component
// time.Duration's own String/ParseDuration don't carry.
//
// The range is whatever time.Duration covers (±290 years), which is
// every node period or subscriber TTL this module will ever see.
package duration

import (
	"math"
	"time"
)

type Duration time.Duration

// Parse reads a duration literal, day notation included.
func Parse(s string) (Duration, error) {
	return parseString(s)
}

// ParseByte is Parse over a byte slice, for codecs that hand back raw
// bytes rather than a string.
func ParseByte(p []byte) (Duration, error) {
	return parseString(string(p))
}

func Seconds(i int64) Duration {
	return Duration(time.Duration(i) * time.Second)
}

func Minutes(i int64) Duration {
	return Duration(time.Duration(i) * time.Minute)
}

func Hours(i int64) Duration {
	return Duration(time.Duration(i) * time.Hour)
}

func Days(i int64) Duration {
	return Duration(time.Duration(i) * time.Hour * 24)
}

// ParseDuration lifts a plain time.Duration into a Duration.
func ParseDuration(d time.Duration) Duration {
	return Duration(d)
}

// ParseFloat64 treats f as a count of nanoseconds, clamping to
// ±math.MaxInt64 nanoseconds rather than overflowing on an
// out-of-range input.
func ParseFloat64(f float64) Duration {
	const (
		mx float64 = math.MaxInt64
		mi         = -mx
	)

	switch {
	case f > mx:
		return Duration(math.MaxInt64)
	case f < mi:
		return Duration(-math.MaxInt64)
	default:
		return Duration(math.Round(f))
	}
}

// ParseUint32 treats i as a raw nanosecond count, clamped to
// math.MaxInt64 if it would otherwise overflow a Duration.
func ParseUint32(i uint32) Duration {
	if uint64(i) > uint64(math.MaxInt64) {
		return Duration(math.MaxInt64)
	}
	return Duration(i)
}
