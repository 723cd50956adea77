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
 */

package duration

import (
	"math"
	"time"
)

// TruncateMicroseconds rounds d toward zero to a whole microsecond,
// the resolution subscriber TTL bookkeeping cares about — anything
// finer is noise once a value has crossed a channel.
func (d Duration) TruncateMicroseconds() Duration {
	return Duration(time.Duration(d.Time().Microseconds()) * time.Microsecond)
}

// TruncateMilliseconds rounds d toward zero to a whole millisecond.
func (d Duration) TruncateMilliseconds() Duration {
	return Duration(time.Duration(d.Time().Milliseconds()) * time.Millisecond)
}

// TruncateSeconds rounds d down (toward negative infinity) to a whole
// second.
func (d Duration) TruncateSeconds() Duration {
	return Duration(time.Duration(math.Floor(d.Time().Seconds())) * time.Second)
}

// TruncateMinutes rounds d down (toward negative infinity) to a whole
// minute.
func (d Duration) TruncateMinutes() Duration {
	return Duration(time.Duration(math.Floor(d.Time().Minutes())) * time.Minute)
}

// TruncateHours rounds d down (toward negative infinity) to a whole
// hour.
func (d Duration) TruncateHours() Duration {
	return Duration(time.Duration(math.Floor(d.Time().Hours())) * time.Hour)
}

// TruncateDays rounds d down (toward negative infinity) to a whole
// 24h day.
func (d Duration) TruncateDays() Duration {
	return Duration(time.Duration(d.Days()) * 24 * time.Hour)
}
