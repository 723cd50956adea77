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

package duration

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nabbar/ncomm/errs"
)

// dayPrefix matches a leading signed integer day count, e.g. "5d" or
// "-2d", ahead of whatever time.ParseDuration can already handle.
var dayPrefix = regexp.MustCompile(`^([+-]?\d+)d`)

// parseString accepts everything time.ParseDuration does, plus a
// leading day count time.Duration has no unit for: "5d23h15m13s". It
// also tolerates the quoting and stray whitespace a config file or
// wire value tends to carry around a duration literal.
func parseString(s string) (Duration, error) {
	s = strings.Trim(s, `"'`)
	s = strings.Join(strings.Fields(s), "")

	var (
		days    int64
		hasDays bool
	)
	if m := dayPrefix.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, errs.Internal("parse duration "+s, err)
		}
		days, hasDays = n, true
		s = s[len(m[0]):]
	}

	var rest time.Duration
	if s != "" {
		v, err := time.ParseDuration(s)
		if err != nil {
			return 0, errs.Internal("parse duration "+s, err)
		}
		rest = v
	} else if !hasDays {
		return 0, errs.Internal("parse duration: empty value")
	}

	return Duration(time.Duration(days)*24*time.Hour + rest), nil
}

func (d *Duration) parseString(s string) error {
	v, err := parseString(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d *Duration) unmarshall(val []byte) error {
	v, err := ParseByte(val)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
