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

// Package schedule implements the named time-window state machine: open/
// close times in a named timezone, an optional daily reset time, a
// day-of-week mask, and edge-triggered SESSION_START/SESSION_END/RESET_DUE
// events driven off an injected internal/clock.Clock.
package schedule

import (
	"strings"
	"time"
)

// Window is one schedule's configuration, already parsed into
// directly-comparable values.
type Window struct {
	Name  string
	Loc   *time.Location
	Start time.Duration // offset from local midnight
	End   time.Duration
	// HasEOD reports whether EOD resets at a fixed time (vs. never).
	HasEOD bool
	EOD    time.Duration
	// Days is a day-of-week mask; Days[time.Monday] etc. An all-false mask
	// means every day.
	Days [7]bool
	// PreWarn, if non-zero, is how long before an edge a pre-warning fires.
	PreWarn time.Duration
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, ErrorInvalidWindow.Error()
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
}

// ParseDays parses a comma-separated day-of-week mask ("MON,TUE,WED"); an
// empty string means every day.
func ParseDays(s string) ([7]bool, error) {
	var mask [7]bool
	s = strings.TrimSpace(s)
	if s == "" {
		return mask, nil
	}
	names := map[string]time.Weekday{
		"SUN": time.Sunday, "MON": time.Monday, "TUE": time.Tuesday,
		"WED": time.Wednesday, "THU": time.Thursday, "FRI": time.Friday, "SAT": time.Saturday,
	}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		d, ok := names[tok]
		if !ok {
			return mask, ErrorInvalidWindow.Error()
		}
		mask[d] = true
	}
	return mask, nil
}

func (w Window) allowsDay(d time.Weekday) bool {
	for _, v := range w.Days {
		if v {
			return w.Days[d]
		}
	}
	return true
}

// InWindow reports whether t (converted into w.Loc) falls inside the
// open/close window on its calendar day.
func (w Window) InWindow(t time.Time) bool {
	local := t.In(w.Loc)
	if !w.allowsDay(local.Weekday()) {
		return false
	}
	offset := sinceMidnight(local)
	if w.Start <= w.End {
		return offset >= w.Start && offset < w.End
	}
	// overnight window wrapping past midnight
	return offset >= w.Start || offset < w.End
}

func sinceMidnight(t time.Time) time.Duration {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return t.Sub(midnight)
}
