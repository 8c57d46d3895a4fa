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

// Package hooksyslog provides a logrus hook implementation that writes log
// entries to a local or remote syslog daemon over the standard library's
// log/syslog client.
package hooksyslog

import (
	"sync/atomic"

	logcfg "github.com/goerajat/omnibridge-sub002/logger/config"
	loglvl "github.com/goerajat/omnibridge-sub002/logger/level"
	logtps "github.com/goerajat/omnibridge-sub002/logger/types"
	"github.com/sirupsen/logrus"
)

// HookSyslog defines the interface for a logrus hook writing to syslog.
type HookSyslog interface {
	logtps.Hook
}

// New dials the configured syslog endpoint and returns a hook ready to be
// registered with a logrus.Logger. Network and Host empty means the local
// system syslog is used.
func New(opt logcfg.OptionsSyslog, format logrus.Formatter) (HookSyslog, error) {
	var LVLs = make([]logrus.Level, 0)

	if len(opt.LogLevel) > 0 {
		for _, ls := range opt.LogLevel {
			LVLs = append(LVLs, loglvl.Parse(ls).Logrus())
		}
	} else {
		LVLs = logrus.AllLevels
	}

	n := &hks{
		o: ohks{
			format:           format,
			levels:           LVLs,
			disableStack:     opt.DisableStack,
			disableTimestamp: opt.DisableTimestamp,
			enableTrace:      opt.EnableTrace,
			enableAccessLog:  opt.EnableAccessLog,
			network:          opt.Network,
			host:             opt.Host,
			tag:              opt.Tag,
			priority:         makePriority(MakeSeverity("INFO"), MakeFacility(opt.Facility)),
		},
		r: new(atomic.Bool),
	}

	if e := n.dial(); e != nil {
		return nil, e
	}

	return n, nil
}
