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

package hooksyslog

import (
	"context"
	"fmt"
	"log/syslog"
)

// dial opens (or reopens) the syslog connection.
func (o *hks) dial() error {
	w, e := syslog.Dial(o.o.network, o.o.host, o.o.priority, o.o.tag)
	if e != nil {
		return e
	}

	o.m.Lock()
	prev := o.w
	o.w = w
	o.m.Unlock()

	if prev != nil {
		_ = prev.Close()
	}

	return nil
}

func (o *hks) Write(p []byte) (n int, err error) {
	o.m.Lock()
	w := o.w
	o.m.Unlock()

	if w == nil {
		return 0, fmt.Errorf("logrus.hooksyslog: connection to %q not setup", o.getSyslogInfo())
	}

	n, err = w.Write(p)
	if err == nil {
		return n, nil
	}

	// one reconnect attempt on write failure (remote syslog daemon restart, TCP reset)
	if e := o.dial(); e != nil {
		return n, err
	}

	o.m.Lock()
	w = o.w
	o.m.Unlock()
	return w.Write(p)
}

func (o *hks) Close() error {
	o.r.Store(false)

	o.m.Lock()
	w := o.w
	o.w = nil
	o.m.Unlock()

	if w == nil {
		return nil
	}
	return w.Close()
}

func (o *hks) IsRunning() bool {
	return o.r.Load()
}

// Run keeps the hook marked running until ctx is cancelled; the syslog
// connection itself needs no periodic maintenance.
func (o *hks) Run(ctx context.Context) {
	o.r.Store(true)
	defer o.r.Store(false)
	<-ctx.Done()
}

func (o *hks) getSyslogInfo() string {
	return fmt.Sprintf("%s %s", o.o.network, o.o.host)
}
