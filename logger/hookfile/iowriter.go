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

package hookfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

func (o *hkf) flags() int {
	fl := os.O_WRONLY | os.O_APPEND
	if o.o.filecreate {
		fl |= os.O_CREATE
	}
	return fl
}

// open opens (or reopens) the target log file and seeks to the end.
func (o *hkf) open() error {
	f, e := os.OpenFile(o.o.filepath, o.flags(), o.o.filemode)
	if e != nil {
		return e
	}
	if _, e = f.Seek(0, io.SeekEnd); e != nil {
		_ = f.Close()
		return e
	}

	o.m.Lock()
	prev := o.h
	o.h = f
	o.m.Unlock()

	if prev != nil {
		_ = prev.Close()
	}

	return nil
}

// rotated reports whether the path on disk no longer points at our open
// file descriptor, as happens when an external tool like logrotate renames
// the file out from under a writer.
func (o *hkf) rotated() bool {
	o.m.Lock()
	h := o.h
	o.m.Unlock()

	if h == nil {
		return o.o.filecreate
	}

	cur, e1 := h.Stat()
	disk, e2 := os.Stat(o.o.filepath)
	if e2 != nil {
		return o.o.filecreate
	}
	return e1 == nil && !os.SameFile(cur, disk)
}

func (o *hkf) Write(p []byte) (n int, err error) {
	o.m.Lock()
	h := o.h
	o.m.Unlock()

	if h == nil {
		return 0, fmt.Errorf("logrus.hookfile: file %q is closed", o.o.filepath)
	}

	return h.Write(p)
}

// Close stops the hook and releases the underlying file handle.
func (o *hkf) Close() error {
	o.r.Store(false)

	o.m.Lock()
	h := o.h
	o.h = nil
	o.m.Unlock()

	if h == nil {
		return nil
	}
	return h.Close()
}

func (o *hkf) IsRunning() bool {
	return o.r.Load()
}

// Run polls for external rotation once a second until ctx is cancelled,
// reopening the file whenever the path no longer matches the held handle.
func (o *hkf) Run(ctx context.Context) {
	o.r.Store(true)
	defer o.r.Store(false)

	if !o.o.filecreate {
		<-ctx.Done()
		return
	}

	t := time.NewTicker(time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if o.rotated() {
				if e := o.open(); e != nil {
					_, _ = fmt.Fprintf(os.Stderr, "logrus.hookfile: reopen %q: %v\n", o.o.filepath, e)
				}
			}
		}
	}
}
