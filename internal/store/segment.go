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

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	libsiz "github.com/goerajat/omnibridge-sub002/size"
)

// segmentWriter appends records to the current segment file of one stream,
// rotating to a new segment once maxSize is exceeded. Writes to a single
// stream are serialized by segmentWriter's mutex (single-writer-per-stream).
type segmentWriter struct {
	dir     string
	maxSize libsiz.Size

	mu      sync.Mutex
	file    *os.File
	written int64
	index   int
}

func openSegmentWriter(dir string, maxSize libsiz.Size) (*segmentWriter, error) {
	w := &segmentWriter{dir: dir, maxSize: maxSize}
	if err := w.rotateToLatest(); err != nil {
		return nil, err
	}
	return w, nil
}

func segmentName(index int) string {
	return fmt.Sprintf("%08d.log", index)
}

func (w *segmentWriter) rotateToLatest() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".log" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	index := 0
	if len(names) > 0 {
		fmt.Sscanf(names[len(names)-1], "%d.log", &index)
	}

	return w.openIndex(index)
}

func (w *segmentWriter) openIndex(index int) error {
	if w.file != nil {
		_ = w.file.Close()
	}
	path := filepath.Join(w.dir, segmentName(index))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	w.file = f
	w.index = index
	w.written = info.Size()
	return nil
}

// Append writes r to the current segment, rotating first if it would exceed
// maxSize (a maxSize of 0 disables rotation).
func (w *segmentWriter) Append(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return ErrorClosed.Error()
	}

	buf := r.encode()
	if w.maxSize != 0 && w.written > 0 && libsiz.Size(w.written+int64(len(buf))) > w.maxSize {
		if err := w.openIndex(w.index + 1); err != nil {
			return err
		}
	}

	n, err := w.file.Write(buf)
	w.written += int64(n)
	return err
}

func (w *segmentWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrorClosed.Error()
	}
	return w.file.Sync()
}

func (w *segmentWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
