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

// Package store implements the append-only, per-stream persistence log: one
// durable sequenced stream per session, tailing readers, and a cross-stream
// timestamp-ordered merge. On-disk record layout and segment rotation follow
// the wire format a session's inbound/outbound frames are persisted under.
package store

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"

	libclo "github.com/goerajat/omnibridge-sub002/ioutils/mapCloser"
	libsiz "github.com/goerajat/omnibridge-sub002/size"
)

// Direction distinguishes inbound from outbound frames within a stream.
type Direction uint8

const (
	Inbound Direction = iota
	Outbound
)

// Record is one persisted log entry.
type Record struct {
	Seq         uint32
	TimestampMS int64
	Direction   Direction
	Metadata    []byte
	Raw         []byte
}

// encode serializes r per the on-disk record layout:
// {uint32 total length, uint64 timestamp-ms, uint32 seqnum, uint8 direction,
//  uint16 metadata length, metadata bytes, uint32 raw length, raw bytes}.
func (r Record) encode() []byte {
	body := 8 + 4 + 1 + 2 + len(r.Metadata) + 4 + len(r.Raw)
	buf := make([]byte, 4+body)
	binary.BigEndian.PutUint32(buf[0:4], uint32(body))
	binary.BigEndian.PutUint64(buf[4:12], uint64(r.TimestampMS))
	binary.BigEndian.PutUint32(buf[12:16], r.Seq)
	buf[16] = byte(r.Direction)
	binary.BigEndian.PutUint16(buf[17:19], uint16(len(r.Metadata)))
	off := 19
	copy(buf[off:], r.Metadata)
	off += len(r.Metadata)
	binary.BigEndian.PutUint32(buf[off:off+4], uint32(len(r.Raw)))
	off += 4
	copy(buf[off:], r.Raw)
	return buf
}

func decodeRecord(r io.Reader) (Record, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Record{}, err
	}
	body := binary.BigEndian.Uint32(lenBuf[:])
	if body < 19 {
		return Record{}, ErrorCorruptRecord.Error()
	}
	buf := make([]byte, body)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Record{}, err
	}
	rec := Record{
		TimestampMS: int64(binary.BigEndian.Uint64(buf[0:8])),
		Seq:         binary.BigEndian.Uint32(buf[8:12]),
		Direction:   Direction(buf[12]),
	}
	metaLen := binary.BigEndian.Uint16(buf[13:15])
	off := 15
	if off+int(metaLen)+4 > len(buf) {
		return Record{}, ErrorCorruptRecord.Error()
	}
	rec.Metadata = append([]byte(nil), buf[off:off+int(metaLen)]...)
	off += int(metaLen)
	rawLen := binary.BigEndian.Uint32(buf[off : off+4])
	off += 4
	if off+int(rawLen) > len(buf) {
		return Record{}, ErrorCorruptRecord.Error()
	}
	rec.Raw = append([]byte(nil), buf[off:off+int(rawLen)]...)
	return rec, nil
}

// Writer is the single-writer-per-stream append handle.
type Writer interface {
	Append(r Record) error
	Sync() error
	Close() error
}

// Store owns every stream's segment files under one root directory.
type Store struct {
	root       string
	maxSegment libsiz.Size

	mu      sync.Mutex
	writers map[string]*segmentWriter
	closers libclo.Closer
}

// New opens (creating if absent) a Store rooted at path, rotating segments
// once they exceed maxSegment bytes.
func New(path string, maxSegment libsiz.Size) (*Store, error) {
	if path == "" {
		return nil, ErrorPathRequired.Error()
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return &Store{
		root:       path,
		maxSegment: maxSegment,
		writers:    make(map[string]*segmentWriter),
		closers:    libclo.New(context.Background()),
	}, nil
}

func (s *Store) streamDir(stream string) string {
	return filepath.Join(s.root, stream)
}

// Writer returns the single-writer handle for stream, creating its
// directory on first use.
func (s *Store) Writer(stream string) (Writer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.writers[stream]; ok {
		return w, nil
	}

	dir := s.streamDir(stream)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	w, err := openSegmentWriter(dir, s.maxSegment)
	if err != nil {
		return nil, err
	}
	s.writers[stream] = w
	s.closers.Add(w)
	return w, nil
}

// segments lists the stream's segment files in rotation (write) order.
func (s *Store) segments(stream string) ([]string, error) {
	dir := s.streamDir(stream)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrorStreamNotFound.Error()
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".log" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// DirectionFilter optionally restricts Replay to one direction.
type DirectionFilter struct {
	set bool
	dir Direction
}

// AnyDirection matches both inbound and outbound records.
func AnyDirection() DirectionFilter { return DirectionFilter{} }

// OnlyDirection matches only the given direction.
func OnlyDirection(d Direction) DirectionFilter { return DirectionFilter{set: true, dir: d} }

func (f DirectionFilter) matches(d Direction) bool {
	return !f.set || f.dir == d
}

// Replay walks a stream's records in write order between fromSeq and toSeq
// inclusive (0 for either bound means unbounded), invoking cb until it
// returns false or the stream is exhausted.
func (s *Store) Replay(stream string, filter DirectionFilter, fromSeq, toSeq uint32, cb func(Record) bool) error {
	files, err := s.segments(stream)
	if err != nil {
		return err
	}
	for _, path := range files {
		cont, err := replayFile(path, func(r Record) bool {
			if fromSeq != 0 && r.Seq < fromSeq {
				return true
			}
			if toSeq != 0 && r.Seq > toSeq {
				return false
			}
			if !filter.matches(r.Direction) {
				return true
			}
			return cb(r)
		})
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// ReplayTimeRange walks a stream's records filtering by stored timestamp
// instead of sequence number.
func (s *Store) ReplayTimeRange(stream string, fromMS, toMS int64, cb func(Record) bool) error {
	files, err := s.segments(stream)
	if err != nil {
		return err
	}
	for _, path := range files {
		cont, err := replayFile(path, func(r Record) bool {
			if fromMS != 0 && r.TimestampMS < fromMS {
				return true
			}
			if toMS != 0 && r.TimestampMS > toMS {
				return false
			}
			return cb(r)
		})
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// replayFile opens path and streams its decoded records through pick,
// stopping early (returning cont == false) when pick does.
func replayFile(path string, pick func(Record) bool) (cont bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return true, err
	}
	defer f.Close()

	for {
		rec, err := decodeRecord(f)
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return true, err
		}
		if !pick(rec) {
			return false, nil
		}
	}
}

// Close closes every open writer and reader resource the store tracks.
func (s *Store) Close() error {
	return s.closers.Close()
}
