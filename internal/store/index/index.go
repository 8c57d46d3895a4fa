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

// Package index provides a rebuildable SQLite-backed secondary index over a
// store's segment files, giving O(log n) fromSeq/toSeq replay lookups
// instead of a linear segment scan. It is never the source of truth: the
// append-only segment files always are, and the index is rebuilt from them
// on open.
package index

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry locates one persisted record's segment and byte offset by its
// stream, sequence number, and timestamp.
type Entry struct {
	ID          uint `gorm:"primarykey"`
	Stream      string `gorm:"index:idx_stream_seq"`
	Seq         uint32 `gorm:"index:idx_stream_seq"`
	TimestampMS int64  `gorm:"index:idx_stream_ts"`
	Segment     int
	Offset      int64
}

// Index is the secondary SQLite index. Rebuild populates it from a store's
// segment files; Lookup answers fromSeq/toSeq range queries without a linear
// scan of the underlying log.
type Index struct {
	db *gorm.DB
}

// Open creates or opens the SQLite index file at path.
func Open(path string) (*Index, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Index{db: db}, nil
}

// Reset drops every indexed entry for stream, in preparation for a rebuild
// from the primary log.
func (ix *Index) Reset(stream string) error {
	return ix.db.Where("stream = ?", stream).Delete(&Entry{}).Error
}

// Add records one entry's location. Called while rebuilding from the
// primary log; never the origin of new data.
func (ix *Index) Add(e Entry) error {
	return ix.db.Create(&e).Error
}

// RangeBySeq returns every indexed entry for stream with fromSeq <= Seq <=
// toSeq (0 for either bound means unbounded), ordered by Seq.
func (ix *Index) RangeBySeq(stream string, fromSeq, toSeq uint32) ([]Entry, error) {
	q := ix.db.Where("stream = ?", stream)
	if fromSeq != 0 {
		q = q.Where("seq >= ?", fromSeq)
	}
	if toSeq != 0 {
		q = q.Where("seq <= ?", toSeq)
	}
	var out []Entry
	if err := q.Order("seq asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// RangeByTime returns every indexed entry for stream with
// fromMS <= TimestampMS <= toMS, ordered by timestamp.
func (ix *Index) RangeByTime(stream string, fromMS, toMS int64) ([]Entry, error) {
	q := ix.db.Where("stream = ?", stream)
	if fromMS != 0 {
		q = q.Where("timestamp_ms >= ?", fromMS)
	}
	if toMS != 0 {
		q = q.Where("timestamp_ms <= ?", toMS)
	}
	var out []Entry
	if err := q.Order("timestamp_ms asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the underlying database connection.
func (ix *Index) Close() error {
	sqlDB, err := ix.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
