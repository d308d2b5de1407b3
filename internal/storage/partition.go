// Package storage implements the thread-safe, in-memory topic →
// partition → record log, grounded on the teacher's RWMutex-guarded
// map pattern in services/kafka.Cluster.
package storage

import (
	"sync"

	"github.com/tiagodeliberali/logstreamer/internal/protocol"
)

// Partition is an ordered, append-only log. Once assigned, a record's
// offset never changes; Partition.Len is monotonically non-decreasing.
type Partition struct {
	mu  sync.Mutex
	log []protocol.Content
}

func newPartition() *Partition {
	return &Partition{}
}

// Append adds every content in order under one lock acquisition and
// returns the offset of the last appended record. Distinct appends
// always receive distinct, sequential offsets.
func (p *Partition) Append(contents []protocol.Content) protocol.OffsetValue {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log = append(p.log, contents...)
	return protocol.OffsetValue(len(p.log) - 1)
}

// Read returns the records in [start, end) of the current log,
// snapshotting under the partition lock. It never holds the lock
// across I/O or the topic lock.
//
// Range clamping preserves a known hazard: when offset is at or past
// the end of the log, range_start is pulled back to re-read the last
// record rather than returning nothing.
func (p *Partition) Read(offset protocol.OffsetValue, limit uint32) []protocol.Content {
	_, contents := p.ReadFrom(offset, limit)
	return contents
}

// ReadFrom behaves like Read but also reports the offset of the first
// record returned, so callers can label each record with its true
// offset even when range clamping pulled the start back.
func (p *Partition) ReadFrom(offset protocol.OffsetValue, limit uint32) (protocol.OffsetValue, []protocol.Content) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.log) == 0 {
		return 0, nil
	}

	rangeEnd := minInt(int(uint64(offset)+uint64(limit)), len(p.log))
	rangeStart := minInt(int(offset), rangeEnd-1)
	if rangeStart < 0 {
		rangeStart = 0
	}

	out := make([]protocol.Content, rangeEnd-rangeStart)
	copy(out, p.log[rangeStart:rangeEnd])
	return protocol.OffsetValue(rangeStart), out
}

// Len reports the current number of records, for metrics snapshots
// only; callers must not rely on it for range-read correctness since
// it can grow the instant after it is read.
func (p *Partition) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.log)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
