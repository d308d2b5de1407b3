package storage

import (
	"sync"

	"github.com/tiagodeliberali/logstreamer/internal/protocol"
)

// Cluster maps topic names to their fixed-at-creation partition list.
// The map itself is guarded by a reader-writer lock; AddTopic is the
// only writer. Each Partition guards its own log independently, so
// reads and appends on different partitions run fully in parallel.
type Cluster struct {
	mu     sync.RWMutex
	topics map[string][]*Partition
}

func NewCluster() *Cluster {
	return &Cluster{topics: make(map[string][]*Partition)}
}

// AddTopic creates n empty partitions under name, overwriting any
// prior entry. Readers that already hold a handle to a partition from
// the overwritten entry keep seeing it; there is no migration.
func (c *Cluster) AddTopic(name string, n uint32) {
	partitions := make([]*Partition, n)
	for i := range partitions {
		partitions[i] = newPartition()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics[name] = partitions
}

// GetPartition returns a shared handle to the addressed partition, or
// false if the topic or partition index does not exist.
func (c *Cluster) GetPartition(addr protocol.TopicAddress) (*Partition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	partitions, ok := c.topics[addr.Name]
	if !ok {
		return nil, false
	}
	if int(addr.Partition) >= len(partitions) {
		return nil, false
	}
	return partitions[addr.Partition], true
}

// AddContent appends every content to the addressed partition
// atomically and returns the offset of the last appended record. It
// returns false if the topic or partition does not exist.
func (c *Cluster) AddContent(addr protocol.TopicAddress, contents []protocol.Content) (protocol.OffsetValue, bool) {
	partition, ok := c.GetPartition(addr)
	if !ok {
		return 0, false
	}
	return partition.Append(contents), true
}

// ReadFrom reads from the addressed partition, returning false if the
// topic or partition does not exist.
func (c *Cluster) ReadFrom(addr protocol.TopicAddress, offset protocol.OffsetValue, limit uint32) (protocol.OffsetValue, []protocol.Content, bool) {
	partition, ok := c.GetPartition(addr)
	if !ok {
		return 0, nil, false
	}
	start, contents := partition.ReadFrom(offset, limit)
	return start, contents, true
}

// TopicStats is a point-in-time snapshot of one topic's partition
// lengths, used only by the metrics exporter.
type TopicStats struct {
	Name             string
	PartitionLengths []int
}

// Stats snapshots every topic's partition lengths. It takes the topic
// read lock only long enough to copy the partition handles, then
// reads each partition's length without holding that lock.
func (c *Cluster) Stats() []TopicStats {
	c.mu.RLock()
	names := make([]string, 0, len(c.topics))
	partitionLists := make([][]*Partition, 0, len(c.topics))
	for name, partitions := range c.topics {
		names = append(names, name)
		partitionLists = append(partitionLists, partitions)
	}
	c.mu.RUnlock()

	out := make([]TopicStats, 0, len(names))
	for i, name := range names {
		lengths := make([]int, len(partitionLists[i]))
		for j, p := range partitionLists[i] {
			lengths[j] = p.Len()
		}
		out = append(out, TopicStats{Name: name, PartitionLengths: lengths})
	}
	return out
}
