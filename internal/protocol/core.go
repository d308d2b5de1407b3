package protocol

// TopicAddress identifies one partition of one topic. Two addresses
// are equal iff both fields are equal.
type TopicAddress struct {
	Name      string
	Partition uint32
}

// OffsetValue is the zero-based, permanent position of a record
// within its partition.
type OffsetValue uint32

// Content is a record payload. No length limit is enforced beyond the
// u32 wire length prefix.
type Content string
