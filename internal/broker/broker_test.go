package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiagodeliberali/logstreamer/internal/protocol"
)

func addr(topic string, partition uint32) protocol.TopicAddress {
	return protocol.TopicAddress{Name: topic, Partition: partition}
}

func TestCreateProduceConsumeRoundTrip(t *testing.T) {
	b := New(nil)

	responses := b.Dispatch(&protocol.CreateTopic{TopicName: "topic", PartitionCount: 1}, "")
	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.Empty{}, responses[0].Response)

	responses = b.Dispatch(&protocol.Produce{Topic: addr("topic", 0), Contents: []protocol.Content{"hello"}}, "")
	require.Len(t, responses, 1)
	offsetResp, ok := responses[0].Response.(*protocol.OffsetResponse)
	require.True(t, ok)
	assert.EqualValues(t, 0, offsetResp.Offset)

	responses = b.Dispatch(&protocol.Consume{Topic: addr("topic", 0), Offset: 0, Limit: 10}, "")
	require.Len(t, responses, 1)
	contentResp, ok := responses[0].Response.(*protocol.ContentResponse)
	require.True(t, ok)
	assert.EqualValues(t, 0, contentResp.Offset)
	assert.Equal(t, protocol.Content("hello"), contentResp.Value)
}

func TestProduce_ReturnsLastOffsetOfBatch(t *testing.T) {
	b := New(nil)
	b.Dispatch(&protocol.CreateTopic{TopicName: "topic", PartitionCount: 1}, "")

	responses := b.Dispatch(&protocol.Produce{
		Topic:    addr("topic", 0),
		Contents: []protocol.Content{"a", "b", "c"},
	}, "")

	require.Len(t, responses, 1)
	offsetResp, ok := responses[0].Response.(*protocol.OffsetResponse)
	require.True(t, ok)
	assert.EqualValues(t, 2, offsetResp.Offset)
}

func TestProduceToUnknownTopic_ReturnsError(t *testing.T) {
	b := New(nil)

	responses := b.Dispatch(&protocol.Produce{Topic: addr("missing", 0), Contents: []protocol.Content{"x"}}, "")

	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.ErrorResponse{}, responses[0].Response)
}

func TestConsumeUnknownTopic_ReturnsError(t *testing.T) {
	b := New(nil)

	responses := b.Dispatch(&protocol.Consume{Topic: addr("missing", 0), Offset: 0, Limit: 10}, "")

	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.ErrorResponse{}, responses[0].Response)
}

func TestConsumeEmptyPartition_ReturnsEmpty(t *testing.T) {
	b := New(nil)
	b.Dispatch(&protocol.CreateTopic{TopicName: "topic", PartitionCount: 1}, "")

	responses := b.Dispatch(&protocol.Consume{Topic: addr("topic", 0), Offset: 0, Limit: 10}, "")

	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.Empty{}, responses[0].Response)
}

func TestMultiPartitionIsolation(t *testing.T) {
	b := New(nil)
	b.Dispatch(&protocol.CreateTopic{TopicName: "topic", PartitionCount: 2}, "")

	b.Dispatch(&protocol.Produce{Topic: addr("topic", 0), Contents: []protocol.Content{"p0"}}, "")
	b.Dispatch(&protocol.Produce{Topic: addr("topic", 1), Contents: []protocol.Content{"p1-a", "p1-b"}}, "")

	responses := b.Dispatch(&protocol.Consume{Topic: addr("topic", 0), Offset: 0, Limit: 10}, "")
	require.Len(t, responses, 1)
	assert.Equal(t, protocol.Content("p0"), responses[0].Response.(*protocol.ContentResponse).Value)

	responses = b.Dispatch(&protocol.Consume{Topic: addr("topic", 1), Offset: 0, Limit: 10}, "")
	require.Len(t, responses, 2)
}

func TestIamAlive_BeforeInitialization_IsDroppedWithoutPanic(t *testing.T) {
	b := New(nil)
	assert.NotPanics(t, func() {
		b.Dispatch(&protocol.IamAlive{SenderID: 1}, "")
	})
}

func TestInitController_StartsDetectorAsID0(t *testing.T) {
	b := New(nil)
	defer b.Close()

	responses := b.Dispatch(&protocol.InitializeController{Brokers: []string{"127.0.0.1:0"}}, "")

	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.Empty{}, responses[0].Response)
	assert.EqualValues(t, 0, b.selfID)
	require.NotNil(t, b.detector)
}

func TestAddTopic_ReplacesExistingEntry(t *testing.T) {
	b := New(nil)

	b.Dispatch(&protocol.CreateTopic{TopicName: "topic", PartitionCount: 1}, "")
	b.Dispatch(&protocol.Produce{Topic: addr("topic", 0), Contents: []protocol.Content{"a"}}, "")

	responses := b.Dispatch(&protocol.CreateTopic{TopicName: "topic", PartitionCount: 3}, "")
	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.Empty{}, responses[0].Response)

	responses = b.Dispatch(&protocol.Consume{Topic: addr("topic", 0), Offset: 0, Limit: 10}, "")
	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.Empty{}, responses[0].Response)
}
