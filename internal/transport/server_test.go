package transport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiagodeliberali/logstreamer/internal/broker"
	"github.com/tiagodeliberali/logstreamer/internal/protocol"
	"github.com/tiagodeliberali/logstreamer/internal/transport"
)

func startServer(t *testing.T) (*transport.Server, *broker.Broker) {
	t.Helper()
	b := broker.New(nil)
	s := transport.NewServer("127.0.0.1:0", b, nil)
	require.NoError(t, s.Open())
	t.Cleanup(func() {
		b.Close()
		s.Close()
	})
	return s, b
}

func addr(topic string, partition uint32) protocol.TopicAddress {
	return protocol.TopicAddress{Name: topic, Partition: partition}
}

// TestCreateProduceConsume_RoundTripsOverTCP is scenario S1 from the
// spec, driven end to end over a real socket instead of calling the
// broker's Dispatch directly.
func TestCreateProduceConsume_RoundTripsOverTCP(t *testing.T) {
	s, _ := startServer(t)

	client, err := transport.NewClient(s.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	responses := client.SendMessage(protocol.NewActionMessage(&protocol.CreateTopic{TopicName: "topic", PartitionCount: 1}, ""))
	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.Empty{}, responses[0].Response)

	responses = client.SendMessage(protocol.NewActionMessage(&protocol.Produce{
		Topic:    addr("topic", 0),
		Contents: []protocol.Content{"a", "b", "c"},
	}, ""))
	// A single Offset frame carrying the last of the three offsets,
	// plus the zero-padded trailing Empty.
	require.Len(t, responses, 2)
	offsetResp, ok := responses[0].Response.(*protocol.OffsetResponse)
	require.True(t, ok)
	assert.EqualValues(t, 2, offsetResp.Offset)
	assert.IsType(t, &protocol.Empty{}, responses[1].Response)

	responses = client.SendMessage(protocol.NewActionMessage(&protocol.Consume{
		Topic:  addr("topic", 0),
		Offset: 0,
		Limit:  10,
	}, ""))
	require.Len(t, responses, 4)
	for i, want := range []protocol.Content{"a", "b", "c"} {
		content, ok := responses[i].Response.(*protocol.ContentResponse)
		require.True(t, ok)
		assert.EqualValues(t, i, content.Offset)
		assert.Equal(t, want, content.Value)
	}
	assert.IsType(t, &protocol.Empty{}, responses[3].Response)
}

func TestQuit_ClosesConnectionAfterEmptyResponse(t *testing.T) {
	s, _ := startServer(t)

	client, err := transport.NewClient(s.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	responses := client.SendMessage(protocol.NewActionMessage(&protocol.Quit{}, ""))
	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.Empty{}, responses[0].Response)
}

func TestInvalidTag_RepliesEmptyAndKeepsConnectionOpen(t *testing.T) {
	s, _ := startServer(t)

	client, err := transport.NewClient(s.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	responses := client.SendMessage(protocol.NewActionMessage(&protocol.Invalid{}, ""))
	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.Empty{}, responses[0].Response)

	responses = client.SendMessage(protocol.NewActionMessage(&protocol.CreateTopic{TopicName: "topic", PartitionCount: 1}, ""))
	require.Len(t, responses, 1)
	assert.IsType(t, &protocol.Empty{}, responses[0].Response)
}

func TestUnknownTopic_ProduceReturnsSingleError(t *testing.T) {
	s, _ := startServer(t)

	client, err := transport.NewClient(s.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	responses := client.SendMessage(protocol.NewActionMessage(&protocol.Produce{
		Topic:    addr("missing", 0),
		Contents: []protocol.Content{"x"},
	}, ""))
	// The dispatcher writes a single Error frame; the client's fixed
	// read buffer is zero-filled past it, which decodes as a trailing
	// Empty terminator (spec.md §8 scenario S3's "[Error, …]").
	require.Len(t, responses, 2)
	assert.IsType(t, &protocol.ErrorResponse{}, responses[0].Response)
	assert.IsType(t, &protocol.Empty{}, responses[1].Response)
}
