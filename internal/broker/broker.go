// Package broker wires the wire protocol to the storage engine and
// the failure detector: it is the Dispatcher the transport server
// calls into for every action except Quit and Invalid.
package broker

import (
	"sync"

	"go.uber.org/zap"

	"github.com/tiagodeliberali/logstreamer/internal/detector"
	"github.com/tiagodeliberali/logstreamer/internal/protocol"
	"github.com/tiagodeliberali/logstreamer/internal/storage"
	"github.com/tiagodeliberali/logstreamer/internal/transport"
)

// Broker owns one cluster of topics and, once initialized as part of
// a multi-broker deployment, a failure detector tracking its peers.
type Broker struct {
	cluster *storage.Cluster
	logger  *zap.Logger

	mu       sync.Mutex
	selfID   uint32
	brokers  []string
	detector *detector.Detector
}

// New builds a standalone Broker. Until InitializeController or
// InitializeBroker is received, it has no peers and no detector:
// Produce, Consume, and CreateTopic work against its own cluster
// exactly as a single-node deployment would.
func New(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		cluster: storage.NewCluster(),
		logger:  logger,
	}
}

// Dispatch implements transport.Dispatcher.
func (b *Broker) Dispatch(action protocol.Action, _ string) []protocol.ResponseMessage {
	switch a := action.(type) {
	case *protocol.Produce:
		return b.storeData(a.Topic, a.Contents)
	case *protocol.Consume:
		return b.readData(a.Topic, a.Offset, a.Limit)
	case *protocol.CreateTopic:
		return b.addTopic(a.TopicName, a.PartitionCount)
	case *protocol.InitializeController:
		return b.initController(a.Brokers)
	case *protocol.InitializeBroker:
		return b.initBroker(a.SelfID, a.Brokers)
	case *protocol.IamAlive:
		return b.receiveSignal(a.SenderID)
	default:
		return []protocol.ResponseMessage{protocol.NewEmptyResponse()}
	}
}

// storeData appends contents to the addressed partition, returning
// its last assigned offset, or an error response if the topic or
// partition does not exist.
func (b *Broker) storeData(topic protocol.TopicAddress, contents []protocol.Content) []protocol.ResponseMessage {
	offset, ok := b.cluster.AddContent(topic, contents)
	if !ok {
		return []protocol.ResponseMessage{protocol.NewResponseMessage(&protocol.ErrorResponse{})}
	}
	return []protocol.ResponseMessage{protocol.NewResponseMessage(&protocol.OffsetResponse{Offset: offset})}
}

// readData returns one ContentResponse per record in range, labeled
// with its true offset (which may differ from the requested offset
// under the end-of-log clamp), an Empty response when the range holds
// no records (an empty partition; a read past the end of a non-empty
// partition is clamped to its last record instead), or an error
// response for an unknown topic or partition.
func (b *Broker) readData(topic protocol.TopicAddress, offset protocol.OffsetValue, limit uint32) []protocol.ResponseMessage {
	start, contents, ok := b.cluster.ReadFrom(topic, offset, limit)
	if !ok {
		return []protocol.ResponseMessage{protocol.NewResponseMessage(&protocol.ErrorResponse{})}
	}
	if len(contents) == 0 {
		return []protocol.ResponseMessage{protocol.NewEmptyResponse()}
	}

	responses := make([]protocol.ResponseMessage, len(contents))
	for i, content := range contents {
		responses[i] = protocol.NewResponseMessage(&protocol.ContentResponse{
			Offset: start + protocol.OffsetValue(i),
			Value:  content,
		})
	}
	return responses
}

// addTopic creates name with partitionCount partitions, replacing any
// prior entry with the same name. No error is returned; re-creation
// with a different partition count orphans prior records rather than
// migrating them.
func (b *Broker) addTopic(name string, partitionCount uint32) []protocol.ResponseMessage {
	b.cluster.AddTopic(name, partitionCount)
	return []protocol.ResponseMessage{protocol.NewEmptyResponse()}
}

// initController sets this broker up as the cluster controller (id
// 0), records the full peer list, and starts a failure detector
// tracking it. It then reaches out to every other broker with
// InitializeBroker so each learns its own id and the shared peer
// list; unreachable peers are logged and skipped rather than failing
// the whole initialization.
func (b *Broker) initController(brokers []string) []protocol.ResponseMessage {
	b.mu.Lock()
	b.selfID = 0
	b.brokers = brokers
	if b.detector != nil {
		b.detector.Close()
	}
	b.detector = detector.New(0, brokers, b.logger)
	b.detector.Open()
	b.mu.Unlock()

	for id := uint32(1); int(id) < len(brokers); id++ {
		msg := protocol.NewActionMessage(&protocol.InitializeBroker{SelfID: id, Brokers: brokers}, "")
		if err := transport.SendOneShot(brokers[id], msg); err != nil {
			b.logger.Debug("could not initialize peer broker", zap.Uint32("broker_id", id), zap.String("address", brokers[id]), zap.Error(err))
		}
	}

	return []protocol.ResponseMessage{protocol.NewEmptyResponse()}
}

// initBroker configures this broker with its assigned id and the
// shared peer list, and starts a failure detector tracking it.
func (b *Broker) initBroker(selfID uint32, brokers []string) []protocol.ResponseMessage {
	b.mu.Lock()
	b.selfID = selfID
	b.brokers = brokers
	if b.detector != nil {
		b.detector.Close()
	}
	b.detector = detector.New(selfID, brokers, b.logger)
	b.detector.Open()
	b.mu.Unlock()

	return []protocol.ResponseMessage{protocol.NewEmptyResponse()}
}

// receiveSignal forwards a liveness signal to the failure detector,
// if one has been initialized. A signal received before
// initialization is silently dropped.
func (b *Broker) receiveSignal(senderID uint32) []protocol.ResponseMessage {
	b.mu.Lock()
	d := b.detector
	b.mu.Unlock()

	if d != nil {
		d.ReceiveSignal(senderID)
	}
	return []protocol.ResponseMessage{protocol.NewEmptyResponse()}
}

// Stats exposes the underlying cluster's per-topic partition lengths,
// for the metrics exporter.
func (b *Broker) Stats() []storage.TopicStats {
	return b.cluster.Stats()
}

// Close shuts down the failure detector, if one is running.
func (b *Broker) Close() {
	b.mu.Lock()
	d := b.detector
	b.mu.Unlock()

	if d != nil {
		d.Close()
	}
}
