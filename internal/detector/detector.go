// Package detector implements a rotating-trusted, eventually-perfect
// failure detector (in the style of Chandra-Toueg's ◇P): brokers take
// turns being "trusted" in ascending id order, a trusted broker
// broadcasts liveness to every higher-id peer, and every other broker
// either resets its suspicion or promotes the next id once its own
// wait for the current trusted broker elapses.
package detector

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tiagodeliberali/logstreamer/internal/protocol"
	"github.com/tiagodeliberali/logstreamer/internal/transport"
)

// InitialDuration is the starting per-peer suspicion timeout before
// any adaptive growth.
const InitialDuration = 10 * time.Second

// broadcastInterval is how often the trusted broker sends IamAlive to
// its higher-id peers. It is deliberately much shorter than
// InitialDuration: the gap between the two is the margin that keeps
// ordinary scheduling jitter from tripping a false promotion.
const broadcastInterval = 1 * time.Second

// durationGrowth is added to a peer's timeout every time that peer is
// seen alive again after having been suspected, so that flaky peers
// eventually stop getting suspected at the same fixed interval.
const durationGrowth = 1 * time.Second

// Detector runs the rotating-trusted protocol for one broker among a
// fixed peer set, shaped as a teacher-style background Service
// (services/udp.Service's Open/Close over a dedicated goroutine).
type Detector struct {
	id      uint32
	brokers []string
	logger  *zap.Logger

	mu        sync.Mutex
	trusted   uint32
	received  bool
	durations []time.Duration

	wg   sync.WaitGroup
	done chan struct{}
}

// New builds a Detector for id among brokers, where brokers[i] is the
// address of the broker with id i. The caller supplies the full peer
// list (including its own address); this is the "later revision"
// behavior described in the design notes, which keeps the peer list
// instead of discarding it.
func New(id uint32, brokers []string, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	durations := make([]time.Duration, len(brokers))
	for i := range durations {
		durations[i] = InitialDuration
	}
	return &Detector{
		id:        id,
		brokers:   brokers,
		logger:    logger,
		trusted:   0,
		received:  true,
		durations: durations,
		done:      make(chan struct{}),
	}
}

// Open starts the detector's background loop.
func (d *Detector) Open() {
	d.wg.Add(1)
	go d.runLoop()
}

// Close stops the background loop. A sleep in progress is cut short,
// but Close still waits for an IamAlive broadcast round that is
// already dialing peers to finish.
func (d *Detector) Close() {
	close(d.done)
	d.wg.Wait()
}

// ReceiveSignal records that senderID is alive. If senderID is the
// broker we currently trust, it clears our suspicion for this round.
// If senderID is a lower id than the one we currently trust, that
// peer has come back after being skipped over, so its suspicion
// duration is grown and restored as the trusted broker, since a
// reappearing lower-id peer always outranks our current promotion.
func (d *Detector) ReceiveSignal(senderID uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case senderID == d.trusted:
		d.received = true
	case senderID < d.trusted:
		if int(senderID) < len(d.durations) {
			d.durations[senderID] += durationGrowth
		}
		d.trusted = senderID
		d.received = true
	}
}

func (d *Detector) runLoop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.done:
			return
		default:
		}

		d.mu.Lock()
		trusted := d.trusted
		d.mu.Unlock()

		if trusted == d.id {
			d.broadcastAlive()
			d.sleep(broadcastInterval)
			continue
		}

		wait := InitialDuration
		if int(trusted) < len(d.durations) {
			d.mu.Lock()
			wait = d.durations[trusted]
			d.mu.Unlock()
		}

		if !d.sleep(wait) {
			return
		}

		d.mu.Lock()
		if d.received {
			d.received = false
		} else {
			d.trusted++
			d.received = true
		}
		d.mu.Unlock()
	}
}

// sleep waits for dur or until Close is called, reporting whether it
// completed the full wait.
func (d *Detector) sleep(dur time.Duration) bool {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-d.done:
		return false
	}
}

// broadcastAlive notifies every broker with a higher id than ours
// that we are alive, then tells each of them we are done, one
// connection at a time. Peers that cannot be reached are treated as
// silent, not as an error: the failing dial is logged at debug level
// and the round continues with the next peer.
func (d *Detector) broadcastAlive() {
	alive := protocol.NewActionMessage(&protocol.IamAlive{SenderID: d.id}, "")
	quit := protocol.NewActionMessage(&protocol.Quit{}, "")

	for peerID := d.id + 1; int(peerID) < len(d.brokers); peerID++ {
		addr := d.brokers[peerID]
		if err := transport.SendOneShot(addr, alive, quit); err != nil {
			d.logger.Debug("peer unreachable", zap.Uint32("peer_id", peerID), zap.String("address", addr), zap.Error(err))
		}
	}
}
