// Package metrics exposes cluster state as Prometheus gauges. The
// teacher exposes service state through its own expvar-based
// server/vars package; here that concern is carried by
// prometheus/client_golang instead, since this module's home-grown
// stream-processing consumers of server/vars are out of scope and
// client_golang is the real dependency otherwise left unused (see
// DESIGN.md).
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tiagodeliberali/logstreamer/internal/storage"
)

// StatsProvider is the narrow slice of *broker.Broker this package
// depends on. Defining it locally (instead of importing broker)
// keeps metrics from needing to know anything about dispatch,
// detection, or the wire protocol.
type StatsProvider interface {
	Stats() []storage.TopicStats
}

// Collector adapts a StatsProvider's point-in-time snapshot to the
// prometheus.Collector interface, following the pull model: Collect
// is only ever called by a scrape, so no background goroutine or
// polling interval is needed.
type Collector struct {
	provider StatsProvider

	partitionRecords *prometheus.Desc
}

// NewCollector builds a Collector over provider.
func NewCollector(provider StatsProvider) *Collector {
	return &Collector{
		provider: provider,
		partitionRecords: prometheus.NewDesc(
			"logstreamer_partition_records",
			"Number of records currently stored in a partition.",
			[]string{"topic", "partition"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.partitionRecords
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, topic := range c.provider.Stats() {
		for i, length := range topic.PartitionLengths {
			ch <- prometheus.MustNewConstMetric(
				c.partitionRecords,
				prometheus.GaugeValue,
				float64(length),
				topic.Name,
				strconv.Itoa(i),
			)
		}
	}
}

// Server exposes a Collector on /metrics over plain HTTP, shaped
// after the teacher's services/httpd.Service lifecycle (Open starts
// serving in the background, Close shuts the listener down).
type Server struct {
	addr   string
	server *http.Server
}

// NewServer registers collector against a fresh registry and builds a
// Server bound to addr once Open is called.
func NewServer(addr string, collector prometheus.Collector) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &Server{
		addr:   addr,
		server: &http.Server{Addr: addr, Handler: mux},
	}
}

// Open starts serving in the background. Bind failures are reported
// on errCh rather than returned, since ListenAndServe blocks.
func (s *Server) Open(errCh chan<- error) {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- err:
			default:
			}
		}
	}()
}

// Close gracefully shuts the metrics server down.
func (s *Server) Close(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
