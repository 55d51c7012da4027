/*
Copyright (c) The edgetime authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stats

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// PrometheusExporter re-exports the client's monitoring endpoint as
// prometheus gauges
type PrometheusExporter struct {
	registry   *prometheus.Registry
	listenPort int
	clientPort int
	interval   time.Duration
}

// NewPrometheusExporter creates a new instance of PrometheusExporter
func NewPrometheusExporter(listenPort int, clientPort int, scrapeInterval time.Duration) *PrometheusExporter {
	return &PrometheusExporter{
		registry:   prometheus.NewRegistry(),
		interval:   scrapeInterval,
		listenPort: listenPort,
		clientPort: clientPort,
	}
}

// Start runs the exporter, blocking forever
func (e *PrometheusExporter) Start() {
	go func() {
		for {
			e.scrapeMetrics()
			time.Sleep(e.interval)
		}
	}()

	http.Handle("/metrics", promhttp.HandlerFor(
		e.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", e.listenPort), nil)) //#nosec G114
}

func (e *PrometheusExporter) setGauge(name, help string, value float64) {
	promCollector := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: flattenKey(name),
		Help: help,
	})
	if err := e.registry.Register(promCollector); err != nil {
		are := &prometheus.AlreadyRegisteredError{}
		if errors.As(err, are) {
			promCollector = are.ExistingCollector.(prometheus.Gauge)
		} else {
			log.Errorf("failed to register metric %s: %v", name, err)
			return
		}
	}
	promCollector.Set(value)
}

func (e *PrometheusExporter) scrapeMetrics() {
	url := fmt.Sprintf("http://localhost:%d", e.clientPort)
	counters, err := FetchCounters(url)
	if err != nil {
		log.Errorf("failed to fetch ptp client counters: %v", err)
		return
	}
	for mkey, mval := range counters {
		e.setGauge(mkey, mkey, float64(mval))
	}

	snapshot, err := FetchSnapshot(url)
	if err != nil {
		log.Errorf("failed to fetch ptp client snapshot: %v", err)
		return
	}
	e.setGauge("ptp.rtt_ns", "smoothed round trip estimate in nanoseconds", float64(snapshot.RTTNS))
	e.setGauge("ptp.utc_offset_s", "UTC-TAI offset in seconds", float64(snapshot.UTCOffsetS))
	e.setGauge("ptp.drift_q32", "accumulated drift estimate in parts-per-2**32", float64(snapshot.DriftQ32))
	e.setGauge("ptp.drift_ppb", "accumulated drift estimate in parts per billion", snapshot.DriftPPB)
	e.setGauge("ptp.offset_mean_ns", "mean of measured clock offsets", snapshot.Offset.Mean)
	e.setGauge("ptp.offset_stddev_ns", "stddev of measured clock offsets", snapshot.Offset.Stddev)
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "=", "_")
	key = strings.ReplaceAll(key, "/", "_")
	return key
}
