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

package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/edgetime/edgetime/phc"
)

// Snapshot is the client's observable state at one point in time
type Snapshot struct {
	ClockID       string        `json:"clock_id"`
	ServerClockID string        `json:"server_clock_id"`
	Phase         string        `json:"phase"`
	RTTNS         uint32        `json:"rtt_ns"`
	UTCOffsetS    uint16        `json:"utc_offset_s"`
	DriftQ32      int32         `json:"drift_q32"`
	DriftPPB      float64       `json:"drift_ppb"`
	Offset        AggregateStat `json:"offset"`
	RTT           AggregateStat `json:"rtt"`
}

// JSONStats serves the client's state and counters over HTTP for external
// inspection, both human and machine
type JSONStats struct {
	client *Client
	stats  *Stats
}

// NewJSONStats returns a new JSONStats
func NewJSONStats(client *Client, stats *Stats) *JSONStats {
	return &JSONStats{client: client, stats: stats}
}

// Snapshot returns the current observable state of the client
func (s *JSONStats) Snapshot() *Snapshot {
	driftQ32 := s.client.ClockDrift()
	return &Snapshot{
		ClockID:       s.client.ClockID().String(),
		ServerClockID: s.client.ServerClockID().String(),
		Phase:         s.client.Phase(),
		RTTNS:         s.client.RTT(),
		UTCOffsetS:    s.client.UTCOffset(),
		DriftQ32:      driftQ32,
		DriftPPB:      phc.Q32ToPPB(driftQ32),
		Offset:        s.stats.OffsetStat(),
		RTT:           s.stats.RTTStat(),
	}
}

func (s *JSONStats) handleRootRequest(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Snapshot()); err != nil {
		http.Error(w, "failed to encode snapshot", http.StatusInternalServerError)
	}
}

func (s *JSONStats) handleCountersRequest(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.stats.GetCounters()); err != nil {
		http.Error(w, "failed to encode counters", http.StatusInternalServerError)
	}
}

// Start runs the monitoring HTTP server, blocking forever
func (s *JSONStats) Start(monitoringPort int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRootRequest)
	mux.HandleFunc("/counters", s.handleCountersRequest)
	addr := fmt.Sprintf(":%d", monitoringPort)
	log.Infof("monitoring server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux)) //#nosec G114
}
