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
	"sync"

	"github.com/eclesh/welford"
)

// Well known counter keys
const (
	CounterRXSync          = "ptp.rx.sync"
	CounterRXFollowUp      = "ptp.rx.follow_up"
	CounterRXDelayResp     = "ptp.rx.delay_resp"
	CounterRXAnnounce      = "ptp.rx.announce"
	CounterRXIgnored       = "ptp.rx.ignored"
	CounterRXNoTimestamp   = "ptp.rx.no_timestamp"
	CounterRXParseErrors   = "ptp.rx.parse_errors"
	CounterTXDelayReq      = "ptp.tx.delay_req"
	CounterTXNoTimestamp   = "ptp.tx.no_timestamp"
	CounterTXErrors        = "ptp.tx.errors"
	CounterRTTRejected     = "ptp.filters.rtt_rejected"
	CounterDriftRejected   = "ptp.filters.drift_rejected"
	CounterServerSwitches  = "ptp.server.switches"
	CounterClockSteps      = "ptp.clock.steps"
	CounterClockStepErrors = "ptp.clock.step_errors"
)

// StatsServer is what the client needs to report its activity
type StatsServer interface {
	UpdateCounterBy(key string, count int64)
	AddOffsetSample(offsetNS float64)
	AddRTTSample(rttNS float64)
}

// AggregateStat is a streaming summary of a measurement series
type AggregateStat struct {
	Count  uint64  `json:"count"`
	Mean   float64 `json:"mean"`
	Stddev float64 `json:"stddev"`
}

// Stats tracks counters and streaming aggregates of the measurements.
// Safe for concurrent use.
type Stats struct {
	mux         sync.Mutex
	counters    map[string]int64
	offset      *welford.Stats
	offsetCount uint64
	rtt         *welford.Stats
	rttCount    uint64
}

// NewStats creates a new instance of Stats
func NewStats() *Stats {
	return &Stats{
		counters: map[string]int64{},
		offset:   welford.New(),
		rtt:      welford.New(),
	}
}

// UpdateCounterBy increments a counter
func (s *Stats) UpdateCounterBy(key string, count int64) {
	s.mux.Lock()
	s.counters[key] += count
	s.mux.Unlock()
}

// GetCounters returns a snapshot of all the counters
func (s *Stats) GetCounters() map[string]int64 {
	ret := make(map[string]int64)
	s.mux.Lock()
	for key, val := range s.counters {
		ret[key] = val
	}
	s.mux.Unlock()
	return ret
}

// AddOffsetSample feeds a measured clock offset into the aggregates
func (s *Stats) AddOffsetSample(offsetNS float64) {
	s.mux.Lock()
	s.offset.Add(offsetNS)
	s.offsetCount++
	s.mux.Unlock()
}

// AddRTTSample feeds an accepted round trip measurement into the aggregates
func (s *Stats) AddRTTSample(rttNS float64) {
	s.mux.Lock()
	s.rtt.Add(rttNS)
	s.rttCount++
	s.mux.Unlock()
}

// OffsetStat returns the streaming summary of measured clock offsets
func (s *Stats) OffsetStat() AggregateStat {
	s.mux.Lock()
	defer s.mux.Unlock()
	return AggregateStat{Count: s.offsetCount, Mean: s.offset.Mean(), Stddev: s.offset.Stddev()}
}

// RTTStat returns the streaming summary of accepted round trip measurements
func (s *Stats) RTTStat() AggregateStat {
	s.mux.Lock()
	defer s.mux.Unlock()
	return AggregateStat{Count: s.rttCount, Mean: s.rtt.Mean(), Stddev: s.rtt.Stddev()}
}
