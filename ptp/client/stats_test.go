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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsCounters(t *testing.T) {
	s := NewStats()
	s.UpdateCounterBy(CounterRXSync, 1)
	s.UpdateCounterBy(CounterRXSync, 2)
	s.UpdateCounterBy(CounterRTTRejected, 1)

	counters := s.GetCounters()
	assert.Equal(t, int64(3), counters[CounterRXSync])
	assert.Equal(t, int64(1), counters[CounterRTTRejected])

	// snapshot is a copy
	counters[CounterRXSync] = 100
	assert.Equal(t, int64(3), s.GetCounters()[CounterRXSync])
}

func TestStatsAggregates(t *testing.T) {
	s := NewStats()
	for _, v := range []float64{100, 200, 300} {
		s.AddOffsetSample(v)
	}
	offset := s.OffsetStat()
	assert.Equal(t, uint64(3), offset.Count)
	assert.InDelta(t, 200.0, offset.Mean, 0.001)

	s.AddRTTSample(40000)
	s.AddRTTSample(50000)
	rtt := s.RTTStat()
	assert.Equal(t, uint64(2), rtt.Count)
	assert.InDelta(t, 45000.0, rtt.Mean, 0.001)
}
