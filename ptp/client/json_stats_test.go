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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStatsSnapshot(t *testing.T) {
	clock := &fakeRateClock{}
	c := testClient(clock)
	stats := c.stats.(*Stats)
	js := NewJSONStats(c, stats)

	c.handleAnnounce(announcePkt(serverA, 5, 37))
	c.rtt.Store(50000)
	c.drift.Store(429)

	snap := js.Snapshot()
	assert.Equal(t, serverA.String(), snap.ServerClockID)
	assert.Equal(t, "IDLE", snap.Phase)
	assert.Equal(t, uint32(50000), snap.RTTNS)
	assert.Equal(t, uint16(37), snap.UTCOffsetS)
	assert.Equal(t, int32(429), snap.DriftQ32)
	assert.InDelta(t, 99.9, snap.DriftPPB, 0.5)
}

func TestJSONStatsHandlers(t *testing.T) {
	clock := &fakeRateClock{}
	c := testClient(clock)
	stats := c.stats.(*Stats)
	stats.UpdateCounterBy(CounterRXAnnounce, 2)
	js := NewJSONStats(c, stats)

	w := httptest.NewRecorder()
	js.handleRootRequest(w, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, 200, w.Code)
	snap := &Snapshot{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), snap))
	assert.Equal(t, "IDLE", snap.Phase)

	w = httptest.NewRecorder()
	js.handleCountersRequest(w, httptest.NewRequest("GET", "/counters", nil))
	require.Equal(t, 200, w.Code)
	counters := map[string]int64{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counters))
	assert.Equal(t, int64(2), counters[CounterRXAnnounce])
}
