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
	"time"

	log "github.com/sirupsen/logrus"
)

// adjustTime steps the clock by the offset between the server's time and
// ours, assuming the network delay is symmetric, and refreshes the drift
// estimate from the offset accumulated since the previous synchronization
// point.
func (c *Client) adjustTime(serverTime, localTime time.Time) {
	offset := serverTime.Sub(localTime) + time.Duration(c.rtt.Load()/2)
	if err := c.clock.Step(offset); err != nil {
		log.Errorf("stepping clock by %v: %v", offset, err)
		c.stats.UpdateCounterBy(CounterClockStepErrors, 1)
	} else {
		log.Debugf("adjusted time by %v", offset)
		c.stats.UpdateCounterBy(CounterClockSteps, 1)
	}
	c.stats.AddOffsetSample(float64(offset.Nanoseconds()))

	if !c.lastServerTime.IsZero() {
		interval := serverTime.Sub(c.lastServerTime)
		if interval > 0 {
			log.Debugf("clock drifted by %v during %v", offset, interval)
			drift := (offset.Nanoseconds() << 32) / interval.Nanoseconds()
			// Smooth out jumps in clock drift compensation to avoid
			// overshooting by reducing steps. But do the big jump right away
			// on boot, to reduce settling time.
			if prev := c.drift.Load(); prev != 0 {
				drift = drift/8 + int64(prev)
			}
			limit := int64(c.cfg.DriftPlausibilityLimitQ32)
			if drift < -limit || drift > limit {
				log.Debugf("estimated clock drift of %d not plausible, resetting it", drift)
				c.stats.UpdateCounterBy(CounterDriftRejected, 1)
				drift = 0
			}
			c.drift.Store(int32(drift))
			if ra, ok := c.clock.(RateAdjuster); ok {
				if err := ra.AdjustRate(int32(drift)); err != nil {
					log.Errorf("adjusting clock rate: %v", err)
				}
			}
		}
	}
	c.lastServerTime = serverTime
}

// adjustRTT folds a finished delay request exchange into the smoothed round
// trip estimate. sent carries the half-RTT compensation the clock had at TX
// time, it is undone before comparing with the server's receive timestamp.
func (c *Client) adjustRTT(sent, received time.Time) {
	sent = sent.Add(-time.Duration(c.rtt.Load() / 2))
	raw := received.Sub(sent)
	if raw < 0 || raw > c.cfg.RTTPlausibilityLimit {
		log.Debugf("RTT estimation of %v not plausible, resetting it", raw)
		c.stats.UpdateCounterBy(CounterRTTRejected, 1)
		c.rtt.Store(0)
	} else {
		// Reduce jumps in RTT estimation by averaging in the old estimation, if any
		if prev := c.rtt.Load(); prev != 0 {
			raw = (3*time.Duration(prev) + raw) / 4
		}
		c.rtt.Store(uint32(raw.Nanoseconds())) //#nosec G115
		c.stats.AddRTTSample(float64(raw.Nanoseconds()))
	}
	// do not estimate clock drift across an RTT change
	c.lastServerTime = time.Time{}
}
