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

// Clock abstracts the hardware clock the client disciplines.
// Step semantics are assumed: the offset is applied at once, not slewed.
type Clock interface {
	// Time reads the current clock value
	Time() (time.Time, error)
	// Step adjusts the clock by the given signed offset
	Step(offset time.Duration) error
}

// RateAdjuster is an optional capability of a Clock: continuous frequency
// compensation in signed parts-per-2**32. Discovered by type assertion,
// clocks without it are only stepped and the drift estimate stays
// diagnostics-only.
type RateAdjuster interface {
	AdjustRate(driftQ32 int32) error
}

// FreeRunClock never touches the underlying clock. It is used in free
// running mode, where we want all the measurements and none of the
// consequences.
type FreeRunClock struct{}

// Time implements Clock
func (FreeRunClock) Time() (time.Time, error) {
	return time.Now(), nil
}

// Step implements Clock, logging the step it doesn't apply
func (FreeRunClock) Step(offset time.Duration) error {
	log.Infof("free running, would step clock by %v", offset)
	return nil
}
