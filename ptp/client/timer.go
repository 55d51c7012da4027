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
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

// jitterRange bounds the random offset added to every timer arm:
// [0, 2**20) microseconds, roughly up to a second. Many clients sharing a
// server must not synchronize their delay requests and overload it.
const jitterRange = 1 << 20

// eventTimer is the single timer driving the client's scheduling. Arming it
// replaces any pending expiration, so duplicate expirations are impossible.
// Only the event loop goroutine may call its methods, it is the sole reader
// of C.
type eventTimer struct {
	// C delivers expirations
	C      <-chan time.Time
	t      *time.Timer
	jitter func() time.Duration
}

func defaultJitter() time.Duration {
	return time.Duration(rand.Uint32()%jitterRange) * time.Microsecond //#nosec G404
}

func newEventTimer() *eventTimer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return &eventTimer{C: t.C, t: t, jitter: defaultJitter}
}

// arm schedules the next expiration after interval plus pseudorandom jitter,
// cancelling any pending one
func (e *eventTimer) arm(interval time.Duration) {
	e.stop()
	interval += e.jitter()
	log.Debugf("next timeout in %v", interval)
	e.t.Reset(interval)
}

// stop cancels the pending expiration, if any. Idempotent.
func (e *eventTimer) stop() {
	if !e.t.Stop() {
		select {
		case <-e.t.C:
		default:
		}
	}
}
