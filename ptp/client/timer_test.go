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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultJitterBounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		j := defaultJitter()
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, time.Duration(jitterRange)*time.Microsecond)
	}
}

func TestEventTimerFires(t *testing.T) {
	e := newEventTimer()
	e.jitter = func() time.Duration { return 0 }
	e.arm(10 * time.Millisecond)
	select {
	case <-e.C:
	case <-time.After(time.Second):
		require.Fail(t, "timer did not fire")
	}
}

// arming replaces the pending expiration, there is never more than one
func TestEventTimerRearm(t *testing.T) {
	e := newEventTimer()
	e.jitter = func() time.Duration { return 0 }
	e.arm(5 * time.Millisecond)
	e.arm(30 * time.Millisecond)
	fired := 0
	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case <-e.C:
			fired++
		case <-deadline:
			assert.Equal(t, 1, fired)
			return
		}
	}
}

// stop is idempotent and cancels the pending expiration
func TestEventTimerStop(t *testing.T) {
	e := newEventTimer()
	e.jitter = func() time.Duration { return 0 }
	e.arm(5 * time.Millisecond)
	e.stop()
	e.stop()
	select {
	case <-e.C:
		require.Fail(t, "timer fired after stop")
	case <-time.After(50 * time.Millisecond):
	}
}
