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

package phc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFDToClockID(t *testing.T) {
	assert.Equal(t, int32(-29), FDToClockID(3))
	assert.Equal(t, int32(-37), FDToClockID(4))
}

func TestQ32ToPPB(t *testing.T) {
	assert.InDelta(t, 0.0, Q32ToPPB(0), 0.0001)
	// ~10000 ppm guard value from the drift filter
	assert.InDelta(t, 1e7, Q32ToPPB(42949673), 1.0)
	assert.InDelta(t, -1e7, Q32ToPPB(-42949673), 1.0)
}

func TestPPBToQ32(t *testing.T) {
	assert.Equal(t, int32(0), PPBToQ32(0))
	assert.Equal(t, int32(42949672), PPBToQ32(1e7))
	// round trip is stable within rounding error
	assert.InDelta(t, 12345.0, Q32ToPPB(PPBToQ32(12345.0)), 1.0)
}
