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
	"time"

	"golang.org/x/sys/unix"
)

// PPBToTimexPPM is what we use to convert PPB to timex PPM.
// man clock_adjtime(2):
// In struct timex, freq, ppsfreq, and stabil are ppm (parts per million)
// with a 16-bit fractional part, so 2^16=65536 is 1 ppm.
const PPBToTimexPPM = 65.536

// clock_adjtime modes from usr/include/linux/timex.h
const (
	adjFrequency uint32 = 0x0002
	adjSetOffset uint32 = 0x0100
	adjNano      uint32 = 0x2000
)

// adjFreqPPB adjusts clock frequency in PPB
func adjFreqPPB(clockid int32, freqPPB float64) (state int, err error) {
	tx := &unix.Timex{}
	tx.Freq = int64(freqPPB * PPBToTimexPPM)
	tx.Modes = adjFrequency
	return unix.ClockAdjtime(clockid, tx)
}

// step steps the clock by given offset
func step(clockid int32, offset time.Duration) (state int, err error) {
	sign := 1
	if offset < 0 {
		sign = -1
		offset = -offset
	}
	tx := &unix.Timex{}
	tx.Modes = adjSetOffset | adjNano
	tx.Time.Sec = int64(sign) * int64(offset/time.Second)
	// with adjNano the Usec field carries nanoseconds
	tx.Time.Usec = int64(sign) * int64(offset%time.Second)
	/*
	 * The value of a timeval is the sum of its fields, but the
	 * field tv_usec must always be non-negative.
	 */
	if tx.Time.Usec < 0 {
		tx.Time.Sec--
		tx.Time.Usec += 1000000000
	}
	return unix.ClockAdjtime(clockid, tx)
}

// maxFreqPPB returns maximum frequency adjustment supported by the clock
func maxFreqPPB(clockid int32) (freqPPB float64, state int, err error) {
	tx := &unix.Timex{}
	state, err = unix.ClockAdjtime(clockid, tx)
	if err != nil {
		return 0.0, state, err
	}
	freqPPB = float64(tx.Tolerance) / PPBToTimexPPM
	if freqPPB == 0 {
		freqPPB = 500000
	}
	return freqPPB, state, nil
}
