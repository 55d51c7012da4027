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

// Package phc gives access to the PTP hardware clock (PHC) of a network
// card: reading it, stepping it and adjusting its frequency. This is the
// clock the PTP client disciplines against the grandmaster.
package phc

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// IfaceToPHCDevice returns path to the PHC device associated with given network card iface
func IfaceToPHCDevice(iface string) (string, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return "", fmt.Errorf("failed to create socket for ioctl: %w", err)
	}
	defer unix.Close(fd)
	info, err := unix.IoctlGetEthtoolTsInfo(fd, iface)
	if err != nil {
		return "", fmt.Errorf("getting interface %s info: %w", iface, err)
	}
	if info.Phc_index < 0 {
		return "", fmt.Errorf("%s: no PHC support", iface)
	}
	return fmt.Sprintf("/dev/ptp%d", info.Phc_index), nil
}

// FDToClockID converts a file descriptor number to a clockID.
// see man(3) clock_gettime, FD_TO_CLOCKID macro
func FDToClockID(fd uintptr) int32 {
	return int32((int(^fd) << 3) | 3)
}

// Device wraps a PHC device file and implements the clock operations the
// PTP client needs
type Device struct {
	f *os.File
}

// FromFile returns a Device wrapping an open PHC device file
func FromFile(f *os.File) *Device {
	return &Device{f: f}
}

// Open returns a Device for the PHC of the given network interface
func Open(iface string) (*Device, error) {
	device, err := IfaceToPHCDevice(iface)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return FromFile(f), nil
}

// ClockID returns the clock id of the device
func (d *Device) ClockID() int32 {
	return FDToClockID(d.f.Fd())
}

// Time reads the current PHC time
func (d *Device) Time() (time.Time, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(d.ClockID(), &ts); err != nil {
		return time.Time{}, fmt.Errorf("reading clock %q: %w", d.f.Name(), err)
	}
	return time.Unix(ts.Sec, ts.Nsec), nil
}

// Step steps the clock by given offset
func (d *Device) Step(offset time.Duration) error {
	state, err := step(d.ClockID(), offset)
	if err == nil && state != unix.TIME_OK {
		return fmt.Errorf("clock %q state %d is not TIME_OK", d.f.Name(), state)
	}
	return err
}

// AdjustRate adjusts the clock frequency, expressed as signed
// parts-per-2**32: driftQ32 / 2**32 is the fractional frequency error
func (d *Device) AdjustRate(driftQ32 int32) error {
	state, err := adjFreqPPB(d.ClockID(), Q32ToPPB(driftQ32))
	if err == nil && state != unix.TIME_OK {
		return fmt.Errorf("clock %q state %d is not TIME_OK", d.f.Name(), state)
	}
	return err
}

// MaxFreqPPB returns the maximum frequency adjustment the clock supports
func (d *Device) MaxFreqPPB() (float64, error) {
	freqPPB, _, err := maxFreqPPB(d.ClockID())
	return freqPPB, err
}

// Close the underlying device file
func (d *Device) Close() error {
	return d.f.Close()
}

// Q32ToPPB converts a parts-per-2**32 rate adjustment to parts per billion
func Q32ToPPB(driftQ32 int32) float64 {
	return float64(driftQ32) * 1e9 / (1 << 32)
}

// PPBToQ32 converts parts per billion to a parts-per-2**32 rate adjustment
func PPBToQ32(freqPPB float64) int32 {
	return int32(freqPPB * (1 << 32) / 1e9)
}
