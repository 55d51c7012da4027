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

package timestamp

import (
	"encoding/binary"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// unix.Cmsghdr size differs depending on platform
var socketControlMessageHeaderOffset = binary.Size(unix.Cmsghdr{})

var timestamping = unix.SO_TIMESTAMPING_NEW

func init() {
	// kernels older than 5 don't support unix.SO_TIMESTAMPING_NEW
	var uname unix.Utsname
	if err := unix.Uname(&uname); err == nil {
		if uname.Release[0] < '5' {
			timestamping = unix.SO_TIMESTAMPING
		}
	}
}

// byteToTime converts a little-endian __kernel_timespec into a timestamp
func byteToTime(data []byte) (time.Time, error) {
	if len(data) < 16 {
		return time.Time{}, fmt.Errorf("timespec is too short: %d bytes", len(data))
	}
	sec := int64(binary.LittleEndian.Uint64(data[0:8]))
	nsec := int64(binary.LittleEndian.Uint64(data[8:]))
	return time.Unix(sec, nsec), nil
}

/*
scmDataToTime parses the data of a SO_TIMESTAMPING control message into
time.Time. The structure carries up to three timestamps, only one of which
is non-zero at any time: software timestamps come in ts[0], hardware
timestamps in ts[2].
*/
func scmDataToTime(data []byte) (ts time.Time, err error) {
	// 2 x 64bit ints per timespec
	size := 16
	if len(data) < size*3 {
		return ts, fmt.Errorf("timestamp control message is too short: %d bytes", len(data))
	}
	// hardware timestamp first
	ts, err = byteToTime(data[size*2 : size*3])
	if err != nil {
		return ts, err
	}
	if ts.UnixNano() != 0 {
		return ts, nil
	}
	// fall back to the software timestamp
	ts, err = byteToTime(data[0:size])
	if err != nil {
		return ts, err
	}
	if ts.UnixNano() == 0 {
		return ts, fmt.Errorf("got zero timestamp")
	}
	return ts, nil
}

// socketControlMessageTimestamp picks the timestamp message out of a stream
// of socket control messages
func socketControlMessageTimestamp(b []byte) (time.Time, error) {
	mlen := 0
	for i := 0; i+socketControlMessageHeaderOffset <= len(b); i += mlen {
		h := (*unix.Cmsghdr)(unsafe.Pointer(&b[i]))
		mlen = int(h.Len)
		if mlen == 0 {
			break
		}
		if h.Level == unix.SOL_SOCKET && (int(h.Type) == unix.SO_TIMESTAMPING_NEW || int(h.Type) == unix.SO_TIMESTAMPING) {
			return scmDataToTime(b[i+socketControlMessageHeaderOffset : i+mlen])
		}
	}
	return time.Time{}, fmt.Errorf("no timestamp found in socket control messages")
}

func ioctlHWTstamp(fd int, ifname string, filter int32) error {
	hw := &hwtstampConfig{
		flags:    0,
		txType:   hwtstampTXON,
		rxFilter: filter,
	}
	i := &ifreq{data: uintptr(unsafe.Pointer(hw))}
	copy(i.name[:unix.IFNAMSIZ-1], ifname)

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.SIOCSHWTSTAMP, uintptr(unsafe.Pointer(i))); errno != 0 {
		return fmt.Errorf("ioctl SIOCSHWTSTAMP failed: %s (%d)", unix.ErrnoName(errno), errno)
	}
	return nil
}

// EnableHWTimestamps enables hardware TX and RX timestamps on the socket
func EnableHWTimestamps(connFd int, iface string) error {
	if err := ioctlHWTstamp(connFd, iface, hwtstampFilterAll); err != nil {
		// some NICs only support timestamping PTP packets
		if err := ioctlHWTstamp(connFd, iface, hwtstampFilterPTPv2Event); err != nil {
			return err
		}
	}

	flags := unix.SOF_TIMESTAMPING_TX_HARDWARE |
		unix.SOF_TIMESTAMPING_RX_HARDWARE |
		unix.SOF_TIMESTAMPING_RAW_HARDWARE |
		unix.SOF_TIMESTAMPING_OPT_TSONLY
	if err := unix.SetsockoptInt(connFd, unix.SOL_SOCKET, timestamping, flags); err != nil {
		return err
	}
	return unix.SetsockoptInt(connFd, unix.SOL_SOCKET, unix.SO_SELECT_ERR_QUEUE, 1)
}

// EnableSWTimestamps enables software TX and RX timestamps on the socket
func EnableSWTimestamps(connFd int) error {
	flags := unix.SOF_TIMESTAMPING_TX_SOFTWARE |
		unix.SOF_TIMESTAMPING_RX_SOFTWARE |
		unix.SOF_TIMESTAMPING_SOFTWARE |
		unix.SOF_TIMESTAMPING_OPT_TSONLY
	if err := unix.SetsockoptInt(connFd, unix.SOL_SOCKET, timestamping, flags); err != nil {
		return err
	}
	return unix.SetsockoptInt(connFd, unix.SOL_SOCKET, unix.SO_SELECT_ERR_QUEUE, 1)
}

func waitForTXTS(connFd int) error {
	fds := []unix.PollFd{{Fd: int32(connFd), Events: unix.POLLPRI, Revents: 0}}
	// 1ms timeout
	_, err := unix.Poll(fds, 1)
	return err
}

// recvErrQueue receives only the control message part of an MSG_ERRQUEUE
// entry, which is where TX timestamps are delivered
func recvErrQueue(connFd int, oob []byte) (oobn int, err error) {
	var msg unix.Msghdr
	msg.Control = &oob[0]
	msg.SetControllen(len(oob))
	_, _, e1 := unix.Syscall(unix.SYS_RECVMSG, uintptr(connFd), uintptr(unsafe.Pointer(&msg)), uintptr(unix.MSG_ERRQUEUE))
	if e1 != 0 {
		return 0, e1
	}
	return int(msg.Controllen), nil
}

// ReadTXtimestampBuf returns the TX timestamp of the last sent packet.
// The error queue may hold more than one timestamp, it is drained completely
// and the newest entry wins, otherwise a stale timestamp would be matched
// with the next packet. Both buffers can be reused after the call returns.
func ReadTXtimestampBuf(connFd int, oob, toob []byte) (time.Time, int, error) {
	var boob int
	txfound := false

	attempts := 0
	for ; attempts < maxTXTS; attempts++ {
		if !txfound {
			_ = waitForTXTS(connFd)
		}
		tboob, err := recvErrQueue(connFd, toob)
		if err != nil {
			if txfound {
				// queue is drained and we have a valid timestamp
				break
			}
			continue
		}
		txfound = true
		boob = tboob
		copy(oob, toob)
	}

	if !txfound {
		return time.Time{}, attempts, fmt.Errorf("no TX timestamp found after %d tries", maxTXTS)
	}
	ts, err := socketControlMessageTimestamp(oob[:boob])
	return ts, attempts, err
}

// ReadTXtimestamp returns the TX timestamp of the last sent packet
func ReadTXtimestamp(connFd int) (time.Time, int, error) {
	oob := make([]byte, ControlSizeBytes)
	toob := make([]byte, ControlSizeBytes)
	return ReadTXtimestampBuf(connFd, oob, toob)
}
