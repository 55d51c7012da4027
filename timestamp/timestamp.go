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

// Package timestamp provides hardware and software packet timestamping
// for UDP sockets. PTP synchronization needs the kernel (or better, the
// NIC) to tell us when exactly a packet hit the wire, normal socket reads
// and writes are far too imprecise for that.
package timestamp

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// from include/uapi/linux/net_tstamp.h
const (
	// HWTSTAMP_TX_ON
	hwtstampTXON int32 = 0x00000001
	// HWTSTAMP_FILTER_ALL
	hwtstampFilterAll int32 = 0x00000001
	// HWTSTAMP_FILTER_PTP_V2_EVENT
	hwtstampFilterPTPv2Event int32 = 0x0000000c
)

const (
	// ControlSizeBytes is the size of the buffer control messages are read into.
	// If a read fails we may end up with multiple timestamps queued up,
	// they all must fit.
	ControlSizeBytes = 128
	// PayloadSizeBytes fits any PTP message we expect, the largest (Announce) is 64 bytes
	PayloadSizeBytes = 128
	// how many times we drain the error queue looking for a TX timestamp
	maxTXTS = 100
)

const (
	// HWTIMESTAMP is a hardware timestamp
	HWTIMESTAMP = "hardware"
	// SWTIMESTAMP is a software timestamp
	SWTIMESTAMP = "software"
)

// ifreq is a struct for ioctl ethernet manipulation syscalls
type ifreq struct {
	name [unix.IFNAMSIZ]byte
	data uintptr
}

// from include/uapi/linux/net_tstamp.h
type hwtstampConfig struct {
	flags    int32
	txType   int32
	rxFilter int32
}

// ConnFd returns the file descriptor of a connection
func ConnFd(conn *net.UDPConn) (int, error) {
	sc, err := conn.SyscallConn()
	if err != nil {
		return -1, err
	}
	var intfd int
	err = sc.Control(func(fd uintptr) {
		intfd = int(fd)
	})
	if err != nil {
		return -1, err
	}
	return intfd, nil
}

// ReadPacketWithRXTimestamp returns a received packet and its RX timestamp.
// A zero timestamp means the kernel delivered no timestamp for this packet.
func ReadPacketWithRXTimestamp(connFd int) ([]byte, unix.Sockaddr, time.Time, error) {
	buf := make([]byte, PayloadSizeBytes)
	oob := make([]byte, ControlSizeBytes)

	n, sa, ts, err := ReadPacketWithRXTimestampBuf(connFd, buf, oob)
	return buf[:n], sa, ts, err
}

// ReadPacketWithRXTimestampBuf reads a packet into buf and returns the number
// of bytes read, the sender address and the RX timestamp. The oob buffer can
// be reused after the call returns.
func ReadPacketWithRXTimestampBuf(connFd int, buf, oob []byte) (int, unix.Sockaddr, time.Time, error) {
	n, oobn, _, saddr, err := unix.Recvmsg(connFd, buf, oob, 0)
	if err != nil {
		return 0, nil, time.Time{}, fmt.Errorf("receiving packet: %w", err)
	}
	ts, err := socketControlMessageTimestamp(oob[:oobn])
	return n, saddr, ts, err
}

// SockaddrToIP converts a socket address to an IP
func SockaddrToIP(sa unix.Sockaddr) net.IP {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return sa.Addr[0:]
	case *unix.SockaddrInet6:
		return sa.Addr[0:]
	}
	return nil
}
