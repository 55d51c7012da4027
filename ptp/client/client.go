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

// Package client implements a multicast PTPv2 client for edge devices.
//
// The client listens on the primary PTP IPv6 multicast group ff0e::181 and
// synchronizes the local hardware clock to the grandmaster with the best
// (numerically lowest) priority1. The full "best master clock" algorithm is
// not implemented: only priority1 of the announce messages is evaluated,
// with a periodic aging scheme so that a silent server is eventually
// replaced by a backup. Servers should therefore announce at least every
// ten seconds, and operators must keep priority1 values distinct.
//
// All client state is owned by a single event loop goroutine: packets from
// both UDP ports and timer expirations are serialized onto one queue, so no
// locking is needed. The few values exposed for external inspection are
// published through atomics.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/ipv6"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	ptp "github.com/edgetime/edgetime/ptp/protocol"
	"github.com/edgetime/edgetime/timestamp"
)

// re-export timestamping
const (
	// HWTIMESTAMP is a hardware timestamp
	HWTIMESTAMP = timestamp.HWTIMESTAMP
	// SWTIMESTAMP is a software timestamp
	SWTIMESTAMP = timestamp.SWTIMESTAMP
)

// PTPPrimaryMulticast is the primary PTP IPv6 multicast group
const PTPPrimaryMulticast = "ff0e::181"

// Errors returned from Start
var (
	// ErrNoInterface means no network interface with an IPv6 address was found
	ErrNoInterface = errors.New("no network interface with an IPv6 address")
	// ErrGroupJoinFailed means we couldn't join the PTP multicast group
	ErrGroupJoinFailed = errors.New("failed to join PTP multicast group")
	// ErrSocketCreateFailed means we couldn't create one of the UDP sockets
	ErrSocketCreateFailed = errors.New("failed to create UDP socket")
)

type phase int32

// Phases of the synchronization state machine
const (
	phaseIdle phase = iota
	phaseWaitFollowUp
	phaseWaitDelayResp
)

var phaseToString = map[phase]string{
	phaseIdle:          "IDLE",
	phaseWaitFollowUp:  "WAIT_FOR_FOLLOW_UP",
	phaseWaitDelayResp: "WAIT_FOR_DELAY_RESP",
}

func (p phase) String() string {
	return phaseToString[p]
}

// inPacket is input packet data + receive timestamp
type inPacket struct {
	data []byte
	ts   time.Time
}

// UDPConn describes what functionality we expect from UDP connection
type UDPConn interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	WriteTo(b []byte, addr net.Addr) (int, error)
	Close() error
}

// UDPConnWithTS describes what functionality we expect from UDP connection
// that allows us to read RX and TX timestamps
type UDPConnWithTS interface {
	// WriteToWithTS sends a packet and returns its TX timestamp. A zero
	// timestamp with nil error means the packet left but the kernel
	// delivered no timestamp for it.
	WriteToWithTS(b []byte, addr net.Addr) (int, time.Time, error)
	ReadPacketWithRXTimestamp() ([]byte, unix.Sockaddr, time.Time, error)
	Close() error
}

type udpConnTS struct {
	*net.UDPConn
	fd int
}

func (c *udpConnTS) WriteToWithTS(b []byte, addr net.Addr) (int, time.Time, error) {
	n, err := c.WriteTo(b, addr)
	if err != nil {
		return 0, time.Time{}, err
	}
	hwts, _, err := timestamp.ReadTXtimestamp(c.fd)
	if err != nil {
		log.Debugf("getting TX timestamp: %v", err)
		return n, time.Time{}, nil
	}
	return n, hwts, nil
}

func (c *udpConnTS) ReadPacketWithRXTimestamp() ([]byte, unix.Sockaddr, time.Time, error) {
	return timestamp.ReadPacketWithRXTimestamp(c.fd)
}

// Client is a PTPv2 multicast client. Create it with New, then Run it.
type Client struct {
	cfg   *Config
	clock Clock
	stats StatsServer

	// listening connection on port 319, with timestamping enabled
	eventConn UDPConnWithTS
	// listening connection on port 320
	genConn UDPConn
	// multicast group wrappers used to leave the group on Close
	p6event, p6gen *ipv6.PacketConn
	iface          *net.Interface
	// where delay requests go: the multicast group, event port
	groupAddr *net.UDPAddr

	// our clock identity, derived from the interface MAC address
	clockID ptp.ClockIdentity

	// chan for received packets regardless of port
	inChan chan *inPacket
	timer  *eventTimer

	// synchronization state, owned by the event loop
	selected        bool
	serverPrio      uint8
	lastSyncSeq     uint16
	lastDelayReqSeq uint16
	pendingTS       time.Time
	lastServerTime  time.Time

	// observables, written by the event loop, read from anywhere
	phase     atomic.Int32
	rtt       atomic.Uint32
	utcOffset atomic.Uint32
	drift     atomic.Int32
	serverID  atomic.Uint64
}

// New initializes a new PTP client disciplining the given clock
func New(cfg *Config, clock Clock, stats StatsServer) *Client {
	return &Client{
		cfg:        cfg,
		clock:      clock,
		stats:      stats,
		inChan:     make(chan *inPacket, 10),
		timer:      newEventTimer(),
		serverPrio: 255,
	}
}

// RTT returns the current smoothed round trip estimate in nanoseconds
func (c *Client) RTT() uint32 {
	return c.rtt.Load()
}

// UTCOffset returns the UTC-TAI offset in seconds learned from the server
func (c *Client) UTCOffset() uint16 {
	return uint16(c.utcOffset.Load()) //#nosec G115
}

// ClockDrift returns the accumulated drift estimate in parts-per-2**32
func (c *Client) ClockDrift() int32 {
	return c.drift.Load()
}

// ServerClockID returns the clock identity of the selected server,
// zero when no server is selected yet
func (c *Client) ServerClockID() ptp.ClockIdentity {
	return ptp.ClockIdentity(c.serverID.Load())
}

// ClockID returns our own clock identity
func (c *Client) ClockID() ptp.ClockIdentity {
	return c.clockID
}

// Phase returns the current state machine phase as a string
func (c *Client) Phase() string {
	return phase(c.phase.Load()).String()
}

func (c *Client) getPhase() phase {
	return phase(c.phase.Load())
}

func (c *Client) setPhase(p phase) {
	if prev := phase(c.phase.Load()); prev != p {
		log.Debugf("changing state %s -> %s", prev, p)
	}
	c.phase.Store(int32(p))
}

func (c *Client) isSelectedServer(sender ptp.ClockIdentity) bool {
	return c.selected && uint64(sender) == c.serverID.Load()
}

// couple of helpers to log nice lines about happening communication
func (c *Client) logSent(t ptp.MessageType, msg string, v ...interface{}) {
	log.Debugf(color.GreenString("client -> %s (%s)", t, fmt.Sprintf(msg, v...)))
}
func (c *Client) logReceive(t ptp.MessageType, msg string, v ...interface{}) {
	log.Debugf(color.BlueString("server -> %s (%s)", t, fmt.Sprintf(msg, v...)))
}

// findIPv6Interface returns the first usable network interface with an
// IPv6 address
func findIPv6Interface() (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInterface, err)
	}
	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() == nil && ipnet.IP.To16() != nil {
				return iface, nil
			}
		}
	}
	return nil, ErrNoInterface
}

// setup discovers the interface, derives the clock identity, creates both
// UDP sockets, joins the multicast group, enables packet timestamping and
// starts the receiver goroutines. Partially acquired resources are released
// on every failure path.
func (c *Client) setup(ctx context.Context, eg *errgroup.Group) error {
	var iface *net.Interface
	var err error
	if c.cfg.Iface != "" {
		iface, err = net.InterfaceByName(c.cfg.Iface)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoInterface, err)
		}
	} else {
		iface, err = findIPv6Interface()
		if err != nil {
			return err
		}
	}

	cid, err := ptp.NewClockIdentity(iface.HardwareAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoInterface, err)
	}
	c.clockID = cid
	c.iface = iface
	log.Infof("using ClockIdentity %s on interface %s", cid, iface.Name)

	group := net.ParseIP(PTPPrimaryMulticast)
	c.groupAddr = &net.UDPAddr{IP: group, Port: ptp.PortEvent}

	eventConn, err := net.ListenUDP("udp6", &net.UDPAddr{IP: net.IPv6unspecified, Port: ptp.PortEvent})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSocketCreateFailed, err)
	}
	genConn, err := net.ListenUDP("udp6", &net.UDPAddr{IP: net.IPv6unspecified, Port: ptp.PortGeneral})
	if err != nil {
		eventConn.Close()
		return fmt.Errorf("%w: %v", ErrSocketCreateFailed, err)
	}

	c.p6event = ipv6.NewPacketConn(eventConn)
	c.p6gen = ipv6.NewPacketConn(genConn)
	for _, p := range []*ipv6.PacketConn{c.p6event, c.p6gen} {
		if err := p.JoinGroup(iface, &net.UDPAddr{IP: group}); err != nil {
			eventConn.Close()
			genConn.Close()
			return fmt.Errorf("%w: %v", ErrGroupJoinFailed, err)
		}
	}

	connFd, err := timestamp.ConnFd(eventConn)
	if err != nil {
		eventConn.Close()
		genConn.Close()
		return fmt.Errorf("%w: %v", ErrSocketCreateFailed, err)
	}

	// we need HW or SW timestamps on the event port
	switch c.cfg.Timestamping {
	case "": // auto-detection
		if err := timestamp.EnableHWTimestamps(connFd, iface.Name); err != nil {
			if err := timestamp.EnableSWTimestamps(connFd); err != nil {
				eventConn.Close()
				genConn.Close()
				return fmt.Errorf("%w: enabling timestamps: %v", ErrSocketCreateFailed, err)
			}
			log.Warningf("failed to enable hardware timestamps on port %d, falling back to software timestamps", ptp.PortEvent)
		} else {
			log.Infof("using hardware timestamps")
		}
	case HWTIMESTAMP:
		if err := timestamp.EnableHWTimestamps(connFd, iface.Name); err != nil {
			eventConn.Close()
			genConn.Close()
			return fmt.Errorf("%w: enabling hardware timestamps: %v", ErrSocketCreateFailed, err)
		}
	case SWTIMESTAMP:
		if err := timestamp.EnableSWTimestamps(connFd); err != nil {
			eventConn.Close()
			genConn.Close()
			return fmt.Errorf("%w: enabling software timestamps: %v", ErrSocketCreateFailed, err)
		}
	}
	// set it to blocking mode, otherwise recvmsg will just return with nothing most of the time
	if err := unix.SetNonblock(connFd, false); err != nil {
		eventConn.Close()
		genConn.Close()
		return fmt.Errorf("%w: setting event socket to blocking: %v", ErrSocketCreateFailed, err)
	}

	c.eventConn = &udpConnTS{UDPConn: eventConn, fd: connFd}
	c.genConn = genConn

	// get packets from the event port, they come with RX timestamps
	eg.Go(func() error {
		doneChan := make(chan error, 1)
		go func() {
			for {
				b, addr, rxts, err := c.eventConn.ReadPacketWithRXTimestamp()
				if err != nil {
					if len(b) > 0 {
						// without an RX timestamp no synchronization is possible
						log.Errorf("no RX timestamp on port %d", ptp.PortEvent)
						c.stats.UpdateCounterBy(CounterRXNoTimestamp, 1)
						continue
					}
					doneChan <- err
					return
				}
				log.Debugf("got packet on port %d from %v", ptp.PortEvent, timestamp.SockaddrToIP(addr))
				c.inChan <- &inPacket{data: b, ts: rxts}
			}
		}()
		select {
		case <-ctx.Done():
			log.Debugf("cancelled event port receiver")
			return ctx.Err()
		case err := <-doneChan:
			return err
		}
	})
	// get packets from the general port
	eg.Go(func() error {
		doneChan := make(chan error, 1)
		go func() {
			for {
				response := make([]uint8, timestamp.PayloadSizeBytes)
				n, addr, err := c.genConn.ReadFromUDP(response)
				if err != nil {
					doneChan <- err
					return
				}
				log.Debugf("got packet on port %d from %v", ptp.PortGeneral, addr)
				c.inChan <- &inPacket{data: response[:n]}
			}
		}()
		select {
		case <-ctx.Done():
			log.Debugf("cancelled general port receiver")
			return ctx.Err()
		case err := <-doneChan:
			return err
		}
	})
	return nil
}

// Run starts the client and blocks until the context is cancelled or a
// receiver fails
func (c *Client) Run(ctx context.Context) error {
	return c.runInternal(ctx, false)
}

// runInternal allows us to skip setup for unittests
func (c *Client) runInternal(ctx context.Context, skipSetup bool) error {
	eg, ctx := errgroup.WithContext(ctx)
	if !skipSetup {
		if err := c.setup(ctx, eg); err != nil {
			return err
		}
		defer c.Close()
	}

	// the event loop: the only goroutine that mutates client state
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				log.Debugf("cancelled event loop")
				return ctx.Err()
			case msg := <-c.inChan:
				c.handleMsg(msg)
			case <-c.timer.C:
				c.handleTimer()
			}
		}
	})
	return eg.Wait()
}

// handleMsg decodes a datagram and dispatches it. Anything malformed or
// irrelevant is dropped here, the client never dies because of what arrives
// from the network.
func (c *Client) handleMsg(msg *inPacket) {
	packet, err := ptp.DecodePacket(msg.data)
	if err != nil {
		if errors.Is(err, ptp.ErrUnsupportedMsgType) {
			log.Debugf("ignoring message: %v", err)
			c.stats.UpdateCounterBy(CounterRXIgnored, 1)
		} else {
			log.Debugf("malformed message: %v", err)
			c.stats.UpdateCounterBy(CounterRXParseErrors, 1)
		}
		return
	}
	switch p := packet.(type) {
	case *ptp.SyncDelayReq:
		if p.MessageType() == ptp.MessageSync {
			c.handleSync(p, msg.ts)
			return
		}
		// delay requests of other clients on the multicast group
		c.stats.UpdateCounterBy(CounterRXIgnored, 1)
	case *ptp.FollowUp:
		c.handleFollowUp(p)
	case *ptp.DelayResp:
		c.handleDelayResp(p)
	case *ptp.Announce:
		c.handleAnnounce(p)
	}
}

// handleSync starts a synchronization exchange. One-step syncs carry the
// precise timestamp themselves, two-step syncs defer it to a follow up.
func (c *Client) handleSync(p *ptp.SyncDelayReq, rxts time.Time) {
	if !c.isSelectedServer(p.SourcePortIdentity.ClockIdentity) {
		log.Debugf("ignoring sync from %s", p.SourcePortIdentity.ClockIdentity)
		c.stats.UpdateCounterBy(CounterRXIgnored, 1)
		return
	}
	if rxts.IsZero() {
		log.Errorf("no RX timestamp on sync, skipping exchange")
		c.stats.UpdateCounterBy(CounterRXNoTimestamp, 1)
		return
	}
	c.stats.UpdateCounterBy(CounterRXSync, 1)
	c.lastSyncSeq = p.SequenceID
	c.logReceive(ptp.MessageSync, "seq=%d, flags=0x%04x", p.SequenceID, p.FlagField)
	if !p.TwoStep() {
		// the sync itself contains a precise hardware supplied timestamp
		// and no follow up will be sent by the server
		c.adjustTime(p.OriginTimestamp.Time(), rxts)
		c.setPhase(phaseIdle)
		return
	}
	// a follow up message will carry the precise timestamp of when this
	// sync was sent
	c.pendingTS = rxts
	c.setPhase(phaseWaitFollowUp)
}

// handleFollowUp finishes a two-step synchronization exchange
func (c *Client) handleFollowUp(p *ptp.FollowUp) {
	if !c.isSelectedServer(p.SourcePortIdentity.ClockIdentity) || c.getPhase() != phaseWaitFollowUp {
		log.Debugf("ignoring unexpected follow up")
		c.stats.UpdateCounterBy(CounterRXIgnored, 1)
		return
	}
	if p.SequenceID != c.lastSyncSeq {
		log.Debugf("ignoring follow up with unexpected sequence id %d", p.SequenceID)
		c.stats.UpdateCounterBy(CounterRXIgnored, 1)
		return
	}
	c.stats.UpdateCounterBy(CounterRXFollowUp, 1)
	c.logReceive(ptp.MessageFollowUp, "seq=%d, origin=%v", p.SequenceID, p.PreciseOriginTimestamp.Time())
	c.adjustTime(p.PreciseOriginTimestamp.Time(), c.pendingTS)
	c.setPhase(phaseIdle)
}

// handleDelayResp finishes a delay request exchange and updates the round
// trip estimate
func (c *Client) handleDelayResp(p *ptp.DelayResp) {
	if !c.isSelectedServer(p.SourcePortIdentity.ClockIdentity) || c.getPhase() != phaseWaitDelayResp {
		log.Debugf("ignoring unexpected delay response")
		c.stats.UpdateCounterBy(CounterRXIgnored, 1)
		return
	}
	if p.RequestingPortIdentity.ClockIdentity != c.clockID {
		log.Debugf("ignoring delay response intended for other client")
		c.stats.UpdateCounterBy(CounterRXIgnored, 1)
		return
	}
	if p.SequenceID != c.lastDelayReqSeq {
		log.Debugf("ignoring delay response with unexpected sequence id %d", p.SequenceID)
		c.stats.UpdateCounterBy(CounterRXIgnored, 1)
		return
	}
	c.stats.UpdateCounterBy(CounterRXDelayResp, 1)
	c.logReceive(ptp.MessageDelayResp, "seq=%d, server receive=%v", p.SequenceID, p.ReceiveTimestamp.Time())
	c.adjustRTT(c.pendingTS, p.ReceiveTimestamp.Time())
	c.setPhase(phaseIdle)
	c.timer.arm(c.cfg.DelayReqInterval)
}

// handleAnnounce tracks which server we synchronize against. An announce
// from the selected server refreshes its priority, one with a strictly
// better priority1 triggers a switch.
func (c *Client) handleAnnounce(p *ptp.Announce) {
	sender := p.SourcePortIdentity.ClockIdentity
	c.stats.UpdateCounterBy(CounterRXAnnounce, 1)
	c.logReceive(ptp.MessageAnnounce, "seq=%d, sender=%s, priority1=%d, utcOffset=%d",
		p.SequenceID, sender, p.GrandmasterPriority1, p.CurrentUTCOffset)
	if c.isSelectedServer(sender) {
		// Restore the priority, as
		// a) it might have been changed by the admin
		// b) we lower it periodically so that an unresponsive server is
		//    eventually replaced, announce messages track its aliveness
		c.serverPrio = p.GrandmasterPriority1
		c.utcOffset.Store(uint32(p.CurrentUTCOffset))
		return
	}
	if c.selected && p.GrandmasterPriority1 >= c.serverPrio {
		log.Debugf("ignoring announce from %s with priority1 %d", sender, p.GrandmasterPriority1)
		return
	}
	log.Infof("switching to PTP server %s with priority1 %d", sender, p.GrandmasterPriority1)
	c.setPhase(phaseIdle)
	c.selected = true
	c.serverID.Store(uint64(sender))
	c.serverPrio = p.GrandmasterPriority1
	// the network delay to the new server is likely different from the
	// value measured against the old one
	c.rtt.Store(0)
	c.lastServerTime = time.Time{}
	c.utcOffset.Store(uint32(p.CurrentUTCOffset))
	c.stats.UpdateCounterBy(CounterServerSwitches, 1)
	// trigger a network delay measurement
	c.timer.arm(c.cfg.DelayReqInterval)
}

// handleTimer runs the periodic housekeeping: delay request scheduling,
// delay response timeouts and the aging of the selected server's priority
func (c *Client) handleTimer() {
	if !c.selected {
		return
	}
	if c.getPhase() == phaseWaitDelayResp {
		log.Debugf("delay response timed out, sending new request")
	}
	if c.getPhase() == phaseWaitFollowUp {
		log.Debugf("waiting for follow up prior to sending delay request")
		// we can just reuse the delay request timeout here
		c.timer.arm(c.cfg.DelayReqTimeout)
	} else {
		c.sendDelayReq()
	}
	c.agePriority()
}

// agePriority lowers the selected server's priority by one, saturating at
// 255. Announce messages restore it while the server is alive, so a silent
// server eventually loses to a backup.
func (c *Client) agePriority() {
	if c.serverPrio < 255 {
		c.serverPrio++
	}
}

// sendDelayReq emits a delay request and records its TX timestamp. Without
// the timestamp no delay measurement is possible, the exchange is skipped
// and retried on the next periodic timer.
func (c *Client) sendDelayReq() {
	c.lastDelayReqSeq++
	req := reqDelay(c.clockID)
	req.SetSequence(c.lastDelayReqSeq)
	b, err := ptp.Bytes(req)
	if err != nil {
		log.Errorf("building delay request: %v", err)
		return
	}
	_, hwts, err := c.eventConn.WriteToWithTS(b, c.groupAddr)
	if err != nil {
		log.Errorf("sending delay request: %v", err)
		c.stats.UpdateCounterBy(CounterTXErrors, 1)
		c.setPhase(phaseIdle)
		c.timer.arm(c.cfg.DelayReqInterval)
		return
	}
	c.stats.UpdateCounterBy(CounterTXDelayReq, 1)
	c.logSent(ptp.MessageDelayReq, "seq=%d", c.lastDelayReqSeq)
	if hwts.IsZero() {
		log.Warningf("no TX timestamp, cannot determine network delay")
		c.stats.UpdateCounterBy(CounterTXNoTimestamp, 1)
		c.setPhase(phaseIdle)
		c.timer.arm(c.cfg.DelayReqInterval)
		return
	}
	c.pendingTS = hwts
	c.setPhase(phaseWaitDelayResp)
	c.timer.arm(c.cfg.DelayReqTimeout)
}

// Close releases the sockets and leaves the multicast group
func (c *Client) Close() {
	if c.p6event != nil {
		_ = c.p6event.LeaveGroup(c.iface, c.groupAddr)
	}
	if c.p6gen != nil {
		_ = c.p6gen.LeaveGroup(c.iface, c.groupAddr)
	}
	if c.eventConn != nil {
		c.eventConn.Close()
	}
	if c.genConn != nil {
		c.genConn.Close()
	}
	c.timer.stop()
}
