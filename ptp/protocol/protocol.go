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

// Package protocol implements the subset of the IEEE-1588v2 wire format a
// PTP client needs: the common header and the Sync, FollowUp, DelayReq,
// DelayResp and Announce messages, over UDP port 319 (event) and 320
// (general).
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// PortEvent is UDP port for event messages
const PortEvent = 319

// PortGeneral is UDP port for general messages
const PortGeneral = 320

// Wire sizes of the messages we support, including the common header
const (
	// HeaderSize is the size of the common PTP header
	HeaderSize = 34
	// SyncDelayReqSize is the size of Sync and DelayReq messages
	SyncDelayReqSize = 44
	// FollowUpSize is the size of FollowUp messages
	FollowUpSize = 44
	// DelayRespSize is the size of DelayResp messages
	DelayRespSize = 54
	// AnnounceSize is the size of Announce messages
	AnnounceSize = 64
)

// Decode errors
var (
	// ErrBadVersion is returned when the message is not PTP version 2.0/2.1
	ErrBadVersion = errors.New("unsupported PTP version")
	// ErrTruncated is returned when the payload is too small for the message
	ErrTruncated = errors.New("message is too small")
	// ErrLengthMismatch is returned when the declared length exceeds the payload
	ErrLengthMismatch = errors.New("declared length exceeds payload")
	// ErrUnsupportedMsgType is returned for message types the client does not handle
	ErrUnsupportedMsgType = errors.New("unsupported message type")
)

// Header is a common PTP message header
type Header struct {
	SdoIDAndMsgType     SdoIDAndMsgType // first 4 bits is SdoId, next 4 bits are msgtype
	Version             Version
	MessageLength       uint16
	DomainNumber        uint8
	MinorSdoID          uint8
	FlagField           uint16
	CorrectionField     Correction
	MessageTypeSpecific uint32
	SourcePortIdentity  PortIdentity
	SequenceID          uint16
	ControlField        uint8
	LogMessageInterval  LogInterval
}

// MessageType returns MessageType of the packet
func (p *Header) MessageType() MessageType {
	return p.SdoIDAndMsgType.MsgType()
}

// SetSequence populates sequence field
func (p *Header) SetSequence(sequence uint16) {
	p.SequenceID = sequence
}

// TwoStep reports whether the TWO_STEP flag is set
func (p *Header) TwoStep() bool {
	return p.FlagField&FlagTwoStep != 0
}

// Packet is an iterface to abstract all different packets
type Packet interface {
	MessageType() MessageType
	SetSequence(uint16)
}

// SyncDelayReqBody is a body of Sync and DelayReq messages
type SyncDelayReqBody struct {
	OriginTimestamp Timestamp
}

// SyncDelayReq is a Sync or DelayReq message. Bodies are identical.
type SyncDelayReq struct {
	Header
	SyncDelayReqBody
}

// FollowUpBody is a body of FollowUp message
type FollowUpBody struct {
	PreciseOriginTimestamp Timestamp
}

// FollowUp is a FollowUp message
type FollowUp struct {
	Header
	FollowUpBody
}

// DelayRespBody is a body of DelayResp message
type DelayRespBody struct {
	ReceiveTimestamp       Timestamp
	RequestingPortIdentity PortIdentity
}

// DelayResp is a DelayResp message
type DelayResp struct {
	Header
	DelayRespBody
}

// AnnounceBody is a body of Announce message
type AnnounceBody struct {
	OriginTimestamp         Timestamp
	CurrentUTCOffset        uint16
	Reserved                uint8
	GrandmasterPriority1    uint8
	GrandmasterClockQuality ClockQuality
	GrandmasterPriority2    uint8
	GrandmasterIdentity     ClockIdentity
	StepsRemoved            uint16
	TimeSource              TimeSource
}

// Announce is an Announce message
type Announce struct {
	Header
	AnnounceBody
}

// FromBytes parses data into packet
func FromBytes(data []byte, packet Packet) error {
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, packet); err != nil {
		return fmt.Errorf("parsing %s: %w", packet.MessageType(), ErrTruncated)
	}
	return nil
}

// Bytes converts any packet to []bytes
func Bytes(packet Packet) ([]byte, error) {
	var b bytes.Buffer
	if err := binary.Write(&b, binary.BigEndian, packet); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// minSize returns the wire size the payload must have for given message type
func minSize(msgType MessageType) int {
	switch msgType {
	case MessageSync, MessageDelayReq:
		return SyncDelayReqSize
	case MessageFollowUp:
		return FollowUpSize
	case MessageDelayResp:
		return DelayRespSize
	case MessageAnnounce:
		return AnnounceSize
	}
	return HeaderSize
}

// DecodePacket decodes a datagram into one of the supported message types.
// The caller gets ErrUnsupportedMsgType for valid PTP messages the client
// does not care about, those are to be ignored silently.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("parsing header: %w", ErrTruncated)
	}
	version := Version(data[1])
	if version.Major() != 2 || version.Minor() > 1 {
		return nil, fmt.Errorf("%w %s", ErrBadVersion, version)
	}
	declared := binary.BigEndian.Uint16(data[2:4])
	if int(declared) > len(data) {
		return nil, fmt.Errorf("%w: declared %d, got %d", ErrLengthMismatch, declared, len(data))
	}
	msgType := SdoIDAndMsgType(data[0]).MsgType()
	if len(data) < minSize(msgType) {
		return nil, fmt.Errorf("parsing %s: %w", msgType, ErrTruncated)
	}

	var packet Packet
	switch msgType {
	case MessageSync, MessageDelayReq:
		packet = &SyncDelayReq{}
	case MessageFollowUp:
		packet = &FollowUp{}
	case MessageDelayResp:
		packet = &DelayResp{}
	case MessageAnnounce:
		packet = &Announce{}
	default:
		return nil, fmt.Errorf("%w %s", ErrUnsupportedMsgType, msgType)
	}
	if err := FromBytes(data[:minSize(msgType)], packet); err != nil {
		return nil, err
	}
	return packet, nil
}
