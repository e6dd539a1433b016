// Package announce implements the UDP announcement listener and
// fixed-layout packet decode of spec.md §4.B, §4.J, §6.
package announce

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/idaohang/genesis/internal/station"
)

// PacketSize is the fixed wire size of an announcement packet.
const PacketSize = 21

const (
	typeBase  uint32 = 1
	typeRover uint32 = 2
)

// wirePacket is the on-wire layout: port(u16) type(u32) name([15]byte),
// all network byte order (spec.md §3, §6).
type wirePacket struct {
	Port uint16
	Type uint32
	Name [15]byte
}

// DecodePacket parses exactly PacketSize bytes. Decoding is a pure
// function of the input bytes (spec.md §8): the same bytes always
// yield the same station.Type/port/name, independent of history.
func DecodePacket(buf []byte, senderAddress string) (station.Station, error) {
	if len(buf) != PacketSize {
		return station.Station{}, fmt.Errorf("announce: invalid packet length %d, want %d", len(buf), PacketSize)
	}

	var w wirePacket
	if err := binary.Read(bytes.NewReader(buf), binary.BigEndian, &w); err != nil {
		return station.Station{}, err
	}

	st := station.Station{
		Address: senderAddress,
		Port:    w.Port,
	}
	switch w.Type {
	case typeBase:
		st.Type = station.Base
	case typeRover:
		st.Type = station.Rover
	default:
		st.Type = station.Unknown
	}

	if !isAllZero(w.Name[:]) {
		st.Name = trimNulls(w.Name[:])
	}

	return st, nil
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func trimNulls(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return string(b)
	}
	return string(b[:i])
}
