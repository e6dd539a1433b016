// Package gnssdata defines the wire-level and assistance-data record
// layouts shared between a station's SDR worker and the supervisor.
package gnssdata

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Observable is one satellite's measurement at one epoch, as produced
// by the SDR worker and streamed back over the session socket.
//
// spec.md's original host-layout framing is unsafe across compilers
// and machine word sizes (§9 design note); this is the canonical
// little-endian, explicit-width replacement. Fields are serialized in
// declaration order with no inter-field padding.
type Observable struct {
	System     [1]byte // receiver system tag, e.g. 'G' for GPS
	SignalCode [3]byte // tracked signal code, e.g. "1C "

	PRN             uint32
	ChannelID       int32
	AcqDopplerHz    float64
	AcqDelaySamples float64
	Samplestamp     uint64
	AcqValid        uint8

	PromptI          float64
	PromptQ          float64
	CN0Dbhz          float64
	CarrierDopplerHz float64
	CarrierPhaseRad  float64
	CodePhaseSec     float64
	TrackingTimeSec  float64
	TrackingValid    uint8

	PRNTimestampMs   float64
	PreambleDetected uint8
	TOWAtPreambleSec float64
	TOWSec           float64
	GPSWeek          int32
	PseudorangeM     float64
	TelemetryValid   uint8
}

// ObservableSize is sizeof(Observable) under the canonical layout
// above. Session framing divides incoming byte counts by this value
// (spec.md §8, "Session framing").
var ObservableSize = binary.Size(Observable{})

func init() {
	if ObservableSize <= 0 {
		panic("gnssdata: Observable is not a fixed-size binary layout")
	}
}

// DecodeObservable parses exactly ObservableSize bytes of the canonical
// little-endian wire layout. Callers are responsible for framing.
func DecodeObservable(buf []byte) (Observable, error) {
	var o Observable
	if len(buf) < ObservableSize {
		return o, fmt.Errorf("gnssdata: short buffer: have %d bytes, need %d", len(buf), ObservableSize)
	}
	err := binary.Read(bytes.NewReader(buf[:ObservableSize]), binary.LittleEndian, &o)
	return o, err
}

// EncodeObservable is the inverse of DecodeObservable; used by tests
// and by any worker-side code sharing this package.
func EncodeObservable(o Observable) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeObservables splits buf into whole records, returning the
// decoded batch and the number of bytes consumed. The residual
// (len(buf) - consumed) is always < ObservableSize (spec.md §8).
func DecodeObservables(buf []byte) (batch []Observable, consumed int, err error) {
	n := len(buf) / ObservableSize
	batch = make([]Observable, 0, n)
	for i := 0; i < n; i++ {
		off := i * ObservableSize
		o, derr := DecodeObservable(buf[off : off+ObservableSize])
		if derr != nil {
			return batch, consumed, derr
		}
		batch = append(batch, o)
		consumed += ObservableSize
	}
	return batch, consumed, nil
}
