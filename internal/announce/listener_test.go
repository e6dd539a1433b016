package announce

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/idaohang/genesis/internal/station"
)

type recordingAdmitter struct {
	admitted chan station.Station
}

func (r *recordingAdmitter) Admit(st station.Station) {
	r.admitted <- st
}

type noopFatal struct{ t *testing.T }

func (n noopFatal) Fatal(err error) {
	n.t.Errorf("unexpected fatal: %v", err)
}

func TestListenerDecodesAndAdmits(t *testing.T) {
	l, err := Listen("127.0.0.1", 0, zap.NewNop())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	admitter := &recordingAdmitter{admitted: make(chan station.Station, 1)}
	go l.Serve(admitter, noopFatal{t})

	conn, err := net.Dial("udp", l.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, PacketSize)
	binary.BigEndian.PutUint16(buf[0:2], 4321)
	binary.BigEndian.PutUint32(buf[2:6], typeRover)
	copy(buf[6:], "rover-under-test")

	if _, err := conn.Write(buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case st := <-admitter.admitted:
		if st.Type != station.Rover || st.Port != 4321 {
			t.Fatalf("admitted station = %+v, unexpected", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for admission")
	}
}
