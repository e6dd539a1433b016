package session

import (
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/idaohang/genesis/internal/gnssdata"
	"github.com/idaohang/genesis/internal/sharedmap"
	"github.com/idaohang/genesis/internal/station"
)

func TestServeDispatchesBaseBatchAndRemovesOnEOF(t *testing.T) {
	registry := station.NewRegistry(sharedmap.NewRegistry())
	base := station.Station{Type: station.Base, Address: "10.0.0.1", Port: 1}
	if err := registry.Add(base); err != nil {
		t.Fatalf("Add: %v", err)
	}

	sess := &Session{Station: base, Registry: registry, Log: zap.NewNop()}

	client, server := net.Pipe()
	done := make(chan error, 1)
	go func() { done <- sess.Serve(server) }()

	obs := gnssdata.Observable{PRN: 5}
	buf, err := gnssdata.EncodeObservable(obs)
	if err != nil {
		t.Fatalf("EncodeObservable: %v", err)
	}

	writeDone := make(chan struct{})
	go func() {
		_, _ = client.Write(buf)
		close(writeDone)
	}()
	select {
	case <-writeDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out writing to session")
	}

	deadline := time.Now().Add(2 * time.Second)
	var got []gnssdata.Observable
	for time.Now().Before(deadline) {
		got = registry.BaseObservables()
		if len(got) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(got) != 1 || got[0].PRN != 5 {
		t.Fatalf("BaseObservables() = %+v, want one record with PRN=5", got)
	}

	client.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Serve to return")
	}

	if registry.HasBase() {
		t.Fatal("base station still registered after session EOF")
	}
}
