package sdr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/idaohang/genesis/internal/calibrate"
	"github.com/idaohang/genesis/internal/station"
)

func TestRunMissingTemplateFails(t *testing.T) {
	workDir := t.TempDir()
	r := &Runner{GnssSDRPath: "/bin/true", TemplatePath: filepath.Join(workDir, "missing.template"), SocketPath: "/tmp/genesis.sock"}
	st := station.Station{Type: station.Rover, Address: "10.0.0.2", Port: 1}
	if _, err := r.Run(workDir, st, 0, calibrate.ForkHooks{}); err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestRunLaunchesConfiguredBinary(t *testing.T) {
	workDir := t.TempDir()
	tmpl := filepath.Join(workDir, "gnss-sdr.conf.template")
	if err := os.WriteFile(tmpl, []byte("SignalSource.implementation=UHD_Signal_Source\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r := &Runner{GnssSDRPath: "/bin/true", TemplatePath: tmpl, SocketPath: "relative.sock"}
	st := station.Station{Type: station.Rover, Address: "10.0.0.2", Port: 9999}

	var prepared, parented bool
	hooks := calibrate.ForkHooks{
		PrepareFork: func() { prepared = true },
		ParentFork:  func(pid int) { parented = true },
	}

	handle, err := r.Run(workDir, st, -123.4, hooks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer handle.Cmd.Wait()

	if !prepared || !parented {
		t.Fatalf("fork hooks not both invoked: prepared=%v parented=%v", prepared, parented)
	}

	confPath := filepath.Join(workDir, "10.0.0.2", "gnss-sdr.conf")
	data, err := os.ReadFile(confPath)
	if err != nil {
		t.Fatalf("ReadFile derived config: %v", err)
	}
	if got := string(data); len(got) == 0 {
		t.Fatal("derived config is empty")
	}
}
