package obslog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPrepareForkSuppressesAndResumeReenables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.log")
	f, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	defer f.Close()

	l := New(f, false, false)
	if l.L().Core().Enabled(0) == false {
		t.Fatal("logger unexpectedly disabled before PrepareFork")
	}
	l.PrepareFork()
	if l.L() == l.base {
		t.Fatal("L() returned the real base logger while suppressed")
	}
	l.ResumeAfterFork()
	if l.L() != l.base {
		t.Fatal("L() did not resume the real base logger after ResumeAfterFork")
	}
}

func TestOpenLogFileCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "genesis.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	f, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	defer f.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Stat: %v", err)
	}
}
