package audit

import (
	"path/filepath"
	"testing"
)

func TestOpenAndRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	if err := log.Record(KindAdmitted, "10.0.0.1", "rover"); err != nil {
		t.Fatalf("Record: %v", err)
	}
}
