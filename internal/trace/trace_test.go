package trace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/idaohang/genesis/internal/rtk"
)

func TestLoggerRecordAndPlot(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	l.Record(time.Unix(0, 0), "10.0.0.2", rtk.Sol{Rr: [6]float64{wgs84A, 0, 0, 0, 0, 0}})
	l.Record(time.Unix(1, 0), "10.0.0.2", rtk.Sol{Rr: [6]float64{wgs84A, 1000, 0, 0, 0, 0}})

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "solutions.csv.gz")); err != nil {
		t.Fatalf("Stat solutions.csv.gz: %v", err)
	}

	l2, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l2.Record(time.Unix(0, 0), "10.0.0.2", rtk.Sol{Rr: [6]float64{wgs84A, 0, 0, 0, 0, 0}})
	defer l2.Close()

	plotPath := filepath.Join(t.TempDir(), "track.png")
	if err := l2.PlotTrack(plotPath); err != nil {
		t.Fatalf("PlotTrack: %v", err)
	}
	if _, err := os.Stat(plotPath); err != nil {
		t.Fatalf("Stat track.png: %v", err)
	}
}
