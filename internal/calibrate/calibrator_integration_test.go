package calibrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/idaohang/genesis/internal/station"
)

func TestCalibratePersistsAndReuses(t *testing.T) {
	workDir := t.TempDir()
	tmpl := filepath.Join(workDir, "front-end-cal.conf.template")
	if err := os.WriteFile(tmpl, []byte("SignalSource.implementation=UHD_Signal_Source\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fakeFECal := filepath.Join(workDir, "fake-fe-cal.sh")
	script := "#!/bin/sh\necho 'IF bias present in baseband=-987.6 [Hz]'\n"
	if err := os.WriteFile(fakeFECal, []byte(script), 0o755); err != nil {
		t.Fatalf("WriteFile fake FE-CAL: %v", err)
	}

	c := &Calibrator{FrontEndCalPath: fakeFECal, TemplatePath: tmpl, Log: zap.NewNop()}
	st := station.Station{Type: station.Base, Address: "10.0.0.1", Port: 9999}

	bias, err := c.Calibrate(context.Background(), workDir, st, ForkHooks{})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if bias != -987.6 {
		t.Fatalf("bias = %v, want -987.6", bias)
	}

	// Second call should hit the persisted cache and not need the
	// FE-CAL executable at all.
	c2 := &Calibrator{FrontEndCalPath: "/no/such/binary", TemplatePath: tmpl, Log: zap.NewNop()}
	bias2, err := c2.Calibrate(context.Background(), workDir, st, ForkHooks{})
	if err != nil {
		t.Fatalf("Calibrate (cached): %v", err)
	}
	if bias2 != bias {
		t.Fatalf("cached bias = %v, want %v", bias2, bias)
	}
}
