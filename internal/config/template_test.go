package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteDerivedAppendsOverrides(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "in.conf.template")
	if err := os.WriteFile(tmpl, []byte("SignalSource.implementation=UHD_Signal_Source\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out := filepath.Join(dir, "out.conf")
	overrides := []string{"SignalSource.address=10.0.0.1", "SignalSource.port=9999"}
	if err := WriteDerived(tmpl, out, overrides); err != nil {
		t.Fatalf("WriteDerived: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "SignalSource.implementation=UHD_Signal_Source") {
		t.Fatal("output missing template content")
	}
	for _, o := range overrides {
		if !strings.Contains(content, o) {
			t.Fatalf("output missing override %q", o)
		}
	}
}

func TestWriteDerivedMissingTemplate(t *testing.T) {
	dir := t.TempDir()
	err := WriteDerived(filepath.Join(dir, "missing.template"), filepath.Join(dir, "out.conf"), nil)
	if err == nil {
		t.Fatal("expected error for missing template")
	}
}
