package config

import "testing"

func TestDirNameReplacesColons(t *testing.T) {
	if got := DirName("192.168.1.1:9999"); got != "192.168.1.1.9999" {
		t.Fatalf("DirName() = %q, want %q", got, "192.168.1.1.9999")
	}
}

func TestDirCreatesAndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	dir1, err := Dir(root, "10.0.0.1:1")
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	dir2, err := Dir(root, "10.0.0.1:1")
	if err != nil {
		t.Fatalf("Dir (second call): %v", err)
	}
	if dir1 != dir2 {
		t.Fatalf("Dir() not stable: %q != %q", dir1, dir2)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := StationConfig{IFBias: -1234.5}
	if ok := Save(dir, want); !ok {
		t.Fatal("Save() = false")
	}
	got, ok := Load(dir)
	if !ok {
		t.Fatal("Load() = false after Save")
	}
	if got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadMissingFileReturnsFalse(t *testing.T) {
	if _, ok := Load(t.TempDir()); ok {
		t.Fatal("Load() = true for a directory with no station_config")
	}
}
