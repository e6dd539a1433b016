package config

import "testing"

func TestParseFlagsDefaults(t *testing.T) {
	s, err := ParseFlags(nil)
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if s.AnnouncePort != 9255 {
		t.Fatalf("AnnouncePort = %d, want 9255", s.AnnouncePort)
	}
	if s.SocketFile != "/tmp/genesis.sock" {
		t.Fatalf("SocketFile = %q, want default", s.SocketFile)
	}
}

func TestParseFlagsOverride(t *testing.T) {
	s, err := ParseFlags([]string{"-announce_port=1234", "-verbose"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if s.AnnouncePort != 1234 {
		t.Fatalf("AnnouncePort = %d, want 1234", s.AnnouncePort)
	}
	if !s.Verbose {
		t.Fatal("Verbose = false, want true")
	}
}

func TestCanonicalizeFailsOnMissingPath(t *testing.T) {
	s := &Supervisor{
		ConfigFile:    "/no/such/path-1",
		CalConfigFile: "/no/such/path-2",
		GnssSDR:       "/no/such/path-3",
		FrontEndCal:   "/no/such/path-4",
	}
	if err := s.Canonicalize(); err == nil {
		t.Fatal("expected Canonicalize to fail for nonexistent paths")
	}
}
