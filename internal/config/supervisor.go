package config

import (
	"flag"
	"path/filepath"
)

// Supervisor holds the flags recognized by the genesisd CLI
// (spec.md §6).
type Supervisor struct {
	ConfigFile    string // SDR config template
	CalConfigFile string // FE-CAL config template
	GnssSDR       string // SDR executable
	FrontEndCal   string // FE-CAL executable
	SocketFile    string // domain socket path for workers to connect back
	ListenAddress string // unicast or multicast announcement address
	AnnouncePort  int
	Verbose       bool
	VeryVerbose   bool
	WorkDir       string // root of the per-station config directories
	ListStations  bool   // supplemented feature: print persisted state and exit
	PlotDir       string // supplemented feature: solution-trace export directory
}

// ParseFlags parses the fixed 8-flag supervisor CLI plus this
// implementation's supplemented flags, in the teacher's style
// (main/fancontrol.go, main/hwcontrol.go): plain "flag" package,
// no third-party flag library.
func ParseFlags(args []string) (*Supervisor, error) {
	fs := flag.NewFlagSet("genesisd", flag.ContinueOnError)
	s := &Supervisor{}
	fs.StringVar(&s.ConfigFile, "config_file", "gnss-sdr.conf.template", "SDR config template")
	fs.StringVar(&s.CalConfigFile, "cal_config_file", "front-end-cal.conf.template", "FE-CAL config template")
	fs.StringVar(&s.GnssSDR, "gnss_sdr", "/usr/bin/gnss-sdr", "SDR executable")
	fs.StringVar(&s.FrontEndCal, "front_end_cal", "/usr/bin/front-end-cal", "FE-CAL executable")
	fs.StringVar(&s.SocketFile, "socket_file", "/tmp/genesis.sock", "domain socket path for workers to connect back")
	fs.StringVar(&s.ListenAddress, "listen_address", "0.0.0.0", "unicast or multicast address to listen on")
	fs.IntVar(&s.AnnouncePort, "announce_port", 9255, "UDP port for station announcements")
	fs.BoolVar(&s.Verbose, "verbose", false, "verbose logging")
	fs.BoolVar(&s.VeryVerbose, "very_verbose", false, "very verbose logging")
	fs.StringVar(&s.WorkDir, "work_dir", ".", "root of per-station config directories")
	fs.BoolVar(&s.ListStations, "list_stations", false, "print persisted station state and exit")
	fs.StringVar(&s.PlotDir, "plot_dir", "", "directory to write RTK solution-trace plots to (empty disables)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return s, nil
}

// Canonicalize resolves the four path flags to absolute paths, per
// spec.md §6's exit-code contract ("1 if any of the four configured
// paths fails to canonicalize").
func (s *Supervisor) Canonicalize() error {
	for _, p := range []*string{&s.ConfigFile, &s.CalConfigFile, &s.GnssSDR, &s.FrontEndCal} {
		resolved, err := filepath.EvalSymlinks(*p)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(resolved)
		if err != nil {
			return err
		}
		*p = abs
	}
	return nil
}
