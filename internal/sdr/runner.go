// Package sdr drives the per-station SDR subprocess that produces
// GPS observables (spec.md §4.E).
package sdr

import (
	"fmt"
	"io"
	"os/exec"
	"path/filepath"

	"github.com/idaohang/genesis/internal/calibrate"
	"github.com/idaohang/genesis/internal/config"
	"github.com/idaohang/genesis/internal/station"
)

// Runner launches the SDR executable for one station.
type Runner struct {
	GnssSDRPath string
	TemplatePath string
	SocketPath  string // supervisor's domain socket path for connect-back
}

// Handle is a running SDR subprocess: its combined stderr+stdout pipe
// and the underlying *exec.Cmd, so the caller can wait/kill it.
type Handle struct {
	Cmd    *exec.Cmd
	Stdout io.ReadCloser
}

// Run composes gnss-sdr.conf in workDir/<station dir>, then fork/execs
// the SDR binary in that directory (spec.md §4.E).
func (r *Runner) Run(workDir string, st station.Station, ifBias float64, hooks calibrate.ForkHooks) (*Handle, error) {
	dir, err := config.Dir(workDir, st.Address)
	if err != nil {
		return nil, err
	}

	socketPath := r.SocketPath
	if !filepath.IsAbs(socketPath) {
		// Translate to a path that still resolves after chdir(dir),
		// per spec.md §4.E step 1.
		socketPath = filepath.Join("..", socketPath)
	}

	confPath := filepath.Join(dir, "gnss-sdr.conf")
	overrides := []string{
		fmt.Sprintf("SignalSource.address=%s", st.Address),
		fmt.Sprintf("SignalSource.port=%d", st.Port),
		fmt.Sprintf("InputFilter.IF=%v", ifBias),
		fmt.Sprintf("OutputFilter.filename=%s", socketPath),
	}
	if err := config.WriteDerived(r.TemplatePath, confPath, overrides); err != nil {
		return nil, err
	}

	if hooks.PrepareFork != nil {
		hooks.PrepareFork()
	}

	cmd := exec.Command(r.GnssSDRPath, "--config_file", "gnss-sdr.conf", "-log_dir=./")
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	if hooks.ParentFork != nil {
		hooks.ParentFork(cmd.Process.Pid)
	}

	return &Handle{Cmd: cmd, Stdout: stdout}, nil
}
