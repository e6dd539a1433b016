// Package calibrate drives the per-station FE-CAL subprocess that
// measures a front-end's IF bias (spec.md §4.D).
package calibrate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/idaohang/genesis/internal/config"
	"github.com/idaohang/genesis/internal/station"
)

// Errors surfaced by Calibrate (spec.md §4.D, §7).
var (
	ErrFileNotFound   = errors.New("calibrate: template or output file not found")
	ErrIFBiasNotFound = errors.New("calibrate: IF bias not found before deadline")
)

// ifBiasPattern is the contract with FE-CAL's stdout, kept verbatim
// from original_source/src/calibrator.cpp's regex (with the sign
// spec.md §4.D adds: the source template omits the leading '-', but
// bias can be negative).
var ifBiasPattern = regexp.MustCompile(`IF bias present in baseband=(-?[0-9]+\.[0-9]*) \[Hz\]`)

// readDeadline is the hard timeout on the FE-CAL stdout scrape
// (spec.md §4.D step 5, §5).
const readDeadline = 2 * time.Minute

// maxScanBytes bounds the stdout scan so a misbehaving FE-CAL cannot
// exhaust memory (spec.md §9 design note).
const maxScanBytes = 1 << 20

// Calibrator runs FE-CAL for one station at a time; distinct stations
// may run their Calibrate calls concurrently on distinct goroutines.
type Calibrator struct {
	FrontEndCalPath string
	TemplatePath    string
	Log             *zap.Logger
}

// ForkHooks carries the PrepareFork/ParentFork fork discipline hooks
// of spec.md §4.C / §5 (the child execs at once, so it has no hook):
// the caller supplies them so Calibrate
// (and sdr.Run) can notify the event loop around every subprocess
// launch without this package depending on the supervisor.
type ForkHooks struct {
	PrepareFork func()
	ParentFork  func(pid int)
}

// Calibrate runs the calibration procedure for st rooted at workDir,
// returning the IF bias in Hz (spec.md §4.D).
func (c *Calibrator) Calibrate(ctx context.Context, workDir string, st station.Station, hooks ForkHooks) (float64, error) {
	dir, err := config.Dir(workDir, st.Address)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	if cfg, ok := config.Load(dir); ok {
		c.Log.Debug("reusing persisted IF bias", zap.String("station", st.Address), zap.Float64("bias", cfg.IFBias))
		return cfg.IFBias, nil
	}

	confPath := filepath.Join(dir, "front-end-cal.conf")
	overrides := []string{
		fmt.Sprintf("SignalSource.address=%s", st.Address),
		fmt.Sprintf("SignalSource.port=%d", st.Port),
	}
	if err := config.WriteDerived(c.TemplatePath, confPath, overrides); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	if hooks.PrepareFork != nil {
		hooks.PrepareFork()
	}

	cmd := exec.Command(c.FrontEndCalPath, "--config_file", "front-end-cal.conf", "-log_dir=./")
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, err
	}
	cmd.Stderr = cmd.Stdout // redirect both stderr and stdout into the same pipe

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}
	if hooks.ParentFork != nil {
		hooks.ParentFork(cmd.Process.Pid)
	}

	bias, err := c.readIFBias(ctx, stdout)
	_ = cmd.Process.Kill()
	_ = cmd.Wait()
	if err != nil {
		return 0, err
	}

	if ok := config.Save(dir, config.StationConfig{IFBias: bias}); !ok {
		c.Log.Warn("failed to persist IF bias", zap.String("station", st.Address))
	}
	return bias, nil
}

// readIFBias scrapes r line by line for ifBiasPattern until it
// matches, EOF, an I/O error, or readDeadline elapses.
func (c *Calibrator) readIFBias(ctx context.Context, r io.Reader) (float64, error) {
	deadline, cancel := context.WithTimeout(ctx, readDeadline)
	defer cancel()

	type result struct {
		bias float64
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		scanner := bufio.NewScanner(io.LimitReader(r, maxScanBytes))
		for scanner.Scan() {
			line := scanner.Text()
			if m := ifBiasPattern.FindStringSubmatch(line); m != nil {
				bias, perr := strconv.ParseFloat(m[1], 64)
				if perr != nil {
					ch <- result{err: perr}
					return
				}
				ch <- result{bias: bias}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{err: ErrIFBiasNotFound}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return 0, res.err
		}
		return res.bias, nil
	case <-deadline.Done():
		return 0, ErrIFBiasNotFound
	}
}
