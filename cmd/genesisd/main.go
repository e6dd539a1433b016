// Command genesisd is the Genesis RTK supervisor (spec.md §4, §6).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/idaohang/genesis/internal/admin"
	"github.com/idaohang/genesis/internal/audit"
	"github.com/idaohang/genesis/internal/config"
	"github.com/idaohang/genesis/internal/metrics"
	"github.com/idaohang/genesis/internal/obslog"
	"github.com/idaohang/genesis/internal/rtk"
	"github.com/idaohang/genesis/internal/sharedmap"
	"github.com/idaohang/genesis/internal/station"
	"github.com/idaohang/genesis/internal/supervisor"
	"github.com/idaohang/genesis/internal/svcinstall"
	"github.com/idaohang/genesis/internal/trace"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "-service" {
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "genesisd: usage: genesisd -service install|remove|start|stop|status")
			os.Exit(2)
		}
		msg, err := svcinstall.Manage(os.Args[2], os.Args[3:])
		if err != nil {
			fmt.Fprintln(os.Stderr, "genesisd:", err)
			os.Exit(1)
		}
		fmt.Println(msg)
		return
	}

	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.ListStations {
		listStations(cfg)
		return
	}

	if err := cfg.Canonicalize(); err != nil {
		fmt.Fprintln(os.Stderr, "genesisd: failed to canonicalize configured paths:", err)
		os.Exit(1)
	}

	logFile, err := obslog.OpenLogFile(filepath.Join(cfg.WorkDir, "genesis.log"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "genesisd: failed to open log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log := obslog.New(logFile, cfg.Verbose, cfg.VeryVerbose)
	defer log.Sync()

	assist := sharedmap.NewRegistry()
	registry := station.NewRegistry(assist)

	sv := supervisor.New(cfg, log, registry, assist, rtk.NoSolver{})

	if a, err := audit.Open(filepath.Join(cfg.WorkDir, "genesis-audit.db")); err != nil {
		log.L().Warn("audit log disabled", zap.Error(err))
	} else {
		defer a.Close()
		sv.SetAudit(a)
	}

	if cfg.PlotDir != "" {
		if err := os.MkdirAll(cfg.PlotDir, 0o755); err != nil {
			log.L().Warn("solution trace disabled", zap.Error(err))
		} else if tr, err := trace.Open(cfg.PlotDir); err != nil {
			log.L().Warn("solution trace disabled", zap.Error(err))
		} else {
			defer tr.Close()
			sv.SetTracer(tr)
		}
	}

	metricsReg := prometheus.NewRegistry()
	m := metrics.New()
	m.MustRegister(metricsReg)
	sv.SetMetrics(m)

	adminServer := &admin.Server{Registry: registry, Log: log.L(), MetricsRegisterer: metricsReg}
	go func() {
		if err := adminServer.ListenAndServe(filepath.Join(cfg.WorkDir, "genesis-admin.sock")); err != nil {
			log.L().Debug("admin status server stopped", zap.Error(err))
		}
	}()

	if err := sv.Run(context.Background()); err != nil {
		log.L().Error("supervisor exited with error", zap.Error(err))
		os.Exit(1)
	}
}

// listStations implements the --list_stations supplemented mode:
// print the persisted per-station directories and their cached IF
// bias, then exit (spec.md §9 design note: CLI-only, no subprocesses
// started).
func listStations(cfg *config.Supervisor) {
	entries, err := os.ReadDir(cfg.WorkDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "genesisd:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(cfg.WorkDir, e.Name())
		if sc, ok := config.Load(dir); ok {
			fmt.Printf("%s\tif_bias=%v\n", e.Name(), sc.IFBias)
		} else {
			fmt.Printf("%s\t(no cached calibration)\n", e.Name())
		}
	}
}
