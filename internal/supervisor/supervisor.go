// Package supervisor implements the Genesis event loop (spec.md §4.C):
// bind the session socket and announcement listener, admit stations,
// spawn their calibrate/SDR/session pipeline, reap children, and drain
// on shutdown.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/idaohang/genesis/internal/announce"
	"github.com/idaohang/genesis/internal/audit"
	"github.com/idaohang/genesis/internal/calibrate"
	"github.com/idaohang/genesis/internal/config"
	"github.com/idaohang/genesis/internal/metrics"
	"github.com/idaohang/genesis/internal/obslog"
	"github.com/idaohang/genesis/internal/rtk"
	"github.com/idaohang/genesis/internal/sdr"
	"github.com/idaohang/genesis/internal/session"
	"github.com/idaohang/genesis/internal/sharedmap"
	"github.com/idaohang/genesis/internal/station"
	"github.com/idaohang/genesis/internal/trace"
)

// State is a stage of the supervisor's lifecycle (spec.md §4.C).
type State int

const (
	StateIdle State = iota
	StateBinding
	StateListening
	StateDraining
	StateExited
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBinding:
		return "binding"
	case StateListening:
		return "listening"
	case StateDraining:
		return "draining"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Supervisor owns the registry, the two listening sockets, and every
// admitted station's subprocess pipeline.
type Supervisor struct {
	cfg      *config.Supervisor
	log      *obslog.Logger
	registry *station.Registry
	assist   *sharedmap.Registry
	engine   rtk.Engine

	calibrator *calibrate.Calibrator
	sdrRunner  *sdr.Runner
	fuser      *rtk.Fuser
	audit      *audit.Log
	tracer     *trace.Logger
	metrics    *metrics.Metrics

	mu    sync.Mutex
	state State

	announceLn *announce.Listener
	sessionLn  net.Listener
	pending    chan station.Station

	children map[int]*exec.Cmd
	toKill   map[int]struct{}

	shutdown chan struct{}
	once     sync.Once
}

// New wires a Supervisor from its configuration and dependencies. The
// caller still owns starting it via Run.
func New(cfg *config.Supervisor, log *obslog.Logger, registry *station.Registry, assist *sharedmap.Registry, engine rtk.Engine) *Supervisor {
	sv := &Supervisor{
		cfg:      cfg,
		log:      log,
		registry: registry,
		assist:   assist,
		engine:   engine,
		children: make(map[int]*exec.Cmd),
		toKill:   make(map[int]struct{}),
		pending:  make(chan station.Station, 64),
		shutdown: make(chan struct{}),
	}
	sv.calibrator = &calibrate.Calibrator{
		FrontEndCalPath: cfg.FrontEndCal,
		TemplatePath:    cfg.CalConfigFile,
		Log:             log.L(),
	}
	sv.sdrRunner = &sdr.Runner{
		GnssSDRPath:  cfg.GnssSDR,
		TemplatePath: cfg.ConfigFile,
		SocketPath:   cfg.SocketFile,
	}
	sv.fuser = &rtk.Fuser{
		Registry: registry,
		Assist:   assist,
		Engine:   engine,
		Log:      log.L(),
	}
	return sv
}

// SetAudit attaches an optional audit log; events are recorded only
// when one is set.
func (sv *Supervisor) SetAudit(a *audit.Log) {
	sv.audit = a
}

// SetTracer attaches an optional solution-trace logger; every fused
// rover solution is recorded to it when set.
func (sv *Supervisor) SetTracer(t *trace.Logger) {
	sv.tracer = t
}

// SetMetrics attaches an optional Prometheus counter set; lifecycle and
// fusion events are reported to it when set.
func (sv *Supervisor) SetMetrics(m *metrics.Metrics) {
	sv.metrics = m
}

func (sv *Supervisor) recordAudit(kind audit.Kind, stationAddr, detail string) {
	if sv.audit == nil {
		return
	}
	if err := sv.audit.Record(kind, stationAddr, detail); err != nil {
		sv.log.L().Warn("failed to record audit event", zap.Error(err))
	}
}

// State reports the current lifecycle stage.
func (sv *Supervisor) State() State {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.state
}

func (sv *Supervisor) setState(s State) {
	sv.mu.Lock()
	sv.state = s
	sv.mu.Unlock()
}

// Run drives the full lifecycle until ctx is canceled, SIGTERM is
// received, or "q"/"Q" is read from stdin (spec.md §4.C).
func (sv *Supervisor) Run(ctx context.Context) error {
	sv.setState(StateBinding)

	ln, err := session.Listen(sv.cfg.SocketFile)
	if err != nil {
		return fmt.Errorf("supervisor: bind session socket: %w", err)
	}
	sv.sessionLn = ln

	al, err := announce.Listen(sv.cfg.ListenAddress, sv.cfg.AnnouncePort, sv.log.L())
	if err != nil {
		ln.Close()
		return fmt.Errorf("supervisor: bind announcement socket: %w", err)
	}
	sv.announceLn = al

	sv.setState(StateListening)
	sv.log.L().Info("genesis supervisor listening",
		zap.String("socket", sv.cfg.SocketFile),
		zap.String("announce", fmt.Sprintf("%s:%d", sv.cfg.ListenAddress, sv.cfg.AnnouncePort)))

	go al.Serve(sv, sv)
	go sv.acceptSessions()
	go sv.reapChildren()
	go sv.readStdin()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
	case <-sigCh:
		sv.log.L().Info("received termination signal")
	case <-sv.shutdown:
		sv.log.L().Info("shutdown requested")
	}

	sv.drain()
	return nil
}

// requestShutdown triggers the drain sequence exactly once.
func (sv *Supervisor) requestShutdown() {
	sv.once.Do(func() { close(sv.shutdown) })
}

// readStdin implements the "q"/"Q" shutdown command (spec.md §4.C.4),
// in the style of main/gen_gdl90.go's bufio.NewReader(os.Stdin) loop.
func (sv *Supervisor) readStdin() {
	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		switch strings.TrimSpace(line) {
		case "q", "Q":
			sv.requestShutdown()
			return
		}
	}
}

// Fatal implements announce.FatalReporter: a transport-level socket
// error begins shutdown (spec.md §4.B).
func (sv *Supervisor) Fatal(err error) {
	sv.log.L().Error("announcement listener failed", zap.Error(err))
	sv.requestShutdown()
}

// Admit implements announce.Admitter: register the station and, if
// admission succeeds, start its calibrate/SDR/session pipeline
// (spec.md §4.A, §4.C).
func (sv *Supervisor) Admit(st station.Station) {
	if err := sv.registry.Add(st); err != nil {
		sv.log.L().Info("rejected station announcement",
			zap.String("address", st.Address), zap.String("type", st.Type.String()), zap.Error(err))
		sv.recordAudit(audit.KindRejected, st.Address, err.Error())
		if sv.metrics != nil {
			sv.metrics.StationsRejected.Inc()
		}
		return
	}
	sv.log.L().Info("admitted station",
		zap.String("address", st.Address), zap.String("type", st.Type.String()))
	sv.recordAudit(audit.KindAdmitted, st.Address, st.Type.String())
	if sv.metrics != nil {
		sv.metrics.StationsAdmitted.Inc()
	}
	go sv.runStation(st)
}

// runStation calibrates, launches, and hands off one station's SDR
// worker (spec.md §4.C.3).
func (sv *Supervisor) runStation(st station.Station) {
	ctx := context.Background()
	hooks := calibrate.ForkHooks{
		PrepareFork: sv.log.PrepareFork,
		ParentFork:  func(pid int) { sv.log.ResumeAfterFork(); sv.trackChild(pid, nil) },
	}

	bias, err := sv.calibrator.Calibrate(ctx, sv.cfg.WorkDir, st, hooks)
	if err != nil {
		sv.log.L().Warn("calibration failed", zap.String("station", st.Address), zap.Error(err))
		sv.recordAudit(audit.KindRemoved, st.Address, "calibration failed: "+err.Error())
		_ = sv.registry.Remove(st)
		return
	}
	sv.recordAudit(audit.KindCalibrated, st.Address, fmt.Sprintf("if_bias=%v", bias))

	handle, err := sv.sdrRunner.Run(sv.cfg.WorkDir, st, bias, hooks)
	if err != nil {
		sv.log.L().Warn("failed to start SDR worker", zap.String("station", st.Address), zap.Error(err))
		sv.recordAudit(audit.KindRemoved, st.Address, "sdr launch failed: "+err.Error())
		_ = sv.registry.Remove(st)
		return
	}
	sv.trackChild(handle.Cmd.Process.Pid, handle.Cmd)

	select {
	case sv.pending <- st:
	case <-sv.shutdown:
		return
	}

	_ = handle.Cmd.Wait()
}

// acceptSessions pulls connections off the session socket and matches
// each one to the oldest station awaiting its worker's connect-back
// (spec.md §4.F: one shared acceptor, FIFO in the order the stations'
// SDR workers were launched, which can differ from admission order).
func (sv *Supervisor) acceptSessions() {
	for {
		conn, err := sv.sessionLn.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			sv.log.L().Warn("session accept failed", zap.Error(err))
			continue
		}
		select {
		case st := <-sv.pending:
			sess := &session.Session{
				Station:  st,
				Registry: sv.registry,
				Fuser:    sv.fuser,
				Log:      sv.log.L(),
			}
			sess.OnSolution = func(st station.Station, sol rtk.Sol) {
				if sv.tracer != nil {
					sv.tracer.Record(time.Now(), st.Address, sol)
				}
				if sv.metrics != nil {
					sv.metrics.SolutionsFused.Inc()
				}
			}
			sess.OnFusionFailure = func(station.Station) {
				if sv.metrics != nil {
					sv.metrics.FusionFailures.Inc()
				}
			}
			go func() {
				err := sess.Serve(conn)
				if err != nil {
					sv.log.L().Info("session ended", zap.String("station", st.Address), zap.Error(err))
					sv.recordAudit(audit.KindSessionEnded, st.Address, err.Error())
				} else {
					sv.recordAudit(audit.KindSessionEnded, st.Address, "eof")
				}
			}()
		case <-sv.shutdown:
			conn.Close()
			return
		}
	}
}

func (sv *Supervisor) trackChild(pid int, cmd *exec.Cmd) {
	sv.mu.Lock()
	sv.children[pid] = cmd
	sv.mu.Unlock()
}

// reapChildren waits on SIGCHLD and drains zombies with a
// non-blocking waitpid loop, the standard Go idiom for reaping forked
// subprocesses (no example repo in the pack forks and reaps
// subprocesses itself; see DESIGN.md).
func (sv *Supervisor) reapChildren() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGCHLD)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-sigCh:
			for {
				var ws syscall.WaitStatus
				pid, err := syscall.Wait4(-1, &ws, syscall.WNOHANG, nil)
				if pid <= 0 || err != nil {
					break
				}
				sv.mu.Lock()
				delete(sv.children, pid)
				delete(sv.toKill, pid)
				sv.mu.Unlock()
			}
		case <-sv.shutdown:
			return
		}
	}
}

// drain implements spec.md §4.C's shutdown cascade: stop accepting new
// work, signal every tracked child, and wait briefly for them to exit.
func (sv *Supervisor) drain() {
	sv.setState(StateDraining)

	if sv.announceLn != nil {
		sv.announceLn.Close()
	}
	if sv.sessionLn != nil {
		sv.sessionLn.Close()
	}

	sv.mu.Lock()
	pids := make([]int, 0, len(sv.children))
	for pid := range sv.children {
		pids = append(pids, pid)
		sv.toKill[pid] = struct{}{}
	}
	sv.mu.Unlock()

	for _, pid := range pids {
		if p, err := os.FindProcess(pid); err == nil {
			_ = p.Signal(syscall.SIGTERM)
		}
	}

	deadline := time.After(5 * time.Second)
	for {
		sv.mu.Lock()
		remaining := len(sv.toKill)
		sv.mu.Unlock()
		if remaining == 0 {
			break
		}
		select {
		case <-deadline:
			sv.mu.Lock()
			for pid := range sv.toKill {
				if p, err := os.FindProcess(pid); err == nil {
					_ = p.Kill()
				}
			}
			sv.mu.Unlock()
			sv.setState(StateExited)
			return
		case <-time.After(50 * time.Millisecond):
		}
	}

	sv.setState(StateExited)
}
