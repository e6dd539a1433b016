// Package session implements the per-station observable stream of
// spec.md §4.F: each station's SDR worker connects back on a UNIX
// domain socket and writes a continuous, unframed stream of
// gnssdata.Observable records.
package session

import (
	"errors"
	"io"
	"net"
	"os"

	"go.uber.org/zap"

	"github.com/idaohang/genesis/internal/gnssdata"
	"github.com/idaohang/genesis/internal/rtk"
	"github.com/idaohang/genesis/internal/station"
)

// minBufSize is the read buffer floor spec.md §4.F requires, counted
// in Observable records (the buffer is minBufSize*ObservableSize
// bytes), so a single Read syscall can usually drain a full batch.
const minBufSize = 32

// Session owns one station's socket connection for its lifetime: read
// batches out of it, dispatch them, and remove the station from the
// registry when the connection ends.
type Session struct {
	Station  station.Station
	Registry *station.Registry
	Fuser    *rtk.Fuser
	Log      *zap.Logger

	// OnSolution, if set, is called with every successfully fused rover
	// solution (the supplemented solution-trace export feature).
	OnSolution func(st station.Station, sol rtk.Sol)

	// OnFusionFailure, if set, is called whenever a rover batch fails to
	// produce a solution (excluding the routine no-base-station case).
	OnFusionFailure func(st station.Station)
}

// Listen replaces any stale socket file at path and starts listening.
func Listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return net.Listen("unix", path)
}

// Serve reads conn until EOF or a read error, extracting whole
// Observable records as they accumulate and dispatching each batch
// (spec.md §4.F steps 2-4). It always removes the station from the
// registry before returning, even on error, so removal is safe to call
// again from elsewhere (spec.md's idempotent-remove invariant).
func (s *Session) Serve(conn net.Conn) error {
	defer conn.Close()
	defer func() { _ = s.Registry.Remove(s.Station) }()

	read := make([]byte, minBufSize*gnssdata.ObservableSize)
	var buf []byte

	for {
		n, err := conn.Read(read)
		if n > 0 {
			buf = append(buf, read[:n]...)
			batch, consumed, derr := gnssdata.DecodeObservables(buf)
			if derr != nil {
				return derr
			}
			buf = buf[consumed:]
			if len(batch) > 0 {
				s.dispatch(batch)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (s *Session) dispatch(batch []gnssdata.Observable) {
	if s.Station.Type == station.Base {
		s.Registry.SetBaseObservables(batch)
		return
	}

	if s.Fuser == nil {
		return
	}
	sol, err := s.Fuser.Fuse(s.Station, batch)
	if err != nil {
		if errors.Is(err, rtk.ErrNoBaseStation) {
			s.Log.Debug("dropping rover batch, no base station", zap.String("station", s.Station.Address))
		} else {
			s.Log.Warn("rtk fusion failed", zap.String("station", s.Station.Address), zap.Error(err))
			if s.OnFusionFailure != nil {
				s.OnFusionFailure(s.Station)
			}
		}
		return
	}
	s.Log.Debug("fused rover solution",
		zap.String("station", s.Station.Address),
		zap.Float64("x", sol.Rr[0]), zap.Float64("y", sol.Rr[1]), zap.Float64("z", sol.Rr[2]))
	if s.OnSolution != nil {
		s.OnSolution(s.Station, sol)
	}
}
