package rtk

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/idaohang/genesis/internal/gnssdata"
	"github.com/idaohang/genesis/internal/sharedmap"
	"github.com/idaohang/genesis/internal/station"
)

type fakeEngine struct {
	initialized bool
	gotObs      []ObsD
	gotNav      *Nav
	succeed     bool
	sol         Sol
}

func (f *fakeEngine) Init(PrcOpt)          { f.initialized = true }
func (f *fakeEngine) Process(obs []ObsD, nav *Nav) bool {
	f.gotObs = obs
	f.gotNav = nav
	return f.succeed
}
func (f *fakeEngine) Solution() Sol         { return f.sol }
func (f *fakeEngine) BaseState() [6]float64 { return [6]float64{} }
func (f *fakeEngine) Close()                {}

func newTestFuser(engine Engine) (*Fuser, *station.Registry, *sharedmap.Registry) {
	assist := sharedmap.NewRegistry()
	registry := station.NewRegistry(assist)
	return &Fuser{Registry: registry, Assist: assist, Engine: engine, Log: zap.NewNop()}, registry, assist
}

func TestFuseNoBaseStation(t *testing.T) {
	fuser, _, _ := newTestFuser(&fakeEngine{succeed: true})
	rover := station.Station{Type: station.Rover, Address: "10.0.0.2", Port: 1}
	_, err := fuser.Fuse(rover, []gnssdata.Observable{{PRN: 1}})
	if !errors.Is(err, ErrNoBaseStation) {
		t.Fatalf("err = %v, want ErrNoBaseStation", err)
	}
}

func TestFuseSucceedsAndProjectsObservations(t *testing.T) {
	engine := &fakeEngine{succeed: true, sol: Sol{Rr: [6]float64{1, 2, 3, 0, 0, 0}}}
	fuser, registry, _ := newTestFuser(engine)

	base := station.Station{Type: station.Base, Address: "10.0.0.1", Port: 1}
	if err := registry.Add(base); err != nil {
		t.Fatalf("Add(base): %v", err)
	}
	registry.SetBaseObservables([]gnssdata.Observable{{PRN: 7, GPSWeek: 2300, TOWSec: 10, PseudorangeM: 100}})

	rover := station.Station{Type: station.Rover, Address: "10.0.0.2", Port: 1}
	sol, err := fuser.Fuse(rover, []gnssdata.Observable{{PRN: 7, GPSWeek: 2300, TOWSec: 10, PseudorangeM: 101}})
	if err != nil {
		t.Fatalf("Fuse: %v", err)
	}
	if sol != engine.sol {
		t.Fatalf("Fuse() = %+v, want %+v", sol, engine.sol)
	}
	if !engine.initialized {
		t.Fatal("engine was never initialized")
	}
	if len(engine.gotObs) != 2 {
		t.Fatalf("len(gotObs) = %d, want 2 (one base, one rover)", len(engine.gotObs))
	}
	// Ordered receiver-then-satellite: rover (Rcv=1) first.
	if engine.gotObs[0].Rcv != 1 || engine.gotObs[1].Rcv != 2 {
		t.Fatalf("gotObs not ordered receiver-then-satellite: %+v", engine.gotObs)
	}
}

func TestFuseEngineFailureReturnsRtkFailure(t *testing.T) {
	engine := &fakeEngine{succeed: false}
	fuser, registry, _ := newTestFuser(engine)
	base := station.Station{Type: station.Base, Address: "10.0.0.1", Port: 1}
	if err := registry.Add(base); err != nil {
		t.Fatalf("Add(base): %v", err)
	}
	registry.SetBaseObservables([]gnssdata.Observable{{PRN: 1}})

	rover := station.Station{Type: station.Rover, Address: "10.0.0.2", Port: 1}
	_, err := fuser.Fuse(rover, []gnssdata.Observable{{PRN: 1}})
	if !errors.Is(err, ErrRtkFailure) {
		t.Fatalf("err = %v, want ErrRtkFailure", err)
	}
}

func TestBuildObsDDedupsLastWriteWins(t *testing.T) {
	base := []gnssdata.Observable{{PRN: 1, PseudorangeM: 10}, {PRN: 1, PseudorangeM: 20}}
	out := buildObsD(base, nil, gnssdata.RefTime{}, gnssdata.RefTime{})
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].P != 20 {
		t.Fatalf("P = %v, want 20 (last write wins)", out[0].P)
	}
}

func TestAdjWeekFoldsAcrossBoundary(t *testing.T) {
	// toc far ahead of t by more than half a week should fold back.
	got := adjWeek(0, secondsPerWeek-100)
	if got != -100 {
		t.Fatalf("adjWeek() = %v, want -100", got)
	}
}

func TestBuildObsDConvertsCarrierPhaseToCycles(t *testing.T) {
	base := []gnssdata.Observable{{PRN: 1, CarrierPhaseRad: math.Pi}}
	out := buildObsD(base, nil, gnssdata.RefTime{}, gnssdata.RefTime{})
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if want := 0.5; math.Abs(out[0].L-want) > 1e-12 {
		t.Fatalf("L = %v, want %v (pi rad / 2pi = 0.5 cycles)", out[0].L, want)
	}
}

func TestToEphAppliesClockBiasCorrection(t *testing.T) {
	e := gnssdata.Ephemeris{
		PRN: 3, GPSWeek: 2300,
		TOW: 100, Toc: 0,
		Af0: 1e-4, Af1: 1e-8, Af2: 0, Dtr: 2e-5,
	}
	eph := toEph(e)

	dt := e.TOW - e.Toc
	wantCorr := (e.Af2*dt+e.Af1)*dt + e.Af0 + e.Dtr
	wantTtr := gpsTime(e.GPSWeek, e.TOW-wantCorr)
	if eph.Ttr != wantTtr {
		t.Fatalf("Ttr = %+v, want %+v (TOW - corr)", eph.Ttr, wantTtr)
	}
	if eph.Toes != e.TOW {
		t.Fatalf("Toes = %v, want %v (= TOW)", eph.Toes, e.TOW)
	}
}

func TestToEphCopiesFitIntervalFlag(t *testing.T) {
	if got := toEph(gnssdata.Ephemeris{FitIntervalFlag: true}).Fit; got != 1 {
		t.Fatalf("Fit = %v, want 1", got)
	}
	if got := toEph(gnssdata.Ephemeris{FitIntervalFlag: false}).Fit; got != 0 {
		t.Fatalf("Fit = %v, want 0", got)
	}
}

func TestBuildNavReadsOnlyRoverDictionaries(t *testing.T) {
	fuser, _, assist := newTestFuser(&fakeEngine{})
	rover := station.Station{Type: station.Rover, Address: "10.0.0.2", Port: 1}

	baseEph := sharedmap.For[gnssdata.Ephemeris](assist, sharedmap.BaseName(sharedmap.KindEphemeris))
	baseEph.Write(1, gnssdata.Ephemeris{PRN: 1})

	roverEph := sharedmap.For[gnssdata.Ephemeris](assist, sharedmap.StationName(rover.Address, sharedmap.KindEphemeris))
	roverEph.Write(2, gnssdata.Ephemeris{PRN: 2})

	nav := fuser.buildNav(rover)
	if len(nav.Ephs) != 1 || nav.Ephs[0].Sat != 2 {
		t.Fatalf("Ephs = %+v, want only the rover's PRN 2 entry", nav.Ephs)
	}
}
