package rtk

import (
	"errors"
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/idaohang/genesis/internal/gnssdata"
	"github.com/idaohang/genesis/internal/sharedmap"
	"github.com/idaohang/genesis/internal/station"
)

// Errors returned by Fuser.Fuse (spec.md §4.G step 10, §7).
var (
	ErrNoBaseStation = errors.New("rtk: no base station admitted")
	ErrRtkFailure    = errors.New("rtk: engine failed to produce a solution")
)

// gpsEpoch is the number of Unix seconds at the start of the GPS
// epoch (1980-01-06T00:00:00Z), used to turn (week, tow) into Gtime.
const gpsEpoch int64 = 315964800

// secondsPerWeek is the number of seconds in a GPS week.
const secondsPerWeek = 604800

// Fuser turns a rover's observable batch plus the base's last-known
// batch and the assistance-data dictionaries into one RTK solution
// (spec.md §4.G).
type Fuser struct {
	Registry *station.Registry
	Assist   *sharedmap.Registry
	Engine   Engine
	Log      *zap.Logger
}

// Fuse runs the full fusion procedure for one rover batch.
func (f *Fuser) Fuse(rover station.Station, batch []gnssdata.Observable) (Sol, error) {
	if !f.Registry.HasBase() {
		return Sol{}, ErrNoBaseStation
	}
	baseObs := f.Registry.BaseObservables()
	if len(baseObs) == 0 {
		return Sol{}, ErrNoBaseStation
	}

	baseRefTime, _ := f.Registry.BaseRefTime().Read(0)
	roverRefTimeMap := sharedmap.For[gnssdata.RefTime](f.Assist, sharedmap.StationName(rover.Address, sharedmap.KindRefTime))
	roverRefTime, _ := roverRefTimeMap.Read(0)

	obs := buildObsD(baseObs, batch, baseRefTime, roverRefTime)
	nav := f.buildNav(rover)

	opt := PrcOpt{Mode: ModeFixed, Nf: 1}
	f.Engine.Init(opt)
	defer f.Engine.Close()

	if ok := f.Engine.Process(obs, nav); !ok {
		return Sol{}, ErrRtkFailure
	}
	return f.Engine.Solution(), nil
}

// buildObsD projects base and rover batches into ObsD, deduplicated by
// (receiver, PRN) with last-write-wins, ordered receiver-then-satellite
// (spec.md §4.G steps 3-5).
func buildObsD(baseObs, roverObs []gnssdata.Observable, baseRefTime, roverRefTime gnssdata.RefTime) []ObsD {
	type key struct {
		rcv int
		prn uint32
	}
	byKey := make(map[key]ObsD)

	project := func(batch []gnssdata.Observable, rcv int, ref gnssdata.RefTime) {
		for _, o := range batch {
			week := int(o.GPSWeek)
			if week == 0 {
				week = ref.Week
			}
			byKey[key{rcv: rcv, prn: o.PRN}] = ObsD{
				Time: gpsTime(week, o.TOWSec),
				Sat:  int(o.PRN),
				Rcv:  rcv,
				Code: CodeL1CA,
				L:    o.CarrierPhaseRad / (2 * math.Pi),
				P:    o.PseudorangeM,
				D:    o.CarrierDopplerHz,
			}
		}
	}
	project(baseObs, 2, baseRefTime)
	project(roverObs, 1, roverRefTime)

	out := make([]ObsD, 0, len(byKey))
	for _, v := range byKey {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b ObsD) int {
		if a.Rcv != b.Rcv {
			return a.Rcv - b.Rcv
		}
		return a.Sat - b.Sat
	})
	return out
}

// gpsTime converts a (week, time-of-week) pair into Gtime.
func gpsTime(week int, tow float64) Gtime {
	whole := int64(tow)
	frac := tow - float64(whole)
	return Gtime{
		Time: gpsEpoch + int64(week)*secondsPerWeek + whole,
		Sec:  frac,
	}
}

// buildNav assembles the Nav the engine needs from the rover's
// assistance-data dictionaries (spec.md §4.G steps 6-9): every
// ephemeris and almanac entry currently known for the rover, and the
// rover's own ionospheric/UTC models.
func (f *Fuser) buildNav(rover station.Station) *Nav {
	nav := &Nav{}

	ephRover := sharedmap.For[gnssdata.Ephemeris](f.Assist, sharedmap.StationName(rover.Address, sharedmap.KindEphemeris))
	for _, e := range ephRover.Snapshot() {
		nav.Ephs = append(nav.Ephs, toEph(e))
	}

	almRover := sharedmap.For[gnssdata.Almanac](f.Assist, sharedmap.StationName(rover.Address, sharedmap.KindAlmanac))
	for _, a := range almRover.Snapshot() {
		nav.Alm = append(nav.Alm, toAlm(a))
	}

	ionoMap := sharedmap.For[gnssdata.Iono](f.Assist, sharedmap.StationName(rover.Address, sharedmap.KindIono))
	if iono, ok := ionoMap.Read(0); ok && iono.Valid {
		nav.Ion_gps = [8]float64{iono.Alpha[0], iono.Alpha[1], iono.Alpha[2], iono.Alpha[3], iono.Beta[0], iono.Beta[1], iono.Beta[2], iono.Beta[3]}
		nav.IonValid = true
	}

	utcMap := sharedmap.For[gnssdata.UTCModel](f.Assist, sharedmap.StationName(rover.Address, sharedmap.KindUTC))
	if utc, ok := utcMap.Read(0); ok && utc.Valid {
		nav.Utc_gps = [8]float64{utc.A0, utc.A1, utc.Tot, float64(utc.WeekNumberT), float64(utc.LeapSeconds), 0, 0, 0}
		nav.UtcValid = true
	}

	return nav
}

// toEph converts one assistance-data ephemeris record into the
// engine's Eph shape, applying spec.md §4.G step 6's clock-bias
// correction: dt is TOW-Toc folded to within half a week (the same
// rule RTKLIB's adjweek applies to Toc itself, below), corr folds the
// broadcast clock polynomial and the relativistic term dtr, and Ttr is
// TOW with that correction subtracted.
func toEph(e gnssdata.Ephemeris) Eph {
	toe := gpsTime(e.GPSWeek, e.Toc)
	toc := adjWeek(e.TOW, e.Toc)

	dt := e.TOW - e.Toc
	if dt > secondsPerWeek/2 {
		dt -= secondsPerWeek
	} else if dt < -secondsPerWeek/2 {
		dt += secondsPerWeek
	}
	corr := (e.Af2*dt+e.Af1)*dt + e.Af0 + e.Dtr

	fit := 0.0
	if e.FitIntervalFlag {
		fit = 1
	}

	return Eph{
		Sat:   e.PRN,
		Iode:  e.IODE,
		Iodc:  e.IODC,
		Sva:   e.SVAccuracy,
		Svh:   e.SVHealth,
		Week:  e.GPSWeek,
		Code:  e.CodeOnL2,
		Toe:   toe,
		Toc:   Gtime{Time: gpsEpoch + int64(e.GPSWeek)*secondsPerWeek + int64(toc)},
		Ttr:   gpsTime(e.GPSWeek, e.TOW-corr),
		A:     e.SqrtA * e.SqrtA,
		E:     e.Eccentricity,
		I0:    e.I0,
		OMG0:  e.OMEGA0,
		Omg:   e.OMEGA,
		M0:    e.M0,
		Deln:  e.DeltaN,
		OMGd:  e.OMEGADot,
		Idot:  e.IDOT,
		Crc:   e.Crc,
		Crs:   e.Crs,
		Cuc:   e.Cuc,
		Cus:   e.Cus,
		Cic:   e.Cic,
		Cis:   e.Cis,
		Toes:  e.TOW,
		Fit:   fit,
		F0:    e.Af0,
		F1:    e.Af1,
		F2:    e.Af2,
		Tgd:   [6]float64{e.TGD},
	}
}

// adjWeek folds toc to within half a week of t, RTKLIB's adjweek rule.
func adjWeek(t, toc float64) float64 {
	if toc > t+secondsPerWeek/2 {
		return toc - secondsPerWeek
	}
	if toc < t-secondsPerWeek/2 {
		return toc + secondsPerWeek
	}
	return toc
}

func toAlm(a gnssdata.Almanac) Alm {
	return Alm{
		Sat:  a.PRN,
		Svh:  a.SVHealth,
		Week: a.GPSWeek,
		Toa:  Gtime{Time: gpsEpoch + int64(a.GPSWeek)*secondsPerWeek + int64(a.Toa)},
		A:    a.SqrtA * a.SqrtA,
		E:    a.Eccentricity,
		I0:   0, // spec.md §9: preserved placeholder, see gnssdata.Almanac
		OMG0: a.OMEGA0,
		Omg:  a.OMEGA,
		M0:   a.M0,
		OMGd: a.OMEGADot,
		Toas: a.Toas,
		F0:   a.Af0,
		F1:   a.Af1,
	}
}
