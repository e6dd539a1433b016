// Package rtk implements the fusion step of spec.md §4.G: for each
// rover batch, snapshot the base's observables and assistance data,
// build an RTK problem, and hand it to an external RTK engine.
//
// The RTK positioning numerics themselves are out of scope (spec.md
// §1): "we treat the RTK engine as an external library with a defined
// input shape ... and output". Engine and the ObsD/Nav/Eph/Alm/Sol
// types below are that defined shape, mirrored after
// FengXuebin-gnssgo's Rtk/PrcOpt/ObsD/Nav/Eph/Alm/Sol types (the
// pack's RTKLIB-derived GNSS library) and its
// (rtk *Rtk) InitRtk(opt *PrcOpt) / (rtk *Rtk) RtkPos(obs []ObsD, n
// int, nav *Nav) int call shape, so a real solver from that library
// (or any RTKLIB-compatible one) can be substituted by implementing
// Engine without touching the fuser.
package rtk

// Gtime mirrors RTKLIB's time_t-based time representation.
type Gtime struct {
	Time int64   // seconds
	Sec  float64 // fractional second
}

// ObsD is one receiver's one-satellite observation for a single
// frequency (spec.md's fuser runs with nf=1, GPS L1 only).
type ObsD struct {
	Time Gtime
	Sat  int // satellite number (PRN)
	Rcv  int // 1=rover, 2=base
	Code int // signal code, CodeL1CA
	L    float64 // carrier phase, cycles
	P    float64 // pseudorange, m
	D    float64 // Doppler, Hz
}

// CodeL1CA is RTKLIB's code for GPS L1 C/A.
const CodeL1CA = 1

// Eph mirrors RTKLIB's eph_t.
type Eph struct {
	Sat, Iode, Iodc, Sva, Svh, Week, Code, Flag int
	Toe, Toc, Ttr                               Gtime
	A, E, I0, OMG0, Omg, M0, Deln, OMGd, Idot   float64
	Crc, Crs, Cuc, Cus, Cic, Cis                float64
	Toes, Fit                                   float64
	F0, F1, F2                                  float64
	Tgd                                         [6]float64
}

// Alm mirrors RTKLIB's alm_t.
type Alm struct {
	Sat, Svh, SvConf, Week int
	Toa                    Gtime
	A, E, I0, OMG0, Omg, M0, OMGd float64
	Toas, F0, F1                  float64
}

// Nav mirrors RTKLIB's nav_t, restricted to the fields the fuser
// populates (spec.md §4.G steps 6-9).
type Nav struct {
	Ephs []Eph
	Alm  []Alm

	// Ion_gps: {a0,a1,a2,a3,b0,b1,b2,b3}
	Ion_gps [8]float64
	IonValid bool

	// Utc_gps: {A0,A1,Tot,WNt,dt_LS,WN_LSF,DN,dt_LSF}
	Utc_gps [8]float64
	UtcValid bool
}

// PrcOpt mirrors RTKLIB's prcopt_t, restricted to the two fields
// spec.md §4.G sets at construction.
type PrcOpt struct {
	Mode int
	Nf   int
}

// RTK processing modes (RTKLIB's PMODE_*).
const (
	ModeFixed = 3
)

// Sol mirrors RTKLIB's sol_t position/velocity result.
type Sol struct {
	Rr [6]float64 // {x,y,z,vx,vy,vz} ecef
}

// Rtk mirrors RTKLIB's rtk_t control/result type, restricted to what
// the fuser reads back.
type Rtk struct {
	Opt    PrcOpt
	RtkSol Sol
	Rb     [6]float64 // base position/velocity
}

// Engine is the external RTK solver contract: Init, then Process one
// batch of observations against navigation data, then Close. Fuser.Fuse
// runs that whole sequence for every rover batch, so no engine state
// carries over from one batch to the next. A false return from Process
// means the batch failed to solve (spec.md §4.G step 10, RtkFailure).
type Engine interface {
	Init(opt PrcOpt)
	Process(obs []ObsD, nav *Nav) bool
	Solution() Sol
	BaseState() [6]float64
	Close()
}
