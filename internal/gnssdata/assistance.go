package gnssdata

// Ephemeris mirrors the subset of RTKLIB's eph_t fields the RTK fuser
// consumes (spec.md §4.G step 6), named and shaped after
// FengXuebin-gnssgo's Eph type and the original Gps_Ephemeris record
// referenced from original_source/src/position.cpp.
type Ephemeris struct {
	PRN      int
	IODC     int
	IODE     int
	SVAccuracy int
	SVHealth int
	GPSWeek  int
	CodeOnL2 int
	L2PFlag  bool

	TOW float64 // time of week the record was received, seconds
	Toc float64 // clock reference time, seconds of week

	SqrtA        float64
	Eccentricity float64
	I0           float64
	OMEGA0       float64
	OMEGA        float64
	M0           float64
	DeltaN       float64
	OMEGADot     float64
	IDOT         float64

	Crc, Crs, Cuc, Cus, Cic, Cis float64

	FitIntervalFlag bool
	Af0, Af1, Af2   float64
	TGD             float64

	// Dtr is the relativistic clock correction term folded into the
	// clock-bias correction at fusion time (spec.md §4.G step 6's
	// `corr = ((Af2·dt+Af1)·dt+Af0) + dtr`).
	Dtr float64
}

// Almanac mirrors RTKLIB's alm_t. It has no I0 field: the fuser always
// sets the engine's almanac I0 to 0, as the original source did at a
// "// fixme" and spec.md §9 preserves pending a domain decision.
type Almanac struct {
	PRN          int
	SVHealth     int
	GPSWeek      int
	Toa          float64
	SqrtA        float64
	Eccentricity float64
	OMEGA0       float64
	OMEGA        float64
	M0           float64
	OMEGADot     float64
	Toas         float64
	Af0, Af1     float64
}

// UTCModel mirrors the GPS delta-UTC parameter set.
type UTCModel struct {
	A0, A1      float64
	Tot         float64
	WeekNumberT int
	LeapSeconds int
	Valid       bool
}

// Iono mirrors the GPS Klobuchar ionospheric model parameters.
type Iono struct {
	Alpha [4]float64
	Beta  [4]float64
	Valid bool
}

// RefTime is the record backing the well-known
// "GNSS-SDR.base.gps_ref_time" map (and each rover's own "ref_time"
// map): a GPS time-of-week reference the SDR worker publishes
// alongside its observables.
type RefTime struct {
	Sec  int64 // seconds since GPS epoch
	USec int64 // microsecond remainder
	Week int
}
