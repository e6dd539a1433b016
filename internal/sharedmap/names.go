package sharedmap

import "fmt"

// Kind enumerates the assistance-data dictionary kinds named in
// spec.md §3.
type Kind string

const (
	KindEphemeris Kind = "ephemeris"
	KindIono      Kind = "iono"
	KindUTC       Kind = "utc"
	KindAlmanac   Kind = "almanac"
	KindRefTime   Kind = "ref_time"
)

// BaseName returns the well-known name for the base's dictionary of
// the given kind: "genesis.base.<kind>".
func BaseName(kind Kind) string {
	return fmt.Sprintf("genesis.base.%s", kind)
}

// StationName returns the well-known name for a rover's dictionary of
// the given kind: "genesis.<address>.<kind>".
func StationName(address string, kind Kind) string {
	return fmt.Sprintf("genesis.%s.%s", address, kind)
}
