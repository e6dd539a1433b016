package station

import (
	"sync"

	"github.com/idaohang/genesis/internal/gnssdata"
	"github.com/idaohang/genesis/internal/sharedmap"
)

// BaseRefTimeName is the well-known shared-map name for the base
// station's reference-time handle (spec.md §4.A, §6).
const BaseRefTimeName = "GNSS-SDR.base.gps_ref_time"

// Registry is the supervisor's single source of truth for admitted
// stations. It enforces at-most-one base, uniqueness of rovers, and
// base/rover exclusivity by address (spec.md §3, §4.A).
//
// The spec calls for one recursive mutex guarding the whole registry.
// Go's sync.Mutex is not reentrant, so instead every exported method
// that reads or changes registry state takes the lock exactly once and
// none calls another exported method while holding it — the same "every operation is serialized" contract
// without the deadlock risk a real recursive mutex would paper over.
type Registry struct {
	mu sync.Mutex

	base    *Station
	rovers  map[string]Station
	baseObs []gnssdata.Observable

	refTimes *sharedmap.Registry
}

// NewRegistry constructs an empty registry. refTimes backs the
// lazily-created base reference-time handle (spec.md §4.A
// base_ref_time).
func NewRegistry(refTimes *sharedmap.Registry) *Registry {
	return &Registry{
		rovers:   make(map[string]Station),
		refTimes: refTimes,
	}
}

// Add admits st, enforcing the invariants of spec.md §4.A.
func (r *Registry) Add(st Station) error {
	if err := st.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch st.Type {
	case Rover:
		if r.base != nil && r.base.Identity() == st.Identity() {
			return ErrStationIsBase
		}
		if _, ok := r.rovers[st.Identity()]; ok {
			return ErrStationExists
		}
		r.rovers[st.Identity()] = st
		return nil

	case Base:
		if r.base != nil {
			if r.base.Identity() == st.Identity() {
				return ErrStationIsBase
			}
			return ErrBaseAlreadySet
		}
		if _, ok := r.rovers[st.Identity()]; ok {
			return ErrStationIsRover
		}
		b := st
		r.base = &b
		r.baseObs = nil
		if r.refTimes != nil {
			r.refTimes.Drop(BaseRefTimeName)
		}
		return nil

	default:
		return ErrInvalidStation
	}
}

// Remove drops st from the registry. Idempotent: removing a station
// twice returns ErrStationNotFound the second time.
func (r *Registry) Remove(st Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(st)
}

func (r *Registry) removeLocked(st Station) error {
	if r.base != nil && r.base.Identity() == st.Identity() {
		r.base = nil
		r.baseObs = nil
		if r.refTimes != nil {
			r.refTimes.Drop(BaseRefTimeName)
		}
		return nil
	}
	if _, ok := r.rovers[st.Identity()]; ok {
		delete(r.rovers, st.Identity())
		if r.refTimes != nil {
			for _, kind := range []sharedmap.Kind{sharedmap.KindEphemeris, sharedmap.KindIono, sharedmap.KindUTC, sharedmap.KindAlmanac, sharedmap.KindRefTime} {
				r.refTimes.Drop(sharedmap.StationName(st.Address, kind))
			}
		}
		return nil
	}
	return ErrStationNotFound
}

// HasBase reports whether the base slot is populated.
func (r *Registry) HasBase() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.base != nil
}

// Base returns a copy of the current base station, if any.
func (r *Registry) Base() (Station, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.base == nil {
		return Station{}, false
	}
	return *r.base, true
}

// Rovers returns a snapshot of the current rover set.
func (r *Registry) Rovers() []Station {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Station, 0, len(r.rovers))
	for _, s := range r.rovers {
		out = append(out, s)
	}
	return out
}

// BaseObservables returns a value copy of the last batch produced by
// the base worker.
func (r *Registry) BaseObservables() []gnssdata.Observable {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]gnssdata.Observable, len(r.baseObs))
	copy(out, r.baseObs)
	return out
}

// SetBaseObservables replaces the cached base observable batch.
func (r *Registry) SetBaseObservables(obs []gnssdata.Observable) {
	cp := make([]gnssdata.Observable, len(obs))
	copy(cp, obs)
	r.mu.Lock()
	r.baseObs = cp
	r.mu.Unlock()
}

// BaseRefTime lazily creates (if necessary) and returns the shared-map
// handle for the base's reference time.
func (r *Registry) BaseRefTime() *sharedmap.Map[gnssdata.RefTime] {
	return sharedmap.For[gnssdata.RefTime](r.refTimes, BaseRefTimeName)
}
