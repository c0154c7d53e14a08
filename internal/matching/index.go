package matching

import (
	"context"
	"sort"
	"sync"

	"lifelink/pkg/types"

	"github.com/samber/lo"
)

// DonorPredicate selects donors during a nearest search. It is a plain value
// so storage-backed indexes can translate it into a query.
type DonorPredicate struct {
	BloodTypes   []types.BloodType
	EligibleOnly bool
}

func (p DonorPredicate) Matches(d *types.DonorProfile) bool {
	if len(p.BloodTypes) > 0 && !lo.Contains(p.BloodTypes, d.BloodType) {
		return false
	}
	if p.EligibleOnly && !d.Eligible() {
		return false
	}
	return true
}

// GeoIndex answers "donors within radius of origin matching predicate",
// nearest first.
type GeoIndex interface {
	Nearest(ctx context.Context, origin types.Point, radiusMeters float64, predicate DonorPredicate) ([]*types.DonorMatch, error)
}

// MemoryIndex is a GeoIndex over an in-memory donor list. Equal distances
// keep insertion order.
type MemoryIndex struct {
	mu     sync.RWMutex
	donors []types.DonorProfile
}

func NewMemoryIndex(donors ...*types.Donor) *MemoryIndex {
	idx := &MemoryIndex{}
	for _, d := range donors {
		idx.Add(d)
	}
	return idx
}

// Add stores a copy of the donor's public profile.
func (m *MemoryIndex) Add(d *types.Donor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.donors = append(m.donors, d.DonorProfile)
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.donors)
}

func (m *MemoryIndex) Nearest(ctx context.Context, origin types.Point, radiusMeters float64, predicate DonorPredicate) ([]*types.DonorMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]*types.DonorMatch, 0)
	for i := range m.donors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d := m.donors[i]
		if !predicate.Matches(&d) {
			continue
		}

		distance := DistanceMeters(origin, d.Point)
		if distance > radiusMeters {
			continue
		}

		matches = append(matches, &types.DonorMatch{DonorProfile: d, DistanceMeters: distance})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceMeters < matches[j].DistanceMeters
	})

	return matches, nil
}
