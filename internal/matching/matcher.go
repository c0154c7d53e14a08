package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifelink/internal/metrics"
	"lifelink/pkg/types"

	"github.com/sirupsen/logrus"
)

type PatientLookup interface {
	Patient(ctx context.Context, patientID string) (*types.Patient, error)
}

// Matcher ranks eligible, compatible donors around a patient.
type Matcher struct {
	logger   *logrus.Logger
	patients PatientLookup
	index    GeoIndex
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func NewMatcher(logger *logrus.Logger, patients PatientLookup, index GeoIndex, m *metrics.Metrics, queryTimeout time.Duration) *Matcher {
	return &Matcher{
		logger:   logger,
		patients: patients,
		index:    index,
		metrics:  m,
		timeout:  queryTimeout,
	}
}

// FindMatches returns donors within radiusMeters of the patient that can
// give to the patient's blood type and are verified and available, nearest
// first. No matches is an empty slice, not an error.
func (m *Matcher) FindMatches(ctx context.Context, patientID string, radiusMeters float64) ([]*types.DonorMatch, error) {
	matches, err := m.findMatches(ctx, patientID, radiusMeters)
	m.metrics.ObserveMatch(len(matches), err)
	return matches, err
}

func (m *Matcher) findMatches(ctx context.Context, patientID string, radiusMeters float64) ([]*types.DonorMatch, error) {
	if !types.ValidRadius(radiusMeters) {
		return nil, types.ErrInvalidRadius
	}

	patient, err := m.patients.Patient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	compatible, err := CompatibleDonorTypes(patient.BloodType)
	if err != nil {
		return nil, fmt.Errorf("patient %s: %w", patient.ID, err)
	}

	queryCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	matches, err := m.index.Nearest(queryCtx, patient.Point, radiusMeters, DonorPredicate{
		BloodTypes:   compatible,
		EligibleOnly: true,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			m.logger.WithField("patient_id", patientID).Warn("nearest donor query timed out")
		}
		return nil, fmt.Errorf("nearest donor query: %w: %w", types.ErrUpstream, err)
	}

	m.logger.WithFields(logrus.Fields{
		"patient_id":    patientID,
		"blood_type":    patient.BloodType,
		"radius_meters": radiusMeters,
		"matches":       len(matches),
	}).Debug("donor match search")

	return matches, nil
}
