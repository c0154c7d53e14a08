package seed

import (
	"context"
	"errors"
	"fmt"
	"math"

	"lifelink/pkg/types"

	"github.com/sirupsen/logrus"
)

type DonorStore interface {
	Donor(ctx context.Context, donorID string) (*types.Donor, error)
	CreateDonor(ctx context.Context, donor *types.Donor) error
	UpdateDonor(ctx context.Context, donor *types.Donor) error
}

type PatientStore interface {
	Patient(ctx context.Context, patientID string) (*types.Patient, error)
	CreatePatient(ctx context.Context, patient *types.Patient) error
	UpdatePatient(ctx context.Context, patient *types.Patient) error
}

// Appender receives every newly created record, normally the xlsx mirror.
type Appender interface {
	AppendDonor(donor *types.DonorProfile) error
	AppendPatient(patient *types.Patient) error
}

const metersPerDegree = 111320.0

// offset moves origin north and east by the given meters. Accurate enough
// for demo data within a few kilometers.
func offset(origin types.Point, northMeters, eastMeters float64) types.Point {
	lat := origin.Latitude + northMeters/metersPerDegree
	lng := origin.Longitude + eastMeters/(metersPerDegree*math.Cos(origin.Latitude*math.Pi/180))
	return types.Point{Longitude: lng, Latitude: lat}
}

type Result struct {
	Created int
	Updated int
}

// Donors syncs the demo donors around origin. Records are keyed by their
// fixed ids: new ones are created, existing ones are overwritten.
//
// To generate new IDs: `go run ./cmd/lifelink nanoid`
func Donors(ctx context.Context, logger *logrus.Logger, store DonorStore, mirror Appender, origin types.Point) (Result, error) {
	var res Result

	for _, seed := range demoDonors {
		donor := seed.donor(origin)

		_, err := store.Donor(ctx, donor.ID)
		if err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				return res, fmt.Errorf("failed to fetch demo donor %s: %w", donor.ID, err)
			}

			if err := store.CreateDonor(ctx, donor); err != nil {
				return res, fmt.Errorf("failed to create demo donor %s: %w", donor.ID, err)
			}
			res.Created++

			if mirror != nil {
				if err := mirror.AppendDonor(&donor.DonorProfile); err != nil {
					logger.WithError(err).WithField("donor_id", donor.ID).Warn("failed to append demo donor to mirror")
				}
			}
			continue
		}

		if err := store.UpdateDonor(ctx, donor); err != nil {
			return res, fmt.Errorf("failed to update demo donor %s: %w", donor.ID, err)
		}
		res.Updated++
	}

	logger.WithFields(logrus.Fields{
		"created": res.Created,
		"updated": res.Updated,
	}).Info("demo donors seeded")

	return res, nil
}

func Patients(ctx context.Context, logger *logrus.Logger, store PatientStore, mirror Appender, origin types.Point) (Result, error) {
	var res Result

	for _, seed := range demoPatients {
		patient := seed.patient(origin)

		_, err := store.Patient(ctx, patient.ID)
		if err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				return res, fmt.Errorf("failed to fetch demo patient %s: %w", patient.ID, err)
			}

			if err := store.CreatePatient(ctx, patient); err != nil {
				return res, fmt.Errorf("failed to create demo patient %s: %w", patient.ID, err)
			}
			res.Created++

			if mirror != nil {
				if err := mirror.AppendPatient(patient); err != nil {
					logger.WithError(err).WithField("patient_id", patient.ID).Warn("failed to append demo patient to mirror")
				}
			}
			continue
		}

		if err := store.UpdatePatient(ctx, patient); err != nil {
			return res, fmt.Errorf("failed to update demo patient %s: %w", patient.ID, err)
		}
		res.Updated++
	}

	logger.WithFields(logrus.Fields{
		"created": res.Created,
		"updated": res.Updated,
	}).Info("demo patients seeded")

	return res, nil
}
