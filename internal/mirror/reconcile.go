package mirror

import (
	"context"
	"errors"

	"lifelink/pkg/types"
)

type DonorStore interface {
	DonorByEmailOrPhone(ctx context.Context, email, phone string) (*types.Donor, error)
	CreateDonor(ctx context.Context, donor *types.Donor) error
	UpdateDonor(ctx context.Context, donor *types.Donor) error
}

type PatientStore interface {
	PatientByEmailOrPhone(ctx context.Context, email, phone string) (*types.Patient, error)
	CreatePatient(ctx context.Context, patient *types.Patient) error
	UpdatePatient(ctx context.Context, patient *types.Patient) error
}

// Stores is the primary store as seen by an import.
type Stores struct {
	Donors   DonorStore
	Patients PatientStore
}

// reconcileDonor applies an imported row by natural key: a donor sharing the
// row's email or phone is overwritten with the row's values, otherwise the
// row is inserted. It reports whether a new donor was created.
func reconcileDonor(ctx context.Context, store DonorStore, row *types.Donor) (bool, error) {
	existing, err := store.DonorByEmailOrPhone(ctx, row.Email, row.Phone)
	if errors.Is(err, types.ErrNotFound) {
		row.ID = ""
		return true, store.CreateDonor(ctx, row)
	}
	if err != nil {
		return false, err
	}

	existing.Name = row.Name
	existing.Email = row.Email
	existing.Phone = row.Phone
	existing.BloodType = row.BloodType
	existing.Location = row.Location
	existing.Verified = row.Verified
	existing.OTPVerified = row.OTPVerified
	existing.Availability = row.Availability
	if existing.Verified && existing.OTPVerified {
		existing.OTP = nil
		existing.OTPExpires = nil
	}

	return false, store.UpdateDonor(ctx, existing)
}

// reconcilePatient is reconcileDonor for patients.
func reconcilePatient(ctx context.Context, store PatientStore, row *types.Patient) (bool, error) {
	existing, err := store.PatientByEmailOrPhone(ctx, row.Email, row.Phone)
	if errors.Is(err, types.ErrNotFound) {
		row.ID = ""
		return true, store.CreatePatient(ctx, row)
	}
	if err != nil {
		return false, err
	}

	existing.Name = row.Name
	existing.Email = row.Email
	existing.Phone = row.Phone
	existing.BloodType = row.BloodType
	existing.Location = row.Location
	existing.Urgency = row.Urgency

	return false, store.UpdatePatient(ctx, existing)
}
