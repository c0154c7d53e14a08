package registration

import (
	"context"
	"time"

	"lifelink/pkg/types"
)

type DonorRepository interface {
	Donor(ctx context.Context, donorID string) (*types.Donor, error)
	DonorByEmailOrPhone(ctx context.Context, email, phone string) (*types.Donor, error)
	Donors(ctx context.Context) ([]*types.DonorProfile, error)
	CreateDonor(ctx context.Context, donor *types.Donor) error
	MarkDonorVerified(ctx context.Context, donorID string, otp *string, now time.Time) (*types.Donor, error)
	SetDonorAvailability(ctx context.Context, donorID string, available bool) (*types.Donor, error)
}

type PatientRepository interface {
	Patients(ctx context.Context) ([]*types.Patient, error)
	CreatePatient(ctx context.Context, patient *types.Patient) error
}

// RequestCreator opens the emergency request that accompanies a new patient.
type RequestCreator interface {
	Create(ctx context.Context, in types.CreateRequestInput) (*types.EmergencyRequest, error)
}

// Mirror receives every newly inserted record.
type Mirror interface {
	AppendDonor(donor *types.DonorProfile) error
	AppendPatient(patient *types.Patient) error
}

// PasscodeSender delivers the onboarding passcode to a donor.
type PasscodeSender interface {
	SendPasscode(ctx context.Context, donor *types.DonorProfile, code string, expires time.Time) error
}
