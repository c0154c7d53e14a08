package registration

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifelink/internal/utils"
	"lifelink/pkg/types"

	"github.com/sirupsen/logrus"
)

type Options struct {
	OTPLength int
	OTPTTL    time.Duration
}

// Service onboards donors and patients. Every insert is followed by a
// best-effort mirror append whose failure is logged and never undoes the
// insert.
type Service struct {
	logger    *logrus.Logger
	donors    DonorRepository
	patients  PatientRepository
	requests  RequestCreator
	mirror    Mirror
	passcodes PasscodeSender
	opts      Options
	now       func() time.Time
}

func NewService(logger *logrus.Logger, donors DonorRepository, patients PatientRepository, requests RequestCreator, mirror Mirror, passcodes PasscodeSender, opts Options) *Service {
	if opts.OTPLength <= 0 {
		opts.OTPLength = 6
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}

	return &Service{
		logger:    logger,
		donors:    donors,
		patients:  patients,
		requests:  requests,
		mirror:    mirror,
		passcodes: passcodes,
		opts:      opts,
		now:       time.Now,
	}
}

type DonorRegistrationResult struct {
	Donor      *types.DonorProfile `json:"donor"`
	OTPPending bool                `json:"otpPending"`
	EmailSent  bool                `json:"emailSent"`
}

// RegisterDonor creates an unverified donor with a pending passcode and
// mails the passcode.
func (s *Service) RegisterDonor(ctx context.Context, in types.DonorRegistration) (*DonorRegistrationResult, error) {
	c, err := validateContact(in.Name, in.Email, in.Phone)
	if err != nil {
		return nil, err
	}

	bloodType, err := types.ParseBloodType(in.BloodType)
	if err != nil {
		return nil, err
	}

	loc, err := validateLocation(in.Location)
	if err != nil {
		return nil, err
	}

	_, err = s.donors.DonorByEmailOrPhone(ctx, c.email, c.phone)
	if err == nil {
		return nil, types.ErrDuplicateDonor
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing donor: %w", err)
	}

	code, err := utils.NumericCode(s.opts.OTPLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate passcode: %w", err)
	}
	expires := s.now().Add(s.opts.OTPTTL)

	donor := &types.Donor{
		DonorProfile: types.DonorProfile{
			Name:         c.name,
			Email:        c.email,
			Phone:        c.phone,
			BloodType:    bloodType,
			Location:     loc,
			Availability: utils.PtrBool(in.Availability, true),
		},
		OTP:        &code,
		OTPExpires: &expires,
	}

	err = s.donors.CreateDonor(ctx, donor)
	if err != nil {
		return nil, err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"donor_id":   donor.ID,
		"blood_type": donor.BloodType,
	})
	entry.Info("donor registered")

	if s.mirror != nil {
		if err := s.mirror.AppendDonor(&donor.DonorProfile); err != nil {
			entry.WithError(err).Error("failed to append donor to mirror")
		}
	}

	result := &DonorRegistrationResult{Donor: &donor.DonorProfile, OTPPending: true}
	if s.passcodes != nil {
		err = s.passcodes.SendPasscode(ctx, &donor.DonorProfile, code, expires)
		if err != nil {
			entry.WithError(err).Warn("failed to send donor passcode")
		} else {
			result.EmailSent = true
		}
	}

	return result, nil
}

// VerifyDonorOTP confirms the donor's pending passcode.
func (s *Service) VerifyDonorOTP(ctx context.Context, donorID, otp string) (*types.DonorProfile, error) {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return nil, types.NewFieldError("otp", "is required")
	}

	donor, err := s.donors.Donor(ctx, donorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := checkPasscode(donor, otp, now); err != nil {
		return nil, err
	}

	verified, err := s.donors.MarkDonorVerified(ctx, donorID, &otp, now)
	if errors.Is(err, types.ErrStaleWrite) {
		// Lost a race; report what the donor looks like now.
		current, lookupErr := s.donors.Donor(ctx, donorID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if err := checkPasscode(current, otp, now); err != nil {
			return nil, err
		}
		return nil, types.ErrStaleWrite
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithField("donor_id", donorID).Info("donor passcode confirmed")

	return &verified.DonorProfile, nil
}

func checkPasscode(donor *types.Donor, otp string, now time.Time) error {
	if donor.OTPVerified {
		return types.ErrDonorVerified
	}
	if donor.OTP == nil || donor.OTPExpires == nil {
		return types.ErrInvalidOTP
	}
	if !donor.OTPExpires.After(now) {
		return types.ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(*donor.OTP), []byte(otp)) != 1 {
		return types.ErrInvalidOTP
	}
	return nil
}

// AdminVerifyDonor verifies a donor without a passcode.
func (s *Service) AdminVerifyDonor(ctx context.Context, donorID string) (*types.DonorProfile, error) {
	donor, err := s.donors.Donor(ctx, donorID)
	if err != nil {
		return nil, err
	}
	if donor.Verified && donor.OTPVerified {
		return nil, types.ErrDonorVerified
	}

	verified, err := s.donors.MarkDonorVerified(ctx, donorID, nil, s.now())
	if errors.Is(err, types.ErrStaleWrite) {
		return nil, types.ErrDonorVerified
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithField("donor_id", donorID).Info("donor manually verified")

	return &verified.DonorProfile, nil
}

func (s *Service) SetAvailability(ctx context.Context, donorID string, available bool) (*types.DonorProfile, error) {
	donor, err := s.donors.SetDonorAvailability(ctx, donorID, available)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"donor_id":     donorID,
		"availability": available,
	}).Info("donor availability changed")

	return &donor.DonorProfile, nil
}

func (s *Service) Donors(ctx context.Context) ([]*types.DonorProfile, error) {
	return s.donors.Donors(ctx)
}

func (s *Service) Patients(ctx context.Context) ([]*types.Patient, error) {
	return s.patients.Patients(ctx)
}

type PatientRegistrationResult struct {
	Patient *types.Patient          `json:"patient"`
	Request *types.EmergencyRequest `json:"request,omitempty"`
}

// RegisterPatient creates the patient and then its Pending emergency
// request. If the second step fails the patient is kept, returned, and the
// error wraps ErrRequestNotCreated.
func (s *Service) RegisterPatient(ctx context.Context, in types.PatientRegistration) (*PatientRegistrationResult, error) {
	c, err := validateContact(in.Name, in.Email, in.Phone)
	if err != nil {
		return nil, err
	}

	bloodType, err := types.ParseBloodType(in.BloodType)
	if err != nil {
		return nil, err
	}

	urgency, err := types.ParseUrgency(in.Urgency)
	if err != nil {
		return nil, err
	}

	loc, err := validateLocation(in.Location)
	if err != nil {
		return nil, err
	}

	patient := &types.Patient{
		Name:      c.name,
		Email:     c.email,
		Phone:     c.phone,
		BloodType: bloodType,
		Location:  loc,
		Urgency:   urgency,
	}

	err = s.patients.CreatePatient(ctx, patient)
	if err != nil {
		return nil, err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"patient_id": patient.ID,
		"blood_type": patient.BloodType,
		"urgency":    patient.Urgency,
	})
	entry.Info("patient registered")

	if s.mirror != nil {
		if err := s.mirror.AppendPatient(patient); err != nil {
			entry.WithError(err).Error("failed to append patient to mirror")
		}
	}

	result := &PatientRegistrationResult{Patient: patient}

	request, err := s.requests.Create(ctx, types.CreateRequestInput{PatientID: patient.ID})
	if err != nil {
		entry.WithError(err).Error("patient registered without emergency request")
		return result, fmt.Errorf("%w: %w", types.ErrRequestNotCreated, err)
	}
	result.Request = request

	return result, nil
}
