package emergency

import (
	"context"
	"fmt"

	"lifelink/internal/metrics"
	"lifelink/pkg/types"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Service owns the emergency request state machine:
// Pending -> Fulfilled and Pending -> Expired, both terminal.
type Service struct {
	logger   *logrus.Logger
	requests RequestRepository
	patients PatientLookup
	metrics  *metrics.Metrics
}

func NewService(logger *logrus.Logger, requests RequestRepository, patients PatientLookup, m *metrics.Metrics) *Service {
	return &Service{
		logger:   logger,
		requests: requests,
		patients: patients,
		metrics:  m,
	}
}

// Create opens a Pending request for an existing patient. Blood type, urgency
// and location fall back to the patient's own values when not supplied.
func (s *Service) Create(ctx context.Context, in types.CreateRequestInput) (*types.EmergencyRequest, error) {
	if in.PatientID == "" {
		return nil, types.NewFieldError("patientId", "is required")
	}

	patient, err := s.patients.Patient(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}

	request := &types.EmergencyRequest{
		PatientID:         patient.ID,
		RequiredBloodType: patient.BloodType,
		Urgency:           patient.Urgency,
		Location:          patient.Location,
		Status:            types.RequestStatusPending,
	}

	if in.RequiredBloodType != "" {
		request.RequiredBloodType, err = types.ParseBloodType(in.RequiredBloodType)
		if err != nil {
			return nil, err
		}
	}

	if in.Urgency != "" {
		request.Urgency, err = types.ParseUrgency(in.Urgency)
		if err != nil {
			return nil, err
		}
	}
	if !request.Urgency.Valid() {
		request.Urgency = types.UrgencyMedium
	}

	if in.Location != nil {
		if !in.Location.Valid() {
			return nil, types.NewFieldError("location", "coordinates out of range")
		}
		request.Location = *in.Location
	}

	err = s.requests.CreateRequest(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create emergency request for patient %s: %w", patient.ID, err)
	}

	request.Patient = patient

	s.logger.WithFields(logrus.Fields{
		"request_id": request.ID,
		"patient_id": patient.ID,
		"blood_type": request.RequiredBloodType,
		"urgency":    request.Urgency,
	}).Info("emergency request created")

	return request, nil
}

// List returns requests matching the filter, oldest first, each with its
// patient attached. Status defaults to Pending.
func (s *Service) List(ctx context.Context, filter types.RequestFilter) ([]*types.EmergencyRequest, error) {
	if filter.Status == "" {
		filter.Status = types.RequestStatusPending
	}
	if !filter.Status.Valid() {
		return nil, types.ErrInvalidStatus
	}
	if filter.BloodType != "" && !filter.BloodType.Valid() {
		return nil, types.ErrInvalidBloodType
	}
	if filter.Urgency != "" && !filter.Urgency.Valid() {
		return nil, types.ErrInvalidUrgency
	}
	if filter.Geo != nil && !types.ValidRadius(filter.Geo.RadiusMeters) {
		return nil, types.ErrInvalidRadius
	}

	requests, err := s.requests.Requests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list emergency requests: %w", err)
	}

	if len(requests) == 0 {
		return requests, nil
	}

	err = s.attachPatients(ctx, requests)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

// Request fetches a single request with its patient attached.
func (s *Service) Request(ctx context.Context, requestID string) (*types.EmergencyRequest, error) {
	request, err := s.requests.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}

	err = s.attachPatients(ctx, []*types.EmergencyRequest{request})
	if err != nil {
		return nil, err
	}

	return request, nil
}

func (s *Service) Fulfill(ctx context.Context, requestID string) (*types.EmergencyRequest, error) {
	return s.transition(ctx, requestID, types.RequestStatusFulfilled)
}

func (s *Service) Expire(ctx context.Context, requestID string) (*types.EmergencyRequest, error) {
	return s.transition(ctx, requestID, types.RequestStatusExpired)
}

func (s *Service) transition(ctx context.Context, requestID string, to types.RequestStatus) (*types.EmergencyRequest, error) {
	request, err := s.requests.TransitionRequest(ctx, requestID, types.RequestStatusPending, to)
	s.metrics.ObserveTransition(string(to), err)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"request_id": requestID,
			"to":         to,
		}).Warn("emergency request transition rejected")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"status":     request.Status,
	}).Info("emergency request transitioned")

	return request, nil
}

func (s *Service) attachPatients(ctx context.Context, requests []*types.EmergencyRequest) error {
	ids := lo.Uniq(lo.Map(requests, func(r *types.EmergencyRequest, _ int) string {
		return r.PatientID
	}))

	patients, err := s.patients.PatientsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load patients for emergency requests: %w", err)
	}

	byID := lo.KeyBy(patients, func(p *types.Patient) string {
		return p.ID
	})

	for _, r := range requests {
		r.Patient = byID[r.PatientID]
	}

	return nil
}
