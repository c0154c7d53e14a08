package emergency

import (
	"context"

	"lifelink/pkg/types"
)

type RequestRepository interface {
	CreateRequest(ctx context.Context, request *types.EmergencyRequest) error
	Request(ctx context.Context, requestID string) (*types.EmergencyRequest, error)
	Requests(ctx context.Context, filter types.RequestFilter) ([]*types.EmergencyRequest, error)
	// TransitionRequest moves the request to `to` only if its current status
	// is `from`, in a single conditional write. It returns ErrRequestNotFound
	// for unknown ids and an error wrapping ErrInvalidTransition when the
	// stored status is not `from`.
	TransitionRequest(ctx context.Context, requestID string, from, to types.RequestStatus) (*types.EmergencyRequest, error)
}

type PatientLookup interface {
	Patient(ctx context.Context, patientID string) (*types.Patient, error)
	PatientsByIDs(ctx context.Context, patientIDs []string) ([]*types.Patient, error)
}
