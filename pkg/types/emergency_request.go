package types

import (
	"strings"
	"time"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "Pending"
	RequestStatusFulfilled RequestStatus = "Fulfilled"
	RequestStatusExpired   RequestStatus = "Expired"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusFulfilled, RequestStatusExpired:
		return true
	}
	return false
}

// Terminal statuses never change again.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusFulfilled || s == RequestStatusExpired
}

// ParseRequestStatus is case-insensitive; an empty string yields Pending.
func ParseRequestStatus(s string) (RequestStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RequestStatusPending, nil
	}
	for _, st := range []RequestStatus{RequestStatusPending, RequestStatusFulfilled, RequestStatusExpired} {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

type EmergencyRequest struct {
	ID                string        `db:"id" json:"id"`
	PatientID         string        `db:"patient_id" json:"patientId"`
	RequiredBloodType BloodType     `db:"required_blood_type" json:"requiredBloodType"`
	Urgency           Urgency       `db:"urgency" json:"urgency"`
	Location          `json:"location"`
	Status            RequestStatus `db:"status" json:"status"`
	CreatedAt         time.Time     `db:"created_at" json:"timePosted"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updatedAt"`

	Patient *Patient `db:"-" json:"patient,omitempty"`
}

// CreateRequestInput leaves blood type, urgency and location optional; the
// referenced patient's values are used for anything left empty.
type CreateRequestInput struct {
	PatientID         string
	RequiredBloodType string
	Urgency           string
	Location          *Location
}

type RequestFilter struct {
	BloodType BloodType
	Urgency   Urgency
	Status    RequestStatus
	Geo       *GeoFilter
}
