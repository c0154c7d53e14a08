package server

import (
	"strings"

	"lifelink/pkg/types"
)

// locationFields is the flat location shape the clients post.
type locationFields struct {
	LocationName string   `json:"locationName"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

func (f locationFields) present() bool {
	return f.Lat != nil || f.Lng != nil || strings.TrimSpace(f.LocationName) != ""
}

func (f locationFields) location() (types.Location, error) {
	if f.Lat == nil || f.Lng == nil {
		return types.Location{}, types.NewFieldError("lat", "lat and lng are required")
	}

	return types.Location{
		Point: types.Point{Longitude: *f.Lng, Latitude: *f.Lat},
		Name:  f.LocationName,
	}, nil
}

type donorPayload struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BloodType string `json:"bloodType"`
	locationFields
	Availability *bool `json:"availability"`
}

type patientPayload struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BloodType string `json:"bloodType"`
	locationFields
	Urgency string `json:"urgency"`
}

type requestPayload struct {
	PatientID         string `json:"patientId"`
	RequiredBloodType string `json:"requiredBloodType"`
	Urgency           string `json:"urgency"`
	locationFields
}

type matchQuery struct {
	PatientID string   `form:"patientId"`
	RadiusKm  *float64 `form:"radiusKm"`
}

type requestQuery struct {
	BloodType string   `form:"bloodType"`
	Urgency   string   `form:"urgency"`
	Status    string   `form:"status"`
	Lat       *float64 `form:"lat"`
	Lng       *float64 `form:"lng"`
	RadiusKm  *float64 `form:"radiusKm"`
}

// filter converts the query into a RequestFilter. The geo constraint only
// applies when lat, lng and radiusKm are all given.
func (q requestQuery) filter() (types.RequestFilter, error) {
	var f types.RequestFilter
	var err error

	if strings.TrimSpace(q.BloodType) != "" {
		f.BloodType, err = types.ParseBloodType(q.BloodType)
		if err != nil {
			return f, err
		}
	}

	if strings.TrimSpace(q.Urgency) != "" {
		f.Urgency, err = types.ParseUrgency(q.Urgency)
		if err != nil {
			return f, err
		}
	}

	f.Status, err = types.ParseRequestStatus(q.Status)
	if err != nil {
		return f, err
	}

	if q.Lat != nil && q.Lng != nil && q.RadiusKm != nil {
		origin := types.Point{Longitude: *q.Lng, Latitude: *q.Lat}
		if !origin.Valid() {
			return f, types.NewFieldError("lat", "coordinates out of range")
		}
		f.Geo = &types.GeoFilter{Origin: origin, RadiusMeters: *q.RadiusKm * 1000}
	}

	return f, nil
}
