package server

import (
	"errors"
	"net/http"

	"lifelink/pkg/types"
)

func (s *Service) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var p patientPayload
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}

	loc, err := p.location()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.registration.RegisterPatient(r.Context(), types.PatientRegistration{
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		BloodType: p.BloodType,
		Location:  loc,
		Urgency:   p.Urgency,
	})
	if errors.Is(err, types.ErrRequestNotCreated) && result != nil {
		s.logger.WithError(err).WithField("patient_id", result.Patient.ID).Error("emergency request not created for new patient")
		s.writeJSON(w, statusFor(err), map[string]any{
			"message":   types.ErrRequestNotCreated.Error(),
			"patientId": result.Patient.ID,
		})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Patient registered successfully.",
		"patientId": result.Patient.ID,
		"requestId": result.Request.ID,
	})
}

func (s *Service) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.registration.Patients(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, patients)
}
