package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"lifelink/pkg/types"
)

func (s *Service) handleFindMatch(w http.ResponseWriter, r *http.Request) {
	var q matchQuery
	err := decoder.Decode(&q, r.URL.Query())
	if err != nil {
		s.writeError(w, r, fmt.Errorf("malformed query: %w", types.ErrInvalidInput))
		return
	}

	patientID := strings.TrimSpace(q.PatientID)
	if patientID == "" {
		s.writeError(w, r, types.NewFieldError("patientId", "Patient ID is required"))
		return
	}

	radiusKm := s.config.DefaultRadiusKm
	if q.RadiusKm != nil {
		radiusKm = *q.RadiusKm
	}

	matches, err := s.matcher.FindMatches(r.Context(), patientID, radiusKm*1000)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, matches)
}

func (s *Service) handleSendAlert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DonorID   string `json:"donorId"`
		PatientID string `json:"patientId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.DonorID == "" || body.PatientID == "" {
		s.writeError(w, r, types.NewFieldError("donorId", "donorId and patientId are required"))
		return
	}

	alert, err := s.alerts.Send(r.Context(), body.DonorID, body.PatientID)
	if errors.Is(err, types.ErrAlertNotDelivered) && alert != nil {
		s.writeJSON(w, statusFor(err), map[string]any{
			"message": "Failed to send alert",
			"alert":   alert,
		})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Alert sent successfully",
		"alert":   alert,
	})
}
