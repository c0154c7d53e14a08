package server

import (
	"net/http"
	"strings"

	"lifelink/pkg/types"
)

func (s *Service) handleRegisterDonor(w http.ResponseWriter, r *http.Request) {
	var p donorPayload
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}

	loc, err := p.location()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.registration.RegisterDonor(r.Context(), types.DonorRegistration{
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		BloodType:    p.BloodType,
		Location:     loc,
		Availability: p.Availability,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Donor registered. Please check your email for OTP.",
		"donorId":    result.Donor.ID,
		"otpPending": result.OTPPending,
		"emailSent":  result.EmailSent,
	})
}

func (s *Service) handleVerifyDonorOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OTP string `json:"otp"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	donor, err := s.registration.VerifyDonorOTP(r.Context(), r.PathValue("id"), body.OTP)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Donor verified successfully",
		"donor":   donor,
	})
}

func (s *Service) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Availability *bool `json:"availability"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Availability == nil {
		s.writeError(w, r, types.NewFieldError("availability", "is required"))
		return
	}

	donor, err := s.registration.SetAvailability(r.Context(), r.PathValue("id"), *body.Availability)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donor)
}

func (s *Service) handleListDonors(w http.ResponseWriter, r *http.Request) {
	donors, err := s.registration.Donors(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donors)
}

func (s *Service) handleAdminVerifyDonor(w http.ResponseWriter, r *http.Request) {
	donorID := strings.TrimSpace(r.PathValue("id"))

	donor, err := s.registration.AdminVerifyDonor(r.Context(), donorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Donor manually verified",
		"donor":   donor,
	})
}
