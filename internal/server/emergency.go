package server

import (
	"context"
	"fmt"
	"net/http"

	"lifelink/pkg/types"
)

func (s *Service) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var p requestPayload
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}

	in := types.CreateRequestInput{
		PatientID:         p.PatientID,
		RequiredBloodType: p.RequiredBloodType,
		Urgency:           p.Urgency,
	}

	if p.present() {
		loc, err := p.location()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		in.Location = &loc
	}

	request, err := s.requests.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Emergency request posted successfully.",
		"request": request,
	})
}

func (s *Service) handleListRequests(w http.ResponseWriter, r *http.Request) {
	var q requestQuery
	err := decoder.Decode(&q, r.URL.Query())
	if err != nil {
		s.writeError(w, r, fmt.Errorf("malformed query: %w", types.ErrInvalidInput))
		return
	}

	filter, err := q.filter()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	requests, err := s.requests.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, requests)
}

func (s *Service) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := s.requests.Request(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

func (s *Service) handleFulfillRequest(w http.ResponseWriter, r *http.Request) {
	s.transitionRequest(w, r, s.requests.Fulfill, "Request marked as fulfilled")
}

func (s *Service) handleExpireRequest(w http.ResponseWriter, r *http.Request) {
	s.transitionRequest(w, r, s.requests.Expire, "Request marked as expired")
}

func (s *Service) transitionRequest(w http.ResponseWriter, r *http.Request, move func(context.Context, string) (*types.EmergencyRequest, error), message string) {
	request, err := move(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"request": request,
	})
}
