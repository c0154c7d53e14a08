package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lifelink/internal/metrics"
	"lifelink/internal/mirror"
	"lifelink/internal/registration"
	"lifelink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type Registration interface {
	RegisterDonor(ctx context.Context, in types.DonorRegistration) (*registration.DonorRegistrationResult, error)
	VerifyDonorOTP(ctx context.Context, donorID, otp string) (*types.DonorProfile, error)
	AdminVerifyDonor(ctx context.Context, donorID string) (*types.DonorProfile, error)
	SetAvailability(ctx context.Context, donorID string, available bool) (*types.DonorProfile, error)
	Donors(ctx context.Context) ([]*types.DonorProfile, error)
	RegisterPatient(ctx context.Context, in types.PatientRegistration) (*registration.PatientRegistrationResult, error)
	Patients(ctx context.Context) ([]*types.Patient, error)
}

type Matcher interface {
	FindMatches(ctx context.Context, patientID string, radiusMeters float64) ([]*types.DonorMatch, error)
}

type Alerts interface {
	Send(ctx context.Context, donorID, patientID string) (*types.Alert, error)
}

type Requests interface {
	Create(ctx context.Context, in types.CreateRequestInput) (*types.EmergencyRequest, error)
	List(ctx context.Context, filter types.RequestFilter) ([]*types.EmergencyRequest, error)
	Request(ctx context.Context, requestID string) (*types.EmergencyRequest, error)
	Fulfill(ctx context.Context, requestID string) (*types.EmergencyRequest, error)
	Expire(ctx context.Context, requestID string) (*types.EmergencyRequest, error)
}

type Mirror interface {
	Export(ctx context.Context, donors []*types.DonorProfile, patients []*types.Patient) ([]byte, error)
	Import(ctx context.Context, doc []byte, stores mirror.Stores) (*mirror.ImportSummary, error)
	Download() ([]byte, error)
}

// Dependencies are the core services the API exposes.
type Dependencies struct {
	Registration Registration
	Matcher      Matcher
	Alerts       Alerts
	Requests     Requests
	Mirror       Mirror
	ImportStores mirror.Stores
}

type Service struct {
	logger  *logrus.Logger
	config  *types.Config
	metrics *metrics.Metrics

	registration Registration
	matcher      Matcher
	alerts       Alerts
	requests     Requests
	mirror       Mirror
	importStores mirror.Stores

	handler http.Handler
	server  *http.Server
}

func New(config *types.Config, logger *logrus.Logger, m *metrics.Metrics, deps Dependencies) *Service {
	mux := flow.New()

	s := &Service{
		logger:  logger,
		config:  config,
		metrics: m,

		registration: deps.Registration,
		matcher:      deps.Matcher,
		alerts:       deps.Alerts,
		requests:     deps.Requests,
		mirror:       deps.Mirror,
		importStores: deps.ImportStores,

		handler: mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s
}

func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/health", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler(), http.MethodGet)

	r.HandleFunc("/api/donors", s.handleRegisterDonor, http.MethodPost)
	r.HandleFunc("/api/donors", s.handleListDonors, http.MethodGet)
	r.HandleFunc("/api/donors/:id/verify-otp", s.handleVerifyDonorOTP, http.MethodPost)
	r.HandleFunc("/api/donors/:id/availability", s.handleSetAvailability, http.MethodPatch)

	r.HandleFunc("/api/patients", s.handleRegisterPatient, http.MethodPost)
	r.HandleFunc("/api/patients", s.handleListPatients, http.MethodGet)

	r.HandleFunc("/api/find-match", s.handleFindMatch, http.MethodGet)
	r.HandleFunc("/api/send-alert", s.handleSendAlert, http.MethodPost)

	r.HandleFunc("/api/emergency-requests", s.handleCreateRequest, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAdminKey)

		r.HandleFunc("/api/admin/donors/:id/verify", s.handleAdminVerifyDonor, http.MethodPost)

		r.HandleFunc("/api/emergency-requests", s.handleListRequests, http.MethodGet)
		r.HandleFunc("/api/emergency-requests/:id", s.handleGetRequest, http.MethodGet)
		r.HandleFunc("/api/emergency-requests/:id/fulfill", s.handleFulfillRequest, http.MethodPatch)
		r.HandleFunc("/api/emergency-requests/:id/expire", s.handleExpireRequest, http.MethodPatch)

		r.HandleFunc("/api/export/excel", s.handleExportExcel, http.MethodGet)
		r.HandleFunc("/api/import/excel", s.handleImportExcel, http.MethodPost)
		r.HandleFunc("/api/mirror/excel", s.handleDownloadMirror, http.MethodGet)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "UP",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
