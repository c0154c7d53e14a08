package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifelink/internal/metrics"
	"lifelink/pkg/types"

	"github.com/sirupsen/logrus"
)

type DonorLookup interface {
	Donor(ctx context.Context, id string) (*types.Donor, error)
}

type PatientLookup interface {
	Patient(ctx context.Context, id string) (*types.Patient, error)
}

type Recorder interface {
	CreateAlert(ctx context.Context, alert *types.Alert) error
}

type Options struct {
	// Timeout bounds each channel send.
	Timeout time.Duration
	// DedupeWindow is how long a donor/patient pair stays claimed after an
	// alert. Zero disables de-duplication.
	DedupeWindow time.Duration
}

// Dispatcher notifies a matched donor on every configured channel. An alert
// counts as sent when at least one channel delivers. Sends are never
// retried here.
type Dispatcher struct {
	logger   *logrus.Logger
	donors   DonorLookup
	patients PatientLookup
	recorder Recorder
	deduper  Deduper
	metrics  *metrics.Metrics
	channels []Channel
	opts     Options
}

func NewDispatcher(logger *logrus.Logger, donors DonorLookup, patients PatientLookup, recorder Recorder, deduper Deduper, m *metrics.Metrics, opts Options, channels ...Channel) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	return &Dispatcher{
		logger:   logger,
		donors:   donors,
		patients: patients,
		recorder: recorder,
		deduper:  deduper,
		metrics:  m,
		channels: channels,
		opts:     opts,
	}
}

func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, c := range d.channels {
		names = append(names, c.Name())
	}
	return names
}

// Send alerts donorID about patientID. The returned alert carries the
// per-channel results; when no channel delivered the error wraps
// ErrAlertNotDelivered and the alert is still returned.
func (d *Dispatcher) Send(ctx context.Context, donorID, patientID string) (*types.Alert, error) {
	donor, err := d.donors.Donor(ctx, donorID)
	if err != nil {
		return nil, err
	}

	patient, err := d.patients.Patient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	entry := d.logger.WithFields(logrus.Fields{
		"donor_id":   donorID,
		"patient_id": patientID,
	})

	key := donorID + ":" + patientID
	claimed := false
	if d.deduper != nil && d.opts.DedupeWindow > 0 {
		ok, err := d.deduper.Claim(ctx, key, d.opts.DedupeWindow)
		switch {
		case err != nil:
			entry.WithError(err).Warn("alert de-duplication unavailable, sending anyway")
		case !ok:
			return nil, types.ErrAlertAlreadySent
		default:
			claimed = true
		}
	}

	n := Notification{Donor: &donor.DonorProfile, Patient: patient}
	alert := &types.Alert{
		DonorID:   donorID,
		PatientID: patientID,
		Outcome:   types.AlertOutcomeFailed,
		Channels:  make([]types.ChannelResult, 0, len(d.channels)),
	}

	for _, c := range d.channels {
		result := d.deliver(ctx, c, n)
		if result.Outcome == types.AlertOutcomeSent {
			alert.Outcome = types.AlertOutcomeSent
		} else {
			entry.WithField("channel", result.Channel).Warn(result.Error)
		}
		alert.Channels = append(alert.Channels, result)
	}
	d.metrics.ObserveAlert("all", string(alert.Outcome))

	if alert.Outcome == types.AlertOutcomeFailed && claimed {
		// Let a later attempt through.
		if err := d.deduper.Release(context.WithoutCancel(ctx), key); err != nil {
			entry.WithError(err).Warn("failed to release alert claim")
		}
	}

	if d.recorder != nil {
		err = d.recorder.CreateAlert(context.WithoutCancel(ctx), alert)
		if err != nil {
			entry.WithError(err).Error("failed to record alert")
		}
	}

	entry.WithField("outcome", alert.Outcome).Info("alert dispatched")

	if alert.Outcome == types.AlertOutcomeFailed {
		return alert, types.ErrAlertNotDelivered
	}

	return alert, nil
}

func (d *Dispatcher) deliver(ctx context.Context, c Channel, n Notification) types.ChannelResult {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	result := types.ChannelResult{Channel: c.Name(), Outcome: types.AlertOutcomeSent}

	err := c.Send(ctx, n)
	if err != nil {
		result.Outcome = types.AlertOutcomeFailed
		result.Error = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			result.Error = fmt.Sprintf("timed out after %s", d.opts.Timeout)
		}
	}

	d.metrics.ObserveAlert(result.Channel, string(result.Outcome))

	return result
}
