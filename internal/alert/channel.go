package alert

import (
	"context"
	"fmt"

	"lifelink/pkg/types"
)

// Notification is what every channel delivers: the matched donor and the
// patient who needs them.
type Notification struct {
	Donor   *types.DonorProfile `json:"donor"`
	Patient *types.Patient      `json:"patient"`
}

type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// runWithContext runs fn in its own goroutine and gives up when ctx ends.
// Used for clients that take no context of their own.
func runWithContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("gave up waiting: %w", ctx.Err())
	}
}

func alertSubject(p *types.Patient) string {
	return fmt.Sprintf("URGENT: LifeLink Blood Donation Request from %s", p.Name)
}

func alertText(n Notification) string {
	return fmt.Sprintf(
		"Dear %s,\n\nA patient, %s, urgently needs your blood type (%s).\nThey are located at: %s.\nPatient contact: %s\nUrgency: %s\n\nPlease respond if you are available to help.\nThank you for being a lifeline!",
		n.Donor.Name, n.Patient.Name, n.Patient.BloodType, n.Patient.Location.Name, n.Patient.Phone, n.Patient.Urgency,
	)
}

func alertSMS(n Notification) string {
	return fmt.Sprintf(
		"LifeLink: %s patient %s needs %s blood near %s. Contact %s.",
		n.Patient.Urgency, n.Patient.Name, n.Patient.BloodType, n.Patient.Location.Name, n.Patient.Phone,
	)
}
