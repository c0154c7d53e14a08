package types

import "time"

type AlertOutcome string

const (
	AlertOutcomeSent   AlertOutcome = "sent"
	AlertOutcomeFailed AlertOutcome = "failed"
)

// ChannelResult is the delivery result of one alert channel.
type ChannelResult struct {
	Channel string       `json:"channel"`
	Outcome AlertOutcome `json:"outcome"`
	Error   string       `json:"error,omitempty"`
}

type Alert struct {
	ID        string          `db:"id" json:"id"`
	DonorID   string          `db:"donor_id" json:"donorId"`
	PatientID string          `db:"patient_id" json:"patientId"`
	Outcome   AlertOutcome    `db:"outcome" json:"outcome"`
	Channels  []ChannelResult `db:"channels" json:"channels"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}
