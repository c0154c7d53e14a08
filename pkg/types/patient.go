package types

import (
	"strings"
	"time"
)

type Urgency string

const (
	UrgencyCritical Urgency = "Critical"
	UrgencyHigh     Urgency = "High"
	UrgencyMedium   Urgency = "Medium"
	UrgencyLow      Urgency = "Low"
)

var urgencyRank = map[Urgency]int{
	UrgencyCritical: 4,
	UrgencyHigh:     3,
	UrgencyMedium:   2,
	UrgencyLow:      1,
}

func (u Urgency) Valid() bool {
	_, ok := urgencyRank[u]
	return ok
}

// Rank orders urgencies, Critical highest. Unknown values rank 0.
func (u Urgency) Rank() int {
	return urgencyRank[u]
}

// ParseUrgency is case-insensitive; an empty string yields Medium.
func ParseUrgency(s string) (Urgency, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UrgencyMedium, nil
	}
	for u := range urgencyRank {
		if strings.EqualFold(string(u), s) {
			return u, nil
		}
	}
	return "", ErrInvalidUrgency
}

type Patient struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	BloodType BloodType `db:"blood_type" json:"bloodType"`
	Location  `json:"location"`
	Urgency   Urgency   `db:"urgency" json:"urgency"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type PatientRegistration struct {
	Name      string
	Email     string
	Phone     string
	BloodType string
	Location  Location
	Urgency   string
}
