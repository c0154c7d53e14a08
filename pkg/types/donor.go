package types

import "time"

// DonorProfile is the publicly visible part of a donor record. It carries no
// passcode state, so anything typed as a DonorProfile is safe to hand out.
type DonorProfile struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	BloodType    BloodType `db:"blood_type" json:"bloodType"`
	Location     `json:"location"`
	Verified     bool      `db:"verified" json:"verified"`
	OTPVerified  bool      `db:"otp_verified" json:"otpVerified"`
	Availability bool      `db:"availability" json:"availability"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Eligible reports whether the donor may be offered as a match.
func (d *DonorProfile) Eligible() bool {
	return d.Verified && d.OTPVerified && d.Availability
}

// Donor is the full stored record including the onboarding passcode.
type Donor struct {
	DonorProfile
	OTP        *string    `db:"otp" json:"-"`
	OTPExpires *time.Time `db:"otp_expires" json:"-"`
}

// DonorMatch is one row of a nearest-donor search.
type DonorMatch struct {
	DonorProfile
	DistanceMeters float64 `db:"distance_meters" json:"distanceMeters"`
}

func (m *DonorMatch) DistanceKm() float64 {
	return m.DistanceMeters / 1000
}

type DonorRegistration struct {
	Name         string
	Email        string
	Phone        string
	BloodType    string
	Location     Location
	Availability *bool
}
