package seed

import "lifelink/pkg/types"

type donorSeed struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	BloodType types.BloodType
	Place     string
	North     float64
	East      float64
	Verified  bool
	Available bool
}

func (s donorSeed) donor(origin types.Point) *types.Donor {
	return &types.Donor{
		DonorProfile: types.DonorProfile{
			ID:        s.ID,
			Name:      s.Name,
			Email:     s.Email,
			Phone:     s.Phone,
			BloodType: s.BloodType,
			Location: types.Location{
				Point: offset(origin, s.North, s.East),
				Name:  s.Place,
			},
			Verified:     s.Verified,
			OTPVerified:  s.Verified,
			Availability: s.Available,
		},
	}
}

// Unverified and unavailable donors are included so the eligibility filter
// has something to exclude.
var demoDonors = []donorSeed{
	{ID: "kQ3vN8xR2mT6yW1pL5sD9fH4jB7cZ0aE", Name: "Asha Rao", Email: "asha.rao+seed1@example.com", Phone: "9000000101", BloodType: types.BloodTypeONeg, Place: "Central Blood Bank", North: 400, East: 300, Verified: true, Available: true},
	{ID: "pL7dF2kS9wQ4zX8nM1vB6cR3tY5hJ0gU", Name: "Vikram Shah", Email: "vikram.shah+seed2@example.com", Phone: "9000000102", BloodType: types.BloodTypeOPos, Place: "North Clinic", North: 1800, East: -200, Verified: true, Available: true},
	{ID: "zX4cV7bN1mQ8wE3rT6yU9iO2pA5sD0fG", Name: "Neha Iyer", Email: "neha.iyer+seed3@example.com", Phone: "9000000103", BloodType: types.BloodTypeAPos, Place: "East Market", North: -600, East: 2500, Verified: true, Available: true},
	{ID: "hJ2kL5zX8cV1bN4mQ7wE0rT3yU6iO9pA", Name: "Arjun Mehta", Email: "arjun.mehta+seed4@example.com", Phone: "9000000104", BloodType: types.BloodTypeBNeg, Place: "South Station", North: -3200, East: 900, Verified: true, Available: false},
	{ID: "sD6fG9hJ2kL5zX8cV1bN4mQ7wE0rT3yU", Name: "Priya Nair", Email: "priya.nair+seed5@example.com", Phone: "9000000105", BloodType: types.BloodTypeABPos, Place: "Lake View", North: 5200, East: 4100, Verified: false, Available: true},
	{ID: "wE8rT1yU4iO7pA0sD3fG6hJ9kL2zX5cV", Name: "Rahul Das", Email: "rahul.das+seed6@example.com", Phone: "9000000106", BloodType: types.BloodTypeANeg, Place: "Old Town", North: 8000, East: -7000, Verified: true, Available: true},
	{ID: "mQ9wE2rT5yU8iO1pA4sD7fG0hJ3kL6zX", Name: "Sara Thomas", Email: "sara.thomas+seed7@example.com", Phone: "9000000107", BloodType: types.BloodTypeONeg, Place: "Airport Road", North: 14000, East: 6000, Verified: true, Available: true},
}

type patientSeed struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	BloodType types.BloodType
	Place     string
	North     float64
	East      float64
	Urgency   types.Urgency
}

func (s patientSeed) patient(origin types.Point) *types.Patient {
	return &types.Patient{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		BloodType: s.BloodType,
		Location: types.Location{
			Point: offset(origin, s.North, s.East),
			Name:  s.Place,
		},
		Urgency: s.Urgency,
	}
}

var demoPatients = []patientSeed{
	{ID: "aB3cD6eF9gH2iJ5kL8mN1oP4qR7sT0uV", Name: "Kiran Kumar", Email: "kiran.kumar+seed1@example.com", Phone: "9000000201", BloodType: types.BloodTypeAPos, Place: "City General Hospital", Urgency: types.UrgencyCritical},
	{ID: "cD5eF8gH1iJ4kL7mN0oP3qR6sT9uV2wX", Name: "Meena Pillai", Email: "meena.pillai+seed2@example.com", Phone: "9000000202", BloodType: types.BloodTypeONeg, Place: "St. Mary's", North: 2000, East: 1000, Urgency: types.UrgencyHigh},
	{ID: "eF7gH0iJ3kL6mN9oP2qR5sT8uV1wX4yZ", Name: "Anil Joseph", Email: "anil.joseph+seed3@example.com", Phone: "9000000203", BloodType: types.BloodTypeABNeg, Place: "Riverside Care", North: -1500, East: -2500, Urgency: types.UrgencyLow},
}
