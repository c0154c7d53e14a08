package registration

import (
	"net/mail"
	"regexp"
	"strings"

	"lifelink/pkg/types"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

type contact struct {
	name  string
	email string
	phone string
}

// validateContact trims and checks the fields every registration carries.
func validateContact(name, email, phone string) (contact, error) {
	c := contact{
		name:  strings.TrimSpace(name),
		email: strings.ToLower(strings.TrimSpace(email)),
		phone: strings.TrimSpace(phone),
	}

	if c.name == "" {
		return c, types.NewFieldError("name", "is required")
	}
	if c.email == "" {
		return c, types.NewFieldError("email", "is required")
	}
	addr, err := mail.ParseAddress(c.email)
	if err != nil || addr.Address != c.email {
		return c, types.NewFieldError("email", "invalid email format")
	}
	if !phonePattern.MatchString(c.phone) {
		return c, types.NewFieldError("phone", "must be exactly 10 digits")
	}

	return c, nil
}

func validateLocation(loc types.Location) (types.Location, error) {
	loc.Name = strings.TrimSpace(loc.Name)
	if loc.Name == "" {
		return loc, types.NewFieldError("locationName", "is required")
	}
	if !loc.Valid() {
		return loc, types.NewFieldError("location", "coordinates out of range")
	}
	return loc, nil
}
