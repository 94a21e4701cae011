package ledger

import (
	"strings"

	"github.com/asaskevich/govalidator"
)

const e164Pattern = `^\+[1-9]\d{1,14}$`

// UserProfile is the caller-supplied part of a User.
type UserProfile struct {
	Name        string
	Address     Address
	PhoneNumber string
	Email       string
}

// UserPatch carries the fields to change on update; nil fields are left as is.
type UserPatch struct {
	Name        *string
	Address     *Address
	PhoneNumber *string
	Email       *string
}

// Validate returns the first offending field as a ValidationError.
func (p UserProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return blank("name")
	}
	if !govalidator.StringLength(p.Name, "1", "255") {
		return &ValidationError{Field: "name", Reason: "must be at most 255 characters"}
	}
	if err := p.Address.Validate(); err != nil {
		return err
	}
	if !govalidator.Matches(p.PhoneNumber, e164Pattern) {
		return &ValidationError{Field: "phoneNumber", Reason: "must be in E.164 format"}
	}
	if !govalidator.StringLength(p.Email, "1", "255") || !govalidator.IsEmail(p.Email) {
		return &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	return nil
}

func (a Address) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"address.line1", a.Line1},
		{"address.town", a.Town},
		{"address.county", a.County},
		{"address.postcode", a.Postcode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return blank(r.field)
		}
	}
	return nil
}

func (p UserPatch) applyTo(profile UserProfile) UserProfile {
	if p.Name != nil {
		profile.Name = *p.Name
	}
	if p.Address != nil {
		profile.Address = *p.Address
	}
	if p.PhoneNumber != nil {
		profile.PhoneNumber = *p.PhoneNumber
	}
	if p.Email != nil {
		profile.Email = *p.Email
	}
	return profile
}

func (u User) profile() UserProfile {
	return UserProfile{
		Name:        u.Name,
		Address:     u.Address,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
	}
}
