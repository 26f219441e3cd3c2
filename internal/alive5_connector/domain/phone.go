package domain

import "regexp"

// PhoneField names which side of a message a phone number belongs to.
type PhoneField string

const (
	PhoneFieldFrom PhoneField = "From"
	PhoneFieldTo   PhoneField = "To"
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// IsE164 reports whether number is a '+' followed by 2 to 15 digits, the first of which is non-zero.
func IsE164(number string) bool {
	return e164Pattern.MatchString(number)
}

// ValidateE164 returns an *InvalidPhoneNumberError naming field when number is not E.164.
func ValidateE164(field PhoneField, number string) error {
	if !IsE164(number) {
		return &InvalidPhoneNumberError{Field: field, Number: number}
	}
	return nil
}
