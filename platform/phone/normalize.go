// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "IN"

// NormalizeE164 formats a phone number to E.164. It returns an error if
// the input cannot be parsed or is not a valid number.
func NormalizeE164(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.New("phone number is empty")
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return "", err
	}

	if !phonenumbers.IsValidNumber(number) {
		return "", errors.New("invalid phone number")
	}

	return phonenumbers.Format(number, phonenumbers.E164), nil
}
