package domain

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var passcodePattern = regexp.MustCompile(`^[0-9]{4}$`)

// ValidatePasscode accepts exactly four ASCII digits.
func ValidatePasscode(passcode string) error {
	if !passcodePattern.MatchString(passcode) {
		return ErrInvalidPasscode
	}
	return nil
}

// HashPasscode derives the stored hash. A cost of 0 means bcrypt.DefaultCost.
func HashPasscode(passcode string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// PasscodeMatches compares in constant time. Any failure other than a
// mismatch (for example a corrupt hash) is returned as is.
func PasscodeMatches(hash, passcode string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
