// Package validation holds the field checks applied to bond candidates.
//
// Each check is a pure function over a single value and fails with an error
// matching ErrInvalidValue. ValidateBond runs every check and collects the
// failures per field so callers see all problems at once.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"bondbook/internal/bond/models"
	platformstrings "bondbook/pkg/platform/strings"
)

const (
	ISINLength = 12
	LEILength  = 20
)

// ErrInvalidValue is matched by every error returned from this package.
var ErrInvalidValue = errors.New("invalid value")

var upperAlnum = regexp.MustCompile(`^[A-Z0-9]*$`)

// InvalidValueError is a human-readable validation failure.
type InvalidValueError struct {
	Message string
}

func (e *InvalidValueError) Error() string {
	return e.Message
}

func (e *InvalidValueError) Is(target error) bool {
	return target == ErrInvalidValue
}

func invalid(format string, args ...any) error {
	return &InvalidValueError{Message: fmt.Sprintf(format, args...)}
}

// ValidatePositive fails when n <= 0.
func ValidatePositive(n int64) error {
	if n <= 0 {
		return invalid("%d is not a positive integer", n)
	}
	return nil
}

// ValidateISINFormat requires exactly 12 characters from [A-Z0-9].
func ValidateISINFormat(s string) error {
	return validateIdentifier(s, ISINLength, "ISIN")
}

// ValidateLEIFormat requires exactly 20 characters from [A-Z0-9].
func ValidateLEIFormat(s string) error {
	return validateIdentifier(s, LEILength, "LEI")
}

func validateIdentifier(s string, length int, name string) error {
	if !upperAlnum.MatchString(s) {
		return invalid("%s must be an uppercase alphanumeric string", name)
	}
	if len(s) != length {
		return invalid("%s has invalid length for %s", s, name)
	}
	return nil
}

// ValidateMaturity requires a YYYY-MM-DD calendar date.
func ValidateMaturity(s string) error {
	if _, err := models.ParseDate(s); err != nil {
		return invalid("date has wrong format, use YYYY-MM-DD")
	}
	return nil
}

// Validator carries the configured currency set. It is safe for concurrent
// use; the set is never modified after construction.
type Validator struct {
	currencies map[string]struct{}
}

// New builds a Validator recognising the given currency codes. Codes are
// trimmed and deduplicated; membership checks afterwards are exact.
func New(currencyCodes []string) *Validator {
	codes := platformstrings.DedupeAndTrim(currencyCodes)
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return &Validator{currencies: set}
}

// ValidateCurrencyCode fails unless code is a configured currency code.
func (v *Validator) ValidateCurrencyCode(code string) error {
	if _, ok := v.currencies[code]; !ok {
		return invalid("%s currency code does not exist", code)
	}
	return nil
}

// ValidateBond runs every field check against c. It returns nil or a
// FieldErrors value keyed by the JSON field name.
func (v *Validator) ValidateBond(c *models.Candidate) error {
	fe := FieldErrors{}

	if c.ISIN == nil {
		fe.Add("isin", MsgRequired)
	} else {
		fe.AddErr("isin", ValidateISINFormat(*c.ISIN))
	}

	if c.Size == nil {
		fe.Add("size", MsgRequired)
	} else {
		fe.AddErr("size", ValidatePositive(*c.Size))
	}

	if c.Currency == nil {
		fe.Add("currency", MsgRequired)
	} else {
		fe.AddErr("currency", v.ValidateCurrencyCode(*c.Currency))
	}

	if c.Maturity == nil {
		fe.Add("maturity", MsgRequired)
	} else {
		fe.AddErr("maturity", ValidateMaturity(*c.Maturity))
	}

	if c.LEI == nil {
		fe.Add("lei", MsgRequired)
	} else {
		fe.AddErr("lei", ValidateLEIFormat(*c.LEI))
	}

	return fe.Err()
}
