package models

import "time"

// Filter holds optional equality constraints for listing bonds.
// Nil fields are unconstrained; set fields are ANDed.
type Filter struct {
	ISIN      *string
	Size      *int64
	Currency  *string
	LEI       *string
	LegalName *string
	Maturity  *time.Time
}

// Matches reports whether b satisfies every set constraint.
func (f Filter) Matches(b *Bond) bool {
	if f.ISIN != nil && b.ISIN != *f.ISIN {
		return false
	}
	if f.Size != nil && b.Size != *f.Size {
		return false
	}
	if f.Currency != nil && b.Currency != *f.Currency {
		return false
	}
	if f.LEI != nil && b.LEI != *f.LEI {
		return false
	}
	if f.LegalName != nil && b.LegalName != *f.LegalName {
		return false
	}
	if f.Maturity != nil && !DateOf(b.Maturity).Equal(DateOf(*f.Maturity)) {
		return false
	}
	return true
}
