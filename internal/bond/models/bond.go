package models

import (
	"fmt"
	"time"

	id "bondbook/pkg/domain"
)

// DateLayout is the wire and storage format of maturity and created dates.
const DateLayout = "2006-01-02"

// Bond is a bond record owned by a single caller.
//
// Invariants:
//   - (Owner, ISIN) is unique
//   - LegalName comes from LEI resolution at creation time, never from the caller
//   - Created is stamped once by the store and never changes
//   - there is no update path; a bond is created and optionally deleted
type Bond struct {
	Owner     id.OwnerID
	ISIN      string
	Size      int64
	Currency  string
	Maturity  time.Time
	LEI       string
	LegalName string
	Created   time.Time
}

func (b *Bond) String() string {
	return fmt.Sprintf("isin: %s, user: %s", b.ISIN, b.Owner)
}

// Candidate is the caller-supplied part of a bond before enrichment.
// Nil fields were absent from the request.
type Candidate struct {
	ISIN     *string
	Size     *int64
	Currency *string
	Maturity *string
	LEI      *string
}

// HasLEI reports whether the caller supplied an LEI at all.
func (c *Candidate) HasLEI() bool {
	return c.LEI != nil
}

// ToBond builds the record to persist. The candidate must already have passed
// validation; an unparsable maturity is still reported rather than zeroed.
func (c *Candidate) ToBond(owner id.OwnerID, legalName string) (*Bond, error) {
	if c.ISIN == nil || c.Size == nil || c.Currency == nil || c.Maturity == nil || c.LEI == nil {
		return nil, fmt.Errorf("candidate is incomplete")
	}
	maturity, err := ParseDate(*c.Maturity)
	if err != nil {
		return nil, fmt.Errorf("parse maturity: %w", err)
	}
	return &Bond{
		Owner:     owner,
		ISIN:      *c.ISIN,
		Size:      *c.Size,
		Currency:  *c.Currency,
		Maturity:  maturity,
		LEI:       *c.LEI,
		LegalName: legalName,
	}, nil
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
