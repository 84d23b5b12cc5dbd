package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bondbook/pkg/domain"
)

func ptr[T any](v T) *T { return &v }

func validCandidate() *Candidate {
	return &Candidate{
		ISIN:     ptr("123456781234"),
		Size:     ptr(int64(100)),
		Currency: ptr("EUR"),
		Maturity: ptr("2020-12-25"),
		LEI:      ptr("12312312312312312312"),
	}
}

func TestBondString(t *testing.T) {
	owner := id.OwnerID(uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"))
	b := &Bond{Owner: owner, ISIN: "123456781234"}
	assert.Equal(t, "isin: 123456781234, user: 550e8400-e29b-41d4-a716-446655440000", b.String())
}

func TestCandidateToBond(t *testing.T) {
	owner := id.OwnerID(uuid.New())

	t.Run("copies caller fields and attaches legal name", func(t *testing.T) {
		bond, err := validCandidate().ToBond(owner, "test legal name")
		require.NoError(t, err)
		assert.Equal(t, owner, bond.Owner)
		assert.Equal(t, "123456781234", bond.ISIN)
		assert.Equal(t, int64(100), bond.Size)
		assert.Equal(t, "EUR", bond.Currency)
		assert.Equal(t, time.Date(2020, 12, 25, 0, 0, 0, 0, time.UTC), bond.Maturity)
		assert.Equal(t, "test legal name", bond.LegalName)
		assert.True(t, bond.Created.IsZero(), "created is stamped by the store")
	})

	t.Run("rejects incomplete candidate", func(t *testing.T) {
		c := validCandidate()
		c.Size = nil
		_, err := c.ToBond(owner, "x")
		assert.Error(t, err)
	})

	t.Run("rejects bad maturity", func(t *testing.T) {
		c := validCandidate()
		c.Maturity = ptr("25/12/2020")
		_, err := c.ToBond(owner, "x")
		assert.Error(t, err)
	})
}

func TestFilterMatches(t *testing.T) {
	bond := &Bond{
		ISIN:      "123451232513",
		Size:      50,
		Currency:  "EUR",
		LEI:       "R0MUWSFPU8MPRO8K5P83",
		LegalName: "Test",
		Maturity:  time.Date(2021, 12, 25, 0, 0, 0, 0, time.UTC),
	}
	maturity := time.Date(2021, 12, 25, 0, 0, 0, 0, time.UTC)
	otherMaturity := time.Date(2022, 12, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter matches all", Filter{}, true},
		{"size match", Filter{Size: ptr(int64(50))}, true},
		{"size mismatch", Filter{Size: ptr(int64(100))}, false},
		{"currency and size", Filter{Currency: ptr("EUR"), Size: ptr(int64(50))}, true},
		{"currency is case-sensitive", Filter{Currency: ptr("eur")}, false},
		{"isin mismatch", Filter{ISIN: ptr("123451232517")}, false},
		{"lei match", Filter{LEI: ptr("R0MUWSFPU8MPRO8K5P83")}, true},
		{"legal name match", Filter{LegalName: ptr("Test")}, true},
		{"maturity match", Filter{Maturity: &maturity}, true},
		{"maturity mismatch", Filter{Maturity: &otherMaturity}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(bond))
		})
	}
}
