package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bondbook/internal/bond/models"
	id "bondbook/pkg/domain"
	"bondbook/pkg/platform/sentinel"
	"bondbook/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	owner id.OwnerID
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC))
	s.owner = id.OwnerID(uuid.New())
}

func ptr[T any](v T) *T { return &v }

func newBond(owner id.OwnerID, isin string, size int64, currency string) *models.Bond {
	return &models.Bond{
		Owner:     owner,
		ISIN:      isin,
		Size:      size,
		Currency:  currency,
		Maturity:  time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC),
		LEI:       "R0MUWSFPU8MPRO8K5P83",
		LegalName: "Test",
	}
}

func (s *InMemoryStoreSuite) seed() {
	s.Require().NoError(s.store.Insert(s.ctx, newBond(s.owner, "BBBBBBBBBBB2", 50, "EUR")))
	s.Require().NoError(s.store.Insert(s.ctx, newBond(s.owner, "AAAAAAAAAAA1", 50, "USD")))
	s.Require().NoError(s.store.Insert(s.ctx, newBond(s.owner, "CCCCCCCCCCC3", 100, "EUR")))
	late := newBond(s.owner, "DDDDDDDDDDD4", 200, "GBP")
	late.Maturity = time.Date(2040, 6, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Insert(s.ctx, late))
}

func (s *InMemoryStoreSuite) TestInsert() {
	s.Run("stamps created date from request time", func() {
		b := newBond(s.owner, "123451232513", 100, "EUR")
		s.Require().NoError(s.store.Insert(s.ctx, b))
		s.Equal(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), b.Created)

		found, err := s.store.Find(s.ctx, s.owner, models.Filter{ISIN: ptr("123451232513")})
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal(b.Created, found[0].Created)
		s.Equal("Test", found[0].LegalName)
	})

	s.Run("rejects duplicate isin for the same owner", func() {
		err := s.store.Insert(s.ctx, newBond(s.owner, "123451232513", 5, "USD"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("allows the same isin for another owner", func() {
		other := id.OwnerID(uuid.New())
		s.Require().NoError(s.store.Insert(s.ctx, newBond(other, "123451232513", 5, "USD")))
	})
}

func (s *InMemoryStoreSuite) TestFind() {
	s.seed()

	s.Run("no filter returns all bonds ordered by isin", func() {
		found, err := s.store.Find(s.ctx, s.owner, models.Filter{})
		s.Require().NoError(err)
		s.Require().Len(found, 4)
		s.Equal("AAAAAAAAAAA1", found[0].ISIN)
		s.Equal("DDDDDDDDDDD4", found[3].ISIN)
	})

	s.Run("size filter", func() {
		found, err := s.store.Find(s.ctx, s.owner, models.Filter{Size: ptr(int64(50))})
		s.Require().NoError(err)
		s.Len(found, 2)
	})

	s.Run("filters are combined", func() {
		found, err := s.store.Find(s.ctx, s.owner, models.Filter{Size: ptr(int64(50)), Currency: ptr("EUR")})
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal("BBBBBBBBBBB2", found[0].ISIN)
	})

	s.Run("maturity filter", func() {
		found, err := s.store.Find(s.ctx, s.owner, models.Filter{Maturity: ptr(time.Date(2040, 6, 1, 0, 0, 0, 0, time.UTC))})
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal("DDDDDDDDDDD4", found[0].ISIN)
	})

	s.Run("other owner sees nothing", func() {
		found, err := s.store.Find(s.ctx, id.OwnerID(uuid.New()), models.Filter{})
		s.Require().NoError(err)
		s.NotNil(found)
		s.Empty(found)
	})

	s.Run("returned bonds are copies", func() {
		found, err := s.store.Find(s.ctx, s.owner, models.Filter{ISIN: ptr("AAAAAAAAAAA1")})
		s.Require().NoError(err)
		found[0].LegalName = "mutated"

		again, err := s.store.Find(s.ctx, s.owner, models.Filter{ISIN: ptr("AAAAAAAAAAA1")})
		s.Require().NoError(err)
		s.Equal("Test", again[0].LegalName)
	})
}

func (s *InMemoryStoreSuite) TestDeleteByKey() {
	s.seed()

	s.Run("deletes owned bond", func() {
		s.Require().NoError(s.store.DeleteByKey(s.ctx, s.owner, "AAAAAAAAAAA1"))
		found, err := s.store.Find(s.ctx, s.owner, models.Filter{})
		s.Require().NoError(err)
		s.Len(found, 3)
	})

	s.Run("missing bond is not found", func() {
		err := s.store.DeleteByKey(s.ctx, s.owner, "AAAAAAAAAAA1")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("bond of another owner is not found", func() {
		err := s.store.DeleteByKey(s.ctx, id.OwnerID(uuid.New()), "BBBBBBBBBBB2")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentDuplicateInsert verifies that concurrent inserts of the same
// (owner, isin) result in exactly one success.
func (s *InMemoryStoreSuite) TestConcurrentDuplicateInsert() {
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var duplicateCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Insert(s.ctx, newBond(s.owner, "US0378331005", 10, "USD"))
			switch {
			case err == nil:
				successCount.Add(1)
			case err == sentinel.ErrAlreadyUsed:
				duplicateCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), duplicateCount.Load())
}
