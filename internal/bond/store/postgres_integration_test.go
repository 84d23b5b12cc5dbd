//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bondbook/internal/bond/models"
	"bondbook/internal/bond/store"
	id "bondbook/pkg/domain"
	"bondbook/pkg/platform/sentinel"
	"bondbook/pkg/requestcontext"
	"bondbook/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
	owner    id.OwnerID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC))
	s.owner = id.OwnerID(uuid.New())
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "bonds"))
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

func (s *PostgresStoreSuite) TestInsertAndFind() {
	b := newBond(s.owner, "123451232513", 100, "EUR")
	s.Require().NoError(s.store.Insert(s.ctx, b))
	s.Equal(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), b.Created)

	found, err := s.store.Find(s.ctx, s.owner, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(found, 1)

	got := found[0]
	s.Equal(s.owner, got.Owner)
	s.Equal("123451232513", got.ISIN)
	s.Equal(int64(100), got.Size)
	s.Equal("EUR", got.Currency)
	s.Equal(b.Maturity, got.Maturity)
	s.Equal("Test", got.LegalName)
	s.Equal(b.Created, got.Created)
}

func (s *PostgresStoreSuite) TestFindFilters() {
	s.Require().NoError(s.store.Insert(s.ctx, newBond(s.owner, "BBBBBBBBBBB2", 50, "EUR")))
	s.Require().NoError(s.store.Insert(s.ctx, newBond(s.owner, "AAAAAAAAAAA1", 50, "USD")))
	s.Require().NoError(s.store.Insert(s.ctx, newBond(s.owner, "CCCCCCCCCCC3", 100, "EUR")))
	late := newBond(s.owner, "DDDDDDDDDDD4", 200, "GBP")
	late.Maturity = time.Date(2040, 6, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Insert(s.ctx, late))
	s.Require().NoError(s.store.Insert(s.ctx, newBond(id.OwnerID(uuid.New()), "EEEEEEEEEEE5", 50, "EUR")))

	tests := []struct {
		name   string
		filter models.Filter
		isins  []string
	}{
		{"all of owner", models.Filter{}, []string{"AAAAAAAAAAA1", "BBBBBBBBBBB2", "CCCCCCCCCCC3", "DDDDDDDDDDD4"}},
		{"size", models.Filter{Size: ptr(int64(50))}, []string{"AAAAAAAAAAA1", "BBBBBBBBBBB2"}},
		{"isin", models.Filter{ISIN: ptr("CCCCCCCCCCC3")}, []string{"CCCCCCCCCCC3"}},
		{"currency and size", models.Filter{Currency: ptr("EUR"), Size: ptr(int64(50))}, []string{"BBBBBBBBBBB2"}},
		{"maturity", models.Filter{Maturity: ptr(time.Date(2040, 6, 1, 0, 0, 0, 0, time.UTC))}, []string{"DDDDDDDDDDD4"}},
		{"legal name", models.Filter{LegalName: ptr("Nobody")}, []string{}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			found, err := s.store.Find(s.ctx, s.owner, tt.filter)
			s.Require().NoError(err)
			isins := make([]string, 0, len(found))
			for _, b := range found {
				isins = append(isins, b.ISIN)
			}
			s.Equal(tt.isins, isins)
		})
	}
}

func (s *PostgresStoreSuite) TestDuplicateInsert() {
	s.Require().NoError(s.store.Insert(s.ctx, newBond(s.owner, "US0378331005", 10, "USD")))

	err := s.store.Insert(s.ctx, newBond(s.owner, "US0378331005", 20, "EUR"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

	s.Require().NoError(s.store.Insert(s.ctx, newBond(id.OwnerID(uuid.New()), "US0378331005", 10, "USD")))
}

func (s *PostgresStoreSuite) TestDeleteByKey() {
	s.Require().NoError(s.store.Insert(s.ctx, newBond(s.owner, "US0378331005", 10, "USD")))

	err := s.store.DeleteByKey(s.ctx, id.OwnerID(uuid.New()), "US0378331005")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.DeleteByKey(s.ctx, s.owner, "US0378331005"))

	err = s.store.DeleteByKey(s.ctx, s.owner, "US0378331005")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentDuplicateInsert verifies that concurrent inserts of the same
// (owner, isin) result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentDuplicateInsert() {
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var duplicateCount atomic.Int32
	var otherErrors atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Insert(s.ctx, newBond(s.owner, "US0378331005", 10, "USD"))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				duplicateCount.Add(1)
			default:
				otherErrors.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one insert should succeed")
	s.Equal(int32(goroutines-1), duplicateCount.Load())
	s.Zero(otherErrors.Load())
}
