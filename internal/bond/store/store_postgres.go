package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"bondbook/internal/bond/models"
	id "bondbook/pkg/domain"
	"bondbook/pkg/platform/sentinel"
	"bondbook/pkg/requestcontext"
)

const (
	bondsTable = "bonds"

	pgUniqueViolation = "23505"
)

var (
	psql        = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	bondColumns = []string{"owner_id", "isin", "size", "currency", "maturity", "lei", "legal_name", "created"}
)

// PostgresStore persists bonds in PostgreSQL. Uniqueness of (owner, isin) is
// enforced by the table's primary key.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres constructs a PostgreSQL-backed bond store.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type bondRow struct {
	OwnerID   uuid.UUID `db:"owner_id"`
	ISIN      string    `db:"isin"`
	Size      int64     `db:"size"`
	Currency  string    `db:"currency"`
	Maturity  time.Time `db:"maturity"`
	LEI       string    `db:"lei"`
	LegalName string    `db:"legal_name"`
	Created   time.Time `db:"created"`
}

func (r bondRow) toModel() *models.Bond {
	return &models.Bond{
		Owner:     id.OwnerID(r.OwnerID),
		ISIN:      r.ISIN,
		Size:      r.Size,
		Currency:  r.Currency,
		Maturity:  models.DateOf(r.Maturity),
		LEI:       r.LEI,
		LegalName: r.LegalName,
		Created:   models.DateOf(r.Created),
	}
}

func (s *PostgresStore) Find(ctx context.Context, owner id.OwnerID, filter models.Filter) ([]*models.Bond, error) {
	query := psql.Select(bondColumns...).
		From(bondsTable).
		Where(sq.Eq{"owner_id": uuid.UUID(owner)}).
		OrderBy("isin")
	query = applyFilter(query, filter)

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}

	var rows []bondRow
	if err := s.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("find bonds: %w", err)
	}

	out := make([]*models.Bond, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func applyFilter(q sq.SelectBuilder, f models.Filter) sq.SelectBuilder {
	if f.ISIN != nil {
		q = q.Where(sq.Eq{"isin": *f.ISIN})
	}
	if f.Size != nil {
		q = q.Where(sq.Eq{"size": *f.Size})
	}
	if f.Currency != nil {
		q = q.Where(sq.Eq{"currency": *f.Currency})
	}
	if f.LEI != nil {
		q = q.Where(sq.Eq{"lei": *f.LEI})
	}
	if f.LegalName != nil {
		q = q.Where(sq.Eq{"legal_name": *f.LegalName})
	}
	if f.Maturity != nil {
		q = q.Where(sq.Eq{"maturity": models.DateOf(*f.Maturity)})
	}
	return q
}

// Insert writes b, stamping Created from the request time. A second insert
// for the same (owner, isin) returns sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Insert(ctx context.Context, b *models.Bond) error {
	created := models.DateOf(requestcontext.Now(ctx))

	stmt, args, err := psql.Insert(bondsTable).
		Columns(bondColumns...).
		Values(uuid.UUID(b.Owner), b.ISIN, b.Size, b.Currency, models.DateOf(b.Maturity), b.LEI, b.LegalName, created).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert bond: %w", err)
	}
	b.Created = created
	return nil
}

func (s *PostgresStore) DeleteByKey(ctx context.Context, owner id.OwnerID, isin string) error {
	stmt, args, err := psql.Delete(bondsTable).
		Where(sq.Eq{"owner_id": uuid.UUID(owner), "isin": isin}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete bond: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bond: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
