package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	"github.com/uptrace/bun"
)

var ErrItemNotFound = errors.New("catalog item not found")

// Store is a catalog backend usable by the domain agents and the booking executor.
type Store interface {
	contractx.CatalogReader
	contractx.Inventory
	contractx.BookingStore
}

// SQLStore keeps catalog, inventory and bookings in a bun database.
// It runs on Postgres in production and SQLite for local runs and tests.
type SQLStore struct {
	db  *bun.DB
	now func() time.Time
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(db *bun.DB) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

// CreateTables creates the flights, hotels and bookings tables if missing.
func (s *SQLStore) CreateTables(ctx context.Context) error {
	for _, model := range []any{(*Flight)(nil), (*Hotel)(nil), (*Booking)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", model, err)
		}
	}
	return nil
}

// Seed inserts rows, skipping ids that already exist.
func (s *SQLStore) Seed(ctx context.Context, flights []Flight, hotels []Hotel) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if len(flights) > 0 {
			if _, err := tx.NewInsert().Model(&flights).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("seed flights: %w", err)
			}
		}
		if len(hotels) > 0 {
			if _, err := tx.NewInsert().Model(&hotels).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("seed hotels: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) Snapshot(ctx context.Context, domain contractx.Domain, limit int) ([]contractx.CatalogItem, error) {
	if limit <= 0 {
		limit = 100
	}

	switch domain {
	case contractx.DomainFlight:
		var rows []Flight
		if err := s.db.NewSelect().Model(&rows).OrderExpr("f.id ASC").Limit(limit).Scan(ctx); err != nil {
			return nil, contractx.Transient("select flights", err)
		}
		items := make([]contractx.CatalogItem, 0, len(rows))
		for _, r := range rows {
			items = append(items, r.Item())
		}
		return items, nil
	case contractx.DomainHotel:
		var rows []Hotel
		if err := s.db.NewSelect().Model(&rows).OrderExpr("h.id ASC").Limit(limit).Scan(ctx); err != nil {
			return nil, contractx.Transient("select hotels", err)
		}
		items := make([]contractx.CatalogItem, 0, len(rows))
		for _, r := range rows {
			items = append(items, r.Item())
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: unknown domain %q", contractx.ErrValidation, domain)
	}
}

// Get returns a single catalog item.
func (s *SQLStore) Get(ctx context.Context, domain contractx.Domain, itemID string) (contractx.CatalogItem, error) {
	switch domain {
	case contractx.DomainFlight:
		var row Flight
		err := s.db.NewSelect().Model(&row).Where("f.id = ?", itemID).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.CatalogItem{}, ErrItemNotFound
		}
		if err != nil {
			return contractx.CatalogItem{}, contractx.Transient("select flight", err)
		}
		return row.Item(), nil
	case contractx.DomainHotel:
		var row Hotel
		err := s.db.NewSelect().Model(&row).Where("h.id = ?", itemID).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.CatalogItem{}, ErrItemNotFound
		}
		if err != nil {
			return contractx.CatalogItem{}, contractx.Transient("select hotel", err)
		}
		return row.Item(), nil
	default:
		return contractx.CatalogItem{}, fmt.Errorf("%w: unknown domain %q", contractx.ErrValidation, domain)
	}
}

// DecrementIfAvailable runs a single guarded UPDATE; zero affected rows means
// the item was sold out or does not exist.
func (s *SQLStore) DecrementIfAvailable(ctx context.Context, domain contractx.Domain, itemID string) (bool, error) {
	column, err := inventoryColumn(domain)
	if err != nil {
		return false, err
	}
	res, err := s.db.NewUpdate().
		Model(inventoryModel(domain)).
		Set("? = ? - 1", bun.Ident(column), bun.Ident(column)).
		Where("id = ?", itemID).
		Where("? > 0", bun.Ident(column)).
		Exec(ctx)
	if err != nil {
		return false, contractx.Transient("decrement inventory", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, contractx.Transient("decrement inventory", err)
	}
	return n == 1, nil
}

func (s *SQLStore) Increment(ctx context.Context, domain contractx.Domain, itemID string) error {
	column, err := inventoryColumn(domain)
	if err != nil {
		return err
	}
	res, err := s.db.NewUpdate().
		Model(inventoryModel(domain)).
		Set("? = ? + 1", bun.Ident(column), bun.Ident(column)).
		Where("id = ?", itemID).
		Exec(ctx)
	if err != nil {
		return contractx.Transient("increment inventory", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return contractx.Transient("increment inventory", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: domain=%s id=%s", ErrItemNotFound, domain, itemID)
	}
	return nil
}

func (s *SQLStore) Insert(ctx context.Context, rec contractx.BookingRecord) (string, error) {
	if strings.TrimSpace(rec.ActionID) == "" {
		return "", fmt.Errorf("%w: booking action id is required", contractx.ErrValidation)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	row := bookingFromRecord(rec)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return "", contractx.Transient("insert booking", err)
	}
	return row.ID, nil
}

func (s *SQLStore) FindByActionID(ctx context.Context, actionID string) (*contractx.BookingRecord, error) {
	var row Booking
	err := s.db.NewSelect().Model(&row).Where("b.action_id = ?", actionID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, contractx.Transient("select booking", err)
	}
	rec := row.Record()
	return &rec, nil
}

// Bookings lists a user's bookings, newest first.
func (s *SQLStore) Bookings(ctx context.Context, userID string) ([]contractx.BookingRecord, error) {
	var rows []Booking
	if err := s.db.NewSelect().Model(&rows).Where("b.user_id = ?", userID).OrderExpr("b.created_at DESC").Scan(ctx); err != nil {
		return nil, contractx.Transient("select bookings", err)
	}
	out := make([]contractx.BookingRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out, nil
}

func inventoryModel(domain contractx.Domain) any {
	if domain == contractx.DomainFlight {
		return (*Flight)(nil)
	}
	return (*Hotel)(nil)
}
