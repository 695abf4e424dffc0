package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"alideal-affiliate-relay/db"
)

// SQLStore persists post records in a post_records table via sqlx. The same
// store works over Postgres (pgx), local SQLite (modernc) and remote libsql;
// Rebind papers over the placeholder differences. It takes the db.Conn
// surface so an unconfigured ledger database fails fast with
// db.ErrSQLiteDisabled instead of nil panicking.
type SQLStore struct {
	db       db.Conn
	cooldown time.Duration
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewSQLStore(conn db.Conn, cooldown time.Duration, logger *zap.SugaredLogger) *SQLStore {
	return &SQLStore{
		db:       conn,
		cooldown: cooldown,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *SQLStore) Seen(ctx context.Context, productID string) (bool, error) {
	q := s.db.Rebind(`
SELECT posted_at FROM post_records
WHERE product_id = ?
ORDER BY posted_at DESC
LIMIT 1
`)

	var postedAt time.Time
	err := s.db.QueryRowxContext(ctx, q, productID).Scan(&postedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger seen query: %w", err)
	}

	if s.cooldown > 0 && time.Since(postedAt) > s.cooldown {
		return false, nil
	}
	return true, nil
}

func (s *SQLStore) Record(ctx context.Context, rec PostRecord) error {
	if err := s.validate.Struct(rec); err != nil {
		return fmt.Errorf("validate post record: %w", err)
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.PostedAt.IsZero() {
		rec.PostedAt = time.Now().UTC()
	}

	// Check-and-insert runs in one transaction so two workers finishing the
	// same product at the same moment cannot both write a row.
	recordedID, err := db.Tx(ctx, s.db, func(tx *sqlx.Tx) (string, error) {
		sel := tx.Rebind(`
SELECT id FROM post_records
WHERE product_id = ? AND posted_at >= ?
LIMIT 1
`)
		var existing string
		err := tx.QueryRowxContext(ctx, sel, rec.ProductID, rec.PostedAt.Add(-time.Minute)).Scan(&existing)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("check post_records: %w", err)
		}

		ins := tx.Rebind(`
INSERT INTO post_records (id, product_id, channel, origin, posted_at)
VALUES (?, ?, ?, ?, ?)
`)
		if _, err := tx.ExecContext(ctx, ins, rec.ID, rec.ProductID, rec.Channel, rec.Origin, rec.PostedAt); err != nil {
			return "", fmt.Errorf("insert post_records: %w", err)
		}
		return rec.ID, nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("post_record_persisted",
		"id", recordedID,
		"product_id", rec.ProductID,
		"channel", rec.Channel,
		"origin", rec.Origin,
	)
	return nil
}

// GetByProductID returns the most recent record for a product identifier.
func (s *SQLStore) GetByProductID(ctx context.Context, productID string) (*PostRecord, error) {
	q := s.db.Rebind(`
SELECT id, product_id, channel, origin, posted_at FROM post_records
WHERE product_id = ?
ORDER BY posted_at DESC
LIMIT 1
`)

	var rec PostRecord
	if err := s.db.GetContext(ctx, &rec, q, productID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Recent lists the latest records, newest first.
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]PostRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	q := s.db.Rebind(`
SELECT id, product_id, channel, origin, posted_at FROM post_records
ORDER BY posted_at DESC
LIMIT ?
`)

	var recs []PostRecord
	if err := s.db.SelectContext(ctx, &recs, q, limit); err != nil {
		return nil, fmt.Errorf("list post_records: %w", err)
	}
	return recs, nil
}
