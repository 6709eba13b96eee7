// Package store records trade submissions and their outcomes in MySQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

var errNilDB = errors.New("nil database handle")

// Submission is one dispatched trade attempt.
type Submission struct {
	Attempt       string
	Network       string
	Base          string
	Quote         string
	Side          string
	Price         float64
	Channel       string
	Signature     string
	SubmittedSlot uint64
}

// TradeStore persists submissions keyed by attempt id.
type TradeStore struct {
	db *sql.DB
}

// Open connects to MySQL with the given DSN.
func Open(dsn string) (*TradeStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open trade store: %w", err)
	}
	return &TradeStore{db: db}, nil
}

// NewWithDB wraps an existing handle (tests).
func NewWithDB(db *sql.DB) (*TradeStore, error) {
	if db == nil {
		return nil, errNilDB
	}
	return &TradeStore{db: db}, nil
}

// Close releases the underlying pool.
func (s *TradeStore) Close() error {
	return s.db.Close()
}

// RecordSubmission inserts one dispatched attempt with status "submitted".
func (s *TradeStore) RecordSubmission(ctx context.Context, sub Submission) error {
	const q = `INSERT INTO trades
		(attempt, network, base, quote, side, price, channel, signature, submitted_slot, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'submitted')`

	_, err := s.db.ExecContext(ctx, q,
		sub.Attempt, sub.Network, sub.Base, sub.Quote, sub.Side,
		sub.Price, sub.Channel, sub.Signature, sub.SubmittedSlot)
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// RecordOutcome updates an attempt with its terminal confirmation status.
func (s *TradeStore) RecordOutcome(ctx context.Context, attempt, status string, landedSlot uint64) error {
	const q = `UPDATE trades SET status = ?, landed_slot = ? WHERE attempt = ?`

	_, err := s.db.ExecContext(ctx, q, status, landedSlot, attempt)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// CountByChannel reports how many attempts went down one delivery channel,
// for landed-rate comparisons across channels.
func (s *TradeStore) CountByChannel(ctx context.Context, channel string) (int, error) {
	const q = `SELECT COUNT(*) FROM trades WHERE channel = ?`

	var n int
	if err := s.db.QueryRowContext(ctx, q, channel).Scan(&n); err != nil {
		return 0, fmt.Errorf("count by channel: %w", err)
	}
	return n, nil
}
