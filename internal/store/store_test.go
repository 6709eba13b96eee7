package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*TradeStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewWithDB(db)
	require.NoError(t, err)
	return s, mock
}

func TestRecordSubmission(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO trades").
		WithArgs("a1", "mainnet", "SOL", "USDC", "SELL", 150.0, "relay", "sig1", uint64(100)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.RecordSubmission(context.Background(), Submission{
		Attempt:       "a1",
		Network:       "mainnet",
		Base:          "SOL",
		Quote:         "USDC",
		Side:          "SELL",
		Price:         150.0,
		Channel:       "relay",
		Signature:     "sig1",
		SubmittedSlot: 100,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOutcome(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE trades SET status").
		WithArgs("Confirmed", uint64(105), "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.RecordOutcome(context.Background(), "a1", "Confirmed", 105))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByChannel(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("relay").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := s.CountByChannel(context.Background(), "relay")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestNewWithNilDB(t *testing.T) {
	_, err := NewWithDB(nil)
	require.Error(t, err)
}
