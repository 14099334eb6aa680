/*
Package sqlite is the SQLite-backed implementation of the portal's working
data store.

PURPOSE:
  The portal's own records (withdrawal queue, ACH reconciliation entries,
  document metadata) live locally; account balances and ledgers stay in
  Harbor. The same patterns apply to PostgreSQL in production - only minor
  SQL dialect differences.

KEY TABLES:
  withdrawal_requests: the ops review queue
  ach_transactions:    ACH legs tracked for reconciliation
  documents:           client document metadata (object-storage keys)

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - portal/types.go: the Store interface this package implements
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/darren-olevson/wts-admin-portal-sub000/portal"
)

// Store implements portal.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		client_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		requested_at TEXT NOT NULL,
		reviewed_at TEXT,
		reviewed_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_withdrawals_status
		ON withdrawal_requests(status);
	CREATE INDEX IF NOT EXISTS idx_withdrawals_account
		ON withdrawal_requests(account_id);

	CREATE TABLE IF NOT EXISTS ach_transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		direction TEXT NOT NULL,
		status TEXT NOT NULL,
		trace_number TEXT,
		effective_at TEXT NOT NULL,
		reconciled_at TEXT,
		reconciled_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_ach_status
		ON ach_transactions(status);
	CREATE INDEX IF NOT EXISTS idx_ach_account
		ON ach_transactions(account_id);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		name TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		storage_key TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		uploaded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_account
		ON documents(account_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WITHDRAWAL QUEUE
// =============================================================================

func (s *Store) SaveWithdrawal(ctx context.Context, w portal.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO withdrawal_requests
		(id, account_id, client_name, amount, status, reason, requested_at, reviewed_at, reviewed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		w.ID,
		w.AccountID,
		w.ClientName,
		w.Amount.String(),
		w.Status,
		w.Reason,
		w.RequestedAt.UTC().Format(time.RFC3339),
		formatNullTime(w.ReviewedAt),
		w.ReviewedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save withdrawal: %w", err)
	}
	return nil
}

func (s *Store) UpdateWithdrawal(ctx context.Context, w portal.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE withdrawal_requests
		SET status = ?, reason = ?, reviewed_at = ?, reviewed_by = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		w.Status,
		w.Reason,
		formatNullTime(w.ReviewedAt),
		w.ReviewedBy,
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portal.ErrWithdrawalNotFound
	}
	return nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id string) (*portal.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryWithdrawals(ctx, withdrawalSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) ListWithdrawals(ctx context.Context, status portal.WithdrawalStatus) ([]portal.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status == "" {
		return s.queryWithdrawals(ctx, withdrawalSelect+" ORDER BY requested_at DESC")
	}
	return s.queryWithdrawals(ctx, withdrawalSelect+" WHERE status = ? ORDER BY requested_at DESC", status)
}

const withdrawalSelect = `
	SELECT id, account_id, client_name, amount, status, reason, requested_at, reviewed_at, reviewed_by
	FROM withdrawal_requests`

func (s *Store) queryWithdrawals(ctx context.Context, query string, args ...any) ([]portal.WithdrawalRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	var result []portal.WithdrawalRequest
	for rows.Next() {
		var (
			w           portal.WithdrawalRequest
			amount      string
			reason      sql.NullString
			requestedAt string
			reviewedAt  sql.NullString
			reviewedBy  sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.AccountID, &w.ClientName, &amount, &w.Status,
			&reason, &requestedAt, &reviewedAt, &reviewedBy); err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		if w.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad amount %q for withdrawal %s: %w", amount, w.ID, err)
		}
		w.Reason = reason.String
		w.ReviewedBy = reviewedBy.String
		if w.RequestedAt, err = time.Parse(time.RFC3339, requestedAt); err != nil {
			return nil, fmt.Errorf("bad requested_at for withdrawal %s: %w", w.ID, err)
		}
		if w.ReviewedAt, err = parseNullTime(reviewedAt); err != nil {
			return nil, fmt.Errorf("bad reviewed_at for withdrawal %s: %w", w.ID, err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// =============================================================================
// ACH TRANSACTIONS
// =============================================================================

func (s *Store) SaveACH(ctx context.Context, tx portal.ACHTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO ach_transactions
		(id, account_id, amount, direction, status, trace_number, effective_at, reconciled_at, reconciled_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		tx.AccountID,
		tx.Amount.String(),
		tx.Direction,
		tx.Status,
		tx.TraceNumber,
		tx.EffectiveAt.UTC().Format(time.RFC3339),
		formatNullTime(tx.ReconciledAt),
		tx.ReconciledBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save ach transaction: %w", err)
	}
	return nil
}

func (s *Store) UpdateACH(ctx context.Context, tx portal.ACHTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE ach_transactions
		SET status = ?, reconciled_at = ?, reconciled_by = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		tx.Status,
		formatNullTime(tx.ReconciledAt),
		tx.ReconciledBy,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ach transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portal.ErrACHNotFound
	}
	return nil
}

func (s *Store) GetACH(ctx context.Context, id string) (*portal.ACHTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryACH(ctx, achSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) ListACH(ctx context.Context, status portal.ACHStatus) ([]portal.ACHTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status == "" {
		return s.queryACH(ctx, achSelect+" ORDER BY effective_at DESC")
	}
	return s.queryACH(ctx, achSelect+" WHERE status = ? ORDER BY effective_at DESC", status)
}

const achSelect = `
	SELECT id, account_id, amount, direction, status, trace_number, effective_at, reconciled_at, reconciled_by
	FROM ach_transactions`

func (s *Store) queryACH(ctx context.Context, query string, args ...any) ([]portal.ACHTransaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ach transactions: %w", err)
	}
	defer rows.Close()

	var result []portal.ACHTransaction
	for rows.Next() {
		var (
			tx           portal.ACHTransaction
			amount       string
			traceNumber  sql.NullString
			effectiveAt  string
			reconciledAt sql.NullString
			reconciledBy sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.AccountID, &amount, &tx.Direction, &tx.Status,
			&traceNumber, &effectiveAt, &reconciledAt, &reconciledBy); err != nil {
			return nil, fmt.Errorf("failed to scan ach transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad amount %q for ach %s: %w", amount, tx.ID, err)
		}
		tx.TraceNumber = traceNumber.String
		tx.ReconciledBy = reconciledBy.String
		if tx.EffectiveAt, err = time.Parse(time.RFC3339, effectiveAt); err != nil {
			return nil, fmt.Errorf("bad effective_at for ach %s: %w", tx.ID, err)
		}
		if tx.ReconciledAt, err = parseNullTime(reconciledAt); err != nil {
			return nil, fmt.Errorf("bad reconciled_at for ach %s: %w", tx.ID, err)
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func (s *Store) SaveDocument(ctx context.Context, d portal.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO documents
		(id, account_id, name, doc_type, storage_key, size_bytes, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID,
		d.AccountID,
		d.Name,
		d.Type,
		d.StorageKey,
		d.SizeBytes,
		d.UploadedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, accountID string) ([]portal.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if accountID == "" {
		return s.queryDocuments(ctx, documentSelect+" ORDER BY uploaded_at DESC")
	}
	return s.queryDocuments(ctx, documentSelect+" WHERE account_id = ? ORDER BY uploaded_at DESC", accountID)
}

// GetDocuments returns the documents matching the given IDs. Missing IDs are
// skipped; bulk-download jobs report them separately.
func (s *Store) GetDocuments(ctx context.Context, ids []string) ([]portal.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	return s.queryDocuments(ctx, documentSelect+" WHERE id IN ("+placeholders+")", args...)
}

const documentSelect = `
	SELECT id, account_id, name, doc_type, storage_key, size_bytes, uploaded_at
	FROM documents`

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]portal.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var result []portal.Document
	for rows.Next() {
		var (
			d          portal.Document
			uploadedAt string
		)
		if err := rows.Scan(&d.ID, &d.AccountID, &d.Name, &d.Type, &d.StorageKey,
			&d.SizeBytes, &uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if d.UploadedAt, err = time.Parse(time.RFC3339, uploadedAt); err != nil {
			return nil, fmt.Errorf("bad uploaded_at for document %s: %w", d.ID, err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// Reset clears all tables. Dev/demo use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"withdrawal_requests", "ach_transactions", "documents"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
