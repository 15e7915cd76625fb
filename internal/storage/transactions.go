package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
	"github.com/InyerM/spends-assistant-web-sub000/internal/service"
)

const transactionColumns = `
	id, date, description, raw_text, amount, type, source, account_id,
	category_id, notes, is_reconciled, transfer_id, transfer_to_account_id,
	applied_rules, created_at`

// SaveTransactions saves multiple transactions to the database in one
// transaction, assigning IDs when empty.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveTransactionsTx(ctx, tx, transactions)
	})
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, q queryable, transactions []model.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, hash, date, description, raw_text, amount, type, source, account_id,
			category_id, notes, is_reconciled, transfer_id, transfer_to_account_id,
			applied_rules, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	for i := range transactions {
		txn := &transactions[i]
		if txn.ID == "" {
			txn.ID = s.newID()
		}
		if txn.CreatedAt.IsZero() {
			txn.CreatedAt = now
		}

		applied := txn.AppliedRules
		if applied == nil {
			applied = []model.AppliedRule{}
		}
		appliedJSON, err := json.Marshal(applied)
		if err != nil {
			return fmt.Errorf("failed to encode applied rules of %s: %w", txn.ID, err)
		}

		_, err = q.ExecContext(ctx, query,
			txn.ID, txn.GenerateHash(), txn.Date, txn.Description, txn.RawText,
			txn.Amount, txn.Type, txn.Source, txn.AccountID,
			txn.CategoryID, txn.Notes, txn.IsReconciled, txn.TransferID, txn.TransferToAccountID,
			string(appliedJSON), txn.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, classifyError(err))
		}
	}

	return nil
}

// GetTransaction retrieves a single transaction by ID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getTransactionTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getTransactionTx(ctx context.Context, q queryable, id string) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	txn, err := scanTransaction(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactions retrieves transactions matching filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", common.ErrInvalidInput)
	}
	return s.getTransactionsTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) getTransactionsTx(ctx context.Context, q queryable, filter service.TransactionFilter) ([]model.Transaction, error) {
	var where []string
	var args []any

	if filter.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	return s.queryTransactions(ctx, q, query, args...)
}

// GetTransactionsByTransferID returns both halves of a transfer pairing.
func (s *SQLiteStorage) GetTransactionsByTransferID(ctx context.Context, transferID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transferID, "transferID"); err != nil {
		return nil, err
	}
	return s.getTransactionsByTransferIDTx(ctx, s.db, transferID)
}

func (s *SQLiteStorage) getTransactionsByTransferIDTx(ctx context.Context, q queryable, transferID string) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transfer_id = ? ORDER BY created_at, id`
	return s.queryTransactions(ctx, q, query, transferID)
}

// FindDuplicate returns the oldest transaction sharing the duplicate-guard
// tuple (date, amount, account), or nil when there is none.
func (s *SQLiteStorage) FindDuplicate(ctx context.Context, key model.DuplicateKey) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.findDuplicateTx(ctx, s.db, key)
}

func (s *SQLiteStorage) findDuplicateTx(ctx context.Context, q queryable, key model.DuplicateKey) (*model.Transaction, error) {
	probe := model.Transaction{Date: key.Date, Amount: key.Amount, AccountID: key.AccountID}

	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE hash = ? ORDER BY created_at, id LIMIT 1`

	txn, err := scanTransaction(q.QueryRowContext(ctx, query, probe.GenerateHash()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up duplicate: %w", classifyError(err))
	}
	return txn, nil
}

// DeleteTransaction removes a transaction and, when it is half of a transfer
// pairing, its sibling.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteTransactionTx(ctx, tx, id)
	})
}

func (s *SQLiteStorage) deleteTransactionTx(ctx context.Context, q queryable, id string) error {
	var transferID sql.NullString
	err := q.QueryRowContext(ctx, `SELECT transfer_id FROM transactions WHERE id = ?`, id).Scan(&transferID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("transaction %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", classifyError(err))
	}

	if transferID.Valid && transferID.String != "" {
		_, err = q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? OR transfer_id = ?`, id, transferID.String)
	} else {
		_, err = q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", classifyError(err))
	}
	return nil
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, q queryable, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", classifyError(err))
	}
	defer func() { _ = rows.Close() }()

	transactions := []model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}

	return transactions, rows.Err()
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var categoryID, transferID, transferTo sql.NullString
	var applied string

	err := row.Scan(
		&txn.ID, &txn.Date, &txn.Description, &txn.RawText, &txn.Amount, &txn.Type, &txn.Source, &txn.AccountID,
		&categoryID, &txn.Notes, &txn.IsReconciled, &transferID, &transferTo,
		&applied, &txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		txn.CategoryID = &categoryID.String
	}
	if transferID.Valid {
		txn.TransferID = &transferID.String
	}
	if transferTo.Valid {
		txn.TransferToAccountID = &transferTo.String
	}
	if applied != "" {
		if err := json.Unmarshal([]byte(applied), &txn.AppliedRules); err != nil {
			return nil, fmt.Errorf("failed to decode applied rules of %s: %w", txn.ID, err)
		}
	}

	return &txn, nil
}
