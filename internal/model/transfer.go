package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRequest asks the persistence layer to create the mirrored half of a
// transfer pairing.
type TransferRequest struct {
	Date          time.Time       `json:"date"`
	TransferID    string          `json:"transfer_id"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Description   string          `json:"description"`
	Type          TransactionType `json:"type"`
	Source        string          `json:"source"`
	Amount        decimal.Decimal `json:"amount"`
}

// Mirror builds the mirrored transaction for the request.
func (t TransferRequest) Mirror(id string) Transaction {
	from := t.FromAccountID
	transferID := t.TransferID
	return Transaction{
		ID:                  id,
		Date:                t.Date,
		Description:         t.Description,
		Amount:              t.Amount,
		Type:                t.Type,
		Source:              t.Source,
		AccountID:           t.ToAccountID,
		TransferID:          &transferID,
		TransferToAccountID: &from,
	}
}

// DuplicateKey is the tuple two transactions must share to be duplicates.
type DuplicateKey struct {
	Date      time.Time
	AccountID string
	Amount    decimal.Decimal
}

// DuplicateConflict reports an existing transaction matching a DuplicateKey.
type DuplicateConflict struct {
	Existing Transaction  `json:"existing"`
	Key      DuplicateKey `json:"-"`
}
