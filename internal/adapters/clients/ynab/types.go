package ynab

import (
	"fmt"
	"time"
)

// Transaction is a YNAB transaction with amounts in currency units.
// Outflows are negative.
type Transaction struct {
	ID           string
	Date         time.Time
	Amount       float64
	Memo         string
	Cleared      string
	Approved     bool
	AccountID    string
	AccountName  string
	PayeeID      string
	PayeeName    string
	CategoryID   string
	CategoryName string
	IsSplit      bool
}

// MilliunitsToAmount converts YNAB milliunits (1000 = 1.00) to currency units
func MilliunitsToAmount(milliunits int64) float64 {
	return float64(milliunits) / 1000
}

type apiTransaction struct {
	ID              string              `json:"id"`
	Date            string              `json:"date"`
	Amount          int64               `json:"amount"`
	Memo            *string             `json:"memo"`
	Cleared         string              `json:"cleared"`
	Approved        bool                `json:"approved"`
	AccountID       string              `json:"account_id"`
	AccountName     string              `json:"account_name"`
	PayeeID         *string             `json:"payee_id"`
	PayeeName       *string             `json:"payee_name"`
	CategoryID      *string             `json:"category_id"`
	CategoryName    *string             `json:"category_name"`
	Deleted         bool                `json:"deleted"`
	Subtransactions []apiSubtransaction `json:"subtransactions"`
}

type apiSubtransaction struct {
	ID         string  `json:"id"`
	Amount     int64   `json:"amount"`
	CategoryID *string `json:"category_id"`
}

type transactionsResponse struct {
	Data struct {
		Transactions    []apiTransaction `json:"transactions"`
		ServerKnowledge int64            `json:"server_knowledge"`
	} `json:"data"`
}

type transactionResponse struct {
	Data struct {
		Transaction apiTransaction `json:"transaction"`
	} `json:"data"`
}

type updateTransactionRequest struct {
	Transaction updateTransaction `json:"transaction"`
}

type updateTransaction struct {
	CategoryID string `json:"category_id"`
	Approved   bool   `json:"approved"`
}

type errorResponse struct {
	Error struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Detail string `json:"detail"`
	} `json:"error"`
}

func (t apiTransaction) toTransaction() (Transaction, error) {
	date, err := time.Parse(dateLayout, t.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s has invalid date %q: %w", t.ID, t.Date, err)
	}

	return Transaction{
		ID:           t.ID,
		Date:         date,
		Amount:       MilliunitsToAmount(t.Amount),
		Memo:         deref(t.Memo),
		Cleared:      t.Cleared,
		Approved:     t.Approved,
		AccountID:    t.AccountID,
		AccountName:  t.AccountName,
		PayeeID:      deref(t.PayeeID),
		PayeeName:    deref(t.PayeeName),
		CategoryID:   deref(t.CategoryID),
		CategoryName: deref(t.CategoryName),
		IsSplit:      len(t.Subtransactions) > 0,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
