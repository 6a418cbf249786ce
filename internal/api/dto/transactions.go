package dto

// TransactionResponse is a matcher-normalized transaction.
type TransactionResponse struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	DisplayAmount string  `json:"display_amount"`
	Approved      bool    `json:"approved"`
	IsSplit       bool    `json:"is_split"`
	CategoryID    string  `json:"category_id,omitempty"`
	CategoryName  string  `json:"category_name,omitempty"`
}

// OrderResponse is a cached Amazon order as the matcher sees it.
type OrderResponse struct {
	OrderID   string   `json:"order_id"`
	OrderDate string   `json:"order_date"`
	Total     float64  `json:"total"`
	Items     []string `json:"items"`
}

// PairResponse is a 1:1 match.
type PairResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Order       OrderResponse       `json:"order"`
	DaysApart   int                 `json:"days_apart"`
}

// ComboResponse is an order paid by several transactions.
type ComboResponse struct {
	Order        OrderResponse         `json:"order"`
	Transactions []TransactionResponse `json:"transactions"`
	Sum          float64               `json:"sum"`
}

// MatchResponse is returned by GET /api/match.
type MatchResponse struct {
	Stage1Matches         []PairResponse        `json:"stage1_matches"`
	Stage2Matches         []PairResponse        `json:"stage2_matches"`
	DuplicateMatches      []PairResponse        `json:"duplicate_matches"`
	ComboMatches          []ComboResponse       `json:"combo_matches"`
	UnmatchedTransactions []TransactionResponse `json:"unmatched_transactions"`
	UnmatchedOrders       []OrderResponse       `json:"unmatched_orders"`
	TransactionCount      int                   `json:"transaction_count"`
	OrderCount            int                   `json:"order_count"`
	OrderRangeStart       string                `json:"order_range_start,omitempty"`
	OrderRangeEnd         string                `json:"order_range_end,omitempty"`
	Summary               string                `json:"summary"`
}
