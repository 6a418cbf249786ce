package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
)

// Sheet names in the workbook
const (
	SheetSummary       = "Summary"
	SheetMatches       = "Matches"
	SheetDuplicates    = "Duplicates"
	SheetCombos        = "Combos"
	SheetUnmatchedTxns = "Unmatched Transactions"
	SheetOrphanOrders  = "Unmatched Orders"
)

type sheet struct {
	name   string
	header []any
	rows   [][]any
}

// WriteXLSX writes the match result as a workbook with one sheet per bucket
func WriteXLSX(w io.Writer, result matcher.MatchResult, opts TextOptions) error {
	f, err := buildWorkbook(result, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path
func SaveXLSX(path string, result matcher.MatchResult, opts TextOptions) error {
	f, err := buildWorkbook(result, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func buildWorkbook(result matcher.MatchResult, opts TextOptions) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	sheets := []sheet{
		summarySheet(result, opts),
		matchesSheet(result, opts),
		duplicatesSheet(result),
		combosSheet(result),
		unmatchedTxnSheet(result),
		orphanOrderSheet(result),
	}

	for i, s := range sheets {
		if i == 0 {
			err = f.SetSheetName("Sheet1", s.name)
		} else {
			_, err = f.NewSheet(s.name)
		}
		if err == nil {
			err = writeSheet(f, s, bold)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
		return err
	}
	if err := f.SetRowStyle(s.name, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(s.header))
	if err != nil {
		return err
	}
	return f.SetColWidth(s.name, "A", last, 18)
}

func summarySheet(result matcher.MatchResult, opts TextOptions) sheet {
	return sheet{
		name:   SheetSummary,
		header: []any{"Bucket", "Count"},
		rows: [][]any{
			{fmt.Sprintf("Matched (%d-day)", opts.Stage1Window), len(result.Stage1Matches)},
			{fmt.Sprintf("Matched (%d-day extended)", opts.Stage2Window), len(result.Stage2Matches)},
			{"Duplicates", len(result.DuplicateMatches)},
			{"Combo orders", len(result.ComboMatches)},
			{"Unmatched transactions", len(result.UnmatchedTransactions)},
			{"Unmatched orders", len(result.UnmatchedOrders)},
		},
	}
}

func matchesSheet(result matcher.MatchResult, opts TextOptions) sheet {
	s := sheet{
		name:   SheetMatches,
		header: []any{"Stage", "Transaction ID", "Transaction Date", "Amount", "Approved", "Order ID", "Order Date", "Order Total", "Days Apart", "Items"},
	}
	add := func(stage string, pairs []matcher.Pair) {
		for _, pair := range pairs {
			s.rows = append(s.rows, []any{
				stage,
				pair.Transaction.TransactionID,
				pair.Transaction.DateStr,
				pair.Transaction.Amount,
				pair.Transaction.Approved,
				pair.Order.OrderID,
				pair.Order.OrderDate.Format(dateLayout),
				pair.Order.Total,
				DaysApart(pair),
				strings.Join(pair.Order.Items, "; "),
			})
		}
	}
	add(fmt.Sprintf("%d-day", opts.Stage1Window), result.Stage1Matches)
	add(fmt.Sprintf("%d-day extended", opts.Stage2Window), result.Stage2Matches)
	return s
}

func duplicatesSheet(result matcher.MatchResult) sheet {
	s := sheet{
		name:   SheetDuplicates,
		header: []any{"Order ID", "Order Date", "Order Total", "Matched Transaction", "Duplicate Transaction", "Transaction Date", "Amount"},
	}
	for _, group := range GroupDuplicates(result) {
		original := ""
		if group.Original != nil {
			original = group.Original.TransactionID
		}
		for _, txn := range group.Transactions {
			s.rows = append(s.rows, []any{
				group.Order.OrderID,
				group.Order.OrderDate.Format(dateLayout),
				group.Order.Total,
				original,
				txn.TransactionID,
				txn.DateStr,
				txn.Amount,
			})
		}
	}
	return s
}

func combosSheet(result matcher.MatchResult) sheet {
	s := sheet{
		name:   SheetCombos,
		header: []any{"Order ID", "Order Date", "Order Total", "Combo Sum", "Transaction ID", "Transaction Date", "Amount"},
	}
	for _, combo := range result.ComboMatches {
		for _, txn := range combo.Transactions {
			s.rows = append(s.rows, []any{
				combo.Order.OrderID,
				combo.Order.OrderDate.Format(dateLayout),
				combo.Order.Total,
				combo.Sum(),
				txn.TransactionID,
				txn.DateStr,
				txn.Amount,
			})
		}
	}
	return s
}

func unmatchedTxnSheet(result matcher.MatchResult) sheet {
	s := sheet{
		name:   SheetUnmatchedTxns,
		header: []any{"Transaction ID", "Date", "Amount", "Approved", "Category"},
	}
	for _, txn := range result.UnmatchedTransactions {
		s.rows = append(s.rows, []any{txn.TransactionID, txn.DateStr, txn.Amount, txn.Approved, txn.CategoryName})
	}
	return s
}

func orphanOrderSheet(result matcher.MatchResult) sheet {
	s := sheet{
		name:   SheetOrphanOrders,
		header: []any{"Order ID", "Order Date", "Total", "Items"},
	}
	for _, order := range result.UnmatchedOrders {
		s.rows = append(s.rows, []any{order.OrderID, order.OrderDate.Format(dateLayout), order.Total, strings.Join(order.Items, "; ")})
	}
	return s
}
