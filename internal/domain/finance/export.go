package finance

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"ID", "Date", "Type", "Category", "Description", "Amount", "Currency", "Status", "Client", "Related"}

func exportRow(t Transaction) []any {
	return []any{
		t.ID,
		t.Date,
		t.Type,
		t.Category,
		t.Description,
		t.Amount,
		t.Currency,
		t.Status,
		t.ClientID,
		t.RelatedType,
	}
}

// ExportTransactionsXLSX writes the transactions to a single sheet workbook.
func ExportTransactionsXLSX(items []Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Transactions"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, v := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, t := range items {
		for c, v := range exportRow(t) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 38)
	_ = f.SetColWidth(sheet, "B", "D", 14)
	_ = f.SetColWidth(sheet, "E", "E", 32)
	_ = f.SetColWidth(sheet, "F", "H", 12)
	_ = f.SetColWidth(sheet, "I", "J", 38)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "J1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ExportTransactionsCSV(items []Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(exportHeader)
	for _, t := range items {
		_ = w.Write([]string{
			t.ID,
			t.Date,
			t.Type,
			t.Category,
			t.Description,
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			t.Currency,
			t.Status,
			t.ClientID,
			t.RelatedType,
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportTransactions returns the period's ledger as xlsx or csv.
func (s *Service) ExportTransactions(ctx context.Context, month, year int, format string) ([]byte, error) {
	items, err := s.Store.ListTransactions(ctx, TransactionFilter{Month: month, Year: year})
	if err != nil {
		return nil, err
	}
	switch format {
	case "", "xlsx":
		return ExportTransactionsXLSX(items)
	case "csv":
		return ExportTransactionsCSV(items)
	default:
		return nil, ErrInvalidFormat
	}
}
