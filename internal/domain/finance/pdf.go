package finance

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// RenderInvoicePDF lays an invoice out on one A4 page.
func RenderInvoicePDF(inv Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Invoice #"+inv.InvoiceNumber)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr("Client: "+inv.ClientName))
	pdf.Ln(7)
	pdf.Cell(0, 8, "Issued: "+inv.IssueDate)
	pdf.Ln(7)
	if inv.DueDate != "" {
		pdf.Cell(0, 8, "Due: "+inv.DueDate)
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, "Status: "+inv.Status)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(100, 8, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Unit price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Total", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, it := range inv.Items {
		pdf.CellFormat(100, 8, tr(it.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%g", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", it.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", it.Quantity*it.UnitPrice), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Amount due: %.2f %s", inv.Amount, inv.Currency))
	if inv.Notes != "" {
		pdf.Ln(10)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(inv.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// InvoicePDF renders the invoice and keeps a copy under PDFDir when one is
// configured. Failing to write the copy does not fail the request.
func (s *Service) InvoicePDF(ctx context.Context, id string) (Invoice, []byte, error) {
	inv, err := s.Store.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, nil, err
	}
	data, err := RenderInvoicePDF(inv)
	if err != nil {
		return Invoice{}, nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	if s.PDFDir != "" {
		if err := os.MkdirAll(s.PDFDir, 0o755); err != nil {
			slog.Warn("create invoice pdf dir", "err", err)
		} else if err := os.WriteFile(filepath.Join(s.PDFDir, inv.ID+".pdf"), data, 0o644); err != nil {
			slog.Warn("store invoice pdf", "invoiceId", inv.ID, "err", err)
		}
	}
	return inv, data, nil
}
