package export

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"bluetrust/registry-backend/internal/ledger"
	"bluetrust/registry-backend/internal/marketplace"
)

// WriteLedgerWorkbook writes an Excel workbook with the audit log and the
// current marketplace listings.
func WriteLedgerWorkbook(w io.Writer, entries []ledger.Entry, listings []marketplace.Listing) error {
	f := excelize.NewFile()
	defer f.Close()

	const entriesSheet = "Ledger Entries"
	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := []any{"ID", "Kind", "Amount", "Source", "Destination", "Reason", "Recorded At"}
	if err := f.SetSheetRow(entriesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, e := range entries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			e.ID.String(),
			string(e.Kind),
			e.Amount,
			uuidOrEmpty(e.Source),
			uuidOrEmpty(e.Destination),
			e.Reason,
			e.RecordedAt.Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(entriesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write entry row %d: %w", i+2, err)
		}
	}

	const listingsSheet = "Marketplace"
	if _, err := f.NewSheet(listingsSheet); err != nil {
		return fmt.Errorf("failed to add listings sheet: %w", err)
	}
	listingHeader := []any{"Issuer ID", "Name", "Rating", "Available", "Unit Price"}
	if err := f.SetSheetRow(listingsSheet, "A1", &listingHeader); err != nil {
		return fmt.Errorf("failed to write listings header: %w", err)
	}
	for i, l := range listings {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{l.IssuerID.String(), l.Name, l.Rating, l.Available, l.UnitPrice}
		if err := f.SetSheetRow(listingsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write listing row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func uuidOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
