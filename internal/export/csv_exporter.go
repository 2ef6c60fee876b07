package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"bluetrust/registry-backend/internal/ledger"
)

// CSVOptions configures CSV export behavior.
type CSVOptions struct {
	Delimiter       rune   `json:"delimiter"`
	UseCRLF         bool   `json:"use_crlf"`
	IncludeHeader   bool   `json:"include_header"`
	TimestampFormat string `json:"timestamp_format"`
}

// DefaultCSVOptions returns the default CSV export options.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:       ',',
		IncludeHeader:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	}
}

var entryColumns = []string{"id", "kind", "amount", "source", "destination", "reason", "recorded_at"}

// WriteEntriesCSV streams the ledger audit log as CSV.
func WriteEntriesCSV(w io.Writer, entries []ledger.Entry, options CSVOptions) error {
	writer := csv.NewWriter(w)
	writer.Comma = options.Delimiter
	writer.UseCRLF = options.UseCRLF

	if options.IncludeHeader {
		if err := writer.Write(entryColumns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for _, e := range entries {
		record := []string{
			e.ID.String(),
			string(e.Kind),
			strconv.FormatInt(e.Amount, 10),
			uuidOrEmpty(e.Source),
			uuidOrEmpty(e.Destination),
			e.Reason,
			e.RecordedAt.Format(options.TimestampFormat),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", e.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
