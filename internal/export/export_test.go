package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bluetrust/registry-backend/internal/ledger"
	"bluetrust/registry-backend/internal/marketplace"
)

func sampleEntries() []ledger.Entry {
	issuer := uuid.New()
	holder := uuid.New()
	return []ledger.Entry{
		{
			ID:          uuid.New(),
			Kind:        ledger.EntryMint,
			Amount:      44,
			Destination: &issuer,
			Reason:      "verification",
			RecordedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:          uuid.New(),
			Kind:        ledger.EntryTransfer,
			Amount:      10,
			Source:      &issuer,
			Destination: &holder,
			RecordedAt:  time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		},
	}
}

func TestWriteEntriesCSV(t *testing.T) {
	entries := sampleEntries()

	var buf bytes.Buffer
	err := WriteEntriesCSV(&buf, entries, DefaultCSVOptions())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,kind,amount,source,destination,reason,recorded_at", lines[0])
	assert.Contains(t, lines[1], "MINT,44")
	assert.Contains(t, lines[2], "TRANSFER,10")
}

func TestWriteEntriesCSVCustomDelimiter(t *testing.T) {
	entries := sampleEntries()

	options := DefaultCSVOptions()
	options.Delimiter = ';'
	options.IncludeHeader = false

	var buf bytes.Buffer
	err := WriteEntriesCSV(&buf, entries, options)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], ";MINT;44;")
}

func TestWriteLedgerWorkbook(t *testing.T) {
	entries := sampleEntries()
	listings := []marketplace.Listing{
		{IssuerID: uuid.New(), Name: "Coastal Conservation Society", Rating: 4.8, Available: 2500, UnitPrice: 2500},
	}

	var buf bytes.Buffer
	err := WriteLedgerWorkbook(&buf, entries, listings)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Ledger Entries")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "MINT", rows[1][1])

	listingRows, err := f.GetRows("Marketplace")
	require.NoError(t, err)
	require.Len(t, listingRows, 2)
	assert.Equal(t, "Coastal Conservation Society", listingRows[1][1])
}
