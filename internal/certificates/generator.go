package certificates

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// RetirementCertificate is the data printed onto a certificate PDF.
type RetirementCertificate struct {
	CertificateID uuid.UUID
	HolderName    string
	Amount        int64
	Reason        string
	RetiredAt     time.Time
}

// Generator renders retirement certificates as PDF documents.
type Generator struct{}

// NewGenerator creates a certificate generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the certificate and returns the PDF bytes.
func (g *Generator) Generate(cert RetirementCertificate) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 30, "Certificate of Carbon Credit Retirement", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, cert.HolderName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10,
		fmt.Sprintf("has permanently retired %d verified carbon credits", cert.Amount),
		"", 1, "C", false, 0, "")
	if cert.Reason != "" {
		pdf.CellFormat(0, 10, fmt.Sprintf("Purpose: %s", cert.Reason), "", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8,
		fmt.Sprintf("Retired on %s", cert.RetiredAt.Format("2 January 2006")),
		"", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8,
		fmt.Sprintf("Certificate ID: %s", cert.CertificateID),
		"", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, "Credits retired through this certificate can never re-enter circulation.",
		"", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
