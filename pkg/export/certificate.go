package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries the fields printed onto a registration certificate.
type CertificateData struct {
	Title              string
	RegistrationNumber string
	EntityLabel        string
	Fields             []CertificateField
	PrintedBy          string
	PrintedAt          time.Time
}

// CertificateField is a single labelled line on the certificate body.
type CertificateField struct {
	Label string
	Value string
}

// CertificateRenderer renders registration certificates as PDF documents.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render produces the certificate PDF for a registration record.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if data.RegistrationNumber == "" {
		return nil, fmt.Errorf("certificate requires a registration number")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	title := data.Title
	if title == "" {
		title = "Certificate of Registration"
	}
	pdf.CellFormat(0, 12, strings.ToUpper(title), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, data.EntityLabel, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 9, fmt.Sprintf("Registration No: %s", data.RegistrationNumber), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, field := range data.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(55, 8, field.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 8, field.Value, "", "", false)
	}

	pdf.Ln(14)
	pdf.SetFont("Arial", "I", 9)
	if !data.PrintedAt.IsZero() {
		pdf.CellFormat(0, 6, fmt.Sprintf("Issued on %s", data.PrintedAt.Format("2006-01-02")), "", 1, "", false, 0, "")
	}
	if data.PrintedBy != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Issued by %s", data.PrintedBy), "", 1, "", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
