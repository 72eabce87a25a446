package quote

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phpdave11/gofpdf"

	"Solaire/internal/format"
	"Solaire/internal/repo"
)

var statusLabels = map[repo.QuoteStatus]string{
	repo.QuoteDraft:    "Brouillon",
	repo.QuoteSent:     "Envoyé",
	repo.QuoteAccepted: "Accepté",
	repo.QuoteRejected: "Refusé",
}

// logoPath maps a profile logo URL to the stored file, or "" when there is
// none on disk.
func logoPath(uploadDir, logoURL string) string {
	if logoURL == "" || uploadDir == "" {
		return ""
	}
	p := filepath.Join(uploadDir, filepath.Base(logoURL))
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// Render writes the quote as an A4 PDF. Core fonts are cp1252, so text goes
// through the Unicode translator.
func Render(w io.Writer, q repo.Quote, issuer repo.User, logo string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(q.QuoteNumber, true)
	pdf.SetAuthor(issuer.FullName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string {
		// x/text groups French thousands with a narrow no-break space
		return tr(strings.ReplaceAll(s, "\u202f", " "))
	}

	pdf.AddPage()
	if logo != "" {
		pdf.ImageOptions(logo, 150, 10, 45, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, text("Devis "+q.QuoteNumber))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	issuerName := issuer.CompanyName
	if issuerName == "" {
		issuerName = issuer.FullName
	}
	lines := []string{
		"Émis par : " + issuerName,
		"Date : " + format.Date(&q.CreatedAt),
		"Valable jusqu'au : " + format.Date(&q.ValidUntil),
		"Statut : " + statusLabels[q.Status],
	}
	if q.ProjectName != "" {
		lines = append(lines, "Projet : "+q.ProjectName)
	}
	if q.Client != nil {
		lines = append(lines, "Client : "+q.Client.FullName())
		if q.Client.Email != "" {
			lines = append(lines, "Email : "+q.Client.Email)
		}
	}
	for _, l := range lines {
		pdf.Cell(0, 6, text(l))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, text(q.Name))
	pdf.Ln(9)
	if q.Description != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, text(q.Description), "", "L", false)
		pdf.Ln(3)
	}

	widths := []float64{95, 20, 35, 35}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 236, 245)
	for i, h := range []string{"Désignation", "Qté", "Prix unitaire", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, text(h), "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range q.Items {
		pdf.CellFormat(widths[0], 6, text(it.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, text(quantity(it.Quantity)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, text(format.Currency(it.UnitPrice)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, text(format.Currency(it.Total)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, text("Total"), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, text(format.Currency(q.TotalAmount)), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	return pdf.Output(w)
}

func quantity(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}
