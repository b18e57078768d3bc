package recueil

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// Title is printed at the top of the generated document.
const Title = "Recueil de besoin IA"

const (
	pageMargin = 15.0
	labelWidth = 60.0
	valueWidth = 120.0
	lineHeight = 6.0
	cellPad    = 2.0
)

// RenderPDF writes the A4 summary of f, dated at, to w. The output only
// depends on f and at.
func RenderPDF(w io.Writer, f Form, at time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	// Rows are paginated by drawRow.
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetCreationDate(at)
	pdf.SetModificationDate(at)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(Title, true)
	pdf.SetCreator("portail", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr(Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 8, tr("Généré le "+at.Format("02/01/2006")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetDrawColor(60, 60, 60)
	for _, row := range Rows(f) {
		drawRow(pdf, tr(row[0]), tr(row[1]))
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering recueil: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing recueil: %w", err)
	}
	return nil
}

// drawRow prints one label/value row whose height fits the longer column.
// A row that does not fit on the current page moves to the next one, and a
// value longer than a page continues on the following pages.
func drawRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	labelLines := pdf.SplitLines([]byte(label), labelWidth-2*cellPad)
	pdf.SetFont("Helvetica", "", 10)
	valueLines := pdf.SplitLines([]byte(value), valueWidth-2*cellPad)

	_, pageH := pdf.GetPageSize()
	bottom := pageH - pageMargin
	pageRoom := int((bottom - pageMargin - 2*cellPad) / lineHeight)

	first := true
	for {
		want := max(len(valueLines), 1)
		if first {
			want = max(want, len(labelLines))
		}
		room := int((bottom - pdf.GetY() - 2*cellPad) / lineHeight)
		if room < want && (want <= pageRoom || room < 1 || (first && room < len(labelLines))) {
			pdf.AddPage()
			continue
		}
		n := min(want, room)
		chunk := valueLines[:min(n, len(valueLines))]
		h := float64(n)*lineHeight + 2*cellPad

		x, y := pdf.GetXY()
		pdf.SetFillColor(232, 238, 247)
		pdf.Rect(x, y, labelWidth, h, "FD")
		pdf.Rect(x+labelWidth, y, valueWidth, h, "D")

		if first {
			pdf.SetFont("Helvetica", "B", 10)
			for i, l := range labelLines {
				pdf.SetXY(x+cellPad, y+cellPad+float64(i)*lineHeight)
				pdf.CellFormat(labelWidth-2*cellPad, lineHeight, string(l), "", 0, "L", false, 0, "")
			}
		}
		pdf.SetFont("Helvetica", "", 10)
		for i, l := range chunk {
			pdf.SetXY(x+labelWidth+cellPad, y+cellPad+float64(i)*lineHeight)
			pdf.CellFormat(valueWidth-2*cellPad, lineHeight, string(l), "", 0, "L", false, 0, "")
		}
		pdf.SetXY(x, y+h)

		valueLines = valueLines[len(chunk):]
		first = false
		if len(valueLines) == 0 {
			return
		}
	}
}
