// Package cardsheet lays out QR identification cards on US-letter pages for
// printing on perforated business-card stock.
//
// Cards are printed as page pairs: a page of fronts carrying the QR image,
// followed by a page of backs. Backs are mirrored left to right so that each
// back lands behind its front when the sheet is flipped on its long edge.
package cardsheet

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// Sheet geometry in inches.
const (
	PageWidth  = 8.5
	PageHeight = 11.0
	CardWidth  = 3.375
	CardHeight = 2.125
	Columns    = 2
	Rows       = 4
	PerPage    = Columns * Rows

	marginX = (PageWidth - Columns*CardWidth) / 2
	marginY = (PageHeight - Rows*CardHeight) / 2

	qrSize    = 1.5
	qrPixels  = 512
	cardInset = 0.15
)

type Card struct {
	// Code is the printed identifier.
	Code string
	// Content is what the QR image encodes.
	Content string
	// Label is optional text for the back, usually the child's name.
	Label string
}

type Renderer struct {
	Title string

	uncompressed bool
}

func NewRenderer(title string) *Renderer {
	return &Renderer{
		Title: title,
	}
}

// Slot returns the top-left corner of the i-th card on its page. Back slots
// are mirrored horizontally.
func Slot(i int, back bool) (x, y float64) {
	pos := i % PerPage
	col, row := pos%Columns, pos/Columns
	if back {
		col = Columns - 1 - col
	}

	return marginX + float64(col)*CardWidth, marginY + float64(row)*CardHeight
}

// Pages is the number of PDF pages needed for n cards.
func Pages(n int) int {
	if n == 0 {
		return 0
	}

	return 2 * ((n + PerPage - 1) / PerPage)
}

func (r *Renderer) Render(cards []Card) ([]byte, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("no cards to render")
	}

	pdf := fpdf.New("P", "in", "Letter", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(r.Title, true)
	pdf.SetCompression(!r.uncompressed)
	// Core fonts are cp1252; names arrive as UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for start := 0; start < len(cards); start += PerPage {
		end := min(start+PerPage, len(cards))
		page := cards[start:end]

		pdf.AddPage()
		for i, card := range page {
			if err := r.front(pdf, i, card); err != nil {
				return nil, err
			}
		}

		pdf.AddPage()
		for i, card := range page {
			r.back(pdf, tr, i, card)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf.Output -> %w", err)
	}

	return buf.Bytes(), nil
}

func (r *Renderer) front(pdf *fpdf.Fpdf, i int, card Card) error {
	png, err := qrcode.Encode(card.Content, qrcode.Medium, qrPixels)
	if err != nil {
		return fmt.Errorf("qrcode.Encode -> %w", err)
	}

	x, y := Slot(i, false)
	outline(pdf, x, y)

	name := "qr-" + card.Code
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, x+(CardWidth-qrSize)/2, y+cardInset, qrSize, qrSize, false, opts, 0, "")

	pdf.SetFont("Courier", "B", 11)
	pdf.SetXY(x, y+cardInset+qrSize+0.05)
	pdf.CellFormat(CardWidth, 0.25, card.Code, "", 0, "C", false, 0, "")

	return pdf.Error()
}

func (r *Renderer) back(pdf *fpdf.Fpdf, tr func(string) string, i int, card Card) {
	x, y := Slot(i, true)
	outline(pdf, x, y)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(x, y+cardInset+0.1)
	pdf.CellFormat(CardWidth, 0.3, tr(r.Title), "", 0, "C", false, 0, "")

	if card.Label != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetXY(x, y+CardHeight/2-0.15)
		pdf.CellFormat(CardWidth, 0.3, tr(card.Label), "", 0, "C", false, 0, "")
	}

	pdf.SetFont("Courier", "B", 14)
	pdf.SetXY(x, y+CardHeight-cardInset-0.35)
	pdf.CellFormat(CardWidth, 0.3, card.Code, "", 0, "C", false, 0, "")
}

// outline draws a light cut guide around a card.
func outline(pdf *fpdf.Fpdf, x, y float64) {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.005)
	pdf.Rect(x, y, CardWidth, CardHeight, "D")
}
