package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pt            = 1.0
	inch          = 72 * pt
	pdfMarginSide = 30 * pt
	pdfMarginTop  = 30 * pt
	pdfMarginBot  = 18 * pt
	pdfCellPad    = 4 * pt
	pdfHeaderRowH = 20 * pt
	pdfBodyRowH   = 16 * pt
	ellipsis      = "…"
)

type rgb struct{ r, g, b int }

var (
	colorTitle    = rgb{0x1A, 0x1A, 0x1A}
	colorSubtitle = rgb{0x66, 0x66, 0x66}
	colorHeader   = rgb{0x44, 0x72, 0xC4}
	colorWhite    = rgb{0xFF, 0xFF, 0xFF}
	colorStripe   = rgb{0xF2, 0xF2, 0xF2}
	colorGrid     = rgb{0x80, 0x80, 0x80}
	colorBlack    = rgb{0x00, 0x00, 0x00}
)

type pdfColumn struct {
	header string
	width  float64
	align  string
	value  func(r Row, o Options) string
}

var pdfColumns = []pdfColumn{
	{header: "Name", width: 1.5 * inch, align: "L", value: func(r Row, _ Options) string { return r.FullName() }},
	{header: "Email", width: 2 * inch, align: "L", value: func(r Row, _ Options) string { return r.Email }},
	{header: "Position", width: 1.5 * inch, align: "L", value: func(r Row, _ Options) string { return r.Position }},
	{header: "Department", width: 1.3 * inch, align: "L", value: func(r Row, _ Options) string { return r.Department }},
	{header: "Hire Date", width: 1 * inch, align: "C", value: func(r Row, _ Options) string { return r.HireDate.Format("2006-01-02") }},
	{header: "Salary", width: 1 * inch, align: "R", value: func(r Row, o Options) string {
		return FormatCurrency(o.CurrencyCode+" ", r.Salary)
	}},
}

// PDFRenderer lays employees out as a landscape table. The built-in PDF
// fonts are single-byte cp1252, so salaries carry the currency code rather
// than its symbol and runes outside the code page print as '.'.
type PDFRenderer struct {
	opts     Options
	Compress bool
}

func NewPDFRenderer(opts Options) *PDFRenderer {
	return &PDFRenderer{opts: opts.withDefaults(), Compress: true}
}

func (r *PDFRenderer) Format() string      { return "pdf" }
func (r *PDFRenderer) ContentType() string { return "application/pdf" }
func (r *PDFRenderer) Extension() string   { return "pdf" }

func (r *PDFRenderer) Render(w io.Writer, doc Document) error {
	generatedAt := doc.GeneratedAt.In(r.opts.Location)

	pdf := fpdf.New("L", "pt", "Letter", "")
	pdf.SetCompression(r.Compress)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetTitle(r.opts.Title, true)
	pdf.SetMargins(pdfMarginSide, pdfMarginTop, pdfMarginSide)
	pdf.SetAutoPageBreak(false, pdfMarginBot)

	t := &pdfTable{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
	t.layout()

	pdf.AddPage()
	t.title(r.opts.Title, fmt.Sprintf("Generated on %s | Total Employees: %d",
		generatedAt.Format("January 2, 2006 at 15:04"), len(doc.Rows)))

	t.header()
	for i, row := range doc.Rows {
		if t.overflows(pdfBodyRowH) {
			t.closeBox()
			pdf.AddPage()
			t.header()
		}
		cells := make([]string, len(pdfColumns))
		for c, col := range pdfColumns {
			cells[c] = col.value(row, r.opts)
		}
		t.body(cells, i%2 == 1)
	}
	t.closeBox()

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// pdfTable draws rows top to bottom and tracks where the current page's
// table segment starts so the outer box can be closed at page breaks.
type pdfTable struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	left     float64
	width    float64
	boxTop   float64
	pageBody float64
}

func (t *pdfTable) layout() {
	for _, col := range pdfColumns {
		t.width += col.width
	}
	pageW, pageH := t.pdf.GetPageSize()
	t.left = (pageW - t.width) / 2
	t.pageBody = pageH - pdfMarginBot
}

func (t *pdfTable) title(title, subtitle string) {
	pdf := t.pdf
	pageW, _ := pdf.GetPageSize()
	usable := pageW - 2*pdfMarginSide

	pdf.SetFont("Helvetica", "B", 24)
	setText(pdf, colorTitle)
	pdf.CellFormat(usable, 30, t.tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colorSubtitle)
	pdf.CellFormat(usable, 14, t.tr(subtitle), "", 1, "C", false, 0, "")
	pdf.Ln(18)
}

func (t *pdfTable) header() {
	pdf := t.pdf
	t.boxTop = pdf.GetY()

	pdf.SetFont("Helvetica", "B", 11)
	setText(pdf, colorWhite)
	setFill(pdf, colorHeader)
	t.row(pdfHeaderRowH, func(i int) (string, string) {
		return pdfColumns[i].header, "L"
	})
}

func (t *pdfTable) body(cells []string, striped bool) {
	pdf := t.pdf
	pdf.SetFont("Helvetica", "", 9)
	setText(pdf, colorBlack)
	if striped {
		setFill(pdf, colorStripe)
	} else {
		setFill(pdf, colorWhite)
	}
	t.row(pdfBodyRowH, func(i int) (string, string) {
		return cells[i], pdfColumns[i].align
	})
}

func (t *pdfTable) row(height float64, cell func(i int) (text, align string)) {
	pdf := t.pdf
	pdf.SetDrawColor(colorGrid.r, colorGrid.g, colorGrid.b)
	pdf.SetLineWidth(0.5)
	pdf.SetX(t.left)
	for i, col := range pdfColumns {
		text, align := cell(i)
		text = t.fit(text, col.width-2*pdfCellPad)
		pdf.SetCellMargin(pdfCellPad)
		pdf.CellFormat(col.width, height, text, "1", 0, align, true, 0, "")
	}
	pdf.Ln(height)
}

func (t *pdfTable) overflows(height float64) bool {
	return t.pdf.GetY()+height > t.pageBody
}

func (t *pdfTable) closeBox() {
	pdf := t.pdf
	bottom := pdf.GetY()
	if bottom <= t.boxTop {
		return
	}
	pdf.SetDrawColor(colorBlack.r, colorBlack.g, colorBlack.b)
	pdf.SetLineWidth(1)
	pdf.Rect(t.left, t.boxTop, t.width, bottom-t.boxTop, "D")
}

// fit translates s to the font encoding and shortens it with an ellipsis
// until it fits within width.
func (t *pdfTable) fit(s string, width float64) string {
	encoded := t.tr(s)
	if t.pdf.GetStringWidth(encoded) <= width {
		return encoded
	}
	mark := t.tr(ellipsis)
	runes := []rune(strings.TrimSpace(s))
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := t.tr(strings.TrimRight(string(runes), " ")) + mark
		if t.pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return mark
}

func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
