package export

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName        = "Employees"
	excelDateFmt     = "yyyy-mm-dd"
	excelDateTimeFmt = "yyyy-mm-dd hh:mm:ss"
	missingPhone     = "N/A"
)

var excelHeaders = []string{
	"ID", "First Name", "Last Name", "Email", "Phone", "Position",
	"Department", "Hire Date", "Salary", "Created At", "Updated At",
}

const (
	colHireDate = 8
	colSalary   = 9
	colCreated  = 10
	colUpdated  = 11
)

// ExcelRenderer writes employees into a single styled worksheet.
type ExcelRenderer struct {
	opts Options
}

func NewExcelRenderer(opts Options) *ExcelRenderer {
	return &ExcelRenderer{opts: opts.withDefaults()}
}

func (r *ExcelRenderer) Format() string { return "xlsx" }

func (r *ExcelRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *ExcelRenderer) Extension() string { return "xlsx" }

type excelStyles struct {
	header   int
	date     int
	datetime int
	salary   int
}

func (r *ExcelRenderer) Render(w io.Writer, doc Document) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	styles, err := r.styles(f)
	if err != nil {
		return err
	}

	widths := make([]int, len(excelHeaders))
	header := make([]any, len(excelHeaders))
	for i, h := range excelHeaders {
		header[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(excelHeaders), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range doc.Rows {
		line := i + 2
		values, rendered := r.cells(row)
		cell, _ := excelize.CoordinatesToCellName(1, line)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", line, err)
		}
		for col, s := range rendered {
			widths[col] = max(widths[col], utf8.RuneCountInString(s))
		}
		if err := r.styleRow(f, line, styles); err != nil {
			return err
		}
	}

	for i, width := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, name, name, float64(min(width+2, r.opts.MaxColumnWidth))); err != nil {
			return fmt.Errorf("size column %s: %w", name, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	lastCell, _ := excelize.CoordinatesToCellName(len(excelHeaders), len(doc.Rows)+1)
	if err := f.AutoFilter(SheetName, "A1:"+lastCell, nil); err != nil {
		return fmt.Errorf("auto filter: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cells returns the typed values written to the sheet and their rendered
// text, which drives column widths.
func (r *ExcelRenderer) cells(row Row) ([]any, []string) {
	phone := missingPhone
	if row.PhoneNumber != nil && *row.PhoneNumber != "" {
		phone = *row.PhoneNumber
	}

	salary, _ := row.Salary.Round(2).Float64()
	created := Naive(row.CreatedAt, r.opts.Location)
	updated := Naive(row.UpdatedAt, r.opts.Location)
	hired := Naive(row.HireDate, nil)

	values := []any{
		row.ID, row.FirstName, row.LastName, row.Email, phone, row.Position,
		row.Department, hired, salary, created, updated,
	}
	rendered := []string{
		strconv.FormatInt(row.ID, 10), row.FirstName, row.LastName, row.Email, phone, row.Position,
		row.Department,
		hired.Format("2006-01-02"),
		r.opts.CurrencySymbol + FormatAmount(row.Salary),
		created.Format("2006-01-02 15:04:05"),
		updated.Format("2006-01-02 15:04:05"),
	}
	return values, rendered
}

func (r *ExcelRenderer) styleRow(f *excelize.File, line int, styles excelStyles) error {
	for col, style := range map[int]int{
		colHireDate: styles.date,
		colSalary:   styles.salary,
		colCreated:  styles.datetime,
		colUpdated:  styles.datetime,
	} {
		cell, _ := excelize.CoordinatesToCellName(col, line)
		if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return fmt.Errorf("style %s: %w", cell, err)
		}
	}
	return nil
}

func (r *ExcelRenderer) styles(f *excelize.File) (excelStyles, error) {
	var s excelStyles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}

	dateFmt, datetimeFmt := excelDateFmt, excelDateTimeFmt
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt}); err != nil {
		return s, fmt.Errorf("date style: %w", err)
	}
	if s.datetime, err = f.NewStyle(&excelize.Style{CustomNumFmt: &datetimeFmt}); err != nil {
		return s, fmt.Errorf("datetime style: %w", err)
	}

	currencyFmt := fmt.Sprintf(`"%s"#,##0.00`, r.opts.CurrencySymbol)
	if s.salary, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &currencyFmt,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return s, fmt.Errorf("salary style: %w", err)
	}
	return s, nil
}
