// Package export renders employee result sets into downloadable documents.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

const filenameTimestamp = "20060102_150405"

// Row is one employee as the renderers see it.
type Row struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber *string
	Position    string
	Department  string
	HireDate    time.Time
	Salary      decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r Row) FullName() string {
	return r.FirstName + " " + r.LastName
}

// Document is everything a renderer needs: the rows in output order and the
// moment of generation, already in the export time zone.
type Document struct {
	GeneratedAt time.Time
	Rows        []Row
}

type Renderer interface {
	Format() string
	ContentType() string
	Extension() string
	Render(w io.Writer, doc Document) error
}

type Options struct {
	Title          string
	CurrencySymbol string
	CurrencyCode   string
	MaxColumnWidth int
	Location       *time.Location
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Employee Directory"
	}
	if o.CurrencySymbol == "" {
		o.CurrencySymbol = "₹"
	}
	if o.CurrencyCode == "" {
		o.CurrencyCode = "INR"
	}
	if o.MaxColumnWidth <= 0 {
		o.MaxColumnWidth = 50
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Filename names a download after its generation time, e.g. employees_20240131_094500.pdf.
func Filename(prefix, extension string, generatedAt time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, generatedAt.Format(filenameTimestamp), extension)
}

// ContentDisposition is the attachment header value for filename.
func ContentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

// Naive returns t's wall clock in loc relabelled as UTC, dropping the offset
// for formats that have no notion of time zones.
func Naive(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
