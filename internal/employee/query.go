package employee

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
)

type OrderField string

const (
	OrderByID        OrderField = "id"
	OrderByFirstName OrderField = "first_name"
	OrderByLastName  OrderField = "last_name"
	OrderByHireDate  OrderField = "hire_date"
	OrderBySalary    OrderField = "salary"
)

// Fields a client may order by.
var orderableFields = map[string]OrderField{
	"last_name": OrderByLastName,
	"hire_date": OrderByHireDate,
	"salary":    OrderBySalary,
}

// Fields the configured default ordering may use.
var defaultOrderableFields = map[string]OrderField{
	"id":         OrderByID,
	"first_name": OrderByFirstName,
	"last_name":  OrderByLastName,
	"hire_date":  OrderByHireDate,
	"salary":     OrderBySalary,
}

// SearchFields are matched case-insensitively by every search term.
var SearchFields = []string{"first_name", "last_name", "email", "department", "position"}

type OrderTerm struct {
	Field OrderField
	Desc  bool
}

func (t OrderTerm) String() string {
	if t.Desc {
		return "-" + string(t.Field)
	}
	return string(t.Field)
}

// ParseOrdering reads a comma-separated list of [-]field terms, dropping
// unknown and repeated fields.
func ParseOrdering(raw string) []OrderTerm {
	return parseOrdering(raw, orderableFields)
}

func parseOrdering(raw string, allowed map[string]OrderField) []OrderTerm {
	var terms []OrderTerm
	seen := make(map[OrderField]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		field, ok := allowed[strings.TrimPrefix(part, "-")]
		if !ok || seen[field] {
			continue
		}
		seen[field] = true
		terms = append(terms, OrderTerm{Field: field, Desc: desc})
	}
	return terms
}

type QueryConfig struct {
	PageSize        int
	MaxPageSize     int
	DefaultOrdering []OrderTerm
}

func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		PageSize:    10,
		MaxPageSize: 100,
		DefaultOrdering: []OrderTerm{
			{Field: OrderByLastName},
			{Field: OrderByFirstName},
		},
	}
}

// QueryConfigFrom maps the pagination config section onto a QueryConfig.
func QueryConfigFrom(cfg internal.PaginationConfig) QueryConfig {
	qc := DefaultQueryConfig()
	if cfg.PageSize > 0 {
		qc.PageSize = cfg.PageSize
	}
	if cfg.MaxPageSize > 0 {
		qc.MaxPageSize = cfg.MaxPageSize
	}
	if ordering := parseOrdering(cfg.DefaultOrdering, defaultOrderableFields); len(ordering) > 0 {
		qc.DefaultOrdering = ordering
	}
	return qc
}

type Filter struct {
	Department *string
	Position   *string
	HireDate   *time.Time
}

type Query struct {
	Filter      Filter
	SearchTerms []string
	Ordering    []OrderTerm
}

// PageRequest is a 1-based page number and a page size; Last asks for the final page.
type PageRequest struct {
	Number int
	Size   int
	Last   bool
}

// PageWindow is a resolved page: which rows to fetch and which neighbours exist.
type PageWindow struct {
	Number   int
	Size     int
	NumPages int
	Offset   int
}

func (w PageWindow) HasNext() bool {
	return w.Number < w.NumPages
}

func (w PageWindow) HasPrevious() bool {
	return w.Number > 1
}

type QuerySurface struct {
	cfg QueryConfig
}

func NewQuerySurface(cfg QueryConfig) *QuerySurface {
	defaults := DefaultQueryConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaults.PageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaults.MaxPageSize
	}
	if cfg.PageSize > cfg.MaxPageSize {
		cfg.PageSize = cfg.MaxPageSize
	}
	if len(cfg.DefaultOrdering) == 0 {
		cfg.DefaultOrdering = defaults.DefaultOrdering
	}
	return &QuerySurface{cfg: cfg}
}

func (qs *QuerySurface) Config() QueryConfig {
	return qs.cfg
}

// ParseQuery builds the filter, search and ordering stages from request
// parameters. Empty parameters are treated as absent.
func (qs *QuerySurface) ParseQuery(values url.Values) (Query, error) {
	var q Query

	if department := strings.TrimSpace(values.Get("department")); department != "" {
		q.Filter.Department = &department
	}
	if position := strings.TrimSpace(values.Get("position")); position != "" {
		q.Filter.Position = &position
	}
	if hireDate := strings.TrimSpace(values.Get("hire_date")); hireDate != "" {
		d, err := ParseDate(hireDate)
		if err != nil {
			return Query{}, internal.NewValidationFieldError("hire_date",
				"hire_date must be a date in YYYY-MM-DD format", internal.ErrCodeInvalidDate)
		}
		q.Filter.HireDate = &d
	}

	q.SearchTerms = splitSearchTerms(values.Get("search"))
	q.Ordering = ParseOrdering(values.Get("ordering"))

	return q, nil
}

// OrderClauses is the full ordering applied to a query: the requested terms,
// then the default ordering, then id, each field at most once.
func (qs *QuerySurface) OrderClauses(q Query) []OrderTerm {
	clauses := make([]OrderTerm, 0, len(q.Ordering)+len(qs.cfg.DefaultOrdering)+1)
	seen := make(map[OrderField]bool)
	add := func(t OrderTerm) {
		if seen[t.Field] {
			return
		}
		seen[t.Field] = true
		clauses = append(clauses, t)
	}
	for _, t := range q.Ordering {
		add(t)
	}
	for _, t := range qs.cfg.DefaultOrdering {
		add(t)
	}
	add(OrderTerm{Field: OrderByID})
	return clauses
}

// ParsePage reads page and page_size. A malformed page is NotFound; a
// malformed page_size falls back to the default; oversized page_size is clamped.
func (qs *QuerySurface) ParsePage(values url.Values) (PageRequest, error) {
	req := PageRequest{Number: 1, Size: qs.cfg.PageSize}

	if raw := strings.TrimSpace(values.Get("page_size")); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			req.Size = min(size, qs.cfg.MaxPageSize)
		}
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		if raw == "last" {
			req.Last = true
			return req, nil
		}
		number, err := strconv.Atoi(raw)
		if err != nil || number < 1 {
			return PageRequest{}, internal.ErrInvalidPage
		}
		req.Number = number
	}

	return req, nil
}

// Window resolves req against a result count. Page 1 of an empty result is
// valid; any other page past the end is NotFound.
func (qs *QuerySurface) Window(total int64, req PageRequest) (PageWindow, error) {
	size := req.Size
	if size <= 0 {
		size = qs.cfg.PageSize
	}

	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}

	number := req.Number
	if req.Last {
		number = numPages
	}
	if number < 1 || number > numPages {
		return PageWindow{}, internal.ErrInvalidPage
	}

	return PageWindow{
		Number:   number,
		Size:     size,
		NumPages: numPages,
		Offset:   (number - 1) * size,
	}, nil
}

func splitSearchTerms(raw string) []string {
	raw = strings.ReplaceAll(raw, "\x00", "")
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// LikePattern escapes s for a LIKE ... ESCAPE '\' substring match.
func LikePattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return fmt.Sprintf("%%%s%%", replacer.Replace(strings.ToLower(s)))
}
