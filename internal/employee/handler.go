package employee

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/export"
	"github.com/frahmantamala/employee-directory/internal/metrics"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/frahmantamala/employee-directory/pkg/logger"
	"github.com/go-chi/chi"
)

const (
	maxBodyBytes   = 1 << 20
	exportFilename = "employees"
)

type ServiceAPI interface {
	List(ctx context.Context, q Query, req PageRequest) (*Page, error)
	Export(ctx context.Context, q Query) ([]*Employee, error)
	Get(ctx context.Context, id int64) (*Employee, error)
	Create(ctx context.Context, changes *Changes) (*Employee, error)
	Update(ctx context.Context, id int64, changes *Changes) (*Employee, error)
	Delete(ctx context.Context, id int64) error
}

// HandlerConfig carries the presentation settings of the HTTP layer.
type HandlerConfig struct {
	// PublicURL, when set, replaces the request's scheme and host in
	// pagination links, e.g. "https://directory.example.com".
	PublicURL string
	Media     MediaResolver
	Location  *time.Location
	PDF       export.Renderer
	Excel     export.Renderer
	Metrics   *metrics.Metrics
}

// ListResponse is the paginated envelope of the list endpoint.
type ListResponse struct {
	Count    int64    `json:"count"`
	Next     *string  `json:"next"`
	Previous *string  `json:"previous"`
	Results  []Record `json:"results"`
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Query   *QuerySurface
	Config  HandlerConfig
	Now     func() time.Time
}

func NewHandler(service ServiceAPI, query *QuerySurface, cfg HandlerConfig) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if query == nil {
		query = NewQuerySurface(DefaultQueryConfig())
	}
	if cfg.Media == nil {
		cfg.Media = MediaURL{BaseURL: "/media/"}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PDF == nil {
		cfg.PDF = export.NewPDFRenderer(export.Options{Location: cfg.Location})
	}
	if cfg.Excel == nil {
		cfg.Excel = export.NewExcelRenderer(export.Options{Location: cfg.Location})
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Query:       query,
		Config:      cfg,
		Now:         time.Now,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	q, err := h.Query.ParseQuery(values)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	req, err := h.Query.ParsePage(values)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	page, err := h.Service.List(r.Context(), q, req)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp := ListResponse{
		Count:   page.Count,
		Results: SerializeAll(page.Items, h.Config.Media),
	}
	if page.Window.HasNext() {
		resp.Next = h.pageLink(r, page.Window.Number+1)
	}
	if page.Window.HasPrevious() {
		resp.Previous = h.pageLink(r, page.Window.Number-1)
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	employee, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, Serialize(employee, h.Config.Media))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	changes, ok := h.decode(w, r, ModeCreate)
	if !ok {
		return
	}

	employee, err := h.Service.Create(r.Context(), changes)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	logger.From(r.Context()).Info("Create: employee created", "employee_id", employee.ID)
	h.WriteJSON(w, http.StatusCreated, Serialize(employee, h.Config.Media))
}

// Update replaces every writable field (PUT).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, ModeReplace)
}

// PartialUpdate changes only the fields present in the body (PATCH).
func (h *Handler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, ModePartial)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, mode Mode) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	changes, ok := h.decode(w, r, mode)
	if !ok {
		return
	}

	employee, err := h.Service.Update(r.Context(), id, changes)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, Serialize(employee, h.Config.Media))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.Config.PDF)
}

func (h *Handler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.Config.Excel)
}

// export renders the whole filtered set into memory first so a rendering
// failure can still be reported as a JSON error.
func (h *Handler) export(w http.ResponseWriter, r *http.Request, renderer export.Renderer) {
	q, err := h.Query.ParseQuery(r.URL.Query())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	employees, err := h.Service.Export(r.Context(), q)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	generatedAt := h.Now().In(h.Config.Location)
	doc := export.Document{
		GeneratedAt: generatedAt,
		Rows:        ToExportRows(employees),
	}

	var buf bytes.Buffer
	err = renderer.Render(&buf, doc)
	h.Config.Metrics.ObserveExport(renderer.Format(), len(doc.Rows), err)
	if err != nil {
		h.HandleServiceError(w, r, internal.NewExportError(renderer.Format(), err))
		return
	}

	filename := export.Filename(exportFilename, renderer.Extension(), generatedAt)
	logger.From(r.Context()).Info("export generated",
		"format", renderer.Format(),
		"rows", len(doc.Rows),
		"bytes", buf.Len(),
		"filename", filename)

	h.WriteAttachment(w, renderer.ContentType(), export.ContentDisposition(filename), buf.Bytes())
}

// employeeID reads the {id} path segment. Anything that is not a positive
// integer cannot name an employee, so it is reported as not found.
func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		h.WriteError(w, r, internal.ErrEmployeeNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, mode Mode) (*Changes, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteError(w, r, internal.NewValidationError("request body too large", internal.ErrCodeInvalidRequestBody))
			return nil, false
		}
		h.WriteError(w, r, internal.NewValidationError("invalid request body", internal.ErrCodeInvalidRequestBody))
		return nil, false
	}

	changes, err := Decode(body, mode)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return nil, false
	}
	return changes, true
}

// pageLink is the absolute URL of the current request with page replaced.
// Page 1 drops the parameter entirely.
func (h *Handler) pageLink(r *http.Request, page int) *string {
	u := url.URL{
		Scheme: requestScheme(r),
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	if h.Config.PublicURL != "" {
		if public, err := url.Parse(h.Config.PublicURL); err == nil && public.Host != "" {
			u.Scheme, u.Host = public.Scheme, public.Host
		}
	}

	values := r.URL.Query()
	if page <= 1 {
		values.Del("page")
	} else {
		values.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = values.Encode()

	link := u.String()
	return &link
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
