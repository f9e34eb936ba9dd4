package employee_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/go-chi/chi"

	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-directory/internal/employee"
	employeePostgres "github.com/frahmantamala/employee-directory/internal/employee/postgres"
	"github.com/frahmantamala/employee-directory/internal/export"
	"github.com/frahmantamala/employee-directory/internal/transport/rest"
)

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Errors []struct {
				Field string `json:"field"`
				Code  string `json:"code"`
			} `json:"errors"`
		} `json:"details"`
	} `json:"error"`
}

type listBody struct {
	Count    int64            `json:"count"`
	Next     *string          `json:"next"`
	Previous *string          `json:"previous"`
	Results  []map[string]any `json:"results"`
}

type failingRenderer struct{}

func (failingRenderer) Format() string                          { return "pdf" }
func (failingRenderer) ContentType() string                     { return "application/pdf" }
func (failingRenderer) Extension() string                       { return "pdf" }
func (failingRenderer) Render(io.Writer, export.Document) error { return errors.New("out of ink") }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	Expect(err).NotTo(HaveOccurred())
	return t
}

var _ = Describe("Employee Handler Integration", func() {
	var (
		db      *gorm.DB
		repo    employee.RepositoryAPI
		handler *employee.Handler
		router  *chi.Mux
		slogger *slog.Logger
	)

	do := func(method, target, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, target, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeList := func(w *httptest.ResponseRecorder) listBody {
		var body listBody
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	emails := func(body listBody) []string {
		out := make([]string, 0, len(body.Results))
		for _, r := range body.Results {
			out = append(out, r["email"].(string))
		}
		return out
	}

	decodeError := func(w *httptest.ResponseRecorder) errorEnvelope {
		var env errorEnvelope
		Expect(json.Unmarshal(w.Body.Bytes(), &env)).To(Succeed())
		return env
	}

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&employeeDatamodel.Employee{})).To(Succeed())

		repo = employeePostgres.NewEmployeeRepository(db, nil)
		query := employee.NewQuerySurface(employee.DefaultQueryConfig())
		service := employee.NewService(repo, query, slogger, 5*time.Second)
		handler = employee.NewHandler(service, query, employee.HandlerConfig{})
		handler.Now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.RouterDeps{DB: sqlDB, EmployeeHandler: handler, Logger: slogger})

		phone := "+44 20 7946 0001"
		seed := []*employeeDatamodel.Employee{
			{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PhoneNumber: &phone, Position: "Engineer", Department: "Engineering", HireDate: date("2015-12-10"), Salary: decimal.RequireFromString("185000")},
			{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Position: "Scientist", Department: "Research", HireDate: date("2016-06-23"), Salary: decimal.RequireFromString("172000")},
			{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Position: "Manager", Department: "Engineering", HireDate: date("2014-12-09"), Salary: decimal.RequireFromString("198000.50")},
		}
		for _, row := range seed {
			Expect(repo.Create(context.Background(), row)).To(Succeed())
		}
	})

	Describe("GET /api/employees", func() {
		It("should list employees ordered by name by default", func() {
			w := do(http.MethodGet, "/api/employees", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
			resp := decodeList(w)
			Expect(resp.Count).To(Equal(int64(3)))
			Expect(resp.Next).To(BeNil())
			Expect(resp.Previous).To(BeNil())
			Expect(emails(resp)).To(Equal([]string{"grace@example.com", "ada@example.com", "alan@example.com"}))
		})

		It("should accept a trailing slash", func() {
			Expect(do(http.MethodGet, "/api/employees/", "").Code).To(Equal(http.StatusOK))
		})

		It("should filter by exact department", func() {
			resp := decodeList(do(http.MethodGet, "/api/employees?department=Engineering", ""))

			Expect(resp.Count).To(Equal(int64(2)))
			Expect(emails(resp)).To(ConsistOf("ada@example.com", "grace@example.com"))
		})

		It("should not match a department case-insensitively", func() {
			resp := decodeList(do(http.MethodGet, "/api/employees?department=engineering", ""))

			Expect(resp.Count).To(Equal(int64(0)))
		})

		It("should search across text fields ignoring case", func() {
			resp := decodeList(do(http.MethodGet, "/api/employees?search=RESEARCH", ""))

			Expect(emails(resp)).To(Equal([]string{"alan@example.com"}))
		})

		It("should require every search term to match", func() {
			resp := decodeList(do(http.MethodGet, "/api/employees?search=ada+engineer", ""))
			Expect(emails(resp)).To(Equal([]string{"ada@example.com"}))

			resp = decodeList(do(http.MethodGet, "/api/employees?search=ada+research", ""))
			Expect(resp.Count).To(Equal(int64(0)))
		})

		It("should order by salary descending", func() {
			resp := decodeList(do(http.MethodGet, "/api/employees?ordering=-salary", ""))

			Expect(emails(resp)).To(Equal([]string{"grace@example.com", "ada@example.com", "alan@example.com"}))
			Expect(resp.Results[0]["salary"]).To(Equal("198000.50"))
		})

		It("should filter by hire date", func() {
			resp := decodeList(do(http.MethodGet, "/api/employees?hire_date=2016-06-23", ""))

			Expect(emails(resp)).To(Equal([]string{"alan@example.com"}))
		})

		It("should link to neighbouring pages", func() {
			w := do(http.MethodGet, "/api/employees?page_size=2", "")

			resp := decodeList(w)
			Expect(resp.Results).To(HaveLen(2))
			Expect(resp.Next).NotTo(BeNil())
			Expect(*resp.Next).To(Equal("http://example.com/api/employees?page=2&page_size=2"))

			resp = decodeList(do(http.MethodGet, "/api/employees?page=2&page_size=2", ""))
			Expect(resp.Results).To(HaveLen(1))
			Expect(resp.Next).To(BeNil())
			Expect(*resp.Previous).To(Equal("http://example.com/api/employees?page_size=2"))
		})

		It("should use the forwarded scheme in links", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/employees?page_size=1", nil)
			req.Header.Set("X-Forwarded-Proto", "https")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(*decodeList(w).Next).To(HavePrefix("https://example.com/"))
		})

		It("should return not found for a page past the end", func() {
			w := do(http.MethodGet, "/api/employees?page=9", "")

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(decodeError(w).Error.Code).To(Equal("INVALID_PAGE"))
		})

		It("should reject a malformed hire date filter", func() {
			w := do(http.MethodGet, "/api/employees?hire_date=soon", "")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /api/employees", func() {
		It("should create an employee", func() {
			w := do(http.MethodPost, "/api/employees", createBody("Katherine", "Johnson", "kj@example.com"))

			Expect(w.Code).To(Equal(http.StatusCreated))
			var body map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body["id"]).To(BeNumerically(">", 0))
			Expect(body["salary"]).To(Equal("50000.00"))
			Expect(body["phone_number"]).To(BeNil())
			Expect(body["profile_image"]).To(BeNil())
			Expect(body["created_at"]).NotTo(BeEmpty())
		})

		It("should reject a duplicate email", func() {
			w := do(http.MethodPost, "/api/employees", createBody("Other", "Ada", "ada@example.com"))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			env := decodeError(w)
			Expect(env.Error.Type).To(Equal("VALIDATION_ERROR"))
			Expect(env.Error.Details.Errors[0].Field).To(Equal("email"))
			Expect(env.Error.Details.Errors[0].Code).To(Equal("DUPLICATE_EMAIL"))
		})

		It("should reject malformed JSON", func() {
			w := do(http.MethodPost, "/api/employees", "{")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error.Code).To(Equal("INVALID_REQUEST_BODY"))
		})
	})

	Describe("single employee routes", func() {
		var adaID string

		BeforeEach(func() {
			var row employeeDatamodel.Employee
			Expect(db.Where("email = ?", "ada@example.com").First(&row).Error).To(Succeed())
			adaID = strconv.FormatInt(row.ID, 10)
		})

		It("should retrieve an employee", func() {
			w := do(http.MethodGet, "/api/employees/"+adaID, "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var body map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body["email"]).To(Equal("ada@example.com"))
			Expect(body["hire_date"]).To(Equal("2015-12-10"))
			Expect(body["phone_number"]).To(Equal("+44 20 7946 0001"))
		})

		It("should return not found for unknown or malformed ids", func() {
			for _, id := range []string{"999", "0", "abc"} {
				w := do(http.MethodGet, "/api/employees/"+id, "")

				Expect(w.Code).To(Equal(http.StatusNotFound))
				Expect(decodeError(w).Error.Code).To(Equal("EMPLOYEE_NOT_FOUND"))
			}
		})

		It("should replace an employee with PUT", func() {
			w := do(http.MethodPut, "/api/employees/"+adaID, createBody("Augusta", "King", "ada@example.com"))

			Expect(w.Code).To(Equal(http.StatusOK))
			var body map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body["first_name"]).To(Equal("Augusta"))
			Expect(body["department"]).To(Equal("Engineering"))
		})

		It("should require every field on PUT", func() {
			w := do(http.MethodPut, "/api/employees/"+adaID, `{"first_name":"Augusta"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should patch only the given fields", func() {
			w := do(http.MethodPatch, "/api/employees/"+adaID, `{"salary":"190000.00","phone_number":null}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			var body map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body["salary"]).To(Equal("190000.00"))
			Expect(body["phone_number"]).To(BeNil())
			Expect(body["last_name"]).To(Equal("Lovelace"))
		})

		It("should reject patching to another employee's email", func() {
			w := do(http.MethodPatch, "/api/employees/"+adaID, `{"email":"alan@example.com"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Error.Details.Errors[0].Code).To(Equal("DUPLICATE_EMAIL"))
		})

		It("should delete an employee", func() {
			w := do(http.MethodDelete, "/api/employees/"+adaID, "")

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Body.Len()).To(Equal(0))
			Expect(do(http.MethodGet, "/api/employees/"+adaID, "").Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("exports", func() {
		It("should export the filtered set as a PDF attachment", func() {
			w := do(http.MethodGet, "/api/employees/export_pdf?department=Engineering", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/pdf"))
			Expect(w.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="employees_20240506_070809.pdf"`))
			Expect(bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF"))).To(BeTrue())
		})

		It("should export the filtered set as a workbook", func() {
			w := do(http.MethodGet, "/api/employees/export_excel?ordering=-salary", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="employees_20240506_070809.xlsx"`))

			f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			rows, err := f.GetRows("Employees")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(4))
			Expect(rows[1][3]).To(Equal("grace@example.com"))
		})

		It("should still produce a document with no matches", func() {
			w := do(http.MethodGet, "/api/employees/export_excel?department=Nobody", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			rows, err := f.GetRows("Employees")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
		})

		It("should report a rendering failure as a JSON error", func() {
			handler.Config.PDF = failingRenderer{}

			w := do(http.MethodGet, "/api/employees/export_pdf", "")

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
			env := decodeError(w)
			Expect(env.Error.Code).To(Equal("EXPORT_FAILED"))
			Expect(env.Error.Message).NotTo(ContainSubstring("out of ink"))
		})
	})

	It("should answer unknown routes with a JSON not found", func() {
		w := do(http.MethodGet, "/api/nothing-here", "")

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(decodeError(w).Error.Code).To(Equal("NOT_FOUND"))
	})
})
