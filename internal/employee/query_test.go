package employee_test

import (
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/employee"
)

var _ = Describe("QuerySurface", func() {
	var qs *employee.QuerySurface

	BeforeEach(func() {
		qs = employee.NewQuerySurface(employee.DefaultQueryConfig())
	})

	Describe("ParseQuery", func() {
		It("should read exact-match filters and ignore empty ones", func() {
			q, err := qs.ParseQuery(url.Values{
				"department": {"Engineering"},
				"position":   {""},
				"hire_date":  {"2020-01-15"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(*q.Filter.Department).To(Equal("Engineering"))
			Expect(q.Filter.Position).To(BeNil())
			Expect(*q.Filter.HireDate).To(Equal(time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)))
		})

		It("should reject a malformed hire_date filter", func() {
			_, err := qs.ParseQuery(url.Values{"hire_date": {"yesterday"}})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.FieldErrors()[0].Field).To(Equal("hire_date"))
		})

		It("should split search terms on spaces and commas", func() {
			q, err := qs.ParseQuery(url.Values{"search": {" ada, lovelace  eng "}})

			Expect(err).NotTo(HaveOccurred())
			Expect(q.SearchTerms).To(Equal([]string{"ada", "lovelace", "eng"}))
		})

		It("should keep only orderable fields", func() {
			q, err := qs.ParseQuery(url.Values{"ordering": {"-salary,email,hire_date,-salary"}})

			Expect(err).NotTo(HaveOccurred())
			Expect(q.Ordering).To(Equal([]employee.OrderTerm{
				{Field: employee.OrderBySalary, Desc: true},
				{Field: employee.OrderByHireDate},
			}))
		})
	})

	Describe("OrderClauses", func() {
		It("should fall back to the default ordering with id as the final tie-breaker", func() {
			clauses := qs.OrderClauses(employee.Query{})

			Expect(clauses).To(Equal([]employee.OrderTerm{
				{Field: employee.OrderByLastName},
				{Field: employee.OrderByFirstName},
				{Field: employee.OrderByID},
			}))
		})

		It("should put requested terms first without repeating fields", func() {
			clauses := qs.OrderClauses(employee.Query{Ordering: employee.ParseOrdering("-last_name,salary")})

			Expect(clauses).To(Equal([]employee.OrderTerm{
				{Field: employee.OrderByLastName, Desc: true},
				{Field: employee.OrderBySalary},
				{Field: employee.OrderByFirstName},
				{Field: employee.OrderByID},
			}))
		})

		It("should honour a configured default ordering", func() {
			qs = employee.NewQuerySurface(employee.QueryConfigFrom(internal.PaginationConfig{
				PageSize:        5,
				MaxPageSize:     20,
				DefaultOrdering: "-hire_date,bogus",
			}))

			Expect(qs.OrderClauses(employee.Query{})).To(Equal([]employee.OrderTerm{
				{Field: employee.OrderByHireDate, Desc: true},
				{Field: employee.OrderByID},
			}))
			Expect(qs.Config().PageSize).To(Equal(5))
			Expect(qs.Config().MaxPageSize).To(Equal(20))
		})
	})

	Describe("ParsePage", func() {
		DescribeTable("page_size handling",
			func(raw string, expected int) {
				req, err := qs.ParsePage(url.Values{"page_size": {raw}})
				Expect(err).NotTo(HaveOccurred())
				Expect(req.Size).To(Equal(expected))
			},
			Entry("explicit", "25", 25),
			Entry("clamped to the maximum", "1000", 100),
			Entry("zero falls back", "0", 10),
			Entry("negative falls back", "-3", 10),
			Entry("garbage falls back", "many", 10),
		)

		It("should default to the first page", func() {
			req, err := qs.ParsePage(url.Values{})

			Expect(err).NotTo(HaveOccurred())
			Expect(req).To(Equal(employee.PageRequest{Number: 1, Size: 10}))
		})

		It("should accept last", func() {
			req, err := qs.ParsePage(url.Values{"page": {"last"}})

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Last).To(BeTrue())
		})

		It("should reject malformed page numbers as not found", func() {
			for _, raw := range []string{"0", "-1", "two", "1.5"} {
				_, err := qs.ParsePage(url.Values{"page": {raw}})
				Expect(err).To(Equal(internal.ErrInvalidPage))
			}
		})
	})

	Describe("Window", func() {
		It("should compute offsets and neighbours", func() {
			w, err := qs.Window(25, employee.PageRequest{Number: 2, Size: 10})

			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(employee.PageWindow{Number: 2, Size: 10, NumPages: 3, Offset: 10}))
			Expect(w.HasNext()).To(BeTrue())
			Expect(w.HasPrevious()).To(BeTrue())
		})

		It("should resolve the last page", func() {
			w, err := qs.Window(25, employee.PageRequest{Size: 10, Last: true})

			Expect(err).NotTo(HaveOccurred())
			Expect(w.Number).To(Equal(3))
			Expect(w.HasNext()).To(BeFalse())
		})

		It("should allow the first page of an empty result", func() {
			w, err := qs.Window(0, employee.PageRequest{Number: 1, Size: 10})

			Expect(err).NotTo(HaveOccurred())
			Expect(w.NumPages).To(Equal(1))
			Expect(w.HasNext()).To(BeFalse())
			Expect(w.HasPrevious()).To(BeFalse())
		})

		It("should reject pages past the end", func() {
			_, err := qs.Window(25, employee.PageRequest{Number: 4, Size: 10})

			Expect(err).To(Equal(internal.ErrInvalidPage))
		})
	})

	It("should escape LIKE wildcards in search patterns", func() {
		Expect(employee.LikePattern(`50%_Off\`)).To(Equal(`%50\%\_off\\%`))
	})
})
