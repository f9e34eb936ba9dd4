package employee_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/employee"
)

func fieldErrors(err error) []internal.ValidationError {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	return appErr.FieldErrors()
}

func fieldCodes(err error) map[string]string {
	codes := make(map[string]string)
	for _, fe := range fieldErrors(err) {
		codes[fe.Field] = fe.Code
	}
	return codes
}

const validBody = `{
	"first_name": "Ada",
	"last_name": "Lovelace",
	"email": "ada@example.com",
	"phone_number": "+44 20 7946 0000",
	"position": "Engineer",
	"department": "Engineering",
	"hire_date": "2020-01-15",
	"salary": "75000.00"
}`

var _ = Describe("Decode", func() {
	Context("with a complete create body", func() {
		It("should decode every writable field", func() {
			changes, err := employee.Decode([]byte(validBody), employee.ModeCreate)

			Expect(err).NotTo(HaveOccurred())
			Expect(changes.Fields()).To(Equal([]string{
				"first_name", "last_name", "email", "phone_number",
				"position", "department", "hire_date", "salary",
			}))

			e := &employee.Employee{}
			changes.Apply(e)
			Expect(e.FirstName).To(Equal("Ada"))
			Expect(e.Email).To(Equal("ada@example.com"))
			Expect(*e.PhoneNumber).To(Equal("+44 20 7946 0000"))
			Expect(e.HireDate).To(Equal(time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)))
			Expect(e.Salary.Equal(decimal.RequireFromString("75000"))).To(BeTrue())
			Expect(e.ProfileImage).To(BeNil())
		})

		It("should accept salary as a JSON number", func() {
			body := `{"first_name":"A","last_name":"B","email":"a@b.io","position":"P","department":"D","hire_date":"2020-01-01","salary":1234.5}`

			changes, err := employee.Decode([]byte(body), employee.ModeCreate)

			Expect(err).NotTo(HaveOccurred())
			e := &employee.Employee{}
			changes.Apply(e)
			Expect(e.Salary.StringFixed(2)).To(Equal("1234.50"))
		})

		It("should ignore unknown and read-only keys", func() {
			body := `{"id": 99, "created_at": "2000-01-01T00:00:00Z", "nickname": "x",
				"first_name":"A","last_name":"B","email":"a@b.io","position":"P","department":"D","hire_date":"2020-01-01","salary":"1"}`

			changes, err := employee.Decode([]byte(body), employee.ModeCreate)

			Expect(err).NotTo(HaveOccurred())
			Expect(changes.Fields()).NotTo(ContainElement("id"))
			Expect(changes.Fields()).NotTo(ContainElement("created_at"))
		})

		It("should normalise a blank phone number to null", func() {
			body := `{"first_name":"A","last_name":"B","email":"a@b.io","phone_number":"  ","position":"P","department":"D","hire_date":"2020-01-01","salary":"1"}`

			changes, err := employee.Decode([]byte(body), employee.ModeCreate)

			Expect(err).NotTo(HaveOccurred())
			e := &employee.Employee{}
			changes.Apply(e)
			Expect(e.PhoneNumber).To(BeNil())
		})
	})

	Context("with invalid input", func() {
		It("should reject a body that is not a JSON object", func() {
			for _, body := range []string{`not json`, `[1,2]`, `null`, `"text"`} {
				_, err := employee.Decode([]byte(body), employee.ModeCreate)

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidRequestBody))
			}
		})

		It("should report every missing required field", func() {
			_, err := employee.Decode([]byte(`{"first_name":"Ada"}`), employee.ModeCreate)

			codes := fieldCodes(err)
			Expect(codes).To(HaveLen(6))
			for _, field := range []string{"last_name", "email", "position", "department", "hire_date", "salary"} {
				Expect(codes).To(HaveKeyWithValue(field, string(internal.ErrCodeRequired)))
			}
		})

		It("should require every field on a full replacement", func() {
			_, err := employee.Decode([]byte(`{"email":"a@b.io"}`), employee.ModeReplace)

			Expect(fieldCodes(err)).To(HaveKeyWithValue("first_name", string(internal.ErrCodeRequired)))
		})

		It("should reject field values that break the rules", func() {
			body := `{
				"first_name": "",
				"last_name": null,
				"email": "not-an-email",
				"position": "Engineer",
				"department": 42,
				"hire_date": "15/01/2020",
				"salary": "123456789.00"
			}`

			_, err := employee.Decode([]byte(body), employee.ModeCreate)

			codes := fieldCodes(err)
			Expect(codes).To(HaveKeyWithValue("first_name", string(internal.ErrCodeBlank)))
			Expect(codes).To(HaveKeyWithValue("last_name", string(internal.ErrCodeNull)))
			Expect(codes).To(HaveKeyWithValue("email", string(internal.ErrCodeInvalidEmail)))
			Expect(codes).To(HaveKeyWithValue("department", string(internal.ErrCodeInvalidType)))
			Expect(codes).To(HaveKeyWithValue("hire_date", string(internal.ErrCodeInvalidDate)))
			Expect(codes).To(HaveKeyWithValue("salary", string(internal.ErrCodeMaxDigits)))
			Expect(codes).NotTo(HaveKey("position"))
		})

		DescribeTable("salary precision",
			func(salary string, code internal.ErrorCode) {
				_, err := employee.Decode([]byte(`{"salary": `+salary+`}`), employee.ModePartial)
				Expect(fieldCodes(err)).To(HaveKeyWithValue("salary", string(code)))
			},
			Entry("too many decimal places", `"1.234"`, internal.ErrCodeMaxDecimalPlaces),
			Entry("too many whole digits", `"123456789"`, internal.ErrCodeMaxDigits),
			Entry("negative", `"-1.00"`, internal.ErrCodeMinValue),
			Entry("not a number", `"abc"`, internal.ErrCodeInvalidDecimal),
			Entry("boolean", `true`, internal.ErrCodeInvalidDecimal),
		)

		It("should enforce maximum lengths in characters", func() {
			long := make([]rune, 101)
			for i := range long {
				long[i] = 'é'
			}
			body, _ := json.Marshal(map[string]string{"first_name": string(long)})

			_, err := employee.Decode(body, employee.ModePartial)

			Expect(fieldCodes(err)).To(HaveKeyWithValue("first_name", string(internal.ErrCodeMaxLength)))
		})

		It("should reject absolute or escaping profile image references", func() {
			for _, ref := range []string{"/etc/passwd", "../secret.png", "http://x/y.png"} {
				body, _ := json.Marshal(map[string]string{"profile_image": ref})

				_, err := employee.Decode(body, employee.ModePartial)

				Expect(fieldCodes(err)).To(HaveKeyWithValue("profile_image", string(internal.ErrCodeInvalidReference)))
			}
		})
	})

	Context("in partial mode", func() {
		It("should accept an empty object", func() {
			changes, err := employee.Decode([]byte(`{}`), employee.ModePartial)

			Expect(err).NotTo(HaveOccurred())
			Expect(changes.Len()).To(Equal(0))
		})

		It("should only carry the fields present", func() {
			changes, err := employee.Decode([]byte(`{"salary":"80000.00"}`), employee.ModePartial)

			Expect(err).NotTo(HaveOccurred())
			Expect(changes.Fields()).To(Equal([]string{"salary"}))
			_, hasEmail := changes.Email()
			Expect(hasEmail).To(BeFalse())
		})
	})
})

var _ = Describe("Serialize", func() {
	It("should render fields in a stable order with resolved media", func() {
		image := "profiles/ada lovelace.png"
		e := &employee.Employee{
			ID:           7,
			FirstName:    "Ada",
			LastName:     "Lovelace",
			Email:        "ada@example.com",
			Position:     "Engineer",
			Department:   "Engineering",
			HireDate:     time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
			Salary:       decimal.RequireFromString("75000"),
			ProfileImage: &image,
			CreatedAt:    time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
			UpdatedAt:    time.Date(2024, 3, 2, 10, 30, 0, 0, time.UTC),
		}

		record := employee.Serialize(e, employee.MediaURL{BaseURL: "/media/"})
		out, err := json.Marshal(record)

		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"id":7,"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com",` +
			`"phone_number":null,"position":"Engineer","department":"Engineering","hire_date":"2020-01-15",` +
			`"salary":"75000.00","profile_image":"/media/profiles/ada%20lovelace.png",` +
			`"created_at":"2024-03-01T10:30:00Z","updated_at":"2024-03-02T10:30:00Z"}`))
	})

	It("should describe an employee by name and position", func() {
		e := &employee.Employee{FirstName: "Ada", LastName: "Lovelace", Position: "Engineer"}

		Expect(e.String()).To(Equal("Ada Lovelace (Engineer)"))
		Expect(e.FullName()).To(Equal("Ada Lovelace"))
	})
})
