package employee

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

const (
	salaryMaxDigits     = 10
	salaryDecimalPlaces = 2
)

// Mode selects which presence rules Decode applies.
type Mode int

const (
	ModeCreate Mode = iota
	ModeReplace
	ModePartial
)

type fieldKind int

const (
	kindID fieldKind = iota
	kindText
	kindEmail
	kindDate
	kindDecimal
	kindReference
	kindTimestamp
)

// fieldDef describes one wire field. The same table drives decoding,
// validation, and serialization.
type fieldDef struct {
	Name      string
	Kind      fieldKind
	ReadOnly  bool
	Required  bool
	Nullable  bool
	MaxLength int

	encode func(e *Employee, media MediaResolver) any
	assign func(e *Employee, value any)
}

var employeeFields = []fieldDef{
	{
		Name: "id", Kind: kindID, ReadOnly: true,
		encode: func(e *Employee, _ MediaResolver) any { return e.ID },
	},
	{
		Name: "first_name", Kind: kindText, Required: true, MaxLength: 100,
		encode: func(e *Employee, _ MediaResolver) any { return e.FirstName },
		assign: func(e *Employee, v any) { e.FirstName = v.(string) },
	},
	{
		Name: "last_name", Kind: kindText, Required: true, MaxLength: 100,
		encode: func(e *Employee, _ MediaResolver) any { return e.LastName },
		assign: func(e *Employee, v any) { e.LastName = v.(string) },
	},
	{
		Name: "email", Kind: kindEmail, Required: true, MaxLength: 254,
		encode: func(e *Employee, _ MediaResolver) any { return e.Email },
		assign: func(e *Employee, v any) { e.Email = v.(string) },
	},
	{
		Name: "phone_number", Kind: kindText, Nullable: true, MaxLength: 20,
		encode: func(e *Employee, _ MediaResolver) any { return e.PhoneNumber },
		assign: func(e *Employee, v any) { e.PhoneNumber = v.(*string) },
	},
	{
		Name: "position", Kind: kindText, Required: true, MaxLength: 100,
		encode: func(e *Employee, _ MediaResolver) any { return e.Position },
		assign: func(e *Employee, v any) { e.Position = v.(string) },
	},
	{
		Name: "department", Kind: kindText, Required: true, MaxLength: 100,
		encode: func(e *Employee, _ MediaResolver) any { return e.Department },
		assign: func(e *Employee, v any) { e.Department = v.(string) },
	},
	{
		Name: "hire_date", Kind: kindDate, Required: true,
		encode: func(e *Employee, _ MediaResolver) any { return e.HireDate.Format(DateLayout) },
		assign: func(e *Employee, v any) { e.HireDate = v.(time.Time) },
	},
	{
		Name: "salary", Kind: kindDecimal, Required: true,
		encode: func(e *Employee, _ MediaResolver) any { return e.Salary.StringFixed(salaryDecimalPlaces) },
		assign: func(e *Employee, v any) { e.Salary = v.(decimal.Decimal) },
	},
	{
		Name: "profile_image", Kind: kindReference, Nullable: true, MaxLength: 100,
		encode: func(e *Employee, media MediaResolver) any {
			if e.ProfileImage == nil || *e.ProfileImage == "" || media == nil {
				return nil
			}
			return media.Resolve(*e.ProfileImage)
		},
		assign: func(e *Employee, v any) { e.ProfileImage = v.(*string) },
	},
	{
		Name: "created_at", Kind: kindTimestamp, ReadOnly: true,
		encode: func(e *Employee, _ MediaResolver) any { return e.CreatedAt },
	},
	{
		Name: "updated_at", Kind: kindTimestamp, ReadOnly: true,
		encode: func(e *Employee, _ MediaResolver) any { return e.UpdatedAt },
	},
}

// Changes holds the decoded, validated writable fields of a request body.
type Changes struct {
	values []fieldValue
}

type fieldValue struct {
	def   *fieldDef
	value any
}

// Apply copies every decoded field onto e.
func (c *Changes) Apply(e *Employee) {
	for _, fv := range c.values {
		fv.def.assign(e, fv.value)
	}
}

// Email returns the decoded email, if the body carried one.
func (c *Changes) Email() (string, bool) {
	for _, fv := range c.values {
		if fv.def.Name == "email" {
			return fv.value.(string), true
		}
	}
	return "", false
}

// Fields lists the names of the decoded fields in table order.
func (c *Changes) Fields() []string {
	names := make([]string, len(c.values))
	for i, fv := range c.values {
		names[i] = fv.def.Name
	}
	return names
}

func (c *Changes) Len() int {
	return len(c.values)
}

// Decode parses a JSON request body against the field table. Unknown and
// read-only keys are ignored. All field errors are reported together.
func Decode(body []byte, mode Mode) (*Changes, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, internal.NewValidationError("invalid request body", internal.ErrCodeInvalidRequestBody)
	}

	changes := &Changes{}
	var fieldErrors []internal.ValidationError
	validator := validation.NewValidator()

	for i := range employeeFields {
		def := &employeeFields[i]
		if def.ReadOnly {
			continue
		}

		value, present := raw[def.Name]
		if !present {
			if def.Required && mode != ModePartial {
				fieldErrors = append(fieldErrors, internal.ValidationError{
					Field:   def.Name,
					Message: fmt.Sprintf("%s is required", def.Name),
					Code:    string(internal.ErrCodeRequired),
				})
			}
			continue
		}

		parsed, err := def.parse(value)
		if err != nil {
			fieldErrors = append(fieldErrors, *err)
			continue
		}

		def.rules(validator.Field(def.Name, parsed))
		changes.values = append(changes.values, fieldValue{def: def, value: parsed})
	}

	if appErr := validator.Validate(); appErr != nil {
		fieldErrors = append(fieldErrors, appErr.FieldErrors()...)
	}

	if len(fieldErrors) > 0 {
		return nil, internal.NewValidationFieldErrors(fieldErrors)
	}

	return changes, nil
}

func (def *fieldDef) parse(raw json.RawMessage) (any, *internal.ValidationError) {
	fail := func(message string, code internal.ErrorCode) *internal.ValidationError {
		return &internal.ValidationError{Field: def.Name, Message: message, Code: string(code)}
	}

	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if !def.Nullable {
			return nil, fail(fmt.Sprintf("%s may not be null", def.Name), internal.ErrCodeNull)
		}
		return (*string)(nil), nil
	}

	switch def.Kind {
	case kindText, kindEmail, kindReference:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fail(fmt.Sprintf("%s must be a string", def.Name), internal.ErrCodeInvalidType)
		}
		s = strings.TrimSpace(s)
		if def.Nullable {
			if s == "" {
				return (*string)(nil), nil
			}
			return &s, nil
		}
		return s, nil

	case kindDate:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fail(fmt.Sprintf("%s must be a date in YYYY-MM-DD format", def.Name), internal.ErrCodeInvalidDate)
		}
		d, err := ParseDate(s)
		if err != nil {
			return nil, fail(fmt.Sprintf("%s must be a date in YYYY-MM-DD format", def.Name), internal.ErrCodeInvalidDate)
		}
		return d, nil

	case kindDecimal:
		text := string(bytes.TrimSpace(raw))
		if strings.HasPrefix(text, `"`) {
			if err := json.Unmarshal(raw, &text); err != nil {
				return nil, fail(fmt.Sprintf("%s must be a valid number", def.Name), internal.ErrCodeInvalidDecimal)
			}
			text = strings.TrimSpace(text)
		} else {
			var n json.Number
			if err := json.Unmarshal(raw, &n); err != nil {
				return nil, fail(fmt.Sprintf("%s must be a valid number", def.Name), internal.ErrCodeInvalidDecimal)
			}
			text = n.String()
		}
		d, err := decimal.NewFromString(text)
		if err != nil {
			return nil, fail(fmt.Sprintf("%s must be a valid number", def.Name), internal.ErrCodeInvalidDecimal)
		}
		return d, nil
	}

	return nil, fail(fmt.Sprintf("%s is not writable", def.Name), internal.ErrCodeInvalidType)
}

func (def *fieldDef) rules(fv *validation.FieldValidator) {
	if def.Required {
		fv.Required()
	}
	if def.MaxLength > 0 {
		fv.MaxLength(def.MaxLength)
	}
	switch def.Kind {
	case kindEmail:
		fv.Email()
	case kindDecimal:
		fv.Digits(salaryMaxDigits, salaryDecimalPlaces).MinDecimal(decimal.Zero)
	case kindReference:
		fv.RelativePath()
	}
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// Record is a serialized employee: an ordered JSON object in field-table order.
type Record []RecordField

type RecordField struct {
	Key   string
	Value any
}

// Serialize renders every attribute of e, with profile_image resolved through media.
func Serialize(e *Employee, media MediaResolver) Record {
	record := make(Record, 0, len(employeeFields))
	for i := range employeeFields {
		def := &employeeFields[i]
		record = append(record, RecordField{Key: def.Name, Value: def.encode(e, media)})
	}
	return record
}

func SerializeAll(employees []*Employee, media MediaResolver) []Record {
	records := make([]Record, len(employees))
	for i, e := range employees {
		records[i] = Serialize(e, media)
	}
	return records
}

func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
