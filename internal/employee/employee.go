package employee

import (
	"errors"
	"fmt"
	"time"

	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-directory/internal/export"
	"github.com/shopspring/decimal"
)

type Employee struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  *string
	Position     string
	Department   string
	HireDate     time.Time
	Salary       decimal.Decimal
	ProfileImage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ErrDuplicateEmail is returned by repositories when the email unique index rejects a write.
var ErrDuplicateEmail = errors.New("employee with this email already exists")

// ErrNotFound is returned by repository writes that match no row.
var ErrNotFound = errors.New("employee not found")

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

func (e *Employee) String() string {
	return fmt.Sprintf("%s (%s)", e.FullName(), e.Position)
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		ID:           e.ID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Email:        e.Email,
		PhoneNumber:  e.PhoneNumber,
		Position:     e.Position,
		Department:   e.Department,
		HireDate:     e.HireDate,
		Salary:       e.Salary,
		ProfileImage: e.ProfileImage,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	return &Employee{
		ID:           e.ID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Email:        e.Email,
		PhoneNumber:  e.PhoneNumber,
		Position:     e.Position,
		Department:   e.Department,
		HireDate:     e.HireDate,
		Salary:       e.Salary,
		ProfileImage: e.ProfileImage,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func FromDataModelSlice(employees []*employeeDatamodel.Employee) []*Employee {
	result := make([]*Employee, len(employees))
	for i, e := range employees {
		result[i] = FromDataModel(e)
	}
	return result
}

// ToExportRow flattens an employee into the row shape both export renderers consume.
func ToExportRow(e *Employee) export.Row {
	return export.Row{
		ID:          e.ID,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		Email:       e.Email,
		PhoneNumber: e.PhoneNumber,
		Position:    e.Position,
		Department:  e.Department,
		HireDate:    e.HireDate,
		Salary:      e.Salary,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func ToExportRows(employees []*Employee) []export.Row {
	rows := make([]export.Row, len(employees))
	for i, e := range employees {
		rows[i] = ToExportRow(e)
	}
	return rows
}
