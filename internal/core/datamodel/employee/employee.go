package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID           int64           `gorm:"primaryKey"`
	FirstName    string          `gorm:"column:first_name;size:100;not null;index:idx_employees_name,priority:2"`
	LastName     string          `gorm:"column:last_name;size:100;not null;index:idx_employees_name,priority:1"`
	Email        string          `gorm:"column:email;size:254;uniqueIndex;not null"`
	PhoneNumber  *string         `gorm:"column:phone_number;size:20"`
	Position     string          `gorm:"column:position;size:100;not null;index"`
	Department   string          `gorm:"column:department;size:100;not null;index"`
	HireDate     time.Time       `gorm:"column:hire_date;type:date;not null;index"`
	Salary       decimal.Decimal `gorm:"column:salary;type:numeric(10,2);not null"`
	ProfileImage *string         `gorm:"column:profile_image;size:100"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "employees"
}
