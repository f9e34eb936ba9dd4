package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"github.com/frahmantamala/employee-directory/internal/metrics"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// EmployeeRepository implements employee.RepositoryAPI using GORM
type EmployeeRepository struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewEmployeeRepository creates a new employee repository. m may be nil.
func NewEmployeeRepository(db *gorm.DB, m *metrics.Metrics) employee.RepositoryAPI {
	return &EmployeeRepository{db: db, metrics: m}
}

func (r *EmployeeRepository) Count(ctx context.Context, q employee.Query) (int64, error) {
	defer r.metrics.ObserveDBQuery("count", time.Now())

	var total int64
	err := r.db.WithContext(ctx).
		Model(&employeeDatamodel.Employee{}).
		Scopes(filterScope(q.Filter), searchScope(q.SearchTerms)).
		Count(&total).Error
	return total, err
}

func (r *EmployeeRepository) List(ctx context.Context, q employee.Query, order []employee.OrderTerm, limit, offset int) ([]*employeeDatamodel.Employee, error) {
	defer r.metrics.ObserveDBQuery("list", time.Now())

	var rows []*employeeDatamodel.Employee
	err := r.db.WithContext(ctx).
		Scopes(filterScope(q.Filter), searchScope(q.SearchTerms), orderScope(order)).
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// ListAll is List without a page window, used by exports.
func (r *EmployeeRepository) ListAll(ctx context.Context, q employee.Query, order []employee.OrderTerm) ([]*employeeDatamodel.Employee, error) {
	defer r.metrics.ObserveDBQuery("list_all", time.Now())

	var rows []*employeeDatamodel.Employee
	err := r.db.WithContext(ctx).
		Scopes(filterScope(q.Filter), searchScope(q.SearchTerms), orderScope(order)).
		Find(&rows).Error
	return rows, err
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*employeeDatamodel.Employee, error) {
	defer r.metrics.ObserveDBQuery("get", time.Now())

	var row employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// EmailExists reports whether another employee already uses email.
// excludeID is skipped so an employee can keep its own address on update.
func (r *EmployeeRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	defer r.metrics.ObserveDBQuery("email_exists", time.Now())

	var total int64
	err := r.db.WithContext(ctx).
		Model(&employeeDatamodel.Employee{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&total).Error
	return total > 0, err
}

func (r *EmployeeRepository) Create(ctx context.Context, row *employeeDatamodel.Employee) error {
	defer r.metrics.ObserveDBQuery("create", time.Now())

	return translateWriteError(r.db.WithContext(ctx).Create(row).Error)
}

func (r *EmployeeRepository) Update(ctx context.Context, row *employeeDatamodel.Employee) error {
	defer r.metrics.ObserveDBQuery("update", time.Now())

	// Matches by primary key only; a vanished row is ErrNotFound, never re-inserted.
	result := r.db.WithContext(ctx).
		Model(row).
		Select("*").
		Omit("id", "created_at").
		Updates(row)
	if result.Error != nil {
		return translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	defer r.metrics.ObserveDBQuery("delete", time.Now())

	return r.db.WithContext(ctx).Delete(&employeeDatamodel.Employee{}, id).Error
}

func filterScope(f employee.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Department != nil {
			db = db.Where("department = ?", *f.Department)
		}
		if f.Position != nil {
			db = db.Where("position = ?", *f.Position)
		}
		if f.HireDate != nil {
			db = db.Where("hire_date = ?", *f.HireDate)
		}
		return db
	}
}

// searchScope requires every term to match at least one search field.
func searchScope(terms []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, term := range terms {
			pattern := employee.LikePattern(term)
			conds := make([]string, len(employee.SearchFields))
			args := make([]any, len(employee.SearchFields))
			for i, field := range employee.SearchFields {
				conds[i] = fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, field)
				args[i] = pattern
			}
			db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
		}
		return db
	}
}

func orderScope(order []employee.OrderTerm) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, t := range order {
			db = db.Order(clause.OrderByColumn{
				Column: clause.Column{Name: string(t.Field)},
				Desc:   t.Desc,
			})
		}
		return db
	}
}

func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", employee.ErrDuplicateEmail, err)
	}
	return err
}

// isUniqueViolation recognises unique index failures from GORM's translated
// errors, from pgx directly, and from SQLite.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
