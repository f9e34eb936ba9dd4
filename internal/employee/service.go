package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
)

// RepositoryAPI is the storage contract. GetByID returns (nil, nil) when the
// row does not exist; write methods return ErrDuplicateEmail on unique
// index violations. Update returns ErrNotFound when the row is gone.
type RepositoryAPI interface {
	Count(ctx context.Context, q Query) (int64, error)
	List(ctx context.Context, q Query, order []OrderTerm, limit, offset int) ([]*employeeDatamodel.Employee, error)
	ListAll(ctx context.Context, q Query, order []OrderTerm) ([]*employeeDatamodel.Employee, error)
	GetByID(ctx context.Context, id int64) (*employeeDatamodel.Employee, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, employee *employeeDatamodel.Employee) error
	Update(ctx context.Context, employee *employeeDatamodel.Employee) error
	Delete(ctx context.Context, id int64) error
}

// Page is one slice of an ordered, filtered result set.
type Page struct {
	Items  []*Employee
	Count  int64
	Window PageWindow
}

type Service struct {
	repo    RepositoryAPI
	query   *QuerySurface
	logger  *slog.Logger
	timeout time.Duration
}

func NewService(repo RepositoryAPI, query *QuerySurface, logger *slog.Logger, timeout time.Duration) *Service {
	if query == nil {
		query = NewQuerySurface(DefaultQueryConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		query:   query,
		logger:  logger,
		timeout: timeout,
	}
}

func (s *Service) List(ctx context.Context, q Query, req PageRequest) (*Page, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	order := s.query.OrderClauses(q)

	total, err := s.repo.Count(ctx, q)
	if err != nil {
		s.logger.Error("failed to count employees", "error", err)
		return nil, internal.NewInternalError("failed to list employees", err)
	}

	window, err := s.query.Window(total, req)
	if err != nil {
		s.logger.Warn("requested page out of range", "page", req.Number, "last", req.Last, "count", total)
		return nil, err
	}

	rows, err := s.repo.List(ctx, q, order, window.Size, window.Offset)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err, "page", window.Number)
		return nil, internal.NewInternalError("failed to list employees", err)
	}

	return &Page{
		Items:  FromDataModelSlice(rows),
		Count:  total,
		Window: window,
	}, nil
}

// Export returns the whole filtered, ordered set without pagination.
func (s *Service) Export(ctx context.Context, q Query) ([]*Employee, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.repo.ListAll(ctx, q, s.query.OrderClauses(q))
	if err != nil {
		s.logger.Error("failed to load employees for export", "error", err)
		return nil, internal.NewInternalError("failed to load employees", err)
	}

	s.logger.Info("loaded employees for export", "count", len(rows))
	return FromDataModelSlice(rows), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, changes *Changes) (*Employee, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.ensureUniqueEmail(ctx, changes, 0); err != nil {
		return nil, err
	}

	employee := &Employee{}
	changes.Apply(employee)
	row := ToDataModel(employee)

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.writeError("create", 0, err)
	}

	s.logger.Info("employee created", "employee_id", row.ID, "department", row.Department)
	return FromDataModel(row), nil
}

// Update applies changes to an existing employee. The caller decides through
// the decode mode whether changes is a full replacement or a partial patch.
func (s *Service) Update(ctx context.Context, id int64, changes *Changes) (*Employee, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUniqueEmail(ctx, changes, id); err != nil {
		return nil, err
	}

	employee := FromDataModel(row)
	changes.Apply(employee)
	updated := ToDataModel(employee)

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, s.writeError("update", id, err)
	}

	s.logger.Info("employee updated", "employee_id", id, "fields", changes.Fields())
	return FromDataModel(updated), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete employee", "error", err, "employee_id", id)
		return internal.NewInternalError("failed to delete employee", err)
	}

	s.logger.Info("employee deleted", "employee_id", id)
	return nil
}

func (s *Service) find(ctx context.Context, id int64) (*employeeDatamodel.Employee, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get employee", "error", err, "employee_id", id)
		return nil, internal.NewInternalError("failed to get employee", err)
	}
	if row == nil {
		return nil, internal.ErrEmployeeNotFound
	}
	return row, nil
}

func (s *Service) ensureUniqueEmail(ctx context.Context, changes *Changes, excludeID int64) error {
	email, ok := changes.Email()
	if !ok {
		return nil
	}

	exists, err := s.repo.EmailExists(ctx, email, excludeID)
	if err != nil {
		s.logger.Error("failed to check email uniqueness", "error", err)
		return internal.NewInternalError("failed to validate employee", err)
	}
	if exists {
		return duplicateEmailError()
	}
	return nil
}

func (s *Service) writeError(op string, id int64, err error) error {
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn("employee removed before write", "op", op, "employee_id", id)
		return internal.ErrEmployeeNotFound
	}
	if errors.Is(err, ErrDuplicateEmail) {
		s.logger.Warn("employee email rejected by unique index", "op", op, "employee_id", id)
		return duplicateEmailError()
	}
	s.logger.Error(fmt.Sprintf("failed to %s employee", op), "error", err, "employee_id", id)
	return internal.NewInternalError(fmt.Sprintf("failed to %s employee", op), err)
}

func duplicateEmailError() error {
	return internal.NewValidationFieldError("email", ErrDuplicateEmail.Error(), internal.ErrCodeDuplicateEmail)
}
