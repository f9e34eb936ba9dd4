package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a sample employee directory for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := sqlx.Connect("pgx", cfg.Database.Source)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		inserted, err := seedEmployees(cmd.Context(), db, sampleEmployees(), clearData)
		if err != nil {
			log.Fatalf("failed to seed employees: %v", err)
		}
		fmt.Printf("Seeded %d employees (existing emails skipped)\n", inserted)
	},
}

type seedEmployee struct {
	FirstName   string          `db:"first_name"`
	LastName    string          `db:"last_name"`
	Email       string          `db:"email"`
	PhoneNumber *string         `db:"phone_number"`
	Position    string          `db:"position"`
	Department  string          `db:"department"`
	HireDate    time.Time       `db:"hire_date"`
	Salary      decimal.Decimal `db:"salary"`
}

const insertSeedEmployee = `
INSERT INTO employees (first_name, last_name, email, phone_number, position, department, hire_date, salary, created_at, updated_at)
VALUES (:first_name, :last_name, :email, :phone_number, :position, :department, :hire_date, :salary, now(), now())
ON CONFLICT (email) DO NOTHING`

// seedEmployees inserts rows in one transaction and reports how many were
// new. With clear set the table is emptied first.
func seedEmployees(ctx context.Context, db *sqlx.DB, rows []seedEmployee, clear bool) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if clear {
		if _, err := tx.ExecContext(ctx, "DELETE FROM employees"); err != nil {
			return 0, fmt.Errorf("clear employees: %w", err)
		}
		fmt.Println("Cleared existing employees")
	}

	var inserted int64
	for _, row := range rows {
		res, err := tx.NamedExecContext(ctx, insertSeedEmployee, row)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", row.Email, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func sampleEmployees() []seedEmployee {
	phone := func(s string) *string { return &s }
	date := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}

	return []seedEmployee{
		{"Ada", "Lovelace", "ada.lovelace@example.com", phone("+44 20 7946 0001"), "Principal Engineer", "Engineering", date("2015-12-10"), decimal.RequireFromString("185000.00")},
		{"Alan", "Turing", "alan.turing@example.com", phone("+44 20 7946 0002"), "Research Scientist", "Research", date("2016-06-23"), decimal.RequireFromString("172000.00")},
		{"Grace", "Hopper", "grace.hopper@example.com", nil, "Engineering Manager", "Engineering", date("2014-12-09"), decimal.RequireFromString("198000.00")},
		{"Katherine", "Johnson", "katherine.johnson@example.com", phone("+1 757 555 0104"), "Data Analyst", "Analytics", date("2018-08-26"), decimal.RequireFromString("96000.00")},
		{"Linus", "Torvalds", "linus.torvalds@example.com", nil, "Staff Engineer", "Platform", date("2017-12-28"), decimal.RequireFromString("165000.00")},
		{"Margaret", "Hamilton", "margaret.hamilton@example.com", phone("+1 617 555 0106"), "Director of Engineering", "Engineering", date("2013-08-17"), decimal.RequireFromString("225000.00")},
		{"Dennis", "Ritchie", "dennis.ritchie@example.com", nil, "Software Engineer", "Platform", date("2019-09-09"), decimal.RequireFromString("128000.00")},
		{"Barbara", "Liskov", "barbara.liskov@example.com", phone("+1 617 555 0108"), "Architect", "Platform", date("2016-11-07"), decimal.RequireFromString("176500.50")},
		{"Radia", "Perlman", "radia.perlman@example.com", nil, "Network Engineer", "Infrastructure", date("2020-12-18"), decimal.RequireFromString("142000.00")},
		{"Frances", "Allen", "frances.allen@example.com", phone("+1 914 555 0110"), "Compiler Engineer", "Research", date("2021-08-04"), decimal.RequireFromString("151250.75")},
		{"Edsger", "Dijkstra", "edsger.dijkstra@example.com", nil, "Research Scientist", "Research", date("2015-05-11"), decimal.RequireFromString("169000.00")},
		{"Hedy", "Lamarr", "hedy.lamarr@example.com", phone("+1 310 555 0112"), "Product Manager", "Product", date("2022-11-09"), decimal.RequireFromString("134000.00")},
	}
}
