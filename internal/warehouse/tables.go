package warehouse

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidaplena/analytics/internal/domain/clinical"
	"github.com/vidaplena/analytics/internal/domain/hr"
	"github.com/vidaplena/analytics/internal/domain/supply"
)

// Column is one warehouse column. Names follow the CSV header.
type Column struct {
	Name string
	Type string
}

// Table describes the warehouse table a dataset is copied into.
type Table struct {
	Name    string
	Columns []Column
}

// Identifier returns the quoted table name.
func (t Table) Identifier() pgx.Identifier { return pgx.Identifier{t.Name} }

// ColumnNames returns the column names in copy order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateSQL returns an idempotent CREATE TABLE statement.
func (t Table) CreateSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(t.Identifier().Sanitize())
	b.WriteString(" (\n")
	for i, c := range t.Columns {
		b.WriteString("\t")
		b.WriteString(pgx.Identifier{c.Name}.Sanitize())
		b.WriteString(" ")
		b.WriteString(c.Type)
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

// TruncateSQL empties the table before a publish.
func (t Table) TruncateSQL() string {
	return "TRUNCATE TABLE " + t.Identifier().Sanitize()
}

var (
	EncountersTable = Table{
		Name: "atendimentos",
		Columns: []Column{
			{clinical.ColEncounterID, "BIGINT PRIMARY KEY"},
			{clinical.ColPatientID, "BIGINT NOT NULL"},
			{clinical.ColPatientName, "TEXT NOT NULL"},
			{clinical.ColPatientBirthDate, "DATE NOT NULL"},
			{clinical.ColEncounterAt, "TIMESTAMP NOT NULL"},
			{clinical.ColEncounterType, "TEXT NOT NULL"},
			{clinical.ColDepartment, "TEXT NOT NULL"},
			{clinical.ColStayDays, "INTEGER NOT NULL"},
			{clinical.ColInsurer, "TEXT NOT NULL"},
			{clinical.ColBilled, "NUMERIC(14,2) NOT NULL"},
			{clinical.ColPaymentStatus, "TEXT NOT NULL"},
		},
	}

	OrdersTable = Table{
		Name: "pedidos_suprimentos",
		Columns: []Column{
			{supply.ColOrderID, "BIGINT PRIMARY KEY"},
			{supply.ColItemID, "BIGINT NOT NULL"},
			{supply.ColItemName, "TEXT NOT NULL"},
			{supply.ColItemCategory, "TEXT NOT NULL"},
			{supply.ColSupplierID, "BIGINT NOT NULL"},
			{supply.ColSupplierName, "TEXT NOT NULL"},
			{supply.ColOrderedAt, "TIMESTAMP NOT NULL"},
			{supply.ColQuantity, "INTEGER NOT NULL"},
			{supply.ColUnitCost, "NUMERIC(12,2) NOT NULL"},
			{supply.ColTotalCost, "NUMERIC(14,2) NOT NULL"},
			{supply.ColStatus, "TEXT NOT NULL"},
			{supply.ColExpectedAt, "TIMESTAMP NOT NULL"},
			{supply.ColDeliveredAt, "TIMESTAMP"},
		},
	}

	EmployeesTable = Table{
		Name: "colaboradores",
		Columns: []Column{
			{hr.ColEmployeeID, "BIGINT PRIMARY KEY"},
			{hr.ColName, "TEXT NOT NULL"},
			{hr.ColAge, "INTEGER NOT NULL"},
			{hr.ColGender, "TEXT NOT NULL"},
			{hr.ColDepartment, "TEXT NOT NULL"},
			{hr.ColTitle, "TEXT NOT NULL"},
			{hr.ColSeniority, "TEXT NOT NULL"},
			{hr.ColHiredAt, "DATE NOT NULL"},
			{hr.ColTerminatedAt, "DATE"},
			{hr.ColExitReason, "TEXT"},
			{hr.ColSalary, "NUMERIC(12,2) NOT NULL"},
			{hr.ColPerformance, "SMALLINT NOT NULL"},
			{hr.ColSatisfaction, "SMALLINT NOT NULL"},
			{hr.ColOvertime, "INTEGER NOT NULL"},
			{hr.ColPromoted, "BOOLEAN NOT NULL"},
			{hr.ColTenure, "NUMERIC(6,2) NOT NULL"},
		},
	}
)

func encounterRow(t *clinical.Table) func(i int) ([]any, error) {
	return func(i int) ([]any, error) {
		return []any{
			t.EncounterID[i],
			t.PatientID[i],
			t.PatientName[i],
			t.PatientBirthDate[i],
			t.At[i],
			t.Type.Value(i),
			t.Department.Value(i),
			t.StayDays[i],
			t.Insurer.Value(i),
			t.Billed[i],
			t.PaymentStatus.Value(i),
		}, nil
	}
}

func orderRow(t *supply.Table) func(i int) ([]any, error) {
	return func(i int) ([]any, error) {
		return []any{
			t.OrderID[i],
			t.ItemID[i],
			t.ItemName.Value(i),
			t.ItemCategory.Value(i),
			t.SupplierID[i],
			t.SupplierName.Value(i),
			t.OrderedAt[i],
			t.Quantity[i],
			t.UnitCost[i],
			t.TotalCost[i],
			t.Status.Value(i),
			t.ExpectedAt[i],
			nullTime(t.DeliveredAt[i]),
		}, nil
	}
}

func employeeRow(t *hr.Table) func(i int) ([]any, error) {
	return func(i int) ([]any, error) {
		return []any{
			t.EmployeeID[i],
			t.Name[i],
			t.Age[i],
			t.Gender.Value(i),
			t.Department.Value(i),
			t.Title.Value(i),
			t.Seniority.Value(i),
			t.HiredAt[i],
			nullTime(t.TerminatedAt[i]),
			nullString(t.ExitReason.Value(i)),
			t.Salary[i],
			t.Performance[i],
			t.Satisfaction[i],
			t.Overtime[i],
			t.Promoted.Value(i) == hr.PromotedYes,
			t.TenureYears[i],
		}, nil
	}
}

// nullTime maps the zero time used by the loaders for a missing date to NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
