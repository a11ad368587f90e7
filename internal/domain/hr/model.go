package hr

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidaplena/analytics/internal/platform/tabular"
)

// Column names of the employees file, in file order.
const (
	ColEmployeeID   = "employee_id"
	ColName         = "nome_completo"
	ColAge          = "idade"
	ColGender       = "genero"
	ColDepartment   = "departamento"
	ColTitle        = "cargo"
	ColSeniority    = "nivel_senioridade"
	ColHiredAt      = "data_contratacao"
	ColTerminatedAt = "data_termino"
	ColExitReason   = "motivo_saida"
	ColSalary       = "salario_mensal"
	ColPerformance  = "avaliacao_desempenho_anual"
	ColSatisfaction = "satisfacao_trabalho"
	ColOvertime     = "horas_extras_mes"
	ColPromoted     = "promovido_ultimo_ano"
	ColTenure       = "tempo_empresa_anos"
)

// Columns is the header of the employees file.
var Columns = []string{
	ColEmployeeID, ColName, ColAge, ColGender, ColDepartment, ColTitle,
	ColSeniority, ColHiredAt, ColTerminatedAt, ColExitReason, ColSalary,
	ColPerformance, ColSatisfaction, ColOvertime, ColPromoted, ColTenure,
}

// EmployeeIDBase is the identifier of the first employee.
const EmployeeIDBase = 1000

// Promotion flag values as written to the file.
const (
	PromotedYes = "Sim"
	PromotedNo  = "Não"
)

// Employee is one current or former staff member.
type Employee struct {
	ID         int64
	Name       string
	Age        int
	Gender     string
	Department string
	Title      string
	Seniority  string
	Salary     decimal.Decimal
	HiredAt    time.Time
	// TerminatedAt is nil for active employees; ExitReason is set iff it is not.
	TerminatedAt *time.Time
	ExitReason   string
	Performance  int
	Satisfaction int
	Overtime     int
	Promoted     bool
	// TenureYears runs from hire to termination, or to the reference date.
	TenureYears float64
}

// Active reports whether the employee has no termination date.
func (e Employee) Active() bool { return e.TerminatedAt == nil }

// Record encodes the employee as a row matching Columns.
func (e Employee) Record() []string {
	return []string{
		tabular.FormatInt(e.ID),
		e.Name,
		strconv.Itoa(e.Age),
		e.Gender,
		e.Department,
		e.Title,
		e.Seniority,
		tabular.FormatDate(e.HiredAt),
		tabular.FormatOptionalDate(e.TerminatedAt),
		e.ExitReason,
		tabular.FormatMoney(e.Salary),
		strconv.Itoa(e.Performance),
		strconv.Itoa(e.Satisfaction),
		strconv.Itoa(e.Overtime),
		FormatPromoted(e.Promoted),
		tabular.FormatFloat(e.TenureYears, 2),
	}
}

func FormatPromoted(v bool) string {
	if v {
		return PromotedYes
	}
	return PromotedNo
}

func ParsePromoted(s string) (bool, error) {
	switch s {
	case PromotedYes:
		return true, nil
	case PromotedNo:
		return false, nil
	}
	return false, fmt.Errorf("invalid promotion flag %q", s)
}
