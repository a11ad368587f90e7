package clinical

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidaplena/analytics/internal/platform/tabular"
)

// Column names of the encounters file, in file order.
const (
	ColEncounterID      = "atendimento_id"
	ColPatientID        = "paciente_id"
	ColPatientName      = "nome_paciente"
	ColPatientBirthDate = "data_nascimento_paciente"
	ColEncounterAt      = "data_atendimento"
	ColEncounterType    = "tipo_atendimento"
	ColDepartment       = "setor_atendimento"
	ColStayDays         = "dias_internacao"
	ColInsurer          = "convenio"
	ColBilled           = "valor_total_atendimento"
	ColPaymentStatus    = "status_pagamento"
)

// Columns is the header of the encounters file.
var Columns = []string{
	ColEncounterID, ColPatientID, ColPatientName, ColPatientBirthDate,
	ColEncounterAt, ColEncounterType, ColDepartment, ColStayDays,
	ColInsurer, ColBilled, ColPaymentStatus,
}

// PatientIDBase is the identifier of the first pooled patient.
const PatientIDBase = 1_000_000

// Patient is generated once per run and shared read-only by every batch.
type Patient struct {
	ID        int64
	Name      string
	BirthDate time.Time
}

// Encounter is one clinical event billed to an insurer.
type Encounter struct {
	ID            int64
	Patient       Patient
	At            time.Time
	Type          string
	Department    string
	StayDays      int
	Insurer       string
	Billed        decimal.Decimal
	PaymentStatus string
}

// Record encodes the encounter as a row matching Columns.
func (e Encounter) Record() []string {
	return []string{
		tabular.FormatInt(e.ID),
		tabular.FormatInt(e.Patient.ID),
		e.Patient.Name,
		tabular.FormatDate(e.Patient.BirthDate),
		tabular.FormatTimestamp(e.At),
		e.Type,
		e.Department,
		strconv.Itoa(e.StayDays),
		e.Insurer,
		tabular.FormatMoney(e.Billed),
		e.PaymentStatus,
	}
}
