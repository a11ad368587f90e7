package clinical

import (
	"errors"
	"fmt"
	"time"
)

// InsurerKind drives the billing multiplier applied to the base charge.
type InsurerKind string

const (
	InsurerSelfPay InsurerKind = "self_pay"
	InsurerPublic  InsurerKind = "public"
	InsurerPrivate InsurerKind = "private"
)

// EncounterType is a weighted encounter category. Only inpatient types carry
// a length of stay.
type EncounterType struct {
	Name      string  `yaml:"name"`
	Weight    float64 `yaml:"weight"`
	Inpatient bool    `yaml:"inpatient,omitempty"`
}

type Insurer struct {
	Name string      `yaml:"name"`
	Kind InsurerKind `yaml:"kind"`
}

// Dimensions holds the fixed lists and ranges the generator samples from.
// A Dimensions value is treated as immutable once handed to a Generator.
type Dimensions struct {
	Departments     []string        `yaml:"departments"`
	EncounterTypes  []EncounterType `yaml:"encounter_types"`
	Insurers        []Insurer       `yaml:"insurers"`
	PaymentStatuses []string        `yaml:"payment_statuses"`
	Start           time.Time       `yaml:"start"`
	End             time.Time       `yaml:"end"`
	MinCharge       float64         `yaml:"min_charge"`
	MaxCharge       float64         `yaml:"max_charge"`
	MinStayDays     int             `yaml:"min_stay_days"`
	MaxStayDays     int             `yaml:"max_stay_days"`
	MaxPatientAge   int             `yaml:"max_patient_age"`
}

// TypeInpatient is the default inpatient encounter label.
const TypeInpatient = "Internação"

// DefaultDimensions returns the Vida Plena hospital dimensions.
func DefaultDimensions() Dimensions {
	return Dimensions{
		Departments: []string{
			"Cardiologia", "Ortopedia", "Neurologia", "Pediatria",
			"Oncologia", "Clínica Geral", "Pronto-Socorro", "UTI",
		},
		EncounterTypes: []EncounterType{
			{Name: "Ambulatorial", Weight: 0.4},
			{Name: TypeInpatient, Weight: 0.2, Inpatient: true},
			{Name: "Emergência", Weight: 0.3},
			{Name: "Exame", Weight: 0.1},
		},
		Insurers: []Insurer{
			{Name: "SulAmérica", Kind: InsurerPrivate},
			{Name: "Bradesco Saúde", Kind: InsurerPrivate},
			{Name: "Amil", Kind: InsurerPrivate},
			{Name: "Unimed", Kind: InsurerPrivate},
			{Name: "CASSI", Kind: InsurerPrivate},
			{Name: "SUS", Kind: InsurerPublic},
			{Name: "Particular", Kind: InsurerSelfPay},
		},
		PaymentStatuses: []string{"Pago", "Pendente", "Atrasado", "Cancelado"},
		Start:           time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		MinCharge:       150,
		MaxCharge:       5000,
		MinStayDays:     1,
		MaxStayDays:     30,
		MaxPatientAge:   95,
	}
}

// Validate reports the first inconsistency in d.
func (d Dimensions) Validate() error {
	switch {
	case len(d.Departments) == 0:
		return errors.New("clinical: no departments")
	case len(d.EncounterTypes) == 0:
		return errors.New("clinical: no encounter types")
	case len(d.Insurers) == 0:
		return errors.New("clinical: no insurers")
	case len(d.PaymentStatuses) == 0:
		return errors.New("clinical: no payment statuses")
	case !d.End.After(d.Start):
		return fmt.Errorf("clinical: end %s is not after start %s", d.End.Format(time.DateOnly), d.Start.Format(time.DateOnly))
	case d.MinCharge <= 0 || d.MaxCharge < d.MinCharge:
		return fmt.Errorf("clinical: invalid charge range [%v, %v]", d.MinCharge, d.MaxCharge)
	case d.MinStayDays < 1 || d.MaxStayDays < d.MinStayDays:
		return fmt.Errorf("clinical: invalid stay range [%d, %d]", d.MinStayDays, d.MaxStayDays)
	case d.MaxPatientAge <= 0:
		return errors.New("clinical: max patient age must be positive")
	}
	var total float64
	for _, t := range d.EncounterTypes {
		if t.Weight < 0 {
			return fmt.Errorf("clinical: negative weight for %q", t.Name)
		}
		total += t.Weight
	}
	if total <= 0 {
		return errors.New("clinical: encounter type weights sum to zero")
	}
	for _, ins := range d.Insurers {
		switch ins.Kind {
		case InsurerSelfPay, InsurerPublic, InsurerPrivate:
		default:
			return fmt.Errorf("clinical: insurer %q has unknown kind %q", ins.Name, ins.Kind)
		}
	}
	return nil
}

func (d Dimensions) typeWeights() []float64 {
	w := make([]float64, len(d.EncounterTypes))
	for i, t := range d.EncounterTypes {
		w[i] = t.Weight
	}
	return w
}
