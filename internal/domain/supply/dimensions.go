package supply

import (
	"errors"
	"fmt"
	"time"
)

// Outcome is what a delivery status means for the actual delivery date.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomePending   Outcome = "pending"
	OutcomeLate      Outcome = "late"
)

// Default status labels.
const (
	StatusDelivered = "Entregue"
	StatusPending   = "Pendente"
	StatusLate      = "Atrasado"
)

type Item struct {
	ID       int64   `yaml:"id"`
	Name     string  `yaml:"name"`
	Category string  `yaml:"category"`
	BaseCost float64 `yaml:"base_cost"`
}

type Supplier struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// DeliveryStatus is a weighted status label bound to an outcome.
type DeliveryStatus struct {
	Name    string  `yaml:"name"`
	Weight  float64 `yaml:"weight"`
	Outcome Outcome `yaml:"outcome"`
}

// DayRange is an inclusive range of whole days.
type DayRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Dimensions holds the catalog and ranges the order generator samples from.
type Dimensions struct {
	Items       []Item           `yaml:"items"`
	Suppliers   []Supplier       `yaml:"suppliers"`
	Statuses    []DeliveryStatus `yaml:"statuses"`
	Start       time.Time        `yaml:"start"`
	End         time.Time        `yaml:"end"`
	MinQuantity int              `yaml:"min_quantity"`
	MaxQuantity int              `yaml:"max_quantity"`
	// CostJitter bounds the unit cost to base × [1-CostJitter, 1+CostJitter].
	CostJitter float64  `yaml:"cost_jitter"`
	LeadTime   DayRange `yaml:"lead_time"`
	Early      DayRange `yaml:"early"`
	Delay      DayRange `yaml:"delay"`
}

// DefaultDimensions returns the Vida Plena supplier and item catalog.
func DefaultDimensions() Dimensions {
	return Dimensions{
		Items: []Item{
			{ID: 2001, Name: "Paracetamol 500mg (cx c/ 20)", Category: "Medicamento", BaseCost: 15.50},
			{ID: 2002, Name: "Luvas Cirúrgicas Estéreis (par)", Category: "Material Cirúrgico", BaseCost: 2.50},
			{ID: 2003, Name: "Seringa Descartável 10ml", Category: "Material Cirúrgico", BaseCost: 0.80},
			{ID: 2004, Name: "Máscara N95", Category: "EPI", BaseCost: 3.20},
			{ID: 2005, Name: "Álcool em Gel 70% (1L)", Category: "Material de Limpeza", BaseCost: 12.00},
			{ID: 2006, Name: "Amoxicilina 250mg", Category: "Medicamento", BaseCost: 45.00},
			{ID: 2007, Name: "Gaze Estéril (pacote c/ 100)", Category: "Material Cirúrgico", BaseCost: 25.00},
		},
		Suppliers: []Supplier{
			{ID: 101, Name: "MedSupply Brasil"},
			{ID: 102, Name: "FarmaLog Distribuidora"},
			{ID: 103, Name: "Cirúrgica Atlas"},
			{ID: 104, Name: "CleanHealth Insumos"},
		},
		Statuses: []DeliveryStatus{
			{Name: StatusDelivered, Weight: 0.85, Outcome: OutcomeDelivered},
			{Name: StatusPending, Weight: 0.05, Outcome: OutcomePending},
			{Name: StatusLate, Weight: 0.10, Outcome: OutcomeLate},
		},
		Start:       time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		MinQuantity: 10,
		MaxQuantity: 500,
		CostJitter:  0.05,
		LeadTime:    DayRange{Min: 7, Max: 20},
		Early:       DayRange{Min: 0, Max: 3},
		Delay:       DayRange{Min: 1, Max: 10},
	}
}

// Validate reports the first inconsistency in d.
func (d Dimensions) Validate() error {
	switch {
	case len(d.Items) == 0:
		return errors.New("supply: no items")
	case len(d.Suppliers) == 0:
		return errors.New("supply: no suppliers")
	case len(d.Statuses) == 0:
		return errors.New("supply: no delivery statuses")
	case !d.End.After(d.Start):
		return fmt.Errorf("supply: end %s is not after start %s", d.End.Format(time.DateOnly), d.Start.Format(time.DateOnly))
	case d.MinQuantity < 1 || d.MaxQuantity < d.MinQuantity:
		return fmt.Errorf("supply: invalid quantity range [%d, %d]", d.MinQuantity, d.MaxQuantity)
	case d.CostJitter < 0 || d.CostJitter >= 1:
		return fmt.Errorf("supply: cost jitter %v outside [0, 1)", d.CostJitter)
	case d.LeadTime.Min < 0 || d.LeadTime.Max < d.LeadTime.Min:
		return fmt.Errorf("supply: invalid lead time [%d, %d]", d.LeadTime.Min, d.LeadTime.Max)
	case d.Early.Min < 0 || d.Early.Max < d.Early.Min:
		return fmt.Errorf("supply: invalid early range [%d, %d]", d.Early.Min, d.Early.Max)
	case d.Delay.Min < 1 || d.Delay.Max < d.Delay.Min:
		return fmt.Errorf("supply: invalid delay range [%d, %d]", d.Delay.Min, d.Delay.Max)
	}
	var total float64
	for _, s := range d.Statuses {
		if s.Weight < 0 {
			return fmt.Errorf("supply: negative weight for %q", s.Name)
		}
		switch s.Outcome {
		case OutcomeDelivered, OutcomePending, OutcomeLate:
		default:
			return fmt.Errorf("supply: status %q has unknown outcome %q", s.Name, s.Outcome)
		}
		total += s.Weight
	}
	if total <= 0 {
		return errors.New("supply: status weights sum to zero")
	}
	for _, it := range d.Items {
		if it.BaseCost <= 0 {
			return fmt.Errorf("supply: item %d has non-positive base cost", it.ID)
		}
	}
	return nil
}

// LateStatuses returns the labels whose outcome is late.
func (d Dimensions) LateStatuses() []string {
	var out []string
	for _, s := range d.Statuses {
		if s.Outcome == OutcomeLate {
			out = append(out, s.Name)
		}
	}
	return out
}

func (d Dimensions) statusWeights() []float64 {
	w := make([]float64, len(d.Statuses))
	for i, s := range d.Statuses {
		w[i] = s.Weight
	}
	return w
}
