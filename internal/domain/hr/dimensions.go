package hr

import (
	"errors"
	"fmt"
	"time"
)

type Department struct {
	Name   string   `yaml:"name"`
	Titles []string `yaml:"titles"`
}

// SeniorityBand maps titles containing any keyword to a level and salary
// range. Bands are matched in order; a band without keywords matches every
// title and must come last.
type SeniorityBand struct {
	Level     string   `yaml:"level"`
	Keywords  []string `yaml:"keywords,omitempty"`
	MinSalary float64  `yaml:"min_salary"`
	MaxSalary float64  `yaml:"max_salary"`
}

type ExitReason struct {
	Name string `yaml:"name"`
	// Dissatisfied reasons force a low satisfaction score.
	Dissatisfied bool `yaml:"dissatisfied,omitempty"`
}

// Dimensions holds the organisation chart, bands and tuning knobs the
// employee generator samples from.
type Dimensions struct {
	Departments []Department    `yaml:"departments"`
	Bands       []SeniorityBand `yaml:"bands"`
	ExitReasons []ExitReason    `yaml:"exit_reasons"`
	Genders     []string        `yaml:"genders"`
	HireStart   time.Time       `yaml:"hire_start"`
	Reference   time.Time       `yaml:"reference"`
	MinAge      int             `yaml:"min_age"`
	MaxAge      int             `yaml:"max_age"`
	// MinServiceDays is the shortest time between hire and termination.
	MinServiceDays int `yaml:"min_service_days"`
	// Turnover probability is BaseTurnover + EarlyTurnover/(1+tenure).
	BaseTurnover  float64 `yaml:"base_turnover"`
	EarlyTurnover float64 `yaml:"early_turnover"`
	// PerformanceOffsets is subtracted from satisfaction; repeat a value to weight it.
	PerformanceOffsets []int   `yaml:"performance_offsets"`
	MaxDissatisfied    int     `yaml:"max_dissatisfied"`
	MaxOvertime        int     `yaml:"max_overtime"`
	PromotionRate      float64 `yaml:"promotion_rate"`
	PromotionMinScore  int     `yaml:"promotion_min_score"`
	PromotionMinTenure float64 `yaml:"promotion_min_tenure"`
}

// Score bounds for performance and satisfaction.
const (
	MinScore = 1
	MaxScore = 5
)

// DefaultReference is the "today" the HR dataset is generated against.
var DefaultReference = time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC)

// DefaultDimensions returns the People Analytics organisation.
func DefaultDimensions() Dimensions {
	return Dimensions{
		Departments: []Department{
			{Name: "Vendas", Titles: []string{"Representante de Vendas", "Gerente de Contas", "Diretor de Vendas"}},
			{Name: "Tecnologia", Titles: []string{"Desenvolvedor Júnior", "Desenvolvedor Pleno", "Desenvolvedor Sénior", "Arquiteto de Software"}},
			{Name: "Marketing", Titles: []string{"Analista de Marketing", "Especialista em SEO", "Gerente de Marketing"}},
			{Name: "Recursos Humanos", Titles: []string{"Analista de RH", "Business Partner", "Gerente de RH"}},
			{Name: "Financeiro", Titles: []string{"Analista Financeiro", "Contabilista", "Controller"}},
			{Name: "Operações", Titles: []string{"Analista de Logística", "Coordenador de Operações", "Gerente de Operações"}},
		},
		Bands: []SeniorityBand{
			{Level: "Júnior", Keywords: []string{"Júnior", "Representante", "Analista"}, MinSalary: 2500, MaxSalary: 4500},
			{Level: "Pleno", Keywords: []string{"Pleno", "Especialista", "Contabilista"}, MinSalary: 4500, MaxSalary: 7500},
			{Level: "Sénior", Keywords: []string{"Sénior", "Coordenador"}, MinSalary: 7500, MaxSalary: 12000},
			{Level: "Liderança", MinSalary: 12000, MaxSalary: 25000},
		},
		ExitReasons: []ExitReason{
			{Name: "Voluntário - Outra Oportunidade"},
			{Name: "Voluntário - Insatisfação", Dissatisfied: true},
			{Name: "Involuntário - Performance"},
			{Name: "Involuntário - Reestruturação"},
		},
		Genders:            []string{"Masculino", "Feminino"},
		HireStart:          time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Reference:          DefaultReference,
		MinAge:             18,
		MaxAge:             65,
		MinServiceDays:     180,
		BaseTurnover:       0.05,
		EarlyTurnover:      0.30,
		PerformanceOffsets: []int{-1, 0, 0, 1},
		MaxDissatisfied:    2,
		MaxOvertime:        40,
		PromotionRate:      0.3,
		PromotionMinScore:  4,
		PromotionMinTenure: 1.5,
	}
}

// Validate reports the first inconsistency in d.
func (d Dimensions) Validate() error {
	switch {
	case len(d.Departments) == 0:
		return errors.New("hr: no departments")
	case len(d.Bands) == 0:
		return errors.New("hr: no seniority bands")
	case len(d.Bands[len(d.Bands)-1].Keywords) != 0:
		return errors.New("hr: last seniority band must be a keyword-free fallback")
	case len(d.ExitReasons) == 0:
		return errors.New("hr: no exit reasons")
	case len(d.Genders) == 0:
		return errors.New("hr: no genders")
	case !d.Reference.After(d.HireStart):
		return fmt.Errorf("hr: reference %s is not after hire start %s", d.Reference.Format(time.DateOnly), d.HireStart.Format(time.DateOnly))
	case d.MinAge <= 0 || d.MaxAge < d.MinAge:
		return fmt.Errorf("hr: invalid age range [%d, %d]", d.MinAge, d.MaxAge)
	case d.MinServiceDays < 0:
		return errors.New("hr: negative minimum service")
	case d.BaseTurnover < 0 || d.EarlyTurnover < 0 || d.BaseTurnover+d.EarlyTurnover > 1:
		return fmt.Errorf("hr: turnover %v + %v is not a probability", d.BaseTurnover, d.EarlyTurnover)
	case len(d.PerformanceOffsets) == 0:
		return errors.New("hr: no performance offsets")
	case d.MaxDissatisfied < MinScore || d.MaxDissatisfied > MaxScore:
		return fmt.Errorf("hr: max dissatisfied score %d outside [%d, %d]", d.MaxDissatisfied, MinScore, MaxScore)
	case d.MaxOvertime < 0:
		return errors.New("hr: negative overtime")
	case d.PromotionRate < 0 || d.PromotionRate > 1:
		return fmt.Errorf("hr: promotion rate %v is not a probability", d.PromotionRate)
	}
	for _, dep := range d.Departments {
		if len(dep.Titles) == 0 {
			return fmt.Errorf("hr: department %q has no titles", dep.Name)
		}
	}
	for _, b := range d.Bands {
		if b.MinSalary <= 0 || b.MaxSalary < b.MinSalary {
			return fmt.Errorf("hr: band %q has invalid salary range [%v, %v]", b.Level, b.MinSalary, b.MaxSalary)
		}
	}
	return nil
}

// DepartmentNames returns the department labels in catalog order.
func (d Dimensions) DepartmentNames() []string {
	out := make([]string, len(d.Departments))
	for i, dep := range d.Departments {
		out[i] = dep.Name
	}
	return out
}
