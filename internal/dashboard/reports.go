// Package dashboard computes the hospital KPI reports from loaded dataset
// tables and serves them over HTTP.
package dashboard

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/vidaplena/analytics/internal/domain/clinical"
	"github.com/vidaplena/analytics/internal/domain/hr"
	"github.com/vidaplena/analytics/internal/domain/supply"
	"github.com/vidaplena/analytics/internal/platform/tabular"
)

// AllDepartments is the people filter value that selects every department.
const AllDepartments = "Todos"

// ReportDefinition describes one report exposed by the API.
type ReportDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Dataset     string   `json:"dataset"`
	Parameters  []string `json:"parameters"`
}

// PredefinedReports is the list of available reports.
var PredefinedReports = []ReportDefinition{
	{
		ID:          "overview",
		Name:        "Visão Geral",
		Description: "Encounter volume, unique patients, billing totals and distribution by department and encounter type",
		Dataset:     "clinical",
		Parameters:  []string{},
	},
	{
		ID:          "financial",
		Name:        "Análise Financeira",
		Description: "Billing and average ticket for a selection of insurers, with billing per insurer",
		Dataset:     "clinical",
		Parameters:  []string{"insurer"},
	},
	{
		ID:          "supply-chain",
		Name:        "Supply Chain",
		Description: "Acquisition cost, late deliveries and cost by supplier, item category and month",
		Dataset:     "supply",
		Parameters:  []string{},
	},
	{
		ID:          "people",
		Name:        "People Analytics",
		Description: "Headcount, turnover, exit reasons, age and performance distribution, salary by department",
		Dataset:     "hr",
		Parameters:  []string{"department"},
	},
}

// FindReport returns the report with the given id, or nil.
func FindReport(id string) *ReportDefinition {
	for i := range PredefinedReports {
		if PredefinedReports[i].ID == id {
			return &PredefinedReports[i]
		}
	}
	return nil
}

// Slice is one segment of a count distribution.
type Slice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Bar is one labelled amount.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Point is one period of a time series, labelled by the last day of the period.
type Point struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// Bin is a histogram bucket covering [Lower, Upper).
type Bin struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
	Count int `json:"count"`
}

type OverviewReport struct {
	TotalEncounters int     `json:"total_encounters"`
	UniquePatients  int     `json:"unique_patients"`
	TotalBilled     float64 `json:"total_billed"`
	AverageTicket   float64 `json:"average_ticket"`
	ByDepartment    []Slice `json:"by_department"`
	ByType          []Slice `json:"by_type"`
}

// Overview summarises every encounter.
func Overview(t *clinical.Table) OverviewReport {
	r := OverviewReport{TotalEncounters: t.Len()}
	patients := make(map[int64]struct{}, t.Len()/4)
	var billed float64
	for i := 0; i < t.Len(); i++ {
		patients[t.PatientID[i]] = struct{}{}
		billed += t.Billed[i]
	}
	r.UniquePatients = len(patients)
	r.TotalBilled = round2(billed)
	r.AverageTicket = round2(mean(billed, t.Len()))
	r.ByDepartment = valueCounts(t.Department)
	r.ByType = valueCounts(t.Type)
	return r
}

type FinancialReport struct {
	// Insurers is the effective selection; Available lists every insurer present.
	Insurers      []string `json:"insurers"`
	Available     []string `json:"available"`
	Encounters    int      `json:"encounters"`
	TotalBilled   float64  `json:"total_billed"`
	AverageTicket float64  `json:"average_ticket"`
	ByInsurer     []Bar    `json:"by_insurer"`
	Empty         bool     `json:"empty"`
	Warning       string   `json:"warning,omitempty"`
}

// Financial restricts encounters to the given insurers. An empty selection
// means every insurer.
func Financial(t *clinical.Table, insurers []string) FinancialReport {
	available := slices.Clone(t.Insurer.Levels())
	slices.Sort(available)
	if len(insurers) == 0 {
		insurers = available
	}
	r := FinancialReport{Insurers: insurers, Available: available}

	selected := codeSet(t.Insurer, insurers)
	sums := make([]float64, t.Insurer.NumLevels())
	hit := make([]bool, t.Insurer.NumLevels())
	var billed float64
	for i := 0; i < t.Len(); i++ {
		code := t.Insurer.Code(i)
		if !selected[code] {
			continue
		}
		r.Encounters++
		billed += t.Billed[i]
		sums[code] += t.Billed[i]
		hit[code] = true
	}
	if r.Encounters == 0 {
		r.Empty = true
		r.Warning = "Nenhum dado encontrado para os filtros selecionados."
		r.ByInsurer = []Bar{}
		return r
	}
	r.TotalBilled = round2(billed)
	r.AverageTicket = round2(mean(billed, r.Encounters))
	r.ByInsurer = sumBars(t.Insurer, sums, hit)
	return r
}

type SupplyChainReport struct {
	Orders     int     `json:"orders"`
	TotalCost  float64 `json:"total_cost"`
	LateOrders int     `json:"late_orders"`
	LateRate   float64 `json:"late_rate"`
	BySupplier []Bar   `json:"by_supplier"`
	ByCategory []Bar   `json:"by_category"`
	Monthly    []Point `json:"monthly"`
}

// SupplyChain summarises purchase orders. lateStatuses names the delivery
// statuses counted as late.
func SupplyChain(t *supply.Table, lateStatuses []string) SupplyChainReport {
	r := SupplyChainReport{Orders: t.Len(), Monthly: []Point{}}
	late := codeSet(t.Status, lateStatuses)
	bySupplier := make([]float64, t.SupplierName.NumLevels())
	byCategory := make([]float64, t.ItemCategory.NumLevels())
	supplierHit := make([]bool, len(bySupplier))
	categoryHit := make([]bool, len(byCategory))

	var total float64
	monthly := make(map[int]float64)
	first, last := math.MaxInt, math.MinInt
	for i := 0; i < t.Len(); i++ {
		cost := t.TotalCost[i]
		total += cost
		if late[t.Status.Code(i)] {
			r.LateOrders++
		}
		s, c := t.SupplierName.Code(i), t.ItemCategory.Code(i)
		bySupplier[s] += cost
		byCategory[c] += cost
		supplierHit[s], categoryHit[c] = true, true

		m := monthIndex(t.OrderedAt[i])
		monthly[m] += cost
		first, last = min(first, m), max(last, m)
	}
	r.TotalCost = round2(total)
	if r.Orders > 0 {
		r.LateRate = round2(float64(r.LateOrders) / float64(r.Orders) * 100)
		for m := first; m <= last; m++ {
			r.Monthly = append(r.Monthly, Point{Period: monthEnd(m), Value: round2(monthly[m])})
		}
	}
	r.BySupplier = sumBars(t.SupplierName, bySupplier, supplierHit)
	r.ByCategory = sumBars(t.ItemCategory, byCategory, categoryHit)
	return r
}

type PeopleReport struct {
	Department           string   `json:"department"`
	Departments          []string `json:"departments"`
	Headcount            int      `json:"headcount"`
	Active               int      `json:"active"`
	Exits                int      `json:"exits"`
	TurnoverRate         float64  `json:"turnover_rate"`
	AverageAge           float64  `json:"average_age"`
	AverageSatisfaction  float64  `json:"average_satisfaction"`
	ExitsByReason        []Slice  `json:"exits_by_reason"`
	AgeHistogram         []Bin    `json:"age_histogram"`
	SalaryByDepartment   []Bar    `json:"salary_by_department"`
	PerformanceHistogram []Bin    `json:"performance_histogram"`
	Empty                bool     `json:"empty"`
}

// People summarises employees of one department, or of all departments when
// department is "" or AllDepartments. Salary by department always covers the
// whole table.
func People(t *hr.Table, department string) PeopleReport {
	if department == "" {
		department = AllDepartments
	}
	r := PeopleReport{Department: department}
	r.Departments = append([]string{AllDepartments}, t.Department.Levels()...)

	keep := func(int) bool { return true }
	if department != AllDepartments {
		code, ok := t.Department.LevelCode(department)
		if !ok {
			code = -1
		}
		keep = func(i int) bool { return t.Department.Code(i) == code }
	}

	var ages, performance []int
	var ageSum, satisfactionSum float64
	reasons := tabular.NewCategory(0)
	for i := 0; i < t.Len(); i++ {
		if !keep(i) {
			continue
		}
		r.Headcount++
		if t.Terminated(i) {
			r.Exits++
			reasons.Append(t.ExitReason.Value(i))
		}
		ages = append(ages, t.Age[i])
		performance = append(performance, t.Performance[i])
		ageSum += float64(t.Age[i])
		satisfactionSum += float64(t.Satisfaction[i])
	}
	r.Active = r.Headcount - r.Exits
	r.Empty = r.Headcount == 0
	if !r.Empty {
		r.TurnoverRate = round1(float64(r.Exits) / float64(r.Headcount) * 100)
		r.AverageAge = round1(ageSum / float64(r.Headcount))
		r.AverageSatisfaction = round2(satisfactionSum / float64(r.Headcount))
	}
	r.ExitsByReason = valueCounts(reasons)
	r.AgeHistogram = histogram(ages, 5)
	r.PerformanceHistogram = histogram(performance, 1)

	salaries := make([]float64, t.Department.NumLevels())
	counts := make([]int, t.Department.NumLevels())
	for i := 0; i < t.Len(); i++ {
		salaries[t.Department.Code(i)] += t.Salary[i]
		counts[t.Department.Code(i)]++
	}
	r.SalaryByDepartment = make([]Bar, 0, len(salaries))
	for code, sum := range salaries {
		if counts[code] > 0 {
			r.SalaryByDepartment = append(r.SalaryByDepartment, Bar{Label: t.Department.Level(code), Value: round2(sum / float64(counts[code]))})
		}
	}
	sortBars(r.SalaryByDepartment)
	return r
}

// valueCounts counts rows per level, most frequent first.
func valueCounts(c *tabular.Category) []Slice {
	counts := c.Counts()
	out := make([]Slice, 0, len(counts))
	for code, n := range counts {
		if n > 0 {
			out = append(out, Slice{Label: c.Level(code), Count: n})
		}
	}
	slices.SortStableFunc(out, func(a, b Slice) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// sumBars turns per-level sums into bars sorted ascending by value.
func sumBars(c *tabular.Category, sums []float64, hit []bool) []Bar {
	out := make([]Bar, 0, len(sums))
	for code, v := range sums {
		if hit[code] {
			out = append(out, Bar{Label: c.Level(code), Value: round2(v)})
		}
	}
	sortBars(out)
	return out
}

func sortBars(bars []Bar) {
	slices.SortStableFunc(bars, func(a, b Bar) int {
		if a.Value != b.Value {
			return cmp.Compare(a.Value, b.Value)
		}
		return cmp.Compare(a.Label, b.Label)
	})
}

func codeSet(c *tabular.Category, values []string) []bool {
	set := make([]bool, c.NumLevels())
	for _, v := range values {
		if code, ok := c.LevelCode(v); ok {
			set[code] = true
		}
	}
	return set
}

// histogram buckets values into width-wide bins aligned on multiples of width.
func histogram(values []int, width int) []Bin {
	if len(values) == 0 {
		return []Bin{}
	}
	lo, hi := slices.Min(values), slices.Max(values)
	start := floorTo(lo, width)
	bins := make([]Bin, (floorTo(hi, width)-start)/width+1)
	for i := range bins {
		bins[i].Lower = start + i*width
		bins[i].Upper = bins[i].Lower + width
	}
	for _, v := range values {
		bins[(floorTo(v, width)-start)/width].Count++
	}
	return bins
}

func floorTo(v, width int) int {
	if v < 0 {
		return -((-v + width - 1) / width) * width
	}
	return v / width * width
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func monthEnd(index int) string {
	year, month := index/12, time.Month(index%12+1)
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Format(tabular.DateLayout)
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
