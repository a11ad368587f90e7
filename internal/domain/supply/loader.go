package supply

import (
	"context"
	"fmt"
	"time"

	"github.com/vidaplena/analytics/internal/platform/tabular"
)

// Table is the column-oriented form of a purchase-orders file.
type Table struct {
	OrderID      []int64
	ItemID       []int64
	ItemName     *tabular.Category
	ItemCategory *tabular.Category
	SupplierID   []int64
	SupplierName *tabular.Category
	OrderedAt    []time.Time
	Quantity     []int
	UnitCost     []float64
	TotalCost    []float64
	Status       *tabular.Category
	ExpectedAt   []time.Time
	// DeliveredAt holds the zero time for pending orders.
	DeliveredAt []time.Time

	Skipped int
}

func newTable(capacity int) *Table {
	return &Table{
		OrderID:      make([]int64, 0, capacity),
		ItemID:       make([]int64, 0, capacity),
		ItemName:     tabular.NewCategory(capacity),
		ItemCategory: tabular.NewCategory(capacity),
		SupplierID:   make([]int64, 0, capacity),
		SupplierName: tabular.NewCategory(capacity),
		OrderedAt:    make([]time.Time, 0, capacity),
		Quantity:     make([]int, 0, capacity),
		UnitCost:     make([]float64, 0, capacity),
		TotalCost:    make([]float64, 0, capacity),
		Status:       tabular.NewCategory(capacity),
		ExpectedAt:   make([]time.Time, 0, capacity),
		DeliveredAt:  make([]time.Time, 0, capacity),
	}
}

func (t *Table) Len() int { return len(t.OrderID) }

// Delivered reports whether row i has an actual delivery date.
func (t *Table) Delivered(i int) bool { return !t.DeliveredAt[i].IsZero() }

func (t *Table) append(o Order) {
	t.OrderID = append(t.OrderID, o.ID)
	t.ItemID = append(t.ItemID, o.Item.ID)
	t.ItemName.Append(o.Item.Name)
	t.ItemCategory.Append(o.Item.Category)
	t.SupplierID = append(t.SupplierID, o.Supplier.ID)
	t.SupplierName.Append(o.Supplier.Name)
	t.OrderedAt = append(t.OrderedAt, o.OrderedAt)
	t.Quantity = append(t.Quantity, o.Quantity)
	t.UnitCost = append(t.UnitCost, o.UnitCost.InexactFloat64())
	t.TotalCost = append(t.TotalCost, o.TotalCost.InexactFloat64())
	t.Status.Append(o.Status)
	t.ExpectedAt = append(t.ExpectedAt, o.ExpectedAt)
	var delivered time.Time
	if o.DeliveredAt != nil {
		delivered = *o.DeliveredAt
	}
	t.DeliveredAt = append(t.DeliveredAt, delivered)
}

// Load reads a purchase-orders file. See clinical.Load for the error contract.
func Load(ctx context.Context, path string) (*Table, error) {
	t := newTable(1024)
	skipped, err := tabular.Scan(ctx, path, Columns, func(rec tabular.Record) error {
		o, err := ParseRecord(rec)
		if err != nil {
			return err
		}
		t.append(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.Skipped = skipped
	return t, nil
}

// ParseRecord decodes one purchase-orders row.
func ParseRecord(rec tabular.Record) (Order, error) {
	var (
		o   Order
		err error
	)
	if o.ID, err = tabular.ParseInt(rec.Get(ColOrderID)); err != nil {
		return o, fmt.Errorf("%s: %w", ColOrderID, err)
	}
	if o.Item.ID, err = tabular.ParseInt(rec.Get(ColItemID)); err != nil {
		return o, fmt.Errorf("%s: %w", ColItemID, err)
	}
	o.Item.Name = rec.Get(ColItemName)
	o.Item.Category = rec.Get(ColItemCategory)
	if o.Supplier.ID, err = tabular.ParseInt(rec.Get(ColSupplierID)); err != nil {
		return o, fmt.Errorf("%s: %w", ColSupplierID, err)
	}
	o.Supplier.Name = rec.Get(ColSupplierName)
	if o.OrderedAt, err = tabular.ParseTime(rec.Get(ColOrderedAt)); err != nil {
		return o, fmt.Errorf("%s: %w", ColOrderedAt, err)
	}
	qty, err := tabular.ParseInt(rec.Get(ColQuantity))
	if err != nil {
		return o, fmt.Errorf("%s: %w", ColQuantity, err)
	}
	o.Quantity = int(qty)
	if o.UnitCost, err = tabular.ParseDecimal(rec.Get(ColUnitCost)); err != nil {
		return o, fmt.Errorf("%s: %w", ColUnitCost, err)
	}
	if o.TotalCost, err = tabular.ParseDecimal(rec.Get(ColTotalCost)); err != nil {
		return o, fmt.Errorf("%s: %w", ColTotalCost, err)
	}
	o.Status = rec.Get(ColStatus)
	if o.ExpectedAt, err = tabular.ParseTime(rec.Get(ColExpectedAt)); err != nil {
		return o, fmt.Errorf("%s: %w", ColExpectedAt, err)
	}
	if o.DeliveredAt, err = tabular.ParseOptionalTime(rec.Get(ColDeliveredAt)); err != nil {
		return o, fmt.Errorf("%s: %w", ColDeliveredAt, err)
	}
	return o, nil
}
