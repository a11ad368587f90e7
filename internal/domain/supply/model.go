package supply

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidaplena/analytics/internal/platform/tabular"
)

// Column names of the purchase-orders file, in file order.
const (
	ColOrderID      = "pedido_id"
	ColItemID       = "item_id"
	ColItemName     = "nome_item"
	ColItemCategory = "categoria_item"
	ColSupplierID   = "fornecedor_id"
	ColSupplierName = "nome_fornecedor"
	ColOrderedAt    = "data_pedido"
	ColQuantity     = "quantidade_pedida"
	ColUnitCost     = "custo_unitario"
	ColTotalCost    = "custo_total_pedido"
	ColStatus       = "status_entrega"
	ColExpectedAt   = "data_entrega_prevista"
	ColDeliveredAt  = "data_entrega_real"
)

// Columns is the header of the purchase-orders file.
var Columns = []string{
	ColOrderID, ColItemID, ColItemName, ColItemCategory, ColSupplierID,
	ColSupplierName, ColOrderedAt, ColQuantity, ColUnitCost, ColTotalCost,
	ColStatus, ColExpectedAt, ColDeliveredAt,
}

// OrderIDBase is the identifier of the first order.
const OrderIDBase = 500_000

// Order is one purchase order placed with a supplier.
type Order struct {
	ID         int64
	Item       Item
	Supplier   Supplier
	OrderedAt  time.Time
	Quantity   int
	UnitCost   decimal.Decimal
	TotalCost  decimal.Decimal
	Status     string
	ExpectedAt time.Time
	// DeliveredAt is nil while the order is pending.
	DeliveredAt *time.Time
}

// Record encodes the order as a row matching Columns.
func (o Order) Record() []string {
	return []string{
		tabular.FormatInt(o.ID),
		tabular.FormatInt(o.Item.ID),
		o.Item.Name,
		o.Item.Category,
		tabular.FormatInt(o.Supplier.ID),
		o.Supplier.Name,
		tabular.FormatTimestamp(o.OrderedAt),
		strconv.Itoa(o.Quantity),
		tabular.FormatMoney(o.UnitCost),
		tabular.FormatMoney(o.TotalCost),
		o.Status,
		tabular.FormatTimestamp(o.ExpectedAt),
		tabular.FormatOptionalTimestamp(o.DeliveredAt),
	}
}
