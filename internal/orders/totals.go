package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderledger-backend/pkg/db/models"
)

var one = decimal.NewFromInt(1)

// LineTotal is quantity x unit price, raised by the IPI rate when the item
// is taxable.
func LineTotal(item models.OrderItem, ipiTax decimal.Decimal) decimal.Decimal {
	line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	if item.IPIApplicable {
		line = line.Mul(one.Add(ipiTax))
	}
	return line
}

// ComputeTotal sums every line of the order, rounded to cents. An order
// without items totals zero.
func ComputeTotal(items []models.OrderItem, ipiTax decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item, ipiTax))
	}
	return total.Round(2)
}
