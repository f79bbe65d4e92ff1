package enums

// ProductStockStatus is the catalog visibility flag kept on each product.
type ProductStockStatus int16

const (
	ProductStockOut          ProductStockStatus = 0
	ProductStockIn           ProductStockStatus = 1
	ProductStockDiscontinued ProductStockStatus = 2
)

// ListedProductStockStatuses are the statuses shown in the public catalog.
var ListedProductStockStatuses = []ProductStockStatus{ProductStockOut, ProductStockIn}

// IsListed reports whether products with this status appear in listings.
func (s ProductStockStatus) IsListed() bool {
	for _, candidate := range ListedProductStockStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
