package enums

// ProductSort enumerates the catalog sort orders exposed to the web app.
type ProductSort string

const (
	ProductSortBestSelling ProductSort = "best-selling"
	ProductSortPriceAsc    ProductSort = "price-low-to-high"
	ProductSortPriceDesc   ProductSort = "price-high-to-low"
	ProductSortRating      ProductSort = "avg-customer-review"
	ProductSortNewest      ProductSort = "newest-arrivals"
)

// IsValid reports whether the value is a known ProductSort.
func (p ProductSort) IsValid() bool {
	switch p {
	case ProductSortBestSelling, ProductSortPriceAsc, ProductSortPriceDesc, ProductSortRating, ProductSortNewest:
		return true
	}
	return false
}
