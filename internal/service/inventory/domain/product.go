package domain

// Product 是商品目录中的只读视图，下单时用来校验上架状态和取价。
type Product struct {
	ProductID   string
	SKU         string
	Name        string
	Description string
	Price       float64
	Currency    string
	Active      bool
}
