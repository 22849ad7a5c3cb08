package infrastructure

import "fulfillment/internal/service/inventory/domain"

// ToDomainInventory 将数据库模型转换为领域模型
func ToDomainInventory(model *InventoryModel) *domain.Inventory {
	if model == nil {
		return nil
	}
	return &domain.Inventory{
		ProductID:   model.ProductID,
		StockQty:    model.StockQty,
		ReservedQty: model.ReservedQty,
		UpdatedAt:   model.UpdatedAt,
	}
}

// ToDomainProduct 将数据库模型转换为领域模型
func ToDomainProduct(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}
	return &domain.Product{
		ProductID:   model.ProductID,
		SKU:         model.SKU,
		Name:        model.Name,
		Description: model.Description,
		Price:       model.Price,
		Currency:    model.Currency,
		Active:      model.Active,
	}
}
