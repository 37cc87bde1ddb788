package models

// Product represents an inventory item.
type Product struct {
	ID          uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string  `json:"name" gorm:"uniqueIndex;type:varchar(100);not null"`
	Description string  `json:"description" gorm:"type:varchar(200)"`
	Price       float64 `json:"price"`
	Qty         int     `json:"qty"`
}

// TableName keeps the table named after the entity rather than gorm's plural.
func (Product) TableName() string {
	return "product"
}

// ProductList is the envelope used when returning several products.
type ProductList struct {
	Data []Product `json:"data"`
}
