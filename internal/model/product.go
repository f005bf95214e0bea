package model

import (
	"time"

	"gorm.io/gorm"
)

// Product is the authoritative database row for a single 3D printed product.
// FolderPath points at the product's directory in the filesystem mirror.
// Monetary amounts (UnitCost, SellingPrice) are integer cents; Weight is grams.
type Product struct {
	ID            uint           `json:"id" gorm:"primarykey"`
	Name          string         `json:"name" gorm:"type:varchar(255);not null;index"`
	Description   string         `json:"description" gorm:"type:text"`
	SKU           string         `json:"sku" gorm:"type:varchar(100);uniqueIndex;not null"`
	CategoryID    *uint          `json:"category_id"`
	Category      *Category      `json:"category,omitempty"`
	Tags          []Tag          `json:"tags" gorm:"many2many:product_tags;"`
	Materials     []Material     `json:"materials" gorm:"many2many:product_materials;"`
	Production    bool           `json:"production" gorm:"default:false"`
	Active        bool           `json:"active" gorm:"default:true"`
	Color         *string        `json:"color" gorm:"type:varchar(100)"`
	PrintTime     *string        `json:"print_time" gorm:"type:varchar(20)"`
	Weight        *int           `json:"weight"`
	Rating        int            `json:"rating" gorm:"default:0"`
	FolderPath    string         `json:"folder_path" gorm:"type:text"`
	StockQuantity int            `json:"stock_quantity" gorm:"default:0"`
	ReorderPoint  int            `json:"reorder_point" gorm:"default:0"`
	UnitCost      *int           `json:"unit_cost"`
	SellingPrice  *int           `json:"selling_price"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Category groups products and supplies the three letter SKU prefix.
type Category struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	SKUInitials string    `json:"sku_initials" gorm:"column:sku_initials;type:varchar(3);not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tag is a label attached to products. Names are stored in canonical slug
// form (lowercase, hyphen separated) and looked up case-insensitively.
type Tag struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Name      string    `json:"name" gorm:"type:varchar(50);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

// Material is a print material (PLA, PETG, resin) attached to products.
type Material struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}
