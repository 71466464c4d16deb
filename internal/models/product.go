package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             string          `bson:"_id" db:"id" json:"id"`
	Name           string          `bson:"name" db:"name" json:"name"`
	Category       string          `bson:"category" db:"category" json:"category"`
	Price          decimal.Decimal `bson:"price" db:"price" json:"price"`
	Description    string          `bson:"description" db:"description" json:"description"`
	Images         StringList      `bson:"images" db:"images" json:"images"`
	Specifications Specifications  `bson:"specifications" db:"specifications" json:"specifications"`
	BoxContents    StringList      `bson:"boxContents" db:"box_contents" json:"boxContents"`
	InStock        bool            `bson:"inStock" db:"in_stock" json:"inStock"`
	ProductCode    *string         `bson:"productCode,omitempty" db:"product_code" json:"productCode,omitempty"`
	CreatedAt      time.Time       `bson:"createdAt" db:"created_at" json:"createdAt"`
}

// MainImage returns the first image reference, or "" when the product has none.
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p Product) Code() string {
	if p.ProductCode == nil {
		return ""
	}
	return *p.ProductCode
}
