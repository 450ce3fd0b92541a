package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null"  json:"username"`
	PasswordHash string    `gorm:"not null"                      json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false"        json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"index;not null"           json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"       json:"id"`
	Name        string    `gorm:"index;not null"                 json:"name"`
	Description string    `gorm:"not null"                       json:"description"`
	Price       float64   `gorm:"not null;check:price >= 0"      json:"price"`
	ImageURL    *string   `json:"image_url"`
	CategoryID  uint      `gorm:"index;not null"                 json:"category_id"`
	Stock       int       `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
}

// CartItem is unique per (user, product); adds merge into the existing row.
type CartItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                         json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product,priority:1" json:"-"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product,priority:2" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0"                      json:"quantity"`
	CreatedAt time.Time `json:"-"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
}
