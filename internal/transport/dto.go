package transport

import (
	"strings"

	"github.com/Skotchmaster/shirin_shop/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,password"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// Apply copies the writable fields onto cat. Identity and timestamps are untouched.
func (in CategoryInput) Apply(cat *models.Category) {
	cat.Name = strings.TrimSpace(in.Name)
	cat.Description = in.Description
}

type ProductInput struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description" validate:"max=5000"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,max=2048"`
	CategoryID  uint     `json:"category_id" validate:"required"`
	Stock       int      `json:"stock" validate:"gte=0"`
}

func (in ProductInput) Apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	if in.Price != nil {
		p.Price = *in.Price
	}
	p.ImageURL = in.ImageURL
	p.CategoryID = in.CategoryID
	p.Stock = in.Stock
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity"`
}
