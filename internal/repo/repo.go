package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shirin_shop/internal/models"
)

var (
	ErrUserAlreadyExist = errors.New("user already exist")
	ErrCategoryMissing  = errors.New("category does not exist")
	ErrCategoryInUse    = errors.New("category has products")
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
	)
}
