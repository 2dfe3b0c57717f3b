package models

import (
	"time"

	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

// rows grouped under a parent id
type RelatedData interface {
	GetReferenceId() int
}

func (c Category) GetId() int {
	return c.ID
}

func (c Category) GetDefault(id int) Data {
	return Category{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (s Supplier) GetId() int {
	return s.ID
}

func (s Supplier) GetDefault(id int) Data {
	return Supplier{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (i Ingredient) GetId() int {
	return i.ID
}

func (i Ingredient) GetDefault(id int) Data {
	return Ingredient{
		ID:          id,
		CostPerUnit: decimal.Zero,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func (m MenuItem) GetId() int {
	return m.ID
}

func (m MenuItem) GetDefault(id int) Data {
	return MenuItem{
		ID:          id,
		Price:       decimal.Zero,
		MiscCost:    decimal.Zero,
		IsAvailable: utils.NewFalse(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func (u User) GetId() int {
	return u.ID
}

func (u User) GetDefault(id int) Data {
	return User{
		ID:        id,
		IsActive:  utils.NewFalse(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (d Discount) GetId() int {
	return d.ID
}

func (d Discount) GetDefault(id int) Data {
	return Discount{
		ID:           id,
		DiscountType: DiscountTypeAmount,
		IsActive:     utils.NewFalse(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func (r Recipe) GetReferenceId() int {
	return r.MenuItemId
}

func (i OrderItem) GetReferenceId() int {
	return i.OrderId
}
