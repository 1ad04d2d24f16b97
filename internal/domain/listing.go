package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("listing not found")
	ErrPersistence    = errors.New("persistence failure")
	ErrInvalidListing = errors.New("invalid listing")
)

// Order 列表排序方式
type Order string

const (
	OrderInsertion   Order = ""
	OrderCreatedDesc Order = "created_desc"
)

// Listing 一条二手车广告
type Listing struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	Price        float64   `json:"price"`
	Mileage      int       `json:"mileage"`
	Color        string    `json:"color"`
	FuelType     string    `json:"fuel_type"`
	Transmission string    `json:"transmission"`
	Description  string    `json:"description,omitempty"`
	Photos       []string  `json:"photos"`
	Featured     bool      `json:"featured"`
	Owner        string    `json:"owner,omitempty"`
}

// PrimaryPhoto returns the first photo, or "" when there is none.
func (l Listing) PrimaryPhoto() string {
	if len(l.Photos) == 0 {
		return ""
	}
	return l.Photos[0]
}

// Clone 深拷贝（photos 切片不共享底层数组）
func (l Listing) Clone() Listing {
	out := l
	out.Photos = append(make([]string, 0, len(l.Photos)), l.Photos...)
	return out
}

// ListingFields is everything a caller supplies at creation; id and created_at
// are assigned by the store.
type ListingFields struct {
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Year         int      `json:"year"`
	Price        float64  `json:"price"`
	Mileage      int      `json:"mileage"`
	Color        string   `json:"color"`
	FuelType     string   `json:"fuel_type"`
	Transmission string   `json:"transmission"`
	Description  string   `json:"description"`
	Photos       []string `json:"photos"`
	Featured     bool     `json:"featured"`
	Owner        string   `json:"-"`
}

// ListingPatch 部分更新：nil 字段保持原值
type ListingPatch struct {
	Make         *string   `json:"make"`
	Model        *string   `json:"model"`
	Year         *int      `json:"year"`
	Price        *float64  `json:"price"`
	Mileage      *int      `json:"mileage"`
	Color        *string   `json:"color"`
	FuelType     *string   `json:"fuel_type"`
	Transmission *string   `json:"transmission"`
	Description  *string   `json:"description"`
	Photos       *[]string `json:"photos"`
	Featured     *bool     `json:"featured"`
}

// Apply merges the set fields of p over l and returns the result.
func (p ListingPatch) Apply(l Listing) Listing {
	out := l.Clone()
	if p.Make != nil {
		out.Make = *p.Make
	}
	if p.Model != nil {
		out.Model = *p.Model
	}
	if p.Year != nil {
		out.Year = *p.Year
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if p.Mileage != nil {
		out.Mileage = *p.Mileage
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.FuelType != nil {
		out.FuelType = *p.FuelType
	}
	if p.Transmission != nil {
		out.Transmission = *p.Transmission
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Photos != nil {
		out.Photos = append(make([]string, 0, len(*p.Photos)), (*p.Photos)...)
	}
	if p.Featured != nil {
		out.Featured = *p.Featured
	}
	return out
}

// Match 精确匹配条件，所有非 nil 字段做 AND
type Match struct {
	Make         *string
	Model        *string
	Year         *int
	Price        *float64
	Mileage      *int
	Color        *string
	FuelType     *string
	Transmission *string
	Featured     *bool
	Owner        *string
}

func (m Match) Matches(l Listing) bool {
	switch {
	case m.Make != nil && l.Make != *m.Make:
		return false
	case m.Model != nil && l.Model != *m.Model:
		return false
	case m.Year != nil && l.Year != *m.Year:
		return false
	case m.Price != nil && l.Price != *m.Price:
		return false
	case m.Mileage != nil && l.Mileage != *m.Mileage:
		return false
	case m.Color != nil && l.Color != *m.Color:
		return false
	case m.FuelType != nil && l.FuelType != *m.FuelType:
		return false
	case m.Transmission != nil && l.Transmission != *m.Transmission:
		return false
	case m.Featured != nil && l.Featured != *m.Featured:
		return false
	case m.Owner != nil && l.Owner != *m.Owner:
		return false
	}
	return true
}

type ListingRepository interface {
	List(ctx context.Context, order Order) ([]Listing, error)
	Create(ctx context.Context, f ListingFields) (*Listing, error)
	Get(ctx context.Context, id string) (*Listing, error)
	Update(ctx context.Context, id string, p ListingPatch) (*Listing, error)
	Delete(ctx context.Context, id string) (bool, error)
	Filter(ctx context.Context, m Match, order Order) ([]Listing, error)
}
