// Package directory consumes the external Product/User directory. The core
// treats it as read-only: product ownership and status facts come from here
// and are authoritative for authorization.
package directory

import "context"

type ProductStatus string

const (
	ProductActive ProductStatus = "active"
	ProductDraft  ProductStatus = "draft"
	ProductSold   ProductStatus = "sold"
)

type Product struct {
	ID       string        `json:"id"`
	SellerID string        `json:"seller_id"`
	Title    string        `json:"title"`
	Price    float64       `json:"price"`
	Status   ProductStatus `json:"status"`
}

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type Directory interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetUser(ctx context.Context, id string) (*User, error)
}
