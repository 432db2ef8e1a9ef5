package catalog

import "time"

type Size struct {
	Size     string `json:"size" bson:"size"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

type Product struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Price     float64   `json:"price" bson:"price"`
	Sizes     []Size    `json:"sizes" bson:"sizes"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type OrderItem struct {
	ProductID string `json:"productId" bson:"productId"`
	Qty       int    `json:"qty" bson:"qty"`
}

// Order keeps the items exactly as submitted; Total is frozen at creation.
type Order struct {
	ID        string      `json:"id" bson:"id"`
	UserID    string      `json:"userId" bson:"userId"`
	Items     []OrderItem `json:"items" bson:"items"`
	Total     float64     `json:"total" bson:"total"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

type NewProduct struct {
	Name  string
	Price float64
	Sizes []Size
}

type NewOrder struct {
	UserID string
	Items  []OrderItem
}

// ---- list views ----

type ProductSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type ProductDetails struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type OrderLine struct {
	ProductDetails ProductDetails `json:"productDetails"`
	Qty            int            `json:"qty"`
}

type OrderSummary struct {
	ID    string      `json:"id"`
	Items []OrderLine `json:"items"`
	Total float64     `json:"total"`
}

type ProductList struct {
	Data []ProductSummary `json:"data"`
	Page Page             `json:"page"`
}

type OrderList struct {
	Data []OrderSummary `json:"data"`
	Page Page           `json:"page"`
}
