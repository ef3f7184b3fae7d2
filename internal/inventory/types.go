package inventory

import "encoding/json"

// Product is a catalog record.
type Product struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// Price is in integer minor units (cents).
	Price    int64  `json:"price"`
	Category string `json:"category,omitempty"`
}

// StockLevel is one row of a stock listing.
type StockLevel struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	// Price is in integer minor units (cents).
	Price int64 `json:"price"`
}

// SalesSummary aggregates movements over a period. Monetary totals are in
// integer minor units.
type SalesSummary struct {
	TotalIn       int   `json:"total_in"`
	TotalOut      int   `json:"total_out"`
	TotalInValue  int64 `json:"total_in_value"`
	TotalOutValue int64 `json:"total_out_value"`
}

// Movement is a recorded stock movement.
type Movement struct {
	ID           int    `json:"id"`
	ProductID    int    `json:"product_id"`
	Quantity     int    `json:"quantity"`
	MovementType string `json:"movement_type"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// MovementInput is the create-movement request body.
type MovementInput struct {
	ProductID    int    `json:"product_id"`
	Quantity     int    `json:"quantity"`
	MovementType string `json:"movement_type"`
	Notes        string `json:"notes,omitempty"`
}

// SalesFilter bounds a sales query. Zero values mean unbounded.
type SalesFilter struct {
	StartDate string
	EndDate   string
	ProductID int
	Category  string
}

// MetricsFilter bounds a metrics summary query. Zero values mean unbounded.
type MetricsFilter struct {
	StartDate string
	EndDate   string
}

// MetricsSummary is the aggregate metrics payload. The backend owns its
// exact shape; it is carried opaquely for presentation.
type MetricsSummary map[string]json.RawMessage
