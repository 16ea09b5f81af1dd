package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ShippingAddress is the destination snapshot stored on each order.
// Persisted as jsonb so historical orders keep the address as entered.
type ShippingAddress struct {
	FullName   string  `json:"full_name" validate:"required"`
	Street     string  `json:"street" validate:"required"`
	City       string  `json:"city" validate:"required"`
	Province   string  `json:"province" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Lat        float64 `json:"lat,omitempty"`
	Lng        float64 `json:"lng,omitempty"`
}

// Value implements driver.Valuer for jsonb columns.
func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for jsonb columns.
func (a *ShippingAddress) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = ShippingAddress{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported shipping address source %T", src)
	}
}
