package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentResult captures the gateway's view of a settled payment.
// Stored as jsonb on the order once a capture completes.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	EmailAddress string `json:"email_address,omitempty"`
	PricePaid    string `json:"price_paid,omitempty"`
}

// Value implements driver.Valuer for jsonb columns.
func (p PaymentResult) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for jsonb columns.
func (p *PaymentResult) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = PaymentResult{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported payment result source %T", src)
	}
}
