package customer

import "time"

// Customer receives a fixed daily quantity of milk (litres) from one supplier.
type Customer struct {
	ID            string    `json:"id"`
	SupplierID    string    `json:"supplier_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	DailyQuantity float64   `json:"daily_quantity"`
	CreatedAt     time.Time `json:"created_at"`
}
