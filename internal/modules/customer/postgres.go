package customer

import (
	"context"
	"database/sql"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL customer repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) ListCustomers(ctx context.Context) ([]*Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id,supplier_id,name,email,phone,address,daily_quantity,created_at
		FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var customers []*Customer
	for rows.Next() {
		c := &Customer{}
		if err := rows.Scan(&c.ID, &c.SupplierID, &c.Name, &c.Email, &c.Phone,
			&c.Address, &c.DailyQuantity, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *postgresRepo) CreateCustomer(ctx context.Context, c *Customer) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO customers (id,supplier_id,name,email,phone,address,daily_quantity)
		VALUES (COALESCE(NULLIF($1,''), gen_random_uuid()::text),$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		c.ID, c.SupplierID, c.Name, c.Email, c.Phone, c.Address, c.DailyQuantity,
	).Scan(&c.ID, &c.CreatedAt)
}
