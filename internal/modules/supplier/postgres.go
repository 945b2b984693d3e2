package supplier

import (
	"context"
	"database/sql"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL supplier repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ListSuppliers(ctx context.Context) ([]*Supplier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, phone, address, license_number, total_capacity, status,
		       COALESCE(registration_date, created_at), created_at, updated_at
		FROM suppliers
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []*Supplier
	for rows.Next() {
		s := &Supplier{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.LicenseNumber,
			&s.TotalCapacity, &s.Status, &s.RegistrationDate, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *postgresRepository) CreateSupplier(ctx context.Context, s *Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, email, phone, address, license_number, total_capacity, status, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		s.ID, s.Name, s.Email, s.Phone, s.Address, s.LicenseNumber,
		s.TotalCapacity, s.Status, s.RegistrationDate,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *postgresRepository) UpdateSupplierStatus(ctx context.Context, id string, status Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE suppliers SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
