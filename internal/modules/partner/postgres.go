package partner

import (
	"context"
	"database/sql"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL delivery partner repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) ListPartners(ctx context.Context) ([]*DeliveryPartner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id,supplier_id,name,email,phone,vehicle_number,user_id,password,status,created_at
		FROM delivery_partners ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var partners []*DeliveryPartner
	for rows.Next() {
		p := &DeliveryPartner{}
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.Name, &p.Email, &p.Phone,
			&p.VehicleNumber, &p.UserID, &p.Password, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.AssignedCustomers = []string{}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

func (r *postgresRepo) CreatePartner(ctx context.Context, p *DeliveryPartner) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO delivery_partners (id,supplier_id,name,email,phone,vehicle_number,user_id,password,status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		p.ID, p.SupplierID, p.Name, p.Email, p.Phone,
		p.VehicleNumber, p.UserID, p.Password, p.Status).Scan(&p.CreatedAt)
}
