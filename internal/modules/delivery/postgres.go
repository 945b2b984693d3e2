package delivery

import (
	"context"
	"database/sql"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL delivery repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) ListDeliveries(ctx context.Context) ([]*Delivery, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id,supplier_id,delivery_partner_id,customer_id,quantity,delivery_date::text,
		       scheduled_time,completed_time,status,notes,created_at
		FROM deliveries ORDER BY delivery_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Delivery
	for rows.Next() {
		d := &Delivery{}
		var scheduled, notes sql.NullString
		var completed sql.NullTime
		if err := rows.Scan(&d.ID, &d.SupplierID, &d.DeliveryPartnerID, &d.CustomerID,
			&d.Quantity, &d.Date, &scheduled, &completed, &d.Status, &notes, &d.CreatedAt); err != nil {
			return nil, err
		}
		// suggested_quantity is not stored; it starts out equal to quantity.
		d.SuggestedQuantity = d.Quantity
		d.ScheduledTime = DefaultScheduledTime
		if scheduled.Valid && scheduled.String != "" {
			d.ScheduledTime = scheduled.String
		}
		if completed.Valid {
			t := completed.Time
			d.CompletedTime = &t
		}
		d.Notes = notes.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *postgresRepo) CreateDelivery(ctx context.Context, d *Delivery) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO deliveries
		  (id,supplier_id,delivery_partner_id,customer_id,quantity,delivery_date,scheduled_time,completed_time,status,notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at`,
		d.ID, d.SupplierID, d.DeliveryPartnerID, d.CustomerID, d.Quantity, d.Date,
		d.ScheduledTime, d.CompletedTime, d.Status, nullString(d.Notes)).Scan(&d.CreatedAt)
}

func (r *postgresRepo) UpdateDelivery(ctx context.Context, d *Delivery) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE deliveries SET status=$1, notes=$2, completed_time=$3, quantity=$4, updated_at=NOW()
		WHERE id=$5`,
		d.Status, nullString(d.Notes), d.CompletedTime, d.Quantity, d.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
