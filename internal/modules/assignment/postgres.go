package assignment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL customer assignment repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) ListAssignments(ctx context.Context) ([]*Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id,delivery_partner_id,customer_id,assigned_at
		FROM customer_assignments ORDER BY assigned_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Assignment
	for rows.Next() {
		a := &Assignment{}
		if err := rows.Scan(&a.ID, &a.DeliveryPartnerID, &a.CustomerID, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) ReplacePartnerAssignments(ctx context.Context, partnerID string, customerIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM customer_assignments WHERE delivery_partner_id=$1`, partnerID); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	if len(customerIDs) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO customer_assignments (delivery_partner_id, customer_id)
			SELECT $1, unnest($2::text[])`, partnerID, pq.Array(customerIDs)); err != nil {
			return fmt.Errorf("insert assignments: %w", err)
		}
	}
	return tx.Commit()
}
