package allocation

import (
	"context"
	"database/sql"
	"errors"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL daily allocation repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectColumns = `id,supplier_id,delivery_partner_id,allocation_date::text,
	allocated_quantity,remaining_quantity,status,created_at`

func (r *postgresRepo) ListAllocations(ctx context.Context) ([]*DailyAllocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM daily_allocations ORDER BY allocation_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*DailyAllocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) CreateAllocation(ctx context.Context, a *DailyAllocation) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO daily_allocations
		  (id,supplier_id,delivery_partner_id,allocation_date,allocated_quantity,remaining_quantity,status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		a.ID, a.SupplierID, a.DeliveryPartnerID, a.Date,
		a.AllocatedQuantity, a.RemainingQuantity, a.Status).Scan(&a.CreatedAt)
}

func (r *postgresRepo) UpdateAllocation(ctx context.Context, a *DailyAllocation) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE daily_allocations SET remaining_quantity=$1, status=$2, updated_at=NOW()
		WHERE id=$3`, a.RemainingQuantity, a.Status, a.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementRemaining runs the drain server-side in a single statement, so two
// concurrent completions can never both subtract from the same snapshot.
func (r *postgresRepo) DecrementRemaining(ctx context.Context, id string, qty float64) (*DailyAllocation, error) {
	a, err := scanAllocation(r.db.QueryRowContext(ctx, `
		UPDATE daily_allocations
		SET remaining_quantity = GREATEST(0, remaining_quantity - $2),
		    status = CASE WHEN remaining_quantity - $2 <= 0 THEN 'completed' ELSE 'in_progress' END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+selectColumns, id, qty))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAllocation(row rowScanner) (*DailyAllocation, error) {
	a := &DailyAllocation{}
	if err := row.Scan(&a.ID, &a.SupplierID, &a.DeliveryPartnerID, &a.Date,
		&a.AllocatedQuantity, &a.RemainingQuantity, &a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}
