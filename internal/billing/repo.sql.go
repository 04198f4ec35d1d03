package billing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateInvoice inserts a new invoice row.
func (r *Repository) CreateInvoice(ctx context.Context, inv Invoice) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO invoices (id, workshop_id, number, amount, issue_date, collected, concept, client_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.WorkshopID, inv.Number, inv.Amount, inv.IssueDate, inv.Collected, inv.Concept, inv.ClientID, inv.CreatedAt, inv.UpdatedAt)
	return err
}

// GetInvoice returns one invoice or ErrInvoiceNotFound.
func (r *Repository) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	var inv Invoice
	err := r.pool.QueryRow(ctx, `SELECT id, workshop_id, number, amount, issue_date, collected, concept, client_id, created_at, updated_at
FROM invoices WHERE id = $1`, id).Scan(
		&inv.ID, &inv.WorkshopID, &inv.Number, &inv.Amount, &inv.IssueDate,
		&inv.Collected, &inv.Concept, &inv.ClientID, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func listFilters(req ListInvoicesRequest) (string, []interface{}) {
	clause := ` WHERE workshop_id = $1`
	args := []interface{}{req.WorkshopID}
	if req.Collected != nil {
		args = append(args, *req.Collected)
		clause += ` AND collected = $` + strconv.Itoa(len(args))
	}
	if !req.From.IsZero() {
		args = append(args, req.From)
		clause += ` AND issue_date >= $` + strconv.Itoa(len(args))
	}
	if !req.To.IsZero() {
		args = append(args, req.To)
		clause += ` AND issue_date <= $` + strconv.Itoa(len(args))
	}
	return clause, args
}

// ListInvoices returns invoices matching the request filters. A zero PerPage
// returns the full matching set, which view hydration relies on.
func (r *Repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	clause, args := listFilters(req)
	query := `SELECT id, workshop_id, number, amount, issue_date, collected, concept, client_id, created_at, updated_at
FROM invoices` + clause + ` ORDER BY issue_date DESC, number`
	if req.PerPage > 0 {
		page := req.Page
		if page <= 0 {
			page = 1
		}
		args = append(args, req.PerPage)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		args = append(args, (page-1)*req.PerPage)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(
			&inv.ID, &inv.WorkshopID, &inv.Number, &inv.Amount, &inv.IssueDate,
			&inv.Collected, &inv.Concept, &inv.ClientID, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountInvoices reports the count of invoices matching the request filters.
func (r *Repository) CountInvoices(ctx context.Context, req ListInvoicesRequest) (int, error) {
	clause, args := listFilters(req)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+clause, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// SetCollected performs the point update for the collected flag.
func (r *Repository) SetCollected(ctx context.Context, id string, collected bool, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET collected = $2, updated_at = $3 WHERE id = $1`, id, collected, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}
