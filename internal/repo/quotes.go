package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const quoteColumns = `q.id, q.user_id, q.project_id, q.client_id, q.quote_number, q.name, q.description,
	q.total_amount, q.status, q.valid_until, q.items, q.created_at, q.updated_at,
	p.name, c.first_name, c.last_name, c.email, c.phone, c.city`

const quoteFrom = ` FROM quotes q
	JOIN projects p ON p.id = q.project_id
	JOIN clients c ON c.id = q.client_id`

func scanQuote(row interface{ Scan(...any) error }, q *Quote) error {
	var items []byte
	cs := ClientSummary{}
	err := row.Scan(&q.ID, &q.UserID, &q.ProjectID, &q.ClientID, &q.QuoteNumber, &q.Name, &q.Description,
		&q.TotalAmount, &q.Status, &q.ValidUntil, &items, &q.CreatedAt, &q.UpdatedAt,
		&q.ProjectName, &cs.FirstName, &cs.LastName, &cs.Email, &cs.Phone, &cs.City)
	if err != nil {
		return err
	}
	cs.ID = q.ClientID
	q.Client = &cs
	q.Items = []QuoteItem{}
	if err := fromJSON(items, &q.Items); err != nil {
		return fmt.Errorf("items: %w", err)
	}
	return nil
}

func (r *PostgresRepository) queryQuotes(ctx context.Context, query string, args ...any) ([]Quote, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := []Quote{}
	for rows.Next() {
		var q Quote
		if err := scanQuote(rows, &q); err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func (r *PostgresRepository) ListQuotes(ctx context.Context, userID string) ([]Quote, error) {
	return r.queryQuotes(ctx, "SELECT "+quoteColumns+quoteFrom+
		" WHERE q.user_id=$1 ORDER BY q.created_at DESC", userID)
}

func (r *PostgresRepository) ListQuotesByProject(ctx context.Context, userID, projectID string) ([]Quote, error) {
	return r.queryQuotes(ctx, "SELECT "+quoteColumns+quoteFrom+
		" WHERE q.user_id=$1 AND q.project_id=$2 ORDER BY q.created_at DESC", userID, projectID)
}

func (r *PostgresRepository) GetQuote(ctx context.Context, userID, id string) (Quote, error) {
	var q Quote
	err := scanQuote(r.db.QueryRowContext(ctx, "SELECT "+quoteColumns+quoteFrom+
		" WHERE q.id=$1 AND q.user_id=$2", id, userID), &q)
	return q, notFound(err)
}

func (r *PostgresRepository) CreateQuote(ctx context.Context, q Quote) (Quote, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	items, err := toJSON(q.Items)
	if err != nil {
		return Quote{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Quote{}, err
	}
	defer tx.Rollback()

	var clientID string
	err = tx.QueryRowContext(ctx, "SELECT client_id FROM projects WHERE id=$1 AND user_id=$2",
		q.ProjectID, q.UserID).Scan(&clientID)
	if err != nil {
		return Quote{}, notFound(err)
	}

	year := time.Now().Year()
	var last int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(CAST(split_part(quote_number, '-', 3) AS INTEGER)), 0)
		FROM quotes WHERE user_id=$1 AND quote_number LIKE $2`, q.UserID, fmt.Sprintf("DEV-%d-%%", year)).Scan(&last)
	if err != nil {
		return Quote{}, fmt.Errorf("next quote number: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO quotes
		(id, user_id, project_id, client_id, quote_number, name, description, total_amount, status, valid_until, items)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		q.ID, q.UserID, q.ProjectID, clientID, QuoteNumber(year, last+1), q.Name, q.Description,
		q.TotalAmount, q.Status, q.ValidUntil, items)
	if err != nil {
		if isUniqueViolation(err) {
			return Quote{}, ErrConflict
		}
		return Quote{}, err
	}
	if err := tx.Commit(); err != nil {
		return Quote{}, err
	}
	return r.GetQuote(ctx, q.UserID, q.ID)
}

func (r *PostgresRepository) UpdateQuoteStatus(ctx context.Context, userID, id string, from, to QuoteStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE quotes SET status=$4, updated_at=now() WHERE id=$1 AND user_id=$2 AND status=$3", id, userID, from, to)
	if err != nil {
		return err
	}
	if err := expectOne(res); !errors.Is(err, ErrNotFound) {
		return err
	}
	// nothing matched: either the quote is gone or its status moved on
	var exists bool
	err = r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM quotes WHERE id=$1 AND user_id=$2)", id, userID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *PostgresRepository) DeleteQuote(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM quotes WHERE id=$1 AND user_id=$2", id, userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}
