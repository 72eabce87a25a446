package repo

import (
	"context"

	"github.com/google/uuid"
)

const clientColumns = "id, user_id, first_name, last_name, email, phone, address, city, postal_code, pdl, created_at, updated_at"

func scanClient(row interface{ Scan(...any) error }, c *Client) error {
	return row.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Address, &c.City, &c.PostalCode, &c.PDL, &c.CreatedAt, &c.UpdatedAt)
}

func (r *PostgresRepository) ListClients(ctx context.Context, userID string, order ClientOrder) ([]Client, error) {
	orderBy := "created_at DESC"
	if order == ClientsByFirstName {
		orderBy = "first_name, last_name"
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+clientColumns+" FROM clients WHERE user_id=$1 ORDER BY "+orderBy, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []Client{}
	for rows.Next() {
		var c Client
		if err := scanClient(rows, &c); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *PostgresRepository) GetClient(ctx context.Context, userID, id string) (Client, error) {
	var c Client
	query := "SELECT " + clientColumns + " FROM clients WHERE id=$1 AND user_id=$2"
	err := scanClient(r.db.QueryRowContext(ctx, query, id, userID), &c)
	return c, notFound(err)
}

func (r *PostgresRepository) CreateClient(ctx context.Context, c Client) (Client, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	query := `INSERT INTO clients (id, user_id, first_name, last_name, email, phone, address, city, postal_code, pdl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING ` + clientColumns
	var out Client
	err := scanClient(r.db.QueryRowContext(ctx, query, c.ID, c.UserID, c.FirstName, c.LastName, c.Email,
		c.Phone, c.Address, c.City, c.PostalCode, c.PDL), &out)
	return out, err
}

func (r *PostgresRepository) UpdateClient(ctx context.Context, c Client) (Client, error) {
	query := `UPDATE clients SET first_name=$3, last_name=$4, email=$5, phone=$6, address=$7, city=$8,
		postal_code=$9, pdl=$10, updated_at=now()
		WHERE id=$1 AND user_id=$2 RETURNING ` + clientColumns
	var out Client
	err := scanClient(r.db.QueryRowContext(ctx, query, c.ID, c.UserID, c.FirstName, c.LastName, c.Email,
		c.Phone, c.Address, c.City, c.PostalCode, c.PDL), &out)
	return out, notFound(err)
}

func (r *PostgresRepository) DeleteClient(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM clients WHERE id=$1 AND user_id=$2", id, userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}
